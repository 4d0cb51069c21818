package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/cortexguard/secure-rag/services/embedding"
	"github.com/cortexguard/secure-rag/services/lexical"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

// rrfK is the Reciprocal Rank Fusion rank-damping constant.
const rrfK = 60

// Weights controls how much each retrieval phase contributes to the fused
// score.
type Weights struct {
	Vector   float64
	Lexical  float64
}

// DefaultWeights matches the spec's default fusion weighting.
var DefaultWeights = Weights{Vector: 0.7, Lexical: 0.3}

// Options configures one HybridRetriever.Search call.
type Options struct {
	TopK               int
	RelevanceThreshold float64 // default 0.3 if zero
	Weights            Weights // DefaultWeights if zero value
}

// HybridRetriever runs a vector search and then a lexical search, fuses their rankings with RRF, applies a relevance gate, and returns the
// final ranked SearchResult slice.
type HybridRetriever struct {
	vectors  *vectorindex.Index
	lexical  *lexical.Index
	embedder embedding.Provider
}

// New wires a ready VectorIndex, LexicalIndex, and EmbeddingProvider.
func New(vectors *vectorindex.Index, lex *lexical.Index, embedder embedding.Provider) *HybridRetriever {
	return &HybridRetriever{vectors: vectors, lexical: lex, embedder: embedder}
}

type rankedHit struct {
	doc         Document
	vectorRank  int // -1 if absent from vector phase
	lexicalRank int // -1 if absent from lexical phase
	vectorScore float64
}

// Search implements the five-step hybrid retrieval algorithm: embed once,
// run both phases over 2*K candidates, fuse via RRF, gate by relevance,
// and return the top K.
func (r *HybridRetriever) Search(ctx context.Context, query string, opts Options) ([]SearchResult, error) {
	if opts.TopK <= 0 {
		return nil, fmt.Errorf("retrieval: TopK must be positive")
	}
	threshold := opts.RelevanceThreshold
	if threshold == 0 {
		threshold = 0.3
	}
	weights := opts.Weights
	if weights.Vector == 0 && weights.Lexical == 0 {
		weights = DefaultWeights
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	fanout := 2 * opts.TopK
	vectorHits := r.vectors.Search(queryVec, fanout)
	lexicalHits := r.lexical.Search(query, fanout)

	byID := make(map[string]*rankedHit)
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))

	for rank, hit := range vectorHits {
		id := hit.Document.ID
		rh, ok := byID[id]
		if !ok {
			rh = &rankedHit{doc: hit.Document, vectorRank: -1, lexicalRank: -1}
			byID[id] = rh
			order = append(order, id)
		}
		rh.vectorRank = rank
		rh.vectorScore = hit.Score
	}
	for rank, hit := range lexicalHits {
		id := hit.Document.ID
		rh, ok := byID[id]
		if !ok {
			rh = &rankedHit{doc: hit.Document, vectorRank: -1, lexicalRank: -1}
			byID[id] = rh
			order = append(order, id)
		}
		rh.lexicalRank = rank
	}

	type fused struct {
		result SearchResult
		score  float64
	}
	candidates := make([]fused, 0, len(order))
	for _, id := range order {
		rh := byID[id]
		var score float64
		if rh.vectorRank >= 0 {
			score += weights.Vector / float64(rrfK+rh.vectorRank+1)
		}
		if rh.lexicalRank >= 0 {
			score += weights.Lexical / float64(rrfK+rh.lexicalRank+1)
		}
		if rh.vectorScore < threshold && score <= 0.005 {
			continue
		}
		candidates = append(candidates, fused{
			result: SearchResult{Document: rh.doc, Score: score, VectorScore: rh.vectorScore},
			score:  score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].result.VectorScore > candidates[j].result.VectorScore
	})

	topK := opts.TopK
	if topK > len(candidates) {
		topK = len(candidates)
	}
	out := make([]SearchResult, topK)
	for i := 0; i < topK; i++ {
		out[i] = candidates[i].result
	}
	return out, nil
}
