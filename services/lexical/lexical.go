// Package lexical implements LexicalIndex: a TF-IDF scorer over the same
// document corpus the VectorIndex holds, giving the retriever a keyword-
// exact complement to embedding similarity.
package lexical

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cortexguard/secure-rag/services/docmodel"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// generation is the immutable corpus statistics swapped atomically on
// rebuild, mirroring the vector index's copy-on-write approach.
type generation struct {
	documents []docmodel.Document
	termFreq  []map[string]int // per document
	docFreq   map[string]int   // term -> number of documents containing it
	docLen    []int
}

// Index holds the current TF-IDF generation.
type Index struct {
	current atomic.Pointer[generation]
}

// New returns an empty index.
func New() *Index {
	idx := &Index{}
	idx.current.Store(&generation{})
	return idx
}

// Rebuild recomputes term and document frequencies for the given corpus
// and atomically swaps it in.
func (idx *Index) Rebuild(docs []docmodel.Document) {
	termFreq := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	docLen := make([]int, len(docs))

	for i, d := range docs {
		toks := tokenize(d.Text)
		docLen[i] = len(toks)
		freq := make(map[string]int, len(toks))
		for _, t := range toks {
			freq[t]++
		}
		termFreq[i] = freq
		for t := range freq {
			docFreq[t]++
		}
	}

	idx.current.Store(&generation{
		documents: docs,
		termFreq:  termFreq,
		docFreq:   docFreq,
		docLen:    docLen,
	})
}

// Len reports the number of documents in the current generation.
func (idx *Index) Len() int {
	return len(idx.current.Load().documents)
}

// Match is one scored TF-IDF hit.
type Match struct {
	Document docmodel.Document
	Score    float64
}

// Search scores query's tokens against every document via TF-IDF and
// returns the topK documents by descending score. Documents scoring zero
// are omitted.
func (idx *Index) Search(query string, topK int) []Match {
	gen := idx.current.Load()
	n := len(gen.documents)
	if n == 0 || topK <= 0 {
		return nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	scores := make([]float64, n)
	for _, term := range queryTerms {
		df := gen.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log(float64(n+1) / float64(df))
		for i := 0; i < n; i++ {
			tf := gen.termFreq[i][term]
			if tf == 0 {
				continue
			}
			normalizedTF := float64(tf)
			if gen.docLen[i] > 0 {
				normalizedTF = float64(tf) / float64(gen.docLen[i])
			}
			scores[i] += normalizedTF * idf
		}
	}

	matches := make([]Match, 0, n)
	for i, s := range scores {
		if s <= 0 {
			continue
		}
		matches = append(matches, Match{Document: gen.documents[i], Score: s})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK]
}
