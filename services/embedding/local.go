package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// LocalProvider produces deterministic embeddings from token hashes
// without calling out to any model. It exists so the service can run
// (ingest, retrieve, and serve) without a network-reachable embedding
// backend — useful for local development and for tests that would
// otherwise need to stub an HTTP server for every case.
type LocalProvider struct{}

// NewLocalProvider constructs a LocalProvider. It holds no state.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	return hashEmbed(text), nil
}

func (p *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, ErrEmptyInput
		}
		out[i] = hashEmbed(t)
	}
	return out, nil
}

// hashEmbed folds every token of text into Dimension buckets via FNV-1a,
// giving semantically-unrelated text near-orthogonal vectors and repeated
// tokens additive weight — a cheap stand-in for a trained embedding model.
func hashEmbed(text string) []float32 {
	v := make([]float32, Dimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		bucket := h.Sum32() % uint32(Dimension)
		v[bucket] += 1.0
	}
	return normalize(v)
}
