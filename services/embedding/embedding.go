// Package embedding defines the opaque text-to-vector boundary the rest of
// the retrieval stack depends on. Embeddings are fixed-dimension,
// L2-normalized float32 vectors; how they are produced is a deployment
// choice between a local deterministic provider and a remote HTTP service.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Dimension is the fixed vector width every provider in this process must
// produce. Mixing dimensions within one index is a configuration error, not
// something the retrieval stack attempts to reconcile.
const Dimension = 384

// Provider computes embeddings for text. Implementations must return
// L2-normalized vectors of length Dimension.
type Provider interface {
	// Embed computes a single embedding.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch computes embeddings for multiple texts in one call,
	// returning vectors in the same order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyInput is returned when Embed or EmbedBatch is given no text.
var ErrEmptyInput = fmt.Errorf("embedding: input is empty")

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
