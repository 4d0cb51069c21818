package retrieval

import (
	"context"
	"testing"

	"github.com/cortexguard/secure-rag/services/embedding"
	"github.com/cortexguard/secure-rag/services/lexical"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

func buildCorpus(t *testing.T) (*vectorindex.Index, *lexical.Index, embedding.Provider) {
	docs := []Document{
		{ID: "d1", Text: "how to export your billing invoice as a pdf", Metadata: Metadata{Source: "billing.md", Category: "billing", Type: DocumentTypeText}},
		{ID: "d2", Text: "configuring api authentication tokens for integrations", Metadata: Metadata{Source: "auth.md", Category: "auth", Type: DocumentTypeText}},
		{ID: "d3", Text: "dashboard widget layout and customization options", Metadata: Metadata{Source: "ui.md", Category: "ui", Type: DocumentTypeText}},
	}

	embedder := embedding.NewLocalProvider()
	vecs := make([][]float32, len(docs))
	for i, d := range docs {
		v, err := embedder.Embed(context.Background(), d.Text)
		if err != nil {
			t.Fatalf("embed error = %v", err)
		}
		vecs[i] = v
	}

	vidx := vectorindex.New()
	if err := vidx.Rebuild(docs, vecs); err != nil {
		t.Fatalf("Rebuild error = %v", err)
	}

	lidx := lexical.New()
	lidx.Rebuild(docs)

	return vidx, lidx, embedder
}

func TestSearch_ReturnsRelevantBillingDoc(t *testing.T) {
	vidx, lidx, embedder := buildCorpus(t)
	r := New(vidx, lidx, embedder)

	results, err := r.Search(context.Background(), "how do I export my invoice", Options{TopK: 2})
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
	if results[0].Document.ID != "d1" {
		t.Fatalf("top result = %s, want d1", results[0].Document.ID)
	}
}

func TestSearch_RelevanceGateExcludesUnrelated(t *testing.T) {
	vidx, lidx, embedder := buildCorpus(t)
	r := New(vidx, lidx, embedder)

	results, err := r.Search(context.Background(), "completely unrelated query about astronomy", Options{TopK: 3, RelevanceThreshold: 0.3})
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	for _, res := range results {
		if res.VectorScore < 0.3 && res.Score <= 0.005 {
			t.Fatalf("result %s should have been excluded by the relevance gate", res.Document.ID)
		}
	}
}

func TestContextBuilder_CapsUniqueSources(t *testing.T) {
	cb := NewContextBuilder("https://docs.example.com")
	results := []SearchResult{
		{Document: Document{ID: "1", Text: "a", Metadata: Metadata{Source: "s1.md", Category: "c1"}}},
		{Document: Document{ID: "2", Text: "b", Metadata: Metadata{Source: "s2.md", Category: "c1"}}},
		{Document: Document{ID: "3", Text: "c", Metadata: Metadata{Source: "s3.md", Category: "c1"}}},
		{Document: Document{ID: "4", Text: "d", Metadata: Metadata{Source: "s4.md", Category: "c1"}}},
		{Document: Document{ID: "5", Text: "e", Metadata: Metadata{Source: "s5.md", Category: "c1"}}},
	}
	_, sources := cb.Build(results)
	if len(sources) != 4 {
		t.Fatalf("len(sources) = %d, want 4", len(sources))
	}
}

func TestContextBuilder_DeduplicatesRepeatedSource(t *testing.T) {
	cb := NewContextBuilder("https://docs.example.com")
	results := []SearchResult{
		{Document: Document{ID: "1", Text: "chunk one", Metadata: Metadata{Source: "s1.md", Category: "c1"}}},
		{Document: Document{ID: "2", Text: "chunk two", Metadata: Metadata{Source: "s1.md", Category: "c1"}}},
	}
	block, sources := cb.Build(results)
	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	if block == "" {
		t.Fatalf("expected a non-empty context block")
	}
}
