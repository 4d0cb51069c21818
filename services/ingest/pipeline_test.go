package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexguard/secure-rag/services/embedding"
	"github.com/cortexguard/secure-rag/services/lexical"
	"github.com/cortexguard/secure-rag/services/retrieval"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

func writeDoc(t *testing.T, root, rel, content string) {
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRun_IngestsSupportedFilesAndSkipsOthers(t *testing.T) {
	docsRoot := t.TempDir()
	indexDir := t.TempDir()

	writeDoc(t, docsRoot, "billing/invoices.md", "# Invoices\n\nHow to export your billing invoice as a PDF.")
	writeDoc(t, docsRoot, "auth/tokens.txt", "API authentication tokens are issued per integration.")
	writeDoc(t, docsRoot, "assets/logo.png", "not text")

	p := New(docsRoot, indexDir, 200, 20, embedding.NewLocalProvider(), vectorindex.New(), lexical.New())

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if result.Documents == 0 {
		t.Fatalf("expected at least one ingested document")
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("Skipped = %v, want exactly the png", result.Skipped)
	}

	if _, err := os.Stat(filepath.Join(indexDir, "vectors.json")); err != nil {
		t.Fatalf("expected snapshot file to exist: %v", err)
	}
}

func TestRun_CategoryDerivedFromFirstPathSegment(t *testing.T) {
	docsRoot := t.TempDir()
	indexDir := t.TempDir()
	writeDoc(t, docsRoot, "billing/invoices.md", "Invoice export instructions go here in enough detail to form a full chunk.")

	vidx := vectorindex.New()
	p := New(docsRoot, indexDir, 200, 20, embedding.NewLocalProvider(), vidx, lexical.New())
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	matches := vidx.Search(make([]float32, embedding.Dimension), 10)
	if len(matches) == 0 {
		t.Fatalf("expected ingested documents to be searchable")
	}
	if matches[0].Document.Metadata.Category != "billing" {
		t.Fatalf("Category = %q, want billing", matches[0].Document.Metadata.Category)
	}
}

func TestIsSupported_TableAndProductExtensions(t *testing.T) {
	cases := []struct {
		rel  string
		ext  string
		want bool
	}{
		{"specs/dimensions.csv", ".csv", true},
		{"specs/dimensions.tsv", ".tsv", true},
		{"products/widget.json", ".json", true},
		{"notes/widget.json", ".json", false},
		{"assets/logo.png", ".png", false},
	}
	for _, c := range cases {
		if got := isSupported(c.rel, c.ext); got != c.want {
			t.Fatalf("isSupported(%q, %q) = %v, want %v", c.rel, c.ext, got, c.want)
		}
	}
}

func TestClassifyType_TableAndProductExtensions(t *testing.T) {
	cases := []struct {
		rel  string
		ext  string
		want retrieval.DocumentType
	}{
		{"specs/dimensions.csv", ".csv", retrieval.DocumentTypeTable},
		{"specs/dimensions.tsv", ".tsv", retrieval.DocumentTypeTable},
		{"products/widget.json", ".json", retrieval.DocumentTypeProduct},
		{"billing/invoices.md", ".md", retrieval.DocumentTypeText},
	}
	for _, c := range cases {
		if got := classifyType(c.rel, c.ext); got != c.want {
			t.Fatalf("classifyType(%q, %q) = %q, want %q", c.rel, c.ext, got, c.want)
		}
	}
}

func TestRun_TableAndProductFilesReachTheirDocumentType(t *testing.T) {
	docsRoot := t.TempDir()
	indexDir := t.TempDir()

	writeDoc(t, docsRoot, "specs/dimensions.csv", "part,length_mm,width_mm\nPMP-25,25,25\nPMP-40,40,40\n")
	writeDoc(t, docsRoot, "products/widget.json", `{"name":"Widget","sku":"WID-100","description":"A small widget used in mounting brackets."}`)

	vidx := vectorindex.New()
	p := New(docsRoot, indexDir, 200, 20, embedding.NewLocalProvider(), vidx, lexical.New())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Skipped, "csv and products-json files must not be skipped")

	matches := vidx.Search(make([]float32, embedding.Dimension), 10)
	byType := map[retrieval.DocumentType]bool{}
	for _, m := range matches {
		byType[m.Document.Metadata.Type] = true
	}
	require.True(t, byType[retrieval.DocumentTypeTable], "expected a table-typed chunk from the csv file")
	require.True(t, byType[retrieval.DocumentTypeProduct], "expected a product-typed chunk from the products/ json file")
}

func TestChunkID_StableAcrossRunsDistinctAcrossChunks(t *testing.T) {
	first := chunkID("billing/invoices.md", 0)
	second := chunkID("billing/invoices.md", 0)
	require.Equal(t, first, second, "re-ingesting the same chunk must reuse its ID")

	other := chunkID("billing/invoices.md", 1)
	require.NotEqual(t, first, other, "distinct chunks must get distinct IDs")
}

func TestRun_ReingestionReusesDocumentIDs(t *testing.T) {
	docsRoot := t.TempDir()
	indexDir := t.TempDir()
	writeDoc(t, docsRoot, "billing/invoices.md", "Invoice export instructions go here in enough detail to form a full chunk.")

	vidx := vectorindex.New()
	p := New(docsRoot, indexDir, 200, 20, embedding.NewLocalProvider(), vidx, lexical.New())

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	firstID := vidx.Search(make([]float32, embedding.Dimension), 1)[0].Document.ID

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	secondID := vidx.Search(make([]float32, embedding.Dimension), 1)[0].Document.ID

	require.Equal(t, firstID, secondID, "re-ingesting unchanged content should produce the same document ID")
}
