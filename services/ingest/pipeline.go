// Package ingest implements IngestionPipeline: walking the configured doc
// root, chunking each file's text, embedding the chunks, and populating
// the vector and lexical indices before snapshotting the vector index
// (vectors and documents) to disk; the lexical index is not persisted.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/cortexguard/secure-rag/services/apperr"
	"github.com/cortexguard/secure-rag/services/embedding"
	"github.com/cortexguard/secure-rag/services/lexical"
	"github.com/cortexguard/secure-rag/services/retrieval"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

// chunkNamespace seeds the deterministic chunk IDs below so re-ingesting an
// unchanged file reproduces the same document IDs instead of minting new
// ones every run.
var chunkNamespace = uuid.MustParse("6f1c6e0a-9b9a-4e3a-9f7d-8f0b6d6b9a1b")

// chunkID derives a stable document ID from a chunk's path and index within
// its file, so the same chunk always maps to the same ID across runs.
func chunkID(relPath string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", relPath, index))).String()
}

// EmbedBatchSize bounds how many chunks are sent to the embedding provider
// in one EmbedBatch call.
const EmbedBatchSize = 32

// EmbedConcurrency bounds how many EmbedBatch calls run at once.
const EmbedConcurrency = 4

// supportedTextExtensions are the extensions this pipeline reads outright.
// A bare ".json" is only supported when it lives under a "products/"
// folder (see isSupported); real PDF/DOCX/HTML parsing is explicitly out
// of scope, and anything else is skipped with a logged IngestionError so a
// bad file doesn't abort the whole run.
var supportedTextExtensions = map[string]bool{
	".md":  true,
	".txt": true,
	".csv": true,
	".tsv": true,
}

// isSupported reports whether rel (with extension ext) is a file this
// pipeline knows how to read: the plain text extensions above, or a
// ".json" file under a "products/" folder.
func isSupported(rel, ext string) bool {
	if supportedTextExtensions[ext] {
		return true
	}
	return ext == ".json" && strings.Contains(filepath.ToSlash(rel), "products/")
}

// Pipeline walks a doc root, chunks and embeds its contents, and
// atomically replaces the VectorIndex and LexicalIndex.
type Pipeline struct {
	docsRoot     string
	indexDir     string
	chunkSize    int
	chunkOverlap int

	embedder embedding.Provider
	vectors  *vectorindex.Index
	lex      *lexical.Index
}

// New wires the pipeline to its dependencies. chunkSize/chunkOverlap come
// from config.
func New(docsRoot, indexDir string, chunkSize, chunkOverlap int, embedder embedding.Provider, vectors *vectorindex.Index, lex *lexical.Index) *Pipeline {
	return &Pipeline{
		docsRoot:     docsRoot,
		indexDir:     indexDir,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		embedder:     embedder,
		vectors:      vectors,
		lex:          lex,
	}
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Skipped   []string
}

// Run walks docsRoot, chunks every supported file, embeds the chunks, and
// swaps them into the vector and lexical indices, then snapshots the
// vector index to indexDir/vectors.json.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var docs []retrieval.Document
	var skipped []string

	err := filepath.WalkDir(p.docsRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		rel, relErr := filepath.Rel(p.docsRoot, path)
		if relErr != nil {
			rel = path
		}

		if !isSupported(rel, ext) {
			skipped = append(skipped, path)
			logSkip(apperr.New("ingest.walk", apperr.KindIngestion, fmt.Errorf("unsupported file extension %q", ext)), path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logSkip(apperr.New("ingest.read", apperr.KindIngestion, err), path)
			skipped = append(skipped, path)
			return nil
		}

		category := firstPathSegment(rel)
		docType := classifyType(rel, ext)

		chunks, err := p.splitterFor(ext).SplitText(string(content))
		if err != nil {
			return apperr.New("ingest.split", apperr.KindIngestion, err)
		}

		source := filepath.Base(path)
		for i, chunk := range chunks {
			docs = append(docs, retrieval.Document{
				ID:   chunkID(rel, i),
				Text: chunk,
				Metadata: retrieval.Metadata{
					Source:      source,
					Category:    category,
					Type:        docType,
					ChunkIndex:  i,
					TotalChunks: len(chunks),
				},
			})
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("ingest: walk %s: %w", p.docsRoot, err)
	}

	if len(docs) == 0 {
		if err := p.vectors.Rebuild(nil, nil); err != nil {
			return Result{}, err
		}
		p.lex.Rebuild(nil)
		return Result{Documents: 0, Skipped: skipped}, nil
	}

	vectors, err := p.embedAll(ctx, docs)
	if err != nil {
		return Result{}, apperr.New("ingest.embed", apperr.KindIngestion, err)
	}

	if err := p.vectors.Rebuild(docs, vectors); err != nil {
		return Result{}, err
	}
	p.lex.Rebuild(docs)

	if err := os.MkdirAll(p.indexDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("ingest: create index dir: %w", err)
	}
	snapshotPath := filepath.Join(p.indexDir, "vectors.json")
	if err := p.vectors.Save(snapshotPath); err != nil {
		return Result{}, fmt.Errorf("ingest: save snapshot: %w", err)
	}

	return Result{Documents: len(docs), Skipped: skipped}, nil
}

// embedAll batches docs into EmbedBatchSize groups and runs up to
// EmbedConcurrency batches concurrently via errgroup, preserving output
// order by writing each batch's vectors into a pre-sized slice at its own
// offset rather than appending.
func (p *Pipeline) embedAll(ctx context.Context, docs []retrieval.Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(EmbedConcurrency)

	for start := 0; start < len(docs); start += EmbedBatchSize {
		start := start
		end := start + EmbedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = docs[i].Text
			}
			batchVecs, err := p.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
			}
			for i, v := range batchVecs {
				vectors[start+i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *Pipeline) splitterFor(ext string) textsplitter.TextSplitter {
	switch ext {
	case ".md":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(p.chunkSize),
			textsplitter.WithChunkOverlap(p.chunkOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		)
	default:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(p.chunkSize),
			textsplitter.WithChunkOverlap(p.chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		)
	}
}

// logSkip logs a skipped file's apperr.KindIngestion error, the form
// SPEC_FULL.md describes for files the pipeline declines to read.
func logSkip(err error, path string) {
	slog.Warn("ingest: skipping file", "path", path, "error", err)
}

func firstPathSegment(rel string) string {
	rel = filepath.ToSlash(rel)
	if idx := strings.Index(rel, "/"); idx >= 0 {
		return rel[:idx]
	}
	return "general"
}

func classifyType(rel, ext string) retrieval.DocumentType {
	switch {
	case ext == ".csv" || ext == ".tsv":
		return retrieval.DocumentTypeTable
	case strings.Contains(filepath.ToSlash(rel), "products/") && ext == ".json":
		return retrieval.DocumentTypeProduct
	default:
		return retrieval.DocumentTypeText
	}
}
