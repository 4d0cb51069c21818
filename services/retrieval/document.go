// Package retrieval defines the shared document model and implements
// HybridRetriever and ContextBuilder, fusing VectorIndex and LexicalIndex
// results via Reciprocal Rank Fusion.
package retrieval

import "github.com/cortexguard/secure-rag/services/docmodel"

// DocumentType classifies the kind of content a chunk represents.
type DocumentType = docmodel.DocumentType

const (
	DocumentTypeText    = docmodel.DocumentTypeText
	DocumentTypeTable   = docmodel.DocumentTypeTable
	DocumentTypeProduct = docmodel.DocumentTypeProduct
)

// Metadata carries everything about a Document's provenance beyond its
// text, used both for source attribution and for chunk bookkeeping.
type Metadata = docmodel.Metadata

// Document is one immutable, indexed unit of the corpus.
type Document = docmodel.Document

// SearchResult is a scored Document produced by a retrieval pass. It never
// outlives the request that produced it.
type SearchResult struct {
	Document    Document
	Score       float64
	VectorScore float64
}
