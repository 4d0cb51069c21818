// Package docmodel defines the shared document model used by the
// vector index, lexical index, and retrieval packages. It exists as a
// separate leaf package so those packages can depend on the document
// shape without depending on each other.
package docmodel

// DocumentType classifies the kind of content a chunk represents.
type DocumentType string

const (
	DocumentTypeText    DocumentType = "text"
	DocumentTypeTable   DocumentType = "table"
	DocumentTypeProduct DocumentType = "product"
)

// Metadata carries everything about a Document's provenance beyond its
// text, used both for source attribution and for chunk bookkeeping.
type Metadata struct {
	Source      string       `json:"source"`
	Category    string       `json:"category"`
	Type        DocumentType `json:"type"`
	ChunkIndex  int          `json:"chunkIndex"`
	TotalChunks int          `json:"totalChunks"`
}

// Document is one immutable, indexed unit of the corpus.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
