package retrieval

import (
	"fmt"
	"strings"
)

// maxUniqueSources caps the number of distinct source documents surfaced
// to the client, regardless of how many chunks from the same source
// appear in the ranked results.
const maxUniqueSources = 4

// SourceReference is the client-facing citation for one retrieved chunk.
type SourceReference struct {
	Filename string  `json:"filename"`
	Category string  `json:"category"`
	Section  string  `json:"section"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// ContextBuilder formats SearchResults into a numbered context block for
// the LLM prompt and a deduplicated source list for the client.
type ContextBuilder struct {
	baseURL string
}

// NewContextBuilder constructs a builder that resolves source URLs as
// baseURL + "/" + category + "/" + filename.
func NewContextBuilder(baseURL string) *ContextBuilder {
	return &ContextBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// Build returns the formatted context block plus the deduplicated source
// list, capped at maxUniqueSources entries.
func (b *ContextBuilder) Build(results []SearchResult) (contextBlock string, sources []SourceReference) {
	var blocks []string
	seen := make(map[string]bool)

	for i, r := range results {
		meta := r.Document.Metadata
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s/%s (%s)]\n%s", i+1, meta.Category, meta.Source, meta.Type, r.Document.Text))

		if len(sources) >= maxUniqueSources {
			continue
		}
		key := meta.Category + "/" + meta.Source
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, SourceReference{
			Filename: meta.Source,
			Category: meta.Category,
			Section:  truncateRunes(r.Document.Text, 120),
			URL:      fmt.Sprintf("%s/%s/%s", b.baseURL, meta.Category, meta.Source),
			Score:    r.Score,
		})
	}

	return strings.Join(blocks, "\n\n"), sources
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
