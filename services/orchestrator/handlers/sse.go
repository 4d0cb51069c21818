// Package handlers implements the HTTP surface: chat, streaming chat,
// health, and ingest endpoints, wired to the orchestrator's state machine.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cortexguard/secure-rag/services/retrieval"
)

// SSEWriter writes the orchestrator's wire events to an HTTP response as
// Server-Sent Events. Each event is one `data: <json>\n\n` line, flushed
// immediately so the client sees tokens as they arrive.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter wraps w, which must implement http.Flusher.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("handlers: response writer does not support flushing")
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// SetHeaders sets the headers required for an SSE response. Must be
// called before the first write.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func (s *SSEWriter) write(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("handlers: marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("handlers: write sse payload: %w", err)
	}
	s.flusher.Flush()
	return nil
}

type chunkEvent struct {
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
}

// WriteChunk sends one incremental token.
func (s *SSEWriter) WriteChunk(chunk string) error {
	return s.write(chunkEvent{Chunk: chunk, Done: false})
}

type replaceEvent struct {
	Replace  string                      `json:"replace"`
	Sources  []retrieval.SourceReference `json:"sources"`
	Done     bool                        `json:"done"`
	Filtered bool                        `json:"filtered"`
}

// WriteReplace sends the output-filter-rewritten final response, used
// when post-filtering altered the streamed text after the fact.
func (s *SSEWriter) WriteReplace(text string, sources []retrieval.SourceReference) error {
	return s.write(replaceEvent{Replace: text, Sources: sources, Done: true, Filtered: true})
}

type doneEvent struct {
	Done    bool                        `json:"done"`
	Sources []retrieval.SourceReference `json:"sources"`
}

// WriteDone sends the final completion event carrying source attributions.
func (s *SSEWriter) WriteDone(sources []retrieval.SourceReference) error {
	return s.write(doneEvent{Done: true, Sources: sources})
}

type cachedEvent struct {
	Chunk   string                      `json:"chunk"`
	Sources []retrieval.SourceReference `json:"sources"`
	Done    bool                        `json:"done"`
	Cached  bool                        `json:"cached"`
}

// WriteCached sends a cache-hit reply as a single event.
func (s *SSEWriter) WriteCached(text string, sources []retrieval.SourceReference) error {
	return s.write(cachedEvent{Chunk: text, Sources: sources, Done: true, Cached: true})
}

type errorEvent struct {
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
	Error bool   `json:"error"`
}

// WriteError sends the polite fallback event used on any pipeline failure.
func (s *SSEWriter) WriteError(fallback string) error {
	return s.write(errorEvent{Chunk: fallback, Done: true, Error: true})
}
