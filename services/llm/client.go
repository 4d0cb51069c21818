// Package llm defines the opaque chat-completion boundary the orchestrator
// streams against, plus a DeepSeekClient implementation over the
// OpenAI-compatible chat completions API.
package llm

import "context"

// Params tunes one completion or stream call. Nil fields fall back to the
// provider's own defaults.
type Params struct {
	Temperature *float32
	MaxTokens   *int
	TopP        *float32
	Stop        []string
}

// StreamChunk is one incremental piece of a streamed completion.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// Client defines the standard interface for any LLM backend. Complete is
// the non-streaming fallback path; Stream is the primary path the
// orchestrator drives for /api/chat/stream.
type Client interface {
	// Complete returns the full response text for one prompt.
	Complete(ctx context.Context, systemPrompt, userPrompt string, params Params) (string, error)
	// Stream sends incremental chunks to ch as they arrive, closing ch when
	// the stream ends (successfully or with an error surfaced via the
	// final chunk's Err field). Stream blocks until ctx is done or the
	// underlying stream completes.
	Stream(ctx context.Context, systemPrompt, userPrompt string, params Params, ch chan<- StreamChunk) error
}
