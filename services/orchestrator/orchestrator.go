// Package orchestrator implements RequestOrchestrator, the per-request
// state machine that drives a chat query through sanitization,
// classification, cache lookup, hybrid retrieval, LLM streaming, and
// output filtering, emitting results either as a single JSON response or
// as a Server-Sent Events stream.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cortexguard/secure-rag/services/cache"
	"github.com/cortexguard/secure-rag/services/classifier"
	"github.com/cortexguard/secure-rag/services/llm"
	"github.com/cortexguard/secure-rag/services/metrics"
	"github.com/cortexguard/secure-rag/services/retrieval"
	"github.com/cortexguard/secure-rag/services/security"
)

// StreamSink is the wire-writer Stream emits SSE events to. handlers.SSEWriter
// satisfies this without either package importing the other: handlers sits
// above orchestrator in the dependency graph, not beside it.
type StreamSink interface {
	WriteChunk(chunk string) error
	WriteReplace(text string, sources []retrieval.SourceReference) error
	WriteDone(sources []retrieval.SourceReference) error
	WriteCached(text string, sources []retrieval.SourceReference) error
	WriteError(fallback string) error
}

// orchestratorTracer mirrors the teacher's per-service tracer pattern: one
// package-level tracer shared by every request this process handles.
var orchestratorTracer = otel.Tracer("secure-rag.orchestrator")

// recordSpanError marks span as failed, the way every error exit from the
// state machine should be represented in a trace.
func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// defaultMaxContextChunks bounds retrieval fanout for an unrestricted
// (SAFE or EMPTY) request; SUSPICIOUS requests use Restrictions.MaxContextChunks
// instead.
const defaultMaxContextChunks = 5

// Orchestrator wires the security, cache, retrieval, and LLM stages behind
// the single state machine described for /api/chat and /api/chat/stream.
type Orchestrator struct {
	security  *security.Middleware
	cache     *cache.QueryCache
	retriever *retrieval.HybridRetriever
	context   *retrieval.ContextBuilder
	llmClient llm.Client

	topK               int
	relevanceThreshold float64
	systemPrompt       string

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics registry so subsequent requests record
// classification, cache, and latency observations against it. Optional;
// an Orchestrator with no registry simply skips recording.
func (o *Orchestrator) SetMetrics(reg *metrics.Registry) {
	o.metrics = reg
}

// New wires an Orchestrator to its already-constructed dependencies.
func New(
	sec *security.Middleware,
	c *cache.QueryCache,
	retriever *retrieval.HybridRetriever,
	contextBuilder *retrieval.ContextBuilder,
	llmClient llm.Client,
	topK int,
	relevanceThreshold float64,
) *Orchestrator {
	return &Orchestrator{
		security:           sec,
		cache:              c,
		retriever:          retriever,
		context:            contextBuilder,
		llmClient:          llmClient,
		topK:               topK,
		relevanceThreshold: relevanceThreshold,
		systemPrompt:       defaultSystemPrompt,
	}
}

const defaultSystemPrompt = "You are a documentation assistant. Answer only using the provided context. If the context does not contain the answer, say you don't know rather than guessing."

// ChatResult is the outcome of a non-streaming /api/chat request.
type ChatResult struct {
	Response       string
	Sources        []retrieval.SourceReference
	Classification classifier.Classification
	Cached         bool
	Blocked        bool
}

// preOutcome is what runPre returns for SECURITY_PRE: either a terminal
// (blocked or cached) outcome or the state needed to continue to retrieval.
type preOutcome struct {
	pre        security.PreResult
	cached     cache.Entry
	isCacheHit bool
}

// runPre executes RECEIVE → SECURITY_PRE → {BLOCKED | CACHE_LOOKUP}, shared
// by both the streaming and non-streaming paths.
func (o *Orchestrator) runPre(ctx context.Context, query string) preOutcome {
	ctx, span := orchestratorTracer.Start(ctx, "security_pre")
	defer span.End()

	pre := o.security.Pre(query)
	span.SetAttributes(attribute.String("classification", string(pre.Classification)))
	if o.metrics != nil {
		o.metrics.ClassificationTotal.WithLabelValues(string(pre.Classification)).Inc()
		if !pre.Proceed {
			o.metrics.BlockedTotal.Inc()
		}
	}

	if !pre.Proceed {
		return preOutcome{pre: pre}
	}

	_, cacheSpan := orchestratorTracer.Start(ctx, "cache_lookup")
	entry, hit := o.cache.Get(pre.SanitizedText)
	cacheSpan.SetAttributes(attribute.Bool("hit", hit))
	cacheSpan.End()
	if o.metrics != nil {
		if hit {
			o.metrics.CacheHitsTotal.Inc()
		} else {
			o.metrics.CacheMissesTotal.Inc()
		}
		o.metrics.CacheSize.Set(float64(o.cache.Size()))
	}

	if hit {
		return preOutcome{pre: pre, cached: entry, isCacheHit: true}
	}
	return preOutcome{pre: pre}
}

// Chat implements POST /api/chat: the non-streaming path. It runs the same
// state machine as Stream but collects the full response before returning.
func (o *Orchestrator) Chat(ctx context.Context, query string) (ChatResult, error) {
	ctx, span := orchestratorTracer.Start(ctx, "chat")
	defer span.End()

	outcome := o.runPre(ctx, query)
	if !outcome.pre.Proceed {
		return ChatResult{
			Response:       outcome.pre.Response,
			Classification: outcome.pre.Classification,
			Blocked:        true,
		}, nil
	}
	if outcome.isCacheHit {
		return ChatResult{
			Response:       outcome.cached.Response,
			Sources:        outcome.cached.Sources,
			Classification: outcome.pre.Classification,
			Cached:         true,
		}, nil
	}

	maxChunks := defaultMaxContextChunks
	if outcome.pre.Restrictions != nil {
		maxChunks = outcome.pre.Restrictions.MaxContextChunks
	}

	results, err := o.retrieve(ctx, outcome.pre.SanitizedText, maxChunks)
	if err != nil {
		recordSpanError(span, err)
		return ChatResult{}, err
	}

	contextBlock, sources := o.context.Build(results)
	systemPrompt := o.systemPromptFor(outcome.pre)

	_, llmSpan := orchestratorTracer.Start(ctx, "llm_complete")
	llmStart := time.Now()
	text, err := o.llmClient.Complete(ctx, systemPrompt, userPromptFor(outcome.pre.SanitizedText, contextBlock), llm.Params{})
	if o.metrics != nil {
		o.metrics.LLMDurationSeconds.WithLabelValues("complete").Observe(time.Since(llmStart).Seconds())
	}
	llmSpan.End()
	if err != nil {
		recordSpanError(span, err)
		return ChatResult{}, fmt.Errorf("orchestrator: llm complete: %w", err)
	}

	post := o.security.Post(text, outcome.pre.Classification)
	if o.metrics != nil && post.Filtered {
		o.metrics.OutputFilteredTotal.Inc()
	}

	if !isTechnicalQuery(outcome.pre.SanitizedText) {
		sources = nil
	}

	if o.shouldCache(outcome.pre.Classification, post) {
		o.cache.Set(outcome.pre.SanitizedText, cache.Entry{Response: post.Response, Sources: sources})
	}

	return ChatResult{
		Response:       post.Response,
		Sources:        sources,
		Classification: outcome.pre.Classification,
	}, nil
}

// Stream implements POST /api/chat/stream, writing the full state machine's
// output as SSE events. It returns nil on a normal completion (including an
// emitted error event) and a non-nil error only for conditions the caller
// must still act on, such as a write failure on the underlying connection.
func (o *Orchestrator) Stream(ctx context.Context, query string, sse StreamSink) error {
	ctx, span := orchestratorTracer.Start(ctx, "chat_stream")
	defer span.End()

	if o.metrics != nil {
		o.metrics.ActiveStreams.Inc()
		defer o.metrics.ActiveStreams.Dec()
	}

	outcome := o.runPre(ctx, query)
	if !outcome.pre.Proceed {
		if err := sse.WriteChunk(outcome.pre.Response); err != nil {
			return err
		}
		return sse.WriteDone(nil)
	}
	if outcome.isCacheHit {
		return sse.WriteCached(outcome.cached.Response, outcome.cached.Sources)
	}

	maxChunks := defaultMaxContextChunks
	if outcome.pre.Restrictions != nil {
		maxChunks = outcome.pre.Restrictions.MaxContextChunks
	}

	results, err := o.retrieve(ctx, outcome.pre.SanitizedText, maxChunks)
	if err != nil {
		recordSpanError(span, err)
		return sse.WriteError(errorFallback)
	}

	contextBlock, sources := o.context.Build(results)
	systemPrompt := o.systemPromptFor(outcome.pre)

	if !isTechnicalQuery(outcome.pre.SanitizedText) {
		sources = nil
	}

	_, streamSpan := orchestratorTracer.Start(ctx, "llm_stream")
	defer streamSpan.End()

	llmStart := time.Now()
	ch := make(chan llm.StreamChunk)
	go func() {
		if err := o.llmClient.Stream(ctx, systemPrompt, userPromptFor(outcome.pre.SanitizedText, contextBlock), llm.Params{}, ch); err != nil {
			slog.Warn("orchestrator: llm stream ended with error", "error", err)
		}
	}()

	var full []byte
	for chunk := range ch {
		if chunk.Err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				// STREAM_CLIENT_ABORT: discard partial output, no cache write, no error log.
				return nil
			}
			recordSpanError(streamSpan, chunk.Err)
			return sse.WriteError(errorFallback)
		}
		if chunk.Content != "" {
			full = append(full, chunk.Content...)
			if err := sse.WriteChunk(chunk.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}

	if ctx.Err() != nil {
		// Client disconnected between the last chunk and STREAM_END.
		return nil
	}

	if o.metrics != nil {
		o.metrics.LLMDurationSeconds.WithLabelValues("stream").Observe(time.Since(llmStart).Seconds())
	}

	post := o.security.Post(string(full), outcome.pre.Classification)
	if o.metrics != nil && post.Filtered {
		o.metrics.OutputFilteredTotal.Inc()
	}

	if o.shouldCache(outcome.pre.Classification, post) {
		o.cache.Set(outcome.pre.SanitizedText, cache.Entry{Response: post.Response, Sources: sources})
	}

	if post.Filtered {
		return sse.WriteReplace(post.Response, sources)
	}
	return sse.WriteDone(sources)
}

const errorFallback = "I'm having trouble answering right now. Please try again in a moment."

func (o *Orchestrator) retrieve(ctx context.Context, sanitizedText string, maxChunks int) ([]retrieval.SearchResult, error) {
	_, span := orchestratorTracer.Start(ctx, "retrieve")
	defer span.End()

	start := time.Now()
	results, err := o.retriever.Search(ctx, sanitizedText, retrieval.Options{
		TopK:               min(o.topK, maxChunks),
		RelevanceThreshold: o.relevanceThreshold,
	})
	if o.metrics != nil {
		o.metrics.RetrievalDurationSeconds.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, err
}

func (o *Orchestrator) systemPromptFor(pre security.PreResult) string {
	if pre.Restrictions != nil && pre.Restrictions.ExtraSystemPrompt != "" {
		return pre.Restrictions.ExtraSystemPrompt + "\n\n" + o.systemPrompt
	}
	return o.systemPrompt
}

// shouldCache implements the write-through rule: only SAFE classifications
// whose output passed the filter unmodified are cached.
func (o *Orchestrator) shouldCache(classification classifier.Classification, post security.PostResult) bool {
	return classification == classifier.ClassificationSafe && post.Action == "pass"
}

func userPromptFor(query, contextBlock string) string {
	if contextBlock == "" {
		return fmt.Sprintf("Question: %s\n\nNo relevant documentation was found. Say so rather than guessing.", query)
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, query)
}

