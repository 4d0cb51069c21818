package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/cortexguard/secure-rag/services/metrics"
	"github.com/cortexguard/secure-rag/services/orchestrator"
	"github.com/cortexguard/secure-rag/services/retrieval"
)

var chatTracer = otel.Tracer("secure-rag.orchestrator.handlers")

// ChatRequest is the body both /api/chat and /api/chat/stream accept.
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=4000"`
}

// chatMetadata is nested under ChatResponse.Metadata.
type chatMetadata struct {
	Classification string `json:"classification"`
	Cached         bool   `json:"cached"`
	TokensUsed     int    `json:"tokensUsed"`
}

// ChatResponse is the body of a non-streaming /api/chat reply.
type ChatResponse struct {
	Response       string                      `json:"response"`
	Sources        []retrieval.SourceReference `json:"sources,omitempty"`
	Metadata       *chatMetadata               `json:"metadata,omitempty"`
	Blocked        bool                        `json:"blocked,omitempty"`
	Classification string                      `json:"classification,omitempty"`
}

// Chat handles POST /api/chat: the non-streaming request/response path.
// reg may be nil, in which case no metrics are recorded.
func Chat(o *orchestrator.Orchestrator, reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "Chat")
		defer span.End()

		var req ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := o.Chat(ctx, req.Message)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("handlers: chat failed", "error", err)
			recordRequest(reg, "chat", "error")
			c.JSON(http.StatusOK, ChatResponse{Response: "I'm having trouble answering right now. Please try again in a moment."})
			return
		}
		recordRequest(reg, "chat", "success")

		if result.Blocked {
			c.JSON(http.StatusOK, ChatResponse{
				Response:       result.Response,
				Blocked:        true,
				Classification: string(result.Classification),
			})
			return
		}

		c.JSON(http.StatusOK, ChatResponse{
			Response: result.Response,
			Sources:  result.Sources,
			Metadata: &chatMetadata{
				Classification: string(result.Classification),
				Cached:         result.Cached,
			},
		})
	}
}

func recordRequest(reg *metrics.Registry, endpoint, outcome string) {
	if reg != nil {
		reg.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	}
}

// ChatStream handles POST /api/chat/stream: the SSE path. The request
// context is passed straight to the orchestrator so a client disconnect
// cancels it and aborts the in-flight LLM read.
func ChatStream(o *orchestrator.Orchestrator, reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "ChatStream")
		defer span.End()

		var req ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		SetHeaders(c.Writer)
		sse, err := NewSSEWriter(c.Writer)
		if err != nil {
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		if err := o.Stream(ctx, req.Message, sse); err != nil {
			span.RecordError(err)
			slog.Warn("handlers: stream write failed", "error", err)
			recordRequest(reg, "chat_stream", "error")
			return
		}
		recordRequest(reg, "chat_stream", "success")
	}
}
