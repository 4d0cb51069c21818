package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cortexguard/secure-rag/services/ingest"
)

// IngestResponse is the body of POST /api/ingest.
type IngestResponse struct {
	Success   bool     `json:"success"`
	Documents int      `json:"documents"`
	Skipped   []string `json:"skipped,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Ingest handles POST /api/ingest: a synchronous re-index of the document
// corpus. It blocks for the duration of the run, which is acceptable for an
// operator-triggered reindex but not something to call on a hot path.
func Ingest(pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := pipeline.Run(c.Request.Context())
		if err != nil {
			slog.Error("handlers: ingest failed", "error", err)
			c.JSON(http.StatusInternalServerError, IngestResponse{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, IngestResponse{
			Success:   true,
			Documents: result.Documents,
			Skipped:   result.Skipped,
		})
	}
}
