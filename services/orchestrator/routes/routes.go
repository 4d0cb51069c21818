// Package routes wires the HTTP surface: route registration, CORS, the
// readiness gate, and the Prometheus exposition endpoint.
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cortexguard/secure-rag/services/cache"
	"github.com/cortexguard/secure-rag/services/ingest"
	"github.com/cortexguard/secure-rag/services/metrics"
	"github.com/cortexguard/secure-rag/services/orchestrator"
	"github.com/cortexguard/secure-rag/services/orchestrator/handlers"
	"github.com/cortexguard/secure-rag/services/security"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

// SetupRoutes registers every HTTP route against router. allowedOrigins, if
// non-empty, restricts CORS to that exact set; an empty set allows any
// origin (the teacher's pack carries no gin-contrib/cors dependency, so
// this is hand-rolled rather than borrowed). reg may be nil.
func SetupRoutes(router *gin.Engine, o *orchestrator.Orchestrator, ready *orchestrator.Readiness,
	sec *security.Middleware, qc *cache.QueryCache, vidx *vectorindex.Index, pipeline *ingest.Pipeline,
	reg *metrics.Registry, allowedOrigins []string, started time.Time) {

	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", handlers.Health(ready.Ready, sec, qc, vidx, started))

	api := router.Group("/api")
	api.Use(readinessGate(ready))
	{
		api.POST("/chat", handlers.Chat(o, reg))
		api.POST("/chat/stream", handlers.ChatStream(o, reg))
		api.POST("/ingest", handlers.Ingest(pipeline))
	}
}

// readinessGate returns 503 for any request under it until ready closes,
// so a request never reaches the orchestrator before startup has finished
// ingesting documents and warming the indices.
func readinessGate(ready *orchestrator.Readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ready.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service initializing"})
			return
		}
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	allowAny := len(allowed) == 0

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowAny || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization"}, ", "))
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
