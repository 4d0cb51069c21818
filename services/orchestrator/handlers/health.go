package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cortexguard/secure-rag/services/cache"
	"github.com/cortexguard/secure-rag/services/security"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

type cacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Documents int               `json:"documents"`
	Cache     cacheStats        `json:"cache"`
	Security  security.Snapshot `json:"security"`
	UptimeSec float64           `json:"uptimeSeconds"`
}

// Health returns GET /api/health. It reports "initializing" until ready
// closes, rather than failing the request outright, so load balancers can
// distinguish "still starting" from "actually broken".
func Health(ready func() bool, sec *security.Middleware, qc *cache.QueryCache, vidx *vectorindex.Index, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !ready() {
			status = "initializing"
		}

		c.JSON(http.StatusOK, HealthResponse{
			Status:    status,
			Documents: vidx.Len(),
			Cache: cacheStats{
				Hits:    qc.Hits(),
				Misses:  qc.Misses(),
				Size:    qc.Size(),
				HitRate: qc.HitRate(),
			},
			Security:  sec.Snapshot(),
			UptimeSec: time.Since(started).Seconds(),
		})
	}
}
