package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vet1stop-platform/utils"
)

// HealthCheck probes one backing dependency
type HealthCheck func(ctx context.Context) error

// SetupHealthRoutes registers GET /health. Every named check must pass for a 200.
func SetupHealthRoutes(router *gin.Engine, checks map[string]HealthCheck) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results, "timestamp": time.Now()})
	})
}
