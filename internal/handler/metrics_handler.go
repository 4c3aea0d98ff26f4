package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/degree-pathway-api/internal/models"
	"github.com/noah-isme/degree-pathway-api/internal/service"
)

type storeProbe interface {
	All(ctx context.Context) ([]models.Course, error)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	store   storeProbe
}

// NewMetricsHandler constructs a metrics handler. store backs the readiness
// probe and may be nil.
func NewMetricsHandler(metrics *service.MetricsService, store storeProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the course store can be loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.store != nil {
		courses, err := h.store.All(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "courses": len(courses)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
