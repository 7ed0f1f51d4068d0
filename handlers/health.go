package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accident-severity-api/config"
	"accident-severity-api/services"
)

type HealthHandler struct {
	app         config.AppConfig
	predictions *services.PredictionService
	cache       *services.CacheService
	conns       *services.ConnectionManager
}

func NewHealthHandler(app config.AppConfig, predictions *services.PredictionService, cache *services.CacheService, conns *services.ConnectionManager) *HealthHandler {
	return &HealthHandler{app: app, predictions: predictions, cache: cache, conns: conns}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.app.Name,
		"version": h.app.Version,
		"status":  "active",
	})
}

// Health is the liveness view. It always answers 200 and reports each
// component so a process that is still training is not restarted.
func (h *HealthHandler) Health(c *gin.Context) {
	ml := h.predictions.HealthCheck(c.Request.Context())
	status := "healthy"
	if ml != "healthy" {
		status = "degraded"
	}
	cache := "disabled"
	if h.cache.Available() {
		cache = "connected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                status,
		"ml_service":            ml,
		"model_state":           h.predictions.Status().State,
		"cache":                 cache,
		"websocket_connections": h.conns.Stats().ActiveConnections,
		"version":               h.app.Version,
	})
}

// Detailed answers 503 until a model is installed and scoring.
func (h *HealthHandler) Detailed(c *gin.Context) {
	ml := h.predictions.HealthCheck(c.Request.Context())
	status, code := "healthy", http.StatusOK
	if ml != "healthy" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"ml_service": ml,
		"version":    h.app.Version,
		"timestamp":  time.Now().UTC(),
	})
}
