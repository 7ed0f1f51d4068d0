package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/services"
)

type ModelHandler struct {
	predictions *services.PredictionService
}

func NewModelHandler(predictions *services.PredictionService) *ModelHandler {
	return &ModelHandler{predictions: predictions}
}

func (h *ModelHandler) Performance(c *gin.Context) {
	m, err := h.predictions.PerformanceMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Retrain starts a background training run and answers immediately.
func (h *ModelHandler) Retrain(c *gin.Context) {
	if err := h.predictions.RetrainAsync(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Model retraining initiated",
		"status":  "in_progress",
	})
}

func (h *ModelHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.predictions.Status())
}
