package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

type PredictionHandler struct {
	predictions *services.PredictionService
}

func NewPredictionHandler(predictions *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.AccidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.predictions.Predict(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var req models.BatchPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Predictions) > services.MaxBatchSize {
		respondError(c, services.ErrBatchTooLarge)
		return
	}

	ctx := services.WithSource(c.Request.Context(), services.SourceBatch)
	resp, err := h.predictions.PredictBatch(ctx, req.Predictions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
