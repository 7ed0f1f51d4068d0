package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

type HistoryHandler struct {
	history *services.HistoryService
}

func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) List(c *gin.Context) {
	p, err := ParsePageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, hasMore, err := h.history.List(c.Request.Context(), p.Limit, p.Before)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPage(rows, hasMore, func(r models.PredictionRecord) time.Time { return r.TS }))
}
