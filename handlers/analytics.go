package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/services"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Trends(c *gin.Context) {
	resp, err := h.analytics.Trends(c.Request.Context(), c.DefaultQuery("period", "monthly"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) RiskFactors(c *gin.Context) {
	resp, err := h.analytics.RiskFactors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) Geographical(c *gin.Context) {
	resp, err := h.analytics.Geographical(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
