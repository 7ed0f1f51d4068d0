package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

type DataHandler struct {
	data *services.DataService
}

func NewDataHandler(data *services.DataService) *DataHandler {
	return &DataHandler{data: data}
}

func (h *DataHandler) Explore(c *gin.Context) {
	var req models.DataExplorationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.data.Explore(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DataHandler) Summary(c *gin.Context) {
	sum, err := h.data.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
