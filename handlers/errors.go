package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accident-severity-api/services"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrBatchTooLarge),
		errors.Is(err, services.ErrUnknownFeature):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTrainingInProgress),
		errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAuthUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
