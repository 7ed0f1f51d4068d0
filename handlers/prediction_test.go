package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

func TestPredictEndpoint(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	w := env.do(t, http.MethodPost, "/api/v1/predict", services.HealthRequest, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[models.PredictionResult](t, w)
	assert.NotEmpty(t, res.PredictionID)
	assert.Contains(t, []string{"Minor", "Moderate", "Severe"}, res.PredictedSeverity)
	assert.Len(t, res.Probabilities, 3)
	assert.Equal(t, "1.0.0", res.ModelVersion)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPredictValidation(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	tests := []struct {
		name   string
		mutate func(r *models.AccidentRequest)
	}{
		{"unknown country", func(r *models.AccidentRequest) { r.Country = "Atlantis" }},
		{"missing month", func(r *models.AccidentRequest) { r.Month = "" }},
		{"speed above max", func(r *models.AccidentRequest) { r.SpeedLimit = 250 }},
		{"no vehicles", func(r *models.AccidentRequest) { r.NumberOfVehiclesInvolved = 0 }},
		{"alcohol above max", func(r *models.AccidentRequest) { r.DriverAlcoholLevel = 0.9 }},
		{"fatigue not a flag", func(r *models.AccidentRequest) { r.DriverFatigue = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := services.HealthRequest
			tt.mutate(&req)
			w := env.do(t, http.MethodPost, "/api/v1/predict", req, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[gin.H](t, w)["error"])
		})
	}
}

func TestPredictMultiWordCategory(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)
	req := services.HealthRequest
	req.RoadType = "Main Road"
	req.AccidentCause = "Distracted Driving"

	w := env.do(t, http.MethodPost, "/api/v1/predict", req, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPredictNotReady(t *testing.T) {
	env := newTestEnv(t, testConfig(), false)

	w := env.do(t, http.MethodPost, "/api/v1/predict", services.HealthRequest, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decode[gin.H](t, w)["error"], services.ErrNotReady.Error())
}

func TestPredictBatchEndpoint(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	t.Run("in order", func(t *testing.T) {
		rainy := services.HealthRequest
		rainy.WeatherConditions = "Rainy"
		body := models.BatchPredictionRequest{Predictions: []models.AccidentRequest{services.HealthRequest, rainy}}

		w := env.do(t, http.MethodPost, "/api/v1/predict/batch", body, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[models.BatchPredictionResponse](t, w)
		assert.Equal(t, 2, resp.TotalPredictions)
		assert.NotEmpty(t, resp.BatchID)
		require.Len(t, resp.Predictions, 2)
		assert.Empty(t, resp.Predictions[0].RiskFactors)
		assert.Equal(t, []string{services.RiskAdverseWeather}, resp.Predictions[1].RiskFactors)
	})

	t.Run("empty", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/predict/batch", models.BatchPredictionRequest{}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		reqs := make([]models.AccidentRequest, services.MaxBatchSize+1)
		for i := range reqs {
			reqs[i] = services.HealthRequest
		}
		w := env.do(t, http.MethodPost, "/api/v1/predict/batch", models.BatchPredictionRequest{Predictions: reqs}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[gin.H](t, w)["error"], "batch size exceeds maximum of 1000")
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrNotReady, http.StatusServiceUnavailable},
		{services.ErrBatchTooLarge, http.StatusBadRequest},
		{services.ErrUnknownFeature, http.StatusBadRequest},
		{services.ErrTrainingInProgress, http.StatusConflict},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrInvalidToken, http.StatusUnauthorized},
		{services.ErrAuthUnavailable, http.StatusServiceUnavailable},
		{services.ErrPredictionFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
