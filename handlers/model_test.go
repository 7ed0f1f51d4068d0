package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/ml"
	"accident-severity-api/models"
	"accident-severity-api/services"
)

// waitForUpdate arranges for the test to block until a background retrain
// has installed its artifact.
func waitForUpdate(t *testing.T, svc *services.PredictionService) func() {
	updates := make(chan services.ModelUpdate, 1)
	svc.OnModelUpdate(func(u services.ModelUpdate) {
		select {
		case updates <- u:
		default:
		}
	})
	return func() {
		t.Helper()
		select {
		case <-updates:
		case <-time.After(30 * time.Second):
			t.Fatal("retrain did not finish")
		}
	}
}

func TestModelPerformance(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	w := env.do(t, http.MethodGet, "/api/v1/model/performance", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m := decode[ml.Metrics](t, w)
	assert.Equal(t, 400, m.Samples)
	assert.Len(t, m.ConfusionMatrix, 3)
	assert.GreaterOrEqual(t, m.Accuracy, 0.0)
	assert.LessOrEqual(t, m.Accuracy, 1.0)
}

func TestModelPerformanceNotReady(t *testing.T) {
	env := newTestEnv(t, testConfig(), false)
	w := env.do(t, http.MethodGet, "/api/v1/model/performance", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModelRetrain(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)
	wait := waitForUpdate(t, env.predictions)
	before := env.predictions.Status().ArtifactID

	w := env.do(t, http.MethodPost, "/api/v1/model/retrain", nil, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"message":"Model retraining initiated","status":"in_progress"}`, w.Body.String())

	wait()
	assert.NotEqual(t, before, env.predictions.Status().ArtifactID)
}

func TestModelRetrainRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Required = true
	env := newTestEnv(t, cfg, true)

	userToken, err := env.auth.IssueToken(&models.User{ID: 2, Email: "user@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	adminToken, err := env.auth.IssueToken(&models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"user role", "Bearer " + userToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := env.do(t, http.MethodPost, "/api/v1/model/retrain", nil, h)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode[gin.H](t, w)["error"])
		})
	}

	wait := waitForUpdate(t, env.predictions)
	h := http.Header{}
	h.Set("Authorization", "Bearer "+adminToken)
	w := env.do(t, http.MethodPost, "/api/v1/model/retrain", nil, h)
	require.Equal(t, http.StatusAccepted, w.Code)
	wait()
}

func TestModelStatus(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	w := env.do(t, http.MethodGet, "/api/v1/model/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	st := decode[services.ModelStatus](t, w)
	assert.Equal(t, services.StateReady, st.State)
	assert.True(t, st.Degraded)
	assert.Equal(t, env.predictions.Status().ArtifactID, st.ArtifactID)
}
