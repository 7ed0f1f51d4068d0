package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"accident-severity-api/config"
	"accident-severity-api/ml"
	"accident-severity-api/models"
	"accident-severity-api/observability"
	"accident-severity-api/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "Accident Severity Prediction API", Version: "2.0.0"},
		CORS: config.CORSConfig{AllowedOrigins: "*"},
		JWT:  config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
	}
}

func testPredictionService(t *testing.T) *services.PredictionService {
	t.Helper()
	opts := services.DefaultPredictionOptions()
	opts.Train.Params.NEstimators = 15
	opts.Train.Params.MaxDepth = 3
	opts.Train.Params.LearningRate = 0.3
	opts.SyntheticRows = 400
	return services.NewPredictionService(ml.NewFileStore(t.TempDir()), nil, opts, observability.Discard())
}

type testEnv struct {
	router      *gin.Engine
	predictions *services.PredictionService
	auth        *services.AuthService
	conns       *services.ConnectionManager
}

// newTestEnv builds the full router. ready controls whether the model is
// trained before the router is returned.
func newTestEnv(t *testing.T, cfg *config.Config, ready bool) *testEnv {
	t.Helper()
	logger := observability.Discard()
	predictions := testPredictionService(t)
	if ready {
		require.NoError(t, predictions.Initialize(context.Background()))
	}
	cache := services.NewNoopCache(logger)
	conns := services.NewConnectionManager(logger)
	auth := services.NewAuthService(cfg.JWT, nil)
	history := services.NewHistoryService(nil, logger)
	predictions.OnPrediction(func(ctx context.Context, req models.AccidentRequest, res *models.PredictionResult) {
		history.Record(ctx, req, res)
	})
	t.Cleanup(conns.Close)

	router := NewRouter(Deps{
		Config:      cfg,
		Predictions: predictions,
		Data:        services.NewDataService(predictions, cache, logger),
		Analytics:   services.NewAnalyticsService(predictions, cache, logger),
		History:     history,
		Auth:        auth,
		Cache:       cache,
		Conns:       conns,
		Logger:      logger,
	})
	return &testEnv{router: router, predictions: predictions, auth: auth, conns: conns}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
