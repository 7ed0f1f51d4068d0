package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accident_api_predictions_total",
		Help: "Total number of predictions served, by predicted severity.",
	}, []string{"severity"})
	PredictionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accident_api_predictions_failed_total",
		Help: "Total number of prediction failures.",
	})
	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accident_api_prediction_duration_seconds",
		Help:    "Duration of a single prediction.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	UnseenCategories = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accident_api_unseen_category_total",
		Help: "Categorical values not known to the fitted encoders, by column.",
	}, []string{"column"})
	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accident_api_training_runs_total",
		Help: "Training runs by outcome.",
	}, []string{"status"})
	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accident_api_training_duration_seconds",
		Help:    "Duration of a full training run.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	DegradedMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "accident_api_degraded_mode",
		Help: "1 while the model is trained on synthetic data.",
	})
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "accident_api_ws_connections",
		Help: "Open streaming prediction connections.",
	})
	IngestMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accident_api_ingest_messages_total",
		Help: "MQTT prediction requests by outcome.",
	}, []string{"status"})
)

// ServeMetrics exposes /metrics and /health on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
