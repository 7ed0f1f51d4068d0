package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"accident-severity-api/config"
	"accident-severity-api/handlers"
	"accident-severity-api/ingest"
	"accident-severity-api/models"
	"accident-severity-api/observability"
	"accident-severity-api/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(observability.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := services.OpenModelStore(ctx, cfg.Model)
	if err != nil {
		return err
	}
	defer closeStore()

	source, closeSource, err := services.OpenDataSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	var db *gorm.DB
	if cfg.Database.Enabled {
		db, err = openDatabase(cfg.Database)
		if err != nil {
			return err
		}
		logger.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)
	}

	cache := services.NewNoopCache(logger)
	if cfg.Redis.Enabled {
		if cache, err = services.NewCacheService(ctx, cfg.Redis, logger); err != nil {
			logger.Warn("continuing without redis", "error", err)
		}
	}
	defer cache.Close()

	predictions := services.NewPredictionService(store, source, services.PredictionOptionsFrom(cfg), logger)
	history := services.NewHistoryService(db, logger)
	auth := services.NewAuthService(cfg.JWT, db)
	conns := services.NewConnectionManager(logger)
	defer conns.Close()

	if err := history.Migrate(); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	if err := auth.Migrate(); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}

	predictions.OnPrediction(func(ctx context.Context, req models.AccidentRequest, res *models.PredictionResult) {
		history.Record(ctx, req, res)
		go cache.Publish(context.Background(), services.ChannelPredictions, res)
	})
	predictions.OnModelUpdate(func(u services.ModelUpdate) {
		go conns.BroadcastModelUpdate(u)
		go cache.Publish(context.Background(), services.ChannelModelUpdates, u)
	})

	if err := predictions.Initialize(ctx); err != nil {
		logger.Error("model initialization failed, serving in failed state", "error", err)
	}

	go func() {
		if err := observability.ServeMetrics(ctx, cfg.Server.MetricsAddr, logger); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	if cfg.MQTT.URL != "" {
		go func() {
			if err := ingest.Run(ctx, cfg.MQTT, predictions, logger); err != nil {
				logger.Error("mqtt ingest stopped", "error", err)
			}
		}()
	}

	router := handlers.NewRouter(handlers.Deps{
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

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "version", cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	conns.BroadcastSystemStatus(map[string]string{"status": "shutting_down"})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
