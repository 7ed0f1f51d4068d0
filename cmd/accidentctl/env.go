package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"accident-severity-api/config"
	"accident-severity-api/ml"
	"accident-severity-api/observability"
	"accident-severity-api/services"
)

// env is the model stack a single command runs against.
type env struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       ml.Store
	predictions *services.PredictionService
	closers     []func()
}

// loadConfig points CONFIG_FILE at --config when it is given.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configFile != "" {
		if err := os.Setenv("CONFIG_FILE", opts.configFile); err != nil {
			return nil, err
		}
	}
	return config.LoadConfig()
}

func openEnv(ctx context.Context, opts *rootOptions, stderr io.Writer) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(stderr, observability.LogConfig{Level: opts.logLevel, Format: "text"})

	e := &env{cfg: cfg, logger: logger}
	store, closeStore, err := services.OpenModelStore(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() { closeStore() })
	e.store = store

	source, closeSource, err := services.OpenDataSource(ctx, cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, closeSource)

	e.predictions = services.NewPredictionService(store, source, services.PredictionOptionsFrom(cfg), logger)
	return e, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
