package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"accident-severity-api/config"
	"accident-severity-api/dataset"
	"accident-severity-api/ml"
)

// OpenModelStore opens the artifact store named by cfg.Store. The returned
// close function is never nil.
func OpenModelStore(ctx context.Context, cfg config.ModelConfig) (ml.Store, func() error, error) {
	switch cfg.Store {
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Path, "artifacts.db")
		}
		store, err := ml.OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "file", "":
		return ml.NewFileStore(cfg.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown model store %q", cfg.Store)
	}
}

// OpenDataSource builds the dataset source named by cfg.Data.Source. The
// returned close function is never nil.
func OpenDataSource(ctx context.Context, cfg *config.Config) (dataset.Source, func(), error) {
	switch cfg.Data.Source {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.GetURL())
		if err != nil {
			return nil, nil, fmt.Errorf("dataset pool: %w", err)
		}
		return dataset.NewPostgresSource(pool, cfg.Data.Table), pool.Close, nil
	case "csv", "":
		return dataset.NewCSVSource(cfg.Data.Path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// PredictionOptionsFrom applies the model and data settings to the defaults.
func PredictionOptionsFrom(cfg *config.Config) PredictionOptions {
	opts := DefaultPredictionOptions()
	opts.Train.ModelVersion = cfg.Model.Version
	opts.Train.TestFraction = cfg.Model.TestFraction
	opts.Train.Params.NEstimators = cfg.Model.NEstimators
	opts.Train.Params.MaxDepth = cfg.Model.MaxDepth
	opts.Train.Params.Seed = int64(cfg.Model.Seed)
	opts.SyntheticRows = cfg.Data.SyntheticRows
	opts.SyntheticSeed = int64(cfg.Model.Seed)
	return opts
}
