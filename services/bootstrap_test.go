package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/config"
)

func TestOpenModelStore(t *testing.T) {
	dir := t.TempDir()

	store, closeFn, err := OpenModelStore(context.Background(), config.ModelConfig{Store: "file", Path: dir})
	require.NoError(t, err)
	assert.Equal(t, "file:"+dir, store.Describe())
	assert.NoError(t, closeFn())

	store, closeFn, err = OpenModelStore(context.Background(), config.ModelConfig{Store: "sqlite", Path: dir})
	require.NoError(t, err)
	assert.Equal(t, "sqlite:"+filepath.Join(dir, "artifacts.db"), store.Describe())
	assert.NoError(t, closeFn())

	_, _, err = OpenModelStore(context.Background(), config.ModelConfig{Store: "s3"})
	assert.Error(t, err)
}

func TestOpenDataSource(t *testing.T) {
	cfg := &config.Config{Data: config.DataConfig{Source: "csv", Path: "data/x.csv"}}
	src, closeFn, err := OpenDataSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "csv:data/x.csv", src.Describe())

	cfg.Data.Source = "parquet"
	_, _, err = OpenDataSource(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPredictionOptionsFrom(t *testing.T) {
	cfg := &config.Config{
		Model: config.ModelConfig{Version: "3.1.0", Seed: 7, NEstimators: 40, MaxDepth: 4, TestFraction: 0.3},
		Data:  config.DataConfig{SyntheticRows: 250},
	}
	opts := PredictionOptionsFrom(cfg)

	assert.Equal(t, "3.1.0", opts.Train.ModelVersion)
	assert.Equal(t, 0.3, opts.Train.TestFraction)
	assert.Equal(t, 40, opts.Train.Params.NEstimators)
	assert.Equal(t, 4, opts.Train.Params.MaxDepth)
	assert.Equal(t, int64(7), opts.Train.Params.Seed)
	assert.Equal(t, 0.1, opts.Train.Params.LearningRate)
	assert.Equal(t, 250, opts.SyntheticRows)
	assert.Equal(t, int64(7), opts.SyntheticSeed)
}
