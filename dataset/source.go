package dataset

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDataUnavailable is returned by a Source when the dataset cannot be read.
// Callers fall back to synthetic data instead of failing.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Source loads the raw accident dataset.
type Source interface {
	Load(ctx context.Context) (*Frame, error)
	Describe() string
}

// LoadOrSynthesize loads from src and substitutes a synthetic frame when the
// dataset is unavailable. The returned flag reports degraded mode.
func LoadOrSynthesize(ctx context.Context, src Source, rows int, seed int64, logger *slog.Logger) (*Frame, bool, error) {
	if src != nil {
		frame, err := src.Load(ctx)
		if err == nil {
			logger.Info("dataset loaded", "source", src.Describe(), "records", frame.Len())
			return frame, false, nil
		}
		if !errors.Is(err, ErrDataUnavailable) {
			return nil, false, err
		}
		logger.Warn("dataset unavailable, using synthetic data (degraded mode)",
			"source", src.Describe(), "error", err, "records", rows)
	} else {
		logger.Warn("no dataset source configured, using synthetic data (degraded mode)", "records", rows)
	}
	return Synthetic(rows, seed), true, nil
}
