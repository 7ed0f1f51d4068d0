package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store persists artifacts. Save must be all-or-nothing: after a crash Load
// returns either the previous artifact or the new one, never a mix.
type Store interface {
	Load(ctx context.Context) (*Artifact, error)
	Save(ctx context.Context, a *Artifact) error
	Describe() string
}

const (
	ModelFileName    = "accident_model.json"
	EncodersFileName = "encoders.json"
)

type modelDoc struct {
	ArtifactID   string            `json:"artifact_id"`
	ModelVersion string            `json:"model_version"`
	TrainedAt    time.Time         `json:"trained_at"`
	Model        *GradientBoosting `json:"model"`
	Metrics      *Metrics          `json:"metrics,omitempty"`
}

type encodersDoc struct {
	ArtifactID string    `json:"artifact_id"`
	Columns    []string  `json:"columns"`
	Encoders   *Registry `json:"encoders"`
	Label      *Encoder  `json:"label"`
}

func encodeArtifact(a *Artifact) (model, encoders []byte, err error) {
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}
	model, err = json.Marshal(modelDoc{
		ArtifactID:   a.ID,
		ModelVersion: a.ModelVersion,
		TrainedAt:    a.TrainedAt,
		Model:        a.Model,
		Metrics:      a.Metrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode model: %w", err)
	}
	encoders, err = json.Marshal(encodersDoc{
		ArtifactID: a.ID,
		Columns:    a.Columns,
		Encoders:   a.Encoders,
		Label:      a.Label,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode encoders: %w", err)
	}
	return model, encoders, nil
}

func decodeArtifact(model, encoders []byte) (*Artifact, error) {
	var m modelDoc
	if err := json.Unmarshal(model, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	var e encodersDoc
	if err := json.Unmarshal(encoders, &e); err != nil {
		return nil, fmt.Errorf("decode encoders: %w", err)
	}
	if m.ArtifactID == "" || m.ArtifactID != e.ArtifactID {
		return nil, fmt.Errorf("%w: model %q, encoders %q", ErrArtifactMismatch, m.ArtifactID, e.ArtifactID)
	}
	a := &Artifact{
		ID:           m.ArtifactID,
		ModelVersion: m.ModelVersion,
		TrainedAt:    m.TrainedAt,
		Columns:      e.Columns,
		Encoders:     e.Encoders,
		Label:        e.Label,
		Model:        m.Model,
		Metrics:      m.Metrics,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
