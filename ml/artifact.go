package ml

import (
	"errors"
	"fmt"
	"time"

	"accident-severity-api/dataset"
)

// Artifact is the unit of deployment: a fitted model together with the
// encoders and column order it was trained against. It is never mutated
// after construction; retraining builds a new one.
type Artifact struct {
	ID           string
	ModelVersion string
	TrainedAt    time.Time
	Columns      []string
	Encoders     *Registry
	Label        *Encoder
	Model        *GradientBoosting
	Metrics      *Metrics
}

// Validate checks that the pieces agree with each other.
func (a *Artifact) Validate() error {
	if a == nil {
		return errors.New("nil artifact")
	}
	if a.Model == nil || a.Encoders == nil || a.Label == nil {
		return errors.New("artifact is missing model, encoders or label encoder")
	}
	if len(a.Columns) != a.Model.NumFeatures {
		return fmt.Errorf("%w: %d columns for a %d-feature model", ErrArtifactMismatch, len(a.Columns), a.Model.NumFeatures)
	}
	if a.Label.Len() != a.Model.NumClasses {
		return fmt.Errorf("%w: %d labels for a %d-class model", ErrArtifactMismatch, a.Label.Len(), a.Model.NumClasses)
	}
	for _, col := range a.Columns {
		if !dataset.IsNumerical(col) && !a.Encoders.Has(col) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
	}
	return nil
}

func (a *Artifact) Vectorizer() Vectorizer {
	return Vectorizer{Columns: a.Columns, Registry: a.Encoders}
}

// Width is the feature vector length the model expects.
func (a *Artifact) Width() int { return len(a.Columns) }
