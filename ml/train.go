package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"accident-severity-api/dataset"
)

// TrainOptions controls a training run.
type TrainOptions struct {
	Params       Params
	TestFraction float64
	ModelVersion string
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Params: DefaultParams(), TestFraction: 0.2, ModelVersion: "1.0.0"}
}

// Train fits a fresh artifact on frame. Encoders of previous, when given,
// are cloned and extended so existing codes stay stable. previous itself is
// not modified. Every error wraps ErrTrainingFailure.
func Train(ctx context.Context, frame *dataset.Frame, previous *Artifact, opts TrainOptions) (a *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("%w: panic: %v", ErrTrainingFailure, r)
			return
		}
		if err != nil && !errors.Is(err, ErrTrainingFailure) {
			err = fmt.Errorf("%w: %w", ErrTrainingFailure, err)
		}
	}()

	if frame == nil || frame.Len() == 0 {
		return nil, errors.New("empty dataset")
	}
	if !frame.Has(dataset.ColSeverity) {
		return nil, fmt.Errorf("dataset has no %s column", dataset.ColSeverity)
	}
	labeled := frame.Filter(func(i int) bool {
		return !dataset.IsMissing(frame.Value(i, dataset.ColSeverity))
	})
	columns := FeatureColumns(labeled)
	if len(columns) == 0 {
		return nil, errors.New("dataset has no feature columns")
	}

	registry, label := NewRegistry(), NewEncoder()
	if previous != nil {
		registry, label = previous.Encoders.Clone(), previous.Label.Clone()
	}
	for _, col := range columns {
		if !dataset.IsNumerical(col) {
			registry.FitOrReuse(col, labeled.Column(col))
		}
	}
	vec := Vectorizer{Columns: columns, Registry: registry}
	X, _ := vec.FromFrame(labeled)
	y := label.FitOrReuse(labeled.Column(dataset.ColSeverity))
	if label.Len() < 2 {
		return nil, fmt.Errorf("need at least 2 severity classes, got %d", label.Len())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := StratifiedSplit(y, opts.TestFraction, opts.Params.Seed)
	if err != nil {
		return nil, err
	}
	Xtrain, ytrain := subset(X, y, trainIdx)
	Xtest, ytest := subset(X, y, testIdx)

	model := NewGradientBoosting(opts.Params)
	if err := model.Fit(ctx, Xtrain, ytrain, label.Len()); err != nil {
		return nil, err
	}

	pred := make([]int, len(Xtest))
	for i, x := range Xtest {
		if pred[i], err = model.Predict(x); err != nil {
			return nil, err
		}
	}

	trainedAt := time.Now().UTC()
	metrics := Evaluate(ytest, pred, label.Classes())
	metrics.FeatureImportance = importanceByColumn(model, columns)
	metrics.ModelVersion = opts.ModelVersion
	metrics.LastUpdated = trainedAt

	a = &Artifact{
		ID:           uuid.NewString(),
		ModelVersion: opts.ModelVersion,
		TrainedAt:    trainedAt,
		Columns:      columns,
		Encoders:     registry,
		Label:        label,
		Model:        model,
		Metrics:      metrics,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EvaluateFrame scores a against every labeled row of frame. Rows whose
// label the artifact has never seen are skipped.
func EvaluateFrame(a *Artifact, frame *dataset.Frame) (*Metrics, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	vec := a.Vectorizer()
	var yTrue, yPred []int
	for i := 0; i < frame.Len(); i++ {
		code, ok := a.Label.Encode(frame.Value(i, dataset.ColSeverity))
		if !ok {
			continue
		}
		x, _ := vec.Vector(func(col string) string { return frame.Value(i, col) })
		p, err := a.Model.Predict(x)
		if err != nil {
			return nil, err
		}
		yTrue = append(yTrue, code)
		yPred = append(yPred, p)
	}
	m := Evaluate(yTrue, yPred, a.Label.Classes())
	m.FeatureImportance = importanceByColumn(a.Model, a.Columns)
	m.ModelVersion = a.ModelVersion
	m.LastUpdated = time.Now().UTC()
	return m, nil
}

func importanceByColumn(m *GradientBoosting, columns []string) map[string]float64 {
	imp := m.FeatureImportances()
	out := make(map[string]float64, len(columns))
	for i, col := range columns {
		if i < len(imp) {
			out[col] = imp[i]
		}
	}
	return out
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for j, i := range idx {
		xs[j] = X[i]
		ys[j] = y[i]
	}
	return xs, ys
}
