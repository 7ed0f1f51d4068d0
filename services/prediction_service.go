package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"accident-severity-api/dataset"
	"accident-severity-api/ml"
	"accident-severity-api/models"
	"accident-severity-api/observability"
)

const MaxBatchSize = 1000

var (
	ErrNotReady           = errors.New("prediction service is not ready")
	ErrPredictionFailure  = errors.New("prediction failed")
	ErrBatchTooLarge      = fmt.Errorf("batch size exceeds maximum of %d", MaxBatchSize)
	ErrTrainingInProgress = errors.New("model training already in progress")
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateTraining      State = "training"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

type PredictionOptions struct {
	Train         ml.TrainOptions
	SyntheticRows int
	SyntheticSeed int64
}

func DefaultPredictionOptions() PredictionOptions {
	return PredictionOptions{
		Train:         ml.DefaultTrainOptions(),
		SyntheticRows: 1000,
		SyntheticSeed: 42,
	}
}

// ModelUpdate is announced after a new artifact is installed.
type ModelUpdate struct {
	ArtifactID   string    `json:"artifact_id"`
	ModelVersion string    `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at"`
	Accuracy     float64   `json:"accuracy"`
	Degraded     bool      `json:"degraded"`
}

type ModelStatus struct {
	State        State      `json:"state"`
	ModelVersion string     `json:"model_version,omitempty"`
	ArtifactID   string     `json:"artifact_id,omitempty"`
	TrainedAt    *time.Time `json:"trained_at,omitempty"`
	Degraded     bool       `json:"degraded"`
	Training     bool       `json:"training"`
	LastError    string     `json:"last_error,omitempty"`
	Store        string     `json:"store"`
	DataSource   string     `json:"data_source"`
}

type PredictionListener func(ctx context.Context, req models.AccidentRequest, res *models.PredictionResult)

// PredictionService owns the installed artifact. Readers take a snapshot
// under the read lock; training builds a complete replacement off to the
// side and swaps it in under the write lock.
type PredictionService struct {
	store  ml.Store
	source dataset.Source
	opts   PredictionOptions
	logger *slog.Logger

	mu         sync.RWMutex
	state      State
	artifact   *ml.Artifact
	frame      *dataset.Frame
	degraded   bool
	lastErr    error
	perf       *ml.Metrics
	perfForID  string
	training   bool
	trainMu    sync.Mutex
	listenerMu sync.RWMutex
	onUpdate   []func(ModelUpdate)
	onPredict  []PredictionListener
}

func NewPredictionService(store ml.Store, source dataset.Source, opts PredictionOptions, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		store:  store,
		source: source,
		opts:   opts,
		logger: logger.With("component", "prediction"),
		state:  StateUninitialized,
	}
}

// OnModelUpdate registers fn to run after every successful retrain. fn runs
// after the training slot is released, so a slow listener never blocks the
// next retrain.
func (s *PredictionService) OnModelUpdate(fn func(ModelUpdate)) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.onUpdate = append(s.onUpdate, fn)
}

// OnPrediction registers fn to run after every served prediction.
func (s *PredictionService) OnPrediction(fn PredictionListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.onPredict = append(s.onPredict, fn)
}

// Initialize installs the persisted artifact, or trains one when the store
// has none.
func (s *PredictionService) Initialize(ctx context.Context) error {
	s.setState(StateLoading)
	a, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.install(a, nil, false)
		s.logger.Info("model loaded",
			"artifact_id", a.ID, "model_version", a.ModelVersion, "store", s.store.Describe())
		return nil
	case errors.Is(err, ml.ErrArtifactNotFound):
		s.logger.Info("no persisted model, training a new one", "store", s.store.Describe())
	default:
		s.logger.Warn("persisted model unusable, retraining", "store", s.store.Describe(), "error", err)
	}

	s.setState(StateTraining)
	if _, err := s.Retrain(ctx); err != nil {
		return err
	}
	return nil
}

// Retrain runs a training pass and waits for it. Only one pass runs at a
// time; a concurrent call gets ErrTrainingInProgress.
func (s *PredictionService) Retrain(ctx context.Context) (*ml.Artifact, error) {
	if !s.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	a, update, err := s.train(ctx)
	s.trainMu.Unlock()
	if err != nil {
		return nil, err
	}
	s.notifyModelUpdate(update)
	return a, nil
}

// RetrainAsync starts a training pass in the background. The pass outlives
// ctx's cancellation but keeps its values.
func (s *PredictionService) RetrainAsync(ctx context.Context) error {
	if !s.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		_, update, err := s.train(bg)
		s.trainMu.Unlock()
		if err != nil {
			s.logger.Error("background retrain failed", "error", err)
			return
		}
		s.notifyModelUpdate(update)
	}()
	return nil
}

// train must be called with trainMu held.
func (s *PredictionService) train(ctx context.Context) (*ml.Artifact, ModelUpdate, error) {
	s.mu.Lock()
	s.training = true
	previous := s.artifact
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.training = false
		s.mu.Unlock()
	}()

	start := time.Now()
	a, frame, degraded, err := s.fit(ctx, previous)
	observability.TrainingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.TrainingRuns.WithLabelValues("failure").Inc()
		s.logger.Error("training failed", "error", err)
		s.mu.Lock()
		s.lastErr = err
		if s.artifact == nil {
			s.state = StateFailed
		}
		s.mu.Unlock()
		return nil, ModelUpdate{}, err
	}

	observability.TrainingRuns.WithLabelValues("success").Inc()
	s.install(a, frame, degraded)
	s.logger.Info("model trained",
		"artifact_id", a.ID,
		"accuracy", a.Metrics.Accuracy,
		"samples", frame.Len(),
		"degraded", degraded,
		"duration", time.Since(start),
	)

	update := ModelUpdate{
		ArtifactID:   a.ID,
		ModelVersion: a.ModelVersion,
		TrainedAt:    a.TrainedAt,
		Accuracy:     a.Metrics.Accuracy,
		Degraded:     degraded,
	}
	return a, update, nil
}

func (s *PredictionService) notifyModelUpdate(u ModelUpdate) {
	s.listenerMu.RLock()
	listeners := append([]func(ModelUpdate){}, s.onUpdate...)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(u)
	}
}

func (s *PredictionService) fit(ctx context.Context, previous *ml.Artifact) (*ml.Artifact, *dataset.Frame, bool, error) {
	frame, degraded, err := dataset.LoadOrSynthesize(ctx, s.source, s.opts.SyntheticRows, s.opts.SyntheticSeed, s.logger)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %w", ml.ErrTrainingFailure, err)
	}
	a, err := ml.Train(ctx, frame, previous, s.opts.Train)
	if err != nil {
		return nil, nil, false, err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return nil, nil, false, fmt.Errorf("%w: persist artifact: %w", ml.ErrTrainingFailure, err)
	}
	return a, frame, degraded, nil
}

func (s *PredictionService) install(a *ml.Artifact, frame *dataset.Frame, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = a
	s.frame = frame
	s.degraded = degraded
	s.state = StateReady
	s.lastErr = nil
	s.perf = nil
	s.perfForID = ""
	if degraded {
		observability.DegradedMode.Set(1)
	} else {
		observability.DegradedMode.Set(0)
	}
}

func (s *PredictionService) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// snapshot returns the installed artifact, or ErrNotReady.
func (s *PredictionService) snapshot() (*ml.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady || s.artifact == nil {
		return nil, fmt.Errorf("%w: state %s", ErrNotReady, s.state)
	}
	return s.artifact, nil
}

// Predict scores one request against the installed artifact.
func (s *PredictionService) Predict(ctx context.Context, req models.AccidentRequest) (*models.PredictionResult, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := score(a, req)
	observability.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.PredictionsFailed.Inc()
		s.logger.Error("prediction failed",
			"request_id", RequestID(ctx), "artifact_id", a.ID, "error", err)
		return nil, err
	}

	for _, col := range res.UnseenCategories {
		observability.UnseenCategories.WithLabelValues(col).Inc()
		s.logger.Warn("unseen category encoded as sentinel",
			"request_id", RequestID(ctx),
			"feature", col,
			"value", req.Values()[col],
			"artifact_id", a.ID,
		)
	}
	observability.PredictionsTotal.WithLabelValues(res.PredictedSeverity).Inc()

	s.listenerMu.RLock()
	listeners := append([]PredictionListener{}, s.onPredict...)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, req, res)
	}
	return res, nil
}

func score(a *ml.Artifact, req models.AccidentRequest) (*models.PredictionResult, error) {
	x, missed := a.Vectorizer().FromValues(req.Values())
	probs, err := a.Model.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}
	best := floats.MaxIdx(probs)
	severity, err := a.Label.Decode(best)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}

	classes := a.Label.Classes()
	byClass := make(map[string]float64, len(classes))
	for i, class := range classes {
		byClass[class] = probs[i]
	}
	factors := RiskFactors(req)
	return &models.PredictionResult{
		PredictionID:      uuid.NewString(),
		PredictedSeverity: severity,
		ConfidenceScore:   probs[best],
		Probabilities:     byClass,
		RiskFactors:       factors,
		Recommendations:   Recommendations(severity, factors),
		UnseenCategories:  missed,
		ModelVersion:      a.ModelVersion,
		ArtifactID:        a.ID,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// PredictBatch scores reqs in order. The whole batch fails on the first
// failing item.
func (s *PredictionService) PredictBatch(ctx context.Context, reqs []models.AccidentRequest) (*models.BatchPredictionResponse, error) {
	if len(reqs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(reqs))
	}
	if _, err := s.snapshot(); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]*models.PredictionResult, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Predict(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		results = append(results, res)
	}

	resp := &models.BatchPredictionResponse{
		Predictions:      results,
		BatchID:          uuid.NewString(),
		TotalPredictions: len(results),
		ProcessingTime:   time.Since(start).Seconds(),
	}
	s.logger.Info("batch prediction completed",
		"batch_id", resp.BatchID,
		"count", resp.TotalPredictions,
		"processing_time", resp.ProcessingTime,
		"request_id", RequestID(ctx),
	)
	return resp, nil
}

// PerformanceMetrics evaluates the installed artifact on the full dataset,
// caching the result until the next retrain.
func (s *PredictionService) PerformanceMetrics(ctx context.Context) (*ml.Metrics, error) {
	a, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	perf, perfID, frame := s.perf, s.perfForID, s.frame
	s.mu.RUnlock()
	if perf != nil && perfID == a.ID {
		return perf, nil
	}

	if frame == nil {
		f, degraded, err := dataset.LoadOrSynthesize(ctx, s.source, s.opts.SyntheticRows, s.opts.SyntheticSeed, s.logger)
		if err != nil {
			return nil, fmt.Errorf("load evaluation data: %w", err)
		}
		frame = f
		s.mu.Lock()
		if s.artifact == a && s.frame == nil {
			s.frame = f
			s.degraded = degraded
		}
		s.mu.Unlock()
	}

	m, err := ml.EvaluateFrame(a, frame)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}
	s.mu.Lock()
	if s.artifact == a {
		s.perf, s.perfForID = m, a.ID
	}
	s.mu.Unlock()
	return m, nil
}

// HealthRequest is the fixed scenario HealthCheck pushes through the full
// prediction path.
var HealthRequest = models.AccidentRequest{
	Country:                  "USA",
	Month:                    "January",
	DayOfWeek:                "Monday",
	TimeOfDay:                "Morning",
	UrbanRural:               "Urban",
	RoadType:                 "Street",
	RoadCondition:            "Dry",
	SpeedLimit:               50,
	WeatherConditions:        "Clear",
	VisibilityLevel:          500,
	NumberOfVehiclesInvolved: 2,
	VehicleCondition:         "Good",
	DriverAgeGroup:           "26-40",
	DriverGender:             "Male",
	DriverAlcoholLevel:       0.0,
	DriverFatigue:            0,
	PedestriansInvolved:      0,
	CyclistsInvolved:         0,
	TrafficVolume:            1000,
	PopulationDensity:        2000,
	AccidentCause:            "Human Error",
}

// HealthCheck returns "healthy" or "unhealthy - <reason>".
func (s *PredictionService) HealthCheck(_ context.Context) string {
	a, err := s.snapshot()
	if err != nil {
		return "unhealthy - model not loaded"
	}
	if _, err := score(a, HealthRequest); err != nil {
		s.logger.Error("health check failed", "artifact_id", a.ID, "error", err)
		return "unhealthy - " + err.Error()
	}
	return "healthy"
}

func (s *PredictionService) Status() ModelStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := ModelStatus{
		State:    s.state,
		Degraded: s.degraded,
		Training: s.training,
		Store:    s.store.Describe(),
	}
	if s.source != nil {
		st.DataSource = s.source.Describe()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if a := s.artifact; a != nil {
		st.ModelVersion = a.ModelVersion
		st.ArtifactID = a.ID
		trainedAt := a.TrainedAt
		st.TrainedAt = &trainedAt
	}
	return st
}

// Artifact returns the installed artifact, or nil before the first install.
func (s *PredictionService) Artifact() *ml.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact
}

// Frame returns the dataset the installed artifact was trained or
// evaluated on. A frame loaded here is kept until the next retrain.
func (s *PredictionService) Frame(ctx context.Context) (*dataset.Frame, bool, error) {
	s.mu.RLock()
	a, frame, degraded := s.artifact, s.frame, s.degraded
	s.mu.RUnlock()
	if frame != nil {
		return frame, degraded, nil
	}

	f, degraded, err := dataset.LoadOrSynthesize(ctx, s.source, s.opts.SyntheticRows, s.opts.SyntheticSeed, s.logger)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	if a != nil && s.artifact == a && s.frame == nil {
		s.frame = f
		s.degraded = degraded
	}
	s.mu.Unlock()
	return f, degraded, nil
}

// DataVersion identifies the dataset behind the installed artifact. It
// changes on every successful retrain.
func (s *PredictionService) DataVersion() string {
	if a := s.Artifact(); a != nil {
		return a.ID
	}
	return "none"
}
