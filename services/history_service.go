package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"accident-severity-api/models"
)

const historyRingSize = 500

// HistoryService keeps served predictions. With a database every record is
// written through gorm; without one only the most recent predictions are
// kept in memory.
type HistoryService struct {
	db     *gorm.DB
	logger *slog.Logger

	mu   sync.Mutex
	ring []models.PredictionRecord
	next int
}

func NewHistoryService(db *gorm.DB, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		db:     db,
		logger: logger.With("component", "history"),
		ring:   make([]models.PredictionRecord, 0, historyRingSize),
	}
}

// Migrate creates the history table.
func (h *HistoryService) Migrate() error {
	if h.db == nil {
		return nil
	}
	return h.db.AutoMigrate(&models.PredictionRecord{})
}

// Record stores res. The database write happens in the background.
func (h *HistoryService) Record(ctx context.Context, req models.AccidentRequest, res *models.PredictionResult) {
	raw, err := json.Marshal(req)
	if err != nil {
		h.logger.Warn("encode request for history", "error", err)
	}
	rec := models.PredictionRecord{
		ID:           res.PredictionID,
		TS:           res.Timestamp,
		Severity:     res.PredictedSeverity,
		Confidence:   res.ConfidenceScore,
		ModelVersion: res.ModelVersion,
		ArtifactID:   res.ArtifactID,
		Source:       Source(ctx),
		Request:      raw,
	}

	h.mu.Lock()
	if len(h.ring) < historyRingSize {
		h.ring = append(h.ring, rec)
	} else {
		h.ring[h.next] = rec
	}
	h.next = (h.next + 1) % historyRingSize
	h.mu.Unlock()

	if h.db != nil {
		go func() {
			writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.db.WithContext(writeCtx).Create(&rec).Error; err != nil {
				h.logger.Warn("persist prediction failed", "prediction_id", rec.ID, "error", err)
			}
		}()
	}
}

// List returns up to limit records newer-first, strictly older than before
// when it is set. hasMore reports whether older records exist.
func (h *HistoryService) List(ctx context.Context, limit int, before *time.Time) (rows []models.PredictionRecord, hasMore bool, err error) {
	if h.db != nil {
		query := h.db.WithContext(ctx).Model(&models.PredictionRecord{}).
			Order("ts DESC").
			Limit(limit + 1)
		if before != nil {
			query = query.Where("ts < ?", *before)
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, false, err
		}
	} else {
		rows = h.recent(before, limit+1)
	}

	hasMore = len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return rows, hasMore, nil
}

// recent walks the ring from newest to oldest.
func (h *HistoryService) recent(before *time.Time, n int) []models.PredictionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.PredictionRecord, 0, min(n, len(h.ring)))
	for k := 1; k <= len(h.ring) && len(out) < n; k++ {
		rec := h.ring[(h.next-k+len(h.ring))%len(h.ring)]
		if before != nil && !rec.TS.Before(*before) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
