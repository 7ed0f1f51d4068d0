package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/models"
	"accident-severity-api/observability"
)

func recordN(h *HistoryService, n int, start time.Time) {
	for i := 0; i < n; i++ {
		res := &models.PredictionResult{
			PredictionID:      fmt.Sprintf("p-%04d", i),
			PredictedSeverity: "Minor",
			ConfidenceScore:   0.5,
			ModelVersion:      "1.0.0",
			ArtifactID:        "artifact-1",
			Timestamp:         start.Add(time.Duration(i) * time.Second),
		}
		h.Record(WithSource(context.Background(), SourceBatch), HealthRequest, res)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	h := NewHistoryService(nil, observability.Discard())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recordN(h, 5, start)

	rows, hasMore, err := h.List(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, rows, 3)
	assert.Equal(t, "p-0004", rows[0].ID)
	assert.Equal(t, "p-0002", rows[2].ID)
	assert.Equal(t, SourceBatch, rows[0].Source)
	assert.Equal(t, "artifact-1", rows[0].ArtifactID)

	var req models.AccidentRequest
	require.NoError(t, json.Unmarshal(rows[0].Request, &req))
	assert.Equal(t, HealthRequest, req)

	before := rows[2].TS
	rows, hasMore, err = h.List(context.Background(), 3, &before)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, rows, 2)
	assert.Equal(t, "p-0001", rows[0].ID)
	assert.Equal(t, "p-0000", rows[1].ID)
}

func TestHistoryRingWraps(t *testing.T) {
	h := NewHistoryService(nil, observability.Discard())
	recordN(h, historyRingSize+20, time.Now())

	rows, hasMore, err := h.List(context.Background(), historyRingSize+100, nil)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, rows, historyRingSize)
	assert.Equal(t, fmt.Sprintf("p-%04d", historyRingSize+19), rows[0].ID)
	assert.Equal(t, "p-0020", rows[len(rows)-1].ID)
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistoryService(nil, observability.Discard())
	rows, hasMore, err := h.List(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Empty(t, rows)
	assert.NoError(t, h.Migrate())
}
