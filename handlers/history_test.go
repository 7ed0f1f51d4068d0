package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

type historyPage struct {
	Data       []models.PredictionRecord `json:"data"`
	NextCursor string                    `json:"next_cursor"`
	HasMore    bool                      `json:"has_more"`
}

func TestPredictionHistory(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	var ids []string
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/predict", services.HealthRequest, nil)
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decode[models.PredictionResult](t, w).PredictionID)
	}

	w := env.do(t, http.MethodGet, "/api/v1/predictions?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[historyPage](t, w)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 2)
	assert.Equal(t, ids[2], page.Data[0].ID)
	assert.Equal(t, services.SourceHTTP, page.Data[0].Source)
	require.NotEmpty(t, page.NextCursor)

	var req models.AccidentRequest
	require.NoError(t, json.Unmarshal(page.Data[0].Request, &req))
	assert.Equal(t, services.HealthRequest, req)

	w = env.do(t, http.MethodGet, "/api/v1/predictions?limit=2&before="+url.QueryEscape(page.NextCursor), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[historyPage](t, w)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
	require.Len(t, page.Data, 1)
	assert.Equal(t, ids[0], page.Data[0].ID)
}

func TestPredictionHistoryLimits(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	tests := []struct {
		query string
		code  int
	}{
		{"", http.StatusOK},
		{"?limit=-4", http.StatusOK},
		{"?limit=abc", http.StatusOK},
		{"?limit=1000", http.StatusOK},
		{"?before=yesterday", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/predictions"+tt.query, nil, nil)
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}
			page := decode[historyPage](t, w)
			assert.NotNil(t, page.Data)
			assert.Empty(t, page.Data)
			assert.False(t, page.HasMore)
		})
	}
}

func TestParsePageParams(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantTS    *time.Time
		wantErr   bool
	}{
		{"defaults", "", DefaultPageSize, nil, false},
		{"explicit", "limit=7", 7, nil, false},
		{"negative", "limit=-1", DefaultPageSize, nil, false},
		{"not a number", "limit=x", DefaultPageSize, nil, false},
		{"clamped", "limit=5000", MaxPageSize, nil, false},
		{"cursor", "before=" + url.QueryEscape(ts.Format(time.RFC3339Nano)), DefaultPageSize, &ts, false},
		{"bad cursor", "before=nope", DefaultPageSize, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			p, err := ParsePageParams(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, p.Limit)
			if tt.wantTS == nil {
				assert.Nil(t, p.Before)
			} else {
				require.NotNil(t, p.Before)
				assert.True(t, tt.wantTS.Equal(*p.Before))
			}
		})
	}
}

func TestNewPageCursor(t *testing.T) {
	stamp := func(ts time.Time) time.Time { return ts }
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []time.Time{first.Add(time.Minute), first}

	page := NewPage(rows, true, stamp)
	assert.Equal(t, first.Format(time.RFC3339Nano), page.NextCursor)

	page = NewPage(rows, false, stamp)
	assert.Empty(t, page.NextCursor)

	empty := NewPage[time.Time](nil, false, stamp)
	assert.NotNil(t, empty.Data)
}
