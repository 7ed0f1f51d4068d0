package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Day of Week", "Day.of.Week"},
		{"Urban/Rural", "Urban.Rural"},
		{" Accident Severity ", "Accident.Severity"},
		{"Number of Vehicles Involved", "Number.of.Vehicles.Involved"},
		{"Country", "Country"},
		{"Driver.Alcohol.Level", "Driver.Alcohol.Level"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumnName(tt.in))
		})
	}
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", " ", "NA", "nan", "NULL", "None"} {
		assert.True(t, IsMissing(v), "IsMissing(%q)", v)
	}
	for _, v := range []string{"0", "Clear", "0.0"} {
		assert.False(t, IsMissing(v), "IsMissing(%q)", v)
	}
}

func TestFrameAccessors(t *testing.T) {
	f := NewFrame([]string{"Country", "Speed Limit"}, [][]string{
		{"USA", "50"},
		{"UK"},
	})

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"Country", "Speed.Limit"}, f.Columns())
	assert.True(t, f.Has("Speed.Limit"))
	assert.False(t, f.Has("Speed Limit"))
	assert.Equal(t, "", f.Value(1, "Speed.Limit"), "short rows read as missing")
	assert.Equal(t, []string{"USA", "UK"}, f.Column("Country"))
	assert.Nil(t, f.Column("Month"))

	uk := f.Filter(func(i int) bool { return f.Value(i, "Country") == "UK" })
	assert.Equal(t, 1, uk.Len())
	assert.Equal(t, "UK", uk.Value(0, "Country"))
}

func TestReadCSV(t *testing.T) {
	in := "Country,Day of Week,Accident Severity\nUSA,Monday,Minor\nUK,Friday,Severe\n"
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "Friday", f.Value(1, ColDayOfWeek))
	assert.Equal(t, "Minor", f.Value(0, ColSeverity))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := src.Load(context.Background())
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestSyntheticDeterministic(t *testing.T) {
	a := Synthetic(200, 7)
	b := Synthetic(200, 7)
	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		for _, col := range a.Columns() {
			require.Equal(t, a.Value(i, col), b.Value(i, col))
		}
	}
}

func TestSyntheticCoversSchema(t *testing.T) {
	f := Synthetic(500, 42)
	for _, col := range append(append([]string{}, CategoricalColumns...), NumericalColumns...) {
		assert.True(t, f.Has(col), "missing column %s", col)
	}

	counts := map[string]int{}
	for _, s := range f.Column(ColSeverity) {
		counts[s]++
	}
	for _, s := range Severities {
		assert.Greater(t, counts[s], 1, "severity %s underrepresented", s)
	}
}

func TestLoadOrSynthesizeFallsBack(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "none.csv"))
	f, degraded, err := LoadOrSynthesize(context.Background(), src, 50, 1, discardLogger())
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Equal(t, 50, f.Len())
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*Frame, error) { return nil, errors.New("boom") }
func (failingSource) Describe() string                     { return "failing" }

func TestLoadOrSynthesizePropagatesOtherErrors(t *testing.T) {
	_, _, err := LoadOrSynthesize(context.Background(), failingSource{}, 50, 1, discardLogger())
	assert.EqualError(t, err, "boom")
}
