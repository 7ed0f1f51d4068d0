package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"accident-severity-api/dataset"
)

func TestFeatureColumnsDeclaredOrder(t *testing.T) {
	f := dataset.NewFrame(
		[]string{"Speed Limit", "Accident Severity", "Weather Conditions", "Country", "Driver Fatigue"},
		[][]string{{"50", "Minor", "Clear", "USA", "0"}},
	)
	assert.Equal(t,
		[]string{dataset.ColCountry, dataset.ColWeatherConditions, dataset.ColSpeedLimit, dataset.ColDriverFatigue},
		FeatureColumns(f),
	)
}

func TestVectorizerWidthAndCoercion(t *testing.T) {
	r := NewRegistry()
	r.FitOrReuse(dataset.ColCountry, []string{"USA", "UK"})
	v := Vectorizer{
		Columns:  []string{dataset.ColCountry, dataset.ColSpeedLimit, dataset.ColVisibilityLevel, dataset.ColTrafficVolume},
		Registry: r,
	}

	x, missed := v.FromValues(map[string]string{
		dataset.ColCountry:         "UK",
		dataset.ColSpeedLimit:      "80",
		dataset.ColVisibilityLevel: "not-a-number",
	})
	assert.Len(t, x, 4)
	assert.Empty(t, missed)
	assert.Equal(t, []float64{1, 80, 0, 0}, x)
}

func TestVectorizerUnseenCategory(t *testing.T) {
	r := NewRegistry()
	r.FitOrReuse(dataset.ColCountry, []string{"USA", "UK"})
	v := Vectorizer{Columns: []string{dataset.ColCountry}, Registry: r}

	x, missed := v.FromValues(map[string]string{dataset.ColCountry: "Japan"})
	assert.Equal(t, []float64{UnseenCode}, x)
	assert.Equal(t, []string{dataset.ColCountry}, missed)

	// deterministic across calls
	y, _ := v.FromValues(map[string]string{dataset.ColCountry: "Japan"})
	assert.Equal(t, x, y)
}

func TestVectorizerFromFrameCountsMisses(t *testing.T) {
	r := NewRegistry()
	r.FitOrReuse(dataset.ColCountry, []string{"USA"})
	v := Vectorizer{Columns: []string{dataset.ColCountry, dataset.ColSpeedLimit}, Registry: r}
	f := dataset.NewFrame([]string{"Country", "Speed Limit"}, [][]string{
		{"USA", "30"}, {"UK", "40"}, {"India", "NaN"},
	})

	X, misses := v.FromFrame(f)
	assert.Equal(t, [][]float64{{0, 30}, {-1, 40}, {-1, 0}}, X)
	assert.Equal(t, map[string]int{dataset.ColCountry: 2}, misses)
}
