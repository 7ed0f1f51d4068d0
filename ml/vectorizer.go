package ml

import (
	"math"
	"strconv"
	"strings"

	"accident-severity-api/dataset"
)

// FeatureColumns returns the declared feature columns present in frame:
// categorical columns in declared order, then numerical ones.
func FeatureColumns(frame *dataset.Frame) []string {
	var cols []string
	for _, c := range dataset.CategoricalColumns {
		if frame.Has(c) {
			cols = append(cols, c)
		}
	}
	for _, c := range dataset.NumericalColumns {
		if frame.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Vectorizer maps raw values onto the fixed training-time column order.
// A column is categorical when the registry holds an encoder for it.
type Vectorizer struct {
	Columns  []string
	Registry *Registry
}

// Vector builds one feature vector. missed lists categorical columns whose
// value was not seen at fit time; those positions hold UnseenCode.
func (v Vectorizer) Vector(value func(col string) string) (features []float64, missed []string) {
	features = make([]float64, len(v.Columns))
	for i, col := range v.Columns {
		raw := value(col)
		if v.Registry.Has(col) {
			code, ok := v.Registry.Encode(col, raw)
			if !ok {
				missed = append(missed, col)
			}
			features[i] = code
			continue
		}
		features[i] = parseNumber(raw)
	}
	return features, missed
}

func (v Vectorizer) FromValues(values map[string]string) ([]float64, []string) {
	return v.Vector(func(col string) string { return values[col] })
}

// FromFrame vectorizes every row and counts misses per column.
func (v Vectorizer) FromFrame(frame *dataset.Frame) ([][]float64, map[string]int) {
	X := make([][]float64, frame.Len())
	misses := make(map[string]int)
	for i := range X {
		row, missed := v.Vector(func(col string) string { return frame.Value(i, col) })
		for _, col := range missed {
			misses[col]++
		}
		X[i] = row
	}
	return X, misses
}

func parseNumber(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
