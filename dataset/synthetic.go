package dataset

import (
	"math/rand"
	"strconv"
)

// Synthetic builds a deterministic dataset carrying every declared column.
// Severity follows a noisy score driven by alcohol, speed, weather, road
// surface, fatigue and light, so a trained model has signal to find.
func Synthetic(n int, seed int64) *Frame {
	rng := rand.New(rand.NewSource(seed))

	columns := make([]string, 0, len(CategoricalColumns)+len(NumericalColumns)+1)
	columns = append(columns, CategoricalColumns...)
	columns = append(columns, NumericalColumns...)
	columns = append(columns, ColSeverity)

	rows := make([][]string, n)
	for i := range rows {
		cat := make(map[string]string, len(CategoricalColumns))
		rec := make([]string, 0, len(columns))
		for _, col := range CategoricalColumns {
			values := Categories[col]
			v := values[rng.Intn(len(values))]
			cat[col] = v
			rec = append(rec, v)
		}

		visibility := 50 + rng.Float64()*450
		vehicles := 1 + rng.Intn(5)
		speed := 30 + rng.Intn(91)
		alcohol := 0.0
		if rng.Float64() < 0.25 {
			alcohol = rng.Float64() * 0.25
		}
		fatigue := 0
		if rng.Float64() < 0.2 {
			fatigue = 1
		}
		pedestrians := rng.Intn(3)
		cyclists := rng.Intn(3)
		traffic := rng.Intn(10001)
		density := rng.Intn(5001)

		score := rng.NormFloat64() * 0.35
		if alcohol > 0.08 {
			score += 1.0
		}
		if speed > 80 {
			score += 0.6
		}
		if fatigue == 1 {
			score += 0.5
		}
		switch cat[ColWeatherConditions] {
		case "Rainy", "Snowy", "Foggy":
			score += 0.4
		}
		switch cat[ColRoadCondition] {
		case "Wet", "Icy", "Snow-covered":
			score += 0.3
		}
		switch cat[ColTimeOfDay] {
		case "Evening", "Night":
			score += 0.2
		}
		if visibility < 100 {
			score += 0.3
		}

		severity := SeverityMinor
		switch {
		case score > 1.2:
			severity = SeveritySevere
		case score > 0.5:
			severity = SeverityModerate
		}

		rec = append(rec,
			strconv.FormatFloat(visibility, 'f', 1, 64),
			strconv.Itoa(vehicles),
			strconv.Itoa(speed),
			strconv.FormatFloat(alcohol, 'f', 3, 64),
			strconv.Itoa(fatigue),
			strconv.Itoa(pedestrians),
			strconv.Itoa(cyclists),
			strconv.Itoa(traffic),
			strconv.Itoa(density),
			severity,
		)
		rows[i] = rec
	}
	return NewFrame(columns, rows)
}
