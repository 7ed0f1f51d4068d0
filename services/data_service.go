package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"accident-severity-api/dataset"
	"accident-severity-api/models"
)

const (
	histogramBins = 20
	maxScatter    = 1000
	cacheTTL      = 5 * time.Minute
)

var ErrUnknownFeature = errors.New("unknown feature")

// FrameProvider hands out the dataset backing the installed model and a
// version string that changes whenever that dataset may have changed.
type FrameProvider interface {
	Frame(ctx context.Context) (*dataset.Frame, bool, error)
	DataVersion() string
}

// DataService answers descriptive questions about the training dataset.
type DataService struct {
	frames FrameProvider
	cache  *CacheService
	logger *slog.Logger
}

func NewDataService(frames FrameProvider, cache *CacheService, logger *slog.Logger) *DataService {
	return &DataService{frames: frames, cache: cache, logger: logger.With("component", "data")}
}

func (s *DataService) Summary(ctx context.Context) (*models.DataSummary, error) {
	key := "data:summary:" + s.frames.DataVersion()
	var cached models.DataSummary
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	frame, degraded, err := s.frames.Frame(ctx)
	if err != nil {
		return nil, err
	}
	sum := &models.DataSummary{
		TotalRecords: frame.Len(),
		FeatureCount: len(frame.Columns()),
		MissingData:  make(map[string]int),
		DataTypes:    make(map[string]string),
		Degraded:     degraded,
	}
	for _, col := range frame.Columns() {
		values := frame.Column(col)
		sum.MissingData[col] = countMissing(values)
		sum.DataTypes[col] = columnType(values)
	}
	if frame.Has(dataset.ColSeverity) {
		sum.SeverityDistribution = valueCounts(frame.Column(dataset.ColSeverity))
	}

	go s.cache.Set(context.Background(), key, sum, cacheTTL)
	return sum, nil
}

// Explore builds chart data, statistics and insights for one feature,
// after keeping only rows equal to every filter on a known column.
func (s *DataService) Explore(ctx context.Context, req models.DataExplorationRequest) (*models.DataExplorationResponse, error) {
	frame, _, err := s.frames.Frame(ctx)
	if err != nil {
		return nil, err
	}
	feature := dataset.NormalizeColumnName(req.Feature)
	if !frame.Has(feature) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, req.Feature)
	}

	for key, want := range req.Filters {
		col := dataset.NormalizeColumnName(key)
		if !frame.Has(col) {
			continue
		}
		wantStr := filterString(want)
		f := frame
		frame = f.Filter(func(i int) bool { return f.Value(i, col) == wantStr })
	}

	values := frame.Column(feature)
	nums, numeric := numericValues(values)
	missing := countMissing(values)

	resp := &models.DataExplorationResponse{
		ChartData: chartData(frame, feature, req.ChartType, values, nums, numeric),
	}
	if numeric {
		resp.Statistics = numericStats(nums, missing)
		resp.Insights = numericInsights(nums, missing, len(values))
	} else {
		resp.Statistics = categoricalStats(values, missing)
		resp.Insights = categoricalInsights(values, missing, len(values))
	}
	return resp, nil
}

func filterString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func chartData(frame *dataset.Frame, feature, chartType string, values []string, nums []float64, numeric bool) map[string]any {
	switch {
	case chartType == "histogram" && numeric:
		edges, counts := histogram(nums, histogramBins)
		return map[string]any{"type": "histogram", "bins": edges, "counts": counts}

	case chartType == "bar" && !numeric:
		labels, counts := sortedCounts(values)
		return map[string]any{"type": "bar", "labels": labels, "values": counts}

	case chartType == "box" && numeric && len(nums) > 0:
		sorted := sortedCopy(nums)
		return map[string]any{
			"type":   "box",
			"min":    sorted[0],
			"q1":     quantile(sorted, 0.25),
			"median": quantile(sorted, 0.5),
			"q3":     quantile(sorted, 0.75),
			"max":    sorted[len(sorted)-1],
		}

	case chartType == "correlation" && numeric:
		return map[string]any{"type": "correlation", "correlations": correlations(frame, feature)}

	case chartType == "scatter" && frame.Has(dataset.ColSeverity):
		n := min(frame.Len(), maxScatter)
		x := make([]string, 0, n)
		y := make([]string, 0, n)
		for i := 0; i < n; i++ {
			x = append(x, frame.Value(i, feature))
			y = append(y, frame.Value(i, dataset.ColSeverity))
		}
		return map[string]any{"type": "scatter", "x": x, "y": y, "y_label": dataset.ColSeverity}
	}
	return map[string]any{"type": chartType, "message": "Chart type not applicable to this feature"}
}

// correlations reports the Pearson correlation of feature with every other
// numeric column, over rows where both parse.
func correlations(frame *dataset.Frame, feature string) map[string]float64 {
	out := make(map[string]float64)
	base := frame.Column(feature)
	for _, col := range frame.Columns() {
		if col == feature {
			continue
		}
		other := frame.Column(col)
		if _, ok := numericValues(other); !ok {
			continue
		}
		var xs, ys []float64
		for i := range base {
			x, errX := strconv.ParseFloat(base[i], 64)
			y, errY := strconv.ParseFloat(other[i], 64)
			if errX == nil && errY == nil {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		if len(xs) < 2 {
			continue
		}
		if c := stat.Correlation(xs, ys, nil); !math.IsNaN(c) {
			out[col] = c
		}
	}
	return out
}

func numericStats(nums []float64, missing int) map[string]any {
	st := map[string]any{"count": len(nums), "missing": missing}
	if len(nums) == 0 {
		return st
	}
	sorted := sortedCopy(nums)
	st["mean"] = stat.Mean(nums, nil)
	st["median"] = quantile(sorted, 0.5)
	st["min"] = floats.Min(nums)
	st["max"] = floats.Max(nums)
	if len(nums) > 1 {
		st["std"] = stat.StdDev(nums, nil)
	} else {
		st["std"] = 0.0
	}
	return st
}

func categoricalStats(values []string, missing int) map[string]any {
	labels, counts := sortedCounts(values)
	st := map[string]any{
		"count":   len(values) - missing,
		"unique":  len(labels),
		"missing": missing,
		"top":     nil,
		"freq":    0,
	}
	if len(labels) > 0 {
		st["top"] = labels[0]
		st["freq"] = counts[0]
	}
	return st
}

func missingInsight(missing, total int) []string {
	if total == 0 {
		return nil
	}
	if pct := float64(missing) / float64(total) * 100; pct > 5 {
		return []string{fmt.Sprintf("High missing data: %.1f%% of values are missing", pct)}
	}
	return nil
}

func numericInsights(nums []float64, missing, total int) []string {
	insights := missingInsight(missing, total)
	if len(nums) > 1 {
		if mean := stat.Mean(nums, nil); mean != 0 && stat.StdDev(nums, nil)/mean > 1 {
			insights = append(insights, "High variability detected in the data")
		}
		sorted := sortedCopy(nums)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		iqr := q3 - q1
		outliers := 0
		for _, v := range nums {
			if v < q1-1.5*iqr || v > q3+1.5*iqr {
				outliers++
			}
		}
		if outliers > 0 {
			insights = append(insights, fmt.Sprintf("Potential outliers detected: %d values", outliers))
		}
	}
	if len(insights) == 0 {
		return []string{"No significant patterns detected"}
	}
	return insights
}

func categoricalInsights(values []string, missing, total int) []string {
	insights := missingInsight(missing, total)
	_, counts := sortedCounts(values)
	present := total - missing
	if present > 0 && float64(len(counts))/float64(present) > 0.8 {
		insights = append(insights, "High cardinality: Many unique values detected")
	}
	if len(counts) > 1 && float64(counts[0])/float64(counts[len(counts)-1]) > 10 {
		insights = append(insights, "Imbalanced categories: Some categories are much more frequent")
	}
	if len(insights) == 0 {
		return []string{"No significant patterns detected"}
	}
	return insights
}

// numericValues parses every non-missing value. ok is false when any of
// them is not a number or none are present.
func numericValues(values []string) (nums []float64, ok bool) {
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, len(nums) > 0
}

func columnType(values []string) string {
	nums, ok := numericValues(values)
	if !ok {
		return "object"
	}
	for _, v := range nums {
		if v != math.Trunc(v) {
			return "float64"
		}
	}
	return "int64"
}

func countMissing(values []string) int {
	n := 0
	for _, v := range values {
		if dataset.IsMissing(v) {
			n++
		}
	}
	return n
}

func valueCounts(values []string) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		if !dataset.IsMissing(v) {
			counts[v]++
		}
	}
	return counts
}

// sortedCounts returns non-missing values by descending frequency, ties
// broken by value.
func sortedCounts(values []string) ([]string, []int) {
	counts := valueCounts(values)
	labels := make([]string, 0, len(counts))
	for v := range counts {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = counts[l]
	}
	return labels, out
}

// histogram splits [min, max] into n equal bins, the last one closed.
// A constant input is widened by 0.5 on each side.
func histogram(nums []float64, n int) ([]float64, []int) {
	counts := make([]int, n)
	edges := make([]float64, n+1)
	if len(nums) == 0 {
		return edges, counts
	}
	lo, hi := floats.Min(nums), floats.Max(nums)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	for _, v := range nums {
		b := int((v - lo) / width)
		if b >= n {
			b = n - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	return edges, counts
}

func sortedCopy(nums []float64) []float64 {
	out := make([]float64, len(nums))
	copy(out, nums)
	sort.Float64s(out)
	return out
}

// quantile interpolates linearly between closest ranks of sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
