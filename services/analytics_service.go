package services

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strconv"

	"accident-severity-api/dataset"
	"accident-severity-api/models"
)

const riskMethodology = "Cross-tabulation analysis of categorical factors vs severity"

// AnalyticsService aggregates the dataset by time, risk factor and country.
// Results are cached per data version.
type AnalyticsService struct {
	frames FrameProvider
	cache  *CacheService
	logger *slog.Logger
}

func NewAnalyticsService(frames FrameProvider, cache *CacheService, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{frames: frames, cache: cache, logger: logger.With("component", "analytics")}
}

// cached serves key from the cache or computes and stores it.
func cached[T any](ctx context.Context, c *CacheService, key string, compute func() (*T, error)) (*T, error) {
	var hit T
	if err := c.Get(ctx, key, &hit); err == nil {
		return &hit, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	go c.Set(context.Background(), key, v, cacheTTL)
	return v, nil
}

// Trends groups accidents by month when period is "monthly" and the data
// has a Month column; any other period gives overall severity counts.
func (s *AnalyticsService) Trends(ctx context.Context, period string) (*models.TrendsResponse, error) {
	key := "analytics:trends:" + period + ":" + s.frames.DataVersion()
	return cached(ctx, s.cache, key, func() (*models.TrendsResponse, error) {
		frame, _, err := s.frames.Frame(ctx)
		if err != nil {
			return nil, err
		}
		if period != "monthly" || !frame.Has(dataset.ColMonth) {
			return &models.TrendsResponse{
				Period:  "overall",
				Overall: valueCounts(frame.Column(dataset.ColSeverity)),
			}, nil
		}

		byMonth := make(map[string]*models.TrendPoint)
		for i := 0; i < frame.Len(); i++ {
			month := frame.Value(i, dataset.ColMonth)
			if dataset.IsMissing(month) {
				continue
			}
			p, ok := byMonth[month]
			if !ok {
				p = &models.TrendPoint{Period: month}
				byMonth[month] = p
			}
			switch frame.Value(i, dataset.ColSeverity) {
			case dataset.SeverityMinor:
				p.Minor++
			case dataset.SeverityModerate:
				p.Moderate++
			case dataset.SeveritySevere:
				p.Severe++
			}
			p.Total++
		}

		points := make([]models.TrendPoint, 0, len(byMonth))
		for _, p := range byMonth {
			points = append(points, *p)
		}
		sort.Slice(points, func(i, j int) bool {
			return monthIndex(points[i].Period) < monthIndex(points[j].Period)
		})

		summary := &models.TrendSummary{TotalAccidents: frame.Len()}
		if len(points) > 0 {
			summary.AvgPerPeriod = float64(frame.Len()) / float64(len(points))
		}
		return &models.TrendsResponse{Period: period, Data: points, Summary: summary}, nil
	})
}

// monthIndex orders calendar months first, unknown labels after them.
func monthIndex(m string) int {
	if i := slices.Index(dataset.Categories[dataset.ColMonth], m); i >= 0 {
		return i
	}
	return 12
}

// RiskFactors reports the severe-accident rate per weather condition and
// for high speed limit areas, highest first, at most ten.
func (s *AnalyticsService) RiskFactors(ctx context.Context) (*models.RiskFactorsResponse, error) {
	key := "analytics:risk-factors:" + s.frames.DataVersion()
	return cached(ctx, s.cache, key, func() (*models.RiskFactorsResponse, error) {
		frame, _, err := s.frames.Frame(ctx)
		if err != nil {
			return nil, err
		}

		var factors []models.RiskFactorStat
		if frame.Has(dataset.ColWeatherConditions) && frame.Has(dataset.ColSeverity) {
			total := make(map[string]int)
			severe := make(map[string]int)
			for i := 0; i < frame.Len(); i++ {
				w := frame.Value(i, dataset.ColWeatherConditions)
				if dataset.IsMissing(w) {
					continue
				}
				total[w]++
				if frame.Value(i, dataset.ColSeverity) == dataset.SeveritySevere {
					severe[w]++
				}
			}
			for w, n := range total {
				factors = append(factors, riskStat("Weather: "+w, severe[w], n))
			}
		}

		if frame.Has(dataset.ColSpeedLimit) {
			var n, sev int
			for i := 0; i < frame.Len(); i++ {
				v, err := strconv.ParseFloat(frame.Value(i, dataset.ColSpeedLimit), 64)
				if err != nil || v <= highSpeedLimit {
					continue
				}
				n++
				if frame.Value(i, dataset.ColSeverity) == dataset.SeveritySevere {
					sev++
				}
			}
			if n > 0 {
				factors = append(factors, riskStat("High Speed Limit (>80 km/h)", sev, n))
			}
		}

		sort.SliceStable(factors, func(i, j int) bool {
			if factors[i].ImpactScore != factors[j].ImpactScore {
				return factors[i].ImpactScore > factors[j].ImpactScore
			}
			return factors[i].Factor < factors[j].Factor
		})
		if len(factors) > 10 {
			factors = factors[:10]
		}
		if factors == nil {
			factors = []models.RiskFactorStat{}
		}
		return &models.RiskFactorsResponse{
			RiskFactors:   factors,
			TotalAnalyzed: frame.Len(),
			Methodology:   riskMethodology,
		}, nil
	})
}

func riskStat(factor string, severe, total int) models.RiskFactorStat {
	rate := float64(severe) / float64(total)
	return models.RiskFactorStat{
		Factor:      factor,
		SevereRate:  rate,
		ImpactScore: rate * 100,
		Frequency:   total,
	}
}

// Geographical breaks accidents down by country.
func (s *AnalyticsService) Geographical(ctx context.Context) (*models.GeographicalResponse, error) {
	key := "analytics:geographical:" + s.frames.DataVersion()
	return cached(ctx, s.cache, key, func() (*models.GeographicalResponse, error) {
		frame, _, err := s.frames.Frame(ctx)
		if err != nil {
			return nil, err
		}

		stats := make(map[string]*models.CountryStat)
		if frame.Has(dataset.ColCountry) && frame.Has(dataset.ColSeverity) {
			for i := 0; i < frame.Len(); i++ {
				country := frame.Value(i, dataset.ColCountry)
				if dataset.IsMissing(country) {
					continue
				}
				st, ok := stats[country]
				if !ok {
					st = &models.CountryStat{
						Country: country,
						SeverityDistribution: map[string]int{
							dataset.SeverityMinor:    0,
							dataset.SeverityModerate: 0,
							dataset.SeveritySevere:   0,
						},
					}
					stats[country] = st
				}
				st.TotalAccidents++
				sev := frame.Value(i, dataset.ColSeverity)
				if _, known := st.SeverityDistribution[sev]; known {
					st.SeverityDistribution[sev]++
				}
				if sev == dataset.SeveritySevere {
					st.SevereAccidents++
				}
			}
		}

		out := make([]models.CountryStat, 0, len(stats))
		for _, st := range stats {
			st.SevereRate = float64(st.SevereAccidents) / float64(st.TotalAccidents)
			out = append(out, *st)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })

		return &models.GeographicalResponse{
			GeographicalData: out,
			Summary: models.GeoSummary{
				CountriesAnalyzed: len(out),
				TotalAccidents:    frame.Len(),
			},
		}, nil
	})
}
