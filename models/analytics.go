package models

type DataExplorationRequest struct {
	Feature   string         `json:"feature" binding:"required"`
	ChartType string         `json:"chart_type" binding:"required,oneof=histogram bar scatter box correlation"`
	Filters   map[string]any `json:"filters"`
}

type DataExplorationResponse struct {
	ChartData  map[string]any `json:"chart_data"`
	Statistics map[string]any `json:"statistics"`
	Insights   []string       `json:"insights"`
}

type DataSummary struct {
	TotalRecords         int               `json:"total_records"`
	FeatureCount         int               `json:"feature_count"`
	MissingData          map[string]int    `json:"missing_data"`
	DataTypes            map[string]string `json:"data_types"`
	SeverityDistribution map[string]int    `json:"severity_distribution,omitempty"`
	Degraded             bool              `json:"degraded"`
}

type TrendPoint struct {
	Period   string `json:"period"`
	Minor    int    `json:"minor"`
	Moderate int    `json:"moderate"`
	Severe   int    `json:"severe"`
	Total    int    `json:"total"`
}

type TrendSummary struct {
	TotalAccidents int     `json:"total_accidents"`
	AvgPerPeriod   float64 `json:"avg_per_period"`
}

// TrendsResponse carries Data for the monthly view and Overall otherwise.
type TrendsResponse struct {
	Period  string         `json:"period"`
	Data    []TrendPoint   `json:"data,omitempty"`
	Overall map[string]int `json:"overall,omitempty"`
	Summary *TrendSummary  `json:"summary,omitempty"`
}

type RiskFactorStat struct {
	Factor      string  `json:"factor"`
	SevereRate  float64 `json:"severe_rate"`
	ImpactScore float64 `json:"impact_score"`
	Frequency   int     `json:"frequency"`
}

type RiskFactorsResponse struct {
	RiskFactors   []RiskFactorStat `json:"risk_factors"`
	TotalAnalyzed int              `json:"total_analyzed"`
	Methodology   string           `json:"methodology"`
}

type CountryStat struct {
	Country              string         `json:"country"`
	TotalAccidents       int            `json:"total_accidents"`
	SevereAccidents      int            `json:"severe_accidents"`
	SevereRate           float64        `json:"severe_rate"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
}

type GeoSummary struct {
	CountriesAnalyzed int `json:"countries_analyzed"`
	TotalAccidents    int `json:"total_accidents"`
}

type GeographicalResponse struct {
	GeographicalData []CountryStat `json:"geographical_data"`
	Summary          GeoSummary    `json:"summary"`
}
