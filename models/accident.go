package models

import (
	"strconv"
	"time"

	"accident-severity-api/dataset"
)

// AccidentRequest describes one accident scenario to score.
type AccidentRequest struct {
	Country           string `json:"country" binding:"required,oneof=USA UK Canada India China Japan"`
	Month             string `json:"month" binding:"required,oneof=January February March April May June July August September October November December"`
	DayOfWeek         string `json:"day_of_week" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	TimeOfDay         string `json:"time_of_day" binding:"required,oneof=Morning Afternoon Evening Night"`
	UrbanRural        string `json:"urban_rural" binding:"required,oneof=Urban Rural"`
	RoadType          string `json:"road_type" binding:"required,oneof=Highway 'Main Road' Street"`
	RoadCondition     string `json:"road_condition" binding:"required,oneof=Dry Wet Icy Snow-covered"`
	WeatherConditions string `json:"weather_conditions" binding:"required,oneof=Clear Rainy Snowy Foggy Windy"`
	VehicleCondition  string `json:"vehicle_condition" binding:"required,oneof=Good Moderate Poor"`
	DriverAgeGroup    string `json:"driver_age_group" binding:"required,oneof=18-25 26-40 41-60 60+"`
	DriverGender      string `json:"driver_gender" binding:"required,oneof=Male Female"`
	AccidentCause     string `json:"accident_cause" binding:"required,oneof=Speeding 'Distracted Driving' Weather 'Mechanical Failure' 'Human Error'"`

	SpeedLimit               int     `json:"speed_limit" binding:"min=0,max=200"`
	VisibilityLevel          float64 `json:"visibility_level" binding:"min=0,max=1000"`
	NumberOfVehiclesInvolved int     `json:"number_of_vehicles_involved" binding:"min=1,max=20"`
	DriverAlcoholLevel       float64 `json:"driver_alcohol_level" binding:"min=0,max=0.5"`
	DriverFatigue            int     `json:"driver_fatigue" binding:"min=0,max=1"`
	PedestriansInvolved      int     `json:"pedestrians_involved" binding:"min=0,max=20"`
	CyclistsInvolved         int     `json:"cyclists_involved" binding:"min=0,max=20"`
	TrafficVolume            int     `json:"traffic_volume" binding:"min=0,max=20000"`
	PopulationDensity        int     `json:"population_density" binding:"min=0,max=10000"`
}

// Values maps the request onto dataset column names.
func (r AccidentRequest) Values() map[string]string {
	return map[string]string{
		dataset.ColCountry:           r.Country,
		dataset.ColMonth:             r.Month,
		dataset.ColDayOfWeek:         r.DayOfWeek,
		dataset.ColTimeOfDay:         r.TimeOfDay,
		dataset.ColUrbanRural:        r.UrbanRural,
		dataset.ColRoadType:          r.RoadType,
		dataset.ColWeatherConditions: r.WeatherConditions,
		dataset.ColDriverAgeGroup:    r.DriverAgeGroup,
		dataset.ColDriverGender:      r.DriverGender,
		dataset.ColVehicleCondition:  r.VehicleCondition,
		dataset.ColRoadCondition:     r.RoadCondition,
		dataset.ColAccidentCause:     r.AccidentCause,

		dataset.ColVisibilityLevel:    formatFloat(r.VisibilityLevel),
		dataset.ColNumberOfVehicles:   strconv.Itoa(r.NumberOfVehiclesInvolved),
		dataset.ColSpeedLimit:         strconv.Itoa(r.SpeedLimit),
		dataset.ColDriverAlcoholLevel: formatFloat(r.DriverAlcoholLevel),
		dataset.ColDriverFatigue:      strconv.Itoa(r.DriverFatigue),
		dataset.ColPedestrians:        strconv.Itoa(r.PedestriansInvolved),
		dataset.ColCyclists:           strconv.Itoa(r.CyclistsInvolved),
		dataset.ColTrafficVolume:      strconv.Itoa(r.TrafficVolume),
		dataset.ColPopulationDensity:  strconv.Itoa(r.PopulationDensity),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type PredictionResult struct {
	PredictionID      string             `json:"prediction_id"`
	PredictedSeverity string             `json:"predicted_severity"`
	ConfidenceScore   float64            `json:"confidence_score"`
	Probabilities     map[string]float64 `json:"probabilities"`
	RiskFactors       []string           `json:"risk_factors"`
	Recommendations   []string           `json:"recommendations"`
	UnseenCategories  []string           `json:"unseen_categories,omitempty"`
	ModelVersion      string             `json:"model_version"`
	ArtifactID        string             `json:"artifact_id"`
	Timestamp         time.Time          `json:"timestamp"`
}

type BatchPredictionRequest struct {
	Predictions []AccidentRequest `json:"predictions" binding:"required,min=1,dive"`
}

type BatchPredictionResponse struct {
	Predictions      []*PredictionResult `json:"predictions"`
	BatchID          string              `json:"batch_id"`
	TotalPredictions int                 `json:"total_predictions"`
	ProcessingTime   float64             `json:"processing_time"`
}
