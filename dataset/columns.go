package dataset

import "strings"

// Normalized column names of the accident dataset.
const (
	ColCountry           = "Country"
	ColMonth             = "Month"
	ColDayOfWeek         = "Day.of.Week"
	ColTimeOfDay         = "Time.of.Day"
	ColUrbanRural        = "Urban.Rural"
	ColRoadType          = "Road.Type"
	ColWeatherConditions = "Weather.Conditions"
	ColDriverAgeGroup    = "Driver.Age.Group"
	ColDriverGender      = "Driver.Gender"
	ColVehicleCondition  = "Vehicle.Condition"
	ColRoadCondition     = "Road.Condition"
	ColAccidentCause     = "Accident.Cause"

	ColVisibilityLevel    = "Visibility.Level"
	ColNumberOfVehicles   = "Number.of.Vehicles.Involved"
	ColSpeedLimit         = "Speed.Limit"
	ColDriverAlcoholLevel = "Driver.Alcohol.Level"
	ColDriverFatigue      = "Driver.Fatigue"
	ColPedestrians        = "Pedestrians.Involved"
	ColCyclists           = "Cyclists.Involved"
	ColTrafficVolume      = "Traffic.Volume"
	ColPopulationDensity  = "Population.Density"

	ColSeverity = "Accident.Severity"
)

// Severity labels.
const (
	SeverityMinor    = "Minor"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"
)

// CategoricalColumns lists the categorical features in vector order.
var CategoricalColumns = []string{
	ColCountry, ColMonth, ColDayOfWeek, ColTimeOfDay, ColUrbanRural,
	ColRoadType, ColWeatherConditions, ColDriverAgeGroup, ColDriverGender,
	ColVehicleCondition, ColRoadCondition, ColAccidentCause,
}

// NumericalColumns lists the numerical features in vector order.
var NumericalColumns = []string{
	ColVisibilityLevel, ColNumberOfVehicles, ColSpeedLimit,
	ColDriverAlcoholLevel, ColDriverFatigue, ColPedestrians,
	ColCyclists, ColTrafficVolume, ColPopulationDensity,
}

// Severities is the closed label set.
var Severities = []string{SeverityMinor, SeverityModerate, SeveritySevere}

// Categories holds the closed enumeration of each categorical column.
var Categories = map[string][]string{
	ColCountry:           {"USA", "UK", "Canada", "India", "China", "Japan"},
	ColMonth:             {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	ColDayOfWeek:         {"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	ColTimeOfDay:         {"Morning", "Afternoon", "Evening", "Night"},
	ColUrbanRural:        {"Urban", "Rural"},
	ColRoadType:          {"Highway", "Main Road", "Street"},
	ColWeatherConditions: {"Clear", "Rainy", "Snowy", "Foggy", "Windy"},
	ColDriverAgeGroup:    {"18-25", "26-40", "41-60", "60+"},
	ColDriverGender:      {"Male", "Female"},
	ColVehicleCondition:  {"Good", "Moderate", "Poor"},
	ColRoadCondition:     {"Dry", "Wet", "Icy", "Snow-covered"},
	ColAccidentCause:     {"Speeding", "Distracted Driving", "Weather", "Mechanical Failure", "Human Error"},
}

// NormalizeColumnName maps raw header names onto the dotted convention,
// e.g. "Day of Week" -> "Day.of.Week" and "Urban/Rural" -> "Urban.Rural".
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	return strings.NewReplacer(" ", ".", "/", ".").Replace(name)
}

// IsNumerical reports whether col is one of the numerical feature columns.
func IsNumerical(col string) bool {
	for _, c := range NumericalColumns {
		if c == col {
			return true
		}
	}
	return false
}

// IsMissing reports whether a raw cell should be treated as absent.
func IsMissing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}
