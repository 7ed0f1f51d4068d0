package services

import (
	"slices"

	"accident-severity-api/models"
)

const (
	RiskHighAlcohol    = "High alcohol level detected"
	RiskFatigue        = "Driver fatigue present"
	RiskAdverseWeather = "Adverse weather conditions"
	RiskPoorVisibility = "Poor visibility"
	RiskHighSpeed      = "High speed limit area"
	RiskPoorRoad       = "Poor road conditions"
	RiskLowLight       = "Low light conditions"
)

// Legal blood alcohol limit and the speed above which an area counts as fast.
const (
	alcoholLimit   = 0.08
	highSpeedLimit = 80
	lowVisibility  = 100
)

var (
	adverseWeather = []string{"Rainy", "Snowy", "Foggy"}
	poorRoads      = []string{"Wet", "Icy", "Snow-covered"}
	lowLightTimes  = []string{"Evening", "Night"}
)

// RiskFactors lists the conditions in req known to raise severity, in a
// fixed order.
func RiskFactors(req models.AccidentRequest) []string {
	factors := []string{}
	if req.DriverAlcoholLevel > alcoholLimit {
		factors = append(factors, RiskHighAlcohol)
	}
	if req.DriverFatigue == 1 {
		factors = append(factors, RiskFatigue)
	}
	if slices.Contains(adverseWeather, req.WeatherConditions) {
		factors = append(factors, RiskAdverseWeather)
	}
	if req.VisibilityLevel < lowVisibility {
		factors = append(factors, RiskPoorVisibility)
	}
	if req.SpeedLimit > highSpeedLimit {
		factors = append(factors, RiskHighSpeed)
	}
	if slices.Contains(poorRoads, req.RoadCondition) {
		factors = append(factors, RiskPoorRoad)
	}
	if slices.Contains(lowLightTimes, req.TimeOfDay) {
		factors = append(factors, RiskLowLight)
	}
	return factors
}

var factorAdvice = []struct {
	factor, advice string
}{
	{RiskHighAlcohol, "Do not drive - alcohol level exceeds safe limits"},
	{RiskFatigue, "Take a break before driving"},
	{RiskAdverseWeather, "Reduce speed and increase following distance"},
	{RiskPoorVisibility, "Use headlights and drive slowly"},
	{RiskPoorRoad, "Drive carefully and avoid sudden maneuvers"},
}

// Recommendations turns a predicted severity and its risk factors into
// advice: a severity line first, then one line per applicable factor.
func Recommendations(severity string, factors []string) []string {
	recs := []string{}
	switch severity {
	case "Severe":
		recs = append(recs, "Exercise extreme caution - high risk conditions detected")
	case "Moderate":
		recs = append(recs, "Increased vigilance recommended")
	}
	for _, fa := range factorAdvice {
		if slices.Contains(factors, fa.factor) {
			recs = append(recs, fa.advice)
		}
	}
	return recs
}
