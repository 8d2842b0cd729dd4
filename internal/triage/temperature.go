package triage

import "math"

// TemperatureCategory is one of six ordered severity tiers for a body
// temperature reading.
type TemperatureCategory string

const (
	TempNormal        TemperatureCategory = "normal"
	TempWarm          TemperatureCategory = "warm"
	TempFever         TemperatureCategory = "fever"
	TempHighFever     TemperatureCategory = "high_fever"
	TempVeryHighFever TemperatureCategory = "very_high_fever"
	TempCritical      TemperatureCategory = "critical"
)

// tempRange is an inclusive Celsius range for a category.
type tempRange struct {
	Category TemperatureCategory
	Low      float64
	High     float64
}

// tempRanges covers [36.1, 45.0] with non-overlapping bands. Readings below
// the lowest bound classify as normal and above the highest as critical;
// classification clamps, it never fails.
var tempRanges = []tempRange{
	{TempNormal, 36.1, 37.2},
	{TempWarm, 37.3, 38.0},
	{TempFever, 38.1, 38.9},
	{TempHighFever, 39.0, 39.9},
	{TempVeryHighFever, 40.0, 41.0},
	{TempCritical, 41.1, 45.0},
}

// descriptiveMapping translates thermometer-free self reports into
// categories. Unknown codes fall back to fever, a deliberately conservative
// middle ground.
var descriptiveMapping = map[string]TemperatureCategory{
	"feeling_normal":         TempNormal,
	"slightly_warm":          TempWarm,
	"hot_to_touch":           TempFever,
	"very_hot_sweating":      TempHighFever,
	"burning_up":             TempVeryHighFever,
	"extreme_heat_confusion": TempCritical,
}

// The description and urgency tables live next to the category enum so the
// three cannot drift apart.
var tempDescriptions = map[TemperatureCategory]string{
	TempNormal:        "Normal body temperature",
	TempWarm:          "Slightly elevated, low-grade fever",
	TempFever:         "Moderate fever",
	TempHighFever:     "High fever - needs attention",
	TempVeryHighFever: "Very high fever - urgent care needed",
	TempCritical:      "Critical temperature - EMERGENCY",
}

var tempUrgency = map[TemperatureCategory]string{
	TempNormal:        "none",
	TempWarm:          "low",
	TempFever:         "moderate",
	TempHighFever:     "high",
	TempVeryHighFever: "urgent",
	TempCritical:      "emergency",
}

// TemperatureAssessment is the classification of a single temperature input.
type TemperatureAssessment struct {
	Category     TemperatureCategory `json:"category"`
	TemperatureC *float64            `json:"temperature_c,omitempty"`
	TemperatureF *float64            `json:"temperature_f,omitempty"`
	InputType    string              `json:"input_type"`
	Description  string              `json:"description"`
	Urgency      string              `json:"urgency"`
}

// ClassifyTemperature maps a numeric Celsius reading or a descriptive code to
// a TemperatureAssessment. With neither input it returns the fever/moderate
// default so the caller always receives an actionable assessment.
func ClassifyTemperature(celsius *float64, descriptive string) TemperatureAssessment {
	if celsius != nil {
		category := classifyCelsius(*celsius)
		f := CelsiusToFahrenheit(*celsius)
		return TemperatureAssessment{
			Category:     category,
			TemperatureC: celsius,
			TemperatureF: &f,
			InputType:    "numeric",
			Description:  tempDescriptions[category],
			Urgency:      urgencyFor(category),
		}
	}

	if descriptive != "" {
		category, ok := descriptiveMapping[descriptive]
		if !ok {
			category = TempFever
		}
		est := estimateCelsius(category)
		return TemperatureAssessment{
			Category:     category,
			TemperatureC: &est,
			InputType:    "descriptive",
			Description:  tempDescriptions[category],
			Urgency:      urgencyFor(category),
		}
	}

	return TemperatureAssessment{
		Category:    TempFever,
		InputType:   "unknown",
		Description: tempDescriptions[TempFever],
		Urgency:     urgencyFor(TempFever),
	}
}

func classifyCelsius(c float64) TemperatureCategory {
	for _, r := range tempRanges {
		if c >= r.Low && c <= r.High {
			return r.Category
		}
	}
	if c < tempRanges[0].Low {
		return TempNormal
	}
	return TempCritical
}

// estimateCelsius back-estimates a representative reading for a descriptive
// category as the midpoint of its range.
func estimateCelsius(category TemperatureCategory) float64 {
	for _, r := range tempRanges {
		if r.Category == category {
			return round1((r.Low + r.High) / 2)
		}
	}
	return 38.5
}

func urgencyFor(category TemperatureCategory) string {
	if u, ok := tempUrgency[category]; ok {
		return u
	}
	return "moderate"
}

// CelsiusToFahrenheit converts exactly and rounds to one decimal.
func CelsiusToFahrenheit(c float64) float64 {
	return round1(c*9/5 + 32)
}

// FahrenheitToCelsius converts exactly and rounds to one decimal.
func FahrenheitToCelsius(f float64) float64 {
	return round1((f - 32) * 5 / 9)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DescriptiveOption is one thermometer-free answer offered to users.
type DescriptiveOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TemperatureQuestions returns the user-facing prompts and descriptive
// options for temperature intake.
func TemperatureQuestions() map[string]interface{} {
	return map[string]interface{}{
		"numeric_question":     "What is your body temperature? (in C or F)",
		"descriptive_question": "If you don't have a thermometer, how does your body feel?",
		"descriptive_options": []DescriptiveOption{
			{Value: "feeling_normal", Label: "Feeling normal"},
			{Value: "slightly_warm", Label: "Slightly warm/uncomfortable"},
			{Value: "hot_to_touch", Label: "Hot to touch, sweating a bit"},
			{Value: "very_hot_sweating", Label: "Very hot, sweating heavily"},
			{Value: "burning_up", Label: "Burning up, very uncomfortable"},
			{Value: "extreme_heat_confusion", Label: "Extreme heat, feeling confused"},
		},
	}
}
