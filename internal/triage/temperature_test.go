package triage

import "testing"

func TestClassifyTemperatureNumericBands(t *testing.T) {
	tests := []struct {
		celsius float64
		want    TemperatureCategory
	}{
		{36.1, TempNormal},
		{36.8, TempNormal},
		{37.2, TempNormal},
		{37.3, TempWarm},
		{38.0, TempWarm},
		{38.1, TempFever},
		{38.9, TempFever},
		{39.0, TempHighFever},
		{39.9, TempHighFever},
		{40.0, TempVeryHighFever},
		{41.0, TempVeryHighFever},
		{41.1, TempCritical},
		{45.0, TempCritical},
	}

	for _, tt := range tests {
		c := tt.celsius
		got := ClassifyTemperature(&c, "")
		if got.Category != tt.want {
			t.Errorf("ClassifyTemperature(%.1f) = %s, want %s", tt.celsius, got.Category, tt.want)
		}
		if got.InputType != "numeric" {
			t.Errorf("ClassifyTemperature(%.1f).InputType = %q, want numeric", tt.celsius, got.InputType)
		}
		if got.TemperatureF == nil {
			t.Errorf("ClassifyTemperature(%.1f): missing Fahrenheit", tt.celsius)
		}
	}
}

func TestClassifyTemperatureClamps(t *testing.T) {
	low := 34.5
	if got := ClassifyTemperature(&low, ""); got.Category != TempNormal {
		t.Errorf("below-range reading classified as %s, want %s", got.Category, TempNormal)
	}

	high := 46.2
	if got := ClassifyTemperature(&high, ""); got.Category != TempCritical {
		t.Errorf("above-range reading classified as %s, want %s", got.Category, TempCritical)
	}
}

func TestClassifyTemperatureDescriptive(t *testing.T) {
	tests := []struct {
		descriptive string
		want        TemperatureCategory
		estimate    float64
	}{
		{"feeling_normal", TempNormal, 36.7},
		{"slightly_warm", TempWarm, 37.7},
		{"hot_to_touch", TempFever, 38.5},
		{"very_hot_sweating", TempHighFever, 39.5},
		{"burning_up", TempVeryHighFever, 40.5},
		{"extreme_heat_confusion", TempCritical, 43.1},
	}

	for _, tt := range tests {
		got := ClassifyTemperature(nil, tt.descriptive)
		if got.Category != tt.want {
			t.Errorf("ClassifyTemperature(%q) = %s, want %s", tt.descriptive, got.Category, tt.want)
		}
		if got.InputType != "descriptive" {
			t.Errorf("ClassifyTemperature(%q).InputType = %q, want descriptive", tt.descriptive, got.InputType)
		}
		if got.TemperatureC == nil {
			t.Fatalf("ClassifyTemperature(%q): missing Celsius estimate", tt.descriptive)
		}
		if *got.TemperatureC != tt.estimate {
			t.Errorf("ClassifyTemperature(%q) estimate = %.1f, want %.1f", tt.descriptive, *got.TemperatureC, tt.estimate)
		}
	}
}

func TestClassifyTemperatureUnknownDescriptive(t *testing.T) {
	got := ClassifyTemperature(nil, "feels_weird")
	if got.Category != TempFever {
		t.Errorf("unknown descriptive classified as %s, want %s", got.Category, TempFever)
	}
}

func TestClassifyTemperatureNoInput(t *testing.T) {
	got := ClassifyTemperature(nil, "")
	if got.Category != TempFever {
		t.Errorf("no input classified as %s, want %s", got.Category, TempFever)
	}
	if got.InputType != "unknown" {
		t.Errorf("no input InputType = %q, want unknown", got.InputType)
	}
	if got.Urgency != "moderate" {
		t.Errorf("no input urgency = %q, want moderate", got.Urgency)
	}
}

func TestTemperatureConversions(t *testing.T) {
	tests := []struct {
		celsius    float64
		fahrenheit float64
	}{
		{37.0, 98.6},
		{38.5, 101.3},
		{40.0, 104.0},
		{0.0, 32.0},
	}

	for _, tt := range tests {
		if got := CelsiusToFahrenheit(tt.celsius); got != tt.fahrenheit {
			t.Errorf("CelsiusToFahrenheit(%.1f) = %.1f, want %.1f", tt.celsius, got, tt.fahrenheit)
		}
		if got := FahrenheitToCelsius(tt.fahrenheit); got != tt.celsius {
			t.Errorf("FahrenheitToCelsius(%.1f) = %.1f, want %.1f", tt.fahrenheit, got, tt.celsius)
		}
	}
}

func TestTemperatureQuestionsOptions(t *testing.T) {
	q := TemperatureQuestions()
	options, ok := q["descriptive_options"].([]DescriptiveOption)
	if !ok {
		t.Fatal("descriptive_options has unexpected type")
	}
	if len(options) != 6 {
		t.Fatalf("got %d descriptive options, want 6", len(options))
	}
	for _, opt := range options {
		if _, known := descriptiveMapping[opt.Value]; !known {
			t.Errorf("option %q has no mapping", opt.Value)
		}
	}
}
