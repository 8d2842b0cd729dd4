package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/triage"
)

func TestTemperatureAssess(t *testing.T) {
	h := NewTemperatureHandler(nil, nil, zap.NewNop())
	router := h.Routes()

	tests := []struct {
		name     string
		body     string
		category triage.TemperatureCategory
	}{
		{"celsius", `{"temperature": 38.5, "unit": "C"}`, triage.TempFever},
		{"fahrenheit", `{"temperature": 104.0, "unit": "F"}`, triage.TempVeryHighFever},
		{"descriptive", `{"descriptive_feeling": "burning_up"}`, triage.TempVeryHighFever},
		{"no input defaults", `{}`, triage.TempFever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/assess", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var assessment triage.TemperatureAssessment
			if err := json.NewDecoder(rec.Body).Decode(&assessment); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if assessment.Category != tt.category {
				t.Errorf("category = %s, want %s", assessment.Category, tt.category)
			}
		})
	}
}

func TestTemperatureAssessBadBody(t *testing.T) {
	h := NewTemperatureHandler(nil, nil, zap.NewNop())
	router := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/assess", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTemperatureQuestions(t *testing.T) {
	h := NewTemperatureHandler(nil, nil, zap.NewNop())
	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if q, _ := body["numeric_question"].(string); q == "" {
		t.Error("missing numeric question")
	}
	options, ok := body["descriptive_options"].([]interface{})
	if !ok || len(options) != 6 {
		t.Errorf("descriptive options = %v, want 6 entries", body["descriptive_options"])
	}
}
