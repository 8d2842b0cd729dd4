package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/infrastructure/postgres"
	"github.com/healthguide/go-triage/internal/observability/metrics"
	"github.com/healthguide/go-triage/internal/triage"
)

// TemperatureHandler handles temperature assessment and logging endpoints
type TemperatureHandler struct {
	store   *postgres.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTemperatureHandler creates a new handler
func NewTemperatureHandler(store *postgres.Store, m *metrics.Metrics, logger *zap.Logger) *TemperatureHandler {
	return &TemperatureHandler{store: store, metrics: m, logger: logger}
}

// Routes returns the handler routes
func (h *TemperatureHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/assess", h.Assess)
	r.Post("/log", h.Log)
	r.Get("/history/{sessionID}", h.History)
	r.Get("/questions", h.Questions)
	return r
}

// AssessRequest is the request body for classifying a temperature
type AssessRequest struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	Unit               string   `json:"unit,omitempty"`
	DescriptiveFeeling string   `json:"descriptive_feeling,omitempty"`
}

// Assess handles POST /api/temperature/assess
func (h *TemperatureHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	celsius := req.Temperature
	if celsius != nil && (req.Unit == "F" || req.Unit == "f") {
		c := triage.FahrenheitToCelsius(*celsius)
		celsius = &c
	}

	assessment := triage.ClassifyTemperature(celsius, req.DescriptiveFeeling)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assessment)
}

// LogRequest is the request body for recording a temperature reading
type LogRequest struct {
	SessionID   string  `json:"session_id"`
	Temperature float64 `json:"temperature"`
	Unit        string  `json:"unit,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// Log handles POST /api/temperature/log
func (h *TemperatureHandler) Log(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		h.jsonError(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if req.Temperature == 0 {
		h.jsonError(w, "temperature is required", http.StatusBadRequest)
		return
	}

	celsius := req.Temperature
	unit := "C"
	if req.Unit == "F" || req.Unit == "f" {
		celsius = triage.FahrenheitToCelsius(req.Temperature)
	}

	assessment := triage.ClassifyTemperature(&celsius, "")

	saved, err := h.store.SaveTemperature(ctx, postgres.TemperatureLog{
		SessionID:   req.SessionID,
		Temperature: celsius,
		Unit:        unit,
		Category:    string(assessment.Category),
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.Error("save temperature failed", zap.Error(err))
		h.jsonError(w, "failed to save reading", http.StatusInternalServerError)
		return
	}

	h.metrics.TemperatureReadings.Inc()

	resp := map[string]interface{}{
		"log":        saved,
		"assessment": assessment,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// History handles GET /api/temperature/history/{sessionID}
func (h *TemperatureHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.store.TemperatureHistory(ctx, sessionID, limit)
	if err != nil {
		h.logger.Error("temperature history failed", zap.Error(err))
		h.jsonError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"session_id": sessionID,
		"count":      len(logs),
		"readings":   logs,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Questions handles GET /api/temperature/questions
func (h *TemperatureHandler) Questions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(triage.TemperatureQuestions())
}

func (h *TemperatureHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
