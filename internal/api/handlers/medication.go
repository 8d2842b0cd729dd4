package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/medication"
	"github.com/healthguide/go-triage/internal/observability/metrics"
	"github.com/healthguide/go-triage/internal/triage"
)

// MedicationHandler handles reminder and guidance endpoints
type MedicationHandler struct {
	service *medication.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewMedicationHandler creates a new handler
func NewMedicationHandler(service *medication.Service, m *metrics.Metrics, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{service: service, metrics: m, logger: logger}
}

// Routes returns the handler routes
func (h *MedicationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/deactivate", h.Deactivate)
	r.Get("/session/{sessionID}", h.List)
	r.Get("/session/{sessionID}/upcoming", h.Upcoming)
	r.Get("/frequencies", h.Frequencies)
	r.Get("/suggestions/{diseaseID}", h.Suggestions)
	return r
}

// CreateReminderRequest is the request body for creating a reminder
type CreateReminderRequest struct {
	SessionID      string `json:"session_id"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	DurationDays   int    `json:"duration_days"`
	Notes          string `json:"notes,omitempty"`
}

// Create handles POST /api/medication
func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.MedicationName == "" {
		h.jsonError(w, "session_id and medication_name are required", http.StatusBadRequest)
		return
	}

	view, err := h.service.Create(ctx, req.SessionID, req.MedicationName, req.Dosage, req.Frequency, req.DurationDays, req.Notes)
	if err != nil {
		if errors.Is(err, medication.ErrUnknownFrequency) {
			h.jsonError(w, "unknown frequency code: "+req.Frequency, http.StatusBadRequest)
			return
		}
		h.logger.Error("create reminder failed", zap.Error(err))
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.metrics.RemindersCreated.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

// Get handles GET /api/medication/{id}
func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	view, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, medication.ErrReminderNotFound) {
			h.jsonError(w, "reminder not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get reminder failed", zap.Error(err))
		h.jsonError(w, "failed to load reminder", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// Deactivate handles POST /api/medication/{id}/deactivate
func (h *MedicationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ok, err := h.service.Deactivate(ctx, id)
	if err != nil {
		h.logger.Error("deactivate reminder failed", zap.Error(err))
		h.jsonError(w, "failed to deactivate reminder", http.StatusInternalServerError)
		return
	}
	if !ok {
		h.jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "active": false})
}

// List handles GET /api/medication/session/{sessionID}
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	activeOnly := r.URL.Query().Get("all") != "true"

	views, err := h.service.List(ctx, sessionID, activeOnly)
	if err != nil {
		h.logger.Error("list reminders failed", zap.Error(err))
		h.jsonError(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"session_id": sessionID,
		"count":      len(views),
		"reminders":  views,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Upcoming handles GET /api/medication/session/{sessionID}/upcoming
func (h *MedicationHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	horizon := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			horizon = n
		}
	}

	doses, err := h.service.UpcomingDoses(ctx, sessionID, horizon)
	if err != nil {
		h.logger.Error("upcoming doses failed", zap.Error(err))
		h.jsonError(w, "failed to load upcoming doses", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"session_id":    sessionID,
		"horizon_hours": horizon,
		"doses":         doses,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Frequencies handles GET /api/medication/frequencies
func (h *MedicationHandler) Frequencies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"frequencies": medication.FrequencyOptions(),
	})
}

// Suggestions handles GET /api/medication/suggestions/{diseaseID}
func (h *MedicationHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	diseaseID := chi.URLParam(r, "diseaseID")
	ageGroup := r.URL.Query().Get("age_group")
	hasAllergies := r.URL.Query().Get("has_allergies") == "true"

	suggestion := triage.MedicationSuggestions(diseaseID, ageGroup, hasAllergies)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(suggestion)
}

func (h *MedicationHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
