package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/analytics"
)

// AnalyticsHandler serves the fever trend dashboard. Its routes are mounted
// behind API-key auth.
type AnalyticsHandler struct {
	trends *analytics.TrendStore
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new handler
func NewAnalyticsHandler(trends *analytics.TrendStore, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{trends: trends, logger: logger}
}

// Routes returns the handler routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", h.Summary)
	r.Get("/geographic", h.Geographic)
	r.Get("/diseases", h.Diseases)
	r.Get("/timeseries", h.TimeSeries)
	r.Get("/outbreaks", h.Outbreaks)
	return r
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.trends.Summary(r.Context(), h.windowDays(r, 7))
	if err != nil {
		h.logger.Error("analytics summary failed", zap.Error(err))
		h.jsonError(w, "failed to compute summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// Geographic handles GET /api/analytics/geographic
func (h *AnalyticsHandler) Geographic(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	trends, err := h.trends.GeographicTrends(r.Context(), h.windowDays(r, 7), limit)
	if err != nil {
		h.logger.Error("geographic trends failed", zap.Error(err))
		h.jsonError(w, "failed to compute geographic trends", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"regions": trends})
}

// Diseases handles GET /api/analytics/diseases
func (h *AnalyticsHandler) Diseases(w http.ResponseWriter, r *http.Request) {
	shares, err := h.trends.DiseaseDistribution(r.Context(), h.windowDays(r, 7))
	if err != nil {
		h.logger.Error("disease distribution failed", zap.Error(err))
		h.jsonError(w, "failed to compute disease distribution", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"diseases": shares})
}

// TimeSeries handles GET /api/analytics/timeseries
func (h *AnalyticsHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.trends.TimeSeries(r.Context(), h.windowDays(r, 30))
	if err != nil {
		h.logger.Error("time series failed", zap.Error(err))
		h.jsonError(w, "failed to compute time series", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"series": series})
}

// Outbreaks handles GET /api/analytics/outbreaks
func (h *AnalyticsHandler) Outbreaks(w http.ResponseWriter, r *http.Request) {
	signals, err := h.trends.OutbreakSignals(r.Context(), h.windowDays(r, 7))
	if err != nil {
		h.logger.Error("outbreak signals failed", zap.Error(err))
		h.jsonError(w, "failed to compute outbreak signals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"signals": signals})
}

func (h *AnalyticsHandler) windowDays(r *http.Request, def int) int {
	if v := r.URL.Query().Get("window_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (h *AnalyticsHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
