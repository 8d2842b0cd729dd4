package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/geo"
)

// ProviderHandler handles healthcare provider lookup endpoints
type ProviderHandler struct {
	geo    *geo.Service
	logger *zap.Logger
}

// NewProviderHandler creates a new handler
func NewProviderHandler(geoService *geo.Service, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{geo: geoService, logger: logger}
}

// Routes returns the handler routes
func (h *ProviderHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/nearby", h.Nearby)
	r.Get("/ambulance", h.Ambulance)
	return r
}

// Nearby handles GET /api/providers/nearby
func (h *ProviderHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lat, lon, ok := h.coords(w, r)
	if !ok {
		return
	}

	providerType := r.URL.Query().Get("type")
	if providerType == "" {
		providerType = "hospital"
	}
	radiusKM := h.intParam(r, "radius_km", 10)
	limit := h.intParam(r, "limit", 10)

	providers := h.geo.FindNearby(ctx, lat, lon, radiusKM, providerType, limit)

	resp := map[string]interface{}{
		"type":      providerType,
		"radius_km": radiusKM,
		"count":     len(providers),
		"providers": providers,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Ambulance handles GET /api/providers/ambulance
func (h *ProviderHandler) Ambulance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lat, lon, ok := h.coords(w, r)
	if !ok {
		return
	}
	radiusKM := h.intParam(r, "radius_km", 15)

	info := h.geo.FindAmbulanceServices(ctx, lat, lon, radiusKM)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (h *ProviderHandler) coords(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		h.jsonError(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		h.jsonError(w, "lat/lon out of range", http.StatusBadRequest)
		return 0, 0, false
	}
	return lat, lon, true
}

func (h *ProviderHandler) intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (h *ProviderHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
