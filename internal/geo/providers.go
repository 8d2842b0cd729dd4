// Package geo implements the geodata collaborator: locating nearby
// healthcare providers through OpenStreetMap services and ranking them by
// distance. All outbound calls go through a circuit breaker; failures degrade
// to empty ranked lists plus static emergency numbers, never to a stalled
// request.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthguide/go-triage/pkg/circuitbreaker"
)

// Provider is one ranked healthcare provider near the user.
type Provider struct {
	Name       string  `json:"name"`
	Address    string  `json:"address,omitempty"`
	Type       string  `json:"type"`
	DistanceKM float64 `json:"distance_km"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Phone      string  `json:"phone,omitempty"`
	MapsURL    string  `json:"maps_url"`
}

// AmbulanceInfo bundles emergency contact numbers and any ambulance stations
// found nearby.
type AmbulanceInfo struct {
	EmergencyNumbers map[string]string `json:"emergency_numbers"`
	Stations         []Provider        `json:"stations"`
}

// emergencyNumbers are returned even when every lookup fails.
var emergencyNumbers = map[string]string{
	"ambulance": "108",
	"general":   "112",
	"police":    "100",
}

// overpassTags maps provider types to OSM amenity tags.
var overpassTags = map[string]string{
	"hospital": "hospital",
	"clinic":   "clinic",
	"pharmacy": "pharmacy",
}

// Service queries OpenStreetMap Overpass for nearby providers.
type Service struct {
	httpClient  *http.Client
	overpassURL string
	userAgent   string
	breaker     *circuitbreaker.CircuitBreaker
	logger      *zap.Logger
}

// Config holds geodata collaborator settings.
type Config struct {
	OverpassURL string
	Timeout     time.Duration
	UserAgent   string
}

// DefaultConfig returns settings for the public Overpass endpoint.
func DefaultConfig() Config {
	return Config{
		OverpassURL: "https://overpass-api.de/api/interpreter",
		Timeout:     10 * time.Second,
		UserAgent:   "healthguide-triage/1.0",
	}
}

// NewService creates a geodata service with its breaker registered on the
// manager.
func NewService(cfg Config, manager *circuitbreaker.Manager, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OverpassURL == "" {
		cfg = DefaultConfig()
	}

	breaker, err := manager.GetOrCreate("geo-overpass", circuitbreaker.DefaultConfig("geo-overpass"))
	if err != nil {
		return nil, err
	}

	return &Service{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		overpassURL: cfg.OverpassURL,
		userAgent:   cfg.UserAgent,
		breaker:     breaker,
		logger:      logger,
	}, nil
}

// FindNearby returns providers of the requested type within radiusKM, ranked
// by ascending distance, at most limit entries. Lookup failure returns an
// empty list, not an error: provider discovery is advisory.
func (s *Service) FindNearby(ctx context.Context, lat, lon float64, radiusKM int, providerType string, limit int) []Provider {
	tag, ok := overpassTags[providerType]
	if !ok {
		tag = overpassTags["hospital"]
		providerType = "hospital"
	}
	if radiusKM <= 0 {
		radiusKM = 5
	}
	if limit <= 0 {
		limit = 10
	}

	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.queryOverpass(ctx, lat, lon, radiusKM, tag)
	})
	if err != nil {
		s.logger.Warn("provider lookup degraded",
			zap.String("type", providerType),
			zap.Error(err))
		return []Provider{}
	}

	providers := result.([]Provider)
	for i := range providers {
		providers[i].Type = providerType
		providers[i].DistanceKM = haversineKM(lat, lon, providers[i].Latitude, providers[i].Longitude)
		providers[i].MapsURL = fmt.Sprintf("https://maps.google.com/?q=%f,%f",
			providers[i].Latitude, providers[i].Longitude)
	}

	sort.Slice(providers, func(i, j int) bool {
		return providers[i].DistanceKM < providers[j].DistanceKM
	})
	if len(providers) > limit {
		providers = providers[:limit]
	}
	return providers
}

// FindAmbulanceServices returns nearby ambulance stations plus the static
// emergency number table. The numbers are always present even when the
// station lookup degrades.
func (s *Service) FindAmbulanceServices(ctx context.Context, lat, lon float64, radiusKM int) AmbulanceInfo {
	info := AmbulanceInfo{EmergencyNumbers: emergencyNumbers, Stations: []Provider{}}

	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.queryOverpass(ctx, lat, lon, radiusKM, "ambulance_station")
	})
	if err != nil {
		s.logger.Warn("ambulance lookup degraded", zap.Error(err))
		return info
	}

	stations := result.([]Provider)
	for i := range stations {
		stations[i].Type = "ambulance"
		stations[i].DistanceKM = haversineKM(lat, lon, stations[i].Latitude, stations[i].Longitude)
	}
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].DistanceKM < stations[j].DistanceKM
	})
	info.Stations = stations
	return info
}

// overpassResponse is the subset of the Overpass JSON we consume.
type overpassResponse struct {
	Elements []struct {
		Lat    float64           `json:"lat"`
		Lon    float64           `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

func (s *Service) queryOverpass(ctx context.Context, lat, lon float64, radiusKM int, amenity string) ([]Provider, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:10];(node["amenity"=%q](around:%d,%f,%f);way["amenity"=%q](around:%d,%f,%f););out center;`,
		amenity, radiusKM*1000, lat, lon, amenity, radiusKM*1000, lat, lon)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.overpassURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	providers := make([]Provider, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		elLat, elLon := el.Lat, el.Lon
		if el.Center != nil {
			elLat, elLon = el.Center.Lat, el.Center.Lon
		}
		if elLat == 0 && elLon == 0 {
			continue
		}

		name := el.Tags["name"]
		if name == "" {
			name = "Unnamed facility"
		}
		providers = append(providers, Provider{
			Name:      name,
			Address:   buildAddress(el.Tags),
			Latitude:  elLat,
			Longitude: elLon,
			Phone:     el.Tags["phone"],
		})
	}
	return providers, nil
}

func buildAddress(tags map[string]string) string {
	var parts []string
	for _, key := range []string{"addr:housenumber", "addr:street", "addr:city"} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// haversineKM computes great-circle distance in kilometers, rounded to one
// decimal.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKM*c*10) / 10
}
