package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// outbreakCaseThreshold is the minimum case count in the window before a
// region/disease pair is surfaced as a possible cluster.
const outbreakCaseThreshold = 5

// TrendStore reads and writes the fever_trends table.
type TrendStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTrendStore creates a trend store.
func NewTrendStore(pool *pgxpool.Pool, logger *zap.Logger) *TrendStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendStore{pool: pool, logger: logger}
}

// Record inserts one consumed case event as a trend row.
func (s *TrendStore) Record(ctx context.Context, e CaseEvent) error {
	query := `
		INSERT INTO fever_trends
		(session_id, triage_level, red_flag, symptoms, temperature_c, temp_category,
		 suspected_cause, match_confidence, age_group, region, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.pool.Exec(ctx, query,
		e.SessionID, e.TriageLevel, e.RedFlag, e.Symptoms, e.TemperatureC,
		e.TempCategory, e.SuspectedCause, e.MatchConfidence, e.AgeGroup,
		e.Region, e.Latitude, e.Longitude, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trend row: %w", err)
	}
	return nil
}

// Summary is the headline view for the dashboard.
type Summary struct {
	TotalCases      int64   `json:"total_cases"`
	EmergencyCases  int64   `json:"emergency_cases"`
	RedFlagCases    int64   `json:"red_flag_cases"`
	AvgTemperature  float64 `json:"avg_temperature_c"`
	DistinctRegions int64   `json:"distinct_regions"`
	WindowDays      int     `json:"window_days"`
}

// Summary aggregates cases recorded within the trailing window.
func (s *TrendStore) Summary(ctx context.Context, windowDays int) (Summary, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE triage_level = 'EMERGENCY'),
		       COUNT(*) FILTER (WHERE red_flag),
		       COALESCE(ROUND(AVG(temperature_c)::numeric, 1), 0),
		       COUNT(DISTINCT region) FILTER (WHERE region <> '')
		FROM fever_trends
		WHERE recorded_at > NOW() - ($1 * INTERVAL '1 day')
	`

	out := Summary{WindowDays: windowDays}
	err := s.pool.QueryRow(ctx, query, windowDays).Scan(
		&out.TotalCases, &out.EmergencyCases, &out.RedFlagCases,
		&out.AvgTemperature, &out.DistinctRegions,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summary query: %w", err)
	}
	return out, nil
}

// RegionCount is case volume for one region.
type RegionCount struct {
	Region         string  `json:"region"`
	Cases          int64   `json:"cases"`
	EmergencyCases int64   `json:"emergency_cases"`
	AvgTemperature float64 `json:"avg_temperature_c"`
}

// GeographicTrends returns per-region case volume, busiest first.
func (s *TrendStore) GeographicTrends(ctx context.Context, windowDays, limit int) ([]RegionCount, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT region,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE triage_level = 'EMERGENCY'),
		       COALESCE(ROUND(AVG(temperature_c)::numeric, 1), 0)
		FROM fever_trends
		WHERE recorded_at > NOW() - ($1 * INTERVAL '1 day')
		  AND region <> ''
		GROUP BY region
		ORDER BY COUNT(*) DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, windowDays, limit)
	if err != nil {
		return nil, fmt.Errorf("geographic trends query: %w", err)
	}
	defer rows.Close()

	trends := []RegionCount{}
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Region, &rc.Cases, &rc.EmergencyCases, &rc.AvgTemperature); err != nil {
			return nil, fmt.Errorf("scan region count: %w", err)
		}
		trends = append(trends, rc)
	}
	return trends, rows.Err()
}

// DiseaseShare is one suspected cause's slice of the window.
type DiseaseShare struct {
	Disease string  `json:"disease"`
	Cases   int64   `json:"cases"`
	Percent float64 `json:"percent"`
}

// DiseaseDistribution returns suspected-cause shares over the window.
func (s *TrendStore) DiseaseDistribution(ctx context.Context, windowDays int) ([]DiseaseShare, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	query := `
		SELECT suspected_cause,
		       COUNT(*),
		       ROUND(100.0 * COUNT(*) / SUM(COUNT(*)) OVER (), 1)
		FROM fever_trends
		WHERE recorded_at > NOW() - ($1 * INTERVAL '1 day')
		  AND suspected_cause <> ''
		GROUP BY suspected_cause
		ORDER BY COUNT(*) DESC
	`

	rows, err := s.pool.Query(ctx, query, windowDays)
	if err != nil {
		return nil, fmt.Errorf("disease distribution query: %w", err)
	}
	defer rows.Close()

	shares := []DiseaseShare{}
	for rows.Next() {
		var ds DiseaseShare
		if err := rows.Scan(&ds.Disease, &ds.Cases, &ds.Percent); err != nil {
			return nil, fmt.Errorf("scan disease share: %w", err)
		}
		shares = append(shares, ds)
	}
	return shares, rows.Err()
}

// DailyCount is case volume for one calendar day.
type DailyCount struct {
	Day            time.Time `json:"day"`
	Cases          int64     `json:"cases"`
	EmergencyCases int64     `json:"emergency_cases"`
}

// TimeSeries returns daily case counts over the window, oldest first.
func (s *TrendStore) TimeSeries(ctx context.Context, windowDays int) ([]DailyCount, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	query := `
		SELECT date_trunc('day', recorded_at) AS day,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE triage_level = 'EMERGENCY')
		FROM fever_trends
		WHERE recorded_at > NOW() - ($1 * INTERVAL '1 day')
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := s.pool.Query(ctx, query, windowDays)
	if err != nil {
		return nil, fmt.Errorf("time series query: %w", err)
	}
	defer rows.Close()

	series := []DailyCount{}
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Day, &dc.Cases, &dc.EmergencyCases); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		series = append(series, dc)
	}
	return series, rows.Err()
}

// OutbreakSignal flags a region/disease pair whose current volume runs well
// ahead of its prior-window baseline.
type OutbreakSignal struct {
	Region        string  `json:"region"`
	Disease       string  `json:"disease"`
	RecentCases   int64   `json:"recent_cases"`
	BaselineCases int64   `json:"baseline_cases"`
	GrowthFactor  float64 `json:"growth_factor"`
}

// OutbreakSignals compares the trailing window against the window before it
// and reports pairs that at least doubled while clearing the case floor.
func (s *TrendStore) OutbreakSignals(ctx context.Context, windowDays int) ([]OutbreakSignal, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	query := `
		WITH recent AS (
			SELECT region, suspected_cause, COUNT(*) AS cases
			FROM fever_trends
			WHERE recorded_at > NOW() - ($1 * INTERVAL '1 day')
			  AND region <> '' AND suspected_cause <> ''
			GROUP BY region, suspected_cause
		), baseline AS (
			SELECT region, suspected_cause, COUNT(*) AS cases
			FROM fever_trends
			WHERE recorded_at <= NOW() - ($1 * INTERVAL '1 day')
			  AND recorded_at > NOW() - (2 * $1 * INTERVAL '1 day')
			  AND region <> '' AND suspected_cause <> ''
			GROUP BY region, suspected_cause
		)
		SELECT r.region, r.suspected_cause, r.cases, COALESCE(b.cases, 0),
		       ROUND(r.cases::numeric / GREATEST(COALESCE(b.cases, 0), 1), 2)
		FROM recent r
		LEFT JOIN baseline b
		  ON b.region = r.region AND b.suspected_cause = r.suspected_cause
		WHERE r.cases >= $2
		  AND r.cases >= 2 * GREATEST(COALESCE(b.cases, 0), 1)
		ORDER BY r.cases DESC
	`

	rows, err := s.pool.Query(ctx, query, windowDays, outbreakCaseThreshold)
	if err != nil {
		return nil, fmt.Errorf("outbreak signals query: %w", err)
	}
	defer rows.Close()

	signals := []OutbreakSignal{}
	for rows.Next() {
		var sig OutbreakSignal
		if err := rows.Scan(&sig.Region, &sig.Disease, &sig.RecentCases,
			&sig.BaselineCases, &sig.GrowthFactor); err != nil {
			return nil, fmt.Errorf("scan outbreak signal: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}
