// Package analytics collects anonymized fever case events and answers
// aggregate questions about them: summary statistics, geographic trends,
// disease distribution, time series and simple outbreak signals.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CaseEventType labels the anonymized case event on the wire.
const CaseEventType = "fever.case.recorded"

// CaseEvent is the anonymized record published per completed triage turn.
// It carries no free text and no identity beyond the opaque session id.
type CaseEvent struct {
	SessionID       string    `json:"session_id"`
	TriageLevel     string    `json:"triage_level"`
	RedFlag         bool      `json:"red_flag"`
	Symptoms        []string  `json:"symptoms,omitempty"`
	TemperatureC    *float64  `json:"temperature_c,omitempty"`
	TempCategory    string    `json:"temp_category,omitempty"`
	SuspectedCause  string    `json:"suspected_cause,omitempty"`
	MatchConfidence float64   `json:"match_confidence,omitempty"`
	AgeGroup        string    `json:"age_group,omitempty"`
	Region          string    `json:"region,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Marshal serializes the event for the outbox payload.
func (e CaseEvent) Marshal() (json.RawMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal case event: %w", err)
	}
	return data, nil
}

// UnmarshalCaseEvent decodes a consumed payload.
func UnmarshalCaseEvent(data []byte) (CaseEvent, error) {
	var e CaseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return CaseEvent{}, fmt.Errorf("unmarshal case event: %w", err)
	}
	if e.SessionID == "" {
		return CaseEvent{}, fmt.Errorf("case event missing session_id")
	}
	return e, nil
}

// DedupKey derives the idempotency key for a consumed event. The same
// session and timestamp always hash to the same key, so redelivered records
// are dropped by the inbox.
func (e CaseEvent) DedupKey() string {
	h := sha256.Sum256([]byte(e.SessionID + "|" + e.RecordedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h[:])
}
