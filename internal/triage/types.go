// Package triage implements the fever triage decision engine: red flag
// detection, temperature classification, disease matching and the per-turn
// orchestration that merges them into a single triage outcome.
package triage

import (
	"strings"
	"time"
)

// Level represents the triage severity classification of a turn.
// Levels are ordered: EMERGENCY > URGENT > SELF_CARE > FOLLOW_UP.
type Level string

const (
	LevelEmergency Level = "EMERGENCY"
	LevelUrgent    Level = "URGENT"
	LevelSelfCare  Level = "SELF_CARE"
	LevelFollowUp  Level = "FOLLOW_UP"
)

// rank maps levels to their ordering, highest severity first.
func (l Level) rank() int {
	switch l {
	case LevelEmergency:
		return 3
	case LevelUrgent:
		return 2
	case LevelSelfCare:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l Level) AtLeast(other Level) bool { return l.rank() >= other.rank() }

// Result is the structured outcome of a single triage turn.
type Result struct {
	Level                Level    `json:"triage_level"`
	Escalate             bool     `json:"escalate"`
	Summary              string   `json:"summary"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
	NextQuestion         string   `json:"next_question,omitempty"`
	RedFlagDetected      bool     `json:"red_flag_detected"`
	RedFlagSymptom       string   `json:"red_flag_symptom,omitempty"`
}

// Message is one entry in a conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SymptomReport carries the structured symptom selection for a turn.
// Tokens are normalized once at construction and the report is immutable
// afterwards; it is never persisted as its own entity.
type SymptomReport struct {
	Symptoms          []string `json:"symptoms"`
	EmergencyDetected bool     `json:"emergency_detected"`
	TotalSelected     int      `json:"total_selected"`
}

// NewSymptomReport normalizes the raw tokens (lowercase, internal whitespace
// collapsed to underscores) and builds an immutable report.
func NewSymptomReport(symptoms []string, emergency bool) SymptomReport {
	normalized := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if tok := NormalizeSymptom(s); tok != "" {
			normalized = append(normalized, tok)
		}
	}
	return SymptomReport{
		Symptoms:          normalized,
		EmergencyDetected: emergency,
		TotalSelected:     len(normalized),
	}
}

// HasSymptoms reports whether the turn carried an explicit symptom selection.
func (r SymptomReport) HasSymptoms() bool { return len(r.Symptoms) > 0 }

// NormalizeSymptom converts a free-form symptom token to its canonical form:
// lowercase with whitespace runs replaced by single underscores.
func NormalizeSymptom(s string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(fields, "_")
}
