// Package integration provides integration tests for the triage engine.
package integration

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/analytics"
	"github.com/healthguide/go-triage/internal/triage"
)

// scriptedAssessor plays the language-model collaborator with fixed answers.
type scriptedAssessor struct {
	result triage.Result
	reply  string
}

func (s *scriptedAssessor) Assess(ctx context.Context, history []triage.Message, latest string) (triage.Result, error) {
	return s.result, nil
}

func (s *scriptedAssessor) Respond(ctx context.Context, messages []triage.Message, history []triage.Message) (string, error) {
	return s.reply, nil
}

func TestTurnToCaseEventFlow(t *testing.T) {
	assessor := &scriptedAssessor{
		result: triage.Result{
			Level:   triage.LevelUrgent,
			Summary: "Symptoms consistent with a mosquito-borne illness",
		},
		reply: "Please see a doctor within 24 hours.",
	}
	o := triage.NewOrchestrator(assessor, zap.NewNop())

	report := triage.NewSymptomReport(
		[]string{"high_fever", "severe_headache", "pain_behind_eyes", "joint_pain"}, false)

	out, err := o.ProcessTurn(context.Background(), triage.TurnInput{
		SessionID: "session-flow-001",
		Message:   "selected symptoms",
		Report:    report,
	})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if out.Triage.Level != triage.LevelUrgent {
		t.Fatalf("triage level = %s, want URGENT", out.Triage.Level)
	}

	// Build the anonymized case event the way the API does after a turn.
	temp := 39.4
	assessment := triage.ClassifyTemperature(&temp, "")
	matches := triage.MatchDiseases(report.Symptoms)
	if len(matches) == 0 {
		t.Fatal("expected a disease match for the dengue symptom set")
	}

	evt := analytics.CaseEvent{
		SessionID:       "session-flow-001",
		TriageLevel:     string(out.Triage.Level),
		RedFlag:         out.Triage.RedFlagDetected,
		Symptoms:        report.Symptoms,
		TemperatureC:    &temp,
		TempCategory:    string(assessment.Category),
		SuspectedCause:  matches[0].DiseaseID,
		MatchConfidence: matches[0].MatchScore,
		Region:          "Pune",
		RecordedAt:      time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
	}

	payload, err := evt.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// The consumer side must decode the payload and derive a stable dedup key.
	decoded, err := analytics.UnmarshalCaseEvent(payload)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.SuspectedCause != "dengue" {
		t.Errorf("suspected cause = %q, want dengue", decoded.SuspectedCause)
	}
	if decoded.MatchConfidence != 54.4 {
		t.Errorf("match confidence = %.1f, want 54.4", decoded.MatchConfidence)
	}
	if decoded.TempCategory != "high_fever" {
		t.Errorf("temp category = %q, want high_fever", decoded.TempCategory)
	}
	if decoded.DedupKey() != evt.DedupKey() {
		t.Error("dedup key changed across the wire")
	}

	t.Logf("case event payload: %d bytes", len(payload))
}

func TestEmergencyFlowShortCircuits(t *testing.T) {
	// The collaborator is scripted to return a mild result; the local red
	// flag check must win regardless.
	assessor := &scriptedAssessor{
		result: triage.Result{Level: triage.LevelSelfCare, Summary: "Mild symptoms"},
		reply:  "Rest at home.",
	}
	o := triage.NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), triage.TurnInput{
		SessionID: "session-flow-002",
		Message:   "my father is gasping for air",
		Report:    triage.NewSymptomReport(nil, true),
	})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if out.Triage.Level != triage.LevelEmergency {
		t.Errorf("triage level = %s, want EMERGENCY", out.Triage.Level)
	}
	if !out.ConversationComplete {
		t.Error("emergency turn should end the conversation")
	}
	if out.Outcome != triage.OutcomeEscalated {
		t.Errorf("outcome = %s, want EMERGENCY_ESCALATED", out.Outcome)
	}
	if out.Triage.RedFlagSymptom != "severe difficulty breathing" {
		t.Errorf("red flag symptom = %q", out.Triage.RedFlagSymptom)
	}
}
