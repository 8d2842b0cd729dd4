package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// fakeAssessor scripts the collaborator for orchestrator tests.
type fakeAssessor struct {
	assessResult Result
	assessErr    error
	reply        string
	replyErr     error

	assessCalls  int
	respondCalls int
}

func (f *fakeAssessor) Assess(ctx context.Context, history []Message, latest string) (Result, error) {
	f.assessCalls++
	return f.assessResult, f.assessErr
}

func (f *fakeAssessor) Respond(ctx context.Context, messages []Message, history []Message) (string, error) {
	f.respondCalls++
	return f.reply, f.replyErr
}

func TestProcessTurnRedFlagShortCircuit(t *testing.T) {
	assessor := &fakeAssessor{}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s1",
		Message:   "I can't breathe",
		Report:    NewSymptomReport(nil, true),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeEscalated {
		t.Errorf("outcome = %s, want %s", out.Outcome, OutcomeEscalated)
	}
	if !out.ConversationComplete {
		t.Error("escalated turn should complete the conversation")
	}
	if out.Triage.Level != LevelEmergency {
		t.Errorf("level = %s, want %s", out.Triage.Level, LevelEmergency)
	}
	if out.Triage.RedFlagSymptom != "severe difficulty breathing" {
		t.Errorf("red flag symptom = %q", out.Triage.RedFlagSymptom)
	}
	if len(out.Triage.RecommendedNextSteps) != 3 {
		t.Errorf("got %d next steps, want the emergency checklist", len(out.Triage.RecommendedNextSteps))
	}
	if assessor.assessCalls != 0 {
		t.Errorf("collaborator consulted %d times on a short-circuited turn", assessor.assessCalls)
	}
}

func TestProcessTurnGenericRedFlag(t *testing.T) {
	assessor := &fakeAssessor{}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s2",
		Message:   "I feel unwell today",
		Report:    NewSymptomReport(nil, true),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeEscalated {
		t.Fatalf("outcome = %s, want %s", out.Outcome, OutcomeEscalated)
	}
	if out.Triage.RedFlagSymptom != GenericRedFlag {
		t.Errorf("red flag symptom = %q, want generic attribution", out.Triage.RedFlagSymptom)
	}
}

func TestProcessTurnNoEscalationWithoutFlag(t *testing.T) {
	assessor := &fakeAssessor{
		assessResult: Result{Level: LevelSelfCare, Summary: "Mild symptoms"},
		reply:        "Rest and fluids should help.",
	}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s3",
		Message:   "I can't breathe",
		Report:    NewSymptomReport(nil, false),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Triage.RedFlagDetected {
		t.Error("red flag fired without the emergency flag")
	}
	if out.Triage.Level != LevelSelfCare {
		t.Errorf("level = %s, want %s", out.Triage.Level, LevelSelfCare)
	}
	if assessor.assessCalls != 1 {
		t.Errorf("assessCalls = %d, want 1", assessor.assessCalls)
	}
}

func TestProcessTurnCollaboratorRedFlag(t *testing.T) {
	assessor := &fakeAssessor{
		assessResult: Result{
			Level:           LevelEmergency,
			RedFlagDetected: true,
			RedFlagSymptom:  "seizure",
			Summary:         "Seizure reported during conversation",
		},
	}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s4",
		Message:   "he started shaking",
		Report:    NewSymptomReport(nil, false),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeEscalated {
		t.Errorf("outcome = %s, want %s", out.Outcome, OutcomeEscalated)
	}
	if out.Triage.RedFlagSymptom != "seizure" {
		t.Errorf("red flag symptom = %q, want seizure", out.Triage.RedFlagSymptom)
	}
	if out.Triage.Summary != "Seizure reported during conversation" {
		t.Errorf("summary = %q, want collaborator summary preserved", out.Triage.Summary)
	}
}

func TestProcessTurnAssessorFallback(t *testing.T) {
	assessor := &fakeAssessor{
		assessErr: errors.New("upstream timeout"),
		replyErr:  errors.New("upstream timeout"),
	}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s5",
		Message:   "I have had a mild temperature since yesterday",
		Report:    NewSymptomReport(nil, false),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeContinue {
		t.Errorf("outcome = %s, want %s", out.Outcome, OutcomeContinue)
	}
	if out.Triage.Level != LevelFollowUp {
		t.Errorf("level = %s, want %s", out.Triage.Level, LevelFollowUp)
	}
	if !out.AssessorFallback {
		t.Error("AssessorFallback not reported")
	}
	if !strings.Contains(out.Reply, "Thank you for sharing") {
		t.Errorf("reply missing deterministic fallback text:\n%s", out.Reply)
	}
	if !strings.Contains(out.Reply, out.Triage.NextQuestion) {
		t.Errorf("reply missing the follow-up question:\n%s", out.Reply)
	}
}

func TestProcessTurnStructuredSymptoms(t *testing.T) {
	assessor := &fakeAssessor{
		assessResult: Result{
			Level:        LevelUrgent,
			Summary:      "Likely dengue-pattern illness",
			NextQuestion: "Any bleeding?",
		},
		reply: "Based on your symptoms, please see a doctor soon.",
	}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s6",
		Message:   "I selected my symptoms",
		Report:    NewSymptomReport([]string{"high_fever", "severe_headache", "pain_behind_eyes", "joint_pain"}, false),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeContinue {
		t.Errorf("outcome = %s, want %s", out.Outcome, OutcomeContinue)
	}
	if out.ConversationComplete {
		t.Error("structured turn should leave the conversation open")
	}
	if out.Triage.NextQuestion != "" {
		t.Errorf("structured turn carried follow-up question %q", out.Triage.NextQuestion)
	}
	if !strings.Contains(out.Triage.Summary, "(Possible DENGUE - 54.4% confidence)") {
		t.Errorf("summary missing disease enrichment: %q", out.Triage.Summary)
	}
	if len(out.Triage.RecommendedNextSteps) == 0 ||
		out.Triage.RecommendedNextSteps[0] != "MUST see doctor for diagnosis" {
		t.Errorf("home care guidance not merged first: %v", out.Triage.RecommendedNextSteps)
	}
	if !strings.Contains(out.Reply, "Assessment:") {
		t.Errorf("reply missing assessment section:\n%s", out.Reply)
	}
}

func TestProcessTurnConversationComplete(t *testing.T) {
	assessor := &fakeAssessor{
		assessResult: Result{Level: LevelSelfCare, Summary: "Mild viral symptoms"},
		reply:        "Keep resting and stay hydrated.",
	}
	o := NewOrchestrator(assessor, zap.NewNop())

	out, err := o.ProcessTurn(context.Background(), TurnInput{
		SessionID: "s7",
		Message:   "thanks, feeling a bit better",
		Report:    NewSymptomReport(nil, false),
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if out.Outcome != OutcomeComplete {
		t.Errorf("outcome = %s, want %s", out.Outcome, OutcomeComplete)
	}
	if !out.ConversationComplete {
		t.Error("turn without a follow-up question should complete")
	}
}

func TestLevelOrdering(t *testing.T) {
	if !LevelEmergency.AtLeast(LevelUrgent) {
		t.Error("EMERGENCY should outrank URGENT")
	}
	if LevelFollowUp.AtLeast(LevelSelfCare) {
		t.Error("FOLLOW_UP should not outrank SELF_CARE")
	}
	if !LevelUrgent.AtLeast(LevelUrgent) {
		t.Error("a level is at least itself")
	}
}

func TestNewSymptomReportNormalizes(t *testing.T) {
	r := NewSymptomReport([]string{"High Fever", "  joint  pain ", ""}, false)
	if r.TotalSelected != 2 {
		t.Fatalf("TotalSelected = %d, want 2", r.TotalSelected)
	}
	if r.Symptoms[0] != "high_fever" || r.Symptoms[1] != "joint_pain" {
		t.Errorf("normalized symptoms = %v", r.Symptoms)
	}
}
