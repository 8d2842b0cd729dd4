package triage

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Assessor is the language-model collaborator contract. Assess returns a
// structured triage assessment for the conversation; Respond generates the
// free-text reply. Both may fail; the orchestrator substitutes deterministic
// fallbacks and never stalls a turn on collaborator errors.
type Assessor interface {
	Assess(ctx context.Context, history []Message, latest string) (Result, error)
	Respond(ctx context.Context, messages []Message, history []Message) (string, error)
}

// turnState names the states of the per-turn state machine. The explicit
// states keep the escalation-cannot-be-downgraded invariant mechanically
// checkable: only transitions out of stateReceived may set a red flag, and no
// later state clears one.
type turnState int

const (
	stateReceived turnState = iota
	stateRedFlagShortCircuit
	stateAssessed
)

// Outcome is the terminal disposition of a turn.
type Outcome string

const (
	// OutcomeEscalated means the turn short-circuited to an emergency.
	OutcomeEscalated Outcome = "EMERGENCY_ESCALATED"
	// OutcomeContinue means the conversation stays open for more input.
	OutcomeContinue Outcome = "CONTINUE"
	// OutcomeComplete means no further question is expected.
	OutcomeComplete Outcome = "COMPLETE"
)

// TurnInput is everything the engine needs for one conversation turn. The
// full prior history arrives explicitly, keeping the engine stateless and
// parallelizable across sessions.
type TurnInput struct {
	SessionID string
	Message   string
	History   []Message
	Report    SymptomReport
}

// TurnOutcome is the engine's complete answer for one turn.
type TurnOutcome struct {
	Reply                string
	Triage               Result
	ConversationComplete bool
	Outcome              Outcome
	// AssessorFallback reports that the collaborator was unavailable and the
	// deterministic rule-based assessment answered the turn.
	AssessorFallback bool
}

// enrichmentThreshold is the minimum top-match confidence before disease
// guidance is merged into the assessment.
const enrichmentThreshold = 30.0

// Orchestrator composes red flag detection, disease matching and the
// assessment collaborator into a TriageResult per turn. It holds no mutable
// state and is safe for concurrent use across sessions.
type Orchestrator struct {
	assessor Assessor
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewOrchestrator creates a turn orchestrator.
func NewOrchestrator(assessor Assessor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		assessor: assessor,
		logger:   logger,
		tracer:   otel.Tracer("triage-orchestrator"),
	}
}

// ProcessTurn runs the full turn pipeline. A turn either completes or fails
// atomically; no partial TriageResult is ever returned.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in TurnInput) (*TurnOutcome, error) {
	ctx, span := o.tracer.Start(ctx, "process_turn",
		trace.WithAttributes(
			attribute.String("session_id", in.SessionID),
			attribute.Bool("emergency_flag", in.Report.EmergencyDetected),
			attribute.Int("symptoms_selected", in.Report.TotalSelected),
		))
	defer span.End()

	// Red flags are evaluated locally first, on the raw message and on the
	// enhanced variant, and cannot be overridden by anything that follows.
	if symptom, ok := o.detectTurnRedFlag(in); ok {
		span.SetAttributes(
			attribute.Int("turn_state", int(stateRedFlagShortCircuit)),
			attribute.String("red_flag", symptom),
		)
		o.logger.Warn("red flag detected",
			zap.String("session_id", in.SessionID),
			zap.String("symptom", symptom))
		return o.escalate(symptom), nil
	}
	span.SetAttributes(attribute.Int("turn_state", int(stateAssessed)))

	assessment, err := o.assessor.Assess(ctx, in.History, in.Message)
	fellBack := err != nil
	if err != nil {
		o.logger.Warn("assessment collaborator unavailable, using rule-based fallback",
			zap.String("session_id", in.SessionID),
			zap.Error(err))
		span.RecordError(err)
		assessment = fallbackAssessment(in.Report)
	}

	o.enrichWithDiseaseMatch(&assessment, in)

	// The collaborator itself may signal a red flag; short-circuit with its
	// attribution instead of generating a fresh reply.
	if assessment.RedFlagDetected {
		symptom := assessment.RedFlagSymptom
		if symptom == "" {
			symptom = "red flag symptom"
		}
		out := o.escalate(symptom)
		out.Triage.Summary = assessment.Summary
		if out.Triage.Summary == "" {
			out.Triage.Summary = fmt.Sprintf("Red flag symptom detected: %s", symptom)
		}
		out.AssessorFallback = fellBack
		return out, nil
	}

	var out *TurnOutcome
	if in.Report.HasSymptoms() {
		out = o.directAssessmentTurn(ctx, in, assessment)
	} else {
		out = o.conversationalTurn(ctx, in, assessment)
	}
	out.AssessorFallback = fellBack
	return out, nil
}

// detectTurnRedFlag checks both the raw message and the emergency-prefixed
// variant. An emergency flag with no phrase match still escalates with the
// generic attribution: absence of a specific match is not absence of an
// emergency.
func (o *Orchestrator) detectTurnRedFlag(in TurnInput) (string, bool) {
	emergency := in.Report.EmergencyDetected

	if symptom, ok := DetectRedFlag(in.Message, emergency); ok {
		return symptom, true
	}
	if emergency {
		enhanced := emergencyMarker + in.Message
		if symptom, ok := DetectRedFlag(enhanced, true); ok {
			return symptom, true
		}
		return GenericRedFlag, true
	}
	return "", false
}

// escalate builds the canonical emergency outcome for a red flag symptom.
func (o *Orchestrator) escalate(symptom string) *TurnOutcome {
	return &TurnOutcome{
		Reply: RedFlagResponse(symptom),
		Triage: Result{
			Level:                LevelEmergency,
			Escalate:             true,
			Summary:              fmt.Sprintf("Red flag symptom detected: %s", symptom),
			RecommendedNextSteps: EmergencyNextSteps(),
			RedFlagDetected:      true,
			RedFlagSymptom:       symptom,
		},
		ConversationComplete: true,
		Outcome:              OutcomeEscalated,
	}
}

// enrichWithDiseaseMatch merges local disease matching into the assessment
// when the top match clears the confidence threshold. Enrichment only adds
// guidance; it never changes the triage level.
func (o *Orchestrator) enrichWithDiseaseMatch(assessment *Result, in TurnInput) {
	tokens := in.Report.Symptoms
	if len(tokens) == 0 {
		tokens = symptomTokensFromText(in.Message)
	}
	matches := MatchDiseases(tokens)
	if len(matches) == 0 || matches[0].MatchScore <= enrichmentThreshold {
		return
	}

	top := matches[0]
	assessment.RecommendedNextSteps = append(
		append([]string{}, top.HomeCare...),
		assessment.RecommendedNextSteps...,
	)
	assessment.Summary = fmt.Sprintf("%s (Possible %s - %.1f%% confidence)",
		assessment.Summary, strings.ToUpper(top.DiseaseID), top.MatchScore)
}

// directAssessmentTurn handles a turn with an explicit symptom selection: the
// collaborator produces guidance directly and no clarifying question is
// pressed, but the conversation stays open for replies.
func (o *Orchestrator) directAssessmentTurn(ctx context.Context, in TurnInput, assessment Result) *TurnOutcome {
	prompt := directAssessmentContext(in.Report)
	messages := []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	}

	reply, err := o.assessor.Respond(ctx, messages, messages)
	if err != nil || reply == "" {
		o.logger.Warn("response collaborator unavailable, using assessment text",
			zap.String("session_id", in.SessionID), zap.Error(err))
		reply = assessment.Summary
	}

	if assessment.Summary != "" {
		reply = fmt.Sprintf("%s\n\nAssessment: %s", reply, assessment.Summary)
	}
	if len(assessment.RecommendedNextSteps) > 0 {
		reply += "\n\nRecommended Next Steps:\n"
		for i, step := range assessment.RecommendedNextSteps {
			if i == 3 {
				break
			}
			reply += fmt.Sprintf("%d. %s\n", i+1, step)
		}
	}

	// Structured turns never carry a follow-up question.
	assessment.NextQuestion = ""

	return &TurnOutcome{
		Reply:                reply,
		Triage:               assessment,
		ConversationComplete: false,
		Outcome:              OutcomeContinue,
	}
}

// conversationalTurn handles a free-text turn: the collaborator replies in
// context and the assessment's follow-up question, if any, keeps the
// conversation open.
func (o *Orchestrator) conversationalTurn(ctx context.Context, in TurnInput, assessment Result) *TurnOutcome {
	messages := make([]Message, 0, len(in.History)+2)
	messages = append(messages, Message{Role: "system", Content: SystemPrompt})
	messages = append(messages, in.History...)
	messages = append(messages, Message{Role: "user", Content: in.Message})

	reply, err := o.assessor.Respond(ctx, messages, in.History)
	if err != nil || reply == "" {
		o.logger.Warn("response collaborator unavailable, using assessment text",
			zap.String("session_id", in.SessionID), zap.Error(err))
		reply = fallbackReply(assessment)
	}

	if assessment.NextQuestion != "" {
		reply = reply + "\n\n" + assessment.NextQuestion
		return &TurnOutcome{
			Reply:                reply,
			Triage:               assessment,
			ConversationComplete: false,
			Outcome:              OutcomeContinue,
		}
	}

	return &TurnOutcome{
		Reply:                reply,
		Triage:               assessment,
		ConversationComplete: true,
		Outcome:              OutcomeComplete,
	}
}

// fallbackAssessment derives a conservative rule-based result from locally
// available signals when the collaborator is unreachable.
func fallbackAssessment(report SymptomReport) Result {
	if report.EmergencyDetected {
		return Result{
			Level:                LevelEmergency,
			Escalate:             true,
			Summary:              "Emergency symptoms reported; assessment service unavailable",
			RecommendedNextSteps: EmergencyNextSteps(),
		}
	}
	return Result{
		Level:    LevelFollowUp,
		Escalate: false,
		Summary:  "Fever-related symptoms discussed",
		RecommendedNextSteps: []string{
			"Monitor your symptoms",
			"Stay hydrated",
			"Get plenty of rest",
			"Consult a healthcare provider if symptoms persist",
		},
		NextQuestion: "How long have you had these symptoms?",
	}
}

// fallbackReply renders a deterministic reply from a structured assessment.
func fallbackReply(assessment Result) string {
	var b strings.Builder
	b.WriteString("Thank you for sharing that. ")
	if assessment.Summary != "" {
		b.WriteString(assessment.Summary)
	}
	if len(assessment.RecommendedNextSteps) > 0 {
		b.WriteString("\n\nI recommend:\n")
		for _, step := range assessment.RecommendedNextSteps {
			b.WriteString("- ")
			b.WriteString(step)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// symptomTokensFromText scans free text for catalog symptoms, matching each
// canonical token against the text with underscores read as spaces.
func symptomTokensFromText(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var tokens []string
	for _, profile := range diseaseCatalog {
		for _, symptom := range profile.Symptoms {
			if seen[symptom] {
				continue
			}
			phrase := strings.ReplaceAll(symptom, "_", " ")
			if strings.Contains(lower, phrase) || strings.Contains(lower, symptom) {
				seen[symptom] = true
				tokens = append(tokens, symptom)
			}
		}
	}
	return tokens
}
