package triage

import (
	"fmt"
	"strings"
)

// prompts.go keeps the collaborator-facing prompt text in one place so it can
// be tuned without touching the orchestration logic.

// SystemPrompt instructs the assistant for free-text fever triage turns.
const SystemPrompt = "You are HealthGuide, a compassionate AI assistant for fever triage. " +
	"You help non-expert users decide between emergency care, urgent care and self-care. " +
	"You are not a doctor and never give a definitive diagnosis. " +
	"Ask at most one short follow-up question per turn, use simple words, and always " +
	"err on the side of recommending professional care when in doubt."

// emergencyMarker prefixes the enhanced message variant when the caller
// pre-flagged emergency symptoms.
const emergencyMarker = "EMERGENCY SYMPTOMS DETECTED: "

// directAssessmentContext builds the collaborator prompt for a turn that
// carried an explicit symptom selection. The instructions forbid follow-up
// questions: structured turns get a direct assessment.
func directAssessmentContext(report SymptomReport) string {
	emergency := "No"
	if report.EmergencyDetected {
		emergency = "Yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patient Report:\nSymptoms: %s\n", strings.Join(report.Symptoms, ", "))
	fmt.Fprintf(&b, "Emergency symptoms detected: %s\n", emergency)
	fmt.Fprintf(&b, "Total symptoms: %d\n\n", report.TotalSelected)
	b.WriteString("Instructions:\n")
	b.WriteString("- Provide a clear, empathetic assessment of the patient's condition\n")
	b.WriteString("- Give immediate recommendations (home care, when to see a doctor)\n")
	b.WriteString("- Mention probable causes if identifiable from symptoms\n")
	b.WriteString("- Provide actionable next steps\n")
	b.WriteString("- Be reassuring but thorough\n")
	b.WriteString("- DO NOT ask questions - provide guidance directly based on the symptoms\n\n")
	b.WriteString("Keep the response conversational and helpful.")
	return b.String()
}
