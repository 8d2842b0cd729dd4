package triage

import "strings"

// redFlagCategory is one emergency symptom category with the phrases that
// attribute it. Categories are matched in declaration order so attribution is
// deterministic when phrases from several categories occur in one message.
type redFlagCategory struct {
	Symptom string
	Phrases []string
}

// redFlagTable lists the symptom categories that require immediate emergency
// care. Matching is confirmation-only: the table is consulted exclusively when
// the caller already flagged an emergency, so mild words like "fever" can
// never escalate a turn on their own.
var redFlagTable = []redFlagCategory{
	{
		Symptom: "severe difficulty breathing",
		Phrases: []string{
			"severe difficulty breathing", "can't breathe", "cannot breathe",
			"trouble breathing", "difficulty breathing", "shortness of breath",
			"struggling to breathe", "hard to breathe", "breathing problems",
			"gasping for air", "unable to breathe",
		},
	},
	{
		Symptom: "chest pain or pressure",
		Phrases: []string{
			"chest pain", "chest pressure", "chest tightness", "chest discomfort",
			"pressure in chest", "pain in chest", "tight chest", "heart pain",
		},
	},
	{
		Symptom: "confusion or inability to stay awake",
		Phrases: []string{
			"confusion", "confused", "can't stay awake", "cannot stay awake",
			"unable to stay awake", "drowsy", "unconscious", "passed out",
			"disoriented", "mental confusion", "losing consciousness",
		},
	},
	{
		Symptom: "bluish lips or face",
		Phrases: []string{
			"blue lips", "bluish lips", "blue face", "bluish face", "cyanosis",
			"lips turning blue", "face turning blue", "blue skin", "purple lips",
		},
	},
	{
		Symptom: "severe dehydration",
		Phrases: []string{
			"no urine", "no urination", "haven't urinated", "no urine for",
			"sunken eyes", "severe dehydration", "severely dehydrated",
			"8 hours", "8+ hours", "no urine for 8", "not urinated for 8 hours",
		},
	},
	{
		Symptom: "seizure",
		Phrases: []string{
			"seizure", "seizures", "convulsion", "convulsions", "fitting",
			"having a seizure", "had a seizure", "seizing",
		},
	},
	{
		Symptom: "severe headache or stiff neck with light sensitivity",
		Phrases: []string{
			"severe headache", "stiff neck with light sensitivity", "light sensitivity",
			"photophobia", "sensitive to light", "neck stiffness", "stiff neck and light",
			"headache with stiff neck",
		},
	},
	{
		Symptom: "rash that does not fade when pressed",
		Phrases: []string{
			"rash that does not fade", "rash doesn't fade", "non-blanching rash",
			"petechiae", "rash that won't fade", "rash that doesn't fade under pressure",
			"rash that doesn't fade when pressed", "non-blanching",
		},
	},
}

// GenericRedFlag names the attribution used when the caller flagged an
// emergency but no specific phrase matched the text.
const GenericRedFlag = "Emergency symptoms selected via symptom selector"

// DetectRedFlag scans text for an emergency symptom category. It returns the
// category name of the first match in table order. A false emergencyFlag or
// empty text always yields no match: the detector only confirms and attributes
// an emergency signalled upstream, never volunteers one.
func DetectRedFlag(text string, emergencyFlag bool) (string, bool) {
	if !emergencyFlag || text == "" {
		return "", false
	}

	lower := strings.ToLower(text)
	for _, cat := range redFlagTable {
		for _, phrase := range cat.Phrases {
			if strings.Contains(lower, phrase) {
				return cat.Symptom, true
			}
		}
	}
	return "", false
}

// RedFlagResponse renders the emergency reply for a detected red flag symptom.
func RedFlagResponse(symptom string) string {
	var b strings.Builder
	b.WriteString("URGENT: I've detected a potential red flag symptom: ")
	b.WriteString(symptom)
	b.WriteString(".\n\n")
	b.WriteString("This may be serious. Please call emergency services or go to the nearest emergency department now.\n\n")
	b.WriteString("I am not a doctor, but I recommend:\n")
	b.WriteString("- Call your local emergency number (e.g., 108, 112, 911)\n")
	b.WriteString("- Go to the nearest emergency room\n")
	b.WriteString("- Do not delay seeking medical attention\n")
	return b.String()
}

// EmergencyNextSteps is the canonical checklist attached to every red flag
// escalation.
func EmergencyNextSteps() []string {
	return []string{
		"Call emergency services immediately",
		"Go to the nearest emergency room",
		"Do not delay seeking medical attention",
	}
}
