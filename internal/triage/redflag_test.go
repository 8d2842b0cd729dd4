package triage

import (
	"strings"
	"testing"
)

func TestDetectRedFlagRequiresEmergencyFlag(t *testing.T) {
	texts := []string{
		"I can't breathe",
		"severe chest pain and confusion",
		"having a seizure right now",
		"my lips are turning blue",
	}

	for _, text := range texts {
		if symptom, ok := DetectRedFlag(text, false); ok {
			t.Errorf("DetectRedFlag(%q, false) = %q, want no match", text, symptom)
		}
	}
}

func TestDetectRedFlagEmptyText(t *testing.T) {
	if symptom, ok := DetectRedFlag("", true); ok {
		t.Errorf("DetectRedFlag(empty, true) = %q, want no match", symptom)
	}
}

func TestDetectRedFlagCategories(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I can't breathe", "severe difficulty breathing"},
		{"gasping for air since this morning", "severe difficulty breathing"},
		{"there is pressure in chest", "chest pain or pressure"},
		{"she seems disoriented and sleepy", "confusion or inability to stay awake"},
		{"his lips are turning blue", "bluish lips or face"},
		{"no urine for 8 hours", "severe dehydration"},
		{"he had a seizure", "seizure"},
		{"severe headache and can't stand light", "severe headache or stiff neck with light sensitivity"},
		{"a non-blanching rash on the legs", "rash that does not fade when pressed"},
	}

	for _, tt := range tests {
		symptom, ok := DetectRedFlag(tt.text, true)
		if !ok {
			t.Errorf("DetectRedFlag(%q, true): no match, want %q", tt.text, tt.want)
			continue
		}
		if symptom != tt.want {
			t.Errorf("DetectRedFlag(%q, true) = %q, want %q", tt.text, symptom, tt.want)
		}
	}
}

func TestDetectRedFlagTableOrder(t *testing.T) {
	// Breathing is declared before chest pain, so a message with both
	// attributes to breathing.
	symptom, ok := DetectRedFlag("chest pain and difficulty breathing", true)
	if !ok {
		t.Fatal("expected a match")
	}
	if symptom != "severe difficulty breathing" {
		t.Errorf("got %q, want first-declared category", symptom)
	}
}

func TestDetectRedFlagCaseInsensitive(t *testing.T) {
	symptom, ok := DetectRedFlag("I CANNOT BREATHE", true)
	if !ok || symptom != "severe difficulty breathing" {
		t.Errorf("got (%q, %v), want case-insensitive match", symptom, ok)
	}
}

func TestRedFlagResponseNamesSymptom(t *testing.T) {
	resp := RedFlagResponse("seizure")
	if want := "red flag symptom: seizure"; !strings.Contains(resp, want) {
		t.Errorf("response missing %q:\n%s", want, resp)
	}
	if !strings.Contains(resp, "emergency") {
		t.Errorf("response missing emergency instruction:\n%s", resp)
	}
}

func TestEmergencyNextStepsStable(t *testing.T) {
	steps := EmergencyNextSteps()
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}
	if steps[0] != "Call emergency services immediately" {
		t.Errorf("unexpected first step: %q", steps[0])
	}
}
