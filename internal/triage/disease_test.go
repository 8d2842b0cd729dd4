package triage

import "testing"

func TestMatchDiseasesFullProfile(t *testing.T) {
	symptoms := []string{
		"fever", "body_ache", "fatigue", "headache",
		"runny_nose", "sore_throat", "cough",
	}

	matches := MatchDiseases(symptoms)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	top := matches[0]
	if top.DiseaseID != "viral_fever" {
		t.Errorf("top match = %s, want viral_fever", top.DiseaseID)
	}
	if top.MatchScore != 100.0 {
		t.Errorf("viral_fever score = %.1f, want 100.0", top.MatchScore)
	}
	if len(top.MatchingSymptoms) != 7 {
		t.Errorf("got %d matching symptoms, want 7", len(top.MatchingSymptoms))
	}
}

func TestMatchDiseasesPriorityBoost(t *testing.T) {
	// 4 of dengue's 9 symptoms is a raw 44.4%, above the boost floor, so
	// dengue's high-priority status adds 10 points.
	symptoms := []string{"high_fever", "severe_headache", "pain_behind_eyes", "joint_pain"}

	matches := MatchDiseases(symptoms)
	if len(matches) == 0 {
		t.Fatal("expected a dengue match")
	}
	if matches[0].DiseaseID != "dengue" {
		t.Fatalf("top match = %s, want dengue", matches[0].DiseaseID)
	}
	if matches[0].MatchScore != 54.4 {
		t.Errorf("dengue score = %.1f, want 54.4", matches[0].MatchScore)
	}
}

func TestMatchDiseasesNoBoostBelowFloor(t *testing.T) {
	// 2 of 9 dengue symptoms is a raw 22.2%, at or below the boost floor, so
	// the score is kept unboosted.
	symptoms := []string{"high_fever", "rash"}

	matches := MatchDiseases(symptoms)
	var dengue *DiseaseMatch
	for i := range matches {
		if matches[i].DiseaseID == "dengue" {
			dengue = &matches[i]
		}
	}
	if dengue == nil {
		t.Fatal("expected dengue among matches")
	}
	if dengue.MatchScore != 22.2 {
		t.Errorf("dengue score = %.1f, want unboosted 22.2", dengue.MatchScore)
	}
}

func TestMatchDiseasesDiscardsWeakMatches(t *testing.T) {
	matches := MatchDiseases([]string{"rash"})
	for _, m := range matches {
		if m.DiseaseID == "dengue" {
			t.Errorf("dengue surfaced at 1/9 symptoms, score %.1f", m.MatchScore)
		}
	}
}

func TestMatchDiseasesNoSymptoms(t *testing.T) {
	if matches := MatchDiseases(nil); len(matches) != 0 {
		t.Errorf("got %d matches for empty report, want 0", len(matches))
	}
	if matches := MatchDiseases([]string{"purple_toes"}); len(matches) != 0 {
		t.Errorf("got %d matches for unrecognized symptom, want 0", len(matches))
	}
}

func TestMatchDiseasesCapAndTieBreak(t *testing.T) {
	// fever+headache+fatigue+body_ache scores four profiles above threshold;
	// only three survive the cap, and the influenza/covid19 tie resolves in
	// catalog order.
	symptoms := []string{"fever", "headache", "fatigue", "body_ache"}

	matches := MatchDiseases(symptoms)
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	wantOrder := []string{"viral_fever", "influenza", "covid19"}
	for i, want := range wantOrder {
		if matches[i].DiseaseID != want {
			t.Errorf("matches[%d] = %s, want %s", i, matches[i].DiseaseID, want)
		}
	}
	if matches[1].MatchScore != matches[2].MatchScore {
		t.Errorf("expected tie: %.1f vs %.1f", matches[1].MatchScore, matches[2].MatchScore)
	}
}

func TestMatchDiseasesNormalizesInput(t *testing.T) {
	matches := MatchDiseases([]string{"High Fever", "  SEVERE HEADACHE ", "pain behind eyes", "joint pain"})
	if len(matches) == 0 || matches[0].DiseaseID != "dengue" {
		t.Fatal("expected dengue from free-form symptom spellings")
	}
	if matches[0].MatchScore != 54.4 {
		t.Errorf("score = %.1f, want 54.4", matches[0].MatchScore)
	}
}

func TestCatalogProfile(t *testing.T) {
	p, ok := CatalogProfile("typhoid")
	if !ok {
		t.Fatal("typhoid missing from catalog")
	}
	if p.Name != "Typhoid Fever" {
		t.Errorf("name = %q", p.Name)
	}
	if _, ok := CatalogProfile("common_cold"); ok {
		t.Error("unexpected profile for unknown id")
	}
}

func TestMedicationSuggestions(t *testing.T) {
	s := MedicationSuggestions("dengue", "adult", false)
	avoid, ok := s.Specific["avoid"].([]string)
	if !ok || len(avoid) == 0 {
		t.Fatal("dengue suggestion missing avoid list")
	}
	if avoid[0] != "Aspirin" {
		t.Errorf("avoid[0] = %q, want Aspirin", avoid[0])
	}
	if s.Disclaimer == "" {
		t.Error("missing disclaimer")
	}

	unknown := MedicationSuggestions("common_cold", "adult", false)
	if len(unknown.Specific) != 0 {
		t.Errorf("unknown disease specific section = %v, want empty", unknown.Specific)
	}
	if unknown.General["fever_reducer"] == nil {
		t.Error("general guidance missing fever_reducer")
	}
}
