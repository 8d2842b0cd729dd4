package triage

import (
	"math"
	"sort"
)

// DiseaseProfile is a static catalog entry describing a fever-causing
// disease: its canonical symptom set and the guidance attached to a match.
// Profiles are defined at startup and never mutated.
type DiseaseProfile struct {
	ID              string   `json:"disease_id"`
	Name            string   `json:"disease"`
	Symptoms        []string `json:"symptoms"`
	DurationPattern string   `json:"duration_pattern,omitempty"`
	Severity        string   `json:"severity"`
	RedFlags        []string `json:"red_flags,omitempty"`
	HomeCare        []string `json:"home_care"`
	WhenToSeeDoctor []string `json:"when_to_see_doctor,omitempty"`
	DiagnosticTests []string `json:"diagnostic_tests,omitempty"`
}

// DiseaseMatch is the ephemeral result of scoring one profile against a
// symptom report. MatchScore is a percentage with one decimal place.
type DiseaseMatch struct {
	Disease          string   `json:"disease"`
	DiseaseID        string   `json:"disease_id"`
	MatchScore       float64  `json:"match_score"`
	MatchingSymptoms []string `json:"matching_symptoms"`
	Severity         string   `json:"severity"`
	HomeCare         []string `json:"home_care"`
	WhenToSeeDoctor  []string `json:"when_to_see_doctor"`
	DiagnosticTests  []string `json:"diagnostic_tests"`
	RedFlags         []string `json:"red_flags"`
}

const (
	// matchThreshold discards profiles scoring at or below 20% after boosting.
	matchThreshold = 0.2
	// priorityBoost is added to high-priority profiles scoring above
	// priorityBoostFloor. The threshold/boost pair is preserved from field
	// calibration; do not retune without clinical review.
	priorityBoost      = 0.1
	priorityBoostFloor = 0.3
	// maxMatches caps how many probable causes are ever surfaced.
	maxMatches = 3
)

// highPriorityDiseases carry disproportionate harm if missed, so borderline
// matches are surfaced more readily.
var highPriorityDiseases = map[string]bool{
	"dengue":  true,
	"typhoid": true,
	"malaria": true,
}

// diseaseCatalog is the full static profile table, in catalog order. Order
// matters: equal scores tie-break by declaration order.
var diseaseCatalog = []DiseaseProfile{
	{
		ID:   "viral_fever",
		Name: "Viral Fever",
		Symptoms: []string{
			"fever", "body_ache", "fatigue", "headache",
			"runny_nose", "sore_throat", "cough",
		},
		DurationPattern: "3-7 days",
		Severity:        "mild_to_moderate",
		HomeCare: []string{
			"Rest adequately",
			"Drink plenty of fluids",
			"Take paracetamol for fever (if no contraindications)",
			"Monitor temperature regularly",
		},
		WhenToSeeDoctor: []string{
			"Fever persists beyond 3-4 days",
			"Symptoms worsen",
			"Difficulty breathing",
		},
	},
	{
		ID:   "dengue",
		Name: "Dengue Fever",
		Symptoms: []string{
			"high_fever", "severe_headache", "pain_behind_eyes",
			"joint_pain", "muscle_pain", "rash", "nausea",
			"bleeding_gums", "easy_bruising",
		},
		DurationPattern: "2-7 days high fever",
		Severity:        "moderate_to_severe",
		RedFlags: []string{
			"severe_abdominal_pain", "persistent_vomiting",
			"bleeding", "difficulty_breathing", "cold_clammy_skin",
		},
		HomeCare: []string{
			"MUST see doctor for diagnosis",
			"Drink plenty of fluids (ORS, coconut water)",
			"Complete bed rest",
			"Monitor platelet count regularly",
			"Avoid aspirin and ibuprofen (bleeding risk)",
		},
		WhenToSeeDoctor: []string{
			"Immediately - dengue requires medical monitoring",
		},
		DiagnosticTests: []string{"Complete Blood Count", "NS1 Antigen", "Dengue IgM/IgG"},
	},
	{
		ID:   "typhoid",
		Name: "Typhoid Fever",
		Symptoms: []string{
			"sustained_high_fever", "weakness", "stomach_pain",
			"headache", "loss_of_appetite", "constipation_or_diarrhea",
			"rose_spots_rash",
		},
		DurationPattern: "Fever increases gradually over days",
		Severity:        "moderate_to_severe",
		RedFlags: []string{
			"severe_abdominal_pain", "confusion", "intestinal_bleeding",
		},
		HomeCare: []string{
			"REQUIRES antibiotic treatment",
			"See doctor immediately",
			"Drink clean, boiled water only",
			"Easily digestible food",
		},
		WhenToSeeDoctor: []string{
			"Immediately - typhoid needs antibiotics",
		},
		DiagnosticTests: []string{"Widal Test", "Blood Culture", "Typhi-dot"},
	},
	{
		ID:   "malaria",
		Name: "Malaria",
		Symptoms: []string{
			"cyclical_fever", "chills", "sweating", "headache",
			"nausea", "vomiting", "muscle_pain", "fatigue",
		},
		DurationPattern: "Fever spikes every 48-72 hours",
		Severity:        "moderate_to_severe",
		RedFlags: []string{
			"confusion", "seizures", "difficulty_breathing",
			"severe_anemia", "dark_urine",
		},
		HomeCare: []string{
			"REQUIRES antimalarial medication",
			"See doctor immediately",
			"Prevent mosquito bites",
		},
		WhenToSeeDoctor: []string{
			"Immediately - malaria needs specific treatment",
		},
		DiagnosticTests: []string{"Blood Smear", "Rapid Diagnostic Test (RDT)"},
	},
	{
		ID:   "influenza",
		Name: "Flu (Influenza)",
		Symptoms: []string{
			"sudden_high_fever", "dry_cough", "body_ache",
			"fatigue", "headache", "sore_throat", "chills",
		},
		DurationPattern: "3-7 days",
		Severity:        "moderate",
		HomeCare: []string{
			"Rest and isolate",
			"Fluids",
			"Antiviral medication if prescribed within 48 hours",
			"Paracetamol for fever",
		},
		WhenToSeeDoctor: []string{
			"High-risk groups (elderly, pregnant, chronic illness)",
			"Symptoms worsen after 3 days",
		},
	},
	{
		ID:   "covid19",
		Name: "COVID-19",
		Symptoms: []string{
			"fever", "dry_cough", "fatigue", "loss_of_taste_smell",
			"body_ache", "sore_throat", "difficulty_breathing",
		},
		DurationPattern: "Varies (5-14 days)",
		Severity:        "mild_to_critical",
		RedFlags: []string{
			"difficulty_breathing", "chest_pain", "confusion",
			"bluish_lips", "oxygen_saturation_below_94",
		},
		HomeCare: []string{
			"Isolate immediately",
			"Get tested (RT-PCR/RAT)",
			"Monitor oxygen levels",
			"Rest and fluids",
			"Consult doctor if breathing difficulty",
		},
		WhenToSeeDoctor: []string{
			"Breathing difficulty",
			"Oxygen < 94%",
			"High-risk individuals",
		},
	},
	{
		ID:   "urinary_tract_infection",
		Name: "Urinary Tract Infection (UTI)",
		Symptoms: []string{
			"fever", "burning_urination", "frequent_urination",
			"lower_abdominal_pain", "cloudy_urine", "back_pain",
		},
		Severity: "moderate",
		HomeCare: []string{
			"Drink plenty of water",
			"Requires antibiotic treatment",
			"See doctor for proper diagnosis",
		},
		DiagnosticTests: []string{"Urine Culture", "Urinalysis"},
	},
}

// Catalog returns the static disease profile table.
func Catalog() []DiseaseProfile { return diseaseCatalog }

// CatalogProfile looks up a profile by id.
func CatalogProfile(diseaseID string) (DiseaseProfile, bool) {
	for _, p := range diseaseCatalog {
		if p.ID == diseaseID {
			return p, true
		}
	}
	return DiseaseProfile{}, false
}

// MatchDiseases scores the catalog against the reported symptoms and returns
// the probable causes ranked by descending match score, at most three, each
// carrying the intersecting symptom subset and the profile's guidance.
func MatchDiseases(symptoms []string) []DiseaseMatch {
	reported := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		if tok := NormalizeSymptom(s); tok != "" {
			reported[tok] = true
		}
	}

	var matches []DiseaseMatch
	for _, profile := range diseaseCatalog {
		if len(profile.Symptoms) == 0 {
			continue
		}

		var intersecting []string
		for _, ps := range profile.Symptoms {
			if reported[ps] {
				intersecting = append(intersecting, ps)
			}
		}

		score := float64(len(intersecting)) / float64(len(profile.Symptoms))
		if highPriorityDiseases[profile.ID] && score > priorityBoostFloor {
			score += priorityBoost
		}
		if score <= matchThreshold {
			continue
		}

		matches = append(matches, DiseaseMatch{
			Disease:          profile.Name,
			DiseaseID:        profile.ID,
			MatchScore:       math.Round(score*1000) / 10,
			MatchingSymptoms: intersecting,
			Severity:         profile.Severity,
			HomeCare:         profile.HomeCare,
			WhenToSeeDoctor:  profile.WhenToSeeDoctor,
			DiagnosticTests:  profile.DiagnosticTests,
			RedFlags:         profile.RedFlags,
		})
	}

	// Stable sort keeps catalog order for equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// MedicationSuggestion bundles generic over-the-counter guidance for a
// probable disease. Prescription-only drugs are never suggested.
type MedicationSuggestion struct {
	General    map[string]interface{} `json:"general"`
	Specific   map[string]interface{} `json:"specific"`
	Disclaimer string                 `json:"disclaimer"`
}

// medicationDisclaimer accompanies every suggestion bundle.
const medicationDisclaimer = "This is general guidance. Consult a doctor before taking any medication, " +
	"especially for children, pregnant women, or people with existing conditions."

// diseaseSpecificGuidance holds per-disease contraindications and care notes.
var diseaseSpecificGuidance = map[string]map[string]interface{}{
	"dengue": {
		"avoid":        []string{"Aspirin", "Ibuprofen", "NSAIDs"},
		"reason":       "Increased bleeding risk",
		"special_care": "Monitor platelet count",
	},
	"viral_fever": {
		"safe_otc":          []string{"Paracetamol only"},
		"avoid_antibiotics": true,
	},
}

// MedicationSuggestions returns safe OTC guidance for a disease. An unknown
// diseaseID degrades to an empty specific section rather than an error.
func MedicationSuggestions(diseaseID, ageGroup string, hasAllergies bool) MedicationSuggestion {
	general := map[string]interface{}{
		"fever_reducer": map[string]string{
			"name":         "Paracetamol (Acetaminophen)",
			"dosage_adult": "500-1000mg every 6 hours (max 4000mg/day)",
			"dosage_child": "10-15mg/kg every 6 hours",
			"notes":        "Safe for most people. Avoid if liver disease.",
		},
		"hydration": map[string]string{
			"recommendation": "ORS (Oral Rehydration Solution)",
			"amount":         "Small sips frequently, aim for 2-3 liters/day",
		},
	}

	specific, ok := diseaseSpecificGuidance[diseaseID]
	if !ok {
		specific = map[string]interface{}{}
	}

	return MedicationSuggestion{
		General:    general,
		Specific:   specific,
		Disclaimer: medicationDisclaimer,
	}
}
