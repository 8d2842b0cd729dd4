package analytics

import (
	"strings"
	"testing"
	"time"
)

func TestCaseEventRoundTrip(t *testing.T) {
	temp := 39.2
	evt := CaseEvent{
		SessionID:       "abc-123",
		TriageLevel:     "URGENT",
		RedFlag:         false,
		Symptoms:        []string{"high_fever", "joint_pain"},
		TemperatureC:    &temp,
		TempCategory:    "high_fever",
		SuspectedCause:  "dengue",
		MatchConfidence: 54.4,
		Region:          "Pune",
		RecordedAt:      time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
	}

	data, err := evt.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := UnmarshalCaseEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalCaseEvent: %v", err)
	}
	if got.SessionID != evt.SessionID || got.SuspectedCause != "dengue" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TemperatureC == nil || *got.TemperatureC != 39.2 {
		t.Error("temperature lost in round trip")
	}
}

func TestUnmarshalCaseEventRejectsMissingSession(t *testing.T) {
	_, err := UnmarshalCaseEvent([]byte(`{"triage_level":"URGENT","recorded_at":"2026-03-01T08:30:00Z"}`))
	if err == nil {
		t.Fatal("expected error for missing session_id")
	}
	if !strings.Contains(err.Error(), "missing session_id") {
		t.Errorf("err = %v, want missing session_id", err)
	}

	if _, err := UnmarshalCaseEvent([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestDedupKey(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	a := CaseEvent{SessionID: "s1", RecordedAt: at}
	b := CaseEvent{SessionID: "s1", RecordedAt: at}
	if a.DedupKey() != b.DedupKey() {
		t.Error("identical events must share a dedup key")
	}
	if len(a.DedupKey()) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a.DedupKey()))
	}

	c := CaseEvent{SessionID: "s2", RecordedAt: at}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different sessions must not collide")
	}

	d := CaseEvent{SessionID: "s1", RecordedAt: at.Add(time.Nanosecond)}
	if a.DedupKey() == d.DedupKey() {
		t.Error("different timestamps must not collide")
	}

	// Zone must not affect the key: the timestamp is normalized to UTC.
	e := CaseEvent{SessionID: "s1", RecordedAt: at.In(time.FixedZone("IST", 5*3600+1800))}
	if a.DedupKey() != e.DedupKey() {
		t.Error("zone change altered the dedup key")
	}
}
