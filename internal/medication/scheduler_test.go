package medication

import (
	"testing"
	"time"
)

func baseReminder(frequency string, durationDays int, start time.Time) Reminder {
	return Reminder{
		ID:           "r1",
		SessionID:    "s1",
		Medication:   "Paracetamol",
		Dosage:       "500mg",
		Frequency:    frequency,
		DurationDays: durationDays,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, durationDays),
		Active:       true,
	}
}

func TestScheduleEvery6Hours(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := baseReminder("every_6_hours", 2, start)

	events := Schedule(r, start.Add(-time.Hour))
	if len(events) != 8 {
		t.Fatalf("got %d doses, want 8", len(events))
	}
	for i, e := range events {
		if e.DoseNumber != i+1 {
			t.Errorf("events[%d].DoseNumber = %d, want %d", i, e.DoseNumber, i+1)
		}
		want := start.Add(time.Duration(i) * 6 * time.Hour)
		if !e.ScheduledTime.Equal(want) {
			t.Errorf("events[%d] at %v, want %v", i, e.ScheduledTime, want)
		}
		if e.Status != DosePending {
			t.Errorf("events[%d].Status = %s, want pending", i, e.Status)
		}
	}
}

func TestScheduleStopsAtEndDate(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := baseReminder("daily", 3, start)
	// A shortened end date bounds generation below durationDays doses.
	r.EndDate = start.AddDate(0, 0, 1)

	events := Schedule(r, start)
	if len(events) != 2 {
		t.Fatalf("got %d doses, want 2 inside the shortened window", len(events))
	}
}

func TestScheduleSingleDose(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := baseReminder("once", 1, start)

	events := Schedule(r, start.Add(time.Hour))
	if len(events) != 1 {
		t.Fatalf("got %d doses, want 1", len(events))
	}
	if events[0].Status != DoseMissed {
		t.Errorf("past dose status = %s, want missed", events[0].Status)
	}
}

func TestScheduleStatusDerivedFromNow(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := baseReminder("every_12_hours", 1, start)

	now := start.Add(3 * time.Hour)
	events := Schedule(r, now)
	if len(events) != 2 {
		t.Fatalf("got %d doses, want 2", len(events))
	}
	if events[0].Status != DoseMissed {
		t.Errorf("dose 1 status = %s, want missed", events[0].Status)
	}
	if events[1].Status != DosePending {
		t.Errorf("dose 2 status = %s, want pending", events[1].Status)
	}
}

func TestScheduleUnknownFrequency(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r := baseReminder("hourly", 1, start)

	if events := Schedule(r, start); events != nil {
		t.Errorf("got %d doses for unknown frequency, want none", len(events))
	}
}

func TestLookupFrequency(t *testing.T) {
	tests := []struct {
		code        string
		timesPerDay int
		interval    int
	}{
		{"once", 1, 0},
		{"daily", 1, 24},
		{"2x_daily", 2, 12},
		{"3x_daily", 3, 8},
		{"4x_daily", 4, 6},
		{"every_6_hours", 4, 6},
		{"every_8_hours", 3, 8},
		{"every_12_hours", 2, 12},
	}

	for _, tt := range tests {
		f, ok := LookupFrequency(tt.code)
		if !ok {
			t.Errorf("LookupFrequency(%q): not found", tt.code)
			continue
		}
		if f.TimesPerDay != tt.timesPerDay || f.IntervalHours != tt.interval {
			t.Errorf("LookupFrequency(%q) = %d/day every %dh, want %d/day every %dh",
				tt.code, f.TimesPerDay, f.IntervalHours, tt.timesPerDay, tt.interval)
		}
	}

	if _, ok := LookupFrequency("weekly"); ok {
		t.Error("unexpected match for unsupported code")
	}
}

func TestFrequencyOptionsCopy(t *testing.T) {
	opts := FrequencyOptions()
	if len(opts) != 8 {
		t.Fatalf("got %d options, want 8", len(opts))
	}
	opts[0].Code = "mutated"
	if again := FrequencyOptions(); again[0].Code != "once" {
		t.Error("FrequencyOptions exposes internal table")
	}
}
