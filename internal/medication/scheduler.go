// Package medication implements medication reminder scheduling: expanding a
// reminder's frequency and duration into concrete dose timestamps and serving
// reminder lifecycle operations over the session store.
package medication

import (
	"time"
)

// Frequency describes one supported dosing frequency. IntervalHours of zero
// means a single dose with no repetition.
type Frequency struct {
	Code          string `json:"value"`
	Label         string `json:"label"`
	TimesPerDay   int    `json:"times_per_day"`
	IntervalHours int    `json:"interval_hours"`
}

// frequencyTable is the fixed set of accepted frequency codes, in declaration
// order. Unknown codes are rejected at reminder creation so every stored
// reminder is guaranteed schedulable.
var frequencyTable = []Frequency{
	{Code: "once", Label: "Once", TimesPerDay: 1, IntervalHours: 0},
	{Code: "daily", Label: "Once daily", TimesPerDay: 1, IntervalHours: 24},
	{Code: "2x_daily", Label: "Twice daily", TimesPerDay: 2, IntervalHours: 12},
	{Code: "3x_daily", Label: "Three times daily", TimesPerDay: 3, IntervalHours: 8},
	{Code: "4x_daily", Label: "Four times daily", TimesPerDay: 4, IntervalHours: 6},
	{Code: "every_6_hours", Label: "Every 6 hours", TimesPerDay: 4, IntervalHours: 6},
	{Code: "every_8_hours", Label: "Every 8 hours", TimesPerDay: 3, IntervalHours: 8},
	{Code: "every_12_hours", Label: "Every 12 hours", TimesPerDay: 2, IntervalHours: 12},
}

// LookupFrequency resolves a frequency code.
func LookupFrequency(code string) (Frequency, bool) {
	for _, f := range frequencyTable {
		if f.Code == code {
			return f, true
		}
	}
	return Frequency{}, false
}

// FrequencyOptions returns all accepted frequencies in table order.
func FrequencyOptions() []Frequency {
	out := make([]Frequency, len(frequencyTable))
	copy(out, frequencyTable)
	return out
}

// Reminder is a stored medication reminder. Reminders are soft-deactivated,
// never deleted, so dose history stays resolvable for audit.
type Reminder struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Medication   string    `json:"medication_name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	DurationDays int       `json:"duration_days"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Notes        string    `json:"notes,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// DoseStatus is the time-derived state of a scheduled dose. There is no
// acknowledgment step: a dose in the past is missed, one in the future is
// pending, recomputed on every schedule query.
type DoseStatus string

const (
	DosePending DoseStatus = "pending"
	DoseMissed  DoseStatus = "missed"
)

// DoseEvent is one scheduled administration time, derived fresh from its
// reminder and never persisted.
type DoseEvent struct {
	DoseNumber    int        `json:"dose_number"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        DoseStatus `json:"status"`
}

// Schedule expands a reminder into its ordered dose events relative to now.
// Generation is double-bounded: it stops at the reminder's end date or at
// durationDays x timesPerDay doses, whichever comes first, so interval
// arithmetic can never overshoot the requested end date.
func Schedule(r Reminder, now time.Time) []DoseEvent {
	freq, ok := LookupFrequency(r.Frequency)
	if !ok {
		return nil
	}

	if freq.IntervalHours == 0 {
		return []DoseEvent{{
			DoseNumber:    1,
			ScheduledTime: r.StartDate,
			Status:        doseStatusAt(r.StartDate, now),
		}}
	}

	maxDoses := r.DurationDays * freq.TimesPerDay
	interval := time.Duration(freq.IntervalHours) * time.Hour

	var events []DoseEvent
	current := r.StartDate
	for dose := 1; dose <= maxDoses && !current.After(r.EndDate); dose++ {
		events = append(events, DoseEvent{
			DoseNumber:    dose,
			ScheduledTime: current,
			Status:        doseStatusAt(current, now),
		})
		current = current.Add(interval)
	}
	return events
}

func doseStatusAt(scheduled, now time.Time) DoseStatus {
	if scheduled.After(now) {
		return DosePending
	}
	return DoseMissed
}
