package medication

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownFrequency rejects reminder creation for a code outside the
// frequency table.
var ErrUnknownFrequency = errors.New("unknown frequency code")

// ErrReminderNotFound indicates the reminder id does not exist.
var ErrReminderNotFound = errors.New("reminder not found")

// Store is the persistence contract for reminders.
type Store interface {
	SaveReminder(ctx context.Context, r Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	ListReminders(ctx context.Context, sessionID string, activeOnly bool) ([]Reminder, error)
	DeactivateReminder(ctx context.Context, id string) (bool, error)
}

// ReminderView is a reminder with its derived schedule embedded.
type ReminderView struct {
	Reminder
	FrequencyLabel string      `json:"frequency_label"`
	Schedule       []DoseEvent `json:"schedule"`
	NextDose       *DoseEvent  `json:"next_dose,omitempty"`
	TotalDoses     int         `json:"total_doses"`
}

// UpcomingDose is one dose inside the upcoming-doses horizon, annotated with
// its reminder identity.
type UpcomingDose struct {
	ReminderID    string    `json:"reminder_id"`
	Medication    string    `json:"medication_name"`
	Dosage        string    `json:"dosage"`
	DoseNumber    int       `json:"dose_number"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Notes         string    `json:"notes,omitempty"`
}

// Service manages the reminder lifecycle on top of a Store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a reminder service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create validates the frequency code up front and stores a new active
// reminder. The end date is derived as start + duration.
func (s *Service) Create(ctx context.Context, sessionID, medication, dosage, frequency string, durationDays int, notes string) (*ReminderView, error) {
	if _, ok := LookupFrequency(frequency); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, frequency)
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("duration_days must be positive, got %d", durationDays)
	}

	now := s.now()
	r := Reminder{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		Medication:   medication,
		Dosage:       dosage,
		Frequency:    frequency,
		DurationDays: durationDays,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, durationDays),
		Notes:        notes,
		Active:       true,
		CreatedAt:    now,
	}

	if err := s.store.SaveReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("save reminder: %w", err)
	}

	s.logger.Info("medication reminder created",
		zap.String("reminder_id", r.ID),
		zap.String("session_id", sessionID),
		zap.String("frequency", frequency),
		zap.Int("duration_days", durationDays))

	view := s.view(r)
	return &view, nil
}

// Get resolves a reminder by id regardless of its active flag, so
// deactivated reminders stay auditable.
func (s *Service) Get(ctx context.Context, id string) (*ReminderView, error) {
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(r)
	return &view, nil
}

// List returns the session's reminders with embedded schedules.
func (s *Service) List(ctx context.Context, sessionID string, activeOnly bool) ([]ReminderView, error) {
	reminders, err := s.store.ListReminders(ctx, sessionID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	views := make([]ReminderView, 0, len(reminders))
	for _, r := range reminders {
		views = append(views, s.view(r))
	}
	return views, nil
}

// Deactivate soft-deactivates a reminder. It reports false when the id does
// not exist.
func (s *Service) Deactivate(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.DeactivateReminder(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deactivate reminder: %w", err)
	}
	if ok {
		s.logger.Info("medication reminder deactivated", zap.String("reminder_id", id))
	}
	return ok, nil
}

// UpcomingDoses merges the schedules of all active reminders within
// [now, now+horizon], sorted by scheduled time across reminders.
func (s *Service) UpcomingDoses(ctx context.Context, sessionID string, horizonHours int) ([]UpcomingDose, error) {
	reminders, err := s.store.ListReminders(ctx, sessionID, true)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	now := s.now()
	cutoff := now.Add(time.Duration(horizonHours) * time.Hour)

	var upcoming []UpcomingDose
	for _, r := range reminders {
		for _, dose := range Schedule(r, now) {
			if dose.ScheduledTime.Before(now) || dose.ScheduledTime.After(cutoff) {
				continue
			}
			upcoming = append(upcoming, UpcomingDose{
				ReminderID:    r.ID,
				Medication:    r.Medication,
				Dosage:        r.Dosage,
				DoseNumber:    dose.DoseNumber,
				ScheduledTime: dose.ScheduledTime,
				Notes:         r.Notes,
			})
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledTime.Before(upcoming[j].ScheduledTime)
	})
	return upcoming, nil
}

func (s *Service) view(r Reminder) ReminderView {
	freq, _ := LookupFrequency(r.Frequency)
	schedule := Schedule(r, s.now())

	view := ReminderView{
		Reminder:       r,
		FrequencyLabel: freq.Label,
		Schedule:       schedule,
		TotalDoses:     len(schedule),
	}
	for i := range schedule {
		if schedule[i].Status == DosePending {
			view.NextDose = &schedule[i]
			break
		}
	}
	return view
}
