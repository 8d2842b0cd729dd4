package medication

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	reminders map[string]Reminder
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{reminders: make(map[string]Reminder)}
}

func (m *memStore) SaveReminder(ctx context.Context, r Reminder) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.reminders[r.ID] = r
	return nil
}

func (m *memStore) GetReminder(ctx context.Context, id string) (Reminder, error) {
	r, ok := m.reminders[id]
	if !ok {
		return Reminder{}, ErrReminderNotFound
	}
	return r, nil
}

func (m *memStore) ListReminders(ctx context.Context, sessionID string, activeOnly bool) ([]Reminder, error) {
	var out []Reminder
	for _, r := range m.reminders {
		if r.SessionID != sessionID {
			continue
		}
		if activeOnly && !r.Active {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) DeactivateReminder(ctx context.Context, id string) (bool, error) {
	r, ok := m.reminders[id]
	if !ok {
		return false, nil
	}
	r.Active = false
	m.reminders[id] = r
	return true, nil
}

func testService(store Store, now time.Time) *Service {
	s := NewService(store, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestCreateReminder(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore()
	svc := testService(store, now)

	view, err := svc.Create(context.Background(), "s1", "Paracetamol", "500mg", "every_6_hours", 2, "after food")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if view.ID == "" {
		t.Error("missing reminder id")
	}
	if !view.Active {
		t.Error("new reminder should be active")
	}
	if !view.EndDate.Equal(now.AddDate(0, 0, 2)) {
		t.Errorf("end date = %v, want start + 2 days", view.EndDate)
	}
	if view.TotalDoses != 8 {
		t.Errorf("TotalDoses = %d, want 8", view.TotalDoses)
	}
	if view.FrequencyLabel != "Every 6 hours" {
		t.Errorf("FrequencyLabel = %q", view.FrequencyLabel)
	}
	if view.NextDose == nil {
		t.Fatal("missing next dose")
	}
	if _, ok := store.reminders[view.ID]; !ok {
		t.Error("reminder not persisted")
	}
}

func TestCreateReminderValidation(t *testing.T) {
	svc := testService(newMemStore(), time.Now())

	_, err := svc.Create(context.Background(), "s1", "Paracetamol", "500mg", "hourly", 2, "")
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Errorf("unknown frequency error = %v, want ErrUnknownFrequency", err)
	}

	_, err = svc.Create(context.Background(), "s1", "Paracetamol", "500mg", "daily", 0, "")
	if err == nil {
		t.Error("expected error for non-positive duration")
	}
}

func TestGetReminderNotFound(t *testing.T) {
	svc := testService(newMemStore(), time.Now())
	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("err = %v, want ErrReminderNotFound", err)
	}
}

func TestDeactivateReminder(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore()
	svc := testService(store, now)

	view, err := svc.Create(context.Background(), "s1", "Paracetamol", "500mg", "daily", 3, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := svc.Deactivate(context.Background(), view.ID)
	if err != nil || !ok {
		t.Fatalf("Deactivate = (%v, %v), want (true, nil)", ok, err)
	}

	active, err := svc.List(context.Background(), "s1", true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated reminder still listed as active")
	}

	// Deactivated reminders stay resolvable by id.
	got, err := svc.Get(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Get after deactivate: %v", err)
	}
	if got.Active {
		t.Error("reminder still marked active")
	}

	ok, err = svc.Deactivate(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Deactivate missing: %v", err)
	}
	if ok {
		t.Error("Deactivate reported true for unknown id")
	}
}

func TestUpcomingDosesMergedAndSorted(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore()
	svc := testService(store, now)

	ctx := context.Background()
	if _, err := svc.Create(ctx, "s1", "Paracetamol", "500mg", "every_6_hours", 2, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "s1", "ORS", "1 sachet", "every_8_hours", 2, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// An inactive reminder must not contribute doses.
	other, err := svc.Create(ctx, "s1", "Ibuprofen", "200mg", "daily", 2, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Deactivate(ctx, other.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	doses, err := svc.UpcomingDoses(ctx, "s1", 24)
	if err != nil {
		t.Fatalf("UpcomingDoses: %v", err)
	}

	// The window is inclusive at both ends: paracetamol at +0,+6,+12,+18,+24
	// hours and ORS at +0,+8,+16,+24 hours.
	if len(doses) != 9 {
		t.Fatalf("got %d upcoming doses, want 9", len(doses))
	}
	for i := 1; i < len(doses); i++ {
		if doses[i].ScheduledTime.Before(doses[i-1].ScheduledTime) {
			t.Fatalf("doses out of order at %d: %v before %v",
				i, doses[i].ScheduledTime, doses[i-1].ScheduledTime)
		}
	}
	for _, d := range doses {
		if d.Medication == "Ibuprofen" {
			t.Error("inactive reminder contributed a dose")
		}
	}
}
