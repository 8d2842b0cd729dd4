// Package postgres provides PostgreSQL persistence for conversations,
// temperature logs, medication reminders and fever trend rows, plus the
// transactional outbox used to publish anonymized case events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/medication"
	"github.com/healthguide/go-triage/internal/triage"
)

// ErrSessionNotFound indicates no conversation exists for the session id.
var ErrSessionNotFound = errors.New("session not found")

// Conversation is the stored record of a triage session.
type Conversation struct {
	SessionID   string
	Messages    []triage.Message
	TriageLevel string
	Summary     string
	RedFlag     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemperatureLog is one stored temperature reading.
type TemperatureLog struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Temperature float64   `json:"temperature"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Store wraps a pgx pool with the engine's persistence operations.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a store.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Pool exposes the underlying pool for readiness probes and analytics queries.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// SaveConversation upserts the conversation record for a session. When a
// non-nil outbox entry is supplied it is written in the same transaction, so
// the case event and the conversation commit or roll back together.
func (s *Store) SaveConversation(ctx context.Context, conv Conversation, entry *OutboxEntry) error {
	payload, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (session_id, messages, triage_level, summary, red_flag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (session_id) DO UPDATE
		SET messages = EXCLUDED.messages,
		    triage_level = EXCLUDED.triage_level,
		    summary = EXCLUDED.summary,
		    red_flag = EXCLUDED.red_flag,
		    updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query,
		conv.SessionID, payload, conv.TriageLevel, conv.Summary, conv.RedFlag); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	if entry != nil {
		if err := WriteEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadConversation retrieves a session's conversation. Absence yields
// ErrSessionNotFound; callers treating absence as a legitimate empty state
// check for it explicitly.
func (s *Store) LoadConversation(ctx context.Context, sessionID string) (*Conversation, error) {
	query := `
		SELECT session_id, messages, COALESCE(triage_level, ''), COALESCE(summary, ''),
		       COALESCE(red_flag, ''), created_at, updated_at
		FROM conversations
		WHERE session_id = $1
	`

	var conv Conversation
	var payload []byte
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&conv.SessionID, &payload, &conv.TriageLevel, &conv.Summary,
		&conv.RedFlag, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &conv.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	return &conv, nil
}

// SaveTemperature stores a temperature reading for a session.
func (s *Store) SaveTemperature(ctx context.Context, log TemperatureLog) (TemperatureLog, error) {
	query := `
		INSERT INTO temperature_logs (session_id, temperature, unit, category, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, recorded_at
	`
	err := s.pool.QueryRow(ctx, query,
		log.SessionID, log.Temperature, log.Unit, log.Category, log.Notes,
	).Scan(&log.ID, &log.RecordedAt)
	if err != nil {
		return TemperatureLog{}, fmt.Errorf("save temperature: %w", err)
	}
	return log, nil
}

// TemperatureHistory returns a session's readings, newest first. No history
// is an empty slice, not an error.
func (s *Store) TemperatureHistory(ctx context.Context, sessionID string, limit int) ([]TemperatureLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, temperature, unit, COALESCE(category, ''), COALESCE(notes, ''), recorded_at
		FROM temperature_logs
		WHERE session_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("temperature history: %w", err)
	}
	defer rows.Close()

	logs := []TemperatureLog{}
	for rows.Next() {
		var l TemperatureLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Temperature, &l.Unit,
			&l.Category, &l.Notes, &l.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan temperature log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SaveReminder stores a medication reminder.
func (s *Store) SaveReminder(ctx context.Context, r medication.Reminder) error {
	query := `
		INSERT INTO medication_reminders
		(id, session_id, medication_name, dosage, frequency, duration_days,
		 start_date, end_date, notes, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.pool.Exec(ctx, query,
		r.ID, r.SessionID, r.Medication, r.Dosage, r.Frequency, r.DurationDays,
		r.StartDate, r.EndDate, r.Notes, r.Active, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// GetReminder resolves a reminder regardless of its active flag.
func (s *Store) GetReminder(ctx context.Context, id string) (medication.Reminder, error) {
	query := `
		SELECT id, session_id, medication_name, dosage, frequency, duration_days,
		       start_date, end_date, COALESCE(notes, ''), active, created_at
		FROM medication_reminders
		WHERE id = $1
	`

	var r medication.Reminder
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.SessionID, &r.Medication, &r.Dosage, &r.Frequency, &r.DurationDays,
		&r.StartDate, &r.EndDate, &r.Notes, &r.Active, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return medication.Reminder{}, medication.ErrReminderNotFound
		}
		return medication.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns a session's reminders, newest first.
func (s *Store) ListReminders(ctx context.Context, sessionID string, activeOnly bool) ([]medication.Reminder, error) {
	query := `
		SELECT id, session_id, medication_name, dosage, frequency, duration_days,
		       start_date, end_date, COALESCE(notes, ''), active, created_at
		FROM medication_reminders
		WHERE session_id = $1 AND ($2 = false OR active = true)
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, sessionID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []medication.Reminder{}
	for rows.Next() {
		var r medication.Reminder
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Medication, &r.Dosage,
			&r.Frequency, &r.DurationDays, &r.StartDate, &r.EndDate,
			&r.Notes, &r.Active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeactivateReminder flips a reminder's active flag. Rows are never deleted,
// preserving dose history for audit.
func (s *Store) DeactivateReminder(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE medication_reminders SET active = false WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate reminder: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
