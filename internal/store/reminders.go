package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rghsoftware/mealsync/internal/models"
)

const reminderColumns = `id, name, scheduled_time, pre_alert_minutes, enabled, days_of_week,
	created_at, updated_at, synced_to_server`

// ReminderStore handles MealReminder persistence on SQLite.
type ReminderStore struct {
	db     *DB
	logger *slog.Logger
}

func NewReminderStore(db *DB, logger *slog.Logger) *ReminderStore {
	return &ReminderStore{db: db, logger: logger}
}

// Put inserts or fully replaces a reminder row.
func (s *ReminderStore) Put(r *models.MealReminder) error {
	daysJSON, err := json.Marshal(r.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encode days of week: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO meal_reminders (
			id, name, scheduled_time, pre_alert_minutes, enabled, days_of_week,
			created_at, updated_at, synced_to_server
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			scheduled_time = excluded.scheduled_time,
			pre_alert_minutes = excluded.pre_alert_minutes,
			enabled = excluded.enabled,
			days_of_week = excluded.days_of_week,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`,
		r.ID, r.Name, r.ScheduledTime.String(), r.PreAlertMinutes, r.Enabled, string(daysJSON),
		r.CreatedAt, r.UpdatedAt, r.SyncedToServer,
	)
	if err != nil {
		return fmt.Errorf("put reminder: %w", err)
	}
	return nil
}

// Get fetches a reminder by ID. Returns nil when the row does not exist.
// A row whose time or day-set can no longer be decoded is quarantined and
// reported as ErrCorrupt.
func (s *ReminderStore) Get(id string) (*models.MealReminder, error) {
	r, err := s.scanReminder(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM meal_reminders WHERE id = ?`, reminderColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// Delete removes a reminder.
func (s *ReminderStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM meal_reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// ListUnsynced returns reminders not yet accepted by the server, oldest first.
func (s *ReminderStore) ListUnsynced() ([]*models.MealReminder, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM meal_reminders WHERE synced_to_server = 0 ORDER BY created_at ASC`,
		reminderColumns))
}

// List returns all reminders.
func (s *ReminderStore) List() ([]*models.MealReminder, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM meal_reminders ORDER BY created_at ASC`, reminderColumns))
}

func (s *ReminderStore) list(query string, args ...any) ([]*models.MealReminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.MealReminder
	for rows.Next() {
		r, err := s.scanReminder(rows)
		if err != nil {
			// Skip quarantined rows so one bad record does not hide the rest.
			if r == nil && err != sql.ErrNoRows {
				continue
			}
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *ReminderStore) scanReminder(row rowScanner) (*models.MealReminder, error) {
	var r models.MealReminder
	var scheduledTime, daysJSON string
	err := row.Scan(
		&r.ID, &r.Name, &scheduledTime, &r.PreAlertMinutes, &r.Enabled, &daysJSON,
		&r.CreatedAt, &r.UpdatedAt, &r.SyncedToServer,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan reminder: %w", err)
	}

	r.ScheduledTime, err = models.ParseTimeOfDay(scheduledTime)
	if err != nil {
		s.quarantine(r.ID, fmt.Sprintf("bad scheduled_time: %v", err))
		return nil, fmt.Errorf("reminder %s: %w", r.ID, ErrCorrupt)
	}
	if err := json.Unmarshal([]byte(daysJSON), &r.DaysOfWeek); err != nil {
		s.quarantine(r.ID, fmt.Sprintf("bad days_of_week: %v", err))
		return nil, fmt.Errorf("reminder %s: %w", r.ID, ErrCorrupt)
	}
	return &r, nil
}

func (s *ReminderStore) quarantine(id, reason string) {
	s.logger.Error("quarantining corrupt reminder", "id", id, "reason", reason)
	if err := s.db.Quarantine(models.CollectionReminders, id, reason); err != nil {
		s.logger.Error("failed to quarantine reminder", "id", id, "error", err)
	}
}
