package store

import (
	"database/sql"
	"fmt"

	"github.com/rghsoftware/mealsync/internal/models"
)

const timerColumns = `id, session_id, step_index, name, duration_seconds, status,
	started_at, paused_at, resumed_at, total_pause_seconds, notification_sent,
	created_at, updated_at, synced_to_server`

// TimerStore handles CookingTimer persistence on SQLite.
type TimerStore struct {
	db *DB
}

func NewTimerStore(db *DB) *TimerStore {
	return &TimerStore{db: db}
}

// Put inserts or fully replaces a timer row.
func (s *TimerStore) Put(t *models.CookingTimer) error {
	_, err := s.db.Exec(`
		INSERT INTO cooking_timers (
			id, session_id, step_index, name, duration_seconds, status,
			started_at, paused_at, resumed_at, total_pause_seconds, notification_sent,
			created_at, updated_at, synced_to_server
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			step_index = excluded.step_index,
			name = excluded.name,
			duration_seconds = excluded.duration_seconds,
			status = excluded.status,
			started_at = excluded.started_at,
			paused_at = excluded.paused_at,
			resumed_at = excluded.resumed_at,
			total_pause_seconds = excluded.total_pause_seconds,
			notification_sent = excluded.notification_sent,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`,
		t.ID, t.SessionID, t.StepIndex, t.Name, t.DurationSeconds, string(t.Status),
		t.StartedAt, t.PausedAt, t.ResumedAt, t.TotalPauseDurationSeconds, t.NotificationSent,
		t.CreatedAt, t.UpdatedAt, t.SyncedToServer,
	)
	if err != nil {
		return fmt.Errorf("put timer: %w", err)
	}
	return nil
}

// Get fetches a timer by ID. Returns nil when the row does not exist.
func (s *TimerStore) Get(id string) (*models.CookingTimer, error) {
	t, err := scanTimer(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM cooking_timers WHERE id = ?`, timerColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// Delete removes a timer.
func (s *TimerStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM cooking_timers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete timer: %w", err)
	}
	return nil
}

// ListUnsynced returns timers not yet accepted by the server, oldest first.
func (s *TimerStore) ListUnsynced() ([]*models.CookingTimer, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM cooking_timers WHERE synced_to_server = 0 ORDER BY created_at ASC`,
		timerColumns))
}

// BySession returns every timer belonging to a session.
func (s *TimerStore) BySession(sessionID string) ([]*models.CookingTimer, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM cooking_timers WHERE session_id = ? ORDER BY created_at ASC`,
		timerColumns), sessionID)
}

// Running returns all timers currently in the running state.
func (s *TimerStore) Running() ([]*models.CookingTimer, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM cooking_timers WHERE status = 'running' ORDER BY started_at ASC`,
		timerColumns))
}

func (s *TimerStore) list(query string, args ...any) ([]*models.CookingTimer, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	defer rows.Close()

	var timers []*models.CookingTimer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

func scanTimer(row rowScanner) (*models.CookingTimer, error) {
	var t models.CookingTimer
	var status string
	err := row.Scan(
		&t.ID, &t.SessionID, &t.StepIndex, &t.Name, &t.DurationSeconds, &status,
		&t.StartedAt, &t.PausedAt, &t.ResumedAt, &t.TotalPauseDurationSeconds, &t.NotificationSent,
		&t.CreatedAt, &t.UpdatedAt, &t.SyncedToServer,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan timer: %w", err)
	}
	t.Status = models.TimerStatus(status)
	return &t, nil
}
