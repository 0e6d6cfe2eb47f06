package store

import (
	"database/sql"
	"fmt"

	"github.com/rghsoftware/mealsync/internal/models"
)

// sessionColumns is the canonical column list for all SELECT queries.
// Order must match scanSession.
const sessionColumns = `id, recipe_id, breakdown_id, status, current_step_index, total_steps,
	energy_level, started_at, paused_at, resumed_at, completed_at, abandoned_at,
	total_pause_seconds, created_at, updated_at, synced_to_server`

// SessionStore handles CookingSession persistence on SQLite.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Put inserts or fully replaces a session row.
func (s *SessionStore) Put(sess *models.CookingSession) error {
	_, err := s.db.Exec(`
		INSERT INTO cooking_sessions (
			id, recipe_id, breakdown_id, status, current_step_index, total_steps,
			energy_level, started_at, paused_at, resumed_at, completed_at, abandoned_at,
			total_pause_seconds, created_at, updated_at, synced_to_server
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			recipe_id = excluded.recipe_id,
			breakdown_id = excluded.breakdown_id,
			status = excluded.status,
			current_step_index = excluded.current_step_index,
			total_steps = excluded.total_steps,
			energy_level = excluded.energy_level,
			started_at = excluded.started_at,
			paused_at = excluded.paused_at,
			resumed_at = excluded.resumed_at,
			completed_at = excluded.completed_at,
			abandoned_at = excluded.abandoned_at,
			total_pause_seconds = excluded.total_pause_seconds,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`,
		sess.ID, sess.RecipeID, sess.BreakdownID, string(sess.Status),
		sess.CurrentStepIndex, sess.TotalSteps, sess.EnergyLevel,
		sess.StartedAt, sess.PausedAt, sess.ResumedAt, sess.CompletedAt, sess.AbandonedAt,
		sess.TotalPauseDurationSeconds, sess.CreatedAt, sess.UpdatedAt, sess.SyncedToServer,
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Get fetches a session by ID. Returns nil when the row does not exist.
func (s *SessionStore) Get(id string) (*models.CookingSession, error) {
	sess, err := scanSession(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM cooking_sessions WHERE id = ?`, sessionColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// Delete removes a session. Child timers and step completions cascade.
func (s *SessionStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM cooking_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListUnsynced returns sessions not yet accepted by the server, oldest first
// so replay preserves causal ordering.
func (s *SessionStore) ListUnsynced() ([]*models.CookingSession, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM cooking_sessions WHERE synced_to_server = 0 ORDER BY created_at ASC`,
		sessionColumns))
	if err != nil {
		return nil, fmt.Errorf("list unsynced sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.CookingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListActive returns sessions that are still active or paused.
func (s *SessionStore) ListActive() ([]*models.CookingSession, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM cooking_sessions WHERE status IN ('active', 'paused') ORDER BY started_at DESC`,
		sessionColumns))
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.CookingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.CookingSession, error) {
	var sess models.CookingSession
	var status string
	err := row.Scan(
		&sess.ID, &sess.RecipeID, &sess.BreakdownID, &status,
		&sess.CurrentStepIndex, &sess.TotalSteps, &sess.EnergyLevel,
		&sess.StartedAt, &sess.PausedAt, &sess.ResumedAt, &sess.CompletedAt, &sess.AbandonedAt,
		&sess.TotalPauseDurationSeconds, &sess.CreatedAt, &sess.UpdatedAt, &sess.SyncedToServer,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = models.SessionStatus(status)
	return &sess, nil
}
