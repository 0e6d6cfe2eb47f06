package store

import (
	"database/sql"
	"fmt"

	"github.com/rghsoftware/mealsync/internal/models"
)

const stepColumns = `id, session_id, step_index, time_taken_seconds, skipped, notes,
	created_at, updated_at, synced_to_server`

// StepStore handles StepCompletion persistence on SQLite. Completions are
// keyed by (session_id, step_index); a second completion for the same step
// replaces the first.
type StepStore struct {
	db *DB
}

func NewStepStore(db *DB) *StepStore {
	return &StepStore{db: db}
}

// Put inserts or fully replaces a step completion row.
func (s *StepStore) Put(c *models.StepCompletion) error {
	_, err := s.db.Exec(`
		INSERT INTO step_completions (
			id, session_id, step_index, time_taken_seconds, skipped, notes,
			created_at, updated_at, synced_to_server
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time_taken_seconds = excluded.time_taken_seconds,
			skipped = excluded.skipped,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`,
		c.ID, c.SessionID, c.StepIndex, c.TimeTakenSeconds, c.Skipped, c.Notes,
		c.CreatedAt, c.UpdatedAt, c.SyncedToServer,
	)
	if err != nil {
		return fmt.Errorf("put step completion: %w", err)
	}
	return nil
}

// Get fetches a step completion by ID. Returns nil when the row does not exist.
func (s *StepStore) Get(id string) (*models.StepCompletion, error) {
	c, err := scanStep(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM step_completions WHERE id = ?`, stepColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByStep fetches the completion for a (session, stepIndex) pair, if any.
func (s *StepStore) GetByStep(sessionID string, stepIndex int) (*models.StepCompletion, error) {
	c, err := scanStep(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM step_completions WHERE session_id = ? AND step_index = ?`, stepColumns),
		sessionID, stepIndex))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Delete removes a step completion.
func (s *StepStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM step_completions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete step completion: %w", err)
	}
	return nil
}

// ListUnsynced returns completions not yet accepted by the server, oldest first.
func (s *StepStore) ListUnsynced() ([]*models.StepCompletion, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM step_completions WHERE synced_to_server = 0 ORDER BY created_at ASC`,
		stepColumns))
}

// BySession returns every completion for a session ordered by step index.
func (s *StepStore) BySession(sessionID string) ([]*models.StepCompletion, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM step_completions WHERE session_id = ? ORDER BY step_index ASC`,
		stepColumns), sessionID)
}

func (s *StepStore) list(query string, args ...any) ([]*models.StepCompletion, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list step completions: %w", err)
	}
	defer rows.Close()

	var steps []*models.StepCompletion
	for rows.Next() {
		c, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, c)
	}
	return steps, rows.Err()
}

func scanStep(row rowScanner) (*models.StepCompletion, error) {
	var c models.StepCompletion
	err := row.Scan(
		&c.ID, &c.SessionID, &c.StepIndex, &c.TimeTakenSeconds, &c.Skipped, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt, &c.SyncedToServer,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan step completion: %w", err)
	}
	return &c, nil
}
