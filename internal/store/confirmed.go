package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ConfirmedStore remembers which record IDs the server has accepted at least
// once. The sync repository uses this to pick create vs. update when
// replaying a record whose latest local write has not been synced: a
// confirmed ID is always an update, so re-running a write can never produce
// a duplicate remote record.
type ConfirmedStore struct {
	db *DB
}

func NewConfirmedStore(db *DB) *ConfirmedStore {
	return &ConfirmedStore{db: db}
}

// Add marks an ID as server-confirmed. Idempotent.
func (s *ConfirmedStore) Add(collection, recordID string) error {
	_, err := s.db.Exec(`
		INSERT INTO server_confirmed (collection, record_id, confirmed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection, record_id) DO NOTHING
	`, collection, recordID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("add confirmation: %w", err)
	}
	return nil
}

// Remove forgets a confirmation, typically after the record is deleted.
func (s *ConfirmedStore) Remove(collection, recordID string) error {
	_, err := s.db.Exec(
		`DELETE FROM server_confirmed WHERE collection = ? AND record_id = ?`,
		collection, recordID)
	if err != nil {
		return fmt.Errorf("remove confirmation: %w", err)
	}
	return nil
}

// Has reports whether the server has ever accepted this ID.
func (s *ConfirmedStore) Has(collection, recordID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM server_confirmed WHERE collection = ? AND record_id = ?`,
		collection, recordID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check confirmation: %w", err)
	}
	return true, nil
}
