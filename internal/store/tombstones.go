package store

import (
	"fmt"
	"time"
)

// Tombstone marks a record deleted locally while the server was unreachable.
// The reconciler replays the remote delete and then clears the tombstone.
type Tombstone struct {
	Collection string
	RecordID   string
	CreatedAt  int64
}

// TombstoneStore tracks pending remote deletes.
type TombstoneStore struct {
	db *DB
}

func NewTombstoneStore(db *DB) *TombstoneStore {
	return &TombstoneStore{db: db}
}

// Add records a pending remote delete. Idempotent per (collection, id).
func (s *TombstoneStore) Add(collection, recordID string) error {
	_, err := s.db.Exec(`
		INSERT INTO pending_deletes (collection, record_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection, record_id) DO NOTHING
	`, collection, recordID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("add tombstone: %w", err)
	}
	return nil
}

// Remove clears a tombstone after the remote delete has been accepted.
func (s *TombstoneStore) Remove(collection, recordID string) error {
	_, err := s.db.Exec(
		`DELETE FROM pending_deletes WHERE collection = ? AND record_id = ?`,
		collection, recordID)
	if err != nil {
		return fmt.Errorf("remove tombstone: %w", err)
	}
	return nil
}

// List returns pending deletes for one collection, oldest first.
func (s *TombstoneStore) List(collection string) ([]Tombstone, error) {
	rows, err := s.db.Query(`
		SELECT collection, record_id, created_at FROM pending_deletes
		WHERE collection = ? ORDER BY created_at ASC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list tombstones: %w", err)
	}
	defer rows.Close()

	var tombstones []Tombstone
	for rows.Next() {
		var t Tombstone
		if err := rows.Scan(&t.Collection, &t.RecordID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tombstone: %w", err)
		}
		tombstones = append(tombstones, t)
	}
	return tombstones, rows.Err()
}
