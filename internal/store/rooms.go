package store

import (
	"database/sql"
	"fmt"

	"github.com/rghsoftware/mealsync/internal/models"
)

const roomColumns = `id, name, host_id, closed, created_at, updated_at, synced_to_server`

const participantColumns = `id, room_id, user_id, joined_at, left_at,
	created_at, updated_at, synced_to_server`

// RoomStore handles body-doubling Room and RoomParticipant persistence.
type RoomStore struct {
	db *DB
}

func NewRoomStore(db *DB) *RoomStore {
	return &RoomStore{db: db}
}

// Put inserts or fully replaces a room row.
func (s *RoomStore) Put(r *models.Room) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms (id, name, host_id, closed, created_at, updated_at, synced_to_server)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			host_id = excluded.host_id,
			closed = excluded.closed,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`, r.ID, r.Name, r.HostID, r.Closed, r.CreatedAt, r.UpdatedAt, r.SyncedToServer)
	if err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

// Get fetches a room by ID. Returns nil when the row does not exist.
func (s *RoomStore) Get(id string) (*models.Room, error) {
	var r models.Room
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM rooms WHERE id = ?`, roomColumns), id,
	).Scan(&r.ID, &r.Name, &r.HostID, &r.Closed, &r.CreatedAt, &r.UpdatedAt, &r.SyncedToServer)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

// Delete removes a room. Participants cascade.
func (s *RoomStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// ListUnsynced returns rooms not yet accepted by the server, oldest first.
func (s *RoomStore) ListUnsynced() ([]*models.Room, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM rooms WHERE synced_to_server = 0 ORDER BY created_at ASC`, roomColumns))
	if err != nil {
		return nil, fmt.Errorf("list unsynced rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.HostID, &r.Closed, &r.CreatedAt, &r.UpdatedAt, &r.SyncedToServer); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

// PutParticipant inserts or fully replaces a participant row.
func (s *RoomStore) PutParticipant(p *models.RoomParticipant) error {
	_, err := s.db.Exec(`
		INSERT INTO room_participants (id, room_id, user_id, joined_at, left_at,
			created_at, updated_at, synced_to_server)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			left_at = excluded.left_at,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`, p.ID, p.RoomID, p.UserID, p.JoinedAt, p.LeftAt, p.CreatedAt, p.UpdatedAt, p.SyncedToServer)
	if err != nil {
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

// Participants returns everyone who has joined a room.
func (s *RoomStore) Participants(roomID string) ([]*models.RoomParticipant, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM room_participants WHERE room_id = ? ORDER BY joined_at ASC`,
		participantColumns), roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.RoomParticipant
	for rows.Next() {
		var p models.RoomParticipant
		if err := rows.Scan(&p.ID, &p.RoomID, &p.UserID, &p.JoinedAt, &p.LeftAt,
			&p.CreatedAt, &p.UpdatedAt, &p.SyncedToServer); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}
