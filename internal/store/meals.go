package store

import (
	"database/sql"
	"fmt"

	"github.com/rghsoftware/mealsync/internal/models"
)

const mealColumns = `id, meal_type, name, energy_before, energy_after, notes, logged_at,
	created_at, updated_at, synced_to_server`

// MealStore handles MealLog persistence on SQLite.
type MealStore struct {
	db *DB
}

func NewMealStore(db *DB) *MealStore {
	return &MealStore{db: db}
}

// Put inserts or fully replaces a meal log row.
func (s *MealStore) Put(m *models.MealLog) error {
	_, err := s.db.Exec(`
		INSERT INTO meal_logs (
			id, meal_type, name, energy_before, energy_after, notes, logged_at,
			created_at, updated_at, synced_to_server
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			meal_type = excluded.meal_type,
			name = excluded.name,
			energy_before = excluded.energy_before,
			energy_after = excluded.energy_after,
			notes = excluded.notes,
			logged_at = excluded.logged_at,
			updated_at = excluded.updated_at,
			synced_to_server = excluded.synced_to_server
	`,
		m.ID, string(m.MealType), m.Name, m.EnergyBefore, m.EnergyAfter, m.Notes, m.LoggedAt,
		m.CreatedAt, m.UpdatedAt, m.SyncedToServer,
	)
	if err != nil {
		return fmt.Errorf("put meal log: %w", err)
	}
	return nil
}

// Get fetches a meal log by ID. Returns nil when the row does not exist.
func (s *MealStore) Get(id string) (*models.MealLog, error) {
	m, err := scanMeal(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM meal_logs WHERE id = ?`, mealColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// Delete removes a meal log.
func (s *MealStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM meal_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete meal log: %w", err)
	}
	return nil
}

// ListUnsynced returns meal logs not yet accepted by the server, oldest first.
func (s *MealStore) ListUnsynced() ([]*models.MealLog, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM meal_logs WHERE synced_to_server = 0 ORDER BY created_at ASC`,
		mealColumns))
}

// LoggedBetween returns meal logs in [from, to), ordered by logged time.
func (s *MealStore) LoggedBetween(from, to int64) ([]*models.MealLog, error) {
	return s.list(fmt.Sprintf(
		`SELECT %s FROM meal_logs WHERE logged_at >= ? AND logged_at < ? ORDER BY logged_at ASC`,
		mealColumns), from, to)
}

func (s *MealStore) list(query string, args ...any) ([]*models.MealLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meal logs: %w", err)
	}
	defer rows.Close()

	var meals []*models.MealLog
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func scanMeal(row rowScanner) (*models.MealLog, error) {
	var m models.MealLog
	var mealType string
	err := row.Scan(
		&m.ID, &mealType, &m.Name, &m.EnergyBefore, &m.EnergyAfter, &m.Notes, &m.LoggedAt,
		&m.CreatedAt, &m.UpdatedAt, &m.SyncedToServer,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan meal log: %w", err)
	}
	m.MealType = models.MealType(mealType)
	return &m, nil
}
