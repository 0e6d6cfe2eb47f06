package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCorrupt marks a row whose persisted form can no longer be decoded.
// Such rows are quarantined, never silently dropped.
var ErrCorrupt = errors.New("corrupt record")

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cooking_sessions (
  id TEXT PRIMARY KEY,
  recipe_id TEXT NOT NULL,
  breakdown_id TEXT,
  status TEXT NOT NULL,
  current_step_index INTEGER NOT NULL DEFAULT 0,
  total_steps INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER NOT NULL,
  paused_at INTEGER,
  resumed_at INTEGER,
  completed_at INTEGER,
  abandoned_at INTEGER,
  total_pause_seconds INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON cooking_sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_unsynced ON cooking_sessions(synced_to_server, created_at);

CREATE TABLE IF NOT EXISTS cooking_timers (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  step_index INTEGER,
  name TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL,
  status TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  paused_at INTEGER,
  resumed_at INTEGER,
  total_pause_seconds INTEGER NOT NULL DEFAULT 0,
  notification_sent INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (session_id) REFERENCES cooking_sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_timers_session ON cooking_timers(session_id);
CREATE INDEX IF NOT EXISTS idx_timers_status ON cooking_timers(status);

CREATE TABLE IF NOT EXISTS step_completions (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  step_index INTEGER NOT NULL,
  time_taken_seconds INTEGER,
  skipped INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (session_id) REFERENCES cooking_sessions(id) ON DELETE CASCADE,
  UNIQUE(session_id, step_index)
);

CREATE TABLE IF NOT EXISTS meal_reminders (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  scheduled_time TEXT NOT NULL,
  pre_alert_minutes INTEGER NOT NULL DEFAULT 0,
  enabled INTEGER NOT NULL DEFAULT 1,
  days_of_week TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meal_logs (
  id TEXT PRIMARY KEY,
  meal_type TEXT NOT NULL,
  name TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  logged_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_meal_logs_logged_at ON meal_logs(logged_at);

CREATE TABLE IF NOT EXISTS rooms (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  host_id TEXT NOT NULL,
  closed INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS room_participants (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  joined_at INTEGER NOT NULL,
  left_at INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  synced_to_server INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pending_deletes (
  collection TEXT NOT NULL,
  record_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (collection, record_id)
);

CREATE TABLE IF NOT EXISTS server_confirmed (
  collection TEXT NOT NULL,
  record_id TEXT NOT NULL,
  confirmed_at INTEGER NOT NULL,
  PRIMARY KEY (collection, record_id)
);

CREATE TABLE IF NOT EXISTS quarantine (
  collection TEXT NOT NULL,
  record_id TEXT NOT NULL,
  reason TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (collection, record_id)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema changes that were added after the
// initial schema. Each migration is idempotent so it is safe to call on every
// database open.
func runMigrations(db *sql.DB) error {
	// Migration v1: energy tracking columns, added with the meal/energy feature.
	hasEnergy, err := columnExists(db, "meal_logs", "energy_before")
	if err != nil {
		return fmt.Errorf("check energy_before column: %w", err)
	}
	if !hasEnergy {
		migrations := []string{
			`ALTER TABLE meal_logs ADD COLUMN energy_before INTEGER`,
			`ALTER TABLE meal_logs ADD COLUMN energy_after INTEGER`,
			`ALTER TABLE cooking_sessions ADD COLUMN energy_level INTEGER`,
		}
		for _, m := range migrations {
			if _, err := db.Exec(m); err != nil {
				return fmt.Errorf("run migration v1: %w", err)
			}
		}
	}
	return nil
}

// Quarantine records a row that could not be decoded so it survives for
// manual inspection instead of being silently dropped.
func (db *DB) Quarantine(collection, recordID, reason string) error {
	_, err := db.Exec(`
		INSERT INTO quarantine (collection, record_id, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, record_id) DO UPDATE SET reason = excluded.reason
	`, collection, recordID, reason, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("quarantine %s/%s: %w", collection, recordID, err)
	}
	return nil
}

// columnExists checks if a column exists in a table. It properly closes the
// rows cursor before returning, avoiding deadlocks with MaxOpenConns(1).
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(
		fmt.Sprintf("SELECT name FROM pragma_table_info('%s') WHERE name = ?", table),
		column,
	)
	if err != nil {
		return false, err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}
