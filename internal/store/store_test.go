package store

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rghsoftware/mealsync/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	// Reopening runs schema init and migrations again; both must be no-ops.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)
	s := NewSessionStore(db)

	paused := int64(1500)
	energy := 3
	in := &models.CookingSession{
		SyncMeta:                  models.SyncMeta{ID: "s1", CreatedAt: 10, UpdatedAt: 20, SyncedToServer: true},
		RecipeID:                  "recipe-1",
		Status:                    models.SessionPaused,
		CurrentStepIndex:          2,
		TotalSteps:                5,
		EnergyLevel:               &energy,
		StartedAt:                 1000,
		PausedAt:                  &paused,
		TotalPauseDurationSeconds: 42,
	}
	if err := s.Put(in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing row")
	}
	if got.RecipeID != in.RecipeID || got.Status != in.Status ||
		got.CurrentStepIndex != in.CurrentStepIndex ||
		got.TotalPauseDurationSeconds != in.TotalPauseDurationSeconds ||
		!got.SyncedToServer {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.PausedAt == nil || *got.PausedAt != paused {
		t.Errorf("PausedAt = %v, want %d", got.PausedAt, paused)
	}
	if got.EnergyLevel == nil || *got.EnergyLevel != energy {
		t.Errorf("EnergyLevel = %v, want %d", got.EnergyLevel, energy)
	}

	// Missing rows are nil, not an error.
	missing, err := s.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("Get missing = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestSessionPutReplaces(t *testing.T) {
	db := testDB(t)
	s := NewSessionStore(db)

	in := &models.CookingSession{
		SyncMeta: models.SyncMeta{ID: "s1", CreatedAt: 10, UpdatedAt: 10},
		RecipeID: "recipe-1", Status: models.SessionActive, StartedAt: 1000,
	}
	if err := s.Put(in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	in.Status = models.SessionCompleted
	in.UpdatedAt = 20
	if err := s.Put(in); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, _ := s.Get("s1")
	if got.Status != models.SessionCompleted || got.UpdatedAt != 20 {
		t.Errorf("upsert did not replace: %+v", got)
	}
}

func TestListUnsyncedOldestFirst(t *testing.T) {
	db := testDB(t)
	s := NewSessionStore(db)

	put := func(id string, createdAt int64, synced bool) {
		t.Helper()
		err := s.Put(&models.CookingSession{
			SyncMeta: models.SyncMeta{ID: id, CreatedAt: createdAt, UpdatedAt: createdAt, SyncedToServer: synced},
			RecipeID: "r", Status: models.SessionActive, StartedAt: createdAt,
		})
		if err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	put("new", 300, false)
	put("synced", 200, true)
	put("old", 100, false)

	pending, err := s.ListUnsynced()
	if err != nil {
		t.Fatalf("ListUnsynced: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "old" || pending[1].ID != "new" {
		ids := make([]string, len(pending))
		for i, p := range pending {
			ids[i] = p.ID
		}
		t.Errorf("order = %v, want [old new]", ids)
	}
}

func TestReminderQuarantine(t *testing.T) {
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewReminderStore(db, logger)

	good := &models.MealReminder{
		SyncMeta:      models.SyncMeta{ID: "good", CreatedAt: 1, UpdatedAt: 1},
		Name:          "lunch",
		ScheduledTime: models.TimeOfDay{Hour: 12},
		Enabled:       true,
		DaysOfWeek:    []time.Weekday{time.Monday},
	}
	if err := s.Put(good); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A row written by an older build with an undecodable day-set.
	_, err := db.Exec(`
		INSERT INTO meal_reminders (id, name, scheduled_time, pre_alert_minutes, enabled, days_of_week,
			created_at, updated_at, synced_to_server)
		VALUES ('bad', 'corrupt', '12:00', 0, 1, 'not json', 2, 2, 0)
	`)
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	if _, err := s.Get("bad"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get corrupt row: got %v, want ErrCorrupt", err)
	}

	// Lists skip the quarantined row so one bad record cannot hide the rest.
	all, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].ID != "good" {
		t.Errorf("List = %d rows, want only the good one", len(all))
	}

	var reason string
	err = db.QueryRow(
		`SELECT reason FROM quarantine WHERE collection = ? AND record_id = 'bad'`,
		models.CollectionReminders).Scan(&reason)
	if err != nil {
		t.Fatalf("quarantine row missing: %v", err)
	}
}

func TestReminderDaysRoundTrip(t *testing.T) {
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewReminderStore(db, logger)

	in := &models.MealReminder{
		SyncMeta:        models.SyncMeta{ID: "r1", CreatedAt: 1, UpdatedAt: 1},
		Name:            "breakfast",
		ScheduledTime:   models.TimeOfDay{Hour: 7, Minute: 30},
		PreAlertMinutes: 10,
		Enabled:         true,
		DaysOfWeek:      []time.Weekday{time.Sunday, time.Wednesday, time.Saturday},
	}
	if err := s.Put(in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScheduledTime != in.ScheduledTime {
		t.Errorf("time = %v, want %v", got.ScheduledTime, in.ScheduledTime)
	}
	if len(got.DaysOfWeek) != 3 || got.DaysOfWeek[1] != time.Wednesday {
		t.Errorf("days = %v, want %v", got.DaysOfWeek, in.DaysOfWeek)
	}
}

func TestTombstonesIdempotent(t *testing.T) {
	db := testDB(t)
	s := NewTombstoneStore(db)

	for i := 0; i < 3; i++ {
		if err := s.Add(models.CollectionMeals, "m1"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	pending, err := s.List(models.CollectionMeals)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("got %d tombstones after repeated adds, want 1", len(pending))
	}

	if err := s.Remove(models.CollectionMeals, "m1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	pending, _ = s.List(models.CollectionMeals)
	if len(pending) != 0 {
		t.Errorf("tombstone survived removal")
	}
}

func TestConfirmedStore(t *testing.T) {
	db := testDB(t)
	s := NewConfirmedStore(db)

	ok, err := s.Has(models.CollectionSessions, "s1")
	if err != nil || ok {
		t.Errorf("Has before Add = (%v, %v), want (false, nil)", ok, err)
	}
	if err := s.Add(models.CollectionSessions, "s1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(models.CollectionSessions, "s1"); err != nil {
		t.Fatalf("repeat Add: %v", err)
	}
	ok, err = s.Has(models.CollectionSessions, "s1")
	if err != nil || !ok {
		t.Errorf("Has after Add = (%v, %v), want (true, nil)", ok, err)
	}

	// Same ID under another collection is a different key.
	ok, _ = s.Has(models.CollectionMeals, "s1")
	if ok {
		t.Error("confirmation leaked across collections")
	}
}

func TestMealLoggedBetween(t *testing.T) {
	db := testDB(t)
	s := NewMealStore(db)

	put := func(id string, loggedAt int64) {
		t.Helper()
		err := s.Put(&models.MealLog{
			SyncMeta: models.SyncMeta{ID: id, CreatedAt: loggedAt, UpdatedAt: loggedAt},
			MealType: models.MealBreakfast, Name: "meal " + id, LoggedAt: loggedAt,
		})
		if err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	put("before", 999)
	put("in-a", 1000)
	put("in-b", 1500)
	put("after", 2000)

	got, err := s.LoggedBetween(1000, 2000)
	if err != nil {
		t.Fatalf("LoggedBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d meals, want 2 (start inclusive, end exclusive)", len(got))
	}
	if got[0].ID != "in-a" || got[1].ID != "in-b" {
		t.Errorf("got %s, %s", got[0].ID, got[1].ID)
	}
}
