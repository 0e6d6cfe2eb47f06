package session

import (
	"context"
	"testing"
	"time"

	"github.com/rghsoftware/mealsync/internal/models"
)

func startSession(t *testing.T, f *fixture) string {
	t.Helper()
	sess, err := f.svc.Start(context.Background(), "recipe-1", 3, StartOptions{})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess.ID
}

func TestTimerPauseResumeAccounting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tm, err := f.timers.Start(ctx, startSession(t, f), "pasta", 300, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.clock.Advance(100 * time.Second)
	if _, err := f.timers.Pause(ctx, tm.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	// Remaining freezes at the pause instant.
	f.clock.Advance(time.Hour)
	remaining, err := f.timers.Remaining(tm.ID)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 200 {
		t.Errorf("remaining while paused = %d, want 200", remaining)
	}

	resumed, err := f.timers.Resume(ctx, tm.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.TotalPauseDurationSeconds != 3600 {
		t.Errorf("pause total = %d, want 3600", resumed.TotalPauseDurationSeconds)
	}

	f.clock.Advance(50 * time.Second)
	remaining, _ = f.timers.Remaining(tm.ID)
	if remaining != 150 {
		t.Errorf("remaining after resume = %d, want 150", remaining)
	}
}

func TestTimerInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessID := startSession(t, f)
	if _, err := f.timers.Start(ctx, sessID, "pasta", 0, nil); err == nil {
		t.Error("zero duration accepted")
	}

	tm, err := f.timers.Start(ctx, sessID, "pasta", 300, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.timers.Resume(ctx, tm.ID); !isInvalidTransition(err) {
		t.Errorf("resume running: got %v, want InvalidTransitionError", err)
	}
	if _, err := f.timers.Complete(ctx, tm.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := f.timers.Cancel(ctx, tm.ID); !isInvalidTransition(err) {
		t.Errorf("cancel completed: got %v, want InvalidTransitionError", err)
	}
	if _, err := f.timers.Pause(ctx, tm.ID); !isInvalidTransition(err) {
		t.Errorf("pause completed: got %v, want InvalidTransitionError", err)
	}
}

func TestCheckDueFiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tm, err := f.timers.Start(ctx, startSession(t, f), "pasta", 60, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Not due yet.
	f.clock.Advance(30 * time.Second)
	if err := f.timers.CheckDue(ctx); err != nil {
		t.Fatalf("CheckDue: %v", err)
	}
	if n := f.dispatcher.count("timer:" + tm.ID); n != 0 {
		t.Errorf("fired %d times before due", n)
	}

	// Due: one notification, then the sent flag suppresses repeats.
	f.clock.Advance(60 * time.Second)
	for i := 0; i < 3; i++ {
		if err := f.timers.CheckDue(ctx); err != nil {
			t.Fatalf("CheckDue: %v", err)
		}
	}
	if n := f.dispatcher.count("timer:" + tm.ID); n != 1 {
		t.Errorf("fired %d times, want exactly 1", n)
	}
}

func TestCheckDueSkipsPaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tm, err := f.timers.Start(ctx, startSession(t, f), "bread", 60, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.timers.Pause(ctx, tm.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	f.clock.Advance(time.Hour)
	if err := f.timers.CheckDue(ctx); err != nil {
		t.Fatalf("CheckDue: %v", err)
	}
	if n := f.dispatcher.count("timer:" + tm.ID); n != 0 {
		t.Errorf("paused timer fired %d times", n)
	}

	got, _ := f.timers.timers.ReadLocal(tm.ID)
	if got.Status != models.TimerPaused {
		t.Errorf("status = %s, want paused", got.Status)
	}
}
