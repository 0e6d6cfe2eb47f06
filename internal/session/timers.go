package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/notify"
	"github.com/rghsoftware/mealsync/internal/store"
	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// TimerManager runs the cooking-timer state machine. A session may hold many
// concurrently-running timers; each is independent, but all of them are
// force-cancelled when their session reaches a terminal state.
type TimerManager struct {
	timers     *syncrepo.Repository[models.CookingTimer, *models.CookingTimer]
	timerRows  *store.TimerStore
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewTimerManager(
	timers *syncrepo.Repository[models.CookingTimer, *models.CookingTimer],
	timerRows *store.TimerStore,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
) *TimerManager {
	return &TimerManager{
		timers:     timers,
		timerRows:  timerRows,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Start creates a running timer owned by the given session.
func (m *TimerManager) Start(ctx context.Context, sessionID, name string, durationSeconds int64, stepIndex *int) (*models.CookingTimer, error) {
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("timer duration must be positive, got %d", durationSeconds)
	}
	t := &models.CookingTimer{
		SyncMeta:        models.SyncMeta{ID: uuid.New().String()},
		SessionID:       sessionID,
		StepIndex:       stepIndex,
		Name:            name,
		DurationSeconds: durationSeconds,
		Status:          models.TimerRunning,
		StartedAt:       m.now().Unix(),
	}
	return m.timers.Write(ctx, t)
}

// Pause freezes a running timer; the remaining time is frozen at this instant.
func (m *TimerManager) Pause(ctx context.Context, id string) (*models.CookingTimer, error) {
	t, err := m.timers.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TimerRunning {
		return nil, &InvalidTransitionError{Entity: "timer", ID: id, From: string(t.Status), Op: "pause"}
	}
	pausedAt := m.now().Unix()
	t.Status = models.TimerPaused
	t.PausedAt = &pausedAt
	return m.timers.Write(ctx, t)
}

// Resume restarts a paused timer and accounts the pause interval.
func (m *TimerManager) Resume(ctx context.Context, id string) (*models.CookingTimer, error) {
	t, err := m.timers.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TimerPaused {
		return nil, &InvalidTransitionError{Entity: "timer", ID: id, From: string(t.Status), Op: "resume"}
	}
	resumedAt := m.now().Unix()
	t.Status = models.TimerRunning
	t.ResumedAt = &resumedAt
	if t.PausedAt != nil {
		t.TotalPauseDurationSeconds += resumedAt - *t.PausedAt
	}
	return m.timers.Write(ctx, t)
}

// Complete marks a timer finished. Valid from running or paused.
func (m *TimerManager) Complete(ctx context.Context, id string) (*models.CookingTimer, error) {
	return m.finish(ctx, id, models.TimerCompleted, "complete")
}

// Cancel stops a timer without finishing. Valid from running or paused.
func (m *TimerManager) Cancel(ctx context.Context, id string) (*models.CookingTimer, error) {
	return m.finish(ctx, id, models.TimerCancelled, "cancel")
}

func (m *TimerManager) finish(ctx context.Context, id string, status models.TimerStatus, op string) (*models.CookingTimer, error) {
	t, err := m.timers.ReadLocal(id)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, &InvalidTransitionError{Entity: "timer", ID: id, From: string(t.Status), Op: op}
	}
	if t.Status == models.TimerPaused && t.PausedAt != nil {
		t.TotalPauseDurationSeconds += m.now().Unix() - *t.PausedAt
	}
	t.Status = status
	return m.timers.Write(ctx, t)
}

// CancelForSession force-cancels every non-terminal timer owned by a session.
// Cancelled timers drop out of any future due check.
func (m *TimerManager) CancelForSession(ctx context.Context, sessionID string) error {
	timers, err := m.timerRows.BySession(sessionID)
	if err != nil {
		return err
	}
	for _, t := range timers {
		if t.Status.Terminal() {
			continue
		}
		if _, err := m.finish(ctx, t.ID, models.TimerCancelled, "cancel"); err != nil {
			m.logger.Error("failed to cancel timer", "timer_id", t.ID, "error", err)
		}
	}
	return nil
}

// Remaining derives the seconds left on a timer right now.
func (m *TimerManager) Remaining(id string) (int64, error) {
	t, err := m.timers.ReadLocal(id)
	if err != nil {
		return 0, err
	}
	return t.Remaining(m.now()), nil
}

// CheckDue fires a one-shot "timer complete" notification for every running
// timer whose derived remaining time has reached zero. NotificationSent
// guards against duplicate firing across repeated polls.
func (m *TimerManager) CheckDue(ctx context.Context) error {
	running, err := m.timerRows.Running()
	if err != nil {
		return err
	}
	now := m.now()
	for _, t := range running {
		if t.NotificationSent || t.Remaining(now) > 0 {
			continue
		}
		id := "timer:" + t.ID
		if err := m.dispatcher.Schedule(id, now, t.Name, fmt.Sprintf("%s is done", t.Name)); err != nil {
			m.logger.Error("failed to dispatch timer notification", "timer_id", t.ID, "error", err)
			continue
		}
		t.NotificationSent = true
		if _, err := m.timers.Write(ctx, t); err != nil {
			m.logger.Error("failed to persist notification flag", "timer_id", t.ID, "error", err)
		}
	}
	return nil
}
