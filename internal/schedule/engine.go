package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/notify"
	"github.com/rghsoftware/mealsync/internal/store"
)

// NotificationID builds the deterministic dispatcher ID for one derived
// instant. Determinism is what makes full cancellation possible without
// remembering what was previously scheduled.
func NotificationID(reminderID string, day time.Weekday, kind OccurrenceKind) string {
	return fmt.Sprintf("reminder:%s:%d:%s", reminderID, int(day), kind)
}

// Engine derives notification instants from reminder definitions and drives
// the dispatcher. Every install is a full replace: all previously possible
// IDs are cancelled before the fresh set goes in, so a stale day-set or a
// changed time can never leave an orphaned notification behind.
type Engine struct {
	reminders  *store.ReminderStore
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(reminders *store.ReminderStore, dispatcher notify.Dispatcher, logger *slog.Logger) *Engine {
	return &Engine{
		reminders:  reminders,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Install replaces a reminder's scheduled notifications with the freshly
// derived set. A disabled reminder only cancels.
func (e *Engine) Install(r *models.MealReminder) error {
	e.cancelAllFor(r.ID)

	if !r.Enabled {
		return nil
	}

	for _, occ := range DeriveOccurrences(r, e.now()) {
		id := NotificationID(r.ID, occ.Day, occ.Kind)
		title := r.Name
		body := fmt.Sprintf("Time for %s", r.Name)
		if occ.Kind == KindPreAlert {
			body = fmt.Sprintf("%s in %d minutes", r.Name, r.PreAlertMinutes)
		}
		if err := e.dispatcher.Schedule(id, occ.At, title, body); err != nil {
			return fmt.Errorf("schedule %s: %w", id, err)
		}
	}
	return nil
}

// Remove cancels every notification a reminder could have scheduled.
func (e *Engine) Remove(reminderID string) {
	e.cancelAllFor(reminderID)
}

// InstallAll re-derives schedules for every stored reminder, typically on
// app start when OS-scheduled notifications may have been cleared.
func (e *Engine) InstallAll() error {
	reminders, err := e.reminders.List()
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	for _, r := range reminders {
		if err := e.Install(r); err != nil {
			e.logger.Error("failed to install reminder schedule", "id", r.ID, "error", err)
		}
	}
	return nil
}

// cancelAllFor cancels both kinds across all seven days regardless of the
// reminder's current day-set, since the previous day-set is unknown.
func (e *Engine) cancelAllFor(reminderID string) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		for _, kind := range []OccurrenceKind{KindMain, KindPreAlert} {
			id := NotificationID(reminderID, day, kind)
			if err := e.dispatcher.Cancel(id); err != nil {
				e.logger.Warn("failed to cancel notification", "id", id, "error", err)
			}
		}
	}
}
