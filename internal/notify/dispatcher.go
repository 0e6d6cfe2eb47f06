package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Dispatcher schedules OS-level notifications. The real implementor is the
// platform notification scheduler; it is injected so the schedule engine and
// timer manager can be tested against a fake.
type Dispatcher interface {
	Schedule(id string, at time.Time, title, body string) error
	Cancel(id string) error
	CancelAll() error
}

// NopDispatcher discards everything. Useful where notifications are disabled.
type NopDispatcher struct{}

func (NopDispatcher) Schedule(id string, at time.Time, title, body string) error { return nil }
func (NopDispatcher) Cancel(id string) error                                     { return nil }
func (NopDispatcher) CancelAll() error                                           { return nil }

// LogDispatcher records scheduled notifications in memory and logs them.
// It stands in for the OS scheduler on the server and in development.
type LogDispatcher struct {
	logger *slog.Logger

	mu        sync.Mutex
	scheduled map[string]time.Time
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{
		logger:    logger,
		scheduled: make(map[string]time.Time),
	}
}

func (d *LogDispatcher) Schedule(id string, at time.Time, title, body string) error {
	d.mu.Lock()
	d.scheduled[id] = at
	d.mu.Unlock()
	d.logger.Info("notification scheduled", "id", id, "at", at, "title", title)
	return nil
}

func (d *LogDispatcher) Cancel(id string) error {
	d.mu.Lock()
	delete(d.scheduled, id)
	d.mu.Unlock()
	d.logger.Debug("notification cancelled", "id", id)
	return nil
}

func (d *LogDispatcher) CancelAll() error {
	d.mu.Lock()
	d.scheduled = make(map[string]time.Time)
	d.mu.Unlock()
	d.logger.Debug("all notifications cancelled")
	return nil
}

// Scheduled returns the pending instant for an ID, if any.
func (d *LogDispatcher) Scheduled(id string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.scheduled[id]
	return at, ok
}
