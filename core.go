// Package mealsync is the local-first synchronization and temporal-state
// engine behind meal tracking, meal reminders, and cooking sessions. Writes
// land in on-device SQLite synchronously and are reconciled with the
// companion backend opportunistically; sessions, timers, and recurring
// reminder schedules stay time-accurate across suspend and resume because
// every duration is derived from stored timestamps, never counted in memory.
package mealsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rghsoftware/mealsync/internal/breakdown"
	"github.com/rghsoftware/mealsync/internal/config"
	"github.com/rghsoftware/mealsync/internal/gateway"
	"github.com/rghsoftware/mealsync/internal/meals"
	"github.com/rghsoftware/mealsync/internal/models"
	"github.com/rghsoftware/mealsync/internal/notify"
	"github.com/rghsoftware/mealsync/internal/reconciler"
	"github.com/rghsoftware/mealsync/internal/schedule"
	"github.com/rghsoftware/mealsync/internal/session"
	"github.com/rghsoftware/mealsync/internal/store"
	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// Core wires the sync engine for embedding in application code. All state
// lives in the local store; the remote side is best-effort.
type Core struct {
	Sessions  *session.Service
	Timers    *session.TimerManager
	Meals     *meals.Service
	Reminders *schedule.Service
	Rooms     *syncrepo.Repository[models.Room, *models.Room]
	Breakdown *breakdown.Generator

	Reconciler *reconciler.Reconciler
	Bus        *syncrepo.Bus

	db        *store.DB
	engine    *schedule.Engine
	pollEvery time.Duration
	logger    *slog.Logger
}

// New assembles the core from configuration. The dispatcher is the OS
// notification scheduler (use notify.NopDispatcher to disable notifications).
func New(cfg *config.Config, dispatcher notify.Dispatcher, logger *slog.Logger) (*Core, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client := gateway.NewClient(cfg.ServerURL, gateway.StaticToken(cfg.APIToken),
		time.Duration(cfg.RemoteTimeoutSeconds)*time.Second)

	tombstones := store.NewTombstoneStore(db)
	confirmed := store.NewConfirmedStore(db)
	bus := syncrepo.NewBus()

	sessionRepo := syncrepo.New[models.CookingSession, *models.CookingSession](
		models.CollectionSessions, store.NewSessionStore(db),
		syncrepo.NewGatewayRemote[models.CookingSession, *models.CookingSession](client, models.CollectionSessions),
		tombstones, confirmed, bus, logger)
	timerRows := store.NewTimerStore(db)
	timerRepo := syncrepo.New[models.CookingTimer, *models.CookingTimer](
		models.CollectionTimers, timerRows,
		syncrepo.NewGatewayRemote[models.CookingTimer, *models.CookingTimer](client, models.CollectionTimers),
		tombstones, confirmed, bus, logger)
	stepRows := store.NewStepStore(db)
	stepRepo := syncrepo.New[models.StepCompletion, *models.StepCompletion](
		models.CollectionSteps, stepRows,
		syncrepo.NewGatewayRemote[models.StepCompletion, *models.StepCompletion](client, models.CollectionSteps),
		tombstones, confirmed, bus, logger)
	reminderRows := store.NewReminderStore(db, logger)
	reminderRepo := syncrepo.New[models.MealReminder, *models.MealReminder](
		models.CollectionReminders, reminderRows,
		syncrepo.NewGatewayRemote[models.MealReminder, *models.MealReminder](client, models.CollectionReminders),
		tombstones, confirmed, bus, logger)
	mealRows := store.NewMealStore(db)
	mealRepo := syncrepo.New[models.MealLog, *models.MealLog](
		models.CollectionMeals, mealRows,
		syncrepo.NewGatewayRemote[models.MealLog, *models.MealLog](client, models.CollectionMeals),
		tombstones, confirmed, bus, logger)
	roomRepo := syncrepo.New[models.Room, *models.Room](
		models.CollectionRooms, store.NewRoomStore(db),
		syncrepo.NewGatewayRemote[models.Room, *models.Room](client, models.CollectionRooms),
		tombstones, confirmed, bus, logger)

	timers := session.NewTimerManager(timerRepo, timerRows, dispatcher, logger)
	sessions := session.NewService(sessionRepo, stepRepo, stepRows, timers, logger)
	engine := schedule.NewEngine(reminderRows, dispatcher, logger)
	reminders := schedule.NewService(reminderRepo, engine)
	mealSvc := meals.NewService(mealRepo, mealRows)

	rec := reconciler.New(
		[]reconciler.Syncer{sessionRepo, timerRepo, stepRepo, reminderRepo, mealRepo, roomRepo},
		time.Duration(cfg.SyncIntervalMinutes)*time.Minute,
		cfg.SyncMaxAttempts,
		logger,
	)

	generator := breakdown.NewGenerator(breakdown.NewHTTPProvider(cfg.AIBaseURL, cfg.AIModel))

	return &Core{
		Sessions:   sessions,
		Breakdown:  generator,
		Timers:     timers,
		Meals:      mealSvc,
		Reminders:  reminders,
		Rooms:      roomRepo,
		Reconciler: rec,
		Bus:        bus,
		db:         db,
		engine:     engine,
		pollEvery:  time.Duration(cfg.TimerPollSeconds) * time.Second,
		logger:     logger,
	}, nil
}

// Run drives the background work until the context is cancelled: the
// reconciler loop and the timer due-check poll. Foreground operations do not
// depend on Run; they stay fully usable offline without it.
func (c *Core) Run(ctx context.Context) error {
	// OS-scheduled notifications may have been cleared since the last run;
	// re-derive every reminder's schedule before anything else.
	if err := c.engine.InstallAll(); err != nil {
		c.logger.Error("failed to reinstall reminder schedules", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Reconciler.Run(ctx)
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(c.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := c.Timers.CheckDue(ctx); err != nil {
					c.logger.Error("timer due check failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// OnForeground is the app-foreground / connectivity-regained hook: it
// requests an immediate reconciliation pass.
func (c *Core) OnForeground() {
	c.Reconciler.Notify()
}

// Close releases the local store.
func (c *Core) Close() error {
	return c.db.Close()
}
