package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

// Syncer is one entity table's reconciliation entry point, satisfied by
// *syncrepo.Repository.
type Syncer interface {
	Collection() string
	ReconcileUnsynced(ctx context.Context) (syncrepo.TableReport, error)
}

// SyncReport summarizes one reconciliation pass across all tables.
type SyncReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Tables    []syncrepo.TableReport
}

// Totals sums the per-table counters.
func (r SyncReport) Totals() (scanned, synced, failed, deleted int) {
	for _, t := range r.Tables {
		scanned += t.Scanned
		synced += t.Synced
		failed += t.Failed
		deleted += t.Deleted
	}
	return
}

// Reconciler periodically pushes unsynced local records through their
// repositories. Passes for the same table never overlap: concurrent triggers
// join the in-flight pass instead of starting a second one.
type Reconciler struct {
	syncers     []Syncer
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	group  singleflight.Group
	notify chan struct{}

	mu       sync.Mutex
	attempts map[string]int
}

func New(syncers []Syncer, interval time.Duration, maxAttempts int, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Reconciler{
		syncers:     syncers,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		notify:      make(chan struct{}, 1),
		attempts:    make(map[string]int),
	}
}

// Notify requests an immediate pass: app foreground, connectivity regained,
// or an explicit user action. Coalesces while a trigger is already pending.
func (r *Reconciler) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run drives periodic reconciliation until the context is cancelled. It runs
// as an independent background task and never blocks foreground writes.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.notify:
		}
		report := r.Reconcile(ctx)
		scanned, synced, failed, deleted := report.Totals()
		if scanned > 0 || deleted > 0 {
			r.logger.Info("reconciliation pass complete",
				"scanned", scanned,
				"synced", synced,
				"failed", failed,
				"deleted", deleted,
				"duration_ms", report.Duration.Milliseconds(),
			)
		}
	}
}

// Reconcile runs one best-effort pass over every registered table and reports
// per-record outcomes. A failing record never aborts the pass for the rest.
func (r *Reconciler) Reconcile(ctx context.Context) SyncReport {
	report := SyncReport{StartedAt: time.Now()}

	for _, syncer := range r.syncers {
		if ctx.Err() != nil {
			break
		}
		// Single-flight per table: a second trigger while this table is
		// reconciling shares the in-flight result.
		res, err, _ := r.group.Do(syncer.Collection(), func() (any, error) {
			return syncer.ReconcileUnsynced(ctx)
		})
		if err != nil {
			r.logger.Error("table reconciliation aborted",
				"collection", syncer.Collection(), "error", err)
			continue
		}
		table := res.(syncrepo.TableReport)
		r.trackAttempts(table)
		report.Tables = append(report.Tables, table)
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}

// trackAttempts counts consecutive failures per record. A record over budget
// is reported for observability but stays eligible for manual retry; it is
// never dropped.
func (r *Reconciler) trackAttempts(table syncrepo.TableReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range table.Outcomes {
		key := table.Collection + "/" + o.ID
		if o.Err == nil {
			delete(r.attempts, key)
			continue
		}
		r.attempts[key]++
		if r.attempts[key] == r.maxAttempts {
			r.logger.Warn("record exceeded retry budget, still eligible for manual retry",
				"collection", table.Collection,
				"id", o.ID,
				"attempts", r.attempts[key],
				"error", o.Err,
			)
		}
	}
}
