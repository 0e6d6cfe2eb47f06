package reconciler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rghsoftware/mealsync/internal/syncrepo"
)

type fakeSyncer struct {
	collection string
	report     syncrepo.TableReport
	err        error
	delay      time.Duration

	calls atomic.Int64
}

func (f *fakeSyncer) Collection() string { return f.collection }

func (f *fakeSyncer) ReconcileUnsynced(ctx context.Context) (syncrepo.TableReport, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.report, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileAggregatesTables(t *testing.T) {
	a := &fakeSyncer{collection: "sessions", report: syncrepo.TableReport{Collection: "sessions", Scanned: 2, Synced: 2}}
	b := &fakeSyncer{collection: "meals", report: syncrepo.TableReport{Collection: "meals", Scanned: 1, Failed: 1}}
	r := New([]Syncer{a, b}, time.Minute, 10, testLogger())

	report := r.Reconcile(context.Background())
	if len(report.Tables) != 2 {
		t.Fatalf("got %d table reports, want 2", len(report.Tables))
	}
	scanned, synced, failed, _ := report.Totals()
	if scanned != 3 || synced != 2 || failed != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1", scanned, synced, failed)
	}
}

func TestReconcileContinuesPastTableError(t *testing.T) {
	broken := &fakeSyncer{collection: "sessions", err: errors.New("scan failed")}
	healthy := &fakeSyncer{collection: "meals", report: syncrepo.TableReport{Collection: "meals", Scanned: 1, Synced: 1}}
	r := New([]Syncer{broken, healthy}, time.Minute, 10, testLogger())

	report := r.Reconcile(context.Background())
	if healthy.calls.Load() != 1 {
		t.Error("a failing table must not abort the rest of the pass")
	}
	if len(report.Tables) != 1 || report.Tables[0].Collection != "meals" {
		t.Errorf("report tables = %+v, want just meals", report.Tables)
	}
}

func TestReconcileSingleFlightPerTable(t *testing.T) {
	slow := &fakeSyncer{collection: "sessions", delay: 100 * time.Millisecond}
	r := New([]Syncer{slow}, time.Minute, 10, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Reconcile(context.Background())
		}()
	}
	wg.Wait()

	// Concurrent triggers share the in-flight pass instead of stacking up.
	if n := slow.calls.Load(); n >= 4 {
		t.Errorf("table reconciled %d times for 4 concurrent triggers", n)
	}
}

func TestNotifyCoalesces(t *testing.T) {
	r := New(nil, time.Minute, 10, testLogger())
	for i := 0; i < 10; i++ {
		r.Notify() // must never block
	}
	if len(r.notify) != 1 {
		t.Errorf("pending triggers = %d, want coalesced to 1", len(r.notify))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := New(nil, time.Minute, 10, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestTrackAttemptsResetsOnSuccess(t *testing.T) {
	r := New(nil, time.Minute, 3, testLogger())

	failing := syncrepo.TableReport{
		Collection: "sessions",
		Outcomes:   []syncrepo.RecordOutcome{{ID: "s1", Err: errors.New("rejected")}},
	}
	for i := 0; i < 5; i++ {
		r.trackAttempts(failing)
	}
	r.mu.Lock()
	attempts := r.attempts["sessions/s1"]
	r.mu.Unlock()
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5 (never dropped, only reported)", attempts)
	}

	r.trackAttempts(syncrepo.TableReport{
		Collection: "sessions",
		Outcomes:   []syncrepo.RecordOutcome{{ID: "s1"}},
	})
	r.mu.Lock()
	_, stillTracked := r.attempts["sessions/s1"]
	r.mu.Unlock()
	if stillTracked {
		t.Error("successful outcome must clear the attempt counter")
	}
}
