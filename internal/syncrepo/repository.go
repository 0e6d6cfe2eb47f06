package syncrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rghsoftware/mealsync/internal/gateway"
	"github.com/rghsoftware/mealsync/internal/store"
)

// ErrNotFound is returned when neither the server nor the local store holds
// the record.
var ErrNotFound = errors.New("record not found")

// Record is the envelope contract every syncable entity satisfies
// (models.SyncMeta provides the implementation).
type Record interface {
	RecordID() string
	Synced() bool
	SetSynced(bool)
	ModifiedAt() int64
	Touch(now int64)
}

// RecordPtr constrains a type parameter to "pointer to the entity struct",
// which lets the repository allocate fresh values and compare against nil.
type RecordPtr[T any] interface {
	*T
	Record
}

// Local is the durable on-device store for one entity table. Reads and
// writes never touch the network and are treated as fast.
type Local[R any] interface {
	Get(id string) (R, error)
	Put(R) error
	Delete(id string) error
	ListUnsynced() ([]R, error)
}

// Remote performs the typed server operations for one entity collection.
type Remote[R any] interface {
	Create(ctx context.Context, rec R) (R, error)
	Get(ctx context.Context, id string) (R, error)
	Update(ctx context.Context, rec R) (R, error)
	Delete(ctx context.Context, id string) error
}

// RecordOutcome reports one record's fate during a reconciliation pass.
type RecordOutcome struct {
	ID  string
	Err error
}

// TableReport summarizes one entity table's reconciliation pass.
type TableReport struct {
	Collection string
	Scanned    int
	Synced     int
	Failed     int
	Deleted    int
	Outcomes   []RecordOutcome
}

// Repository orchestrates "write local, then best-effort remote" for one
// entity table. It is the only writer of the record sync flag.
type Repository[T any, PT RecordPtr[T]] struct {
	collection string
	local      Local[PT]
	remote     Remote[PT]
	tombstones *store.TombstoneStore
	confirmed  *store.ConfirmedStore
	bus        *Bus
	logger     *slog.Logger
	now        func() time.Time
}

func New[T any, PT RecordPtr[T]](
	collection string,
	local Local[PT],
	remote Remote[PT],
	tombstones *store.TombstoneStore,
	confirmed *store.ConfirmedStore,
	bus *Bus,
	logger *slog.Logger,
) *Repository[T, PT] {
	return &Repository[T, PT]{
		collection: collection,
		local:      local,
		remote:     remote,
		tombstones: tombstones,
		confirmed:  confirmed,
		bus:        bus,
		logger:     logger,
		now:        time.Now,
	}
}

// Collection returns the entity table this repository serves.
func (r *Repository[T, PT]) Collection() string { return r.collection }

// Write persists the record locally, synchronously, then attempts the remote
// call. A server-confirmed ID is replayed as an update, never a second
// create. On success the server's representation is authoritative and
// replaces local fields (the ID never changes). An unreachable server is not
// an error: the caller gets back a valid, eventually-consistent record with
// the sync flag down. A server rejection keeps the local write and surfaces
// the error.
func (r *Repository[T, PT]) Write(ctx context.Context, rec PT) (PT, error) {
	rec.Touch(r.now().Unix())
	rec.SetSynced(false)
	if err := r.local.Put(rec); err != nil {
		return nil, fmt.Errorf("local write %s/%s: %w", r.collection, rec.RecordID(), err)
	}
	r.bus.Publish(Event{Collection: r.collection, ID: rec.RecordID(), Kind: EventWrite})

	return r.push(ctx, rec)
}

// push performs the remote half of a write and records the outcome.
func (r *Repository[T, PT]) push(ctx context.Context, rec PT) (PT, error) {
	wasConfirmed, err := r.confirmed.Has(r.collection, rec.RecordID())
	if err != nil {
		return nil, err
	}

	var serverRec PT
	if wasConfirmed {
		serverRec, err = r.remote.Update(ctx, rec)
	} else {
		serverRec, err = r.remote.Create(ctx, rec)
	}

	switch {
	case err == nil:
		serverRec.SetSynced(true)
		if perr := r.local.Put(serverRec); perr != nil {
			return nil, fmt.Errorf("store server copy %s/%s: %w", r.collection, rec.RecordID(), perr)
		}
		if cerr := r.confirmed.Add(r.collection, rec.RecordID()); cerr != nil {
			r.logger.Warn("failed to record server confirmation",
				"collection", r.collection, "id", rec.RecordID(), "error", cerr)
		}
		r.bus.Publish(Event{Collection: r.collection, ID: rec.RecordID(), Kind: EventWrite})
		return serverRec, nil

	case errors.Is(err, gateway.ErrUnreachable):
		// Offline is not a failure. The record stays pending and the
		// reconciler picks it up later.
		r.logger.Debug("server unreachable, record pending",
			"collection", r.collection, "id", rec.RecordID())
		return rec, nil

	default:
		// Server verdict: the local write is preserved, the caller sees
		// the rejection.
		return rec, fmt.Errorf("sync %s/%s: %w", r.collection, rec.RecordID(), err)
	}
}

// Read fetches the authoritative server copy, refreshing the local store on
// success. An unreachable server falls back to local data. A server 404
// still honors a local record that has not been pushed yet.
func (r *Repository[T, PT]) Read(ctx context.Context, id string) (PT, error) {
	serverRec, err := r.remote.Get(ctx, id)
	switch {
	case err == nil:
		serverRec.SetSynced(true)
		if perr := r.local.Put(serverRec); perr != nil {
			r.logger.Warn("failed to refresh local copy",
				"collection", r.collection, "id", id, "error", perr)
		}
		if cerr := r.confirmed.Add(r.collection, id); cerr != nil {
			r.logger.Warn("failed to record server confirmation",
				"collection", r.collection, "id", id, "error", cerr)
		}
		return serverRec, nil

	case errors.Is(err, gateway.ErrUnreachable):
		local, lerr := r.local.Get(id)
		if lerr != nil {
			return nil, fmt.Errorf("local read %s/%s: %w", r.collection, id, lerr)
		}
		if local == nil {
			return nil, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
		}
		return local, nil

	case errors.Is(err, gateway.ErrNotFound):
		local, lerr := r.local.Get(id)
		if lerr == nil && local != nil && !local.Synced() {
			return local, nil
		}
		return nil, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)

	default:
		return nil, fmt.Errorf("read %s/%s: %w", r.collection, id, err)
	}
}

// ReadLocal returns the on-device copy without touching the network.
func (r *Repository[T, PT]) ReadLocal(id string) (PT, error) {
	local, err := r.local.Get(id)
	if err != nil {
		return nil, fmt.Errorf("local read %s/%s: %w", r.collection, id, err)
	}
	if local == nil {
		return nil, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
	}
	return local, nil
}

// Delete honors the deletion locally regardless of remote reachability; only
// an explicit server rejection (other than 404) blocks it. An offline delete
// leaves a tombstone for the reconciler to replay.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	err := r.remote.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrUnreachable):
		if terr := r.tombstones.Add(r.collection, id); terr != nil {
			return fmt.Errorf("tombstone %s/%s: %w", r.collection, id, terr)
		}
	default:
		return fmt.Errorf("delete %s/%s: %w", r.collection, id, err)
	}

	if err := r.local.Delete(id); err != nil {
		return fmt.Errorf("local delete %s/%s: %w", r.collection, id, err)
	}
	if cerr := r.confirmed.Remove(r.collection, id); cerr != nil {
		r.logger.Warn("failed to clear server confirmation",
			"collection", r.collection, "id", id, "error", cerr)
	}
	r.bus.Publish(Event{Collection: r.collection, ID: id, Kind: EventDelete})
	return nil
}

// ReconcileUnsynced replays pending writes oldest-first and pending deletes,
// recording per-record outcomes without aborting on a single failure. Each
// record is re-read immediately before its remote call so a foreground write
// landed mid-pass wins over the scanned snapshot. The pass is cancellable
// between records; an in-flight remote call always completes.
func (r *Repository[T, PT]) ReconcileUnsynced(ctx context.Context) (TableReport, error) {
	report := TableReport{Collection: r.collection}

	pending, err := r.local.ListUnsynced()
	if err != nil {
		return report, fmt.Errorf("scan %s: %w", r.collection, err)
	}
	report.Scanned = len(pending)

	for _, stale := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		// Re-read: the foreground may have written (or deleted) this
		// record since the scan.
		rec, err := r.local.Get(stale.RecordID())
		if err != nil {
			report.Failed++
			report.Outcomes = append(report.Outcomes, RecordOutcome{ID: stale.RecordID(), Err: err})
			continue
		}
		if rec == nil || rec.Synced() {
			continue
		}

		pushed, err := r.push(ctx, rec)
		switch {
		case err != nil:
			report.Failed++
			report.Outcomes = append(report.Outcomes, RecordOutcome{ID: rec.RecordID(), Err: err})
		case pushed.Synced():
			report.Synced++
			report.Outcomes = append(report.Outcomes, RecordOutcome{ID: rec.RecordID()})
		default:
			// Unreachable: still pending, not a failure.
			report.Outcomes = append(report.Outcomes, RecordOutcome{ID: rec.RecordID(), Err: gateway.ErrUnreachable})
		}
	}

	tombstones, err := r.tombstones.List(r.collection)
	if err != nil {
		return report, fmt.Errorf("scan tombstones %s: %w", r.collection, err)
	}
	for _, t := range tombstones {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		err := r.remote.Delete(ctx, t.RecordID)
		switch {
		case err == nil:
			if rerr := r.tombstones.Remove(t.Collection, t.RecordID); rerr != nil {
				r.logger.Warn("failed to clear tombstone",
					"collection", t.Collection, "id", t.RecordID, "error", rerr)
			}
			report.Deleted++
		case errors.Is(err, gateway.ErrUnreachable):
			// Still offline; replay next pass.
		default:
			report.Failed++
			report.Outcomes = append(report.Outcomes, RecordOutcome{ID: t.RecordID, Err: err})
		}
	}

	return report, nil
}
