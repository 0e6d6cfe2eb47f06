package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// record is the envelope surface the handlers need from every entity
// (models.SyncMeta provides it).
type record interface {
	RecordID() string
	ModifiedAt() int64
	Touch(now int64)
}

// serverStore is the storage surface for one entity table.
type serverStore[R any] interface {
	Get(id string) (R, error)
	Put(R) error
	Delete(id string) error
}

// resource serves CRUD for one entity collection. The stored representation
// is authoritative: every success echoes what the server now holds.
type resource[T any, PT interface {
	*T
	record
}] struct {
	rows serverStore[PT]
}

func newResource[T any, PT interface {
	*T
	record
}](rows serverStore[PT]) *resource[T, PT] {
	return &resource[T, PT]{rows: rows}
}

// create handles POST /{collection}. Creates are idempotent per ID: a replay
// of an already-accepted record replaces it instead of conflicting, so a
// client retrying after a lost response never produces a duplicate.
func (h *resource[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	rec := PT(new(T))
	if err := decodeJSON(r, rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if rec.RecordID() == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if rec.ModifiedAt() == 0 {
		rec.Touch(time.Now().Unix())
	}
	if err := h.rows.Put(rec); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// get handles GET /{collection}/{id}.
func (h *resource[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.rows.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// update handles PUT /{collection}/{id}. The client's updatedAt acts as an
// optimistic version marker: an update older than the stored row is refused
// so an out-of-order replay can never clobber a newer accepted write.
func (h *resource[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec := PT(new(T))
	if err := decodeJSON(r, rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if rec.RecordID() != id {
		writeError(w, http.StatusBadRequest, "body id does not match path")
		return
	}

	existing, err := h.rows.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil && rec.ModifiedAt() < existing.ModifiedAt() {
		writeError(w, http.StatusConflict, "stale update: a newer version was already accepted")
		return
	}

	if err := h.rows.Put(rec); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// del handles DELETE /{collection}/{id}. Deleting an absent record succeeds.
func (h *resource[T, PT]) del(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.rows.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mount registers the CRUD routes for one collection.
func (h *resource[T, PT]) mount(r chi.Router, collection string) {
	r.Route("/"+collection, func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.del)
	})
}
