package models

// SyncMeta is the envelope every syncable record embeds. The ID is generated
// client-side at creation time so the record is addressable before any network
// round-trip, and the same ID is kept when the server accepts it.
// SyncedToServer is written only by the sync repository.
type SyncMeta struct {
	ID             string `json:"id"`
	CreatedAt      int64  `json:"createdAt"`
	UpdatedAt      int64  `json:"updatedAt"`
	SyncedToServer bool   `json:"syncedToServer"`
}

// RecordID returns the stable client-generated identifier.
func (m *SyncMeta) RecordID() string { return m.ID }

// Synced reports whether the local copy has been accepted by the server.
func (m *SyncMeta) Synced() bool { return m.SyncedToServer }

// SetSynced flips the sync flag. Only the sync repository calls this.
func (m *SyncMeta) SetSynced(v bool) { m.SyncedToServer = v }

// ModifiedAt returns the optimistic version marker used to keep remote
// application of writes in order.
func (m *SyncMeta) ModifiedAt() int64 { return m.UpdatedAt }

// Touch stamps the modification time (and the creation time if unset).
func (m *SyncMeta) Touch(now int64) {
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}
