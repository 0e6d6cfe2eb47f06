package models

// MealLog records a meal together with the user's energy level before and
// after eating (1..5 when present).
type MealLog struct {
	SyncMeta
	MealType     MealType `json:"mealType"`
	Name         string   `json:"name"`
	EnergyBefore *int     `json:"energyBefore,omitempty"`
	EnergyAfter  *int     `json:"energyAfter,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	LoggedAt     int64    `json:"loggedAt"`
}

// Room is a body-doubling session: participants cook "together"
// asynchronously. Thin persisted records on top of the sync mechanics.
type Room struct {
	SyncMeta
	Name   string `json:"name"`
	HostID string `json:"hostId"`
	Closed bool   `json:"closed"`
}

// RoomParticipant tracks one user's presence in a room.
type RoomParticipant struct {
	SyncMeta
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	JoinedAt int64  `json:"joinedAt"`
	LeftAt   *int64 `json:"leftAt,omitempty"`
}
