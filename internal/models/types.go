package models

// SessionStatus is the lifecycle state of a cooking session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionActive, SessionPaused, SessionCompleted, SessionAbandoned:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer be mutated.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// TimerStatus is the lifecycle state of a cooking timer.
type TimerStatus string

const (
	TimerRunning   TimerStatus = "running"
	TimerPaused    TimerStatus = "paused"
	TimerCompleted TimerStatus = "completed"
	TimerCancelled TimerStatus = "cancelled"
)

func (s TimerStatus) IsValid() bool {
	switch s {
	case TimerRunning, TimerPaused, TimerCompleted, TimerCancelled:
		return true
	}
	return false
}

func (s TimerStatus) Terminal() bool {
	return s == TimerCompleted || s == TimerCancelled
}

// MealType classifies a logged meal.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

var ValidMealTypes = map[MealType]bool{
	MealBreakfast: true,
	MealLunch:     true,
	MealDinner:    true,
	MealSnack:     true,
}

func (t MealType) IsValid() bool {
	return ValidMealTypes[t]
}

// Collection names address entity tables in change events, tombstones,
// and sync reports. They double as the REST resource paths on the backend.
const (
	CollectionSessions  = "sessions"
	CollectionTimers    = "timers"
	CollectionSteps     = "steps"
	CollectionReminders = "reminders"
	CollectionMeals     = "meals"
	CollectionRooms     = "rooms"
)
