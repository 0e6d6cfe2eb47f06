package models

import "time"

// CookingSession tracks a user cooking through a recipe breakdown.
// Completed and abandoned sessions are frozen; no further mutation is
// permitted. TotalPauseDurationSeconds only grows, and only while
// transitioning out of paused.
type CookingSession struct {
	SyncMeta
	RecipeID                  string        `json:"recipeId"`
	BreakdownID               *string       `json:"breakdownId,omitempty"`
	Status                    SessionStatus `json:"status"`
	CurrentStepIndex          int           `json:"currentStepIndex"`
	TotalSteps                int           `json:"totalSteps"`
	EnergyLevel               *int          `json:"energyLevel,omitempty"`
	StartedAt                 int64         `json:"startedAt"`
	PausedAt                  *int64        `json:"pausedAt,omitempty"`
	ResumedAt                 *int64        `json:"resumedAt,omitempty"`
	CompletedAt               *int64        `json:"completedAt,omitempty"`
	AbandonedAt               *int64        `json:"abandonedAt,omitempty"`
	TotalPauseDurationSeconds int64         `json:"totalPauseDurationSeconds"`
}

// ActiveElapsed returns how long the session has been actively cooking:
// wall-clock time since start minus accumulated pause time. While paused the
// value is frozen at the pause instant.
func (s *CookingSession) ActiveElapsed(now time.Time) time.Duration {
	end := now.Unix()
	switch {
	case s.Status == SessionPaused && s.PausedAt != nil:
		end = *s.PausedAt
	case s.Status == SessionCompleted && s.CompletedAt != nil:
		end = *s.CompletedAt
	case s.Status == SessionAbandoned && s.AbandonedAt != nil:
		end = *s.AbandonedAt
	}
	elapsed := end - s.StartedAt - s.TotalPauseDurationSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	return time.Duration(elapsed) * time.Second
}

// StepCompletion records one completed (or skipped) step of a session.
// Keyed by (SessionID, StepIndex): a duplicate completion for the same step
// replaces the previous record rather than appending.
type StepCompletion struct {
	SyncMeta
	SessionID        string `json:"sessionId"`
	StepIndex        int    `json:"stepIndex"`
	TimeTakenSeconds *int64 `json:"timeTakenSeconds,omitempty"`
	Skipped          bool   `json:"skipped"`
	Notes            string `json:"notes,omitempty"`
}

// CookingTimer is a countdown owned by its parent session. Remaining time is
// always derived from the stored timestamps, never persisted, so snapshots
// cannot drift from wall-clock reality.
type CookingTimer struct {
	SyncMeta
	SessionID                 string      `json:"sessionId"`
	StepIndex                 *int        `json:"stepIndex,omitempty"`
	Name                      string      `json:"name"`
	DurationSeconds           int64       `json:"durationSeconds"`
	Status                    TimerStatus `json:"status"`
	StartedAt                 int64       `json:"startedAt"`
	PausedAt                  *int64      `json:"pausedAt,omitempty"`
	ResumedAt                 *int64      `json:"resumedAt,omitempty"`
	TotalPauseDurationSeconds int64       `json:"totalPauseDurationSeconds"`
	NotificationSent          bool        `json:"notificationSent"`
}

// Remaining derives the seconds left on the timer at the given instant.
// While paused the value is frozen at the pause instant. May be negative for
// a running timer that has passed its duration.
func (t *CookingTimer) Remaining(now time.Time) int64 {
	end := now.Unix()
	if t.Status == TimerPaused && t.PausedAt != nil {
		end = *t.PausedAt
	}
	return t.DurationSeconds - (end - t.StartedAt - t.TotalPauseDurationSeconds)
}
