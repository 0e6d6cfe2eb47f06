package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision, serialized as "HH:MM".
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return t, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return t, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MealReminder is a weekly recurring reminder definition. Its concrete
// notification instants are derived, never persisted: every create or edit
// re-derives the full set from scratch so a stale day-set or time can never
// leave orphaned schedules behind.
type MealReminder struct {
	SyncMeta
	Name            string         `json:"name"`
	ScheduledTime   TimeOfDay      `json:"scheduledTime"`
	PreAlertMinutes int            `json:"preAlertMinutes"`
	Enabled         bool           `json:"enabled"`
	DaysOfWeek      []time.Weekday `json:"daysOfWeek"`
}

// HasDay reports whether the reminder is enabled for the given weekday.
func (r *MealReminder) HasDay(d time.Weekday) bool {
	for _, day := range r.DaysOfWeek {
		if day == d {
			return true
		}
	}
	return false
}
