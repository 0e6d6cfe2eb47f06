package schedule

import (
	"time"

	"github.com/rghsoftware/mealsync/internal/models"
)

// OccurrenceKind distinguishes the main reminder from its pre-alert.
type OccurrenceKind string

const (
	KindMain     OccurrenceKind = "main"
	KindPreAlert OccurrenceKind = "preAlert"
)

// Occurrence is one concrete notification instant derived from a reminder.
type Occurrence struct {
	Day  time.Weekday
	At   time.Time
	Kind OccurrenceKind
}

// NextOccurrence returns the single well-defined next instant for "weekday
// day at time t", evaluated at now. Today counts only if t is still strictly
// in the future; a candidate that lands on the right weekday but has already
// passed advances by exactly seven days. Re-checking after the weekday walk
// is what keeps the boundary case (evaluated exactly at t on the right day)
// from drifting a week.
func NextOccurrence(now time.Time, day time.Weekday, t models.TimeOfDay) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	for candidate.Weekday() != day {
		candidate = candidate.AddDate(0, 0, 1)
	}
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// PreAlertTime subtracts minutes from a time of day with borrow across
// midnight. The returned day offset is 0 or -1: 00:10 minus 20 minutes is
// 23:50 the previous day.
func PreAlertTime(t models.TimeOfDay, minutes int) (models.TimeOfDay, int) {
	total := t.Hour*60 + t.Minute - minutes
	dayOffset := 0
	for total < 0 {
		total += 24 * 60
		dayOffset--
	}
	return models.TimeOfDay{Hour: total / 60, Minute: total % 60}, dayOffset
}

// DeriveOccurrences computes the full set of notification instants for a
// reminder at the evaluation instant: one main occurrence per enabled day,
// plus a pre-alert when PreAlertMinutes is positive. The derivation is a pure
// function of (reminder, now); calling it twice yields the same instants.
func DeriveOccurrences(r *models.MealReminder, now time.Time) []Occurrence {
	var occurrences []Occurrence
	for _, day := range r.DaysOfWeek {
		main := NextOccurrence(now, day, r.ScheduledTime)
		occurrences = append(occurrences, Occurrence{Day: day, At: main, Kind: KindMain})

		if r.PreAlertMinutes > 0 {
			preTime, dayOffset := PreAlertTime(r.ScheduledTime, r.PreAlertMinutes)
			pre := time.Date(main.Year(), main.Month(), main.Day(),
				preTime.Hour, preTime.Minute, 0, 0, main.Location()).
				AddDate(0, 0, dayOffset)
			occurrences = append(occurrences, Occurrence{Day: day, At: pre, Kind: KindPreAlert})
		}
	}
	return occurrences
}
