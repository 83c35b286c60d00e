package service

import (
	"time"

	"petcare/internal/clock"
	"petcare/internal/model"
)

// NextDueAt computes the due instant of the occurrence following one due at
// current. ok is false when the policy does not repeat (or is invalid).
// Arithmetic happens on the wall clock of current's location.
func NextDueAt(current time.Time, r model.Recurrence) (next time.Time, ok bool) {
	switch r.Kind {
	case model.RepeatDaily:
		return clock.AddDays(current, 1), true
	case model.RepeatWeekly:
		return clock.AddWeeks(current, 1), true
	case model.RepeatBiweekly:
		return clock.AddWeeks(current, 2), true
	case model.RepeatMonthly:
		return clock.AddMonths(current, 1), true
	case model.RepeatYearly:
		return clock.AddYears(current, 1), true
	case model.RepeatEveryDays:
		if r.EveryDays < 1 {
			return time.Time{}, false
		}
		return clock.AddDays(current, r.EveryDays), true
	default:
		return time.Time{}, false
	}
}
