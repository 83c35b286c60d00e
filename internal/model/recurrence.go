package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RecurrenceKind names a repeat policy.
type RecurrenceKind string

const (
	RepeatNone      RecurrenceKind = "none"
	RepeatDaily     RecurrenceKind = "daily"
	RepeatWeekly    RecurrenceKind = "weekly"
	RepeatBiweekly  RecurrenceKind = "biweekly"
	RepeatMonthly   RecurrenceKind = "monthly"
	RepeatYearly    RecurrenceKind = "yearly"
	RepeatEveryDays RecurrenceKind = "every_n_days"
)

// Recurrence is the repeat policy of a task. EveryDays is only meaningful for RepeatEveryDays.
type Recurrence struct {
	Kind      RecurrenceKind `gorm:"size:16;default:none"`
	EveryDays int
}

var (
	NoRepeat = Recurrence{Kind: RepeatNone}
	Daily    = Recurrence{Kind: RepeatDaily}
	Weekly   = Recurrence{Kind: RepeatWeekly}
	Biweekly = Recurrence{Kind: RepeatBiweekly}
	Monthly  = Recurrence{Kind: RepeatMonthly}
	Yearly   = Recurrence{Kind: RepeatYearly}
)

// EveryNDays builds a custom policy repeating every n days. n must be at least 1.
func EveryNDays(n int) (Recurrence, error) {
	r := Recurrence{Kind: RepeatEveryDays, EveryDays: n}
	if err := r.Validate(); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// IsNone reports whether completing a task with this policy yields no successor.
func (r Recurrence) IsNone() bool {
	return r.Kind == "" || r.Kind == RepeatNone
}

// Validate rejects unknown kinds and custom intervals below one day.
func (r Recurrence) Validate() error {
	switch r.Kind {
	case "", RepeatNone, RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatMonthly, RepeatYearly:
		return nil
	case RepeatEveryDays:
		if r.EveryDays < 1 {
			return fmt.Errorf("%w: repeat interval must be at least 1 day, got %d", ErrValidation, r.EveryDays)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown repeat policy %q", ErrValidation, r.Kind)
	}
}

func (r Recurrence) String() string {
	switch {
	case r.IsNone():
		return "once"
	case r.Kind == RepeatBiweekly:
		return "every 2 weeks"
	case r.Kind == RepeatEveryDays && r.EveryDays == 1:
		return "every day"
	case r.Kind == RepeatEveryDays:
		return fmt.Sprintf("every %d days", r.EveryDays)
	default:
		return string(r.Kind)
	}
}

// ParseRecurrence accepts none, daily, weekly, biweekly, monthly, yearly,
// every:N and Nd.
func ParseRecurrence(raw string) (Recurrence, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "none", "once":
		return NoRepeat, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "biweekly":
		return Biweekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}

	var digits string
	switch {
	case strings.HasPrefix(s, "every:"):
		digits = strings.TrimPrefix(s, "every:")
	case strings.HasSuffix(s, "d"):
		digits = strings.TrimSuffix(s, "d")
	default:
		return Recurrence{}, fmt.Errorf("%w: unknown repeat policy %q", ErrValidation, raw)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Recurrence{}, fmt.Errorf("%w: invalid repeat interval %q", ErrValidation, raw)
	}
	return EveryNDays(n)
}
