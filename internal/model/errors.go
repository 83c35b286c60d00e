package model

import "errors"

var (
	// ErrNotFound covers unknown ids as well as tasks that already reached a terminal state.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps invalid user input (empty custom label, repeat interval below one day).
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable wraps persistence failures that are not a missing record.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrReminderFailure marks a reminder that could not be scheduled. It degrades the
	// task to "no reminder" and is never returned from a task operation.
	ErrReminderFailure = errors.New("reminder failure")
)
