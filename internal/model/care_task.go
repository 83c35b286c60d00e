package model

import (
	"fmt"
	"strings"
	"time"
)

// CareTask is one occurrence of a care obligation for an animal.
type CareTask struct {
	ID              string `gorm:"primaryKey;size:36"`
	OwnerID         string `gorm:"index;size:36;not null"`
	Kind            Kind   `gorm:"size:32"`
	CustomLabel     string
	Notes           string
	DueAt           time.Time `gorm:"index"`
	Completed       bool      `gorm:"index;default:false"`
	CompletedAt     *time.Time
	Recurrence      Recurrence `gorm:"embedded;embeddedPrefix:recurrence_"`
	ReminderEnabled bool
	ReminderHandle  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName is the text shown for the task: the custom label for custom kinds.
func (t CareTask) DisplayName() string {
	if t.Kind == KindCustom && strings.TrimSpace(t.CustomLabel) != "" {
		return t.CustomLabel
	}
	if info, ok := KindCatalog[t.Kind]; ok {
		return info.Label
	}
	return string(t.Kind)
}

// HasReminder reports whether a reminder is currently scheduled for the task.
func (t CareTask) HasReminder() bool {
	return t.ReminderHandle != nil
}

// ValidateKind checks the kind is known and custom kinds carry a label.
func ValidateKind(kind Kind, customLabel string) error {
	if _, ok := KindCatalog[kind]; !ok {
		return fmt.Errorf("%w: unknown task kind %q", ErrValidation, kind)
	}
	if kind == KindCustom && strings.TrimSpace(customLabel) == "" {
		return fmt.Errorf("%w: custom task needs a label", ErrValidation)
	}
	return nil
}
