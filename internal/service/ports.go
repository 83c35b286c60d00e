package service

import (
	"context"
	"time"

	"petcare/internal/model"
)

// TaskStore persists care tasks. Implementations return errors wrapping
// model.ErrNotFound for missing records and model.ErrStoreUnavailable for
// everything else.
type TaskStore interface {
	Create(ctx context.Context, task *model.CareTask) error
	Get(ctx context.Context, taskID string) (*model.CareTask, error)
	Update(ctx context.Context, task *model.CareTask) error
	// Complete atomically marks a pending task completed, clears its reminder
	// handle and inserts successor (when non-nil).
	Complete(ctx context.Context, taskID string, completedAt time.Time, successor *model.CareTask) error
	SetReminderHandle(ctx context.Context, taskID string, handle *string) error
	Delete(ctx context.Context, taskID string) error
	TasksByOwner(ctx context.Context, ownerID string) ([]model.CareTask, error)
	TasksByOwners(ctx context.Context, ownerIDs []string) ([]model.CareTask, error)
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.CareTask, error)
	TasksWhereCompleted(ctx context.Context, completed bool) ([]model.CareTask, error)
}

// ReminderPort schedules alerts with the notification subsystem. The
// scheduler treats every Schedule error the same way: no reminder.
type ReminderPort interface {
	Schedule(ctx context.Context, taskID string, dueAt time.Time, text string) (handle string, err error)
	Cancel(ctx context.Context, handle string) error
}

// AnimalStore persists animals.
type AnimalStore interface {
	Create(ctx context.Context, animal *model.Animal) error
	Get(ctx context.Context, id string) (*model.Animal, error)
	FindByName(ctx context.Context, userID uint, name string) (*model.Animal, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Animal, error)
	Update(ctx context.Context, animal *model.Animal) error
	Delete(ctx context.Context, id string) error
}

// Notifier delivers a message to a Telegram chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}
