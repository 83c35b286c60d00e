package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"petcare/internal/model"
)

// ReminderRepository is the outbox of scheduled reminders.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	reminder.FireAt = reminder.FireAt.UTC()
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return storeError("create reminder", err)
	}
	return nil
}

// DeletePending removes a reminder that has not fired yet.
func (r *ReminderRepository) DeletePending(ctx context.Context, handle string) error {
	res := r.db.WithContext(ctx).Where("handle = ? AND sent_at IS NULL", handle).Delete(&model.Reminder{})
	if res.Error != nil {
		return storeError("delete reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("delete reminder")
	}
	return nil
}

// ListDue returns unsent reminders with fire_at <= now, oldest first.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	var reminders []model.Reminder
	q := r.db.WithContext(ctx).Where("sent_at IS NULL AND fire_at <= ?", now.UTC()).Order("fire_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&reminders).Error; err != nil {
		return nil, storeError("list due reminders", err)
	}
	return reminders, nil
}

// MarkSent records delivery and releases the handle on the task it belongs
// to, unless the task has moved on to another handle.
func (r *ReminderRepository) MarkSent(ctx context.Context, handle string, sentAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Reminder{}).
			Where("handle = ? AND sent_at IS NULL", handle).
			Update("sent_at", sentAt.UTC())
		if res.Error != nil {
			return storeError("mark reminder sent", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("mark reminder sent")
		}
		if err := tx.Model(&model.CareTask{}).
			Where("reminder_handle = ?", handle).
			Update("reminder_handle", nil).Error; err != nil {
			return storeError("release reminder handle", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrStoreUnavailable) {
		return storeError("mark reminder sent", err)
	}
	return err
}

// RecipientForTask resolves the chat and animal name of a task's owner.
func (r *ReminderRepository) RecipientForTask(ctx context.Context, taskID string) (model.Recipient, error) {
	var rcpt model.Recipient
	res := r.db.WithContext(ctx).Table("care_tasks").
		Select("users.chat_id AS chat_id, animals.name AS animal_name").
		Joins("JOIN animals ON animals.id = care_tasks.owner_id").
		Joins("JOIN users ON users.id = animals.user_id").
		Where("care_tasks.id = ?", taskID).
		Limit(1).
		Scan(&rcpt)
	if res.Error != nil {
		return model.Recipient{}, storeError("resolve recipient", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Recipient{}, notFound("resolve recipient")
	}
	return rcpt, nil
}
