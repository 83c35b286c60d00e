package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"petcare/internal/model"
)

// TaskRepository handles CRUD for care tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.CareTask) error {
	normalizeTask(task)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return storeError("create task", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, taskID string) (*model.CareTask, error) {
	var task model.CareTask
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, storeError("find task", err)
	}
	return &task, nil
}

// Update overwrites the mutable fields of an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *model.CareTask) error {
	normalizeTask(task)
	res := r.db.WithContext(ctx).Model(&model.CareTask{ID: task.ID}).
		Select("*").Omit("id", "owner_id", "created_at").
		Updates(task)
	if res.Error != nil {
		return storeError("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("update task")
	}
	return nil
}

// Complete marks a pending task completed and, within the same transaction,
// inserts its successor when one is given. A task that is missing or already
// completed yields ErrNotFound and nothing is written.
func (r *TaskRepository) Complete(ctx context.Context, taskID string, completedAt time.Time, successor *model.CareTask) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CareTask{}).
			Where("id = ? AND completed = ?", taskID, false).
			Updates(map[string]interface{}{
				"completed":       true,
				"completed_at":    completedAt.UTC(),
				"reminder_handle": nil,
			})
		if res.Error != nil {
			return storeError("complete task", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("complete task")
		}
		if successor == nil {
			return nil
		}
		normalizeTask(successor)
		if err := tx.Create(successor).Error; err != nil {
			return storeError("create successor", err)
		}
		return nil
	})
	// Begin and commit failures come back unwrapped.
	if err != nil && !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrStoreUnavailable) {
		return storeError("complete task", err)
	}
	return err
}

// SetReminderHandle stores or clears (nil) the reminder handle of a task.
func (r *TaskRepository) SetReminderHandle(ctx context.Context, taskID string, handle *string) error {
	res := r.db.WithContext(ctx).Model(&model.CareTask{}).
		Where("id = ?", taskID).
		Update("reminder_handle", handle)
	if res.Error != nil {
		return storeError("set reminder handle", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("set reminder handle")
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&model.CareTask{})
	if res.Error != nil {
		return storeError("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("delete task")
	}
	return nil
}

func (r *TaskRepository) TasksByOwner(ctx context.Context, ownerID string) ([]model.CareTask, error) {
	return r.TasksByOwners(ctx, []string{ownerID})
}

func (r *TaskRepository) TasksByOwners(ctx context.Context, ownerIDs []string) ([]model.CareTask, error) {
	var tasks []model.CareTask
	if len(ownerIDs) == 0 {
		return tasks, nil
	}
	if err := r.db.WithContext(ctx).Where("owner_id IN ?", ownerIDs).
		Order("due_at ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, storeError("list tasks by owner", err)
	}
	return tasks, nil
}

// TasksDueBetween returns tasks with start <= due_at < end.
func (r *TaskRepository) TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.CareTask, error) {
	var tasks []model.CareTask
	if err := r.db.WithContext(ctx).Where("due_at >= ? AND due_at < ?", start.UTC(), end.UTC()).
		Order("due_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, storeError("list tasks due", err)
	}
	return tasks, nil
}

func (r *TaskRepository) TasksWhereCompleted(ctx context.Context, completed bool) ([]model.CareTask, error) {
	var tasks []model.CareTask
	if err := r.db.WithContext(ctx).Where("completed = ?", completed).
		Order("due_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, storeError("list tasks by status", err)
	}
	return tasks, nil
}

// normalizeTask stores instants in UTC. SQLite compares timestamps as text,
// so mixed offsets would break range queries.
func normalizeTask(task *model.CareTask) {
	task.DueAt = task.DueAt.UTC()
	if task.CompletedAt != nil {
		at := task.CompletedAt.UTC()
		task.CompletedAt = &at
	}
}
