package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"petcare/internal/model"
)

func TestTaskRepositoryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	_, animal := seedAnimal(t, db, 100, "Barsik")
	repo := NewTaskRepository(db)
	ctx := context.Background()

	loc := time.FixedZone("UTC+3", 3*60*60)
	due := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	task := newTask(animal.ID, due)
	task.Kind = model.KindCustom
	task.CustomLabel = "Ear drops"
	task.Recurrence = model.Recurrence{Kind: model.RepeatEveryDays, EveryDays: 3}
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, got.DueAt.Equal(due))
	require.Equal(t, "Ear drops", got.DisplayName())
	require.Equal(t, model.RepeatEveryDays, got.Recurrence.Kind)
	require.Equal(t, 3, got.Recurrence.EveryDays)
	require.False(t, got.Completed)
	require.Nil(t, got.CompletedAt)
	require.Nil(t, got.ReminderHandle)
}

func TestTaskRepositoryMissingTask(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := repo.Get(ctx, id)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, id), model.ErrNotFound)
	require.ErrorIs(t, repo.SetReminderHandle(ctx, id, nil), model.ErrNotFound)
	require.ErrorIs(t, repo.Complete(ctx, id, time.Now(), nil), model.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, &model.CareTask{ID: id}), model.ErrNotFound)
}

func TestTaskRepositoryCompleteIsConditional(t *testing.T) {
	db := newTestDB(t)
	_, animal := seedAnimal(t, db, 100, "Barsik")
	repo := NewTaskRepository(db)
	ctx := context.Background()

	due := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	task := newTask(animal.ID, due)
	handle := "h-1"
	task.ReminderHandle = &handle
	require.NoError(t, repo.Create(ctx, task))

	completedAt := due.Add(time.Hour)
	first := newTask(animal.ID, due.AddDate(0, 0, 1))
	require.NoError(t, repo.Complete(ctx, task.ID, completedAt, first))

	second := newTask(animal.ID, due.AddDate(0, 0, 1))
	require.ErrorIs(t, repo.Complete(ctx, task.ID, completedAt, second), model.ErrNotFound)

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	require.True(t, got.CompletedAt.Equal(completedAt))
	require.Nil(t, got.ReminderHandle)

	tasks, err := repo.TasksByOwner(ctx, animal.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	_, err = repo.Get(ctx, second.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestTaskRepositoryUpdateAndHandle(t *testing.T) {
	db := newTestDB(t)
	_, animal := seedAnimal(t, db, 100, "Barsik")
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask(animal.ID, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, task))

	task.Notes = "half a can"
	task.Recurrence = model.Weekly
	task.ReminderEnabled = false
	require.NoError(t, repo.Update(ctx, task))

	handle := "h-2"
	require.NoError(t, repo.SetReminderHandle(ctx, task.ID, &handle))

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "half a can", got.Notes)
	require.Equal(t, model.RepeatWeekly, got.Recurrence.Kind)
	require.False(t, got.ReminderEnabled)
	require.NotNil(t, got.ReminderHandle)
	require.Equal(t, "h-2", *got.ReminderHandle)

	require.NoError(t, repo.SetReminderHandle(ctx, task.ID, nil))
	got, err = repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Nil(t, got.ReminderHandle)
}

func TestTaskRepositoryQueries(t *testing.T) {
	db := newTestDB(t)
	_, barsik := seedAnimal(t, db, 100, "Barsik")
	_, rex := seedAnimal(t, db, 200, "Rex")
	repo := NewTaskRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	a := newTask(barsik.ID, base.Add(8*time.Hour))
	b := newTask(barsik.ID, base.Add(32*time.Hour))
	c := newTask(rex.ID, base.Add(-2*time.Hour))
	for _, task := range []*model.CareTask{b, a, c} {
		require.NoError(t, repo.Create(ctx, task))
	}
	require.NoError(t, repo.Complete(ctx, c.ID, base, nil))

	byOwner, err := repo.TasksByOwner(ctx, barsik.ID)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID}, taskIDs(byOwner))

	due, err := repo.TasksDueBetween(ctx, base, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, taskIDs(due))

	done, err := repo.TasksWhereCompleted(ctx, true)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, taskIDs(done))

	open, err := repo.TasksWhereCompleted(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID}, taskIDs(open))

	empty, err := repo.TasksByOwners(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func taskIDs(tasks []model.CareTask) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestTaskRepositoryClosedStore(t *testing.T) {
	db := newTestDB(t)
	_, animal := seedAnimal(t, db, 100, "Barsik")
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask(animal.ID, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, task))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.Get(ctx, task.ID)
	require.ErrorIs(t, err, model.ErrStoreUnavailable)
	require.NotErrorIs(t, err, model.ErrNotFound)

	err = repo.Complete(ctx, task.ID, time.Now(), nil)
	require.ErrorIs(t, err, model.ErrStoreUnavailable)
	require.NotErrorIs(t, err, model.ErrNotFound)

	err = repo.Delete(ctx, task.ID)
	require.ErrorIs(t, err, model.ErrStoreUnavailable)

	_, err = repo.TasksByOwner(ctx, animal.ID)
	require.ErrorIs(t, err, model.ErrStoreUnavailable)
}
