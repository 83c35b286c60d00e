package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petcare/internal/clock"
	"petcare/internal/model"
	"petcare/internal/repository"
)

type reminderFixture struct {
	tasks    *repository.TaskRepository
	outbox   *repository.ReminderRepository
	users    *repository.UserRepository
	notifier *notifierMock
	clock    *clock.Manual
	svc      *ReminderService
	user     *model.User
	animal   *model.Animal
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	db := newTestDB(t)
	user, animal := seedOwner(t, db, 555, "Rex")
	f := &reminderFixture{
		tasks:    repository.NewTaskRepository(db),
		outbox:   repository.NewReminderRepository(db),
		users:    repository.NewUserRepository(db),
		notifier: new(notifierMock),
		clock:    clock.NewManual(at(2024, 3, 10, 9, 0)),
		user:     user,
		animal:   animal,
	}
	f.svc = NewReminderService(f.outbox, f.tasks, repository.NewAnimalRepository(db), f.users,
		f.notifier, 1000, f.clock, nopLog)
	return f
}

func TestReminderServiceScheduleAndDispatch(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	task := &model.CareTask{ID: "task-1", OwnerID: f.animal.ID, Kind: model.KindWalking, DueAt: at(2024, 3, 10, 10, 0)}
	require.NoError(t, f.tasks.Create(ctx, task))

	handle, err := f.svc.Schedule(ctx, task.ID, task.DueAt, task.DisplayName())
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	sent, err := f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)

	f.clock.Set(at(2024, 3, 10, 10, 0))
	f.notifier.On("Notify", mock.Anything, int64(555), mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Pet Care Reminder") && strings.Contains(text, "Walking for Rex")
	})).Return(nil).Once()

	sent, err = f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	sent, err = f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)

	// Fired reminders can no longer be cancelled.
	require.ErrorIs(t, f.svc.Cancel(ctx, handle), model.ErrNotFound)
	f.notifier.AssertExpectations(t)
}

func TestDeliveredReminderReleasesTaskHandle(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	scheduler := NewTaskScheduler(f.tasks, f.svc, f.clock, nopLog)

	task, err := scheduler.CreateTask(ctx, TaskInput{
		OwnerID:         f.animal.ID,
		Kind:            model.KindMedication,
		DueAt:           at(2024, 3, 10, 9, 30),
		ReminderEnabled: true,
	})
	require.NoError(t, err)
	require.True(t, task.HasReminder())

	f.clock.Set(at(2024, 3, 10, 9, 30))
	f.notifier.On("Notify", mock.Anything, int64(555), mock.Anything).Return(nil).Once()
	sent, err := f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	stored, err := f.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.False(t, stored.HasReminder())

	res, err := scheduler.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.Nil(t, res.Successor)
	f.notifier.AssertExpectations(t)
}

func TestReminderServiceRetriesFailedDelivery(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	task := &model.CareTask{ID: "task-1", OwnerID: f.animal.ID, Kind: model.KindFeeding, DueAt: at(2024, 3, 10, 8, 0)}
	require.NoError(t, f.tasks.Create(ctx, task))
	_, err := f.svc.Schedule(ctx, task.ID, task.DueAt, task.DisplayName())
	require.NoError(t, err)

	f.notifier.On("Notify", mock.Anything, int64(555), mock.Anything).Return(errors.New("telegram down")).Once()
	sent, err := f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)

	f.notifier.On("Notify", mock.Anything, int64(555), mock.Anything).Return(nil).Once()
	sent, err = f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
}

func TestReminderServiceCancelAndUnknownTask(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	task := &model.CareTask{ID: "task-1", OwnerID: f.animal.ID, Kind: model.KindFeeding, DueAt: at(2024, 3, 10, 8, 0)}
	require.NoError(t, f.tasks.Create(ctx, task))
	handle, err := f.svc.Schedule(ctx, task.ID, task.DueAt, "Feeding")
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, handle))

	sent, err := f.svc.DispatchDue(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)

	_, err = f.svc.Schedule(ctx, "no-such-task", at(2024, 3, 10, 8, 0), "Feeding")
	require.ErrorIs(t, err, model.ErrReminderFailure)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestDailyDigest(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	doneAt := at(2024, 3, 10, 7, 30)
	for _, task := range []*model.CareTask{
		{ID: "t-overdue", OwnerID: f.animal.ID, Kind: model.KindMedication, DueAt: at(2024, 3, 9, 20, 0), Notes: "<1 pill>"},
		{ID: "t-today", OwnerID: f.animal.ID, Kind: model.KindCustom, CustomLabel: "Brush coat", DueAt: at(2024, 3, 10, 18, 0), Recurrence: model.Weekly},
		{ID: "t-later", OwnerID: f.animal.ID, Kind: model.KindVetVisit, DueAt: at(2024, 3, 20, 10, 0)},
		{ID: "t-done", OwnerID: f.animal.ID, Kind: model.KindFeeding, DueAt: at(2024, 3, 10, 7, 0), Completed: true, CompletedAt: &doneAt},
	} {
		require.NoError(t, f.tasks.Create(ctx, task))
	}

	text, err := f.svc.DailyDigest(ctx, *f.user, now)
	require.NoError(t, err)
	require.Contains(t, text, "Daily care digest")
	require.Contains(t, text, "<b>Medication</b> · Rex")
	require.Contains(t, text, "&lt;1 pill&gt;")
	require.Contains(t, text, "<b>Brush coat</b>")
	require.Contains(t, text, "🔁 weekly")
	require.Contains(t, text, "Upcoming: 1 · ✅ Done today: 1")

	other := model.User{ID: 9999}
	text, err = f.svc.DailyDigest(ctx, other, now)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestSendDailyDigests(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	f.notifier.On("Notify", mock.Anything, int64(555), mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "nothing overdue")
	})).Return(nil).Once()
	require.NoError(t, f.svc.SendDailyDigests(ctx))
	f.notifier.AssertExpectations(t)

	require.NoError(t, f.users.SetDigestMuted(ctx, f.user.ID, true))
	require.NoError(t, f.svc.SendDailyDigests(ctx))
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}
