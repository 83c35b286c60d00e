package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"petcare/internal/clock"
	"petcare/internal/model"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	OwnerID         string
	Kind            model.Kind
	CustomLabel     string
	Notes           string
	DueAt           time.Time
	Recurrence      model.Recurrence
	ReminderEnabled bool
}

// TaskPatch lists the fields an edit may change. Nil fields are left alone.
type TaskPatch struct {
	CustomLabel     *string
	Notes           *string
	DueAt           *time.Time
	Recurrence      *model.Recurrence
	ReminderEnabled *bool
}

// Completion is the outcome of CompleteTask.
type Completion struct {
	Task      model.CareTask
	Successor *model.CareTask
}

// TaskScheduler owns the task lifecycle: it persists tasks, spawns successors
// of recurring tasks and keeps each task's reminder handle in step with the
// reminder subsystem.
//
// Mutations on one task id are serialized. It is safe for concurrent use.
type TaskScheduler struct {
	store     TaskStore
	reminders ReminderPort
	clock     clock.Clock
	log       zerolog.Logger

	locks    keyedMutex
	inflight sync.WaitGroup
}

func NewTaskScheduler(store TaskStore, reminders ReminderPort, clk clock.Clock, log zerolog.Logger) *TaskScheduler {
	return &TaskScheduler{
		store:     store,
		reminders: reminders,
		clock:     clk,
		log:       log.With().Str("component", "task_scheduler").Logger(),
	}
}

// CreateTask validates and stores a new task. When reminders are enabled the
// reminder is requested before returning; a failed request leaves the task
// without a handle.
func (s *TaskScheduler) CreateTask(ctx context.Context, input TaskInput) (*model.CareTask, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return nil, fmt.Errorf("%w: task owner is required", model.ErrValidation)
	}
	if err := model.ValidateKind(input.Kind, input.CustomLabel); err != nil {
		return nil, err
	}
	if err := input.Recurrence.Validate(); err != nil {
		return nil, err
	}
	if input.DueAt.IsZero() {
		return nil, fmt.Errorf("%w: due time is required", model.ErrValidation)
	}
	if input.Recurrence.Kind == "" {
		input.Recurrence = model.NoRepeat
	}

	task := model.CareTask{
		ID:              uuid.NewString(),
		OwnerID:         input.OwnerID,
		Kind:            input.Kind,
		CustomLabel:     strings.TrimSpace(input.CustomLabel),
		Notes:           strings.TrimSpace(input.Notes),
		DueAt:           input.DueAt,
		Recurrence:      input.Recurrence,
		ReminderEnabled: input.ReminderEnabled,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.store.Create(ctx, &task); err != nil {
		return nil, err
	}

	if task.ReminderEnabled {
		task.ReminderHandle = s.attachReminder(ctx, task)
	}
	return &task, nil
}

// CompleteTask marks a pending task completed and, for recurring tasks,
// stores exactly one successor. The successor's reminder is requested in the
// background. Completing a missing or already completed task fails with
// model.ErrNotFound.
func (s *TaskScheduler) CompleteTask(ctx context.Context, taskID string) (*Completion, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, fmt.Errorf("task %s already completed: %w", taskID, model.ErrNotFound)
	}

	now := s.clock.Now()
	var successor *model.CareTask
	if next, ok := NextDueAt(task.DueAt.In(now.Location()), task.Recurrence); ok {
		successor = &model.CareTask{
			ID:              uuid.NewString(),
			OwnerID:         task.OwnerID,
			Kind:            task.Kind,
			CustomLabel:     task.CustomLabel,
			Notes:           task.Notes,
			DueAt:           next,
			Recurrence:      task.Recurrence,
			ReminderEnabled: task.ReminderEnabled,
			CreatedAt:       now,
		}
	}

	if err := s.store.Complete(ctx, taskID, now, successor); err != nil {
		return nil, err
	}

	if task.ReminderHandle != nil {
		s.cancelReminder(ctx, taskID, *task.ReminderHandle)
	}
	task.Completed = true
	task.CompletedAt = &now
	task.ReminderHandle = nil

	if successor != nil {
		s.log.Debug().Str("task_id", taskID).Str("successor_id", successor.ID).
			Time("due_at", successor.DueAt).Msg("successor created")
		if successor.ReminderEnabled {
			s.dispatchReminder(ctx, *successor)
		}
	}
	return &Completion{Task: *task, Successor: successor}, nil
}

// UpdateTask edits a pending task. Moving the due time or disabling
// reminders cancels the current reminder; an enabled task without a reminder
// gets a fresh one requested in the background.
func (s *TaskScheduler) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) (*model.CareTask, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, fmt.Errorf("task %s already completed: %w", taskID, model.ErrNotFound)
	}

	dueChanged := false
	if patch.CustomLabel != nil {
		task.CustomLabel = strings.TrimSpace(*patch.CustomLabel)
	}
	if patch.Notes != nil {
		task.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.DueAt != nil {
		if patch.DueAt.IsZero() {
			return nil, fmt.Errorf("%w: due time is required", model.ErrValidation)
		}
		dueChanged = !patch.DueAt.Equal(task.DueAt)
		task.DueAt = *patch.DueAt
	}
	if patch.Recurrence != nil {
		if err := patch.Recurrence.Validate(); err != nil {
			return nil, err
		}
		task.Recurrence = *patch.Recurrence
	}
	if patch.ReminderEnabled != nil {
		task.ReminderEnabled = *patch.ReminderEnabled
	}
	if err := model.ValidateKind(task.Kind, task.CustomLabel); err != nil {
		return nil, err
	}

	stale := task.ReminderHandle
	if stale != nil && (dueChanged || !task.ReminderEnabled) {
		task.ReminderHandle = nil
	} else {
		stale = nil
	}

	if err := s.store.Update(ctx, task); err != nil {
		return nil, err
	}
	if stale != nil {
		s.cancelReminder(ctx, taskID, *stale)
	}
	if task.ReminderEnabled && task.ReminderHandle == nil {
		s.dispatchReminder(ctx, *task)
	}
	return task, nil
}

// DisableReminder turns reminders off for a pending task and cancels the active one.
func (s *TaskScheduler) DisableReminder(ctx context.Context, taskID string) (*model.CareTask, error) {
	off := false
	return s.UpdateTask(ctx, taskID, TaskPatch{ReminderEnabled: &off})
}

// DeleteTask removes a task and cancels its reminder. Cancellation is best-effort.
func (s *TaskScheduler) DeleteTask(ctx context.Context, taskID string) error {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, taskID); err != nil {
		return err
	}
	if task.ReminderHandle != nil {
		s.cancelReminder(ctx, taskID, *task.ReminderHandle)
	}
	return nil
}

// DeleteOwner deletes every task of an animal through DeleteTask and
// reports how many were removed. The sweep repeats until the owner has no
// tasks left, so successors spawned by a concurrent completion are removed
// too. Store failures on single tasks do not stop the sweep; they are joined
// into the returned error.
func (s *TaskScheduler) DeleteOwner(ctx context.Context, ownerID string) (int, error) {
	deleted := 0
	var errs []error
	for {
		tasks, err := s.store.TasksByOwner(ctx, ownerID)
		if err != nil {
			errs = append(errs, err)
			break
		}
		if len(tasks) == 0 {
			break
		}

		progress := 0
		for _, task := range tasks {
			switch err := s.DeleteTask(ctx, task.ID); {
			case err == nil:
				deleted++
				progress++
			case errors.Is(err, model.ErrNotFound):
				// Removed concurrently.
				progress++
			default:
				errs = append(errs, err)
			}
		}
		if progress == 0 {
			break
		}
	}
	return deleted, errors.Join(errs...)
}

func (s *TaskScheduler) Get(ctx context.Context, taskID string) (*model.CareTask, error) {
	return s.store.Get(ctx, taskID)
}

func (s *TaskScheduler) ListByOwner(ctx context.Context, ownerID string) ([]model.CareTask, error) {
	return s.store.TasksByOwner(ctx, ownerID)
}

// Overview classifies all tasks of the given animals at now.
func (s *TaskScheduler) Overview(ctx context.Context, ownerIDs []string, now time.Time) (Buckets, error) {
	tasks, err := s.store.TasksByOwners(ctx, ownerIDs)
	if err != nil {
		return Buckets{}, err
	}
	return Classify(tasks, now), nil
}

// Wait blocks until every background reminder request has been applied.
func (s *TaskScheduler) Wait() {
	s.inflight.Wait()
}

// dispatchReminder requests a reminder without blocking the caller.
func (s *TaskScheduler) dispatchReminder(ctx context.Context, task model.CareTask) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.attachReminder(ctx, task)
	}()
}

// attachReminder schedules a reminder for task and records the handle. If
// the task changed in the meantime (completed, deleted, moved, reminders
// turned off, or another handle recorded) the new reminder is cancelled.
func (s *TaskScheduler) attachReminder(ctx context.Context, task model.CareTask) *string {
	log := s.log.With().Str("task_id", task.ID).Logger()

	handle, err := s.reminders.Schedule(ctx, task.ID, task.DueAt, task.DisplayName())
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %w", model.ErrReminderFailure, err)).Msg("reminder not scheduled")
		return nil
	}

	unlock := s.locks.lock(task.ID)
	defer unlock()

	current, err := s.store.Get(ctx, task.ID)
	switch {
	case err != nil:
		log.Debug().Err(err).Msg("task gone before reminder was recorded")
	case current.Completed || !current.ReminderEnabled || current.ReminderHandle != nil || !current.DueAt.Equal(task.DueAt):
		log.Debug().Msg("task changed before reminder was recorded")
	default:
		if err := s.store.SetReminderHandle(ctx, task.ID, &handle); err != nil {
			log.Warn().Err(err).Msg("record reminder handle")
			break
		}
		return &handle
	}

	s.cancelReminder(ctx, task.ID, handle)
	return nil
}

func (s *TaskScheduler) cancelReminder(ctx context.Context, taskID, handle string) {
	switch err := s.reminders.Cancel(ctx, handle); {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		// Fired in the meantime.
		s.log.Debug().Str("task_id", taskID).Str("handle", handle).Msg("reminder already gone")
	default:
		s.log.Warn().Err(err).Str("task_id", taskID).Str("handle", handle).Msg("cancel reminder")
	}
}

// keyedMutex hands out one mutex per key and drops it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
