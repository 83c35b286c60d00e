package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"petcare/internal/clock"
	"petcare/internal/model"
)

const (
	reminderTitle = "Pet Care Reminder"
	dispatchBatch = 100
)

type reminderOutbox interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	DeletePending(ctx context.Context, handle string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error)
	MarkSent(ctx context.Context, handle string, sentAt time.Time) error
	RecipientForTask(ctx context.Context, taskID string) (model.Recipient, error)
}

type digestAudience interface {
	ListDigestRecipients(ctx context.Context) ([]model.User, error)
}

// ReminderService is the notification subsystem behind ReminderPort. Reminders
// are written to an outbox and delivered through the Notifier once due. It
// also builds the daily care digest.
type ReminderService struct {
	outbox   reminderOutbox
	tasks    TaskStore
	animals  AnimalStore
	users    digestAudience
	notifier Notifier
	limiter  *rate.Limiter
	clock    clock.Clock
	log      zerolog.Logger
}

func NewReminderService(outbox reminderOutbox, tasks TaskStore, animals AnimalStore, users digestAudience, notifier Notifier, ratePerSec float64, clk clock.Clock, log zerolog.Logger) *ReminderService {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &ReminderService{
		outbox:   outbox,
		tasks:    tasks,
		animals:  animals,
		users:    users,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		clock:    clk,
		log:      log.With().Str("component", "reminders").Logger(),
	}
}

var _ ReminderPort = (*ReminderService)(nil)

// Schedule queues a reminder for the chat that owns the task.
func (s *ReminderService) Schedule(ctx context.Context, taskID string, dueAt time.Time, text string) (string, error) {
	rcpt, err := s.outbox.RecipientForTask(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrReminderFailure, err)
	}

	reminder := model.Reminder{
		Handle: uuid.NewString(),
		TaskID: taskID,
		ChatID: rcpt.ChatID,
		FireAt: dueAt,
		Text:   formatReminder(text, rcpt.AnimalName),
	}
	if err := s.outbox.Create(ctx, &reminder); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrReminderFailure, err)
	}
	s.log.Debug().Str("task_id", taskID).Str("handle", reminder.Handle).Time("fire_at", dueAt).Msg("reminder scheduled")
	return reminder.Handle, nil
}

// Cancel drops a pending reminder. A reminder that already fired reports ErrNotFound.
func (s *ReminderService) Cancel(ctx context.Context, handle string) error {
	return s.outbox.DeletePending(ctx, handle)
}

// DispatchDue delivers every reminder whose time has come. Delivery failures
// leave the reminder pending for the next run.
func (s *ReminderService) DispatchDue(ctx context.Context) (int, error) {
	due, err := s.outbox.ListDue(ctx, s.clock.Now(), dispatchBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, reminder := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		if err := s.notifier.Notify(ctx, reminder.ChatID, reminder.Text); err != nil {
			s.log.Warn().Err(err).Str("handle", reminder.Handle).Int64("chat_id", reminder.ChatID).Msg("deliver reminder")
			continue
		}
		if err := s.outbox.MarkSent(ctx, reminder.Handle, s.clock.Now()); err != nil && !errors.Is(err, model.ErrNotFound) {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// SendDailyDigests sends the care digest to every user that has animals and
// has not muted it.
func (s *ReminderService) SendDailyDigests(ctx context.Context) error {
	users, err := s.users.ListDigestRecipients(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, user := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text, err := s.DailyDigest(ctx, user, now)
		if err != nil {
			s.log.Warn().Err(err).Uint("user_id", user.ID).Msg("build digest")
			continue
		}
		if text == "" {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, user.ChatID, text); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", user.ChatID).Msg("send digest")
		}
	}
	return nil
}

// DailyDigest summarizes the user's tasks at now. It is empty when the user has no animals.
func (s *ReminderService) DailyDigest(ctx context.Context, user model.User, now time.Time) (string, error) {
	animals, err := s.animals.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(animals) == 0 {
		return "", nil
	}

	names := make(map[string]string, len(animals))
	ids := make([]string, 0, len(animals))
	for _, animal := range animals {
		names[animal.ID] = animal.Name
		ids = append(ids, animal.ID)
	}

	tasks, err := s.tasks.TasksByOwners(ctx, ids)
	if err != nil {
		return "", err
	}
	buckets := Classify(tasks, now)

	startOfToday := clock.StartOfDay(now)
	doneToday := 0
	for _, task := range buckets.Completed {
		if task.CompletedAt != nil && !task.CompletedAt.Before(startOfToday) {
			doneToday++
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily care digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("⚠️ <b>Overdue</b>\n")
	if len(buckets.Overdue) == 0 {
		builder.WriteString("— nothing overdue\n")
	}
	for _, task := range buckets.Overdue {
		builder.WriteString(FormatTaskLine(task, names[task.OwnerID], now))
	}

	builder.WriteString("\n☀️ <b>Today</b>\n")
	if len(buckets.Today) == 0 {
		builder.WriteString("— nothing else due today\n")
	}
	for _, task := range buckets.Today {
		builder.WriteString(FormatTaskLine(task, names[task.OwnerID], now))
	}

	builder.WriteString(fmt.Sprintf("\n📆 Upcoming: %d · ✅ Done today: %d", len(buckets.Upcoming), doneToday))
	return strings.TrimSpace(builder.String()), nil
}

// FormatTaskLine renders one task as an HTML line for Telegram.
func FormatTaskLine(task model.CareTask, animalName string, now time.Time) string {
	var sb strings.Builder

	icon := "⭐"
	if info, ok := model.KindCatalog[task.Kind]; ok {
		icon = info.Icon
	}
	sb.WriteString(fmt.Sprintf("%s <b>%s</b>", icon, html.EscapeString(task.DisplayName())))
	if name := strings.TrimSpace(animalName); name != "" {
		sb.WriteString(fmt.Sprintf(" · %s", html.EscapeString(name)))
	}

	due := task.DueAt.In(now.Location())
	switch {
	case task.Completed && task.CompletedAt != nil:
		sb.WriteString(fmt.Sprintf("\n   ✅ done %s", task.CompletedAt.In(now.Location()).Format("2006-01-02 15:04")))
	case due.Before(now):
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", due.Format("2006-01-02 15:04")))
	default:
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", due.Format("2006-01-02 15:04")))
	}
	if !task.Recurrence.IsNone() {
		sb.WriteString(fmt.Sprintf(" · 🔁 %s", task.Recurrence))
	}
	if task.HasReminder() {
		sb.WriteString(" · 🔔")
	}
	if task.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Notes)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatReminder(text, animalName string) string {
	body := html.EscapeString(strings.TrimSpace(text))
	if name := strings.TrimSpace(animalName); name != "" {
		body = fmt.Sprintf("%s for %s", body, html.EscapeString(name))
	}
	return fmt.Sprintf("🔔 <b>%s</b>\n%s", reminderTitle, body)
}
