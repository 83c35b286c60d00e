package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"petcare/internal/clock"
	"petcare/internal/model"
	"petcare/internal/repository"
	"petcare/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

// Bot aggregates Telegram API with services.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     *repository.UserRepository
	animals   *service.AnimalService
	tasks     *service.TaskScheduler
	reminders *service.ReminderService
	clock     clock.Clock
	log       zerolog.Logger
}

func New(api *tgbotapi.BotAPI, users *repository.UserRepository, animals *service.AnimalService, tasks *service.TaskScheduler, reminders *service.ReminderService, clk clock.Clock, log zerolog.Logger) *Bot {
	return &Bot{
		api:       api,
		users:     users,
		animals:   animals,
		tasks:     tasks,
		reminders: reminders,
		clock:     clk,
		log:       log.With().Str("component", "bot").Logger(),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Str("account", b.api.Self.UserName).Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands for now. Try /help.")
	}

	b.log.Info().Int64("from", msg.From.ID).Str("command", msg.Command()).Msg("command")

	user, err := b.ensureUser(ctx, msg.From, msg.Chat.ID)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}

	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		return b.sendText(chatID, fmt.Sprintf("Hi, %s! 🐾\n\n%s", escape(user.DisplayName()), helpText()))
	case "help":
		return b.sendText(chatID, helpText())
	case "addpet":
		return b.handleAddPet(ctx, chatID, user, args)
	case "pets":
		return b.handleListPets(ctx, chatID, user)
	case "editpet":
		return b.handleEditPet(ctx, chatID, user, args)
	case "deletepet":
		return b.handleDeletePet(ctx, chatID, user, args)
	case "addtask":
		return b.handleAddTask(ctx, chatID, user, args)
	case "tasks":
		filter, ok := parseFilter(args)
		if !ok {
			return b.sendText(chatID, "Filters: overdue, today, upcoming, completed.")
		}
		return b.sendTaskList(ctx, chatID, user, filter)
	case "done":
		return b.completeTaskAndRefresh(ctx, chatID, user, args)
	case "deltask":
		return b.deleteTaskAndRefresh(ctx, chatID, user, args)
	case "edittask":
		return b.handleEditTask(ctx, chatID, user, args)
	case "mute":
		return b.handleMute(ctx, chatID, user, args)
	case "report":
		return b.handleReport(ctx, chatID, user)
	case "digest":
		return b.handleDigest(ctx, chatID, user, args)
	default:
		return b.sendText(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleAddPet(ctx context.Context, chatID int64, user *model.User, args string) error {
	input, err := parseAddPet(args, b.clock.Now().Location())
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(validationDetail(err))+"\n\n"+addPetUsage)
	}
	animal, err := b.animals.Create(ctx, user, input)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.log.Info().Str("animal_id", animal.ID).Uint("user_id", user.ID).Msg("animal created")
	return b.sendText(chatID, fmt.Sprintf("%s <b>%s</b> (%s) added. Now add care tasks with /addtask.",
		categoryIcon(animal.Category), escape(animal.Name), escape(animal.DisplayCategory())))
}

func (b *Bot) handleListPets(ctx context.Context, chatID int64, user *model.User) error {
	animals, err := b.animals.List(ctx, user)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(animals) == 0 {
		return b.sendText(chatID, noPetsText)
	}

	var sb strings.Builder
	sb.WriteString("🐾 <b>Your pets</b>\n")
	now := b.clock.Now()
	for _, animal := range animals {
		sb.WriteString(formatAnimal(animal, now))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleEditPet(ctx context.Context, chatID int64, user *model.User, args string) error {
	parsed, err := parseEditPet(args, b.clock.Now().Location())
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(validationDetail(err))+"\n\n"+editPetUsage)
	}
	animal, err := b.animals.FindByName(ctx, user, parsed.PetName)
	if err != nil {
		return b.replyError(chatID, err)
	}
	animal, err = b.animals.Update(ctx, user, animal.ID, parsed.Patch)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.log.Info().Str("animal_id", animal.ID).Msg("animal updated")
	return b.sendText(chatID, strings.TrimSpace("✏️ Updated\n"+formatAnimal(*animal, b.clock.Now())))
}

func (b *Bot) handleDeletePet(ctx context.Context, chatID int64, user *model.User, name string) error {
	if name == "" {
		return b.sendText(chatID, "Usage: /deletepet &lt;name&gt;")
	}
	animal, err := b.animals.FindByName(ctx, user, name)
	if err != nil {
		return b.replyError(chatID, err)
	}
	removed, err := b.animals.Delete(ctx, animal.ID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.log.Info().Str("animal_id", animal.ID).Int("tasks", removed).Msg("animal deleted")
	return b.sendText(chatID, fmt.Sprintf("🗑 %s removed together with %d task(s).", escape(animal.Name), removed))
}

func (b *Bot) handleAddTask(ctx context.Context, chatID int64, user *model.User, args string) error {
	now := b.clock.Now()
	parsed, err := parseAddTask(args, now)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(validationDetail(err))+"\n\n"+addTaskUsage)
	}
	animal, err := b.animals.FindByName(ctx, user, parsed.PetName)
	if err != nil {
		return b.replyError(chatID, err)
	}

	parsed.Input.OwnerID = animal.ID
	task, err := b.tasks.CreateTask(ctx, parsed.Input)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.log.Info().Str("task_id", task.ID).Str("animal_id", animal.ID).Msg("task created")

	text := "✅ Task added\n" + service.FormatTaskLine(*task, animal.Name, now)
	if task.ReminderEnabled && !task.HasReminder() {
		text += "⚠️ Could not schedule a reminder for this task."
	}
	return b.sendText(chatID, strings.TrimSpace(text))
}

func (b *Bot) handleEditTask(ctx context.Context, chatID int64, user *model.User, args string) error {
	edit, err := parseEditTask(args)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(validationDetail(err))+"\n\n"+editTaskUsage)
	}
	current, animal, err := b.ownedTask(ctx, user, edit.TaskID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	now := b.clock.Now()
	patch, err := edit.dueAt(current.DueAt, now)
	if err != nil {
		return b.replyError(chatID, err)
	}
	task, err := b.tasks.UpdateTask(ctx, current.ID, patch)
	if err != nil {
		return b.replyError(chatID, err)
	}
	b.log.Info().Str("task_id", task.ID).Msg("task updated")
	return b.sendText(chatID, strings.TrimSpace("✏️ Task updated\n"+service.FormatTaskLine(*task, animal.Name, now)))
}

func (b *Bot) handleMute(ctx context.Context, chatID int64, user *model.User, taskID string) error {
	if _, _, err := b.ownedTask(ctx, user, taskID); err != nil {
		return b.replyError(chatID, err)
	}
	task, err := b.tasks.DisableReminder(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("🔕 Reminders off for %s.", escape(task.DisplayName())))
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, user *model.User) error {
	text, err := b.reminders.DailyDigest(ctx, *user, b.clock.Now())
	if err != nil {
		return b.replyError(chatID, err)
	}
	if text == "" {
		text = noPetsText
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleDigest(ctx context.Context, chatID int64, user *model.User, args string) error {
	var muted bool
	switch strings.ToLower(args) {
	case "on":
		muted = false
	case "off":
		muted = true
	default:
		state := "on"
		if user.DigestMuted {
			state = "off"
		}
		return b.sendText(chatID, fmt.Sprintf("Daily digest is %s. Usage: /digest on|off", state))
	}
	if err := b.users.SetDigestMuted(ctx, user.ID, muted); err != nil {
		return b.replyError(chatID, err)
	}
	if muted {
		return b.sendText(chatID, "🔕 Daily digest muted. /report still works on demand.")
	}
	return b.sendText(chatID, "🔔 Daily digest is back on.")
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	chatID := cb.Message.Chat.ID
	user, err := b.ensureUser(ctx, cb.From, chatID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		return b.completeTaskAndRefresh(ctx, chatID, user, strings.TrimPrefix(data, cbCompletePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.deleteTaskAndRefresh(ctx, chatID, user, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		return nil
	}
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, user *model.User, taskID string) error {
	if _, _, err := b.ownedTask(ctx, user, taskID); err != nil {
		return b.replyError(chatID, err)
	}

	res, err := b.tasks.CompleteTask(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}

	info := fmt.Sprintf("✅ %s done.", escape(res.Task.DisplayName()))
	if res.Successor != nil {
		next := res.Successor.DueAt.In(b.clock.Now().Location())
		info += fmt.Sprintf(" Next one: %s.", next.Format("2006-01-02 15:04"))
	}
	b.log.Info().Str("task_id", taskID).Bool("recurring", res.Successor != nil).Msg("task completed")
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, filterAll)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, user *model.User, taskID string) error {
	task, _, err := b.ownedTask(ctx, user, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.tasks.DeleteTask(ctx, taskID); err != nil {
		return b.replyError(chatID, err)
	}

	b.log.Info().Str("task_id", taskID).Msg("task deleted")
	if err := b.sendText(chatID, fmt.Sprintf("🗑 %s deleted.", escape(task.DisplayName()))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, filterAll)
}

// ownedTask loads a task and checks it belongs to one of the user's animals.
func (b *Bot) ownedTask(ctx context.Context, user *model.User, taskID string) (*model.CareTask, *model.Animal, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, nil, fmt.Errorf("task id is required: %w", model.ErrNotFound)
	}
	task, err := b.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	animal, err := b.animals.Get(ctx, task.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	if animal.UserID != user.ID {
		return nil, nil, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}
	return task, animal, nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User, chatID int64) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, chatID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) replyError(chatID int64, err error) error {
	var text string
	switch {
	case errors.Is(err, model.ErrValidation):
		text = "⚠️ " + escape(validationDetail(err))
	case errors.Is(err, model.ErrNotFound):
		text = "Not found, or already done."
	case errors.Is(err, model.ErrStoreUnavailable):
		b.log.Error().Err(err).Msg("store unavailable")
		text = "Storage is unavailable right now, please try again later."
	default:
		b.log.Error().Err(err).Msg("request failed")
		text = "Something went wrong, please try again."
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// validationDetail strips everything up to the validation marker from err's text.
func validationDetail(err error) string {
	msg := err.Error()
	marker := model.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func categoryIcon(category model.AnimalCategory) string {
	if info, ok := model.CategoryCatalog[category]; ok {
		return info.Icon
	}
	return "🐾"
}
