package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"petcare/internal/model"
	"petcare/internal/service"
)

const (
	maxTasksPerSection = 15
	maxCompletedShown  = 5
)

const addTaskUsage = "Usage: /addtask &lt;pet&gt; &lt;kind&gt; &lt;YYYY-MM-DD|today|tomorrow&gt; &lt;HH:MM&gt; [repeat] [silent] [| notes]\n" +
	"Repeat: daily, weekly, biweekly, monthly, yearly, every:N\n" +
	"Custom kinds: custom:Ear_drops"

const (
	noPetsText    = "No pets yet. Add one with /addpet &lt;name&gt; &lt;category&gt;."
	addPetUsage   = "Usage: /addpet &lt;name&gt; &lt;category&gt; [breed:Maine_Coon] [born:YYYY-MM-DD] [| notes]"
	editPetUsage  = "Usage: /editpet &lt;name&gt; [name:X] [category:X] [breed:X] [born:YYYY-MM-DD|none] [| notes]"
	editTaskUsage = "Usage: /edittask &lt;id&gt; [date:YYYY-MM-DD|today|tomorrow] [time:HH:MM] [repeat:X] [label:X] [remind:on|off] [| notes]"
)

func helpText() string {
	var sb strings.Builder
	sb.WriteString("🐾 <b>Pet care reminders</b>\n\n")
	sb.WriteString("/addpet &lt;name&gt; &lt;category&gt; - add a pet\n")
	sb.WriteString("/editpet &lt;name&gt; ... - change name, category, breed, birth date or notes\n")
	sb.WriteString("/pets - list your pets\n")
	sb.WriteString("/deletepet &lt;name&gt; - remove a pet and its tasks\n")
	sb.WriteString("/addtask … - schedule a care task\n")
	sb.WriteString("/tasks [overdue|today|upcoming|completed] - task overview\n")
	sb.WriteString("/edittask &lt;id&gt; ... - change due time, repeat, label, reminder or notes\n")
	sb.WriteString("/done &lt;id&gt;, /deltask &lt;id&gt;, /mute &lt;id&gt;\n")
	sb.WriteString("/report - today's digest\n")
	sb.WriteString("/digest on|off - daily digest delivery\n\n")
	sb.WriteString(addPetUsage + "\n" + addTaskUsage + "\n" + editPetUsage + "\n" + editTaskUsage)
	sb.WriteString("\n\nKinds: ")
	labels := make([]string, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		if kind == model.KindCustom {
			continue
		}
		labels = append(labels, string(kind))
	}
	sb.WriteString(strings.Join(labels, ", "))
	return sb.String()
}

// formatAnimal renders one animal with its breed, age and notes.
func formatAnimal(animal model.Animal, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b> · %s", categoryIcon(animal.Category), escape(animal.Name), escape(animal.DisplayCategory())))
	if animal.Breed != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", escape(animal.Breed)))
	}
	sb.WriteString(fmt.Sprintf("\n   🎂 %s", animal.AgeAt(now)))
	if animal.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", escape(animal.Notes)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

type taskSection struct {
	title string
	tasks []model.CareTask
	limit int
}

func sectionsFor(b service.Buckets, filter taskFilter) []taskSection {
	overdue := taskSection{"⚠️ <b>Overdue</b>", b.Overdue, maxTasksPerSection}
	today := taskSection{"☀️ <b>Today</b>", b.Today, maxTasksPerSection}
	upcoming := taskSection{"📆 <b>Upcoming</b>", b.Upcoming, maxTasksPerSection}
	completed := taskSection{"✅ <b>Completed</b>", b.Completed, maxTasksPerSection}

	switch filter {
	case filterOverdue:
		return []taskSection{overdue}
	case filterToday:
		return []taskSection{today}
	case filterUpcoming:
		return []taskSection{upcoming}
	case filterCompleted:
		return []taskSection{completed}
	default:
		completed.limit = maxCompletedShown
		return []taskSection{overdue, today, upcoming, completed}
	}
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, filter taskFilter) error {
	animals, err := b.animals.List(ctx, user)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(animals) == 0 {
		return b.sendText(chatID, noPetsText)
	}

	names := make(map[string]string, len(animals))
	ids := make([]string, 0, len(animals))
	for _, animal := range animals {
		names[animal.ID] = animal.Name
		ids = append(ids, animal.ID)
	}

	now := b.clock.Now()
	buckets, err := b.tasks.Overview(ctx, ids, now)
	if err != nil {
		return b.replyError(chatID, err)
	}

	text, buttons := renderTaskList(sectionsFor(buckets, filter), names, now)
	if text == "" {
		return b.sendText(chatID, "Nothing here. Add a task with /addtask.")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func renderTaskList(sections []taskSection, names map[string]string, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	for _, section := range sections {
		if len(section.tasks) == 0 {
			continue
		}
		builder.WriteString(section.title + "\n")
		for i, task := range section.tasks {
			if i == section.limit {
				builder.WriteString(fmt.Sprintf("… and %d more\n", len(section.tasks)-section.limit))
				break
			}
			builder.WriteString(service.FormatTaskLine(task, names[task.OwnerID], now))
			builder.WriteString(fmt.Sprintf("   <code>%s</code>\n", task.ID))
			if !task.Completed {
				buttons = append(buttons, taskButtons(task, names[task.OwnerID]))
			}
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String()), buttons
}

func taskButtons(task model.CareTask, animalName string) []tgbotapi.InlineKeyboardButton {
	label := shortTitle(fmt.Sprintf("%s · %s", task.DisplayName(), animalName), 28)
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ "+label, cbCompletePrefix+task.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
	)
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
