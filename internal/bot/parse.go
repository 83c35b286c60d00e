package bot

import (
	"fmt"
	"strings"
	"time"

	"petcare/internal/clock"
	"petcare/internal/model"
	"petcare/internal/service"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
	flagSilent = "silent"
)

// addTaskArgs is the parsed form of
// /addtask <pet> <kind> <date> <HH:MM> [repeat] [silent] [| notes].
type addTaskArgs struct {
	PetName string
	Input   service.TaskInput
}

// parseAddTask reads /addtask arguments. Dates may be YYYY-MM-DD, "today" or
// "tomorrow" and are interpreted in now's location. Custom kinds are written
// as custom:Label with underscores for spaces.
func parseAddTask(raw string, now time.Time) (addTaskArgs, error) {
	head, notes, _ := strings.Cut(raw, "|")
	fields := strings.Fields(head)
	if len(fields) < 4 {
		return addTaskArgs{}, fmt.Errorf("%w: expected <pet> <kind> <date> <HH:MM>", model.ErrValidation)
	}

	kind, label, err := parseKindArg(fields[1])
	if err != nil {
		return addTaskArgs{}, err
	}
	due, err := parseDue(fields[2], fields[3], now)
	if err != nil {
		return addTaskArgs{}, err
	}

	input := service.TaskInput{
		Kind:            kind,
		CustomLabel:     label,
		Notes:           strings.TrimSpace(notes),
		DueAt:           due,
		Recurrence:      model.NoRepeat,
		ReminderEnabled: true,
	}
	for _, extra := range fields[4:] {
		if strings.EqualFold(extra, flagSilent) {
			input.ReminderEnabled = false
			continue
		}
		rec, err := model.ParseRecurrence(extra)
		if err != nil {
			return addTaskArgs{}, err
		}
		input.Recurrence = rec
	}

	return addTaskArgs{PetName: fields[0], Input: input}, nil
}

func parseKindArg(raw string) (model.Kind, string, error) {
	if name, label, ok := strings.Cut(raw, ":"); ok && strings.EqualFold(name, string(model.KindCustom)) {
		label = strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
		if label == "" {
			return "", "", fmt.Errorf("%w: custom task needs a label, e.g. custom:Ear_drops", model.ErrValidation)
		}
		return model.KindCustom, label, nil
	}
	kind, ok := model.ParseKind(raw)
	if !ok || kind == model.KindCustom {
		return "", "", fmt.Errorf("%w: unknown task kind %q", model.ErrValidation, raw)
	}
	return kind, "", nil
}

func parseDue(dateRaw, timeRaw string, now time.Time) (time.Time, error) {
	loc := now.Location()

	var day time.Time
	switch strings.ToLower(dateRaw) {
	case "today":
		day = clock.StartOfDay(now)
	case "tomorrow":
		day = clock.AddDays(clock.StartOfDay(now), 1)
	default:
		d, err := time.ParseInLocation(dateLayout, dateRaw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", model.ErrValidation, dateRaw)
		}
		day = d
	}

	tod, err := time.Parse(timeLayout, timeRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q, expected HH:MM", model.ErrValidation, timeRaw)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

// options is the key:value part of a command, plus the free text after "|".
// Values use underscores for spaces.
type options struct {
	words    []string
	values   map[string]string
	notes    string
	hasNotes bool
}

func parseOptions(raw string, keys ...string) (options, error) {
	head, notes, hasNotes := strings.Cut(raw, "|")
	opts := options{values: map[string]string{}, notes: strings.TrimSpace(notes), hasNotes: hasNotes}
	for _, field := range strings.Fields(head) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			opts.words = append(opts.words, field)
			continue
		}
		key = strings.ToLower(key)
		if !containsKey(keys, key) {
			return options{}, fmt.Errorf("%w: unknown option %q", model.ErrValidation, key)
		}
		opts.values[key] = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	}
	return opts, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func (o options) lookup(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// parseCategoryArg maps unknown categories to a custom category with that name.
func parseCategoryArg(raw string) (model.AnimalCategory, string) {
	if category, ok := model.ParseCategory(raw); ok {
		return category, ""
	}
	return model.CategoryCustom, strings.TrimSpace(raw)
}

func parseBirthDate(raw string, loc *time.Location) (time.Time, error) {
	born, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid birth date %q, expected YYYY-MM-DD", model.ErrValidation, raw)
	}
	return born, nil
}

// parseAddPet reads /addpet <name> <category> [breed:X] [born:YYYY-MM-DD] [| notes].
// Unknown categories become custom categories with that name.
func parseAddPet(raw string, loc *time.Location) (service.AnimalInput, error) {
	opts, err := parseOptions(raw, "breed", "born")
	if err != nil {
		return service.AnimalInput{}, err
	}
	if len(opts.words) < 2 {
		return service.AnimalInput{}, fmt.Errorf("%w: expected <name> <category>", model.ErrValidation)
	}

	input := service.AnimalInput{Name: opts.words[0], Notes: opts.notes}
	input.Category, input.CustomCategory = parseCategoryArg(strings.Join(opts.words[1:], " "))
	input.Breed, _ = opts.lookup("breed")
	if v, ok := opts.lookup("born"); ok {
		born, err := parseBirthDate(v, loc)
		if err != nil {
			return service.AnimalInput{}, err
		}
		input.BirthDate = &born
	}
	return input, nil
}

// editPetArgs is the parsed form of
// /editpet <name> [name:X] [category:X] [breed:X] [born:YYYY-MM-DD|none] [| notes].
type editPetArgs struct {
	PetName string
	Patch   service.AnimalPatch
}

func parseEditPet(raw string, loc *time.Location) (editPetArgs, error) {
	opts, err := parseOptions(raw, "name", "category", "breed", "born")
	if err != nil {
		return editPetArgs{}, err
	}
	if len(opts.words) != 1 {
		return editPetArgs{}, fmt.Errorf("%w: expected <name> followed by changes", model.ErrValidation)
	}

	var patch service.AnimalPatch
	if v, ok := opts.lookup("name"); ok {
		patch.Name = &v
	}
	if v, ok := opts.lookup("category"); ok {
		category, custom := parseCategoryArg(v)
		patch.Category = &category
		if category == model.CategoryCustom {
			patch.CustomCategory = &custom
		}
	}
	if v, ok := opts.lookup("breed"); ok {
		patch.Breed = &v
	}
	if v, ok := opts.lookup("born"); ok {
		if strings.EqualFold(v, "none") {
			patch.ClearBirthDate = true
		} else {
			born, err := parseBirthDate(v, loc)
			if err != nil {
				return editPetArgs{}, err
			}
			patch.BirthDate = &born
		}
	}
	if opts.hasNotes {
		notes := opts.notes
		patch.Notes = &notes
	}
	if len(opts.values) == 0 && !opts.hasNotes {
		return editPetArgs{}, fmt.Errorf("%w: nothing to change", model.ErrValidation)
	}
	return editPetArgs{PetName: opts.words[0], Patch: patch}, nil
}

// taskEdit is the parsed form of /edittask <id> [date:X] [time:HH:MM]
// [repeat:X] [label:X] [remind:on|off] [| notes]. Date and time are resolved
// against the task's current due time by dueAt.
type taskEdit struct {
	TaskID string
	Date   string
	Time   string
	Patch  service.TaskPatch
}

func parseEditTask(raw string) (taskEdit, error) {
	opts, err := parseOptions(raw, "date", "time", "repeat", "label", "remind")
	if err != nil {
		return taskEdit{}, err
	}
	if len(opts.words) != 1 {
		return taskEdit{}, fmt.Errorf("%w: expected <task-id> followed by changes", model.ErrValidation)
	}

	edit := taskEdit{TaskID: opts.words[0]}
	edit.Date, _ = opts.lookup("date")
	edit.Time, _ = opts.lookup("time")
	if v, ok := opts.lookup("repeat"); ok {
		rec, err := model.ParseRecurrence(v)
		if err != nil {
			return taskEdit{}, err
		}
		edit.Patch.Recurrence = &rec
	}
	if v, ok := opts.lookup("label"); ok {
		edit.Patch.CustomLabel = &v
	}
	if v, ok := opts.lookup("remind"); ok {
		var enabled bool
		switch strings.ToLower(v) {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return taskEdit{}, fmt.Errorf("%w: remind expects on or off", model.ErrValidation)
		}
		edit.Patch.ReminderEnabled = &enabled
	}
	if opts.hasNotes {
		notes := opts.notes
		edit.Patch.Notes = &notes
	}
	if len(opts.values) == 0 && !opts.hasNotes {
		return taskEdit{}, fmt.Errorf("%w: nothing to change", model.ErrValidation)
	}
	return edit, nil
}

// dueAt fills the patch's due time from the edit, keeping the unchanged half
// of the current due time.
func (e taskEdit) dueAt(current, now time.Time) (service.TaskPatch, error) {
	patch := e.Patch
	if e.Date == "" && e.Time == "" {
		return patch, nil
	}
	local := current.In(now.Location())
	dateRaw, timeRaw := e.Date, e.Time
	if dateRaw == "" {
		dateRaw = local.Format(dateLayout)
	}
	if timeRaw == "" {
		timeRaw = local.Format(timeLayout)
	}
	due, err := parseDue(dateRaw, timeRaw, now)
	if err != nil {
		return service.TaskPatch{}, err
	}
	patch.DueAt = &due
	return patch, nil
}

type taskFilter int

const (
	filterAll taskFilter = iota
	filterOverdue
	filterToday
	filterUpcoming
	filterCompleted
)

func parseFilter(raw string) (taskFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return filterAll, true
	case "overdue":
		return filterOverdue, true
	case "today":
		return filterToday, true
	case "upcoming":
		return filterUpcoming, true
	case "completed", "done":
		return filterCompleted, true
	default:
		return filterAll, false
	}
}
