package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"petcare/internal/model"
)

func TestParseAddTask(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)

	tests := []struct {
		name   string
		raw    string
		pet    string
		kind   model.Kind
		label  string
		due    time.Time
		rec    model.Recurrence
		remind bool
		notes  string
	}{
		{
			name: "full", raw: "Rex feeding 2024-03-11 08:00 daily | half a can",
			pet: "Rex", kind: model.KindFeeding, due: time.Date(2024, 3, 11, 8, 0, 0, 0, loc),
			rec: model.Daily, remind: true, notes: "half a can",
		},
		{
			name: "label kind, tomorrow, silent", raw: "Rex nail_trimming tomorrow 18:30 silent",
			pet: "Rex", kind: model.KindNailTrimming, due: time.Date(2024, 3, 11, 18, 30, 0, 0, loc),
			rec: model.NoRepeat, remind: false,
		},
		{
			name: "custom every n days", raw: "Barsik custom:Ear_drops today 21:00 every:3",
			pet: "Barsik", kind: model.KindCustom, label: "Ear drops", due: time.Date(2024, 3, 10, 21, 0, 0, 0, loc),
			rec: model.Recurrence{Kind: model.RepeatEveryDays, EveryDays: 3}, remind: true,
		},
		{
			name: "short interval", raw: "Barsik vet-visit 2024-04-01 09:15 10d",
			pet: "Barsik", kind: model.KindVetVisit, due: time.Date(2024, 4, 1, 9, 15, 0, 0, loc),
			rec: model.Recurrence{Kind: model.RepeatEveryDays, EveryDays: 10}, remind: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAddTask(tt.raw, now)
			require.NoError(t, err)
			require.Equal(t, tt.pet, got.PetName)
			require.Equal(t, tt.kind, got.Input.Kind)
			require.Equal(t, tt.label, got.Input.CustomLabel)
			require.True(t, tt.due.Equal(got.Input.DueAt), "due %s", got.Input.DueAt)
			require.Equal(t, tt.rec, got.Input.Recurrence)
			require.Equal(t, tt.remind, got.Input.ReminderEnabled)
			require.Equal(t, tt.notes, got.Input.Notes)
		})
	}
}

func TestParseAddTaskErrors(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"",
		"Rex feeding 2024-03-11",
		"Rex napping 2024-03-11 08:00",
		"Rex custom: 2024-03-11 08:00",
		"Rex custom 2024-03-11 08:00",
		"Rex feeding 11.03.2024 08:00",
		"Rex feeding 2024-03-11 8am",
		"Rex feeding 2024-03-11 08:00 every:0",
		"Rex feeding 2024-03-11 08:00 hourly",
	} {
		_, err := parseAddTask(raw, now)
		require.ErrorIs(t, err, model.ErrValidation, raw)
	}
}

func TestParseAddPet(t *testing.T) {
	t.Parallel()
	got, err := parseAddPet("Kesha guinea pig", time.UTC)
	require.NoError(t, err)
	require.Equal(t, "Kesha", got.Name)
	require.Equal(t, model.CategoryGuineaPig, got.Category)

	got, err = parseAddPet("Axel axolotl", time.UTC)
	require.NoError(t, err)
	require.Equal(t, model.CategoryCustom, got.Category)
	require.Equal(t, "axolotl", got.CustomCategory)

	got, err = parseAddPet("Rex dog breed:Golden_Retriever born:2020-05-17 | allergic to chicken", time.UTC)
	require.NoError(t, err)
	require.Equal(t, model.CategoryDog, got.Category)
	require.Equal(t, "Golden Retriever", got.Breed)
	require.Equal(t, "allergic to chicken", got.Notes)
	require.NotNil(t, got.BirthDate)
	require.Equal(t, time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC), *got.BirthDate)

	for _, bad := range []string{"   ", "Rex", "Rex dog born:17.05.2020", "Rex dog color:brown"} {
		_, err = parseAddPet(bad, time.UTC)
		require.ErrorIs(t, err, model.ErrValidation, bad)
	}
}

func TestParseEditPet(t *testing.T) {
	t.Parallel()
	got, err := parseEditPet("Rex name:Rexy category:Axolotl born:none | calm now", time.UTC)
	require.NoError(t, err)
	require.Equal(t, "Rex", got.PetName)
	require.Equal(t, "Rexy", *got.Patch.Name)
	require.Equal(t, model.CategoryCustom, *got.Patch.Category)
	require.Equal(t, "Axolotl", *got.Patch.CustomCategory)
	require.True(t, got.Patch.ClearBirthDate)
	require.Equal(t, "calm now", *got.Patch.Notes)
	require.Nil(t, got.Patch.Breed)

	got, err = parseEditPet("Rex category:dog born:2021-01-02", time.UTC)
	require.NoError(t, err)
	require.Equal(t, model.CategoryDog, *got.Patch.Category)
	require.Nil(t, got.Patch.CustomCategory)
	require.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), *got.Patch.BirthDate)

	got, err = parseEditPet("Rex |", time.UTC)
	require.NoError(t, err)
	require.Equal(t, "", *got.Patch.Notes)

	for _, bad := range []string{"", "Rex", "Rex Barsik name:X", "Rex born:yesterday", "Rex age:3"} {
		_, err = parseEditPet(bad, time.UTC)
		require.ErrorIs(t, err, model.ErrValidation, bad)
	}
}

func TestParseEditTask(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	current := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)

	edit, err := parseEditTask("abc time:18:30 repeat:weekly remind:off | after the walk")
	require.NoError(t, err)
	require.Equal(t, "abc", edit.TaskID)
	require.Equal(t, model.Weekly, *edit.Patch.Recurrence)
	require.False(t, *edit.Patch.ReminderEnabled)
	require.Equal(t, "after the walk", *edit.Patch.Notes)

	patch, err := edit.dueAt(current, now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 12, 18, 30, 0, 0, time.UTC), *patch.DueAt)

	edit, err = parseEditTask("abc date:tomorrow label:Ear_drops")
	require.NoError(t, err)
	require.Equal(t, "Ear drops", *edit.Patch.CustomLabel)
	patch, err = edit.dueAt(current, now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), *patch.DueAt)

	edit, err = parseEditTask("abc remind:on")
	require.NoError(t, err)
	patch, err = edit.dueAt(current, now)
	require.NoError(t, err)
	require.Nil(t, patch.DueAt)
	require.True(t, *patch.ReminderEnabled)

	edit, err = parseEditTask("abc date:2024-02-30")
	require.NoError(t, err)
	_, err = edit.dueAt(current, now)
	require.ErrorIs(t, err, model.ErrValidation)

	for _, bad := range []string{"", "abc", "abc repeat:every:0", "abc remind:maybe", "abc due:today"} {
		_, err = parseEditTask(bad)
		require.ErrorIs(t, err, model.ErrValidation, bad)
	}
}

func TestParseFilter(t *testing.T) {
	t.Parallel()
	f, ok := parseFilter("Overdue")
	require.True(t, ok)
	require.Equal(t, filterOverdue, f)
	f, ok = parseFilter("")
	require.True(t, ok)
	require.Equal(t, filterAll, f)
	_, ok = parseFilter("soon")
	require.False(t, ok)
}
