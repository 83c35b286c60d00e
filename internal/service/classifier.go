package service

import (
	"sort"
	"time"

	"petcare/internal/clock"
	"petcare/internal/model"
)

// Buckets partitions tasks by due time relative to a fixed instant.
//
//	Overdue:   pending, due before now
//	Today:     pending, due from now until the end of now's calendar day
//	Upcoming:  pending, due on a later day
//	Completed: completed, most recent completion first
//
// Pending buckets are ordered by due time, soonest first.
type Buckets struct {
	Overdue   []model.CareTask
	Today     []model.CareTask
	Upcoming  []model.CareTask
	Completed []model.CareTask
}

// Pending returns Today followed by Upcoming: every pending task due at or after now.
func (b Buckets) Pending() []model.CareTask {
	out := make([]model.CareTask, 0, len(b.Today)+len(b.Upcoming))
	out = append(out, b.Today...)
	return append(out, b.Upcoming...)
}

// Classify sorts tasks into buckets. The input slice is not modified.
func Classify(tasks []model.CareTask, now time.Time) Buckets {
	endOfToday := clock.EndOfDay(now)

	var b Buckets
	for _, task := range tasks {
		switch {
		case task.Completed:
			b.Completed = append(b.Completed, task)
		case task.DueAt.Before(now):
			b.Overdue = append(b.Overdue, task)
		case task.DueAt.Before(endOfToday):
			b.Today = append(b.Today, task)
		default:
			b.Upcoming = append(b.Upcoming, task)
		}
	}

	sortByDue(b.Overdue)
	sortByDue(b.Today)
	sortByDue(b.Upcoming)
	sort.SliceStable(b.Completed, func(i, j int) bool {
		ci, cj := completedAt(b.Completed[i]), completedAt(b.Completed[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return b.Completed[i].ID < b.Completed[j].ID
	})
	return b
}

func sortByDue(tasks []model.CareTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueAt.Equal(tasks[j].DueAt) {
			return tasks[i].DueAt.Before(tasks[j].DueAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func completedAt(task model.CareTask) time.Time {
	if task.CompletedAt == nil {
		return time.Time{}
	}
	return *task.CompletedAt
}
