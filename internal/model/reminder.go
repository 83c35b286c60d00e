package model

import "time"

// Reminder is a pending alert in the delivery outbox. Handle is what the
// scheduler stores on the task.
type Reminder struct {
	Handle    string `gorm:"primaryKey;size:36"`
	TaskID    string `gorm:"index;size:36"`
	ChatID    int64
	FireAt    time.Time `gorm:"index"`
	Text      string
	SentAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Recipient is who a task's reminder goes to.
type Recipient struct {
	ChatID     int64
	AnimalName string
}
