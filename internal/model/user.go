package model

import "time"

// User is the Telegram account that owns animals. ChatID is where reminders
// and digests are delivered.
type User struct {
	ID          uint  `gorm:"primaryKey"`
	TelegramID  int64 `gorm:"uniqueIndex;not null"`
	ChatID      int64 `gorm:"not null"`
	FirstName   string
	LastName    string
	Username    string
	DigestMuted bool `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName prefers the first name, then the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "friend"
	}
}
