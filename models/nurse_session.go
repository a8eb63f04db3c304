package models

import "gorm.io/gorm"

// NurseSession binds one nurse's Telegram identity to the conversation they
// are currently replying to. At most one session per nurse; a new /start
// overwrites the previous binding. Sessions have no expiry — /end is the
// only exit.
type NurseSession struct {
	gorm.Model
	NurseTelegramID      int64 `gorm:"uniqueIndex;not null"`
	ActiveConversationID uint  `gorm:"not null"`
}
