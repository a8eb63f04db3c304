package models

import "gorm.io/gorm"

const (
	ConversationOpen   = "open"
	ConversationClosed = "closed"
)

type Conversation struct {
	gorm.Model
	UserID   uint      `gorm:"not null;index"`
	Status   string    `gorm:"size:20;not null;default:open"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE"`
}
