package models

import (
	"time"

	"gorm.io/gorm"
)

// Sender types form a closed set; nurse and AI messages carry no SenderID.
const (
	SenderUser  = "user"
	SenderAI    = "ai"
	SenderNurse = "nurse"
)

// Message is append-only; no edits or deletes are modeled. CreatedAt (with
// ID as tiebreak) is the display ordering key within a conversation.
type Message struct {
	gorm.Model
	ConversationID uint      `gorm:"index;not null"`
	SenderID       *uint     `gorm:"index"`
	SenderType     string    `gorm:"size:20;not null"`
	Content        string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"autoCreateTime"`
}
