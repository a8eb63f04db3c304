// Package store is the data access layer for conversations and the
// append-only message log. Every append publishes an insert event, so live
// feeds see nurse, AI, and user messages the same way regardless of which
// handler wrote them.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"mamacare/models"
	"mamacare/pkg/realtime"

	"gorm.io/gorm"
)

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrNotFound       = gorm.ErrRecordNotFound
	ErrWrongSender    = errors.New("unknown sender type")
	ErrNoConversation = errors.New("conversation does not exist")
)

type ChatStore struct {
	db     *gorm.DB
	broker *realtime.Broker
}

func New(db *gorm.DB, broker *realtime.Broker) *ChatStore {
	return &ChatStore{db: db, broker: broker}
}

// ListConversations returns the user's conversations newest-updated first.
func (s *ChatStore) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// GetConversation loads one conversation owned by userID.
func (s *ChatStore) GetConversation(ctx context.Context, userID, conversationID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation opens a new empty conversation for userID. Callers
// create lazily, on first send only.
func (s *ChatStore) CreateConversation(ctx context.Context, userID uint) (*models.Conversation, error) {
	conv := models.Conversation{UserID: userID, Status: models.ConversationOpen}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation and all of its messages. The
// cascade is explicit so it holds on every SQL backend, not only where the
// FK constraint is enforced.
func (s *ChatStore) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&conv).Error
	})
}

// ListMessages returns the conversation's log in display order: timestamp
// ascending, id as tiebreak.
func (s *ChatStore) ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// AppendMessage persists one immutable message, refreshes the owning
// conversation's updated_at, and publishes the insert event.
func (s *ChatStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if strings.TrimSpace(msg.Content) == "" {
		return ErrEmptyContent
	}
	switch msg.SenderType {
	case models.SenderUser, models.SenderAI, models.SenderNurse:
	default:
		return ErrWrongSender
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Conversation{}).Where("id = ?", msg.ConversationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNoConversation
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", msg.Timestamp).Error
	})
	if err != nil {
		return err
	}

	if s.broker != nil {
		s.broker.Publish(realtime.InsertEvent{
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			SenderType:     msg.SenderType,
		})
	}
	return nil
}
