package controllers

import (
	"context"
	"log"
	"mamacare/middleware"
	"mamacare/models"
	svc "mamacare/pkg/services"
	"mamacare/pkg/store"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NurseChannel is the outbound Telegram surface the handlers need.
type NurseChannel interface {
	NotifyGroup(ctx context.Context, conversationID, userID uint, userName, message string) error
	SendDirect(ctx context.Context, chatID int64, text string) error
}

// NurseNotify handles POST /functions/nurse-notify: alert the nurse group
// about a message the user already persisted.
func NurseNotify(db *gorm.DB, cs *store.ChatStore, tg NurseChannel) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var body struct {
			ConversationID uint   `json:"conversation_id"`
			Message        string `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" || body.ConversationID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id and message are required"})
			return
		}

		if _, err := cs.GetConversation(c.Request.Context(), uid, body.ConversationID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if err := tg.NotifyGroup(c.Request.Context(), body.ConversationID, uid, user.FullName, strings.TrimSpace(body.Message)); err != nil {
			if err == svc.ErrTelegramNotConfigured {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "nurse channel is not configured"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to notify nurses: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

const nurseHelpText = "Reply to a notification in the group, or send /start <conversation id> here to bind a conversation. /end releases it."

// TelegramWebhook handles POST /functions/telegram-webhook: every update
// the bot receives. Telegram retries non-200 responses, so the handler
// answers 200 for everything it chose not to act on; only a persistence
// failure is a 500.
func TelegramWebhook(db *gorm.DB, cs *store.ChatStore, tg NurseChannel, groupID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// a panic must never escape to Telegram's retry loop
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[telegram] webhook panic: %v", r)
				if !c.Writer.Written() {
					c.JSON(http.StatusOK, gin.H{"ok": true})
				}
			}
		}()

		var update svc.TelegramUpdate
		if err := c.ShouldBindJSON(&update); err != nil || update.Message == nil {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		msg := update.Message
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		if isGroupChat(msg.Chat, groupID) {
			handleGroupMessage(c, cs, msg, text)
			return
		}
		if msg.Chat.Type == "private" {
			handlePrivateMessage(c, db, cs, tg, msg, text)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func isGroupChat(chat svc.TelegramChat, groupID string) bool {
	if groupID != "" && strconv.FormatInt(chat.ID, 10) == groupID {
		return true
	}
	return chat.Type == "group" || chat.Type == "supergroup"
}

// handleGroupMessage relays a nurse's group reply into the conversation
// named by the notification's metadata. Anything that is not a reply, or a
// reply without usable metadata, is dropped silently.
func handleGroupMessage(c *gin.Context, cs *store.ChatStore, msg *svc.TelegramMessage, text string) {
	if msg.ReplyToMessage == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	convID, ok := svc.ExtractConversationID(msg.ReplyToMessage.Text)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := appendNurseMessage(c, cs, convID, text); err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handlePrivateMessage runs the per-operator session state machine:
// /start binds, /end releases, free text relays through the binding.
func handlePrivateMessage(c *gin.Context, db *gorm.DB, cs *store.ChatStore, tg NurseChannel, msg *svc.TelegramMessage, text string) {
	chatID := msg.Chat.ID
	ctx := c.Request.Context()

	switch {
	case strings.HasPrefix(text, "/start"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
		convID, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || convID == 0 {
			_ = tg.SendDirect(ctx, chatID, nurseHelpText)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		// one active conversation per operator: rebinding replaces it
		var session models.NurseSession
		err = db.Where("nurse_telegram_id = ?", chatID).First(&session).Error
		if err == gorm.ErrRecordNotFound {
			session = models.NurseSession{NurseTelegramID: chatID, ActiveConversationID: uint(convID)}
			err = db.Create(&session).Error
		} else if err == nil {
			session.ActiveConversationID = uint(convID)
			err = db.Save(&session).Error
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
			return
		}

		_ = tg.SendDirect(ctx, chatID, "You are now chatting in conversation "+strconv.FormatUint(convID, 10)+". Send /end when you are done.")
		c.JSON(http.StatusOK, gin.H{"ok": true})

	case text == "/end":
		// hard delete: the unique index on nurse_telegram_id must not be
		// blocked by a soft-deleted row on the next /start
		if err := db.Unscoped().Where("nurse_telegram_id = ?", chatID).Delete(&models.NurseSession{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
			return
		}
		_ = tg.SendDirect(ctx, chatID, "Session ended. Thank you!")
		c.JSON(http.StatusOK, gin.H{"ok": true})

	default:
		var session models.NurseSession
		if err := db.Where("nurse_telegram_id = ?", chatID).First(&session).Error; err != nil {
			_ = tg.SendDirect(ctx, chatID, nurseHelpText)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		if err := appendNurseMessage(c, cs, session.ActiveConversationID, text); err != nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// appendNurseMessage persists one nurse message; on a real persistence
// failure it writes the 500 itself so Telegram retries the update. A
// conversation the user already deleted is dropped, not retried.
func appendNurseMessage(c *gin.Context, cs *store.ChatStore, conversationID uint, text string) error {
	err := cs.AppendMessage(c.Request.Context(), &models.Message{
		ConversationID: conversationID,
		SenderType:     models.SenderNurse,
		Content:        text,
	})
	if err == store.ErrNoConversation {
		log.Printf("[telegram] dropping reply into deleted conversation %d", conversationID)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return err
	}
	if err != nil {
		log.Printf("[telegram] relay into conversation %d: %v", conversationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
	}
	return err
}
