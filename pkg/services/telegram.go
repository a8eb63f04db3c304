package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mamacare/pkg/config"
)

// TelegramService talks to the Bot API: one shared group receives a
// notification for every human-mode user message, and nurses get direct
// confirmations in their private chats.

var ErrTelegramNotConfigured = errors.New("telegram bot token, group id, or bot username is not set")

type TelegramService struct {
	token       string
	groupID     string
	botUsername string
	apiBase     string
	client      *http.Client
}

func NewTelegramService() *TelegramService {
	return NewTelegramServiceWith(config.TelegramBotToken, config.TelegramGroupID, config.TelegramBotUsername, config.TelegramAPIBase)
}

func NewTelegramServiceWith(token, groupID, botUsername, apiBase string) *TelegramService {
	return &TelegramService{
		token:       token,
		groupID:     groupID,
		botUsername: botUsername,
		apiBase:     strings.TrimRight(apiBase, "/"),
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NotifyGroup posts one message to the shared nurse group. The text embeds
// user and conversation ids as metadata a group reply can be matched back
// against, and the button deep-links into a private /start for the
// conversation.
func (s *TelegramService) NotifyGroup(ctx context.Context, conversationID, userID uint, userName, message string) error {
	if s.token == "" || s.groupID == "" || s.botUsername == "" {
		return ErrTelegramNotConfigured
	}
	if strings.TrimSpace(userName) == "" {
		userName = "A user"
	}
	text := fmt.Sprintf("From: %s\nUser: %d\nConversation: %d\n\nMessage: %s", userName, userID, conversationID, message)
	payload := map[string]any{
		"chat_id": s.groupID,
		"text":    text,
		"reply_markup": map[string]any{
			"inline_keyboard": [][]map[string]any{
				{
					{
						"text": "✍️ Reply Privately",
						"url":  fmt.Sprintf("https://t.me/%s?start=%d", s.botUsername, conversationID),
					},
				},
			},
		},
	}
	return s.sendMessage(ctx, payload)
}

// SendDirect sends plain text to a nurse's private chat.
func (s *TelegramService) SendDirect(ctx context.Context, chatID int64, text string) error {
	if s.token == "" {
		return ErrTelegramNotConfigured
	}
	return s.sendMessage(ctx, map[string]any{"chat_id": chatID, "text": text})
}

func (s *TelegramService) sendMessage(ctx context.Context, payload map[string]any) error {
	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

// Bot API update envelope, reduced to the fields the webhook acts on.

type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	MessageID      int64            `json:"message_id"`
	Text           string           `json:"text"`
	Chat           TelegramChat     `json:"chat"`
	ReplyToMessage *TelegramMessage `json:"reply_to_message"`
}

type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"` // "private", "group", "supergroup"
}

var conversationIDPattern = regexp.MustCompile(`Conversation: (\S+)`)

// ExtractConversationID pattern-matches the conversation id back out of a
// notification's text. The quoted text is operator-visible and fragile, so a
// miss is an expected outcome, not an error.
func ExtractConversationID(text string) (uint, bool) {
	m := conversationIDPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil || id == 0 {
		log.Printf("[telegram] metadata matched but id %q is not usable", m[1])
		return 0, false
	}
	return uint(id), true
}
