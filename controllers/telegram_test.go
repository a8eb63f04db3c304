package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"mamacare/models"
	"mamacare/pkg/realtime"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type fakeTelegram struct {
	directs []string
	chats   []int64
	groups  int
}

func (f *fakeTelegram) NotifyGroup(ctx context.Context, conversationID, userID uint, userName, message string) error {
	f.groups++
	return nil
}

func (f *fakeTelegram) SendDirect(ctx context.Context, chatID int64, text string) error {
	f.chats = append(f.chats, chatID)
	f.directs = append(f.directs, text)
	return nil
}

type webhookFixture struct {
	router *gin.Engine
	db     *gorm.DB
	cs     *store.ChatStore
	tg     *fakeTelegram
	user   *models.User
	convID uint
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	user := seedUser(t, db, false)
	conv, err := cs.CreateConversation(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	tg := &fakeTelegram{}
	r := gin.New()
	r.POST("/functions/telegram-webhook", TelegramWebhook(db, cs, tg, "-100200300"))
	return &webhookFixture{router: r, db: db, cs: cs, tg: tg, user: user, convID: conv.ID}
}

func (f *webhookFixture) sessionsFor(t *testing.T, chatID int64) []models.NurseSession {
	t.Helper()
	var sessions []models.NurseSession
	if err := f.db.Where("nurse_telegram_id = ?", chatID).Find(&sessions).Error; err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	return sessions
}

func privateUpdate(chatID int64, text string) gin.H {
	return gin.H{
		"update_id": 1,
		"message": gin.H{
			"message_id": 10,
			"text":       text,
			"chat":       gin.H{"id": chatID, "type": "private"},
		},
	}
}

func groupReply(repliedText, text string) gin.H {
	return gin.H{
		"update_id": 2,
		"message": gin.H{
			"message_id": 11,
			"text":       text,
			"chat":       gin.H{"id": int64(-100200300), "type": "supergroup"},
			"reply_to_message": gin.H{
				"message_id": 9,
				"text":       repliedText,
				"chat":       gin.H{"id": int64(-100200300), "type": "supergroup"},
			},
		},
	}
}

func TestWebhookStartBindsAndRebindReplaces(t *testing.T) {
	f := newWebhookFixture(t)
	const nurseChat = int64(777001)

	w := postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, fmt.Sprintf("/start %d", f.convID)))
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	sessions := f.sessionsFor(t, nurseChat)
	if len(sessions) != 1 || sessions[0].ActiveConversationID != f.convID {
		t.Fatalf("expected one session bound to %d, got %+v", f.convID, sessions)
	}

	// rebinding to another conversation replaces, never accumulates
	w = postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, fmt.Sprintf("/start %d", f.convID+50)))
	if w.Code != http.StatusOK {
		t.Fatalf("rebind: expected 200, got %d", w.Code)
	}
	sessions = f.sessionsFor(t, nurseChat)
	if len(sessions) != 1 || sessions[0].ActiveConversationID != f.convID+50 {
		t.Fatalf("expected one session rebound to %d, got %+v", f.convID+50, sessions)
	}
	if len(f.tg.directs) != 2 {
		t.Fatalf("expected a confirmation per /start, got %v", f.tg.directs)
	}
}

func TestWebhookStartWithoutArgumentIsInstructional(t *testing.T) {
	f := newWebhookFixture(t)

	w := postJSON(f.router, "/functions/telegram-webhook", privateUpdate(777002, "/start"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(f.sessionsFor(t, 777002)) != 0 {
		t.Fatalf("bare /start must not create a session")
	}
	if len(f.tg.directs) != 1 || !strings.Contains(f.tg.directs[0], "/start") {
		t.Fatalf("expected usage instructions, got %v", f.tg.directs)
	}
}

func TestWebhookEndRemovesSessionAndFreeTextFallsBack(t *testing.T) {
	f := newWebhookFixture(t)
	const nurseChat = int64(777003)

	postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, fmt.Sprintf("/start %d", f.convID)))

	// bound free text relays into the conversation
	w := postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, "How are you feeling today?"))
	if w.Code != http.StatusOK {
		t.Fatalf("relay: expected 200, got %d", w.Code)
	}
	msgs, _ := f.cs.ListMessages(context.Background(), f.convID)
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderNurse {
		t.Fatalf("expected one relayed nurse message, got %+v", msgs)
	}

	w = postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, "/end"))
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", w.Code)
	}
	if len(f.sessionsFor(t, nurseChat)) != 0 {
		t.Fatalf("session must be gone after /end")
	}

	// free text after /end gets instructions, not a relay
	before := len(msgs)
	w = postJSON(f.router, "/functions/telegram-webhook", privateUpdate(nurseChat, "still there?"))
	if w.Code != http.StatusOK {
		t.Fatalf("fallback: expected 200, got %d", w.Code)
	}
	msgs, _ = f.cs.ListMessages(context.Background(), f.convID)
	if len(msgs) != before {
		t.Fatalf("unbound free text must not be relayed, got %+v", msgs)
	}
	last := f.tg.directs[len(f.tg.directs)-1]
	if !strings.Contains(last, "/start") {
		t.Fatalf("expected instructional reply after /end, got %q", last)
	}
}

func TestWebhookGroupReplyRelaysViaMetadata(t *testing.T) {
	f := newWebhookFixture(t)

	notification := fmt.Sprintf("From: %s\nUser: %d\nConversation: %d\n\nMessage: please help", f.user.FullName, f.user.ID, f.convID)
	w := postJSON(f.router, "/functions/telegram-webhook", groupReply(notification, "Drink water and rest, dear."))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	msgs, _ := f.cs.ListMessages(context.Background(), f.convID)
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderNurse || msgs[0].Content != "Drink water and rest, dear." {
		t.Fatalf("expected the group reply relayed as a nurse message, got %+v", msgs)
	}
}

func TestWebhookGroupReplyWithoutMetadataIsDropped(t *testing.T) {
	f := newWebhookFixture(t)

	w := postJSON(f.router, "/functions/telegram-webhook", groupReply("just some banter", "lol same"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected silent 200, got %d", w.Code)
	}
	msgs, _ := f.cs.ListMessages(context.Background(), f.convID)
	if len(msgs) != 0 {
		t.Fatalf("reply without metadata must not be relayed, got %+v", msgs)
	}
}

func TestWebhookIgnoresNonMessageUpdates(t *testing.T) {
	f := newWebhookFixture(t)

	w := postJSON(f.router, "/functions/telegram-webhook", gin.H{"update_id": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty update, got %d", w.Code)
	}
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.OK {
		t.Fatalf("expected {ok:true}, got %s", w.Body.String())
	}
}

func TestWebhookGroupReplyIntoDeletedConversationIsDropped(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.cs.DeleteConversation(context.Background(), f.user.ID, f.convID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	notification := fmt.Sprintf("Conversation: %d\n\nMessage: old", f.convID)
	w := postJSON(f.router, "/functions/telegram-webhook", groupReply(notification, "too late"))
	if w.Code != http.StatusOK {
		t.Fatalf("deleted conversation reply must be dropped with 200, got %d", w.Code)
	}
}
