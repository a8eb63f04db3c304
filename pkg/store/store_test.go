package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mamacare/models"
	"mamacare/pkg/realtime"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.NurseSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAppendAndListOrdering(t *testing.T) {
	s := New(newTestDB(t), nil)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, 1)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	// insert out of order across all sender types
	inserts := []struct {
		at     time.Time
		sender string
		text   string
	}{
		{base.Add(3 * time.Minute), models.SenderNurse, "third"},
		{base.Add(1 * time.Minute), models.SenderUser, "first"},
		{base.Add(2 * time.Minute), models.SenderAI, "second"},
	}
	for _, in := range inserts {
		uid := uint(1)
		var sid *uint
		if in.sender == models.SenderUser {
			sid = &uid
		}
		m := models.Message{ConversationID: conv.ID, SenderID: sid, SenderType: in.sender, Content: in.text, Timestamp: in.at}
		if err := s.AppendMessage(ctx, &m); err != nil {
			t.Fatalf("append %q: %v", in.text, err)
		}
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Fatalf("position %d: got %q want %q", i, msgs[i].Content, want)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Fatalf("timestamps not non-decreasing at %d", i)
		}
	}
}

func TestAppendRejectsBadMessages(t *testing.T) {
	s := New(newTestDB(t), nil)
	ctx := context.Background()
	conv, _ := s.CreateConversation(ctx, 1)

	if err := s.AppendMessage(ctx, &models.Message{ConversationID: conv.ID, SenderType: models.SenderUser, Content: "   "}); err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if err := s.AppendMessage(ctx, &models.Message{ConversationID: conv.ID, SenderType: "robot", Content: "hi"}); err != ErrWrongSender {
		t.Fatalf("expected ErrWrongSender, got %v", err)
	}
	if err := s.AppendMessage(ctx, &models.Message{ConversationID: conv.ID + 99, SenderType: models.SenderUser, Content: "hi"}); err != ErrNoConversation {
		t.Fatalf("expected ErrNoConversation for missing conversation, got %v", err)
	}
}

func TestAppendTouchesConversationAndPublishes(t *testing.T) {
	broker := realtime.NewBroker()
	s := New(newTestDB(t), broker)
	ctx := context.Background()

	older, _ := s.CreateConversation(ctx, 1)
	newer, _ := s.CreateConversation(ctx, 1)

	sub := broker.Subscribe(older.ID)
	defer sub.Cancel()

	// a message into the older conversation moves it to the top
	uid := uint(1)
	m := models.Message{ConversationID: older.ID, SenderID: &uid, SenderType: models.SenderUser, Content: "bump", Timestamp: time.Now().Add(time.Minute)}
	if err := s.AppendMessage(ctx, &m); err != nil {
		t.Fatalf("append: %v", err)
	}

	convs, err := s.ListConversations(ctx, 1)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(convs) != 2 || convs[0].ID != older.ID {
		t.Fatalf("expected bumped conversation first, got %+v", convs)
	}
	_ = newer

	select {
	case ev := <-sub.C:
		if ev.ConversationID != older.ID || ev.SenderType != models.SenderUser {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an insert event")
	}
}

func TestDeleteCascades(t *testing.T) {
	s := New(newTestDB(t), nil)
	ctx := context.Background()
	conv, _ := s.CreateConversation(ctx, 1)
	for i := 0; i < 3; i++ {
		m := models.Message{ConversationID: conv.ID, SenderType: models.SenderAI, Content: fmt.Sprintf("m%d", i)}
		if err := s.AppendMessage(ctx, &m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// a stranger cannot delete it
	if err := s.DeleteConversation(ctx, 2, conv.ID); err == nil {
		t.Fatalf("expected delete by non-owner to fail")
	}

	if err := s.DeleteConversation(ctx, 1, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected cascade to remove messages, found %d", len(msgs))
	}
	// appending into the deleted conversation fails cleanly
	if err := s.AppendMessage(ctx, &models.Message{ConversationID: conv.ID, SenderType: models.SenderUser, Content: "ghost"}); err != ErrNoConversation {
		t.Fatalf("expected ErrNoConversation after delete, got %v", err)
	}
}
