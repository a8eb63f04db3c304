package realtime

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(3)
	defer sub.Cancel()

	b.Publish(InsertEvent{ConversationID: 3, MessageID: 10, SenderType: "nurse"})

	select {
	case ev := <-sub.C:
		if ev.ConversationID != 3 || ev.MessageID != 10 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected an event")
	}
}

func TestPublishScopedByConversation(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(1)
	defer sub.Cancel()

	b.Publish(InsertEvent{ConversationID: 2, MessageID: 1})

	select {
	case ev := <-sub.C:
		t.Fatalf("event for another conversation leaked: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelClosesChannelAndIsIdempotent(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(5)
	sub.Cancel()
	sub.Cancel()

	if _, open := <-sub.C; open {
		t.Fatalf("expected channel closed after cancel")
	}
	// publishing after cancel must not panic
	b.Publish(InsertEvent{ConversationID: 5, MessageID: 2})
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(7)
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(InsertEvent{ConversationID: 7, MessageID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a lagging subscriber")
	}
}
