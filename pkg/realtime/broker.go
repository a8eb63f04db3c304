package realtime

import "sync"

// Broker fans out message-insert notifications per conversation. Every code
// path that appends to the message log publishes here; subscribers react by
// reloading the full message list, never by merging the event payload, so a
// dropped or coalesced notification can only delay a refresh, not corrupt
// state.

// InsertEvent describes one appended message. Consumers treat it as an
// invalidation signal only.
type InsertEvent struct {
	ConversationID uint
	MessageID      uint
	SenderType     string
}

type Subscription struct {
	C      <-chan InsertEvent
	cancel func()
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

type Broker struct {
	mu   sync.Mutex
	subs map[uint]map[int]chan InsertEvent
	next int
}

var (
	defaultBroker *Broker
	once          sync.Once
)

// Default returns a process-wide broker instance.
func Default() *Broker {
	once.Do(func() { defaultBroker = NewBroker() })
	return defaultBroker
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uint]map[int]chan InsertEvent)}
}

// Subscribe registers for insert events on one conversation. The channel is
// buffered; when a subscriber lags, newer events are coalesced by dropping,
// which is harmless under reload-on-event semantics.
func (b *Broker) Subscribe(conversationID uint) *Subscription {
	ch := make(chan InsertEvent, 8)

	b.mu.Lock()
	id := b.next
	b.next++
	m := b.subs[conversationID]
	if m == nil {
		m = make(map[int]chan InsertEvent)
		b.subs[conversationID] = m
	}
	m[id] = ch
	b.mu.Unlock()

	var cancelOnce sync.Once
	cancel := func() {
		cancelOnce.Do(func() {
			b.mu.Lock()
			if m := b.subs[conversationID]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(b.subs, conversationID)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return &Subscription{C: ch, cancel: cancel}
}

// Publish notifies all subscribers of the event's conversation. Never blocks
// the inserting path.
func (b *Broker) Publish(ev InsertEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.ConversationID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
