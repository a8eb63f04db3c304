// Package relay is the client-side orchestration for the nurse chat: it
// mediates between user input and the AI/human delivery modes while keeping
// a locally coherent view of one conversation's messages. The message log is
// the sole source of truth; the relay's optimistic entries exist only until
// the next authoritative reload.
package relay

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"mamacare/models"
	"mamacare/pkg/realtime"
)

type Mode string

const (
	ModeAI    Mode = "ai"
	ModeHuman Mode = "human"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInFlight   = errors.New("a send is already in flight")
	ErrNotConfirmed   = errors.New("deletion was not confirmed")
	ErrNoConversation = errors.New("no conversation selected")
)

// Store is the conversation/message data access the relay depends on.
type Store interface {
	ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, userID uint) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID uint) error
	ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
}

// AIBridge asks the AI responder for a reply; the responder persists the ai
// message itself (or nothing at all on failure).
type AIBridge interface {
	Respond(ctx context.Context, conversationID uint, message string) error
}

// NurseBridge notifies the human-operator channel. The user message is
// already persisted when this is called; a notify failure is reported but
// never rolls the persisted message back.
type NurseBridge interface {
	Notify(ctx context.Context, conversationID, userID uint, userName, message string) error
}

// Events delivers message-insert notifications for one conversation.
type Events interface {
	Subscribe(conversationID uint) *realtime.Subscription
}

// Relay holds the visible state for one user's nurse-chat screen.
type Relay struct {
	store  Store
	ai     AIBridge
	nurse  NurseBridge
	events Events
	state  StateStore

	userID   uint
	userName string

	// Notify, when set, receives one line per user-visible error.
	Notify func(string)

	mu            sync.Mutex
	conversations []models.Conversation
	selected      *models.Conversation
	creatingNew   bool
	messages      []models.Message
	sending       bool
	sub           *realtime.Subscription
	subDone       chan struct{}
}

func New(store Store, ai AIBridge, nurse NurseBridge, events Events, state StateStore, userID uint, userName string) *Relay {
	return &Relay{
		store:    store,
		ai:       ai,
		nurse:    nurse,
		events:   events,
		state:    state,
		userID:   userID,
		userName: userName,
	}
}

func (r *Relay) notify(msg string) {
	if r.Notify != nil {
		r.Notify(msg)
	}
}

// ListConversations refreshes the sidebar, newest-updated first. A fetch
// failure is non-blocking: the list goes empty and the error is surfaced
// once.
func (r *Relay) ListConversations(ctx context.Context) []models.Conversation {
	convs, err := r.store.ListConversations(ctx, r.userID)
	if err != nil {
		log.Printf("[relay] list conversations: %v", err)
		r.notify("Could not load conversations.")
		convs = nil
	}
	r.mu.Lock()
	r.conversations = convs
	out := append([]models.Conversation(nil), convs...)
	r.mu.Unlock()
	return out
}

// Select makes conv the visible conversation and reloads its messages.
func (r *Relay) Select(ctx context.Context, conv models.Conversation) {
	r.mu.Lock()
	r.selected = &conv
	r.creatingNew = false
	r.resubscribeLocked(conv.ID)
	r.mu.Unlock()

	r.reloadMessages(ctx)
	r.persistState()
}

// StartNew clears the selection and enters the pending-creation state. No
// conversation row exists until the first send.
func (r *Relay) StartNew() {
	r.mu.Lock()
	r.selected = nil
	r.creatingNew = true
	r.messages = nil
	r.unsubscribeLocked()
	r.mu.Unlock()
	r.persistState()
}

// Send runs the full send contract for either mode. Only one send may be in
// flight at a time.
func (r *Relay) Send(ctx context.Context, text string, mode Mode) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return ErrEmptyMessage
	}

	r.mu.Lock()
	if r.sending {
		r.mu.Unlock()
		return ErrSendInFlight
	}
	r.sending = true
	selected := r.selected
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.sending = false
		r.mu.Unlock()
	}()

	// Lazy creation: the conversation comes into being on first send.
	if selected == nil {
		conv, err := r.store.CreateConversation(ctx, r.userID)
		if err != nil {
			r.notify("Could not start a conversation. " + err.Error())
			return err
		}
		r.mu.Lock()
		r.conversations = append([]models.Conversation{*conv}, r.conversations...)
		r.selected = conv
		r.creatingNew = false
		r.messages = nil
		r.resubscribeLocked(conv.ID)
		selected = conv
		r.mu.Unlock()
		r.persistState()
	}
	convID := selected.ID

	// Optimistic entry: ID 0 marks it synthetic; it never survives a
	// reconcile.
	uid := r.userID
	optimistic := models.Message{
		ConversationID: convID,
		SenderID:       &uid,
		SenderType:     models.SenderUser,
		Content:        content,
		Timestamp:      time.Now(),
	}
	r.mu.Lock()
	r.messages = append(r.messages, optimistic)
	r.mu.Unlock()

	rollback := func() {
		r.mu.Lock()
		kept := r.messages[:0]
		for _, m := range r.messages {
			if m.ID == 0 && m.Content == content && m.SenderType == models.SenderUser {
				continue
			}
			kept = append(kept, m)
		}
		r.messages = kept
		r.mu.Unlock()
	}

	// Persist the authoritative user message first: the log must survive
	// even if the bridge never does.
	real := models.Message{
		ConversationID: convID,
		SenderID:       &uid,
		SenderType:     models.SenderUser,
		Content:        content,
		Timestamp:      time.Now(),
	}
	if err := r.store.AppendMessage(ctx, &real); err != nil {
		rollback()
		r.notify("Could not send message. " + err.Error())
		return err
	}

	switch mode {
	case ModeHuman:
		if err := r.nurse.Notify(ctx, convID, r.userID, r.userName, content); err != nil {
			// the persisted message stands; only the notification failed
			rollback()
			r.notify("Could not notify a nurse. " + err.Error())
			return err
		}
	default:
		if err := r.ai.Respond(ctx, convID, content); err != nil {
			rollback()
			r.notify("Could not send message to AI. " + err.Error())
			return err
		}
	}

	// Reconcile: drop the optimistic entry and trust the log.
	r.reloadMessages(ctx)
	return nil
}

// Delete removes a conversation after explicit confirmation; the cascade to
// its messages happens at the store. Clears selection if it was selected.
func (r *Relay) Delete(ctx context.Context, conversationID uint, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	if err := r.store.DeleteConversation(ctx, r.userID, conversationID); err != nil {
		r.notify("Could not delete the conversation. " + err.Error())
		return err
	}
	r.mu.Lock()
	kept := r.conversations[:0]
	for _, c := range r.conversations {
		if c.ID != conversationID {
			kept = append(kept, c)
		}
	}
	r.conversations = kept
	if r.selected != nil && r.selected.ID == conversationID {
		r.selected = nil
		r.messages = nil
		r.unsubscribeLocked()
	}
	r.mu.Unlock()
	r.persistState()
	return nil
}

// RestoreState re-applies the persisted UI state against the current
// conversation list. A selected id that no longer resolves is silently
// ignored.
func (r *Relay) RestoreState(ctx context.Context) {
	if r.state == nil {
		return
	}
	st, err := r.state.Load()
	if err != nil {
		log.Printf("[relay] restore state: %v", err)
		return
	}
	if st.CreatingNew {
		r.StartNew()
		return
	}
	if st.SelectedConversationID == 0 {
		return
	}
	r.mu.Lock()
	var found *models.Conversation
	for i := range r.conversations {
		if r.conversations[i].ID == st.SelectedConversationID {
			found = &r.conversations[i]
			break
		}
	}
	r.mu.Unlock()
	if found != nil {
		r.Select(ctx, *found)
	}
}

// Messages returns the visible message list.
func (r *Relay) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.messages...)
}

func (r *Relay) Selected() *models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		return nil
	}
	c := *r.selected
	return &c
}

func (r *Relay) CreatingNew() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creatingNew
}

func (r *Relay) Sending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sending
}

// Close cancels the live subscription.
func (r *Relay) Close() {
	r.mu.Lock()
	r.unsubscribeLocked()
	r.mu.Unlock()
}

// reloadMessages replaces the visible list with the log's contents, ordered
// by the store. Reload-over-merge is deliberate: it makes races between the
// optimistic path and externally arriving nurse/AI messages converge.
func (r *Relay) reloadMessages(ctx context.Context) {
	r.mu.Lock()
	selected := r.selected
	r.mu.Unlock()
	if selected == nil {
		return
	}
	msgs, err := r.store.ListMessages(ctx, selected.ID)
	if err != nil {
		log.Printf("[relay] reload messages: %v", err)
		return
	}
	r.mu.Lock()
	// selection may have moved while we fetched
	if r.selected != nil && r.selected.ID == selected.ID {
		r.messages = msgs
	}
	r.mu.Unlock()
}

// resubscribeLocked swaps the live subscription to conversationID; caller
// holds r.mu.
func (r *Relay) resubscribeLocked(conversationID uint) {
	r.unsubscribeLocked()
	if r.events == nil {
		return
	}
	sub := r.events.Subscribe(conversationID)
	done := make(chan struct{})
	r.sub = sub
	r.subDone = done
	go func() {
		defer close(done)
		for range sub.C {
			r.reloadMessages(context.Background())
		}
	}()
}

// unsubscribeLocked cancels the current subscription; caller holds r.mu.
func (r *Relay) unsubscribeLocked() {
	if r.sub != nil {
		r.sub.Cancel()
		r.sub = nil
		r.subDone = nil
	}
}

func (r *Relay) persistState() {
	if r.state == nil {
		return
	}
	r.mu.Lock()
	st := State{CreatingNew: r.creatingNew}
	if r.selected != nil {
		st.SelectedConversationID = r.selected.ID
	}
	r.mu.Unlock()
	if err := r.state.Save(st); err != nil {
		log.Printf("[relay] persist state: %v", err)
	}
}
