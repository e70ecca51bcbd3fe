package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// Messages collects direct and team-channel messages pushed over the realtime
// channel.
type Messages struct {
	logger *zap.Logger

	mu            sync.RWMutex
	direct        map[string][]domain.Message
	channels      map[string][]domain.ChannelMessage
	seen          map[string]bool
	unreadDirect  map[string]int
	unreadChannel map[string]int
}

// NewMessages returns an empty message store.
func NewMessages(logger *zap.Logger) *Messages {
	m := &Messages{logger: logging.OrNop(logger).Named("store").With(zap.String("store", "messages"))}
	m.Reset()
	return m
}

// Apply appends message events; other kinds are ignored. Re-delivered
// messages are dropped by id.
func (m *Messages) Apply(ev events.Event) error {
	switch ev.Kind {
	case events.KindNewMessage:
		var msg domain.Message
		if err := ev.Decode(&msg); err != nil {
			return fmt.Errorf("store.Messages.Apply: %w", err)
		}
		if msg.ID == "" || msg.ConversationID == "" {
			return fmt.Errorf("store.Messages.Apply: message without id or conversation")
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.seen["m:"+msg.ID] {
			return nil
		}
		m.seen["m:"+msg.ID] = true
		m.direct[msg.ConversationID] = append(m.direct[msg.ConversationID], msg)
		m.unreadDirect[msg.ConversationID]++

	case events.KindNewChannelMessage:
		var msg domain.ChannelMessage
		if err := ev.Decode(&msg); err != nil {
			return fmt.Errorf("store.Messages.Apply: %w", err)
		}
		if msg.ID == "" || msg.ChannelID == "" {
			return fmt.Errorf("store.Messages.Apply: channel message without id or channel")
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.seen["c:"+msg.ID] {
			return nil
		}
		m.seen["c:"+msg.ID] = true
		m.channels[msg.ChannelID] = append(m.channels[msg.ChannelID], msg)
		m.unreadChannel[msg.ChannelID]++
	}
	return nil
}

// Consume applies events from ch until it closes or ctx ends.
func (m *Messages) Consume(ctx context.Context, ch <-chan events.Event) {
	consume(ctx, ch, m.Apply, m.logger)
}

// Conversation returns the direct messages of one conversation, oldest first.
func (m *Messages) Conversation(id string) []domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Message(nil), m.direct[id]...)
}

// Channel returns the messages of one team channel, oldest first.
func (m *Messages) Channel(id string) []domain.ChannelMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.ChannelMessage(nil), m.channels[id]...)
}

// Unread returns the unread counts of direct conversations and channels.
func (m *Messages) Unread() (direct, channel int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.unreadDirect {
		direct += n
	}
	for _, n := range m.unreadChannel {
		channel += n
	}
	return direct, channel
}

// MarkConversationRead zeroes the unread count of a conversation.
func (m *Messages) MarkConversationRead(id string) {
	m.mu.Lock()
	delete(m.unreadDirect, id)
	m.mu.Unlock()
}

// MarkChannelRead zeroes the unread count of a channel.
func (m *Messages) MarkChannelRead(id string) {
	m.mu.Lock()
	delete(m.unreadChannel, id)
	m.mu.Unlock()
}

// Reset drops every message.
func (m *Messages) Reset() {
	m.mu.Lock()
	m.direct = make(map[string][]domain.Message)
	m.channels = make(map[string][]domain.ChannelMessage)
	m.seen = make(map[string]bool)
	m.unreadDirect = make(map[string]int)
	m.unreadChannel = make(map[string]int)
	m.mu.Unlock()
}
