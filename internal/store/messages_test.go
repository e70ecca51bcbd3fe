package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/pkg/domain"
)

func msgEvent(t *testing.T, kind events.Kind, v any) events.Event {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return events.Event{Kind: kind, Payload: raw}
}

func TestMessagesApply(t *testing.T) {
	m := NewMessages(nil)

	dm := domain.Message{ID: "m1", ConversationID: "c1", SenderID: "u2", Body: "hi"}
	require.NoError(t, m.Apply(msgEvent(t, events.KindNewMessage, dm)))
	require.NoError(t, m.Apply(msgEvent(t, events.KindNewMessage, dm)), "redelivery is not an error")
	require.NoError(t, m.Apply(msgEvent(t, events.KindNewMessage, domain.Message{ID: "m2", ConversationID: "c1", Body: "there"})))
	require.NoError(t, m.Apply(msgEvent(t, events.KindNewChannelMessage, domain.ChannelMessage{ID: "m1", ChannelID: "team-1", Body: "standup"})))
	require.NoError(t, m.Apply(msgEvent(t, events.KindHackathonUpdated, domain.Hackathon{ID: "h1"})))

	conv := m.Conversation("c1")
	require.Len(t, conv, 2)
	assert.Equal(t, "hi", conv[0].Body)
	assert.Equal(t, "there", conv[1].Body)
	assert.Len(t, m.Channel("team-1"), 1)

	direct, channel := m.Unread()
	assert.Equal(t, 2, direct)
	assert.Equal(t, 1, channel)

	m.MarkConversationRead("c1")
	direct, channel = m.Unread()
	assert.Zero(t, direct)
	assert.Equal(t, 1, channel)
	m.MarkChannelRead("team-1")
	_, channel = m.Unread()
	assert.Zero(t, channel)

	m.Reset()
	assert.Empty(t, m.Conversation("c1"))
}

func TestMessagesRejectsIncomplete(t *testing.T) {
	m := NewMessages(nil)
	assert.Error(t, m.Apply(msgEvent(t, events.KindNewMessage, domain.Message{ID: "m1"})))
	assert.Error(t, m.Apply(msgEvent(t, events.KindNewChannelMessage, domain.ChannelMessage{ChannelID: "c"})))
	assert.Error(t, m.Apply(events.Event{Kind: events.KindNewMessage, Payload: json.RawMessage(`[]`)}))
}
