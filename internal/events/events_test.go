package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBusRoutesByKind(t *testing.T) {
	b := NewBus(context.Background(), nil)
	defer b.Close()

	teams, unsubTeams := b.Subscribe(KindTeamUpdated)
	defer unsubTeams()
	all, unsubAll := b.Subscribe()
	defer unsubAll()

	require.True(t, b.Publish(Event{Kind: KindHackathonUpdated, Payload: json.RawMessage(`{"id":"h1"}`)}))
	require.True(t, b.Publish(Event{Kind: KindTeamUpdated, Payload: json.RawMessage(`{"id":"t1"}`)}))

	ev := recv(t, teams)
	assert.Equal(t, KindTeamUpdated, ev.Kind)
	assert.False(t, ev.ReceivedAt.IsZero())

	assert.Equal(t, KindHackathonUpdated, recv(t, all).Kind)
	assert.Equal(t, KindTeamUpdated, recv(t, all).Kind)

	select {
	case ev := <-teams:
		t.Fatalf("unexpected event %v on team subscription", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(context.Background(), nil)
	defer b.Close()

	ch, unsub := b.Subscribe(KindNewMessage)
	unsub()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus(context.Background(), nil)
	defer b.Close()

	ch, unsub := b.Subscribe(KindNewMessage)
	defer unsub()
	for i := 0; i < DefaultBuffer+5; i++ {
		b.Publish(Event{Kind: KindNewMessage})
	}
	// A subscribe round-trip guarantees every publish before it was processed.
	_, unsub2 := b.Subscribe(KindTeamUpdated)
	unsub2()

	assert.Equal(t, int64(5), b.Dropped())
	assert.Len(t, ch, DefaultBuffer)
}

func TestBusCloseStopsEverything(t *testing.T) {
	b := NewBus(context.Background(), nil)
	ch, _ := b.Subscribe()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, b.Publish(Event{Kind: KindNewMessage}))

	late, _ := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a stopped bus yields a closed channel")
}

func TestBusStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBus(ctx, nil)
	ch, _ := b.Subscribe()
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not stop with its context")
	}
}

func TestKindKnown(t *testing.T) {
	assert.True(t, KindNewChannelMessage.Known())
	assert.False(t, Kind("typing").Known())
}
