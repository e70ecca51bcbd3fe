// Package events is the dispatch point between the realtime bridge and the
// stores. The bridge publishes, each store subscribes to the kinds it owns and
// applies them itself.
package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/logging"
)

// Kind names an inbound realtime event.
type Kind string

const (
	KindNewMessage        Kind = "newMessage"
	KindNewChannelMessage Kind = "newChannelMessage"
	KindHackathonUpdated  Kind = "hackathonUpdated"
	KindTeamUpdated       Kind = "teamUpdated"
	KindProjectUpdated    Kind = "projectUpdated"
)

// Known returns true if k is an event kind some store consumes.
func (k Kind) Known() bool {
	switch k {
	case KindNewMessage, KindNewChannelMessage, KindHackathonUpdated, KindTeamUpdated, KindProjectUpdated:
		return true
	}
	return false
}

// Event is one inbound realtime update.
type Event struct {
	Kind       Kind            `json:"event"`
	Payload    json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"-"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type busMsg interface{ isBusMsg() }

type subscribe struct {
	kinds []Kind
	ch    chan Event
	reply chan int
}

type unsubscribe struct {
	id int
}

type publish struct {
	ev Event
}

type shutdown struct{}

func (subscribe) isBusMsg()   {}
func (unsubscribe) isBusMsg() {}
func (publish) isBusMsg()     {}
func (shutdown) isBusMsg()    {}

type subscriber struct {
	kinds map[Kind]bool
	ch    chan Event
}

// Bus fans events out to subscribers. A single goroutine owns the subscriber
// table; every interaction is a message on its inbox.
type Bus struct {
	inbox   chan busMsg
	subs    map[int]subscriber
	nextID  int
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *zap.Logger
	dropped atomic.Int64
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// NewBus starts a bus that runs until ctx is cancelled or Close is called.
func NewBus(parent context.Context, logger *zap.Logger) *Bus {
	ctx, cancel := context.WithCancel(parent)
	b := &Bus{
		inbox:  make(chan busMsg, 64),
		subs:   make(map[int]subscriber),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logging.OrNop(logger).Named("events"),
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	defer close(b.done)
	defer b.closeAll()
	for {
		select {
		case <-b.ctx.Done():
			return

		case m := <-b.inbox:
			switch msg := m.(type) {
			case subscribe:
				id := b.nextID
				b.nextID++
				kinds := make(map[Kind]bool, len(msg.kinds))
				for _, k := range msg.kinds {
					kinds[k] = true
				}
				b.subs[id] = subscriber{kinds: kinds, ch: msg.ch}
				msg.reply <- id

			case unsubscribe:
				if sub, ok := b.subs[msg.id]; ok {
					close(sub.ch)
					delete(b.subs, msg.id)
				}

			case publish:
				b.fanOut(msg.ev)

			case shutdown:
				b.cancel()
				return
			}
		}
	}
}

func (b *Bus) fanOut(ev Event) {
	delivered := false
	for _, sub := range b.subs {
		if len(sub.kinds) > 0 && !sub.kinds[ev.Kind] {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered = true
		default:
			b.dropped.Add(1)
			b.logger.Warn("subscriber full, event dropped", zap.String("kind", string(ev.Kind)))
		}
	}
	if !delivered {
		b.logger.Debug("event had no receiver", zap.String("kind", string(ev.Kind)))
	}
}

func (b *Bus) closeAll() {
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

func (b *Bus) send(m busMsg) bool {
	if b.ctx.Err() != nil {
		return false
	}
	select {
	case b.inbox <- m:
		return true
	case <-b.ctx.Done():
		return false
	}
}

// Subscribe returns a channel receiving events of the given kinds (all kinds
// when none are given) and a function that ends the subscription. The channel
// is closed when the subscription ends or the bus stops.
func (b *Bus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	ch := make(chan Event, DefaultBuffer)
	reply := make(chan int, 1)
	if !b.send(subscribe{kinds: kinds, ch: ch, reply: reply}) {
		close(ch)
		return ch, func() {}
	}
	var id int
	select {
	case id = <-reply:
	case <-b.done:
		select {
		case <-reply:
			// Registered before the stop; closeAll already closed ch.
		default:
			close(ch)
		}
		return ch, func() {}
	}
	return ch, func() { b.send(unsubscribe{id: id}) }
}

// Publish queues ev for delivery. It returns false once the bus has stopped.
func (b *Bus) Publish(ev Event) bool {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	return b.send(publish{ev: ev})
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Close stops the bus and closes every subscriber channel.
func (b *Bus) Close() {
	b.send(shutdown{})
	<-b.done
}
