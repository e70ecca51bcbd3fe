// Package realtime keeps one websocket open for the signed-in user and feeds
// the frames it receives into the event bus.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/internal/session"
)

// DialTimeout bounds the websocket handshake.
const DialTimeout = 10 * time.Second

// Conn is the part of *websocket.Conn the bridge uses.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens a Conn.
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

// WSDialer dials with github.com/coder/websocket.
type WSDialer struct {
	HTTPClient *http.Client
}

// Dial implements Dialer.
func (d WSDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Publisher receives decoded events. *events.Bus implements it.
type Publisher interface {
	Publish(ev events.Event) bool
}

// link is one live connection and its read loop.
type link struct {
	conn   Conn
	userID string
	token  string
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *link) alive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Bridge owns at most one live connection at a time.
type Bridge struct {
	endpoint string
	dialer   Dialer
	bus      Publisher
	logger   *zap.Logger

	mu  sync.Mutex // serializes Sync and Close
	cur *link
}

// New returns a Bridge that dials endpoint, e.g. "ws://localhost:5000/ws".
// A nil dialer uses WSDialer.
func New(endpoint string, dialer Dialer, bus Publisher, logger *zap.Logger) *Bridge {
	if dialer == nil {
		dialer = WSDialer{}
	}
	return &Bridge{
		endpoint: endpoint,
		dialer:   dialer,
		bus:      bus,
		logger:   logging.OrNop(logger).Named("realtime"),
	}
}

// Endpoint builds the connection URL for a user. http(s) schemes are mapped
// to ws(s), and an empty path becomes /ws.
func Endpoint(base, userID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("realtime.Endpoint: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("realtime.Endpoint: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("realtime.Endpoint: missing host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("userId", userID)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connected returns true while a connection is open.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur != nil && b.cur.alive()
}

// UserID returns the user the open connection belongs to, or "".
func (b *Bridge) UserID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur == nil || !b.cur.alive() {
		return ""
	}
	return b.cur.userID
}

// Sync makes the connection match st. Authenticated with a user id: keep the
// connection if it was opened for that user and token, otherwise close it and
// dial a new one. Anything else: close. The old connection is always closed before
// the new one is dialed.
func (b *Bridge) Sync(ctx context.Context, st session.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID := st.UserID()
	if st.Status() != session.Authenticated || userID == "" {
		b.closeLocked()
		return nil
	}
	if b.cur != nil && b.cur.userID == userID && b.cur.token == st.AccessToken && b.cur.alive() {
		return nil
	}
	b.closeLocked()

	rawURL, err := Endpoint(b.endpoint, userID, st.AccessToken)
	if err != nil {
		return err
	}
	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	conn, err := b.dialer.Dial(dialCtx, rawURL)
	cancel()
	if err != nil {
		return fmt.Errorf("realtime.Sync: dial: %w", err)
	}

	readCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	l := &link{conn: conn, userID: userID, token: st.AccessToken, cancel: stop, done: make(chan struct{})}
	b.cur = l
	go b.readLoop(readCtx, l)
	b.logger.Info("connected", zap.String("user_id", userID))
	return nil
}

// Close drops the connection, if any.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Bridge) closeLocked() {
	l := b.cur
	if l == nil {
		return
	}
	b.cur = nil
	if err := l.conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		b.logger.Debug("close", zap.Error(err))
	}
	l.cancel()
	<-l.done
	b.logger.Info("disconnected", zap.String("user_id", l.userID))
}

func (b *Bridge) readLoop(ctx context.Context, l *link) {
	defer close(l.done)
	for {
		_, data, err := l.conn.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
				websocket.CloseStatus(err) == websocket.StatusGoingAway:
				b.logger.Info("server closed connection", zap.String("user_id", l.userID))
			default:
				b.logger.Warn("read failed", zap.String("user_id", l.userID), zap.Error(err))
			}
			return
		}

		var ev events.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			b.logger.Warn("bad frame", zap.Error(err))
			continue
		}
		if !ev.Kind.Known() {
			b.logger.Debug("ignoring event", zap.String("event", string(ev.Kind)))
			continue
		}
		if !b.bus.Publish(ev) {
			return
		}
	}
}

// Watch syncs the bridge with s now and after every sign-in, sign-out or user
// change. Transitions that arrive while a dial is in progress are coalesced;
// the latest state is always the one synced. stop closes the connection.
func (b *Bridge) Watch(ctx context.Context, s *session.Store) (stop func()) {
	kick := make(chan struct{}, 1)
	unsub := s.Subscribe(func(prev, next session.State) {
		if prev.Status() == next.Status() && prev.UserID() == next.UserID() && prev.AccessToken == next.AccessToken {
			return
		}
		select {
		case kick <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.syncLogged(ctx, s.State())
		for {
			select {
			case <-ctx.Done():
				return
			case <-kick:
				b.syncLogged(ctx, s.State())
			}
		}
	}()

	return func() {
		unsub()
		cancel()
		<-done
		b.Close()
	}
}

func (b *Bridge) syncLogged(ctx context.Context, st session.State) {
	if err := b.Sync(ctx, st); err != nil {
		b.logger.Warn("sync failed", zap.Error(err))
	}
}
