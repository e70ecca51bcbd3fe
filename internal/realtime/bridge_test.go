package realtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/pkg/domain"
)

type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
	d      *fakeDialer
}

func (c *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case f := <-c.frames:
		return websocket.MessageText, f, nil
	case <-c.closed:
		return 0, nil, websocket.CloseError{Code: websocket.StatusNormalClosure}
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (c *fakeConn) Close(websocket.StatusCode, string) error {
	c.once.Do(func() {
		c.d.live.Add(-1)
		close(c.closed)
	})
	return nil
}

type fakeDialer struct {
	live    atomic.Int32
	maxLive atomic.Int32

	mu    sync.Mutex
	urls  []string
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(_ context.Context, rawURL string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	n := d.live.Add(1)
	if n > d.maxLive.Load() {
		d.maxLive.Store(n)
	}
	c := &fakeConn{frames: make(chan []byte, 4), closed: make(chan struct{}), d: d}
	d.urls = append(d.urls, rawURL)
	d.conns = append(d.conns, c)
	return c, nil
}

func authed(id, token string) session.State {
	return session.State{User: &domain.UserProfile{ID: id}, AccessToken: token, IsAuthenticated: true}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{"ws://localhost:5000/ws", "ws://localhost:5000/ws?token=tok&userId=u1", false},
		{"http://localhost:5000", "ws://localhost:5000/ws?token=tok&userId=u1", false},
		{"https://api.example.com/rt", "wss://api.example.com/rt?token=tok&userId=u1", false},
		{"ftp://example.com", "", true},
		{"ws://", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := Endpoint(tt.base, "u1", "tok")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncFollowsSession(t *testing.T) {
	d := &fakeDialer{}
	b := New("ws://example.test/ws", d, events.NewBus(context.Background(), nil), nil)
	ctx := context.Background()

	require.NoError(t, b.Sync(ctx, authed("u1", "t1")))
	assert.True(t, b.Connected())
	assert.Equal(t, "u1", b.UserID())

	// Same user and token: no new connection.
	require.NoError(t, b.Sync(ctx, authed("u1", "t1")))
	assert.Len(t, d.urls, 1)

	// Different user: old one is closed before the new one is opened.
	require.NoError(t, b.Sync(ctx, authed("u2", "t2")))
	assert.Len(t, d.urls, 2)
	assert.Equal(t, int32(1), d.maxLive.Load(), "never two live connections")
	assert.Equal(t, "u2", b.UserID())
	u, err := url.Parse(d.urls[1])
	require.NoError(t, err)
	assert.Equal(t, "u2", u.Query().Get("userId"))
	assert.Equal(t, "t2", u.Query().Get("token"))

	require.NoError(t, b.Sync(ctx, session.State{}))
	assert.False(t, b.Connected())
	assert.Equal(t, int32(0), d.live.Load())

	b.Close() // idempotent
}

func TestSyncRebindsOnTokenChange(t *testing.T) {
	d := &fakeDialer{}
	b := New("ws://example.test/ws", d, events.NewBus(context.Background(), nil), nil)
	ctx := context.Background()

	require.NoError(t, b.Sync(ctx, authed("u1", "old")))
	require.NoError(t, b.Sync(ctx, authed("u1", "new")))

	d.mu.Lock()
	urls := append([]string(nil), d.urls...)
	d.mu.Unlock()
	require.Len(t, urls, 2)
	u, err := url.Parse(urls[1])
	require.NoError(t, err)
	assert.Equal(t, "new", u.Query().Get("token"))
	assert.Equal(t, "u1", u.Query().Get("userId"))
	assert.Equal(t, int32(1), d.maxLive.Load(), "old socket closed before the new dial")
	assert.Equal(t, int32(1), d.live.Load())
	assert.True(t, b.Connected())

	b.Close()
}

func TestSyncDialFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	b := New("ws://example.test/ws", d, events.NewBus(context.Background(), nil), nil)
	err := b.Sync(context.Background(), authed("u1", "t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, b.Connected())
}

func TestRedialAfterServerClose(t *testing.T) {
	d := &fakeDialer{}
	b := New("ws://example.test/ws", d, events.NewBus(context.Background(), nil), nil)
	defer b.Close()

	require.NoError(t, b.Sync(context.Background(), authed("u1", "t1")))
	require.NoError(t, d.conns[0].Close(websocket.StatusNormalClosure, "server restart"))
	assert.Eventually(t, func() bool { return !b.Connected() }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Sync(context.Background(), authed("u1", "t1")))
	assert.True(t, b.Connected())
	assert.Len(t, d.urls, 2)
}

func TestFramesReachTheBus(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		frames := []string{
			`not json`,
			`{"event":"somethingElse","data":{}}`,
			`{"event":"teamUpdated","data":{"id":"t1","name":"Rocket"}}`,
		}
		for _, f := range frames {
			if err := conn.Write(r.Context(), websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection until the client leaves.
		_, _, _ = conn.Read(r.Context())
	}))
	defer srv.Close()

	bus := events.NewBus(context.Background(), nil)
	defer bus.Close()
	ch, unsub := bus.Subscribe()
	defer unsub()

	b := New(strings.Replace(srv.URL, "http", "ws", 1)+"/ws", nil, bus, nil)
	require.NoError(t, b.Sync(context.Background(), authed("u1", "tok")))
	defer b.Close()

	select {
	case ev := <-ch:
		assert.Equal(t, events.KindTeamUpdated, ev.Kind)
		var team domain.Team
		require.NoError(t, ev.Decode(&team))
		assert.Equal(t, "Rocket", team.Name)
	case <-time.After(3 * time.Second):
		t.Fatal("no event published")
	}

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "u1", q.Get("userId"))
	assert.Equal(t, "tok", q.Get("token"))
}

type nopAPI struct{}

func (nopAPI) Login(context.Context, domain.Credentials) (*domain.AuthResult, error) {
	return nil, errors.New("not used")
}

func (nopAPI) Register(context.Context, domain.Registration) (*domain.AuthResult, error) {
	return nil, errors.New("not used")
}
func (nopAPI) Logout(context.Context) error { return nil }
func (nopAPI) UploadAvatar(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not used")
}
func (nopAPI) SetToken(string) {}

func TestWatch(t *testing.T) {
	d := &fakeDialer{}
	b := New("ws://example.test/ws", d, events.NewBus(context.Background(), nil), nil)
	sess := session.New(nopAPI{}, storage.NewMemory(), nil)
	ctx := context.Background()

	stop := b.Watch(ctx, sess)
	assert.Never(t, b.Connected, 50*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, sess.SetAuth(ctx, domain.UserProfile{ID: "u1"}, "t1"))
	assert.Eventually(t, func() bool { return b.UserID() == "u1" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sess.SetAuth(ctx, domain.UserProfile{ID: "u2"}, "t2"))
	assert.Eventually(t, func() bool { return b.UserID() == "u2" }, 2*time.Second, 10*time.Millisecond)

	sess.Logout(ctx)
	assert.Eventually(t, func() bool { return !b.Connected() }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sess.SetAuth(ctx, domain.UserProfile{ID: "u3"}, "t3"))
	assert.Eventually(t, b.Connected, 2*time.Second, 10*time.Millisecond)
	stop()
	assert.False(t, b.Connected())
	assert.Equal(t, int32(1), d.maxLive.Load())
}
