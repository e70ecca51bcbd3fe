package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/hackforge/internal/config"
	"github.com/naveenspark/hackforge/internal/devserver"
	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// authLog records the Authorization header of every API request.
type authLog struct {
	mu      sync.Mutex
	headers map[string][]string // path -> headers in order
}

func (l *authLog) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.mu.Lock()
		l.headers[r.URL.Path] = append(l.headers[r.URL.Path], r.Header.Get("Authorization"))
		l.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (l *authLog) last(path string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.headers[path]
	if len(h) == 0 {
		return "<none>"
	}
	return h[len(h)-1]
}

type fixture struct {
	dev *devserver.Server
	ts  *httptest.Server
	log *authLog
	st  storage.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := devserver.New(nil)
	require.NoError(t, dev.Seed())
	log := &authLog{headers: map[string][]string{}}
	ts := httptest.NewServer(log.wrap(dev))
	t.Cleanup(func() {
		dev.Close()
		ts.Close()
	})
	return &fixture{dev: dev, ts: ts, log: log, st: storage.NewMemory()}
}

func (f *fixture) config(realtime bool) *config.Config {
	cfg := &config.Config{
		API:     config.APIConfig{URL: f.ts.URL, Timeout: 5 * time.Second},
		Storage: config.StorageConfig{Backend: "memory"},
		UI:      config.UIConfig{PageSize: 10},
	}
	if realtime {
		cfg.Realtime.URL = "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	}
	return cfg
}

func (f *fixture) app(t *testing.T, realtime bool) *App {
	t.Helper()
	a, err := New(f.config(realtime), nil, WithStorage(f.st))
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	return a
}

var demo = domain.Credentials{Email: "ada@hackforge.dev", Password: devserver.DemoPassword}

func TestLoginThenListCarriesToken(t *testing.T) {
	f := newFixture(t)
	a := f.app(t, false)
	defer a.Close()
	ctx := context.Background()

	require.NoError(t, a.Hackathons.List(ctx, nil, 1, 10))
	assert.Equal(t, "", f.log.last("/api/hackathons"), "anonymous request has no header")

	_, err := a.Session.Login(ctx, demo)
	require.NoError(t, err)
	tok := a.Session.Token()
	require.NotEmpty(t, tok)

	require.NoError(t, a.Hackathons.List(ctx, store.HackathonFilter{Status: domain.StatusOngoing}, 1, 10))
	assert.Equal(t, "Bearer "+tok, f.log.last("/api/hackathons"))
	c := a.Hackathons.Snapshot()
	require.Len(t, c.Items, 1)
	assert.Equal(t, "AI for Good", c.Items[0].Title)
}

func TestRestartRestoresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.app(t, false)
	_, err := first.Session.Login(ctx, demo)
	require.NoError(t, err)
	tok := first.Session.Token()
	require.NoError(t, first.Close())

	second := f.app(t, false)
	defer second.Close()
	assert.Equal(t, session.Authenticated, second.Session.State().Status())
	assert.Equal(t, tok, second.Client.Token())

	require.NoError(t, second.Verify(ctx))
	require.NoError(t, second.Teams.List(ctx, nil, 1, 10))
	assert.Equal(t, "Bearer "+tok, f.log.last("/api/teams"))
}

func TestVerifyExpiredSession(t *testing.T) {
	f := newFixture(t)
	a := f.app(t, false)
	defer a.Close()
	ctx := context.Background()

	require.NoError(t, a.Session.SetAuth(ctx, domain.UserProfile{ID: "ghost"}, "revoked-token"))
	assert.ErrorIs(t, a.Verify(ctx), ErrSessionExpired)
	assert.Equal(t, session.Anonymous, a.Session.State().Status())
	assert.Empty(t, a.Client.Token())
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	a := f.app(t, false)
	defer a.Close()

	require.NoError(t, a.Refresh(context.Background()))
	assert.Equal(t, 3, a.Hackathons.Snapshot().Total)
	assert.Equal(t, 2, a.Projects.Snapshot().Total)
	assert.Equal(t, 2, a.Teams.Snapshot().Total)
}

func TestRealtimeUpdatesReachStores(t *testing.T) {
	f := newFixture(t)
	a := f.app(t, true)
	defer a.Close()
	ctx := context.Background()

	require.NoError(t, a.Refresh(ctx))
	_, err := a.Session.Login(ctx, demo)
	require.NoError(t, err)
	require.Eventually(t, a.Bridge.Connected, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return f.dev.Connections() == 1 }, 3*time.Second, 10*time.Millisecond)

	team := a.Teams.Snapshot().Items[0]
	team.Name = "Renamed Remotely"
	f.dev.Broadcast(events.KindTeamUpdated, team)
	assert.Eventually(t, func() bool {
		for _, it := range a.Teams.Snapshot().Items {
			if it.ID == team.ID {
				return it.Name == "Renamed Remotely"
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)

	userID := a.Session.State().UserID()
	f.dev.SendTo(userID, events.KindNewMessage, domain.Message{ID: "m1", ConversationID: "c1", Body: "welcome"})
	assert.Eventually(t, func() bool { return len(a.Messages.Conversation("c1")) == 1 }, 3*time.Second, 10*time.Millisecond)

	a.Logout(ctx)
	assert.False(t, a.Bridge.Connected())
	assert.Empty(t, a.Teams.Snapshot().Items)
	assert.Empty(t, a.Messages.Conversation("c1"))
	data, err := f.st.Get(ctx, session.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isAuthenticated":false`)
	assert.Eventually(t, func() bool { return f.dev.Connections() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := f.app(t, true)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Error(t, a.Start(context.Background()))
}
