// Package app wires the client, session, stores and realtime bridge into one
// context object that the CLI and TUI share.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/hackforge/internal/config"
	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/internal/realtime"
	"github.com/naveenspark/hackforge/internal/session"
	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/internal/store"
	"github.com/naveenspark/hackforge/pkg/client"
)

// ErrSessionExpired is returned by Verify when the server no longer accepts
// the persisted token.
var ErrSessionExpired = errors.New("app: session expired, please log in again")

// App holds every long-lived component. Fields are set by New and never
// reassigned.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Client     *client.Client
	Storage    storage.Storage
	Session    *session.Store
	Bus        *events.Bus
	Hackathons *store.Hackathons
	Projects   *store.Projects
	Teams      *store.Teams
	Messages   *store.Messages
	Bridge     *realtime.Bridge // nil when realtime is disabled

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	started   bool
	closed    bool
	wg        sync.WaitGroup
	unsubs    []func()
	stopWatch func()
}

type options struct {
	storage    storage.Storage
	dialer     realtime.Dialer
	registerer prometheus.Registerer
	httpClient *http.Client
}

// Option customizes New.
type Option func(*options)

// WithStorage uses st instead of opening the configured backend.
func WithStorage(st storage.Storage) Option { return func(o *options) { o.storage = st } }

// WithDialer replaces the websocket dialer.
func WithDialer(d realtime.Dialer) Option { return func(o *options) { o.dialer = d } }

// WithMetrics registers client metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option { return func(o *options) { o.registerer = reg } }

// WithHTTPClient replaces the API client's transport.
func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// New builds an App. Nothing touches the network until Start.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger = logging.OrNop(logger)

	st := o.storage
	if st == nil {
		var err error
		st, err = storage.Open(cfg.Storage.Backend, cfg.StoragePath())
		if err != nil {
			return nil, fmt.Errorf("app.New: %w", err)
		}
	}

	copts := []client.Option{client.WithTimeout(cfg.API.Timeout), client.WithLogger(logger)}
	if o.httpClient != nil {
		copts = append(copts, client.WithHTTPClient(o.httpClient))
	}
	if o.registerer != nil {
		copts = append(copts, client.WithMetrics(o.registerer))
	}
	c := client.New(cfg.API.URL, copts...)

	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus(ctx, logger)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Client:     c,
		Storage:    st,
		Session:    session.New(c, st, logger),
		Bus:        bus,
		Hackathons: store.NewHackathons(c.Hackathons(), logger),
		Projects:   store.NewProjects(c.Projects(), logger),
		Teams:      store.NewTeams(c.Teams(), logger),
		Messages:   store.NewMessages(logger),
		ctx:        ctx,
		cancel:     cancel,
	}
	if cfg.Realtime.URL != "" {
		a.Bridge = realtime.New(cfg.Realtime.URL, o.dialer, bus, logger)
	}
	return a, nil
}

type consumer interface {
	Consume(ctx context.Context, ch <-chan events.Event)
}

// Start restores the persisted session, then starts the event consumers and
// the realtime bridge. The token is pushed to the client before Start returns,
// so no request can go out with a stale header.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("app.Start: closed")
	}
	if a.started {
		return nil
	}

	if err := a.Session.Rehydrate(ctx); err != nil {
		return fmt.Errorf("app.Start: %w", err)
	}

	subs := []struct {
		c     consumer
		kinds []events.Kind
	}{
		{a.Hackathons, []events.Kind{events.KindHackathonUpdated}},
		{a.Projects, []events.Kind{events.KindProjectUpdated}},
		{a.Teams, []events.Kind{events.KindTeamUpdated}},
		{a.Messages, []events.Kind{events.KindNewMessage, events.KindNewChannelMessage}},
	}
	for _, s := range subs {
		ch, unsub := a.Bus.Subscribe(s.kinds...)
		a.unsubs = append(a.unsubs, unsub)
		a.wg.Add(1)
		go func(c consumer) {
			defer a.wg.Done()
			c.Consume(a.ctx, ch)
		}(s.c)
	}

	if a.Bridge != nil {
		a.stopWatch = a.Bridge.Watch(a.ctx, a.Session)
	}
	a.started = true
	a.Logger.Debug("started", zap.Stringer("session", a.Session.State().Status()))
	return nil
}

// Verify checks the session against the server and refreshes the cached
// profile. Only an authentication failure ends the session; transient errors
// keep it.
func (a *App) Verify(ctx context.Context) error {
	st := a.Session.State()
	if st.Status() != session.Authenticated {
		return nil
	}
	me, err := a.Client.Me(ctx)
	switch {
	case client.IsStatus(err, http.StatusUnauthorized):
		a.Logger.Info("persisted session rejected by server")
		a.Logout(ctx)
		return ErrSessionExpired
	case err != nil:
		a.Logger.Warn("session check failed", zap.Error(err))
		return nil
	}
	return a.Session.SetAuth(ctx, *me, st.AccessToken)
}

// Refresh loads the first page of every collection concurrently, keeping
// each store's current filter.
func (a *App) Refresh(ctx context.Context) error {
	size := a.Config.UI.PageSize
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreSuperseded(a.Hackathons.List(ctx, a.Hackathons.Snapshot().Filter, 1, size)) })
	g.Go(func() error { return ignoreSuperseded(a.Projects.List(ctx, a.Projects.Snapshot().Filter, 1, size)) })
	g.Go(func() error { return ignoreSuperseded(a.Teams.List(ctx, a.Teams.Snapshot().Filter, 1, size)) })
	return g.Wait()
}

func ignoreSuperseded(err error) error {
	if errors.Is(err, store.ErrSuperseded) {
		return nil
	}
	return err
}

// Logout ends the session, drops the realtime connection and empties every
// store so nothing of the previous user stays visible.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	if a.Bridge != nil {
		a.Bridge.Close()
	}
	a.Hackathons.Reset()
	a.Projects.Reset()
	a.Teams.Reset()
	a.Messages.Reset()
}

// Close stops background work and releases storage. It is safe to call more
// than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	stopWatch, unsubs := a.stopWatch, a.unsubs
	a.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	} else if a.Bridge != nil {
		a.Bridge.Close()
	}
	for _, u := range unsubs {
		u()
	}
	a.cancel()
	a.Bus.Close()
	a.wg.Wait()
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("app.Close: %w", err)
	}
	return nil
}
