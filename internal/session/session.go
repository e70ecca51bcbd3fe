// Package session holds the authenticated identity of the client and keeps it
// in durable storage across restarts.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/pkg/client"
	"github.com/naveenspark/hackforge/pkg/domain"
)

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrIncompleteSession rejects a user without a token or a token without a user.
	ErrIncompleteSession = errors.New("session: user and access token are both required")
)

// API is the subset of the API client the session needs.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	Logout(ctx context.Context) error
	UploadAvatar(ctx context.Context, userID, filename string, image io.Reader) (string, error)
	SetToken(token string)
}

// Status is the state machine position of a session.
type Status int

const (
	Anonymous Status = iota
	Authenticated
)

func (s Status) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// State is a snapshot of the session. IsLoading and Error are transient and
// never persisted.
type State struct {
	User            *domain.UserProfile
	AccessToken     string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Status reports the state machine position.
func (s State) Status() Status {
	if s.IsAuthenticated {
		return Authenticated
	}
	return Anonymous
}

// UserID returns the signed-in user's id, or "".
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Session returns the persistable part of the state.
func (s State) Session() domain.Session {
	return domain.Session{User: s.User, AccessToken: s.AccessToken, IsAuthenticated: s.IsAuthenticated}
}

func (s State) clone() State {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	return s
}

// Listener observes session transitions. It runs after the store's lock is released.
type Listener func(prev, next State)

// Store is the auth session store. The zero value is not usable; call New.
type Store struct {
	api     API
	storage storage.Storage
	logger  *zap.Logger

	// persistMu orders commit+persist pairs so storage never regresses.
	persistMu sync.Mutex

	mu        sync.RWMutex
	state     State
	inflight  int
	listeners map[int]Listener
	nextID    int
}

// New returns an anonymous session store.
func New(api API, st storage.Storage, logger *zap.Logger) *Store {
	return &Store{
		api:       api,
		storage:   st,
		logger:    logging.OrNop(logger).Named("session"),
		listeners: make(map[int]Listener),
	}
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token returns the current access token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// Subscribe registers l for every transition and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// mutation describes a state change. auth is true when the persisted triple changes.
type mutation struct {
	apply func(*State)
	auth  bool
	delta int // change to the in-flight request count
}

func (s *Store) commit(ctx context.Context, m mutation) State {
	if m.auth {
		s.persistMu.Lock()
		defer s.persistMu.Unlock()
	}

	s.mu.Lock()
	prev := s.state.clone()
	if m.apply != nil {
		m.apply(&s.state)
	}
	s.inflight += m.delta
	s.state.IsLoading = s.inflight > 0
	if m.auth {
		// Push the token before anyone else can observe the new state.
		s.api.SetToken(s.state.AccessToken)
	}
	next := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if m.auth {
		// A cancelled caller must not leave storage behind memory.
		s.persist(context.WithoutCancel(ctx), next)
	}
	for _, l := range listeners {
		l(prev, next)
	}
	return next
}

func setAuth(st *State, user domain.UserProfile, token string) {
	u := user.Clone()
	st.User = &u
	st.AccessToken = token
	st.IsAuthenticated = true
	st.Error = ""
}

func clearAuth(st *State) {
	st.User = nil
	st.AccessToken = ""
	st.IsAuthenticated = false
}

// Login authenticates with creds. On success the session becomes authenticated
// with the returned user and token; on failure the previous session is kept,
// the error message is recorded and the error is returned.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (domain.UserProfile, error) {
	if err := creds.Validate(); err != nil {
		s.commit(ctx, mutation{apply: func(st *State) { st.Error = err.Error() }})
		return domain.UserProfile{}, err
	}

	s.commit(ctx, mutation{apply: func(st *State) { st.Error = "" }, delta: 1})
	res, err := s.api.Login(ctx, creds)
	if err == nil && res.AccessToken == "" {
		err = ErrIncompleteSession
	}
	if err != nil {
		s.commit(ctx, mutation{apply: func(st *State) { st.Error = client.Message(err) }, delta: -1})
		s.logger.Warn("login failed", zap.String("email", creds.Email), zap.Error(err))
		return domain.UserProfile{}, err
	}

	s.commit(ctx, mutation{apply: func(st *State) { setAuth(st, res.User, res.AccessToken) }, auth: true, delta: -1})
	s.logger.Info("login succeeded", zap.String("user_id", res.User.ID))
	return res.User, nil
}

// Register creates an account and signs in with the session it returns.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (domain.UserProfile, error) {
	if err := reg.Validate(); err != nil {
		s.commit(ctx, mutation{apply: func(st *State) { st.Error = err.Error() }})
		return domain.UserProfile{}, err
	}

	s.commit(ctx, mutation{apply: func(st *State) { st.Error = "" }, delta: 1})
	res, err := s.api.Register(ctx, reg)
	if err == nil && res.AccessToken == "" {
		err = ErrIncompleteSession
	}
	if err != nil {
		s.commit(ctx, mutation{apply: func(st *State) { st.Error = client.Message(err) }, delta: -1})
		s.logger.Warn("registration failed", zap.String("email", reg.Email), zap.Error(err))
		return domain.UserProfile{}, err
	}
	s.commit(ctx, mutation{apply: func(st *State) { setAuth(st, res.User, res.AccessToken) }, auth: true, delta: -1})
	s.logger.Info("registered", zap.String("user_id", res.User.ID))
	return res.User, nil
}

// Logout ends the session. The server is told on a best-effort basis; the local
// session is cleared regardless. Logout is idempotent.
func (s *Store) Logout(ctx context.Context) {
	if s.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed", zap.Error(err))
		}
	}
	s.commit(ctx, mutation{apply: func(st *State) {
		clearAuth(st)
		st.Error = ""
	}, auth: true})
}

// SetAuth installs a session obtained outside Login, e.g. after registration.
func (s *Store) SetAuth(ctx context.Context, user domain.UserProfile, token string) error {
	if token == "" {
		return ErrIncompleteSession
	}
	s.commit(ctx, mutation{apply: func(st *State) { setAuth(st, user, token) }, auth: true})
	return nil
}

// UpdateUser merges patch into the current user, keeping unspecified fields.
func (s *Store) UpdateUser(ctx context.Context, patch domain.UserPatch) (domain.UserProfile, error) {
	var (
		updated domain.UserProfile
		ok      bool
	)
	s.commit(ctx, mutation{apply: func(st *State) {
		if st.User == nil {
			return
		}
		updated = patch.Apply(*st.User)
		st.User = &updated
		ok = true
	}, auth: true})
	if !ok {
		return domain.UserProfile{}, ErrNotAuthenticated
	}
	return updated.Clone(), nil
}

// UploadAvatar uploads an image and points the user's avatar at it.
func (s *Store) UploadAvatar(ctx context.Context, filename string, image io.Reader) (string, error) {
	userID := s.State().UserID()
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	url, err := s.api.UploadAvatar(ctx, userID, filename, image)
	if err != nil {
		s.commit(ctx, mutation{apply: func(st *State) { st.Error = client.Message(err) }})
		return "", err
	}
	if _, err := s.UpdateUser(ctx, domain.UserPatch{Avatar: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// ClearError drops the recorded error message.
func (s *Store) ClearError(ctx context.Context) {
	s.commit(ctx, mutation{apply: func(st *State) { st.Error = "" }})
}
