package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/storage"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// StorageKey is where the session is persisted.
const StorageKey = "auth-storage"

// LegacyStorageKey held an older {user, token} record. It is never read or written.
const LegacyStorageKey = "user-storage"

const persistVersion = 0

type persisted struct {
	State   domain.Session `json:"state"`
	Version int            `json:"version"`
}

func (s *Store) persist(ctx context.Context, st State) {
	data, err := json.Marshal(persisted{State: st.Session(), Version: persistVersion})
	if err != nil {
		s.logger.Error("encode session", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, StorageKey, data); err != nil {
		s.logger.Error("persist session", zap.Error(err))
	}
}

// Rehydrate restores the persisted session and pushes its token into the API
// client. Call it before any other component issues requests. A missing record
// leaves the session anonymous; an unreadable or inconsistent one is discarded.
func (s *Store) Rehydrate(ctx context.Context) error {
	if _, err := s.storage.Get(ctx, LegacyStorageKey); err == nil {
		s.logger.Warn("ignoring legacy session record", zap.String("key", LegacyStorageKey))
	}

	data, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session.Rehydrate: %w", err)
	}

	var rec persisted
	if err := json.Unmarshal(data, &rec); err != nil || !rec.State.Valid() {
		s.logger.Warn("discarding unreadable session record", zap.Error(err))
		if rmErr := s.storage.Remove(ctx, StorageKey); rmErr != nil {
			return fmt.Errorf("session.Rehydrate: %w", rmErr)
		}
		return nil
	}

	sess := rec.State
	s.mu.Lock()
	if sess.IsAuthenticated {
		setAuth(&s.state, *sess.User, sess.AccessToken)
	} else {
		clearAuth(&s.state)
	}
	s.api.SetToken(s.state.AccessToken)
	s.mu.Unlock()

	s.logger.Debug("session rehydrated", zap.Bool("authenticated", sess.IsAuthenticated))
	return nil
}
