// Package store holds the client-side caches of server resources. Each Store
// owns one collection view and one detail record; only its own methods write
// them.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
	"github.com/naveenspark/hackforge/internal/logging"
	"github.com/naveenspark/hackforge/pkg/client"
	"github.com/naveenspark/hackforge/pkg/domain"
)

// DefaultPageSize is used when List is called with a non-positive page size.
const DefaultPageSize = 12

// ErrSuperseded is returned by List and Get when a newer call on the same
// store was issued before this one's response arrived. The response is
// discarded: the latest request wins, not the latest response.
var ErrSuperseded = errors.New("store: superseded by a newer request")

// Backend is the REST surface a Store reads and writes through.
// *client.Resource implements it.
type Backend[T any] interface {
	List(ctx context.Context, query url.Values) (*domain.Page[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, payload any) (*T, error)
	Update(ctx context.Context, id string, payload any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Collection is the paginated list view of one entity type.
type Collection[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	Filter   Filter
	Loading  bool
	Err      error
}

// Result reports the outcome of a write. Success is false when the server
// rejected the write; Err then holds the normalized error.
type Result[T any] struct {
	Success bool
	Item    T
	Err     error
}

// Store caches one resource type.
type Store[T domain.Entity] struct {
	name    string
	backend Backend[T]
	kind    events.Kind
	logger  *zap.Logger

	mu        sync.RWMutex
	coll      Collection[T]
	current   *T
	listSeq   uint64
	detailSeq uint64
}

// New returns an empty store named name. kind is the realtime event kind that
// carries updates for T; Apply ignores every other kind.
func New[T domain.Entity](name string, backend Backend[T], kind events.Kind, logger *zap.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		backend: backend,
		kind:    kind,
		logger:  logging.OrNop(logger).Named("store").With(zap.String("store", name)),
		coll:    Collection[T]{PageSize: DefaultPageSize},
	}
}

// Name returns the store's name.
func (s *Store[T]) Name() string { return s.name }

// Snapshot returns a copy of the collection.
func (s *Store[T]) Snapshot() Collection[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.coll
	c.Items = append([]T(nil), s.coll.Items...)
	return c
}

// Current returns the cached detail record, if any.
func (s *Store[T]) Current() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		var zero T
		return zero, false
	}
	return *s.current, true
}

// List fetches one page. Loading is set while the latest List call is
// outstanding. On failure the collection is reset to empty with Err set,
// never a mix of old and new items. A response to a call that has since been
// superseded is discarded and ErrSuperseded returned.
func (s *Store[T]) List(ctx context.Context, f Filter, page, pageSize int) error {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	if f != nil {
		if v, ok := f.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("store.List %s: %w", s.name, err)
			}
		}
		q = f.Query()
		// The snapshot keeps its own copy so later edits by the caller do
		// not show through.
		if c, ok := f.(interface{ clone() Filter }); ok {
			f = c.clone()
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))

	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.coll.Loading = true
	s.mu.Unlock()

	res, err := s.backend.List(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		s.logger.Debug("discarding superseded page", zap.Uint64("seq", seq), zap.Uint64("latest", s.listSeq))
		return ErrSuperseded
	}
	if err != nil {
		s.coll = Collection[T]{Page: page, PageSize: pageSize, Filter: f, Err: err}
		s.logger.Warn("list failed", zap.Error(err))
		return err
	}

	items := res.Items
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	got := res.Page
	if got < 1 {
		got = page
	}
	s.coll = Collection[T]{
		Items:    append([]T(nil), items...),
		Total:    res.Total,
		Page:     got,
		PageSize: pageSize,
		Filter:   f,
	}
	return nil
}

// Get fetches one item into the detail cache. The collection is not touched.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	s.detailSeq++
	seq := s.detailSeq
	s.mu.Unlock()

	item, err := s.backend.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if seq != s.detailSeq {
		return zero, ErrSuperseded
	}
	if err != nil {
		return zero, err
	}
	s.current = item
	return *item, nil
}

// failure converts a backend error into a Result. Only transport failures are
// also returned as an error.
func (s *Store[T]) failure(op string, err error) (Result[T], error) {
	s.logger.Info(op+" rejected", zap.String("message", client.Message(err)), zap.Error(err))
	res := Result[T]{Err: err}
	if client.IsKind(err, client.KindTransport) {
		return res, err
	}
	return res, nil
}

// Create posts payload and, once the server confirms, prepends the created
// item to the collection.
func (s *Store[T]) Create(ctx context.Context, payload any) (Result[T], error) {
	item, err := s.backend.Create(ctx, payload)
	if err != nil {
		return s.failure("create", err)
	}

	s.mu.Lock()
	s.coll.Items = append([]T{*item}, s.coll.Items...)
	s.coll.Total++
	s.mu.Unlock()
	return Result[T]{Success: true, Item: *item}, nil
}

// Update sends payload and, once the server confirms, replaces the matching
// item in the collection and the detail cache.
func (s *Store[T]) Update(ctx context.Context, id string, payload any) (Result[T], error) {
	item, err := s.backend.Update(ctx, id, payload)
	if err != nil {
		return s.failure("update", err)
	}

	s.mu.Lock()
	s.merge(*item)
	s.mu.Unlock()
	return Result[T]{Success: true, Item: *item}, nil
}

// Delete removes the item server-side and then from the collection. Deleting
// an id that is not in the collection leaves it unchanged.
func (s *Store[T]) Delete(ctx context.Context, id string) (Result[T], error) {
	if err := s.backend.Delete(ctx, id); err != nil {
		return s.failure("delete", err)
	}

	s.mu.Lock()
	kept := make([]T, 0, len(s.coll.Items))
	removed := false
	for _, it := range s.coll.Items {
		if !removed && it.EntityID() == id {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if removed {
		s.coll.Items = kept
		if s.coll.Total > 0 {
			s.coll.Total--
		}
	}
	if s.current != nil && (*s.current).EntityID() == id {
		s.current = nil
	}
	s.mu.Unlock()
	return Result[T]{Success: true}, nil
}

// merge replaces the item with the same id in the collection and the detail
// cache. Items absent from the collection are not inserted. Callers hold mu.
func (s *Store[T]) merge(item T) {
	id := item.EntityID()
	for i, it := range s.coll.Items {
		if it.EntityID() == id {
			items := append([]T(nil), s.coll.Items...)
			items[i] = item
			s.coll.Items = items
			break
		}
	}
	if s.current != nil && (*s.current).EntityID() == id {
		cp := item
		s.current = &cp
	}
}

// Apply is the store's reducer for realtime updates. Events of other kinds
// are ignored.
func (s *Store[T]) Apply(ev events.Event) error {
	if ev.Kind != s.kind {
		return nil
	}
	var item T
	if err := ev.Decode(&item); err != nil {
		return fmt.Errorf("store.Apply %s: %w", s.name, err)
	}
	if item.EntityID() == "" {
		return fmt.Errorf("store.Apply %s: event without id", s.name)
	}
	s.mu.Lock()
	s.merge(item)
	s.mu.Unlock()
	return nil
}

// Consume applies events from ch until it closes or ctx ends.
func (s *Store[T]) Consume(ctx context.Context, ch <-chan events.Event) {
	consume(ctx, ch, s.Apply, s.logger)
}

// ClearCurrent drops the detail record.
func (s *Store[T]) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Reset empties the store. Outstanding List and Get calls are superseded.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.coll = Collection[T]{PageSize: DefaultPageSize}
	s.current = nil
	s.listSeq++
	s.detailSeq++
	s.mu.Unlock()
}

func consume(ctx context.Context, ch <-chan events.Event, apply func(events.Event) error, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := apply(ev); err != nil {
				logger.Warn("event rejected", zap.String("kind", string(ev.Kind)), zap.Error(err))
			}
		}
	}
}
