package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/disscount/disscount/internal/listing"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
)

var ErrSessionNotFound = errors.New("search session not found")

const defaultMaxSessions = 1024

// SearchSession is a server-held incremental product list. The pager and the
// scroll watcher share the session for its whole life; a requery resets the
// pager in place.
type SearchSession struct {
	ID        uuid.UUID
	mu        sync.Mutex
	query     ProductQuery
	pager     *listing.Pager[*models.Product]
	watcher   *listing.ScrollWatcher
	createdAt time.Time
	updatedAt time.Time
}

func (s *SearchSession) close() {
	s.watcher.Close()
}

// SessionState is the JSON view of a session.
type SessionState struct {
	ID        string                    `json:"id"`
	Query     ProductQuery              `json:"query"`
	Page      listing.Page[ProductView] `json:"page"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// SessionStore keeps a bounded number of search sessions. The least recently
// used session is closed and dropped when the store is full.
type SessionStore struct {
	products   *ProductService
	batchSize  int
	scrollOpts listing.ScrollOptions
	sessions   *lru.Cache[uuid.UUID, *SearchSession]
}

// NewSessionStore creates a session store revealing batchSize products per
// batch.
func NewSessionStore(products *ProductService, batchSize, maxSessions int, scrollOpts listing.ScrollOptions) (*SessionStore, error) {
	if batchSize < 1 {
		return nil, listing.ErrInvalidBatchSize
	}
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	sessions, err := lru.NewWithEvict(maxSessions, func(_ uuid.UUID, s *SearchSession) {
		s.close()
		metrics.SearchSessionsActive.Dec()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	return &SessionStore{
		products:   products,
		batchSize:  batchSize,
		scrollOpts: scrollOpts,
		sessions:   sessions,
	}, nil
}

// Create runs the search and opens a session over its results.
func (st *SessionStore) Create(ctx context.Context, q ProductQuery) (*SessionState, error) {
	items, err := st.products.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	pager, err := listing.NewPager(items, st.batchSize)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	session := &SearchSession{
		ID:        uuid.New(),
		query:     q,
		pager:     pager,
		watcher:   listing.NewScrollWatcher(pager, st.scrollOpts),
		createdAt: now,
		updatedAt: now,
	}
	metrics.SearchSessionsActive.Inc()
	st.sessions.Add(session.ID, session)

	return st.state(session), nil
}

// Get returns the current state of a session.
func (st *SessionStore) Get(id uuid.UUID) (*SessionState, error) {
	session, err := st.lookup(id)
	if err != nil {
		return nil, err
	}
	return st.state(session), nil
}

// More reveals the next batch. The boolean reports whether anything changed.
func (st *SessionStore) More(id uuid.UUID) (*SessionState, bool, error) {
	session, err := st.lookup(id)
	if err != nil {
		return nil, false, err
	}
	loaded := session.pager.LoadMore()
	if loaded {
		metrics.SearchBatchesRevealed.WithLabelValues("more").Inc()
		st.touch(session)
	}
	return st.state(session), loaded, nil
}

// Scroll feeds a scroll observation to the session's watcher.
func (st *SessionStore) Scroll(id uuid.UUID, pos listing.ScrollPosition) (*SessionState, bool, error) {
	session, err := st.lookup(id)
	if err != nil {
		return nil, false, err
	}
	loaded := session.watcher.Observe(pos)
	if loaded {
		metrics.SearchBatchesRevealed.WithLabelValues("scroll").Inc()
		st.touch(session)
	}
	return st.state(session), loaded, nil
}

// Requery replaces the session's result set. The reveal count always goes
// back to the first batch.
func (st *SessionStore) Requery(ctx context.Context, id uuid.UUID, q ProductQuery) (*SessionState, error) {
	session, err := st.lookup(id)
	if err != nil {
		return nil, err
	}
	items, err := st.products.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	session.query = q
	session.pager.Reset(items)
	session.updatedAt = time.Now()
	session.mu.Unlock()

	return st.state(session), nil
}

// Delete closes and drops a session.
func (st *SessionStore) Delete(id uuid.UUID) error {
	if !st.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	return st.sessions.Len()
}

func (st *SessionStore) lookup(id uuid.UUID) (*SearchSession, error) {
	session, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (st *SessionStore) touch(s *SearchSession) {
	s.mu.Lock()
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (st *SessionStore) state(s *SearchSession) *SessionState {
	s.mu.Lock()
	query, createdAt, updatedAt := s.query, s.createdAt, s.updatedAt
	page := s.pager.Page()
	s.mu.Unlock()

	return &SessionState{
		ID:        s.ID.String(),
		Query:     query,
		Page:      listing.MapPage(page, st.products.Views),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
