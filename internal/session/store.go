package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/inkgrid/server/internal/grid"
)

// StoreConfig contains session store configuration.
type StoreConfig struct {
	MaxSessions int           // Oldest sessions are evicted beyond this (default 1000)
	TTL         time.Duration // Idle sessions expire after this (default 1h)
	DefaultSpec grid.Spec     // Draft grid size of new sessions
	OnEvict     func(id string)
}

// Store keeps sessions in memory, bounded by count and idle time. Sessions
// never share state with each other.
type Store struct {
	sessions    *expirable.LRU[string, *Session]
	defaultSpec grid.Spec
	now         func() time.Time
}

// NewStore creates a session store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.DefaultSpec == (grid.Spec{}) {
		cfg.DefaultSpec = grid.DefaultSpec
	}
	if err := cfg.DefaultSpec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default grid: %w", err)
	}

	var onEvict expirable.EvictCallback[string, *Session]
	if cfg.OnEvict != nil {
		hook := cfg.OnEvict
		onEvict = func(id string, _ *Session) { hook(id) }
	}

	return &Store{
		sessions:    expirable.NewLRU[string, *Session](cfg.MaxSessions, onEvict, cfg.TTL),
		defaultSpec: cfg.DefaultSpec,
		now:         time.Now,
	}, nil
}

// Create starts a new empty session.
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.defaultSpec, st.now)
	st.sessions.Add(s.ID, s)
	return s
}

// Get returns a session and extends its lifetime.
func (st *Store) Get(id string) (*Session, error) {
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.sessions.Add(id, s)
	return s, nil
}

// Delete removes a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	return st.sessions.Remove(id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.sessions.Len()
}
