package session

import (
	"context"
	"sync"
	"time"

	"github.com/Rana718/injectdb/internal/logging"
	"github.com/google/uuid"
)

// Store keeps sessions in memory. They are lost on restart.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	open        Opener
	idleTimeout time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewStore(open Opener, idleTimeout time.Duration, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Store{
		sessions:    make(map[string]*Session),
		open:        open,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.open, st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Verbose("Session %s created", s.ID)
	return s
}

// Get returns the session and marks it as active.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Reset()
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Expire removes sessions idle for longer than the store's timeout and
// returns how many were dropped.
func (st *Store) Expire() int {
	if st.idleTimeout <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.idleTimeout)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Reset()
		st.logger.Verbose("Session %s expired", s.ID)
	}
	return len(expired)
}

// Run expires idle sessions periodically until ctx is done.
func (st *Store) Run(ctx context.Context) {
	if st.idleTimeout <= 0 {
		return
	}
	interval := max(st.idleTimeout/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Expire()
		}
	}
}

// CloseAll resets every session and empties the store.
func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Reset()
	}
}
