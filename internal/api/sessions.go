package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/matchhedge/internal/engine"
	"github.com/rewired-gh/matchhedge/internal/logger"
)

// minSweepInterval bounds how often Run looks for idle sessions.
const minSweepInterval = time.Second

// ErrTooManySessions is returned when the registry is full.
var ErrTooManySessions = errors.New("too many open sessions")

// session owns one engine; mu serialises every request touching it.
type session struct {
	mu       sync.Mutex
	engine   *engine.Engine
	created  time.Time
	lastUsed atomic.Int64 // unix nanoseconds
	closed   bool
}

func (s *session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

func (s *session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// Registry holds one engine per client session. Sessions left idle for
// longer than the idle TTL are closed; a zero TTL keeps them forever.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	defaults engine.Options
	max      int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry. New sessions start from defaults.
func NewRegistry(defaults engine.Options, maxSessions int, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		defaults: defaults,
		max:      maxSessions,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create opens a session. A nil bankroll uses the registry default.
func (r *Registry) Create(bankroll *float64) (string, *engine.Engine, error) {
	opts := r.defaults
	if bankroll != nil {
		opts.Bankroll = *bankroll
	}

	r.mu.Lock()
	expired := r.detachIdleLocked()
	defer closeSessions(expired)
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return "", nil, ErrTooManySessions
	}
	e, err := engine.New(opts)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	now := r.now()
	s := &session{engine: e, created: now}
	s.touch(now)
	r.sessions[id] = s
	return id, e, nil
}

// get looks up a session and marks it used.
func (r *Registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Sweep closes every session idle for longer than the TTL and returns how
// many were closed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	expired := r.detachIdleLocked()
	r.mu.Unlock()
	closeSessions(expired)
	return len(expired)
}

// Run sweeps idle sessions until ctx is done. It returns at once when
// sessions never expire.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := max(r.idleTTL/2, minSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Info("Closed %d idle sessions", n)
			}
		}
	}
}

func (r *Registry) detachIdleLocked() []*session {
	if r.idleTTL <= 0 {
		return nil
	}
	now := r.now()
	var expired []*session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	return expired
}

func closeSessions(sessions []*session) {
	for _, s := range sessions {
		s.close()
	}
}

// Delete closes and forgets a session, waiting for its in-flight request.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	return true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	_ = s.engine.Close()
}
