package cart

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/fuegoaustral/storefront/internal/clock"
)

// DefaultSessionTTL is how long an idle cart survives before the sweeper
// discards it.
const DefaultSessionTTL = 2 * time.Hour

// Sessions owns the per-session cart stores. A session is created empty on
// first use and lives until it idles out; carts are never shared across
// sessions.
type Sessions struct {
	mu      sync.Mutex
	carts   map[string]*sessionEntry
	clock   clock.Clock
	ttl     time.Duration
	logger  apt.Logger
	timer   clock.Timer
	onEvict []func(token string)
}

type sessionEntry struct {
	store    *Store
	lastSeen time.Time
}

func NewSessions(clk clock.Clock, ttl time.Duration, logger apt.Logger) *Sessions {
	if clk == nil {
		clk = clock.System()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Sessions{
		carts:  make(map[string]*sessionEntry),
		clock:  clk,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue creates a new session with an empty cart and returns its token.
func (s *Sessions) Issue() (string, *Store) {
	token := uuid.NewString()
	store := NewStore()

	s.mu.Lock()
	s.carts[token] = &sessionEntry{store: store, lastSeen: s.clock.Now()}
	s.mu.Unlock()

	return token, store
}

// Get returns the store for a token and refreshes its idle deadline. The
// second return is false when the token is unknown or expired.
func (s *Sessions) Get(token string) (*Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[token]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.clock.Now()
	return entry.store, true
}

// OnEvict registers a callback invoked with each token the sweep drops.
// Components keying per-session state by token use it to release theirs
// together with the cart.
func (s *Sessions) OnEvict(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// Sweep drops sessions idle past the TTL and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()

	cutoff := s.clock.Now().Add(-s.ttl)
	var evicted []string
	for token, entry := range s.carts {
		if entry.lastSeen.Before(cutoff) {
			delete(s.carts, token)
			evicted = append(evicted, token)
		}
	}
	callbacks := s.onEvict
	s.mu.Unlock()

	for _, fn := range callbacks {
		for _, token := range evicted {
			fn(token)
		}
	}
	return len(evicted)
}

// Start schedules the periodic sweep. Wired as a lifecycle hook.
func (s *Sessions) Start(ctx context.Context) error {
	s.scheduleSweep()
	return nil
}

// Stop cancels the pending sweep.
func (s *Sessions) Stop(ctx context.Context) error {
	s.mu.Lock()
	timer := s.timer
	s.timer = nil
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	return nil
}

func (s *Sessions) scheduleSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = s.clock.AfterFunc(s.ttl/2, func() {
		if removed := s.Sweep(); removed > 0 {
			s.logger.Info("swept idle cart sessions", "removed", removed)
		}
		s.mu.Lock()
		stopped := s.timer == nil
		s.mu.Unlock()
		if !stopped {
			s.scheduleSweep()
		}
	})
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
