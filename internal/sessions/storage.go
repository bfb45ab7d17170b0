package sessions

import (
	"sync"
	"time"

	"clearpoints/internal/broadcast"
	"clearpoints/internal/events"
	"clearpoints/internal/round"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const sweepInterval = 5 * time.Minute

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      round.Config
	ttl      time.Duration
	clock    clockwork.Clock
	done     chan struct{}
	once     sync.Once
}

// NewStore starts a store that drops sessions idle for longer than ttl.
func NewStore(cfg round.Config, ttl time.Duration, clock clockwork.Clock) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		ttl:      ttl,
		clock:    clock,
		done:     make(chan struct{}),
	}
	go s.sweepStale(clock.NewTicker(sweepInterval))
	return s
}

func (s *Store) Create() *Session {
	bus := events.NewBus()
	id := uuid.New().String()
	game := round.NewController(s.cfg, bus,
		round.WithClock(s.clock),
		round.WithLogger(log.With().Str("session_id", id).Logger()),
	)
	now := s.clock.Now()
	sess := &Session{
		ID:          id,
		Game:        game,
		Broadcaster: broadcast.NewBroadcaster(bus),
		CreatedAt:   now,
		lastSeen:    now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session and marks it as recently used.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	if sess != nil {
		sess.lastSeen = s.clock.Now()
	}
	return sess
}

// Touch marks a session as used without returning it. It reports whether
// the session still exists.
func (s *Store) Touch(id string) bool {
	return s.Get(id) != nil
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.close()
		log.Debug().Str("session_id", id).Msg("session deleted")
	}
	return ok
}

func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	return list
}

// Close stops the sweeper and every session.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		for id, sess := range s.sessions {
			sess.close()
			delete(s.sessions, id)
		}
		s.mu.Unlock()
	})
}

func (s *Store) sweepStale(ticker clockwork.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.Chan():
			s.sweep()
		}
	}
}

func (s *Store) sweep() int {
	s.mu.Lock()
	now := s.clock.Now()
	var stale []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.close()
	}
	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("swept stale sessions")
	}
	return len(stale)
}
