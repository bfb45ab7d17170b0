package sessions

import (
	"time"

	"clearpoints/internal/broadcast"
	"clearpoints/internal/round"
)

// Session is one player's game: a controller plus the fan-out of its
// change events.
type Session struct {
	ID          string
	Game        *round.Controller
	Broadcaster *broadcast.Broadcaster
	CreatedAt   time.Time
	lastSeen    time.Time
}

func (s *Session) close() {
	s.Game.Close()
	s.Broadcaster.Stop()
}
