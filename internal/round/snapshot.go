package round

import (
	"fmt"
	"time"

	"clearpoints/internal/targets"
)

// Snapshot is a read-only copy of the controller state for renderers.
type Snapshot struct {
	Status       Status           `json:"status"`
	Banner       string           `json:"banner"`
	Elapsed      time.Duration    `json:"elapsed_ns"`
	ExpectedNext int              `json:"expected_next"`
	TargetCount  int              `json:"target_count"`
	Targets      []targets.Target `json:"targets"`
	Generation   uint64           `json:"generation"`
	RoundID      string           `json:"round_id,omitempty"`
	// Transitions is false right after a round begins so the renderer places
	// the new targets without animating them.
	Transitions bool `json:"transitions"`
}

func (s Snapshot) Seconds() float64 {
	return s.Elapsed.Seconds()
}

// ElapsedLabel renders the stopwatch rounded to one decimal place.
func (s Snapshot) ElapsedLabel() string {
	return fmt.Sprintf("%.1fs", s.Seconds())
}
