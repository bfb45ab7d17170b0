package round

import (
	"time"

	"clearpoints/internal/targets"
)

type Config struct {
	TargetCount     int
	MaxTargetCount  int
	Layout          targets.Layout
	TickInterval    time.Duration // wall-clock time between stopwatch ticks
	TickQuantum     time.Duration // elapsed time credited per tick
	RemovalDelay    time.Duration
	TransitionDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		TargetCount:     3,
		MaxTargetCount:  1000,
		Layout:          targets.DefaultLayout(),
		TickInterval:    100 * time.Millisecond,
		TickQuantum:     100 * time.Millisecond,
		RemovalDelay:    1500 * time.Millisecond,
		TransitionDelay: 100 * time.Millisecond,
	}
}
