// Package round implements the round controller: the state machine that
// owns one game's targets, stopwatch and deferred removals.
//
// Every mutation, whether it comes from a caller, a stopwatch tick or a
// removal timer firing, runs under the controller mutex, so handlers never
// interleave. Timer callbacks carry the generation they were scheduled in
// and re-check it when they fire.
package round

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"clearpoints/internal/events"
	"clearpoints/internal/targets"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidTargetCount = errors.New("invalid target count")
	ErrRoundRunning       = errors.New("round in progress")
)

type Option func(*Controller)

// WithClock replaces the real clock, typically with a clockwork fake clock
// in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

type Controller struct {
	mu     sync.Mutex
	cfg    Config
	clock  clockwork.Clock
	rng    *rand.Rand
	logger zerolog.Logger
	bus    *events.Bus // may be nil

	targetCount int
	status      Status
	closed      bool

	// live round
	generation   uint64
	roundID      string
	count        int
	expectedNext int
	elapsed      time.Duration
	set          *targets.Set
	transitions  bool

	pending         []pendingRemoval // schedule order, current generation only
	transitionTimer clockwork.Timer
	tickStop        chan struct{}
}

// NewController returns an idle controller. bus may be nil when nobody
// listens for changes.
func NewController(cfg Config, bus *events.Bus, opts ...Option) *Controller {
	c := &Controller{
		cfg:          cfg,
		clock:        clockwork.NewRealClock(),
		logger:       log.Logger,
		bus:          bus,
		targetCount:  cfg.TargetCount,
		status:       StatusIdle,
		expectedNext: 1,
		set:          new(targets.Set),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.clock.Now().UnixNano()))
	}
	return c
}

// Configure sets the target count used by the next round. It is rejected
// while a round is running or when n is negative or above the configured
// maximum; the previous value is kept in both cases.
func (c *Controller) Configure(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 || (c.cfg.MaxTargetCount > 0 && n > c.cfg.MaxTargetCount) {
		return ErrInvalidTargetCount
	}
	if c.status == StatusRunning {
		return ErrRoundRunning
	}
	c.targetCount = n
	c.publish(events.ChangeConfigured, n)
	return nil
}

func (c *Controller) TargetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetCount
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start begins the first round. On a controller that already has a round it
// behaves exactly like Restart.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.status != StatusIdle {
		c.restart()
		return
	}
	c.begin()
	c.logger.Info().
		Str("round_id", c.roundID).
		Int("target_count", c.count).
		Msg("round started")
}

// Restart discards the current round, cancelling every pending removal, and
// begins a new one from any status.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.restart()
}

func (c *Controller) restart() {
	prev := c.roundID
	cancelled := c.begin()
	c.logger.Info().
		Str("round_id", c.roundID).
		Str("previous_round_id", prev).
		Int("target_count", c.count).
		Int("cancelled_removals", cancelled).
		Msg("round restarted")
}

// begin supersedes whatever round is live and reports how many pending
// removals it cancelled. Callers hold c.mu.
func (c *Controller) begin() int {
	c.stopTicker()
	cancelled := c.cancelPending()
	if c.transitionTimer != nil {
		c.transitionTimer.Stop()
		c.transitionTimer = nil
	}

	c.generation++
	c.roundID = uuid.New().String()
	c.count = c.targetCount
	c.set = targets.Generate(c.count, c.cfg.Layout, c.rng)
	c.expectedNext = 1
	c.elapsed = 0
	c.transitions = false
	c.status = StatusRunning

	gen := c.generation
	c.startTicker(gen)
	c.transitionTimer = c.clock.AfterFunc(c.cfg.TransitionDelay, func() {
		c.onTransitions(gen)
	})
	c.publish(events.ChangeStatus, 0)
	return cancelled
}

// Activate handles a click on the target carrying value. Clicks outside a
// running round, or on targets that are gone or already activated, are
// ignored. A click on any other live target fails the round.
func (c *Controller) Activate(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.status != StatusRunning {
		c.logger.Debug().Int("value", value).Stringer("status", c.status).Msg("activation ignored: round not running")
		return
	}
	if !c.set.Pending(value) {
		c.logger.Debug().Str("round_id", c.roundID).Int("value", value).Msg("activation ignored: no live target")
		return
	}

	if value != c.expectedNext {
		c.status = StatusFailed
		c.stopTicker()
		c.cancelPending()
		c.logger.Info().
			Str("round_id", c.roundID).
			Int("value", value).
			Int("expected", c.expectedNext).
			Dur("elapsed", c.elapsed).
			Msg("round failed")
		c.publish(events.ChangeStatus, value)
		return
	}

	c.set.Activate(value)
	c.expectedNext++
	c.scheduleRemoval(c.generation, value)
	c.publish(events.ChangeActivated, value)
}

// Snapshot copies the state a renderer needs.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := c.count
	if c.status == StatusIdle {
		count = c.targetCount
	}
	return Snapshot{
		Status:       c.status,
		Banner:       c.status.Banner(),
		Elapsed:      c.elapsed,
		ExpectedNext: c.expectedNext,
		TargetCount:  count,
		Targets:      c.set.GetList(),
		Generation:   c.generation,
		RoundID:      c.roundID,
		Transitions:  c.transitions,
	}
}

// Close stops the stopwatch and every pending timer. The controller ignores
// all further input.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTicker()
	c.cancelPending()
	if c.transitionTimer != nil {
		c.transitionTimer.Stop()
		c.transitionTimer = nil
	}
}

func (c *Controller) publish(t events.ChangeType, value int) {
	if c.bus == nil {
		return
	}
	if !c.bus.Publish(events.ChangeEvent{
		Type:       t,
		Generation: c.generation,
		RoundID:    c.roundID,
		Status:     c.status.String(),
		Value:      value,
	}) {
		c.logger.Warn().Str("round_id", c.roundID).Str("type", string(t)).Msg("change bus full, dropping event")
	}
}
