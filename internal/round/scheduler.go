package round

import (
	"clearpoints/internal/events"

	"github.com/jonboulle/clockwork"
)

type pendingRemoval struct {
	value int
	timer clockwork.Timer
}

// startTicker runs the stopwatch for generation gen until stopTicker is
// called. Callers hold c.mu.
func (c *Controller) startTicker(gen uint64) {
	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	stop := make(chan struct{})
	c.tickStop = stop

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				c.onTick(gen)
			}
		}
	}()
}

func (c *Controller) stopTicker() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}

func (c *Controller) onTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation || c.status != StatusRunning {
		return
	}
	c.elapsed += c.cfg.TickQuantum
	c.publish(events.ChangeTick, 0)
}

// scheduleRemoval arms the one-shot timer that takes value out of the field
// once the activation animation has had time to play.
func (c *Controller) scheduleRemoval(gen uint64, value int) {
	timer := c.clock.AfterFunc(c.cfg.RemovalDelay, func() {
		c.onRemoval(gen, value)
	})
	c.pending = append(c.pending, pendingRemoval{value: value, timer: timer})
}

// cancelPending stops every removal timer of the live round and returns how
// many were still armed.
func (c *Controller) cancelPending() int {
	stopped := 0
	for _, p := range c.pending {
		if p.timer.Stop() {
			stopped++
		}
	}
	c.pending = nil
	return stopped
}

// onRemoval is the removal timer callback. A callback from a superseded
// generation, or one arriving after the round failed, changes nothing.
//
// Delays are uniform, so every removal queued before value is already due.
// They are applied first, in schedule order, which keeps removals FIFO even
// when timer callbacks are delivered out of order.
func (c *Controller) onRemoval(gen uint64, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		c.logger.Debug().Uint64("generation", gen).Int("value", value).Msg("stale removal ignored")
		return
	}

	idx := -1
	for i, p := range c.pending {
		if p.value == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	due := c.pending[:idx+1]
	c.pending = c.pending[idx+1:]

	for _, p := range due {
		if p.value != value {
			p.timer.Stop()
		}
		c.remove(p.value)
	}
}

func (c *Controller) remove(value int) {
	if c.status != StatusRunning {
		return
	}
	c.set.Remove(value)
	c.publish(events.ChangeRemoved, value)

	if value == c.count {
		c.status = StatusCleared
		c.stopTicker()
		c.logger.Info().
			Str("round_id", c.roundID).
			Int("target_count", c.count).
			Dur("elapsed", c.elapsed).
			Msg("round cleared")
		c.publish(events.ChangeStatus, value)
	}
}

func (c *Controller) onTransitions(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation || c.transitions {
		return
	}
	c.transitionTimer = nil
	c.transitions = true
	c.publish(events.ChangeTransitions, 0)
}
