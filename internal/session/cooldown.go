package session

import "time"

// DefaultCooldown is the minimum time between two emitted predictions for one
// session.
const DefaultCooldown = 2 * time.Second

// Cooldown tracks the timestamp of the last emitted prediction for a session.
// A session that has never emitted is never in cooldown.
// It is not safe for concurrent use; the owning Machine serializes access.
type Cooldown struct {
	duration time.Duration
	last     time.Time
	now      func() time.Time
}

// NewCooldown creates a Cooldown with the given duration.
// A non-positive duration falls back to DefaultCooldown.
func NewCooldown(duration time.Duration) *Cooldown {
	if duration <= 0 {
		duration = DefaultCooldown
	}
	return &Cooldown{
		duration: duration,
		now:      time.Now,
	}
}

// Record marks now as the time of the last emitted prediction.
func (c *Cooldown) Record() {
	c.last = c.now()
}

// Active reports whether the cooldown window is still in effect.
func (c *Cooldown) Active() bool {
	if c.last.IsZero() {
		return false
	}
	return c.now().Sub(c.last) < c.duration
}

// Remaining returns how long until the cooldown expires, or zero if inactive.
func (c *Cooldown) Remaining() time.Duration {
	if c.last.IsZero() {
		return 0
	}
	remaining := c.duration - c.now().Sub(c.last)
	if remaining < 0 {
		return 0
	}
	return remaining
}
