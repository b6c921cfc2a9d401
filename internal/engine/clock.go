package engine

import (
	"fmt"
	"time"
)

// Clock defaults.
var (
	DefaultStart = time.Date(1200, time.March, 1, 6, 0, 0, 0, time.UTC)
	DefaultStep  = time.Hour
)

// FixedStepClock advances simulation time by a constant step per tick.
type FixedStepClock struct {
	now  time.Time
	step time.Duration
}

// NewClock creates a clock at start. A non-positive step uses DefaultStep.
func NewClock(start time.Time, step time.Duration) *FixedStepClock {
	if step <= 0 {
		step = DefaultStep
	}
	return &FixedStepClock{now: start.UTC(), step: step}
}

// Now returns the current simulation time.
func (c *FixedStepClock) Now() time.Time { return c.now }

// Step returns the tick length.
func (c *FixedStepClock) Step() time.Duration { return c.step }

// Advance moves the clock forward one step.
func (c *FixedStepClock) Advance() { c.now = c.now.Add(c.step) }

// Reset moves the clock to t. Used after restoring a snapshot.
func (c *FixedStepClock) Reset(t time.Time) { c.now = t.UTC() }

// SimTime returns a human-readable simulation time string.
func SimTime(t time.Time) string {
	return fmt.Sprintf("Year %d Day %d, %02d:00", t.Year(), t.YearDay(), t.Hour())
}
