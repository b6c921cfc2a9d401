package engine

import (
	"log/slog"
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/entropy"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/schedule"
)

// Context is the shared state handed to every system and module.
// Collaborators are explicit fields; there is no type-keyed registry.
type Context struct {
	World     *ecs.World
	Clock     *FixedStepClock
	RNG       entropy.Source
	Events    *events.Bus
	Scheduler *schedule.Scheduler
	Log       *slog.Logger
}

// Now returns the current simulation time.
func (c *Context) Now() time.Time { return c.Clock.Now() }

// Hour returns the hour of day of the current tick.
func (c *Context) Hour() int { return c.Clock.Now().Hour() }

// Stream returns an independent random source for one subsystem, so its
// draws do not shift the shared sequence. Sources that cannot derive
// streams are returned as is.
func (c *Context) Stream(offset int64) entropy.Source {
	if s, ok := c.RNG.(interface{ Stream(int64) *entropy.Seeded }); ok {
		return s.Stream(offset)
	}
	return c.RNG
}

// Publish records an event stamped with the current time.
func (c *Context) Publish(category, kind string, entity ecs.EntityID, amount float64, desc string) {
	c.Events.Publish(events.Event{
		Time:        c.Now(),
		Category:    category,
		Kind:        kind,
		Entity:      entity,
		Amount:      amount,
		Description: desc,
	})
}
