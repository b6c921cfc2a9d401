// Package events provides the single-tick event mailbox.
// Producers publish during a tick; the engine drains the buffer once at the
// end of the tick and hands the batch to observers.
package events

import (
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// Categories used by the simulation.
const (
	CategoryTrade      = "trade"
	CategoryMarket     = "market"
	CategoryFair       = "fair"
	CategoryHarvest    = "harvest"
	CategoryFeeding    = "feeding"
	CategoryWages      = "wages"
	CategoryLeaders    = "leadership"
	CategoryPopulation = "population"
)

// Event is a notable occurrence in the world.
type Event struct {
	Time        time.Time    `json:"time"`
	Category    string       `json:"category"`
	Kind        string       `json:"kind"`
	Entity      ecs.EntityID `json:"entity,omitempty"`
	Amount      float64      `json:"amount,omitempty"`
	Description string       `json:"description"`
}

// Observer receives each drained batch.
type Observer func(batch []Event)

// Bus buffers events for one tick. It is not safe for concurrent use.
type Bus struct {
	buf       []Event
	observers []Observer
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish appends e to the current tick's buffer.
func (b *Bus) Publish(e Event) {
	b.buf = append(b.buf, e)
}

// Pending returns the number of buffered events.
func (b *Bus) Pending() int {
	return len(b.buf)
}

// Subscribe registers an observer for future drains.
func (b *Bus) Subscribe(o Observer) {
	b.observers = append(b.observers, o)
}

// Drain empties the buffer, delivers the batch to observers, and returns it.
// Observers see the batch even when it is empty so they can act on tick
// boundaries.
func (b *Bus) Drain() []Event {
	batch := b.buf
	b.buf = nil
	for _, o := range b.observers {
		o(batch)
	}
	return batch
}
