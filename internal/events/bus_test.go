package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainEmptiesBuffer(t *testing.T) {
	b := NewBus()
	b.Publish(Event{Category: CategoryTrade, Kind: "dispatched"})
	b.Publish(Event{Category: CategoryFair, Kind: "started"})
	assert.Equal(t, 2, b.Pending())

	batch := b.Drain()
	assert.Len(t, batch, 2)
	assert.Equal(t, "dispatched", batch[0].Kind)
	assert.Equal(t, 0, b.Pending())
	assert.Empty(t, b.Drain())
}

func TestObserversSeeEveryDrain(t *testing.T) {
	b := NewBus()
	var sizes []int
	b.Subscribe(func(batch []Event) { sizes = append(sizes, len(batch)) })

	b.Publish(Event{Kind: "a"})
	b.Drain()
	b.Drain()
	b.Publish(Event{Kind: "b"})
	b.Publish(Event{Kind: "c"})
	b.Drain()

	assert.Equal(t, []int{1, 0, 2}, sizes)
}
