package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/medieval-sim/internal/events"
)

// Module packages a set of systems with the world state they need.
type Module interface {
	Name() string
	LoadOrder() int
	Configure(b *Builder)
	Bootstrap(ctx *Context) error
}

// Builder collects what modules contribute before bootstrap.
type Builder struct {
	eng *Engine
}

// AddSystem registers a system with the engine.
func (b *Builder) AddSystem(s System) *Builder {
	b.eng.AddSystem(s)
	return b
}

// Subscribe registers an event observer.
func (b *Builder) Subscribe(o events.Observer) *Builder {
	b.eng.ctx.Events.Subscribe(o)
	return b
}

// AfterTick registers a hook run between ticks.
func (b *Builder) AfterTick(h Hook) *Builder {
	b.eng.AfterTick(h)
	return b
}

// Load configures every module, then bootstraps every module, both in
// LoadOrder. Modules with equal LoadOrder keep argument order.
func Load(e *Engine, modules ...Module) error {
	mods := slices.Clone(modules)
	slices.SortStableFunc(mods, func(a, b Module) int {
		return a.LoadOrder() - b.LoadOrder()
	})

	b := &Builder{eng: e}
	for _, m := range mods {
		m.Configure(b)
	}
	for _, m := range mods {
		if err := m.Bootstrap(e.ctx); err != nil {
			return fmt.Errorf("bootstrap module %s: %w", m.Name(), err)
		}
		e.ctx.Log.Info("module loaded", "module", m.Name(), "entities", e.ctx.World.Len())
	}
	return nil
}
