// Package engine provides the tick-based simulation loop and the economic
// systems it runs.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/entropy"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/schedule"
)

// System is one unit of per-tick behavior. Lower Order runs first.
type System interface {
	Name() string
	Order() int
	Tick(ctx *Context) error
}

// Hook runs after each completed tick, once the clock has advanced.
type Hook func(ctx *Context) error

// Options configures a new Engine.
type Options struct {
	Seed   int64
	Start  time.Time     // zero means DefaultStart
	Step   time.Duration // zero means DefaultStep
	Logger *slog.Logger  // nil means slog.Default()
}

// Engine drives the simulation forward.
type Engine struct {
	Ticks uint64 // completed ticks since construction

	ctx     *Context
	systems []System
	hooks   []Hook

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates an engine with an empty world.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	start := opts.Start
	if start.IsZero() {
		start = DefaultStart
	}
	return &Engine{
		ctx: &Context{
			World:     ecs.NewWorld(),
			Clock:     NewClock(start, opts.Step),
			RNG:       entropy.NewSeeded(opts.Seed),
			Events:    events.NewBus(),
			Scheduler: schedule.New(log),
			Log:       log,
		},
	}
}

// Context returns the shared simulation context.
func (e *Engine) Context() *Context { return e.ctx }

// AddSystem inserts s keeping systems sorted by Order. Equal orders keep
// insertion order.
func (e *Engine) AddSystem(s System) {
	e.systems = append(e.systems, s)
	slices.SortStableFunc(e.systems, func(a, b System) int {
		return a.Order() - b.Order()
	})
}

// Systems returns the systems in run order.
func (e *Engine) Systems() []System {
	return slices.Clone(e.systems)
}

// AfterTick registers a hook run between ticks.
func (e *Engine) AfterTick(h Hook) {
	e.hooks = append(e.hooks, h)
}

// RunTicks advances the simulation n ticks. The first system error aborts.
func (e *Engine) RunTicks(n int) error {
	for range n {
		if err := e.step(); err != nil {
			return err
		}
	}
	return nil
}

// Run paces ticks at interval until ctx is cancelled or Stop is called.
// A non-positive interval runs ticks back to back. Deliveries already in
// the scheduler are left queued.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.ctx.Log.Info("simulation engine started", "time", SimTime(e.ctx.Now()), "interval", interval)
	defer func() {
		e.ctx.Log.Info("simulation engine stopped", "time", SimTime(e.ctx.Now()), "ticks", e.Ticks)
	}()

	if interval <= 0 {
		for ctx.Err() == nil {
			if err := e.step(); err != nil {
				return err
			}
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.step(); err != nil {
				return err
			}
		}
	}
}

// Stop halts a running Run loop after the current tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() error {
	c := e.ctx
	now := c.Now()

	c.Scheduler.RunDue(now)

	for _, s := range e.systems {
		if err := s.Tick(c); err != nil {
			return fmt.Errorf("tick %s: system %s: %w", now.Format(time.RFC3339), s.Name(), err)
		}
	}

	c.Events.Drain()
	c.Clock.Advance()
	e.Ticks++

	for _, h := range e.hooks {
		if err := h(c); err != nil {
			return fmt.Errorf("tick %s: after-tick hook: %w", now.Format(time.RFC3339), err)
		}
	}
	return nil
}
