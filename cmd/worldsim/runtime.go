package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/engine"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/observability"
	"github.com/talgya/medieval-sim/internal/persistence"
	"github.com/talgya/medieval-sim/internal/realm"
	"github.com/talgya/medieval-sim/internal/social"
)

// runtimeModule wires the process boundary into the engine: metrics, the
// event log, autosave, the daily status line and the tick limit.
type runtimeModule struct {
	eng       *engine.Engine
	store     *persistence.Store
	metrics   *observability.SimCollector
	autosave  int    // sim-days between snapshots, 0 disables
	keep      int    // snapshots retained after each save, 0 keeps all
	tickLimit uint64 // stop after this many ticks, 0 runs on

	days int
}

func (m *runtimeModule) Name() string   { return "runtime" }
func (m *runtimeModule) LoadOrder() int { return 100 }

func (m *runtimeModule) Configure(b *engine.Builder) {
	b.Subscribe(m.metrics.Observe)
	if m.store != nil {
		b.Subscribe(m.logEvents)
	}
	b.AfterTick(m.afterTick)
}

func (m *runtimeModule) Bootstrap(ctx *engine.Context) error {
	w := ctx.World
	m.metrics.SetNamer(func(id ecs.EntityID) string {
		s, err := ecs.Get[*social.Settlement](w, id)
		if err != nil {
			return ""
		}
		return s.Name
	})
	m.status(ctx, "world ready")
	return nil
}

func (m *runtimeModule) logEvents(batch []events.Event) {
	if err := m.store.SaveEvents(batch); err != nil {
		slog.Warn("event log write failed", "events", len(batch), "error", err)
	}
}

func (m *runtimeModule) afterTick(ctx *engine.Context) error {
	m.metrics.SetClock(ctx.Now())

	if ctx.Hour() == 0 {
		m.days++
		m.status(ctx, "day complete")
		if m.store != nil && m.autosave > 0 && m.days%m.autosave == 0 {
			if err := save(m.store, ctx, m.keep); err != nil {
				return err
			}
		}
	}

	if m.tickLimit > 0 && m.eng.Ticks >= m.tickLimit {
		ctx.Log.Info("tick limit reached", "ticks", m.eng.Ticks)
		m.eng.Stop()
	}
	return nil
}

func (m *runtimeModule) status(ctx *engine.Context, msg string) {
	c := realm.TakeCensus(ctx.World)
	ctx.Log.Info(msg,
		"time", engine.SimTime(ctx.Now()),
		"settlements", c.Settlements,
		"population", humanize.Comma(int64(c.Population)),
		"granary", humanize.FormatFloat("#,###.#", c.Granary),
		"larder", humanize.FormatFloat("#,###.#", c.Larder),
		"treasury", humanize.FormatFloat("#,###.##", c.Treasury),
		"household_wealth", humanize.FormatFloat("#,###.##", c.Wealth),
		"avg_price", fmt.Sprintf("%.3f", c.AvgPrice),
	)
}

// save captures the world and prunes old snapshots.
func save(store *persistence.Store, ctx *engine.Context, keep int) error {
	snap, err := persistence.Capture(ctx.World, ctx.Now())
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	info, err := store.SaveSnapshot(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := store.SaveMeta("sim_time", info.SimTime); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if keep > 0 {
		pruned, err := store.Prune(keep)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		if pruned > 0 {
			ctx.Log.Debug("snapshots pruned", "removed", pruned, "kept", keep)
		}
	}
	return nil
}
