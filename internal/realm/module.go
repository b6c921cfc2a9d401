package realm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/engine"
	"github.com/talgya/medieval-sim/internal/entropy"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/schedule"
	"github.com/talgya/medieval-sim/internal/social"
	"github.com/talgya/medieval-sim/internal/world"
)

// Recurring event constants.
const (
	FairPeriod       = 7 * 24 * time.Hour
	FairHour         = 6
	FairSupplyShare  = 0.10
	HarvestHour      = 5
	HarvestMinDays   = 30
	HarvestSpanDays  = 91 // extra days drawn from [0, span)
	HarvestPenalty   = 0.5
	HarvestDuration  = 30 * 24 * time.Hour
	harvestStream    = 4000 // RNG stream offset for harvest gaps
	maxHouseholdSize = 6
	minHouseholdSize = 2
)

// Options tunes the systems the realm installs.
type Options struct {
	Seed               int64
	WeatherAmplitude   float64
	HouseholdAllowance bool
	PassionWageWeight  float64

	// Restored skips entity seeding because the world was loaded from a
	// snapshot. Routes and recurring events are still registered.
	Restored bool
}

// Module bootstraps a scenario into the engine.
type Module struct {
	scenario *Scenario
	opts     Options
	routes   *world.RouteBook

	factionIDs    map[string]ecs.EntityID
	settlementIDs map[string]ecs.EntityID
}

// NewModule creates a realm module. A nil scenario uses DefaultScenario.
func NewModule(sc *Scenario, opts Options) *Module {
	if sc == nil {
		sc = DefaultScenario()
	}
	return &Module{
		scenario:      sc,
		opts:          opts,
		routes:        world.NewRouteBook(),
		factionIDs:    make(map[string]ecs.EntityID),
		settlementIDs: make(map[string]ecs.EntityID),
	}
}

func (m *Module) Name() string   { return "realm" }
func (m *Module) LoadOrder() int { return 0 }

// Routes returns the route book shared with the trade system.
func (m *Module) Routes() *world.RouteBook { return m.routes }

// SettlementID returns the entity id of a settlement by name.
func (m *Module) SettlementID(name string) (ecs.EntityID, bool) {
	id, ok := m.settlementIDs[name]
	return id, ok
}

// FactionID returns the entity id of a faction by name.
func (m *Module) FactionID(name string) (ecs.EntityID, bool) {
	id, ok := m.factionIDs[name]
	return id, ok
}

// Configure installs every simulation system.
func (m *Module) Configure(b *engine.Builder) {
	b.AddSystem(engine.NewPopulationSystem()).
		AddSystem(engine.NewPassionSystem()).
		AddSystem(engine.NewFamilySystem()).
		AddSystem(engine.NewWeatherSystem(m.opts.Seed, m.opts.WeatherAmplitude)).
		AddSystem(engine.NewProductionSystem()).
		AddSystem(engine.NewLeadershipSelectionSystem()).
		AddSystem(engine.NewLeadershipStipendSystem()).
		AddSystem(engine.NewWageSystem(m.opts.PassionWageWeight)).
		AddSystem(engine.NewPricingSystem()).
		AddSystem(engine.NewFeedingSystem()).
		AddSystem(engine.NewTradeSystem(m.routes))
	if m.opts.HouseholdAllowance {
		b.AddSystem(engine.NewAllowanceSystem())
	}
}

// Bootstrap seeds the world, then registers routes and recurring events.
func (m *Module) Bootstrap(ctx *engine.Context) error {
	var err error
	if m.opts.Restored {
		err = m.index(ctx.World)
	} else {
		err = m.seed(ctx)
	}
	if err != nil {
		return err
	}

	for _, r := range m.scenario.Routes {
		if err := m.routes.Set(m.settlementIDs[r.From], m.settlementIDs[r.To], r.Hours); err != nil {
			return fmt.Errorf("route %s - %s: %w", r.From, r.To, err)
		}
	}

	now := ctx.Now()
	harvestRNG := ctx.Stream(harvestStream)
	for _, s := range m.scenario.Settlements {
		id := m.settlementIDs[s.Name]
		m.scheduleFair(ctx, id, now)
		m.scheduleHarvestFailure(ctx, harvestRNG, id, now)
	}
	if m.opts.Restored {
		m.resume(ctx)
	}
	ctx.Log.Info("realm bootstrapped", "scenario", m.scenario.Name,
		"factions", len(m.factionIDs), "settlements", len(m.settlementIDs),
		"routes", m.routes.Len(), "restored", m.opts.Restored)
	return nil
}

// index maps names to ids in a restored world.
func (m *Module) index(w *ecs.World) error {
	for _, e := range ecs.All[*social.Faction](w) {
		m.factionIDs[e.Component.Name] = e.ID
	}
	for _, e := range ecs.All[*social.Settlement](w) {
		m.settlementIDs[e.Component.Name] = e.ID
	}
	for _, s := range m.scenario.Settlements {
		if _, ok := m.settlementIDs[s.Name]; !ok {
			return fmt.Errorf("restored world has no settlement %q", s.Name)
		}
	}
	return nil
}

// resume re-arms the one-shot actions a snapshot does not carry: harvest
// recoveries and caravans on the road. Overdue ones run on the next tick.
func (m *Module) resume(ctx *engine.Context) {
	recovering := 0
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		if e.Component.HarvestFailing() {
			scheduleRecovery(ctx, e.ID, e.Component.HarvestRecoversAt)
			recovering++
		}
	}
	caravans := engine.ResumeCaravans(ctx)
	ctx.Log.Info("pending actions resumed", "harvest_recoveries", recovering, "caravans", caravans)
}

func (m *Module) seed(ctx *engine.Context) error {
	if err := m.scenario.Validate(); err != nil {
		return err
	}
	w := ctx.World

	factions := make(map[string]*social.Faction, len(m.scenario.Factions))
	for _, fs := range m.scenario.Factions {
		f := social.NewFaction(fs.Name, fs.Treasury, fs.Policy.Policy())
		factions[fs.Name] = f
		m.factionIDs[fs.Name] = w.Spawn(f)
	}
	for _, r := range m.scenario.Relations {
		factions[r.From].SetRelation(m.factionIDs[r.To], r.Score)
		if r.Mutual {
			factions[r.To].SetRelation(m.factionIDs[r.From], r.Score)
		}
	}

	for _, ss := range m.scenario.Settlements {
		id, err := m.seedSettlement(ctx, ss)
		if err != nil {
			return fmt.Errorf("settlement %s: %w", ss.Name, err)
		}
		m.settlementIDs[ss.Name] = id
	}
	return nil
}

func (m *Module) seedSettlement(ctx *engine.Context, ss SettlementSpec) (ecs.EntityID, error) {
	w := ctx.World

	marketName := ss.MarketName
	if marketName == "" {
		marketName = ss.Name + " Market"
	}
	price := ss.Price
	if price <= 0 {
		price = 1.0
	}
	market := economy.NewMarket(marketName, price)
	if ss.FeeOverride != nil {
		market.FeeRateOverride = *ss.FeeOverride
	}

	econ := economy.NewEconomy(ss.Name, ss.WagePool)
	for name, wage := range ss.Wages {
		p, err := social.ParseProfession(name)
		if err != nil {
			return 0, err
		}
		econ.DailyWage[p] = wage
	}

	s := social.NewSettlement(ss.Name, m.factionIDs[ss.Faction])
	s.Type = settlementTypes[ss.Type]
	s.IsCapital = ss.Capital
	s.FoodStock = ss.FoodStock
	s.MarketID = w.Spawn(market)
	s.EconomyID = w.Spawn(econ)

	if len(ss.Specialties) > 0 {
		spec := economy.NewSpecialties()
		for name, weight := range ss.Specialties {
			p, err := social.ParseProfession(name)
			if err != nil {
				return 0, err
			}
			spec.Weights[p] = weight
		}
		s.SpecialtiesID = w.Spawn(spec)
	}

	SeedHouseholds(ctx.RNG, s, ss.Population, ss.WealthAvg, ss.WealthVar)
	return w.Spawn(s), nil
}

// SeedHouseholds splits pop into households of two to six people with
// randomized wealth and up to two days of food each.
func SeedHouseholds(rng entropy.Source, s *social.Settlement, pop int, wealthAvg, wealthVar float64) {
	s.Households = s.Households[:0]
	for remaining := pop; remaining > 0; {
		size := min(rng.Intn(minHouseholdSize, maxHouseholdSize+1), remaining)
		wealth := math.Max(0.5, wealthAvg+(rng.Float()*2-1)*wealthVar)
		food := rng.Float() * float64(size) * 2
		s.Households = append(s.Households, social.Household{Size: size, Wealth: wealth, Food: food})
		remaining -= size
	}
	s.Pop = pop
}

// scheduleFair opens a one-day fair every week at 06:00.
func (m *Module) scheduleFair(ctx *engine.Context, sid ecs.EntityID, from time.Time) {
	var rec *schedule.Recurrence
	rec = ctx.Scheduler.Every(&schedule.Recurrence{
		Name:   fmt.Sprintf("fair/%d", sid),
		Period: FairPeriod,
		Next:   midnight(from).Add(FairPeriod + FairHour*time.Hour),
		Action: func(time.Time) error {
			s, err := ecs.Get[*social.Settlement](ctx.World, sid)
			if errors.Is(err, ecs.ErrNotFound) {
				rec.Stop()
			}
			if err != nil {
				return err
			}
			mkt, err := ecs.Get[*economy.SettlementMarket](ctx.World, s.MarketID)
			if err != nil {
				return err
			}
			mkt.IsFairDay = true
			mkt.SupplyToday += math.Max(0, s.FoodStock*FairSupplyShare)
			ctx.Publish(events.CategoryFair, "fair.opened", sid, mkt.SupplyToday, s.Name+" holds its weekly fair")
			return nil
		},
	})
}

// scheduleHarvestFailure halves production for thirty days at random
// intervals of 30 to 120 days drawn from rng.
func (m *Module) scheduleHarvestFailure(ctx *engine.Context, rng entropy.Source, sid ecs.EntityID, from time.Time) {
	gap := func() time.Duration {
		return time.Duration(HarvestMinDays+rng.Intn(0, HarvestSpanDays)) * 24 * time.Hour
	}
	var rec *schedule.Recurrence
	rec = ctx.Scheduler.Every(&schedule.Recurrence{
		Name:     fmt.Sprintf("harvest/%d", sid),
		Interval: gap,
		Next:     midnight(from).Add(gap() + HarvestHour*time.Hour),
		Action: func(now time.Time) error {
			s, err := ecs.Get[*social.Settlement](ctx.World, sid)
			if errors.Is(err, ecs.ErrNotFound) {
				rec.Stop()
			}
			if err != nil {
				return err
			}
			until := now.Add(HarvestDuration)
			s.StartHarvestFailure(HarvestPenalty, until)
			ctx.Publish(events.CategoryHarvest, "harvest.failed", sid, HarvestPenalty, s.Name+" suffers a bad harvest")
			scheduleRecovery(ctx, sid, until)
			return nil
		},
	})
}

// scheduleRecovery ends the settlement's harvest failure at until. A later
// failure that extended the penalty makes this a no-op.
func scheduleRecovery(ctx *engine.Context, sid ecs.EntityID, until time.Time) {
	ctx.Scheduler.Schedule(until, "harvest.recover", func(now time.Time) error {
		s, err := ecs.Get[*social.Settlement](ctx.World, sid)
		if err != nil {
			return err
		}
		if s.EndHarvestFailure(now) {
			ctx.Publish(events.CategoryHarvest, "harvest.recovered", sid, s.ProductionMultiplier, s.Name+" fields recover")
		}
		return nil
	})
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
