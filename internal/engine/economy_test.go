package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/schedule"
	"github.com/talgya/medieval-sim/internal/social"
	"github.com/talgya/medieval-sim/internal/world"
)

func TestProductionAndTithe(t *testing.T) {
	policy := social.DefaultPolicy()
	policy.Taxes.TitheRate = 0.1
	fx := newFixture(t, 0, policy)
	fx.settlement.Households = []social.Household{{Size: 60}, {Size: 40}}
	fx.market.PriceFood = 2

	require.NoError(t, NewProductionSystem().Tick(fx.ctx))

	assert.InDelta(t, 4.5, fx.settlement.FoodStock, 1e-9)
	assert.InDelta(t, 0.9, fx.faction.Treasury, 1e-9)
	assert.Equal(t, 100, fx.settlement.Pop)
}

func TestProductionNegativeMultiplierClamps(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.Pop = 100
	fx.settlement.ProductionMultiplier = -2

	require.NoError(t, NewProductionSystem().Tick(fx.ctx))
	assert.Zero(t, fx.settlement.FoodStock)
}

func TestProductionMissingMarketErrors(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.MarketID = fx.factionID

	err := NewProductionSystem().Tick(fx.ctx)
	assert.ErrorIs(t, err, ecs.ErrWrongKind)
}

func TestBufferDepletionAndMidnightReset(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{{Size: 4, Food: 1}}
	feed := NewFeedingSystem()

	advanceTo(fx.ctx, 9)
	require.NoError(t, feed.Tick(fx.ctx))
	hh := &fx.settlement.Households[0]
	assert.Zero(t, hh.Food)
	// 4 people, half a unit each: 2 needed, 1 eaten, 1 unit short = 2 meals.
	assert.InDelta(t, 2.0, fx.settlement.MealsMissedToday, 1e-9)

	advanceTo(fx.ctx, 0)
	require.NoError(t, feed.Tick(fx.ctx))
	assert.Zero(t, fx.settlement.MealsMissedToday)
}

func TestEmptyGranaryMissesEveryMeal(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{{Size: 7}}
	feed := NewFeedingSystem()

	// Default policy: one unit a day over meals at 9 and 18.
	advanceTo(fx.ctx, 9)
	require.NoError(t, feed.Tick(fx.ctx))
	assert.InDelta(t, 7.0, fx.settlement.MealsMissedToday, 1e-9)

	advanceTo(fx.ctx, 18)
	require.NoError(t, feed.Tick(fx.ctx))
	assert.InDelta(t, 14.0, fx.settlement.MealsMissedToday, 1e-9)
	assert.Zero(t, fx.settlement.FoodStock)
	assert.Zero(t, fx.settlement.Households[0].Food)

	advanceTo(fx.ctx, 0)
	require.NoError(t, feed.Tick(fx.ctx))
	assert.Zero(t, fx.settlement.MealsMissedToday)
}

func TestFeedingRationsFromGranary(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{{Size: 2}}
	fx.settlement.FoodStock = 0.5

	advanceTo(fx.ctx, 18)
	require.NoError(t, NewFeedingSystem().Tick(fx.ctx))

	assert.Zero(t, fx.settlement.FoodStock)
	assert.InDelta(t, 1.0, fx.settlement.MealsMissedToday, 1e-9)
}

func TestRestockBuysAtPricePlusFee(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{{Size: 2, Wealth: 21}}
	fx.settlement.FoodStock = 100

	advanceTo(fx.ctx, 8)
	require.NoError(t, NewFeedingSystem().Tick(fx.ctx))

	hh := fx.settlement.Households[0]
	// Target 5 days x 1 unit x 2 people = 10 units, cost 10, fee 0.5.
	assert.InDelta(t, 10.0, hh.Food, 1e-9)
	assert.InDelta(t, 10.5, hh.Wealth, 1e-9)
	assert.InDelta(t, 0.5, fx.faction.Treasury, 1e-9)
	assert.InDelta(t, 90.0, fx.settlement.FoodStock, 1e-9)
	assert.Equal(t, 100.0, fx.market.SupplyToday)
	assert.Equal(t, 10.0, fx.market.DemandToday)
}

func TestPriceRisesUnderPersistentDemand(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	pricing := NewPricingSystem()

	prev := fx.market.PriceFood
	for day := 0; day < 10; day++ {
		fx.market.SupplyToday = 10
		fx.market.DemandToday = 50
		advanceTo(fx.ctx, MarketCloseHour)
		require.NoError(t, pricing.Tick(fx.ctx))
		advanceTo(fx.ctx, PriceUpdateHour)
		require.NoError(t, pricing.Tick(fx.ctx))

		assert.Greater(t, fx.market.PriceFood, prev, "day %d", day)
		prev = fx.market.PriceFood
	}
	assert.InDelta(t, math.Pow(1.32, 10), fx.market.PriceFood, 1e-9)
}

func TestMarketCloseEndsFair(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	fx.market.IsFairDay = true
	fx.market.SupplyToday = 5

	advanceTo(fx.ctx, MarketCloseHour)
	require.NoError(t, NewPricingSystem().Tick(fx.ctx))

	assert.False(t, fx.market.IsFairDay)
	assert.Equal(t, 5.0, fx.market.LastSupply)
	assert.Zero(t, fx.market.SupplyToday)
}

func TestWageRationing(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	econ := economy.NewEconomy("Town", 5)
	fx.settlement.EconomyID = fx.ctx.World.Spawn(econ)
	people := make([]social.Person, 0, 4)
	for range 4 {
		// 0.8 base x 1.4 at full skill = 1.12 each, 4.48 desired per household
		people = append(people, social.Person{Profession: social.ProfFarmer, Skill: 100, FamilyIndex: -1})
	}
	fx.settlement.Households = []social.Household{
		{Size: 4, People: people},
		{Size: 4, People: append([]social.Person(nil), people...)},
	}

	advanceTo(fx.ctx, PayHour)
	require.NoError(t, NewWageSystem(0).Tick(fx.ctx))

	desired := 8 * 0.8 * 1.4
	factor := 5 / desired
	for _, hh := range fx.settlement.Households {
		assert.InDelta(t, 4*1.12*factor, hh.Wealth, 1e-9)
	}
	assert.Zero(t, econ.WagePoolCoins)
}

func TestWageFullPayWithSpecialtyAndPassion(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	econ := economy.NewEconomy("Town", 100)
	fx.settlement.EconomyID = fx.ctx.World.Spawn(econ)
	spec := economy.NewSpecialties()
	spec.Boost(social.ProfBlacksmith, 2)
	fx.settlement.SpecialtiesID = fx.ctx.World.Spawn(spec)
	fx.settlement.Households = []social.Household{{Size: 1, People: []social.Person{{
		Profession: social.ProfBlacksmith,
		Skill:      50,
		Passions:   []social.PassionIntensity{{Passion: social.PassionCrafting, Level: 0.5}},
	}}}}

	advanceTo(fx.ctx, PayHour)
	require.NoError(t, NewWageSystem(0.2).Tick(fx.ctx))

	want := 0.8 * 1.1 * 1.25 * 1.1
	assert.InDelta(t, want, fx.settlement.Households[0].Wealth, 1e-9)
	assert.InDelta(t, 100-want, econ.WagePoolCoins, 1e-9)
}

func TestAllowanceCappedAtTreasury(t *testing.T) {
	fx := newFixture(t, 3, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{{Size: 2}, {Size: 4}}

	advanceTo(fx.ctx, PayHour)
	require.NoError(t, NewAllowanceSystem().Tick(fx.ctx))

	assert.Zero(t, fx.faction.Treasury)
	assert.InDelta(t, 1.0, fx.settlement.Households[0].Wealth, 1e-9)
	assert.InDelta(t, 2.0, fx.settlement.Households[1].Wealth, 1e-9)
}

func TestLeadershipSelectionAndStipend(t *testing.T) {
	fx := newFixture(t, 6, social.DefaultPolicy())
	fx.settlement.Households = []social.Household{
		{Size: 2, Wealth: 100, People: []social.Person{
			{Age: 40, Profession: social.ProfNoble, Skill: 30},
			{Age: 12, Profession: social.ProfSoldier, Skill: 99},
		}},
		{Size: 1, People: []social.Person{
			{Age: 30, Profession: social.ProfGuard, Skill: 50},
		}},
	}

	advanceTo(fx.ctx, SelectionHour)
	require.NoError(t, NewLeadershipSelectionSystem().Tick(fx.ctx))

	require.NotEqual(t, ecs.NilEntity, fx.faction.LeadershipID)
	lead, err := ecs.Get[*social.FactionLeadership](fx.ctx.World, fx.faction.LeadershipID)
	require.NoError(t, err)
	assert.Equal(t, fx.factionID, lead.OwnerFactionID)

	noble := social.PersonRef{SettlementID: fx.settleID, HouseholdIndex: 0, PersonIndex: 0}
	guard := social.PersonRef{SettlementID: fx.settleID, HouseholdIndex: 1, PersonIndex: 0}
	assert.Equal(t, noble, *lead.Sovereign)
	assert.Equal(t, noble, *lead.Chancellor)
	assert.Equal(t, guard, *lead.Marshal)

	advanceTo(fx.ctx, PayHour)
	require.NoError(t, NewLeadershipStipendSystem().Tick(fx.ctx))

	// The sovereign takes 5, the chancellor the last coin, the marshal nothing.
	assert.Zero(t, fx.faction.Treasury)
	assert.InDelta(t, 106.0, fx.settlement.Households[0].Wealth, 1e-9)
	assert.Zero(t, fx.settlement.Households[1].Wealth)
}

// tradeFixture has a rich seller and a hungry buyer in one faction.
func tradeFixture(t *testing.T, treasury float64) (*fixture, *social.Settlement, ecs.EntityID, *world.RouteBook) {
	t.Helper()
	policy := social.DefaultPolicy()
	policy.Taxes = social.TaxPolicy{MarketFeeRate: 0.05, TransitTollPerUnit: 0.02}
	fx := newFixture(t, treasury, policy)
	fx.settlement.Pop = 10
	fx.settlement.FoodStock = 500

	buyer, buyerID := addSettlement(fx.ctx, "Hamlet", fx.factionID)
	buyer.Pop = 20

	routes := world.NewRouteBook()
	require.NoError(t, routes.Set(fx.settleID, buyerID, 24))
	advanceTo(fx.ctx, TradeHour)
	return fx, buyer, buyerID, routes
}

func TestTradeTransitDelay(t *testing.T) {
	fx, buyer, _, routes := tradeFixture(t, 1000)
	buyer.FoodStock = 50 // target 100, need 50

	require.NoError(t, NewTradeSystem(routes).Tick(fx.ctx))
	assert.InDelta(t, 450.0, fx.settlement.FoodStock, 1e-9)
	assert.Equal(t, 1, fx.ctx.Scheduler.Len())

	dispatched := fx.ctx.Now()
	due, ok := fx.ctx.Scheduler.Peek()
	require.True(t, ok)
	assert.Equal(t, dispatched.Add(24*time.Hour), due)

	fx.ctx.Scheduler.RunDue(due.Add(-time.Hour))
	assert.InDelta(t, 50.0, buyer.FoodStock, 1e-9)

	before := fx.faction.Treasury
	fx.ctx.Scheduler.RunDue(due)
	assert.InDelta(t, 100.0, buyer.FoodStock, 1e-9)
	assert.InDelta(t, before+50, fx.faction.Treasury, 1e-9)
}

func TestTradeAffordability(t *testing.T) {
	fx, buyer, _, routes := tradeFixture(t, 10.7)
	buyer.FoodStock = 0 // need 100

	require.NoError(t, NewTradeSystem(routes).Tick(fx.ctx))

	// denom = 1 + 0.05 + 0.02; the budget buys exactly 10 units.
	assert.InDelta(t, 490.0, fx.settlement.FoodStock, 1e-9)
	// Fee and toll are credited back to the buyer faction.
	assert.InDelta(t, 0.7, fx.faction.Treasury, 1e-9)
	assert.GreaterOrEqual(t, fx.faction.Treasury, 0.0)
}

func TestTradeFairDoesNotDiscountImports(t *testing.T) {
	fx, buyer, _, routes := tradeFixture(t, 10.7)
	buyer.FoodStock = 0
	m, err := ecs.Get[*economy.SettlementMarket](fx.ctx.World, buyer.MarketID)
	require.NoError(t, err)
	m.IsFairDay = true

	require.NoError(t, NewTradeSystem(routes).Tick(fx.ctx))

	// Same 10 units as on a plain day: the fair halves only local sale fees.
	assert.InDelta(t, 490.0, fx.settlement.FoodStock, 1e-9)
	assert.InDelta(t, 0.7, fx.faction.Treasury, 1e-9)
}

func TestResumeCaravansAfterLedgerRestore(t *testing.T) {
	fx, buyer, buyerID, routes := tradeFixture(t, 1000)
	buyer.FoodStock = 50

	require.NoError(t, NewTradeSystem(routes).Tick(fx.ctx))
	ledger := caravans(fx.ctx.World)
	require.Len(t, ledger.Pending, 1)
	assert.InDelta(t, 50.0, ledger.InTransit(), 1e-9)
	assert.Equal(t, buyerID, ledger.Pending[0].BuyerID)

	// Drop the queued delivery as a restart would, then resume from the ledger.
	fx.ctx.Scheduler = schedule.New(nil)
	assert.Equal(t, 1, ResumeCaravans(fx.ctx))

	before := fx.faction.Treasury
	fx.ctx.Scheduler.RunDue(ledger.Pending[0].Arrival)
	assert.InDelta(t, 100.0, buyer.FoodStock, 1e-9)
	assert.InDelta(t, before+50, fx.faction.Treasury, 1e-9)
	assert.Empty(t, ledger.Pending)
	assert.Zero(t, ResumeCaravans(fx.ctx))
}

func TestTradeSplitsCaravans(t *testing.T) {
	fx, buyer, _, routes := tradeFixture(t, 10000)
	buyer.Pop = 60 // target 300

	require.NoError(t, NewTradeSystem(routes).Tick(fx.ctx))
	assert.Equal(t, 3, fx.ctx.Scheduler.Len())
	assert.InDelta(t, 200.0, fx.settlement.FoodStock, 1e-9)
}

func TestTradeNoRouteNoTrade(t *testing.T) {
	fx, buyer, _, _ := tradeFixture(t, 1000)
	buyer.FoodStock = 0

	require.NoError(t, NewTradeSystem(world.NewRouteBook()).Tick(fx.ctx))
	assert.Zero(t, fx.ctx.Scheduler.Len())
	assert.Equal(t, 500.0, fx.settlement.FoodStock)
}

func TestTradeCrossFactionRequiresRelations(t *testing.T) {
	fx, hamlet, _, routes := tradeFixture(t, 1000)
	hamlet.FoodStock = 100 // at target, neither buys nor sells

	other := social.NewFaction("League", 1000, social.DefaultPolicy())
	otherID := fx.ctx.World.Spawn(other)
	port, portID := addSettlement(fx.ctx, "Port", otherID)
	port.Pop = 20
	require.NoError(t, routes.Set(fx.settleID, portID, 10))

	other.SetRelation(fx.factionID, 50)
	fx.faction.SetRelation(otherID, -50)

	ts := NewTradeSystem(routes)
	require.NoError(t, ts.Tick(fx.ctx))
	assert.Zero(t, fx.ctx.Scheduler.Len())

	fx.faction.SetRelation(otherID, 0)
	require.NoError(t, ts.Tick(fx.ctx))
	assert.Equal(t, 1, fx.ctx.Scheduler.Len())
	assert.InDelta(t, 400.0, fx.settlement.FoodStock, 1e-9)
	// 100 units at 1.0 plus League fee 5 and toll 2, fee and toll refunded.
	assert.InDelta(t, 900.0, other.Treasury, 1e-9)
}

func TestWeatherOnlyAtMidnight(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	ws := NewWeatherSystem(5, 0.5)

	advanceTo(fx.ctx, 6)
	require.NoError(t, ws.Tick(fx.ctx))
	assert.Equal(t, 1.0, fx.settlement.WeatherYield)

	advanceTo(fx.ctx, 0)
	require.NoError(t, ws.Tick(fx.ctx))
	assert.GreaterOrEqual(t, fx.settlement.WeatherYield, 0.0)
	assert.LessOrEqual(t, fx.settlement.WeatherYield, 2.0)
}

func TestWeatherDisabledLeavesYield(t *testing.T) {
	fx := newFixture(t, 0, social.DefaultPolicy())
	advanceTo(fx.ctx, 0)
	require.NoError(t, NewWeatherSystem(5, 0).Tick(fx.ctx))
	assert.Equal(t, 1.0, fx.settlement.WeatherYield)
}
