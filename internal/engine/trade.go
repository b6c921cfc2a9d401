// Inter-settlement food trade: daily matching of surplus granaries to
// settlements short of their buffer, with caravans delayed by route time.
package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/social"
	"github.com/talgya/medieval-sim/internal/world"
)

// Trade constants.
const (
	TradeHour       = 12
	CaravanCapacity = 120.0 // units per trip
	BufferEpsilon   = 1.0   // dead band around the buffer target
	MinOffer        = 0.1   // smallest surplus worth offering
	minShipment     = 0.0001
)

// TradeSystem matches buyers and sellers once a day.
type TradeSystem struct {
	routes *world.RouteBook
}

// NewTradeSystem creates a trade system over the given route book.
func NewTradeSystem(routes *world.RouteBook) *TradeSystem {
	return &TradeSystem{routes: routes}
}

func (*TradeSystem) Name() string { return "trade" }
func (*TradeSystem) Order() int   { return 40 }

type offer struct {
	settlementView
	avail float64
}

type bid struct {
	settlementView
	need float64
}

// Tick classifies settlements and runs the two matching passes.
func (t *TradeSystem) Tick(ctx *Context) error {
	if ctx.Hour() != TradeHour {
		return nil
	}
	views, err := settlements(ctx.World)
	if err != nil {
		return err
	}

	var sellers []*offer
	var buyers []*bid
	for _, v := range views {
		pol := &v.Faction.Policy
		hhFood := v.S.HouseholdFood()
		total := v.S.FoodStock + hhFood
		target := float64(pol.BufferDays) * pol.DailyFoodPerPerson * float64(max(1, v.S.Population()))

		switch {
		case total > target+BufferEpsilon:
			surplus := math.Max(0, v.S.FoodStock-math.Max(0, target-hhFood))
			if surplus > MinOffer {
				sellers = append(sellers, &offer{settlementView: v, avail: surplus})
			}
		case total < target-BufferEpsilon:
			buyers = append(buyers, &bid{settlementView: v, need: target - total})
		}
	}
	if len(buyers) == 0 || len(sellers) == 0 {
		return nil
	}

	// Each buyer faction may spend at most its treasury as of the start of
	// the run, across both passes.
	budget := make(map[ecs.EntityID]float64)
	for _, b := range buyers {
		budget[b.S.FactionID] = b.Faction.Treasury
	}

	t.match(ctx, buyers, sellers, budget, true)
	t.match(ctx, buyers, sellers, budget, false)
	return nil
}

// tradeAllowed gates cross-faction trade on policy and mutual relations.
func tradeAllowed(b *bid, s *offer) bool {
	bf, sf := b.Faction, s.Faction
	if !bf.Policy.WillTradeExternally || !sf.Policy.WillTradeExternally {
		return false
	}
	threshold := max(bf.Policy.MinRelationToTrade, sf.Policy.MinRelationToTrade)
	return bf.Relation(s.S.FactionID) >= threshold && sf.Relation(b.S.FactionID) >= threshold
}

func (t *TradeSystem) match(ctx *Context, buyers []*bid, sellers []*offer, budget map[ecs.EntityID]float64, sameFaction bool) {
	for _, b := range buyers {
		if b.need <= 0 {
			continue
		}

		var candidates []*offer
		for _, s := range sellers {
			same := s.S.FactionID == b.S.FactionID
			if same != sameFaction {
				continue
			}
			if !same && !tradeAllowed(b, s) {
				continue
			}
			if s.avail > MinOffer {
				candidates = append(candidates, s)
			}
		}
		slices.SortStableFunc(candidates, func(x, y *offer) int {
			if c := cmp.Compare(x.Market.PriceFood, y.Market.PriceFood); c != 0 {
				return c
			}
			if c := cmp.Compare(y.avail, x.avail); c != 0 {
				return c
			}
			return cmp.Compare(x.ID, y.ID)
		})

		for _, s := range candidates {
			if b.need <= 0 {
				break
			}
			transit, ok := t.routes.Transit(s.ID, b.ID)
			if !ok {
				continue
			}

			price := s.Market.PriceFood
			feeRate := b.importFeeRate()
			toll := b.Faction.Policy.Taxes.TransitTollPerUnit
			denom := price + price*feeRate + toll
			affordable := 0.0
			if denom > 0 {
				affordable = budget[b.S.FactionID] / denom
			}

			qty := math.Min(b.need, math.Min(s.avail, affordable))
			for qty > minShipment {
				ship := math.Min(qty, CaravanCapacity)
				t.dispatch(ctx, b, s, ship, price, feeRate, toll, transit, budget)
				qty -= ship
			}
		}
	}
}

// dispatch books one caravan trip and schedules its arrival.
func (t *TradeSystem) dispatch(ctx *Context, b *bid, s *offer, ship, price, feeRate, toll float64, transit time.Duration, budget map[ecs.EntityID]float64) {
	cost := ship * price
	fee := cost * feeRate
	tolls := ship * toll
	gross := cost + fee + tolls

	budget[b.S.FactionID] -= gross
	b.Faction.Debit(gross)
	b.Faction.Credit(fee + tolls)

	shipped := s.S.TakeFood(ship)
	s.avail -= ship
	b.need -= ship

	arrival := ctx.Now().Add(transit)
	sh := caravans(ctx.World).Add(economy.Shipment{
		BuyerID:         b.ID,
		SellerFactionID: s.S.FactionID,
		Units:           shipped,
		Payment:         cost,
		Arrival:         arrival,
	})
	ctx.Publish(events.CategoryTrade, "trade.dispatched", b.ID, shipped,
		fmt.Sprintf("%.1f food from %s to %s at %.3f, arriving %s", shipped, s.S.Name, b.S.Name, price, SimTime(arrival)))
	scheduleDelivery(ctx, sh)
}

// caravans returns the world's caravan ledger, creating it on first use.
func caravans(w *ecs.World) *economy.CaravanLedger {
	if all := ecs.All[*economy.CaravanLedger](w); len(all) > 0 {
		return all[0].Component
	}
	l := &economy.CaravanLedger{}
	w.Spawn(l)
	return l
}

// ResumeCaravans schedules every shipment recorded in the ledger, in
// dispatch order. Call it once after restoring a world from a snapshot.
// Shipments already overdue arrive on the next tick.
func ResumeCaravans(ctx *Context) int {
	all := ecs.All[*economy.CaravanLedger](ctx.World)
	if len(all) == 0 {
		return 0
	}
	pending := all[0].Component.Pending
	for _, sh := range pending {
		scheduleDelivery(ctx, sh)
	}
	return len(pending)
}

func scheduleDelivery(ctx *Context, sh economy.Shipment) {
	ctx.Scheduler.Schedule(sh.Arrival, "trade.delivery", func(time.Time) error {
		got, ok := caravans(ctx.World).Take(sh.Seq)
		if !ok {
			return fmt.Errorf("delivery %d: not in caravan ledger", sh.Seq)
		}
		dest, err := ecs.Get[*social.Settlement](ctx.World, got.BuyerID)
		if err != nil {
			return fmt.Errorf("delivery destination: %w", err)
		}
		seller, err := ecs.Get[*social.Faction](ctx.World, got.SellerFactionID)
		if err != nil {
			return fmt.Errorf("delivery payee: %w", err)
		}
		dest.FoodStock += got.Units
		seller.Credit(got.Payment)
		ctx.Publish(events.CategoryTrade, "trade.delivered", got.BuyerID, got.Units,
			fmt.Sprintf("%.1f food delivered to %s", got.Units, dest.Name))
		return nil
	})
}
