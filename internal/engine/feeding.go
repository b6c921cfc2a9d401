// Feeding: households restock from the granary once a day and eat at the
// faction's meal hours.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/medieval-sim/internal/events"
)

// FeedingSystem runs meal-time consumption and the daily household restock.
type FeedingSystem struct{}

// NewFeedingSystem creates the feeding system.
func NewFeedingSystem() *FeedingSystem { return &FeedingSystem{} }

func (*FeedingSystem) Name() string { return "feeding" }
func (*FeedingSystem) Order() int   { return 20 }

// Tick resets diagnostics at midnight, restocks the hour before the
// earliest meal, and serves meals at meal hours.
func (f *FeedingSystem) Tick(ctx *Context) error {
	views, err := settlements(ctx.World)
	if err != nil {
		return err
	}
	hour := ctx.Hour()

	if hour == 0 {
		for _, v := range views {
			if v.S.MealsMissedToday > 0 {
				ctx.Publish(events.CategoryFeeding, "meals.missed", v.ID, v.S.MealsMissedToday,
					fmt.Sprintf("%s missed %.1f meals", v.S.Name, v.S.MealsMissedToday))
			}
			v.S.MealsMissedToday = 0
		}
	}

	for _, v := range views {
		pol := &v.Faction.Policy
		if hour == (pol.EarliestMeal()+23)%24 {
			f.restock(ctx, v)
		}
		if pol.IsMealHour(hour) {
			f.serve(v)
		}
	}
	return nil
}

// restock books supply and demand, then lets each household buy up to its
// buffer target from the granary at the local price plus market fee.
func (f *FeedingSystem) restock(ctx *Context, v settlementView) {
	pol := &v.Faction.Policy
	m := v.Market
	s := v.S
	m.SupplyToday = s.FoodStock

	feeRate := v.feeRate()
	bought, fees := 0.0, 0.0
	for i := range s.Households {
		hh := &s.Households[i]
		target := float64(pol.BufferDays) * pol.DailyFoodPerPerson * float64(hh.Size)
		needed := math.Max(0, target-hh.Food)
		if needed <= 0 {
			continue
		}
		m.DemandToday += needed

		affordable := 0.0
		if m.PriceFood > 0 {
			affordable = hh.Wealth / (m.PriceFood * (1 + feeRate))
		}
		purchase := math.Min(needed, math.Min(affordable, s.FoodStock))
		if purchase <= 0 {
			continue
		}

		cost := purchase * m.PriceFood
		fee := cost * feeRate
		hh.Wealth = math.Max(0, hh.Wealth-(cost+fee))
		v.Faction.Credit(fee)
		hh.Food += s.TakeFood(purchase)
		bought += purchase
		fees += fee
	}
	if bought > 0 {
		ctx.Log.Debug("households restocked", "settlement", s.Name, "bought", bought, "fees", fees, "price", m.PriceFood)
	}
}

// serve feeds every household one portion per person, drawing on the
// household reserve first and the granary second.
func (f *FeedingSystem) serve(v settlementView) {
	pol := &v.Faction.Policy
	s := v.S
	portion := pol.DailyFoodPerPerson / float64(len(pol.MealHours))
	if portion <= 0 {
		return
	}
	for i := range s.Households {
		hh := &s.Households[i]
		need := portion * float64(hh.Size)

		eat := math.Min(need, hh.Food)
		hh.Food -= eat
		remaining := need - eat

		if remaining > 0 {
			remaining -= s.TakeFood(remaining)
		}
		if remaining > 0 {
			s.MealsMissedToday += remaining / portion
		}
	}
}
