// Household allowance: factions fund a day of food for their subjects.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/medieval-sim/internal/events"
)

// AllowanceMargin pads the daily food cost funded per person.
const AllowanceMargin = 1.05

// AllowanceSystem pays households from the faction treasury at 06:00.
type AllowanceSystem struct{}

// NewAllowanceSystem creates the allowance system.
func NewAllowanceSystem() *AllowanceSystem { return &AllowanceSystem{} }

func (*AllowanceSystem) Name() string { return "household_allowance" }
func (*AllowanceSystem) Order() int   { return 15 }

// Tick funds one day of food per person at the local price and fee,
// capped by the treasury and split by household size.
func (a *AllowanceSystem) Tick(ctx *Context) error {
	if ctx.Hour() != PayHour {
		return nil
	}
	views, err := settlements(ctx.World)
	if err != nil {
		return err
	}
	for _, v := range views {
		pop := 0
		for i := range v.S.Households {
			pop += v.S.Households[i].Size
		}
		if pop <= 0 {
			continue
		}

		perPerson := v.Faction.Policy.DailyFoodPerPerson * v.Market.PriceFood * (1 + v.feeRate()) * AllowanceMargin
		budget := v.Faction.Debit(math.Min(v.Faction.Treasury, perPerson*float64(pop)))
		if budget <= 0 {
			continue
		}

		perCapita := budget / float64(pop)
		for i := range v.S.Households {
			hh := &v.S.Households[i]
			hh.Wealth += perCapita * float64(hh.Size)
		}
		ctx.Publish(events.CategoryWages, "allowance.paid", v.ID, budget,
			fmt.Sprintf("%s granted %.1f to %s households", v.Faction.Name, budget, v.S.Name))
	}
	return nil
}
