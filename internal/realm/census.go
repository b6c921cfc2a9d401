package realm

import (
	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// Census aggregates world totals for status reporting.
type Census struct {
	Settlements int
	Population  int
	Granary     float64 // public food across settlements
	Larder      float64 // household food
	Wealth      float64 // household coins
	Treasury    float64 // faction coins
	MealsMissed float64 // person-meals missed so far today
	AvgPrice    float64
	MinPrice    float64
}

// TakeCensus walks every settlement and faction in w.
func TakeCensus(w *ecs.World) Census {
	var c Census
	var priced int
	for _, e := range ecs.All[*social.Settlement](w) {
		s := e.Component
		c.Settlements++
		c.Population += s.Population()
		c.Granary += s.FoodStock
		c.Larder += s.HouseholdFood()
		c.Wealth += s.HouseholdWealth()
		c.MealsMissed += s.MealsMissedToday

		m, err := ecs.Get[*economy.SettlementMarket](w, s.MarketID)
		if err != nil {
			continue
		}
		if priced == 0 || m.PriceFood < c.MinPrice {
			c.MinPrice = m.PriceFood
		}
		c.AvgPrice += m.PriceFood
		priced++
	}
	if priced > 0 {
		c.AvgPrice /= float64(priced)
	}
	for _, e := range ecs.All[*social.Faction](w) {
		c.Treasury += e.Component.Treasury
	}
	return c
}
