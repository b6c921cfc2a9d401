// Food production: granaries fill every tick and factions collect a tithe.
package engine

import "math"

// BaseProductionPerPerson is food produced per person per hour, about
// 1.08 units per day at a neutral multiplier.
const BaseProductionPerPerson = 0.045

// ProductionSystem adds food to every granary each tick.
type ProductionSystem struct {
	PerPerson float64
}

// NewProductionSystem creates a production system with the baseline rate.
func NewProductionSystem() *ProductionSystem {
	return &ProductionSystem{PerPerson: BaseProductionPerPerson}
}

func (*ProductionSystem) Name() string { return "production" }
func (*ProductionSystem) Order() int   { return 10 }

// Tick produces food and credits the monetized tithe to the owning faction.
func (p *ProductionSystem) Tick(ctx *Context) error {
	views, err := settlements(ctx.World)
	if err != nil {
		return err
	}
	for _, v := range views {
		pop := v.S.Population()
		prod := p.PerPerson * math.Max(0, v.S.ProductionMultiplier) * v.S.WeatherYield * float64(pop)
		if prod <= 0 {
			continue
		}
		v.S.FoodStock += prod
		v.Faction.Credit(prod * v.Faction.Policy.Taxes.TitheRate * v.Market.PriceFood)
	}
	return nil
}
