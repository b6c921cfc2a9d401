// Package economy provides settlement markets, wage tables, and price
// discovery.
package economy

import (
	"math"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// Component kinds owned by this package.
const (
	KindMarket      ecs.Kind = "settlement_market"
	KindEconomy     ecs.Kind = "settlement_economy"
	KindSpecialties ecs.Kind = "settlement_specialties"
)

// Price discovery constants.
const (
	PriceFloor   = 0.01 // food price never drops below this
	DefaultAlpha = 0.08 // tâtonnement step size
)

// SettlementMarket is the local food market of one settlement.
type SettlementMarket struct {
	Name      string  `json:"name"`
	PriceFood float64 `json:"price_food"` // coins per unit

	// FeeRateOverride < 0 means use the faction's market fee rate.
	FeeRateOverride float64 `json:"fee_rate_override"`
	IsFairDay       bool    `json:"is_fair_day"`

	// Daily flow bookkeeping.
	SupplyToday float64 `json:"supply_today"`
	DemandToday float64 `json:"demand_today"`
	LastSupply  float64 `json:"last_supply"`
	LastDemand  float64 `json:"last_demand"`
}

// Kind implements ecs.Component.
func (*SettlementMarket) Kind() ecs.Kind { return KindMarket }

// NewMarket creates a market with a starting price and no fee override.
func NewMarket(name string, price float64) *SettlementMarket {
	return &SettlementMarket{
		Name:            name,
		PriceFood:       math.Max(PriceFloor, price),
		FeeRateOverride: -1,
	}
}

// BaseFeeRate returns the override, or the faction default when unset.
// Imports pay this rate on every day.
func (m *SettlementMarket) BaseFeeRate(factionRate float64) float64 {
	if m.FeeRateOverride >= 0 {
		return m.FeeRateOverride
	}
	return factionRate
}

// FeeRate returns the fee on local granary sales. Fair days halve it.
func (m *SettlementMarket) FeeRate(factionRate float64) float64 {
	rate := m.BaseFeeRate(factionRate)
	if m.IsFairDay {
		rate *= 0.5
	}
	return rate
}

// AdjustPrice applies one tâtonnement step using last day's flows.
func (m *SettlementMarket) AdjustPrice(alpha float64) float64 {
	m.PriceFood = Tatonnement(m.PriceFood, m.LastSupply, m.LastDemand, alpha)
	return m.PriceFood
}

// RollDay moves today's flows into last, clears today, and ends any fair.
func (m *SettlementMarket) RollDay() {
	m.LastSupply = m.SupplyToday
	m.LastDemand = m.DemandToday
	m.SupplyToday = 0
	m.DemandToday = 0
	m.IsFairDay = false
}

// Tatonnement moves price proportionally to the demand/supply imbalance.
// Supply is floored at 1 so an empty market does not divide by zero.
func Tatonnement(price, supply, demand, alpha float64) float64 {
	s := math.Max(1, supply)
	next := price * (1 + alpha*(demand-s)/s)
	return math.Max(PriceFloor, next)
}
