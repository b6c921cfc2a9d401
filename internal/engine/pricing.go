// Market price discovery by tâtonnement on yesterday's flows.
package engine

import (
	"fmt"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/events"
)

// Hours at which the pricing system acts.
const (
	PriceUpdateHour = 7
	MarketCloseHour = 23
)

// PricingSystem adjusts food prices each morning and closes the market
// books each night.
type PricingSystem struct {
	Alpha float64
}

// NewPricingSystem creates a pricing system with the default step size.
func NewPricingSystem() *PricingSystem {
	return &PricingSystem{Alpha: economy.DefaultAlpha}
}

func (*PricingSystem) Name() string { return "market_pricing" }
func (*PricingSystem) Order() int   { return 18 }

// Tick runs the price update at 07:00 and the day roll at 23:00.
func (p *PricingSystem) Tick(ctx *Context) error {
	hour := ctx.Hour()
	if hour != PriceUpdateHour && hour != MarketCloseHour {
		return nil
	}
	views, err := settlements(ctx.World)
	if err != nil {
		return err
	}
	for _, v := range views {
		m := v.Market
		switch hour {
		case PriceUpdateHour:
			old := m.PriceFood
			next := m.AdjustPrice(p.Alpha)
			if next != old {
				ctx.Publish(events.CategoryMarket, "price", v.ID, next,
					fmt.Sprintf("%s food price %.3f -> %.3f", v.S.Name, old, next))
			}
		case MarketCloseHour:
			m.RollDay()
		}
	}
	return nil
}
