package realm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

func TestCensusAfterBootstrap(t *testing.T) {
	eng, _ := newRealm(t, Options{Seed: 1})
	c := TakeCensus(eng.Context().World)

	assert.Equal(t, 4, c.Settlements)
	assert.Positive(t, c.Population)
	assert.Positive(t, c.Treasury)
	assert.Positive(t, c.MinPrice)
	assert.GreaterOrEqual(t, c.AvgPrice, c.MinPrice)
}

func TestLongRunStaysNonNegative(t *testing.T) {
	eng, _ := newRealm(t, Options{
		Seed:               11,
		WeatherAmplitude:   0.3,
		HouseholdAllowance: true,
		PassionWageWeight:  0.2,
	})
	w := eng.Context().World

	for day := 0; day < 60; day++ {
		require.NoError(t, eng.RunTicks(24))

		for _, e := range ecs.All[*social.Faction](w) {
			assert.GreaterOrEqual(t, e.Component.Treasury, 0.0, "faction %s", e.Component.Name)
		}
		for _, e := range ecs.All[*social.Settlement](w) {
			s := e.Component
			assert.GreaterOrEqual(t, s.FoodStock, 0.0, "granary %s", s.Name)
			for i, hh := range s.Households {
				assert.GreaterOrEqual(t, hh.Food, 0.0, "%s household %d food", s.Name, i)
				assert.GreaterOrEqual(t, hh.Wealth, 0.0, "%s household %d wealth", s.Name, i)
			}
		}
		for _, e := range ecs.All[*economy.SettlementMarket](w) {
			assert.GreaterOrEqual(t, e.Component.PriceFood, economy.PriceFloor)
		}
		for _, e := range ecs.All[*economy.SettlementEconomy](w) {
			assert.GreaterOrEqual(t, e.Component.WagePoolCoins, 0.0)
		}
	}
	if t.Failed() {
		return
	}
	c := TakeCensus(w)
	assert.GreaterOrEqual(t, c.MinPrice, economy.PriceFloor)
}
