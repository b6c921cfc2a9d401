package engine

import (
	"fmt"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// settlementView bundles a settlement with the components most systems need.
type settlementView struct {
	ID      ecs.EntityID
	S       *social.Settlement
	Faction *social.Faction
	Market  *economy.SettlementMarket
}

// settlements resolves every settlement with its faction and market, in id
// order.
func settlements(w *ecs.World) ([]settlementView, error) {
	entries := ecs.All[*social.Settlement](w)
	out := make([]settlementView, 0, len(entries))
	for _, e := range entries {
		v, err := viewOf(w, e.ID, e.Component)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func viewOf(w *ecs.World, id ecs.EntityID, s *social.Settlement) (settlementView, error) {
	f, err := ecs.Get[*social.Faction](w, s.FactionID)
	if err != nil {
		return settlementView{}, fmt.Errorf("settlement %s faction: %w", s.Name, err)
	}
	m, err := ecs.Get[*economy.SettlementMarket](w, s.MarketID)
	if err != nil {
		return settlementView{}, fmt.Errorf("settlement %s market: %w", s.Name, err)
	}
	return settlementView{ID: id, S: s, Faction: f, Market: m}, nil
}

// feeRate is the effective market fee on local sales.
func (v settlementView) feeRate() float64 {
	return v.Market.FeeRate(v.Faction.Policy.Taxes.MarketFeeRate)
}

// importFeeRate is the fee charged on caravan imports. Fairs do not lower it.
func (v settlementView) importFeeRate() float64 {
	return v.Market.BaseFeeRate(v.Faction.Policy.Taxes.MarketFeeRate)
}

// specialtiesOf returns the settlement's specialties, or nil when it has none.
func specialtiesOf(w *ecs.World, s *social.Settlement) (*economy.SettlementSpecialties, error) {
	if s.SpecialtiesID == ecs.NilEntity {
		return nil, nil
	}
	sp, err := ecs.Get[*economy.SettlementSpecialties](w, s.SpecialtiesID)
	if err != nil {
		return nil, fmt.Errorf("settlement %s specialties: %w", s.Name, err)
	}
	return sp, nil
}
