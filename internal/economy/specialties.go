package economy

import (
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// DefaultSpecialtyBonus is the wage bonus for a settlement specialty (+25%).
const DefaultSpecialtyBonus = 0.25

// SettlementSpecialties weights professions a settlement is known for.
// Weights bias population sampling; any weighted profession earns the bonus.
type SettlementSpecialties struct {
	Weights            map[social.Profession]float64 `json:"weights"`
	SpecialtyWageBonus float64                       `json:"specialty_wage_bonus"`
}

// Kind implements ecs.Component.
func (*SettlementSpecialties) Kind() ecs.Kind { return KindSpecialties }

// NewSpecialties creates an empty specialty table with the default bonus.
func NewSpecialties() *SettlementSpecialties {
	return &SettlementSpecialties{
		Weights:            make(map[social.Profession]float64),
		SpecialtyWageBonus: DefaultSpecialtyBonus,
	}
}

// Boost multiplies the weight of p by factor, starting from factor when absent.
func (s *SettlementSpecialties) Boost(p social.Profession, factor float64) {
	if cur, ok := s.Weights[p]; ok {
		s.Weights[p] = cur * factor
		return
	}
	s.Weights[p] = factor
}

// Multiplier returns the wage multiplier for p.
func (s *SettlementSpecialties) Multiplier(p social.Profession) float64 {
	if s == nil {
		return 1
	}
	if _, ok := s.Weights[p]; ok {
		return 1 + s.SpecialtyWageBonus
	}
	return 1
}

// Top returns the highest-weighted profession. Ties go to the lower
// profession value so the result does not depend on map order.
func (s *SettlementSpecialties) Top() (social.Profession, bool) {
	if s == nil || len(s.Weights) == 0 {
		return 0, false
	}
	var best social.Profession
	bestW := -1.0
	for p, w := range s.Weights {
		if w > bestW || (w == bestW && p < best) {
			best, bestW = p, w
		}
	}
	return best, true
}
