package economy

import (
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// DefaultBaseWage is paid per day to professions missing from the table.
const DefaultBaseWage = 0.8

// SettlementEconomy holds a settlement's payroll budget and wage table.
type SettlementEconomy struct {
	Name          string  `json:"name"`
	WagePoolCoins float64 `json:"wage_pool_coins"`

	DailyWage map[social.Profession]float64 `json:"daily_wage"`
}

// Kind implements ecs.Component.
func (*SettlementEconomy) Kind() ecs.Kind { return KindEconomy }

// NewEconomy creates an economy with the given wage pool and an empty table.
func NewEconomy(name string, pool float64) *SettlementEconomy {
	return &SettlementEconomy{
		Name:          name,
		WagePoolCoins: max(0, pool),
		DailyWage:     make(map[social.Profession]float64),
	}
}

// BaseWage returns the daily base wage for a profession.
func (e *SettlementEconomy) BaseWage(p social.Profession) float64 {
	if w, ok := e.DailyWage[p]; ok {
		return w
	}
	return DefaultBaseWage
}

// SkillFactor maps skill 0..100 to a wage multiplier 0.8..1.4.
func SkillFactor(skill float64) float64 {
	return 0.8 + (skill/100.0)*0.6
}

// RationFactor returns the share of desired payroll a pool can cover.
func RationFactor(pool, desired float64) float64 {
	if desired <= 0 {
		return 0
	}
	if pool >= desired {
		return 1
	}
	if pool <= 0 {
		return 0
	}
	return pool / desired
}
