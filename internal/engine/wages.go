// Daily wages paid from each settlement's wage pool.
package engine

import (
	"fmt"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/social"
)

// PayHour is when wages, stipends, and allowances are paid.
const PayHour = 6

// WageSystem pays every person at 06:00, rationed pro-rata when the pool
// cannot cover the full payroll.
type WageSystem struct {
	// PassionWageWeight scales the bonus for a person's primary passion.
	// Zero disables the bonus.
	PassionWageWeight float64
}

// NewWageSystem creates a wage system.
func NewWageSystem(passionWeight float64) *WageSystem {
	return &WageSystem{PassionWageWeight: passionWeight}
}

func (*WageSystem) Name() string { return "wages" }
func (*WageSystem) Order() int   { return 14 }

type payee struct {
	hh   *social.Household
	wage float64
}

// Tick pays wages once a day. Settlements without an economy are skipped.
func (ws *WageSystem) Tick(ctx *Context) error {
	if ctx.Hour() != PayHour {
		return nil
	}
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		s := e.Component
		if s.EconomyID == ecs.NilEntity {
			continue
		}
		econ, err := ecs.Get[*economy.SettlementEconomy](ctx.World, s.EconomyID)
		if err != nil {
			return fmt.Errorf("settlement %s economy: %w", s.Name, err)
		}
		spec, err := specialtiesOf(ctx.World, s)
		if err != nil {
			return err
		}

		desired := 0.0
		var payees []payee
		s.EachPerson(e.ID, func(_ social.PersonRef, hh *social.Household, p *social.Person) {
			w := ws.Wage(econ, spec, p)
			desired += w
			payees = append(payees, payee{hh: hh, wage: w})
		})
		if desired <= 0 {
			continue
		}

		factor := economy.RationFactor(econ.WagePoolCoins, desired)
		for _, py := range payees {
			py.hh.Wealth += py.wage * factor
		}
		paid := desired * factor
		econ.WagePoolCoins = max(0, econ.WagePoolCoins-paid)

		if factor < 1 {
			ctx.Log.Debug("wages rationed", "settlement", s.Name, "desired", desired, "paid", paid)
		}
		ctx.Publish(events.CategoryWages, "wages.paid", e.ID, paid,
			fmt.Sprintf("%s paid %.1f of %.1f in wages", s.Name, paid, desired))
	}
	return nil
}

// Wage returns the desired daily wage of one person.
func (ws *WageSystem) Wage(econ *economy.SettlementEconomy, spec *economy.SettlementSpecialties, p *social.Person) float64 {
	w := econ.BaseWage(p.Profession) * economy.SkillFactor(p.Skill) * spec.Multiplier(p.Profession)
	if ws.PassionWageWeight != 0 {
		w *= 1 + ws.PassionWageWeight*p.PassionLevel(social.PrimaryPassion(p.Profession))
	}
	return w
}
