// Passion assignment for freshly generated persons.
package engine

import (
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// Passion draw probabilities.
const (
	SecondaryPassionChance = 0.7
	WildcardPassionChance  = 0.1
)

// PassionSystem gives every person a primary passion and maybe more.
type PassionSystem struct{}

// NewPassionSystem creates the passion assigner.
func NewPassionSystem() *PassionSystem { return &PassionSystem{} }

func (*PassionSystem) Name() string { return "passions" }
func (*PassionSystem) Order() int   { return 6 }

// Tick assigns passions once per populated settlement.
func (*PassionSystem) Tick(ctx *Context) error {
	rng := ctx.RNG
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		s := e.Component
		if !s.PopulationInitialized || s.PassionsAssigned {
			continue
		}
		s.EachPerson(e.ID, func(_ social.PersonRef, _ *social.Household, p *social.Person) {
			if len(p.Passions) > 0 {
				return
			}
			p.Passions = append(p.Passions, social.PassionIntensity{
				Passion: social.PrimaryPassion(p.Profession),
				Level:   0.6 + rng.Float()*0.35,
			})

			if sec := social.SecondaryPassions(p.Profession); len(sec) > 0 && rng.Float() < SecondaryPassionChance {
				p.Passions = append(p.Passions, social.PassionIntensity{
					Passion: sec[rng.Intn(0, len(sec))],
					Level:   0.25 + rng.Float()*0.35,
				})
			}

			if rng.Float() < WildcardPassionChance {
				wild := social.Passion(rng.Intn(0, int(social.PassionCount)))
				if !p.HasPassion(wild) {
					p.Passions = append(p.Passions, social.PassionIntensity{Passion: wild, Level: 0.2 + rng.Float()*0.25})
				}
			}
		})
		s.PassionsAssigned = true
	}
	return nil
}
