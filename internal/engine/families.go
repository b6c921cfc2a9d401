// Family generation: groups neighboring households into small clans.
package engine

import (
	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

var baseSurnames = []string{
	"Oakheart", "Rivers", "Hillman", "Miller", "Smith", "Baker", "Weaver",
	"Stone", "Carter", "Fletcher", "Cooper", "Barley", "Goodman",
}

var specialtySurnames = map[social.Profession]string{
	social.ProfBlacksmith: "Smith",
	social.ProfMiller:     "Miller",
	social.ProfBaker:      "Baker",
	social.ProfCarpenter:  "Carpenter",
	social.ProfMason:      "Stone",
	social.ProfWeaver:     "Weaver",
	social.ProfFarmer:     "Barley",
	social.ProfCaravaneer: "Carter",
}

// FamilySystem creates a SettlementFamilies entity per populated settlement.
type FamilySystem struct{}

// NewFamilySystem creates the family generator.
func NewFamilySystem() *FamilySystem { return &FamilySystem{} }

func (*FamilySystem) Name() string { return "families" }
func (*FamilySystem) Order() int   { return 7 }

// Tick groups households into families of one to three households.
func (fs *FamilySystem) Tick(ctx *Context) error {
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		s := e.Component
		if !s.PopulationInitialized || s.FamiliesID != ecs.NilEntity {
			continue
		}
		spec, err := specialtiesOf(ctx.World, s)
		if err != nil {
			return err
		}

		fam := &social.SettlementFamilies{SettlementID: e.ID}
		for h := 0; h < len(s.Households); {
			group := max(1, min(3, 1+int(ctx.RNG.Float()*3)))
			f := social.Family{Surname: fs.surname(ctx, spec)}
			idx := len(fam.Families)
			for k := 0; k < group && h < len(s.Households); k, h = k+1, h+1 {
				f.HouseholdIndices = append(f.HouseholdIndices, h)
				for pi := range s.Households[h].People {
					s.Households[h].People[pi].FamilyIndex = idx
					f.Members = append(f.Members, social.PersonRef{SettlementID: e.ID, HouseholdIndex: h, PersonIndex: pi})
				}
			}
			fam.Families = append(fam.Families, f)
		}

		for _, f := range fam.Families {
			for _, m := range f.Members {
				me := &s.Households[m.HouseholdIndex].People[m.PersonIndex]
				for _, other := range f.Members {
					if other == m {
						continue
					}
					if r := me.RelationTo(other); r != nil {
						r.Score = min(social.MaxRelation, r.Score+20)
						continue
					}
					me.Relations = append(me.Relations, social.Relation{Target: other, Score: 25 + int(ctx.RNG.Float()*25)})
				}
			}
		}

		s.FamiliesID = ctx.World.Spawn(fam)
		ctx.Log.Debug("families generated", "settlement", s.Name, "families", len(fam.Families))
	}
	return nil
}

func (fs *FamilySystem) surname(ctx *Context, spec *economy.SettlementSpecialties) string {
	if top, ok := spec.Top(); ok {
		if name, ok := specialtySurnames[top]; ok {
			return name
		}
	}
	return baseSurnames[ctx.RNG.Intn(0, len(baseSurnames))]
}
