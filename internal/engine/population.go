// Population generation: fills each settlement's households with people
// once, then links them with a few random acquaintances.
package engine

import (
	"math"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/entropy"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/social"
)

// Generation constants.
const (
	AcquaintancesPerPerson = 2
	acquaintanceAttempts   = 16
)

type professionWeight struct {
	prof   social.Profession
	weight float64
}

// baselineProfessions is the sampling table before specialty boosts.
var baselineProfessions = []professionWeight{
	{social.ProfFarmer, 3.0}, {social.ProfMiller, 0.3}, {social.ProfBaker, 0.6},
	{social.ProfBlacksmith, 0.5}, {social.ProfCarpenter, 0.6}, {social.ProfMason, 0.3},
	{social.ProfFisher, 0.4}, {social.ProfHunter, 0.4}, {social.ProfWoodcutter, 0.5},
	{social.ProfMerchant, 0.5}, {social.ProfScribe, 0.2}, {social.ProfHealer, 0.2},
	{social.ProfPriest, 0.2}, {social.ProfMonk, 0.2}, {social.ProfGuard, 0.6},
	{social.ProfSoldier, 0.5}, {social.ProfNoble, 0.05}, {social.ProfCaravaneer, 0.3},
	{social.ProfBrewer, 0.3},
}

// PopulationSystem generates persons for settlements not yet initialized.
type PopulationSystem struct{}

// NewPopulationSystem creates the population generator.
func NewPopulationSystem() *PopulationSystem { return &PopulationSystem{} }

func (*PopulationSystem) Name() string { return "population" }
func (*PopulationSystem) Order() int   { return 5 }

// Tick generates each uninitialized settlement exactly once.
func (ps *PopulationSystem) Tick(ctx *Context) error {
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		s := e.Component
		if s.PopulationInitialized {
			continue
		}
		spec, err := specialtiesOf(ctx.World, s)
		if err != nil {
			return err
		}
		weights := professionTable(spec)

		born := 0
		for hi := range s.Households {
			hh := &s.Households[hi]
			for len(hh.People) < hh.Size {
				age := sampleAge(ctx.RNG)
				hh.People = append(hh.People, social.Person{
					Age:         age,
					Profession:  sampleProfession(ctx.RNG, weights),
					Skill:       clamp(float64(age)*1.2+ctx.RNG.Float()*10, 0, 100),
					FamilyIndex: -1,
				})
				born++
			}
		}
		linkAcquaintances(ctx.RNG, e.ID, s)
		s.PopulationInitialized = true
		s.Population()

		ctx.Publish(events.CategoryPopulation, "population.generated", e.ID, float64(born), s.Name+" populated")
		ctx.Log.Info("population generated", "settlement", s.Name, "persons", born, "households", len(s.Households))
	}
	return nil
}

func professionTable(spec *economy.SettlementSpecialties) []professionWeight {
	out := make([]professionWeight, len(baselineProfessions))
	copy(out, baselineProfessions)
	if spec == nil {
		return out
	}
	for i := range out {
		if boost, ok := spec.Weights[out[i].prof]; ok {
			out[i].weight *= boost
		}
	}
	return out
}

func sampleProfession(rng entropy.Source, table []professionWeight) social.Profession {
	sum := 0.0
	for _, pw := range table {
		sum += pw.weight
	}
	r := rng.Float() * sum
	for _, pw := range table {
		if r <= pw.weight {
			return pw.prof
		}
		r -= pw.weight
	}
	return social.ProfFarmer
}

// sampleAge draws an adult age in 16..70 peaking in the thirties.
func sampleAge(rng entropy.Source) int {
	u := rng.Float()
	return int(clamp(16+math.Sqrt(u)*40+rng.Float()*10, 16, 70))
}

func linkAcquaintances(rng entropy.Source, sid ecs.EntityID, s *social.Settlement) {
	var refs []social.PersonRef
	s.EachPerson(sid, func(ref social.PersonRef, _ *social.Household, _ *social.Person) {
		refs = append(refs, ref)
	})
	if len(refs) < 2 {
		return
	}
	for _, ref := range refs {
		p := &s.Households[ref.HouseholdIndex].People[ref.PersonIndex]
		links := 0
		for attempt := 0; links < AcquaintancesPerPerson && attempt < acquaintanceAttempts; attempt++ {
			other := refs[rng.Intn(0, len(refs))]
			if other == ref || p.RelationTo(other) != nil {
				continue
			}
			p.Relations = append(p.Relations, social.Relation{Target: other, Score: rng.Intn(-5, 21)})
			links++
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
