// Leadership: factions pick office holders and pay them daily stipends.
package engine

import (
	"fmt"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/social"
)

// Leadership selection constants.
const (
	SelectionHour  = 7
	MinLeaderAge   = 18
	PreferredBonus = 40.0
	WealthScoreCap = 20.0
	PrimeAgeBonus  = 10.0
)

// seatPreferences lists the professions each seat favors.
var seatPreferences = map[social.Seat][]social.Profession{
	social.SeatSovereign:  {social.ProfNoble, social.ProfMerchant},
	social.SeatChancellor: {social.ProfScribe, social.ProfMerchant, social.ProfPriest},
	social.SeatMarshal:    {social.ProfSoldier, social.ProfGuard, social.ProfBlacksmith},
}

// LeadershipSelectionSystem fills faction seats at 07:00 on the first day
// of the year, or on any day a seat is vacant.
type LeadershipSelectionSystem struct{}

// NewLeadershipSelectionSystem creates the selection system.
func NewLeadershipSelectionSystem() *LeadershipSelectionSystem {
	return &LeadershipSelectionSystem{}
}

func (*LeadershipSelectionSystem) Name() string { return "leadership_selection" }
func (*LeadershipSelectionSystem) Order() int   { return 12 }

type candidate struct {
	ref    social.PersonRef
	person *social.Person
	wealth float64
}

func (c candidate) score(seat social.Seat) float64 {
	s := c.person.Skill + min(WealthScoreCap, c.wealth)
	for _, p := range seatPreferences[seat] {
		if c.person.Profession == p {
			s += PreferredBonus
			break
		}
	}
	if c.person.Age >= 25 && c.person.Age <= 60 {
		s += PrimeAgeBonus
	}
	return s
}

// Tick creates missing leadership entities and runs selections.
func (ls *LeadershipSelectionSystem) Tick(ctx *Context) error {
	now := ctx.Now()
	if now.Hour() != SelectionHour {
		return nil
	}
	for _, e := range ecs.All[*social.Faction](ctx.World) {
		lead, err := ensureLeadership(ctx.World, e.ID, e.Component)
		if err != nil {
			return err
		}
		if now.YearDay() != 1 && !lead.Vacant() {
			continue
		}
		ls.selectLeaders(ctx, e.ID, e.Component, lead)
	}
	return nil
}

func ensureLeadership(w *ecs.World, id ecs.EntityID, f *social.Faction) (*social.FactionLeadership, error) {
	if f.LeadershipID != ecs.NilEntity {
		lead, err := ecs.Get[*social.FactionLeadership](w, f.LeadershipID)
		if err != nil {
			return nil, fmt.Errorf("faction %s leadership: %w", f.Name, err)
		}
		return lead, nil
	}
	lead := social.NewLeadership(id)
	f.LeadershipID = w.Spawn(lead)
	return lead, nil
}

func (ls *LeadershipSelectionSystem) selectLeaders(ctx *Context, fid ecs.EntityID, f *social.Faction, lead *social.FactionLeadership) {
	var pool []candidate
	for _, e := range ecs.All[*social.Settlement](ctx.World) {
		if e.Component.FactionID != fid {
			continue
		}
		e.Component.EachPerson(e.ID, func(ref social.PersonRef, hh *social.Household, p *social.Person) {
			if p.Age >= MinLeaderAge {
				pool = append(pool, candidate{ref: ref, person: p, wealth: hh.Wealth})
			}
		})
	}
	if len(pool) == 0 {
		return
	}

	for _, seat := range social.Seats {
		best := 0
		bestScore := pool[0].score(seat)
		for i := 1; i < len(pool); i++ {
			if sc := pool[i].score(seat); sc > bestScore {
				best, bestScore = i, sc
			}
		}
		lead.Appoint(seat, pool[best].ref)
		ctx.Publish(events.CategoryLeaders, "leader.appointed", fid, bestScore,
			fmt.Sprintf("%s appoints a %s as %s", f.Name, pool[best].person.Profession, seat))
	}
	ctx.Log.Info("leaders selected", "faction", f.Name, "candidates", len(pool))
}

// LeadershipStipendSystem pays seat holders from their faction at 06:00.
type LeadershipStipendSystem struct{}

// NewLeadershipStipendSystem creates the stipend system.
func NewLeadershipStipendSystem() *LeadershipStipendSystem {
	return &LeadershipStipendSystem{}
}

func (*LeadershipStipendSystem) Name() string { return "leadership_stipend" }
func (*LeadershipStipendSystem) Order() int   { return 13 }

// Tick pays each held seat its stipend, capped at the owner's treasury.
func (*LeadershipStipendSystem) Tick(ctx *Context) error {
	if ctx.Hour() != PayHour {
		return nil
	}
	for _, e := range ecs.All[*social.FactionLeadership](ctx.World) {
		lead := e.Component
		f, err := ecs.Get[*social.Faction](ctx.World, lead.OwnerFactionID)
		if err != nil {
			return fmt.Errorf("leadership %d owner: %w", e.ID, err)
		}
		for _, seat := range social.Seats {
			ref := lead.Holder(seat)
			if ref == nil {
				continue
			}
			s, err := ecs.Get[*social.Settlement](ctx.World, ref.SettlementID)
			if err != nil {
				return fmt.Errorf("%s %s: %w", f.Name, seat, err)
			}
			hh, err := s.Household(ref.HouseholdIndex)
			if err != nil {
				return fmt.Errorf("%s %s: %w", f.Name, seat, err)
			}
			hh.Wealth += f.Debit(lead.Stipend(seat))
		}
	}
	return nil
}
