package social

import (
	"fmt"
	"strings"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// Profession is what a person does for a living.
type Profession uint8

const (
	// Agrarian and nature
	ProfFarmer Profession = iota
	ProfShepherd
	ProfFisher
	ProfHunter
	ProfWoodcutter

	// Materials and industry
	ProfCarpenter
	ProfMason
	ProfMiner
	ProfTanner
	ProfWeaver
	ProfDyer
	ProfPotter
	ProfGlassblower
	ProfLeatherworker
	ProfTailor

	// Metal and advanced craft
	ProfBlacksmith
	ProfJeweler
	ProfShipwright
	ProfAlchemist
	ProfBrewer

	// Trade and services
	ProfMerchant
	ProfCaravaneer
	ProfSailor
	ProfScribe
	ProfHealer
	ProfPriest
	ProfMonk
	ProfBard
	ProfCook
	ProfMiller
	ProfBaker

	// Security and rule
	ProfGuard
	ProfSoldier
	ProfNoble

	professionCount
)

var professionNames = [professionCount]string{
	"farmer", "shepherd", "fisher", "hunter", "woodcutter",
	"carpenter", "mason", "miner", "tanner", "weaver", "dyer", "potter", "glassblower", "leatherworker", "tailor",
	"blacksmith", "jeweler", "shipwright", "alchemist", "brewer",
	"merchant", "caravaneer", "sailor", "scribe", "healer", "priest", "monk", "bard", "cook", "miller", "baker",
	"guard", "soldier", "noble",
}

func (p Profession) String() string {
	if p < professionCount {
		return professionNames[p]
	}
	return fmt.Sprintf("profession(%d)", p)
}

// ParseProfession maps a case-insensitive name to a Profession.
func ParseProfession(name string) (Profession, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, pn := range professionNames {
		if pn == n {
			return Profession(i), nil
		}
	}
	return 0, fmt.Errorf("unknown profession %q", name)
}

// Passion is a secondary trait that colors a person's work.
type Passion uint8

const (
	PassionFarming Passion = iota
	PassionCrafting
	PassionTrade
	PassionWarfare
	PassionScholarship
	PassionFaith
	PassionNature
	PassionSeafaring
	PassionArtistry
	PassionHealing
	PassionLeadership
	PassionBrewing

	PassionCount
)

// PrimaryPassion returns the passion a profession suggests.
func PrimaryPassion(p Profession) Passion {
	switch p {
	case ProfFarmer:
		return PassionFarming
	case ProfMiller, ProfBaker, ProfBlacksmith, ProfCarpenter, ProfMason, ProfWeaver, ProfTanner:
		return PassionCrafting
	case ProfMerchant, ProfScribe:
		return PassionTrade
	case ProfGuard, ProfSoldier:
		return PassionWarfare
	case ProfPriest, ProfMonk:
		return PassionFaith
	case ProfHealer:
		return PassionHealing
	case ProfFisher, ProfHunter, ProfWoodcutter:
		return PassionNature
	case ProfCaravaneer:
		return PassionSeafaring
	case ProfBrewer:
		return PassionBrewing
	case ProfNoble:
		return PassionLeadership
	}
	return PassionCrafting
}

// SecondaryPassions returns optional secondary passions for a profession.
func SecondaryPassions(p Profession) []Passion {
	switch p {
	case ProfMerchant:
		return []Passion{PassionLeadership, PassionScholarship}
	case ProfScribe:
		return []Passion{PassionScholarship, PassionFaith}
	case ProfNoble:
		return []Passion{PassionLeadership, PassionWarfare}
	case ProfFisher:
		return []Passion{PassionSeafaring, PassionNature}
	case ProfHunter:
		return []Passion{PassionNature, PassionWarfare}
	case ProfBrewer:
		return []Passion{PassionCrafting, PassionTrade}
	}
	return nil
}

// PassionIntensity is one weighted passion, Level in [0, 1].
type PassionIntensity struct {
	Passion Passion `json:"passion"`
	Level   float64 `json:"level"`
}

// PersonRef locates a person by position. It is a weak reference: it stays
// valid because households and persons are never removed or reordered.
type PersonRef struct {
	SettlementID   ecs.EntityID `json:"settlement_id"`
	HouseholdIndex int          `json:"household_index"`
	PersonIndex    int          `json:"person_index"`
}

// Relation is one person's opinion of another (-100 to +100).
type Relation struct {
	Target PersonRef `json:"target"`
	Score  int       `json:"score"`
}

// Person is a member of a household.
type Person struct {
	Name       string             `json:"name,omitempty"`
	Age        int                `json:"age"`
	Profession Profession         `json:"profession"`
	Skill      float64            `json:"skill"` // 0–100
	Relations  []Relation         `json:"relations,omitempty"`
	Passions   []PassionIntensity `json:"passions,omitempty"`

	// FamilyIndex indexes SettlementFamilies.Families; -1 when unassigned.
	FamilyIndex int `json:"family_index"`
}

// PassionLevel returns the level of passion p, or 0 if the person lacks it.
func (p *Person) PassionLevel(passion Passion) float64 {
	for _, pi := range p.Passions {
		if pi.Passion == passion {
			return pi.Level
		}
	}
	return 0
}

// HasPassion reports whether the person has passion p at any level.
func (p *Person) HasPassion(passion Passion) bool {
	for _, pi := range p.Passions {
		if pi.Passion == passion {
			return true
		}
	}
	return false
}

// RelationTo returns a pointer to the relation targeting ref, or nil.
func (p *Person) RelationTo(ref PersonRef) *Relation {
	for i := range p.Relations {
		if p.Relations[i].Target == ref {
			return &p.Relations[i]
		}
	}
	return nil
}
