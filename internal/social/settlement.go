// Package social provides factions, settlements, households, and persons.
package social

import (
	"fmt"
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// SettlementKind classifies a settlement.
type SettlementKind uint8

const (
	SettlementHamlet SettlementKind = iota
	SettlementVillage
	SettlementTown
	SettlementCity
	SettlementCastle
	SettlementPort
	SettlementCaravanserai
	SettlementMine
	SettlementAbbey
)

// Household is the unit of consumption and wealth.
type Household struct {
	Size   int      `json:"size"`   // people
	Food   float64  `json:"food"`   // units owned by the household
	Wealth float64  `json:"wealth"` // coins
	People []Person `json:"people,omitempty"`
}

// Settlement is a population center owned by a faction.
type Settlement struct {
	Name string         `json:"name"`
	Type SettlementKind `json:"type"`

	FactionID     ecs.EntityID `json:"faction_id"`
	MarketID      ecs.EntityID `json:"market_id"`
	EconomyID     ecs.EntityID `json:"economy_id"`
	SpecialtiesID ecs.EntityID `json:"specialties_id,omitempty"`
	FamiliesID    ecs.EntityID `json:"families_id,omitempty"`

	Pop        int         `json:"pop"`        // cached population
	FoodStock  float64     `json:"food_stock"` // public granary
	Households []Household `json:"households"`

	ProductionMultiplier float64 `json:"production_multiplier"`
	WeatherYield         float64 `json:"weather_yield"`

	// An active harvest failure ends at HarvestRecoversAt, when production
	// returns to HarvestBaseMultiplier. Zero time means none is active.
	HarvestRecoversAt     time.Time `json:"harvest_recovers_at,omitzero"`
	HarvestBaseMultiplier float64   `json:"harvest_base_multiplier,omitempty"`

	// Person-meals missed since midnight.
	MealsMissedToday float64 `json:"meals_missed_today"`

	PopulationInitialized bool `json:"population_initialized"`
	PassionsAssigned      bool `json:"passions_assigned"`

	IsCapital bool `json:"is_capital,omitempty"`
}

// Kind implements ecs.Component.
func (*Settlement) Kind() ecs.Kind { return KindSettlement }

// NewSettlement creates a settlement with neutral production modifiers.
func NewSettlement(name string, faction ecs.EntityID) *Settlement {
	return &Settlement{
		Name:                 name,
		FactionID:            faction,
		ProductionMultiplier: 1.0,
		WeatherYield:         1.0,
	}
}

// Population returns the sum of household sizes, falling back to the cached
// Pop when no households exist. It refreshes the cache.
func (s *Settlement) Population() int {
	if len(s.Households) == 0 {
		return s.Pop
	}
	total := 0
	for i := range s.Households {
		total += s.Households[i].Size
	}
	s.Pop = total
	return total
}

// HouseholdFood returns food held across all households.
func (s *Settlement) HouseholdFood() float64 {
	total := 0.0
	for i := range s.Households {
		total += s.Households[i].Food
	}
	return total
}

// HouseholdWealth returns coins held across all households.
func (s *Settlement) HouseholdWealth() float64 {
	total := 0.0
	for i := range s.Households {
		total += s.Households[i].Wealth
	}
	return total
}

// HarvestFailing reports whether a harvest penalty is in force.
func (s *Settlement) HarvestFailing() bool {
	return !s.HarvestRecoversAt.IsZero()
}

// StartHarvestFailure sets production to penalty until the given time. A
// failure during an active one extends it and keeps the original base.
func (s *Settlement) StartHarvestFailure(penalty float64, until time.Time) {
	if !s.HarvestFailing() {
		s.HarvestBaseMultiplier = s.ProductionMultiplier
	}
	s.ProductionMultiplier = penalty
	s.HarvestRecoversAt = until
}

// EndHarvestFailure restores the base multiplier once now reaches the end
// date. It reports whether the settlement recovered.
func (s *Settlement) EndHarvestFailure(now time.Time) bool {
	if !s.HarvestFailing() || now.Before(s.HarvestRecoversAt) {
		return false
	}
	s.ProductionMultiplier = s.HarvestBaseMultiplier
	s.HarvestBaseMultiplier = 0
	s.HarvestRecoversAt = time.Time{}
	return true
}

// TakeFood removes up to amount from the granary and returns what was taken.
func (s *Settlement) TakeFood(amount float64) float64 {
	if amount <= 0 || s.FoodStock <= 0 {
		return 0
	}
	if amount > s.FoodStock {
		amount = s.FoodStock
	}
	s.FoodStock -= amount
	return amount
}

// Household returns the household at index i.
func (s *Settlement) Household(i int) (*Household, error) {
	if i < 0 || i >= len(s.Households) {
		return nil, fmt.Errorf("settlement %s: household %d out of range", s.Name, i)
	}
	return &s.Households[i], nil
}

// Person resolves a PersonRef against this settlement.
func (s *Settlement) Person(ref PersonRef) (*Person, error) {
	hh, err := s.Household(ref.HouseholdIndex)
	if err != nil {
		return nil, err
	}
	if ref.PersonIndex < 0 || ref.PersonIndex >= len(hh.People) {
		return nil, fmt.Errorf("settlement %s: person %d of household %d out of range", s.Name, ref.PersonIndex, ref.HouseholdIndex)
	}
	return &hh.People[ref.PersonIndex], nil
}

// EachPerson calls fn for every person with its reference, in household order.
func (s *Settlement) EachPerson(self ecs.EntityID, fn func(ref PersonRef, hh *Household, p *Person)) {
	for hi := range s.Households {
		hh := &s.Households[hi]
		for pi := range hh.People {
			fn(PersonRef{SettlementID: self, HouseholdIndex: hi, PersonIndex: pi}, hh, &hh.People[pi])
		}
	}
}
