package social

import "github.com/talgya/medieval-sim/internal/ecs"

// Family groups one to three households under a surname.
type Family struct {
	Surname          string      `json:"surname"`
	Members          []PersonRef `json:"members"`
	HouseholdIndices []int       `json:"household_indices"`
}

// SettlementFamilies holds the families of one settlement.
type SettlementFamilies struct {
	SettlementID ecs.EntityID `json:"settlement_id"`
	Families     []Family     `json:"families"`
}

// Kind implements ecs.Component.
func (*SettlementFamilies) Kind() ecs.Kind { return KindFamilies }
