package social

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitCapsAtBalance(t *testing.T) {
	f := NewFaction("Crown", 10, DefaultPolicy())
	assert.Equal(t, 4.0, f.Debit(4))
	assert.Equal(t, 6.0, f.Debit(100))
	assert.Equal(t, 0.0, f.Treasury)
	assert.Equal(t, 0.0, f.Debit(1))

	f.Credit(-5)
	assert.Equal(t, 0.0, f.Treasury)
}

func TestRelationsAreAsymmetricAndClamped(t *testing.T) {
	a := NewFaction("A", 0, DefaultPolicy())
	b := NewFaction("B", 0, DefaultPolicy())
	a.SetRelation(2, 250)
	b.SetRelation(1, -30)

	assert.Equal(t, MaxRelation, a.Relation(2))
	assert.Equal(t, -30, b.Relation(1))
	assert.Equal(t, 0, a.Relation(99))
}

func TestPolicyMealHours(t *testing.T) {
	p := DefaultPolicy()
	p.MealHours = []int{18, 9, 13}
	assert.Equal(t, 9, p.EarliestMeal())
	assert.True(t, p.IsMealHour(13))
	assert.False(t, p.IsMealHour(12))
}

func TestSettlementPopulation(t *testing.T) {
	s := NewSettlement("Rivenshade", 1)
	s.Pop = 40
	assert.Equal(t, 40, s.Population())

	s.Households = []Household{{Size: 3}, {Size: 5}}
	assert.Equal(t, 8, s.Population())
	assert.Equal(t, 8, s.Pop)
}

func TestPersonRefResolution(t *testing.T) {
	s := NewSettlement("Stoneford", 1)
	s.Households = []Household{{Size: 2, People: []Person{{Age: 30}, {Age: 40}}}}

	p, err := s.Person(PersonRef{SettlementID: 5, HouseholdIndex: 0, PersonIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, 40, p.Age)

	_, err = s.Person(PersonRef{HouseholdIndex: 1})
	assert.Error(t, err)
	_, err = s.Person(PersonRef{PersonIndex: 2})
	assert.Error(t, err)
}

func TestTakeFood(t *testing.T) {
	s := NewSettlement("Abbey", 1)
	s.FoodStock = 3
	assert.Equal(t, 2.0, s.TakeFood(2))
	assert.Equal(t, 1.0, s.TakeFood(5))
	assert.Equal(t, 0.0, s.FoodStock)
}

func TestParseProfession(t *testing.T) {
	p, err := ParseProfession(" Blacksmith ")
	require.NoError(t, err)
	assert.Equal(t, ProfBlacksmith, p)
	assert.Equal(t, "blacksmith", p.String())

	_, err = ParseProfession("astronaut")
	assert.Error(t, err)
}

func TestLeadershipSeats(t *testing.T) {
	l := NewLeadership(3)
	assert.True(t, l.Vacant())
	for _, seat := range Seats {
		l.Appoint(seat, PersonRef{SettlementID: 4, PersonIndex: int(seat)})
	}
	assert.False(t, l.Vacant())
	assert.Equal(t, 2, l.Holder(SeatMarshal).PersonIndex)
	assert.Equal(t, 5.0, l.Stipend(SeatSovereign))
}

func TestHarvestFailureExtendsAndRecovers(t *testing.T) {
	s := NewSettlement("Town", 1)
	s.ProductionMultiplier = 1.2
	start := time.Date(1200, time.April, 1, 5, 0, 0, 0, time.UTC)

	s.StartHarvestFailure(0.5, start.Add(30*24*time.Hour))
	require.True(t, s.HarvestFailing())
	assert.Equal(t, 0.5, s.ProductionMultiplier)

	// A second failure pushes the end date out and keeps the healthy base.
	later := start.Add(40 * 24 * time.Hour)
	s.StartHarvestFailure(0.5, later)
	assert.Equal(t, 1.2, s.HarvestBaseMultiplier)
	assert.Equal(t, later, s.HarvestRecoversAt)

	assert.False(t, s.EndHarvestFailure(start.Add(30*24*time.Hour)))
	assert.Equal(t, 0.5, s.ProductionMultiplier)

	assert.True(t, s.EndHarvestFailure(later))
	assert.Equal(t, 1.2, s.ProductionMultiplier)
	assert.False(t, s.HarvestFailing())
	assert.False(t, s.EndHarvestFailure(later.Add(time.Hour)))
}
