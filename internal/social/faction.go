// Factions: treasuries, policies, and diplomatic stance.
package social

import (
	"slices"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// Component kinds owned by this package.
const (
	KindFaction    ecs.Kind = "faction"
	KindLeadership ecs.Kind = "faction_leadership"
	KindSettlement ecs.Kind = "settlement"
	KindFamilies   ecs.Kind = "settlement_families"
)

// Relation bounds.
const (
	MinRelation = -100
	MaxRelation = 100
)

// TaxPolicy holds a faction's tax knobs.
type TaxPolicy struct {
	TitheRate          float64 `json:"tithe_rate"`            // fraction of production, monetized at local price
	MarketFeeRate      float64 `json:"market_fee_rate"`       // ad valorem on local sales
	TransitTollPerUnit float64 `json:"transit_toll_per_unit"` // coins per unit imported
}

// DefaultTaxPolicy returns the baseline rates.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{TitheRate: 0.10, MarketFeeRate: 0.05, TransitTollPerUnit: 0.02}
}

// FactionPolicy holds per-faction feeding, trade, and tax settings.
type FactionPolicy struct {
	DailyFoodPerPerson float64 `json:"daily_food_per_person"`
	BufferDays         int     `json:"buffer_days"`
	MealHours          []int   `json:"meal_hours"`

	WillTradeExternally bool `json:"will_trade_externally"`
	MinRelationToTrade  int  `json:"min_relation_to_trade"`

	Taxes TaxPolicy `json:"taxes"`
}

// DefaultPolicy returns the baseline faction policy.
func DefaultPolicy() FactionPolicy {
	return FactionPolicy{
		DailyFoodPerPerson:  1.0,
		BufferDays:          5,
		MealHours:           []int{9, 18},
		WillTradeExternally: true,
		MinRelationToTrade:  -20,
		Taxes:               DefaultTaxPolicy(),
	}
}

// EarliestMeal returns the first meal hour of the day.
func (p *FactionPolicy) EarliestMeal() int {
	if len(p.MealHours) == 0 {
		return 0
	}
	return slices.Min(p.MealHours)
}

// IsMealHour reports whether hour is one of the policy's meal hours.
func (p *FactionPolicy) IsMealHour(hour int) bool {
	return slices.Contains(p.MealHours, hour)
}

// Faction is a polity owning settlements and a treasury.
type Faction struct {
	Name     string        `json:"name"`
	Treasury float64       `json:"treasury"`
	Policy   FactionPolicy `json:"policy"`

	// Opinion of other factions (-100 to +100). Asymmetric.
	Relations map[ecs.EntityID]int `json:"relations"`

	LeadershipID ecs.EntityID `json:"leadership_id,omitempty"`
}

// Kind implements ecs.Component.
func (*Faction) Kind() ecs.Kind { return KindFaction }

// NewFaction creates a faction with the given policy and starting treasury.
func NewFaction(name string, treasury float64, policy FactionPolicy) *Faction {
	if treasury < 0 {
		treasury = 0
	}
	return &Faction{
		Name:      name,
		Treasury:  treasury,
		Policy:    policy,
		Relations: make(map[ecs.EntityID]int),
	}
}

// Relation returns this faction's opinion of other; unknown factions are 0.
func (f *Faction) Relation(other ecs.EntityID) int {
	return f.Relations[other]
}

// SetRelation records this faction's opinion of other, clamped to bounds.
func (f *Faction) SetRelation(other ecs.EntityID, score int) {
	if f.Relations == nil {
		f.Relations = make(map[ecs.EntityID]int)
	}
	f.Relations[other] = max(MinRelation, min(MaxRelation, score))
}

// Credit adds coins to the treasury. Non-positive amounts are ignored.
func (f *Faction) Credit(amount float64) {
	if amount > 0 {
		f.Treasury += amount
	}
}

// Debit removes up to amount from the treasury and returns what was taken.
func (f *Faction) Debit(amount float64) float64 {
	if amount <= 0 || f.Treasury <= 0 {
		return 0
	}
	if amount > f.Treasury {
		amount = f.Treasury
	}
	f.Treasury -= amount
	return amount
}

// Seat is a leadership office.
type Seat uint8

const (
	SeatSovereign  Seat = iota // King, queen, or regent
	SeatChancellor             // Administrator
	SeatMarshal                // Military captain
)

// Seats lists every office in payment order.
var Seats = []Seat{SeatSovereign, SeatChancellor, SeatMarshal}

func (s Seat) String() string {
	switch s {
	case SeatSovereign:
		return "sovereign"
	case SeatChancellor:
		return "chancellor"
	case SeatMarshal:
		return "marshal"
	}
	return "unknown"
}

// FactionLeadership holds a faction's office holders and their daily stipends.
// It is bound to its faction by OwnerFactionID, never by store order.
type FactionLeadership struct {
	OwnerFactionID ecs.EntityID `json:"owner_faction_id"`

	Sovereign  *PersonRef `json:"sovereign,omitempty"`
	Chancellor *PersonRef `json:"chancellor,omitempty"`
	Marshal    *PersonRef `json:"marshal,omitempty"`

	SovereignStipend  float64 `json:"sovereign_stipend"`
	ChancellorStipend float64 `json:"chancellor_stipend"`
	MarshalStipend    float64 `json:"marshal_stipend"`
}

// Kind implements ecs.Component.
func (*FactionLeadership) Kind() ecs.Kind { return KindLeadership }

// NewLeadership creates an empty leadership with default stipends.
func NewLeadership(owner ecs.EntityID) *FactionLeadership {
	return &FactionLeadership{
		OwnerFactionID:    owner,
		SovereignStipend:  5.0,
		ChancellorStipend: 3.0,
		MarshalStipend:    3.0,
	}
}

// Holder returns the person holding seat, or nil.
func (l *FactionLeadership) Holder(seat Seat) *PersonRef {
	switch seat {
	case SeatSovereign:
		return l.Sovereign
	case SeatChancellor:
		return l.Chancellor
	case SeatMarshal:
		return l.Marshal
	}
	return nil
}

// Appoint assigns ref to seat.
func (l *FactionLeadership) Appoint(seat Seat, ref PersonRef) {
	switch seat {
	case SeatSovereign:
		l.Sovereign = &ref
	case SeatChancellor:
		l.Chancellor = &ref
	case SeatMarshal:
		l.Marshal = &ref
	}
}

// Stipend returns the daily stipend for seat.
func (l *FactionLeadership) Stipend(seat Seat) float64 {
	switch seat {
	case SeatSovereign:
		return l.SovereignStipend
	case SeatChancellor:
		return l.ChancellorStipend
	case SeatMarshal:
		return l.MarshalStipend
	}
	return 0
}

// Vacant reports whether any seat is empty.
func (l *FactionLeadership) Vacant() bool {
	return l.Sovereign == nil || l.Chancellor == nil || l.Marshal == nil
}
