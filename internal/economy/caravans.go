package economy

import (
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// KindCaravans is the world-wide ledger of caravans on the road.
const KindCaravans ecs.Kind = "caravan_ledger"

// Shipment is one caravan trip that has left the seller and not yet arrived.
// The buyer already paid; Payment is owed to the seller faction on arrival.
type Shipment struct {
	Seq             uint64       `json:"seq"`
	BuyerID         ecs.EntityID `json:"buyer_id"`
	SellerFactionID ecs.EntityID `json:"seller_faction_id"`
	Units           float64      `json:"units"`
	Payment         float64      `json:"payment"`
	Arrival         time.Time    `json:"arrival"`
}

// CaravanLedger records shipments in dispatch order so they survive a
// snapshot round trip.
type CaravanLedger struct {
	NextSeq uint64     `json:"next_seq"`
	Pending []Shipment `json:"pending"`
}

// Kind implements ecs.Component.
func (*CaravanLedger) Kind() ecs.Kind { return KindCaravans }

// Add assigns sh the next sequence number and records it.
func (l *CaravanLedger) Add(sh Shipment) Shipment {
	l.NextSeq++
	sh.Seq = l.NextSeq
	l.Pending = append(l.Pending, sh)
	return sh
}

// Take removes and returns the shipment with seq.
func (l *CaravanLedger) Take(seq uint64) (Shipment, bool) {
	for i, sh := range l.Pending {
		if sh.Seq == seq {
			l.Pending = append(l.Pending[:i], l.Pending[i+1:]...)
			return sh, true
		}
	}
	return Shipment{}, false
}

// InTransit returns the units still on the road.
func (l *CaravanLedger) InTransit() float64 {
	total := 0.0
	for _, sh := range l.Pending {
		total += sh.Units
	}
	return total
}
