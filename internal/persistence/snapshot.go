// Package persistence captures the world into snapshots and stores them in
// SQLite. The simulation core never depends on it.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
)

// ErrUnknownKind means a snapshot holds a component kind with no decoder.
var ErrUnknownKind = errors.New("persistence: unknown component kind")

// factories builds an empty component for each persisted kind.
var factories = map[ecs.Kind]func() ecs.Component{
	social.KindFaction:      func() ecs.Component { return &social.Faction{} },
	social.KindLeadership:   func() ecs.Component { return &social.FactionLeadership{} },
	social.KindSettlement:   func() ecs.Component { return &social.Settlement{} },
	social.KindFamilies:     func() ecs.Component { return &social.SettlementFamilies{} },
	economy.KindMarket:      func() ecs.Component { return &economy.SettlementMarket{} },
	economy.KindEconomy:     func() ecs.Component { return &economy.SettlementEconomy{} },
	economy.KindSpecialties: func() ecs.Component { return &economy.SettlementSpecialties{} },
	economy.KindCaravans:    func() ecs.Component { return &economy.CaravanLedger{} },
}

// Record is one entity and its encoded component.
type Record struct {
	ID   ecs.EntityID    `json:"id"`
	Kind ecs.Kind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Snapshot is the persisted state of a world at one simulation time.
// Scheduler queues and the RNG position are not included; pending harvest
// recoveries and caravans live in components and are rescheduled on load.
type Snapshot struct {
	Time     time.Time `json:"time"`
	Entities []Record  `json:"entities"`
}

// Capture encodes every component of w in ascending id order.
func Capture(w *ecs.World, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{Time: now.UTC(), Entities: make([]Record, 0, w.Len())}
	var err error
	w.Range(func(id ecs.EntityID, c ecs.Component) bool {
		var data []byte
		data, err = json.Marshal(c)
		if err != nil {
			err = fmt.Errorf("encode entity %d (%s): %w", id, c.Kind(), err)
			return false
		}
		snap.Entities = append(snap.Entities, Record{ID: id, Kind: c.Kind(), Data: data})
		return true
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore rebuilds a world with every entity at its original id.
func Restore(snap *Snapshot) (*ecs.World, error) {
	w := ecs.NewWorld()
	for _, r := range snap.Entities {
		factory, ok := factories[r.Kind]
		if !ok {
			return nil, fmt.Errorf("entity %d: %w: %s", r.ID, ErrUnknownKind, r.Kind)
		}
		c := factory()
		if err := json.Unmarshal(r.Data, c); err != nil {
			return nil, fmt.Errorf("decode entity %d (%s): %w", r.ID, r.Kind, err)
		}
		if err := w.Put(r.ID, c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Encode returns the canonical JSON encoding of the snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Digest hashes the canonical encoding. Equal worlds at equal times have
// equal digests.
func (s *Snapshot) Digest() (uint64, error) {
	data, err := s.Encode()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// DigestString formats a digest the way the store records it.
func DigestString(d uint64) string {
	return strconv.FormatUint(d, 16)
}
