package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/medieval-sim/internal/economy"
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/engine"
	"github.com/talgya/medieval-sim/internal/events"
	"github.com/talgya/medieval-sim/internal/realm"
	"github.com/talgya/medieval-sim/internal/social"
)

func runRealm(t *testing.T, seed int64, ticks int) *engine.Engine {
	t.Helper()
	eng := engine.New(engine.Options{Seed: seed})
	require.NoError(t, engine.Load(eng, realm.NewModule(nil, realm.Options{Seed: seed})))
	require.NoError(t, eng.RunTicks(ticks))
	return eng
}

func digestOf(t *testing.T, eng *engine.Engine) uint64 {
	t.Helper()
	snap, err := Capture(eng.Context().World, eng.Context().Now())
	require.NoError(t, err)
	d, err := snap.Digest()
	require.NoError(t, err)
	return d
}

func TestIdenticalRunsHaveEqualDigests(t *testing.T) {
	a := runRealm(t, 1337, 24*14)
	b := runRealm(t, 1337, 24*14)
	assert.Equal(t, digestOf(t, a), digestOf(t, b))

	c := runRealm(t, 42, 24*14)
	assert.NotEqual(t, digestOf(t, a), digestOf(t, c))
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	eng := runRealm(t, 7, 30)
	w := eng.Context().World

	snap, err := Capture(w, eng.Context().Now())
	require.NoError(t, err)
	assert.Len(t, snap.Entities, w.Len())

	data, err := snap.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	restored, err := Restore(decoded)
	require.NoError(t, err)
	assert.Equal(t, w.Len(), restored.Len())

	again, err := Capture(restored, decoded.Time)
	require.NoError(t, err)
	want, err := snap.Digest()
	require.NoError(t, err)
	got, err := again.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, e := range ecs.All[*social.Settlement](restored) {
		orig, err := ecs.Get[*social.Settlement](w, e.ID)
		require.NoError(t, err)
		assert.Equal(t, orig, e.Component)
	}
}

// reload restores snap into a fresh engine as a restart would.
func reload(t *testing.T, snap *Snapshot, seed int64) *engine.Engine {
	t.Helper()
	w, err := Restore(snap)
	require.NoError(t, err)
	eng := engine.New(engine.Options{Seed: seed})
	eng.Context().World = w
	eng.Context().Clock.Reset(snap.Time)
	require.NoError(t, engine.Load(eng, realm.NewModule(nil, realm.Options{Seed: seed, Restored: true})))
	return eng
}

func TestRestoreResumesHarvestRecovery(t *testing.T) {
	eng := runRealm(t, 5, 24)
	ctx := eng.Context()
	all := ecs.All[*social.Settlement](ctx.World)
	require.NotEmpty(t, all)
	target := all[0]
	base := target.Component.ProductionMultiplier
	target.Component.StartHarvestFailure(realm.HarvestPenalty, ctx.Now().Add(10*24*time.Hour))

	snap, err := Capture(ctx.World, ctx.Now())
	require.NoError(t, err)
	again := reload(t, snap, 5)

	s, err := ecs.Get[*social.Settlement](again.Context().World, target.ID)
	require.NoError(t, err)
	require.True(t, s.HarvestFailing())
	assert.InDelta(t, realm.HarvestPenalty, s.ProductionMultiplier, 1e-12)

	// Next failure is at least thirty days out, so only the recovery fires.
	require.NoError(t, again.RunTicks(24*11))
	assert.False(t, s.HarvestFailing())
	assert.InDelta(t, base, s.ProductionMultiplier, 1e-12)
}

func TestRestoreResumesCaravans(t *testing.T) {
	eng := runRealm(t, 3, 25)
	ctx := eng.Context()
	settlements := ecs.All[*social.Settlement](ctx.World)
	require.NotEmpty(t, settlements)
	buyer := settlements[0]

	ledger := &economy.CaravanLedger{}
	ctx.World.Spawn(ledger)
	arrival := ctx.Now().Add(3 * time.Hour)
	ledger.Add(economy.Shipment{
		BuyerID:         buyer.ID,
		SellerFactionID: buyer.Component.FactionID,
		Units:           40,
		Payment:         12,
		Arrival:         arrival,
	})

	snap, err := Capture(ctx.World, ctx.Now())
	require.NoError(t, err)
	again := reload(t, snap, 3)
	w := again.Context().World

	restored := ecs.All[*economy.CaravanLedger](w)
	require.Len(t, restored, 1)
	require.Len(t, restored[0].Component.Pending, 1)

	s, err := ecs.Get[*social.Settlement](w, buyer.ID)
	require.NoError(t, err)
	f, err := ecs.Get[*social.Faction](w, buyer.Component.FactionID)
	require.NoError(t, err)
	granary, treasury := s.FoodStock, f.Treasury

	again.Context().Scheduler.RunDue(arrival)
	assert.InDelta(t, granary+40, s.FoodStock, 1e-9)
	assert.InDelta(t, treasury+12, f.Treasury, 1e-9)
	assert.Empty(t, restored[0].Component.Pending)
}

func TestRestoreUnknownKind(t *testing.T) {
	_, err := Restore(&Snapshot{Entities: []Record{{ID: 1, Kind: "dragon", Data: []byte(`{}`)}}})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	st, err := Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreSnapshots(t *testing.T) {
	st := openMemory(t)

	_, _, err := st.LatestSnapshot()
	require.ErrorIs(t, err, ErrNoSnapshot)

	eng := runRealm(t, 3, 10)
	var ids []string
	for range 3 {
		require.NoError(t, eng.RunTicks(24))
		snap, err := Capture(eng.Context().World, eng.Context().Now())
		require.NoError(t, err)
		info, err := st.SaveSnapshot(snap)
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}

	latest, info, err := st.LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, ids[2], info.ID)
	assert.Equal(t, eng.Context().Now(), latest.Time)
	simTime, err := info.Time()
	require.NoError(t, err)
	assert.Equal(t, latest.Time, simTime)

	d, err := latest.Digest()
	require.NoError(t, err)
	assert.Equal(t, DigestString(d), info.Digest)

	list, err := st.ListSnapshots(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)

	pruned, err := st.Prune(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	_, err = st.LoadSnapshot(ids[0])
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStoreEventsAndMeta(t *testing.T) {
	st := openMemory(t)
	at := time.Date(1200, time.March, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.SaveEvents([]events.Event{
		{Time: at, Category: events.CategoryTrade, Kind: "trade.dispatched", Entity: 5, Amount: 40, Description: "caravan"},
		{Time: at, Category: events.CategoryMarket, Kind: "price", Entity: 4, Amount: 1.08, Description: "price up"},
	}))

	all, err := st.RecentEvents("", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "price", all[0].Kind)

	trades, err := st.RecentEvents(events.CategoryTrade, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, ecs.EntityID(5), trades[0].Entity)
	assert.Equal(t, at, trades[0].Time)

	require.NoError(t, st.SaveMeta("seed", "1337"))
	v, err := st.GetMeta("seed")
	require.NoError(t, err)
	assert.Equal(t, "1337", v)
}
