package room

import (
	"testing"

	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/world"
)

func TestPlayerOpsRunInSequence(t *testing.T) {
	r, _, p, _ := testDungeon(t)

	var order []string
	r.enqueueOp(p, func(*world.Player) { order = append(order, "first") })
	r.enqueueOp(p, func(*world.Player) { order = append(order, "second") })
	r.enqueueOp(p, func(*world.Player) { order = append(order, "third") })

	if len(order) != 1 {
		t.Fatalf("started %v with the first op still in flight", order)
	}
	r.opDone(p.SessionID)
	r.opDone(p.SessionID)
	if len(order) != 3 || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v", order)
	}
	r.opDone(p.SessionID)
	if r.opBusy[p.SessionID] {
		t.Fatal("chain still busy after draining")
	}
}

func TestQueuedOpSeesMirroredGold(t *testing.T) {
	r, _, p, _ := testDungeon(t)
	p.Gold = 50

	var captured []int64
	capture := func(p *world.Player) { captured = append(captured, liveProgress(p).Gold) }
	r.enqueueOp(p, capture)
	r.enqueueOp(p, capture)

	// The first op's callback mirrors its 50-gold debit before the chain
	// releases the second op; a stale capture here would let two purchases
	// each spend the same 50.
	p.Gold = 0
	r.opDone(p.SessionID)

	if len(captured) != 2 || captured[0] != 50 || captured[1] != 0 {
		t.Fatalf("captured gold = %v, want [50 0]", captured)
	}
}

func TestQueuedOpsDroppedWhenPlayerLeaves(t *testing.T) {
	r, _, p, _ := testDungeon(t)

	ran := false
	r.enqueueOp(p, func(*world.Player) {})
	r.enqueueOp(p, func(*world.Player) { ran = true })

	r.state.RemovePlayer(p.ID)
	r.opDone(p.SessionID)
	if ran {
		t.Fatal("queued op ran for a departed player")
	}
	if r.opBusy[p.SessionID] || len(r.opQueue[p.SessionID]) != 0 {
		t.Fatal("chain state not cleared for a departed player")
	}
}

func TestRoomInboxSizedFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Network.InQueueSize = 8
	mgr := &Manager{
		cfg:       cfg,
		tables:    testTables(),
		log:       zap.NewNop(),
		bySession: make(map[uint64]*Room),
		dungeons:  make(map[string]*Room),
		online:    make(map[string]uint64),
	}
	r, err := newRoom("hub", cfg.Simulation.HubTick, 2, mgr, zap.NewNop())
	if err != nil {
		t.Fatalf("newRoom: %v", err)
	}
	t.Cleanup(func() { r.lua.Close() })

	if cap(r.inbox) != 8 {
		t.Fatalf("inbox cap = %d, want 8", cap(r.inbox))
	}
}
