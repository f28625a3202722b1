package system

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/net"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/world"
)

func drainPatches(t *testing.T, sess *net.Session) []protocol.PatchMsg {
	t.Helper()
	var patches []protocol.PatchMsg
	for {
		select {
		case raw := <-sess.OutQueue:
			base, err := protocol.DecodeBase(raw)
			if err != nil || base.Type != protocol.TypePatch {
				continue
			}
			var patch protocol.PatchMsg
			if err := json.Unmarshal(raw, &patch); err != nil {
				t.Fatalf("bad patch: %v", err)
			}
			patches = append(patches, patch)
		default:
			return patches
		}
	}
}

func TestBroadcastCadence(t *testing.T) {
	st := world.NewState()
	s := NewBroadcastSystem(st, 2)

	sess := net.NewLocalSession(1, zap.NewNop())
	p := &world.Player{Name: "w", SessionID: 1, Sess: sess}
	st.AddPlayer(p)

	// Tick 1: changes accumulate but patchEvery=2 withholds them.
	s.Update(50 * time.Millisecond)
	if got := drainPatches(t, sess); len(got) != 0 {
		t.Fatalf("patch before the cadence tick: %d", len(got))
	}

	// Tick 2: the spawn goes out.
	s.Update(50 * time.Millisecond)
	patches := drainPatches(t, sess)
	if len(patches) != 1 {
		t.Fatalf("patch count = %d, want 1", len(patches))
	}
	if len(patches[0].Events) != 1 || patches[0].Events[0].Op != protocol.OpSpawn {
		t.Fatalf("events = %+v", patches[0].Events)
	}
	if patches[0].Events[0].Player == nil || patches[0].Events[0].Player.Name != "w" {
		t.Fatal("spawn event missing the player snapshot")
	}

	// Quiet window: no patch at all.
	s.Update(50 * time.Millisecond)
	s.Update(50 * time.Millisecond)
	if got := drainPatches(t, sess); len(got) != 0 {
		t.Fatalf("patch with no changes: %d", len(got))
	}
}

func TestBroadcastCollapsesWindow(t *testing.T) {
	st := world.NewState()
	s := NewBroadcastSystem(st, 2)

	sess := net.NewLocalSession(1, zap.NewNop())
	viewer := &world.Player{Name: "v", SessionID: 1, Sess: sess}
	st.AddPlayer(viewer)
	s.Update(50 * time.Millisecond)
	s.Update(50 * time.Millisecond)
	drainPatches(t, sess)

	other := &world.Player{Name: "o"}
	st.AddPlayer(other)
	st.TouchPlayer(other.ID)
	st.TouchPlayer(other.ID)
	s.Update(50 * time.Millisecond)
	s.Update(50 * time.Millisecond)

	patches := drainPatches(t, sess)
	if len(patches) != 1 {
		t.Fatalf("patch count = %d, want 1", len(patches))
	}
	// Spawn and the two updates collapse to a single spawn event carrying
	// the final state.
	if len(patches[0].Events) != 1 || patches[0].Events[0].Op != protocol.OpSpawn {
		t.Fatalf("events = %+v", patches[0].Events)
	}
}

func TestSnapshotForLateJoiner(t *testing.T) {
	st := world.NewState()
	s := NewBroadcastSystem(st, 1)

	sess := net.NewLocalSession(1, zap.NewNop())
	early := &world.Player{Name: "early", SessionID: 1, Sess: sess}
	st.AddPlayer(early)
	for i := 0; i < 3; i++ {
		st.AddMonster(world.NewMonster(&data.MonsterDef{DefID: 1, HP: 10}, mgl64.Vec3{}, 1.0))
	}
	s.Update(50 * time.Millisecond)
	drainPatches(t, sess)

	// Spawned after the drain: pending, so the next patch announces it and
	// the snapshot must not.
	st.AddMonster(world.NewMonster(&data.MonsterDef{DefID: 2, HP: 10}, mgl64.Vec3{}, 1.0))

	late := net.NewLocalSession(2, zap.NewNop())
	joiner := &world.Player{Name: "late", SessionID: 2, Sess: late}
	st.AddPlayer(joiner)
	SendSnapshot(st, joiner)
	late.FlushOutput()

	patches := drainPatches(t, late)
	if len(patches) != 1 {
		t.Fatalf("snapshot patch count = %d, want 1", len(patches))
	}
	var monsters, players int
	for _, ev := range patches[0].Events {
		if ev.Op != protocol.OpSpawn {
			t.Fatalf("snapshot carried op %q", ev.Op)
		}
		switch {
		case ev.Monster != nil:
			if ev.Monster.DefID == 2 {
				t.Fatal("snapshot announced a still-pending spawn")
			}
			monsters++
		case ev.Player != nil:
			if ev.ID == joiner.ID {
				t.Fatal("snapshot announced the joiner to itself")
			}
			players++
		}
	}
	if monsters != 3 || players != 1 {
		t.Fatalf("snapshot carried %d monsters and %d players, want 3 and 1", monsters, players)
	}
}

func TestBroadcastSpawnDespawnSameWindow(t *testing.T) {
	st := world.NewState()
	s := NewBroadcastSystem(st, 1)

	sess := net.NewLocalSession(1, zap.NewNop())
	viewer := &world.Player{Name: "v", SessionID: 1, Sess: sess}
	st.AddPlayer(viewer)
	s.Update(50 * time.Millisecond)
	drainPatches(t, sess)

	// A projectile that lives and dies inside one patch window: the client
	// sees only the despawn, never a spawn without state.
	pr := &world.Projectile{Life: 0.01}
	st.AddProjectile(pr)
	st.RemoveProjectile(pr.ID)
	s.Update(50 * time.Millisecond)

	patches := drainPatches(t, sess)
	if len(patches) != 1 {
		t.Fatalf("patch count = %d, want 1", len(patches))
	}
	evs := patches[0].Events
	if len(evs) != 1 || evs[0].Op != protocol.OpDespawn || evs[0].Kind != protocol.KindProjectile {
		t.Fatalf("events = %+v", evs)
	}
}
