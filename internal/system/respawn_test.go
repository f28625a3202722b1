package system

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/world"
)

func TestPlayerRespawnsAtSpawnPoint(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewRespawnSystem(st, bus, zap.NewNop())

	p := &world.Player{
		Dead: true, RespawnTimer: 0.1,
		HP: 0, MaxHP: 60, Mana: 3, MaxMana: 25,
		Pos: mgl64.Vec3{30, 0, 30}, SpawnPos: mgl64.Vec3{1, 0, 1},
	}
	st.AddPlayer(p)

	s.Update(50 * time.Millisecond)
	if !p.Dead {
		t.Fatal("revived before the timer elapsed")
	}

	s.Update(100 * time.Millisecond)
	if p.Dead {
		t.Fatal("still dead after the timer")
	}
	if p.HP != 60 || p.Mana != 25 {
		t.Fatalf("revived at hp=%d mana=%d, want full", p.HP, p.Mana)
	}
	if p.Pos != (mgl64.Vec3{1, 0, 1}) {
		t.Fatalf("revived at %v, want the spawn point", p.Pos)
	}
}

func TestMonsterRespawnsAfterDelay(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewRespawnSystem(st, bus, zap.NewNop())
	cleanup := NewCleanupSystem(st)

	def := &data.MonsterDef{DefID: 5, Name: "whelp", HP: 20, RespawnDelay: 0.2}
	m := world.NewMonster(def, mgl64.Vec3{4, 0, 4}, 1.0)
	st.AddMonster(m)
	oldID := m.ID

	m.State = world.AIDead
	m.DeathTimer = corpseDelay
	event.Emit(bus, event.MonsterDied{MonsterID: m.ID, DefID: def.DefID, Pos: m.Pos})
	bus.SwapBuffers()
	bus.DispatchAll()

	// The corpse lingers while the respawn timer runs.
	for i := 0; i < 100 && len(st.Monsters) > 0; i++ {
		s.Update(50 * time.Millisecond)
		cleanup.Update(50 * time.Millisecond)
		if _, corpse := st.Monsters[oldID]; !corpse && len(st.Monsters) > 0 {
			break
		}
	}

	for i := 0; i < 100; i++ {
		s.Update(50 * time.Millisecond)
		if len(st.Monsters) > 0 {
			break
		}
	}

	var reborn *world.Monster
	for _, mm := range st.Monsters {
		if mm.ID != oldID {
			reborn = mm
		}
	}
	if reborn == nil {
		t.Fatal("monster never respawned")
	}
	if reborn.HP != 20 || reborn.State != world.AIIdle {
		t.Fatalf("respawned hp=%d state=%v", reborn.HP, reborn.State)
	}
	if reborn.Pos != (mgl64.Vec3{4, 0, 4}) {
		t.Fatalf("respawned at %v, want the spawn point", reborn.Pos)
	}
}

func TestResetDropsQueuedRespawns(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewRespawnSystem(st, bus, zap.NewNop())

	def := &data.MonsterDef{DefID: 5, Name: "whelp", HP: 20, RespawnDelay: 0.2}
	m := world.NewMonster(def, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)
	m.State = world.AIDead
	event.Emit(bus, event.MonsterDied{MonsterID: m.ID, DefID: def.DefID, Pos: m.Pos})
	bus.SwapBuffers()
	bus.DispatchAll()

	// Floor teardown: corpse removed and the queue dropped.
	s.Reset()
	st.RemoveMonster(m.ID)

	s.Update(time.Second)
	if len(st.Monsters) != 0 {
		t.Fatal("queued respawn survived the reset")
	}
}

func TestNoRespawnStaysDead(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewRespawnSystem(st, bus, zap.NewNop())

	def := &data.MonsterDef{DefID: 1, Name: "rat", HP: 10}
	m := world.NewMonster(def, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)
	m.State = world.AIDead
	event.Emit(bus, event.MonsterDied{MonsterID: m.ID, DefID: 1, NoRespawn: true})
	bus.SwapBuffers()
	bus.DispatchAll()

	for i := 0; i < 50; i++ {
		s.Update(time.Second)
	}
	if len(st.Monsters) != 1 {
		t.Fatalf("monster count = %d", len(st.Monsters))
	}
	if m.State != world.AIDead {
		t.Fatal("non-respawning monster came back")
	}
}

func TestCorpseRemovedAfterDelay(t *testing.T) {
	st := world.NewState()
	cleanup := NewCleanupSystem(st)

	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 10}, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)
	m.State = world.AIDead
	m.DeathTimer = 0.1

	cleanup.Update(50 * time.Millisecond)
	if len(st.Monsters) != 1 {
		t.Fatal("corpse removed before the delay")
	}
	cleanup.Update(100 * time.Millisecond)
	if len(st.Monsters) != 0 {
		t.Fatal("corpse survived the delay")
	}
}

func TestRegenPulses(t *testing.T) {
	st := world.NewState()
	s := NewRegenSystem(st)

	p := &world.Player{HP: 10, MaxHP: 50, Mana: 5, MaxMana: 20, Vitality: 30, Intellect: 10}
	st.AddPlayer(p)

	// 0.5s: no pulse yet.
	for i := 0; i < 10; i++ {
		s.Update(50 * time.Millisecond)
	}
	if p.HP != 10 {
		t.Fatalf("regen before the pulse: hp = %d", p.HP)
	}

	// Another 0.6s crosses the one-second mark: +1+vit/10 hp, +1+int/10 mana.
	for i := 0; i < 12; i++ {
		s.Update(50 * time.Millisecond)
	}
	if p.HP != 14 {
		t.Fatalf("hp = %d, want 14", p.HP)
	}
	if p.Mana != 7 {
		t.Fatalf("mana = %d, want 7", p.Mana)
	}
}

func TestRegenSkipsDeadAndClampsFull(t *testing.T) {
	st := world.NewState()
	s := NewRegenSystem(st)

	dead := &world.Player{Dead: true, HP: 0, MaxHP: 50}
	full := &world.Player{HP: 50, MaxHP: 50, Mana: 19, MaxMana: 20, Intellect: 100}
	st.AddPlayer(dead)
	st.AddPlayer(full)

	s.Update(1100 * time.Millisecond)
	if dead.HP != 0 {
		t.Fatal("dead player regenerated")
	}
	if full.Mana != 20 {
		t.Fatalf("mana = %d, want clamped 20", full.Mana)
	}
}
