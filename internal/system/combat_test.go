package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/world"
)

func testLua(t *testing.T) *scripting.Engine {
	t.Helper()
	e, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestMitigate(t *testing.T) {
	tests := []struct {
		raw   int32
		armor int16
		want  int32
	}{
		{10, 3, 7},
		{10, 0, 10},
		{5, 5, 1},
		{5, 50, 1},
	}
	for _, tt := range tests {
		if got := mitigate(tt.raw, tt.armor); got != tt.want {
			t.Fatalf("mitigate(%d, %d) = %d, want %d", tt.raw, tt.armor, got, tt.want)
		}
	}
}

func TestChanceCaps(t *testing.T) {
	if got := critChance(0); got != 0.05 {
		t.Fatalf("base crit = %v", got)
	}
	if got := critChance(1000); got != 0.40 {
		t.Fatalf("crit cap = %v", got)
	}
	if got := dodgeChance(0); got != 0.03 {
		t.Fatalf("base dodge = %v", got)
	}
	if got := dodgeChance(1000); got != 0.30 {
		t.Fatalf("dodge cap = %v", got)
	}
}

func TestDamageMonsterKillsExactlyOnce(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	def := &data.MonsterDef{DefID: 1, Name: "rat", HP: 10}
	m := world.NewMonster(def, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)

	var deaths int
	event.Subscribe(bus, func(event.MonsterDied) { deaths++ })

	damageMonster(st, bus, m, 5, 10, false)
	if m.State != world.AIDead {
		t.Fatalf("state = %v, want dead", m.State)
	}
	if m.HP != 0 {
		t.Fatalf("hp = %d, want 0", m.HP)
	}

	// Hitting the corpse again must be a no-op.
	damageMonster(st, bus, m, 5, 10, false)

	bus.SwapBuffers()
	bus.DispatchAll()
	if deaths != 1 {
		t.Fatalf("MonsterDied fired %d times, want 1", deaths)
	}
}

func TestDamageMonsterClampsHP(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 10}, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)

	damageMonster(st, bus, m, 0, 9999, false)
	if m.HP != 0 {
		t.Fatalf("hp = %d, want 0", m.HP)
	}
}

func TestAdvanceBossPhaseMonotonic(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	def := &data.MonsterDef{
		DefID: 10, HP: 100, Damage: 20, Boss: true,
		Phases: []data.BossPhase{
			{HPThreshold: 0.66, DamageMult: 1.2, Ability: "slam"},
			{HPThreshold: 0.33, DamageMult: 1.5, Ability: "shockwave"},
			{HPThreshold: 0.10, DamageMult: 2.0, Ability: "eruption"},
		},
	}
	m := world.NewMonster(def, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)

	if m.BossPhase != -1 {
		t.Fatalf("initial phase = %d, want -1", m.BossPhase)
	}

	damageMonster(st, bus, m, 0, 30, false) // 70% hp, above first threshold
	if m.BossPhase != -1 {
		t.Fatalf("phase entered early: %d", m.BossPhase)
	}

	damageMonster(st, bus, m, 0, 10, false) // 60%
	if m.BossPhase != 0 {
		t.Fatalf("phase = %d, want 0", m.BossPhase)
	}

	// A single large hit may cross two thresholds at once.
	damageMonster(st, bus, m, 0, 55, false) // 5%
	if m.BossPhase != 2 {
		t.Fatalf("phase = %d, want 2", m.BossPhase)
	}

	if m.EffectiveDamage() != int32(float64(def.Damage)*2.0) {
		t.Fatalf("phase damage multiplier not applied")
	}
}

func TestDamagePlayerDeath(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	lua := testLua(t)

	p := &world.Player{Name: "v", HP: 10, MaxHP: 50, Level: 10, XP: 500, XPToNext: 3000}
	st.AddPlayer(p)

	var deaths int
	event.Subscribe(bus, func(event.PlayerDied) { deaths++ })

	damagePlayer(st, bus, lua, p, 9999, 3, false)
	if !p.Dead {
		t.Fatal("player survived lethal hit")
	}
	if p.HP != 0 {
		t.Fatalf("hp = %d, want 0", p.HP)
	}
	if p.RespawnTimer != playerRespawnDelay {
		t.Fatalf("respawn timer = %v", p.RespawnTimer)
	}
	// 10% of xp gained inside the level, level >= 5.
	if p.XP != 450 {
		t.Fatalf("xp after death = %d, want 450", p.XP)
	}
	if p.Level != 10 {
		t.Fatalf("level changed on death: %d", p.Level)
	}

	// A dead player takes no further damage.
	damagePlayer(st, bus, lua, p, 100, 3, false)

	bus.SwapBuffers()
	bus.DispatchAll()
	if deaths != 1 {
		t.Fatalf("PlayerDied fired %d times, want 1", deaths)
	}
}

func TestDamagePlayerNoPenaltyAtLowLevel(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	lua := testLua(t)

	p := &world.Player{HP: 1, MaxHP: 50, Level: 3, XP: 200, XPToNext: 500}
	st.AddPlayer(p)

	damagePlayer(st, bus, lua, p, 10, 0, false)
	if p.XP != 200 {
		t.Fatalf("low-level death docked xp: %d", p.XP)
	}
}
