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

func TestDoTTicksOnInterval(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewStatusSystem(st, bus, testLua(t), zap.NewNop())

	p := &world.Player{HP: 50, MaxHP: 50}
	st.AddPlayer(p)
	p.Effects = []*world.StatusEffect{{
		Kind: world.EffectBleed, PerTick: 2,
		Interval: dotInterval, TickTimer: 0.95, Remaining: 3.0,
	}}

	// Ten 100ms steps cross the tick boundary exactly once.
	for i := 0; i < 10; i++ {
		s.Update(100 * time.Millisecond)
	}
	if p.HP != 48 {
		t.Fatalf("hp = %d, want 48 after one bleed tick", p.HP)
	}

	for i := 0; i < 10; i++ {
		s.Update(100 * time.Millisecond)
	}
	if p.HP != 46 {
		t.Fatalf("hp = %d, want 46 after two bleed ticks", p.HP)
	}
}

func TestDoTExpires(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewStatusSystem(st, bus, testLua(t), zap.NewNop())

	p := &world.Player{HP: 50, MaxHP: 50}
	st.AddPlayer(p)
	p.Effects = []*world.StatusEffect{{
		Kind: world.EffectPoison, PerTick: 1,
		Interval: dotInterval, TickTimer: dotInterval, Remaining: 0.05,
	}}

	s.Update(100 * time.Millisecond)
	if len(p.Effects) != 0 {
		t.Fatalf("effect survived expiry: %d remaining", len(p.Effects))
	}
}

func TestDoTBypassesArmor(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewStatusSystem(st, bus, testLua(t), zap.NewNop())

	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 50, Armor: 40}, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)
	m.Effects = []*world.StatusEffect{{
		Kind: world.EffectBleed, PerTick: 5,
		Interval: dotInterval, TickTimer: 0.01, Remaining: 3.0,
	}}

	s.Update(100 * time.Millisecond)
	if m.HP != 45 {
		t.Fatalf("hp = %d, want 45 (armor must not reduce the dot)", m.HP)
	}
}

func TestDoTDeathClearsEffects(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewStatusSystem(st, bus, testLua(t), zap.NewNop())

	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 3}, mgl64.Vec3{}, 1.0)
	st.AddMonster(m)
	m.Effects = []*world.StatusEffect{{
		Kind: world.EffectPoison, PerTick: 5,
		Interval: dotInterval, TickTimer: 0.01, Remaining: 10.0,
	}}

	s.Update(100 * time.Millisecond)
	if m.State != world.AIDead {
		t.Fatal("lethal dot tick did not kill")
	}
	if m.Effects != nil {
		t.Fatal("effects survived death")
	}
}

func TestProjectileSweptHit(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewProjectileSystem(st, bus)

	// Fast projectile crosses straight through the monster in one tick.
	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 50}, mgl64.Vec3{0, 0, 5}, 1.0)
	st.AddMonster(m)
	st.AddProjectile(&world.Projectile{
		Pos: mgl64.Vec3{}, Vel: mgl64.Vec3{0, 0, 100}, Damage: 10, Life: 1.0,
	})

	s.Update(100 * time.Millisecond) // travels 10 units, passes z=5
	if m.HP != 40 {
		t.Fatalf("hp = %d, want 40 (swept hit must not tunnel)", m.HP)
	}
	if len(st.Projectiles) != 0 {
		t.Fatal("projectile survived its impact")
	}
}

func TestProjectileExpiresWithoutHit(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewProjectileSystem(st, bus)

	st.AddProjectile(&world.Projectile{Vel: mgl64.Vec3{0, 0, 10}, Damage: 10, Life: 0.05})
	s.Update(100 * time.Millisecond)
	if len(st.Projectiles) != 0 {
		t.Fatal("projectile outlived its lifetime")
	}
}

func TestProjectileMissesOffAxis(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	s := NewProjectileSystem(st, bus)

	m := world.NewMonster(&data.MonsterDef{DefID: 1, HP: 50}, mgl64.Vec3{5, 0, 5}, 1.0)
	st.AddMonster(m)
	st.AddProjectile(&world.Projectile{Vel: mgl64.Vec3{0, 0, 100}, Damage: 10, Life: 1.0})

	s.Update(100 * time.Millisecond)
	if m.HP != 50 {
		t.Fatalf("off-axis projectile hit: hp = %d", m.HP)
	}
	if len(st.Projectiles) != 1 {
		t.Fatal("missing projectile should keep flying")
	}
}

func TestSegmentDistancePlanar(t *testing.T) {
	a := mgl64.Vec3{0, 0, 0}
	b := mgl64.Vec3{0, 0, 10}
	tests := []struct {
		name string
		p    mgl64.Vec3
		want float64
	}{
		{"on segment", mgl64.Vec3{0, 0, 5}, 0},
		{"beside segment", mgl64.Vec3{2, 0, 5}, 2},
		{"past the end", mgl64.Vec3{0, 0, 13}, 3},
		{"before the start", mgl64.Vec3{0, 0, -4}, 4},
		{"height ignored", mgl64.Vec3{0, 9, 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentDistancePlanar(a, b, tt.p)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("distance = %v, want %v", got, tt.want)
			}
		})
	}
}
