package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/world"
)

// projectileHitRadius is the swept-sphere radius used for impact tests.
const projectileHitRadius = 0.6

// ProjectileSystem advances live projectiles and resolves impacts with a
// swept-sphere test against the segment travelled this tick, so a fast
// projectile cannot tunnel through a monster between ticks.
type ProjectileSystem struct {
	state *world.State
	bus   *event.Bus
}

func NewProjectileSystem(st *world.State, bus *event.Bus) *ProjectileSystem {
	return &ProjectileSystem{state: st, bus: bus}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ProjectileSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	for id, pr := range s.state.Projectiles {
		pr.Life -= step
		if pr.Life <= 0 {
			s.state.RemoveProjectile(id)
			continue
		}
		from := pr.Pos
		pr.Pos = pr.Pos.Add(pr.Vel.Mul(step))
		s.state.TouchProjectile(id)

		if hit := s.firstHit(from, pr.Pos); hit != nil {
			damageMonster(s.state, s.bus, hit, pr.OwnerID, mitigate(pr.Damage, hit.EffectiveArmor()), false)
			s.state.RemoveProjectile(id)
		}
	}
}

// firstHit returns a living monster whose position lies within the hit
// radius of the segment from..to, or nil.
func (s *ProjectileSystem) firstHit(from, to mgl64.Vec3) *world.Monster {
	for _, m := range s.state.Monsters {
		if m.State == world.AIDead {
			continue
		}
		if segmentDistancePlanar(from, to, m.Pos) <= projectileHitRadius {
			return m
		}
	}
	return nil
}

// segmentDistancePlanar is the XZ-plane distance from point p to the
// segment a..b.
func segmentDistancePlanar(a, b, p mgl64.Vec3) float64 {
	ax, az := a.X(), a.Z()
	bx, bz := b.X(), b.Z()
	px, pz := p.X(), p.Z()

	dx, dz := bx-ax, bz-az
	lenSq := dx*dx + dz*dz
	t := 0.0
	if lenSq > 0 {
		t = ((px-ax)*dx + (pz-az)*dz) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cz := ax+t*dx, az+t*dz
	ex, ez := px-cx, pz-cz
	return mgl64.Vec2{ex, ez}.Len()
}
