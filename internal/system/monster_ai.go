package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/sim"
	"github.com/duskspire/server/internal/world"
)

const (
	patrolSpeedFactor = 0.6
	patrolWaitMin     = 2.0
	patrolWaitMax     = 4.0
	leashFactor       = 2.5
	arriveEpsilon     = 0.3
)

// AISystem advances the monster state machine:
//
//	idle -> patrol -> idle          (waypoint wandering)
//	idle|patrol -> chase            (player inside aggro range)
//	chase -> attack                 (target inside attack range)
//	chase|attack -> return -> idle  (target lost or leash exceeded)
//
// dead is terminal; cleanup removes the corpse. Target references are weak:
// every dereference tolerates the player being gone.
type AISystem struct {
	state *world.State
	bus   *event.Bus
	lua   *scripting.Engine
	rng   *rand.Rand
	log   *zap.Logger
}

func NewAISystem(st *world.State, bus *event.Bus, lua *scripting.Engine, rng *rand.Rand, log *zap.Logger) *AISystem {
	return &AISystem{state: st, bus: bus, lua: lua, rng: rng, log: log}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AISystem) Update(dt time.Duration) {
	step := dt.Seconds()
	for _, m := range s.state.Monsters {
		if m.State == world.AIDead {
			continue
		}
		if m.AttackTimer > 0 {
			m.AttackTimer -= step
		}
		if m.AbilityCooldown > 0 {
			m.AbilityCooldown -= step
		}
		s.resolveTelegraph(m, step)

		switch m.State {
		case world.AIIdle:
			s.tickIdle(m, step)
		case world.AIPatrol:
			s.tickPatrol(m, step)
		case world.AIChase:
			s.tickChase(m, step)
		case world.AIAttack:
			s.tickAttack(m, step)
		case world.AIReturn:
			s.tickReturn(m, step)
		}
	}
}

func (s *AISystem) tickIdle(m *world.Monster, step float64) {
	if s.tryAggro(m) {
		return
	}
	if m.Def.PatrolRadius <= 0 {
		return
	}
	m.PatrolWait -= step
	if m.PatrolWait > 0 {
		return
	}
	angle := s.rng.Float64() * 2 * math.Pi
	dist := s.rng.Float64() * m.Def.PatrolRadius
	m.PatrolTarget = mgl64.Vec3{
		m.SpawnPos.X() + math.Sin(angle)*dist,
		m.SpawnPos.Y(),
		m.SpawnPos.Z() + math.Cos(angle)*dist,
	}
	m.State = world.AIPatrol
}

func (s *AISystem) tickPatrol(m *world.Monster, step float64) {
	if s.tryAggro(m) {
		return
	}
	if s.moveToward(m, m.PatrolTarget, m.Def.Speed*patrolSpeedFactor, step) {
		m.State = world.AIIdle
		m.PatrolWait = patrolWaitMin + s.rng.Float64()*(patrolWaitMax-patrolWaitMin)
	}
}

func (s *AISystem) tickChase(m *world.Monster, step float64) {
	target := s.liveTarget(m)
	if target == nil {
		s.startReturn(m)
		return
	}
	if sim.PlanarDistance(m.Pos, m.SpawnPos) > m.Def.AggroRange*leashFactor {
		s.startReturn(m)
		return
	}
	if sim.PlanarDistance(m.Pos, target.Pos) <= m.Def.AttackRange {
		m.State = world.AIAttack
		return
	}
	s.tryBossAbility(m, target)
	s.moveToward(m, target.Pos, m.EffectiveSpeed(), step)
}

func (s *AISystem) tickAttack(m *world.Monster, step float64) {
	target := s.liveTarget(m)
	if target == nil {
		s.startReturn(m)
		return
	}
	// Slight hysteresis so a strafing target does not flap the state.
	if sim.PlanarDistance(m.Pos, target.Pos) > m.Def.AttackRange*1.2 {
		m.State = world.AIChase
		return
	}
	s.face(m, target.Pos)
	s.tryBossAbility(m, target)
	if m.AttackTimer > 0 {
		return
	}
	m.AttackTimer = m.Def.AttackCooldown
	s.strikePlayer(m, target)
}

func (s *AISystem) tickReturn(m *world.Monster, step float64) {
	if s.moveToward(m, m.SpawnPos, m.Def.Speed, step) {
		m.State = world.AIIdle
		if m.HP < m.MaxHP {
			m.HP = m.MaxHP
			s.state.TouchMonster(m.ID)
		}
	}
}

func (s *AISystem) startReturn(m *world.Monster) {
	m.TargetID = 0
	m.State = world.AIReturn
}

// tryAggro targets the nearest living player inside aggro range.
func (s *AISystem) tryAggro(m *world.Monster) bool {
	var best *world.Player
	bestDist := m.Def.AggroRange
	for _, p := range s.state.Players {
		if p.Dead {
			continue
		}
		d := sim.PlanarDistance(m.Pos, p.Pos)
		if d <= bestDist {
			best = p
			bestDist = d
		}
	}
	if best == nil {
		return false
	}
	m.TargetID = best.ID
	m.State = world.AIChase
	return true
}

// liveTarget dereferences the weak target id, retargeting the nearest
// living player if the current one is gone or dead.
func (s *AISystem) liveTarget(m *world.Monster) *world.Player {
	if p, ok := s.state.Players[m.TargetID]; ok && !p.Dead {
		return p
	}
	m.TargetID = 0
	var best *world.Player
	bestDist := m.Def.AggroRange * leashFactor
	for _, p := range s.state.Players {
		if p.Dead {
			continue
		}
		d := sim.PlanarDistance(m.Pos, p.Pos)
		if d <= bestDist {
			best = p
			bestDist = d
		}
	}
	if best != nil {
		m.TargetID = best.ID
	}
	return best
}

func (s *AISystem) strikePlayer(m *world.Monster, p *world.Player) {
	if s.rng.Float64() < dodgeChance(p.Dexterity) {
		broadcastRoom(s.state, protocol.DamageMsg{Type: protocol.TypeDamage, Target: p.ID, Dodge: true})
		return
	}
	damagePlayer(s.state, s.bus, s.lua, p, mitigate(m.EffectiveDamage(), p.Armor), m.ID, false)
	if m.Def.Effect != "" && !p.Dead {
		s.applyEffect(m, p)
	}
}

// applyEffect refreshes the monster's on-hit DoT on the target. Re-applying
// resets the duration rather than stacking.
func (s *AISystem) applyEffect(m *world.Monster, p *world.Player) {
	kind := world.StatusEffectKind(m.Def.Effect)
	for _, e := range p.Effects {
		if e.Kind == kind {
			e.Remaining = m.Def.EffectDuration
			e.SourceID = m.ID
			return
		}
	}
	p.Effects = append(p.Effects, &world.StatusEffect{
		Kind:      kind,
		PerTick:   m.Def.EffectDamage,
		Interval:  dotInterval,
		TickTimer: dotInterval,
		Remaining: m.Def.EffectDuration,
		SourceID:  m.ID,
	})
	broadcastRoom(s.state, protocol.StatusEffectMsg{
		Type:     protocol.TypeStatusEffect,
		Target:   p.ID,
		Effect:   string(kind),
		Duration: m.Def.EffectDuration,
		Applied:  true,
	})
}

// tryBossAbility starts the current phase's telegraphed area attack when
// its cooldown is ready. The impact lands where the target stood at cast
// time; players dodge by moving out during the windup.
func (s *AISystem) tryBossAbility(m *world.Monster, target *world.Player) {
	phase := m.CurrentPhase()
	if phase == nil || phase.Ability == "" {
		return
	}
	if m.AbilityCooldown > 0 || m.TelegraphTimer > 0 {
		return
	}
	ability := s.lua.GetBossAbility(phase.Ability)
	if ability == nil {
		s.log.Warn("unknown boss ability", zap.String("ability", phase.Ability))
		m.AbilityCooldown = 10
		return
	}
	m.TelegraphTimer = ability.Windup
	m.TelegraphPos = target.Pos
	m.TelegraphRadius = ability.Radius
	m.TelegraphDamage = int32(float64(m.EffectiveDamage()) * ability.DamageMult)
	m.AbilityCooldown = ability.Cooldown
	broadcastRoom(s.state, protocol.BossTelegraphMsg{
		Type:     protocol.TypeBossTelegraph,
		X:        m.TelegraphPos.X(),
		Z:        m.TelegraphPos.Z(),
		Radius:   ability.Radius,
		Duration: ability.Windup,
	})
}

// resolveTelegraph lands a pending area attack when its windup elapses.
func (s *AISystem) resolveTelegraph(m *world.Monster, step float64) {
	if m.TelegraphTimer <= 0 {
		return
	}
	m.TelegraphTimer -= step
	if m.TelegraphTimer > 0 {
		return
	}
	m.TelegraphTimer = 0
	for _, p := range s.state.Players {
		if p.Dead {
			continue
		}
		if sim.PlanarDistance(p.Pos, m.TelegraphPos) <= m.TelegraphRadius {
			damagePlayer(s.state, s.bus, s.lua, p, mitigate(m.TelegraphDamage, p.Armor), m.ID, false)
		}
	}
}

// moveToward advances the monster toward a point, returning true on
// arrival. Movement is planar; monsters hold their spawn height.
func (s *AISystem) moveToward(m *world.Monster, target mgl64.Vec3, speed, step float64) bool {
	dx := target.X() - m.Pos.X()
	dz := target.Z() - m.Pos.Z()
	dist := math.Sqrt(dx*dx + dz*dz)
	if dist <= arriveEpsilon {
		return true
	}
	travel := speed * step
	if travel >= dist {
		m.Pos = mgl64.Vec3{target.X(), m.Pos.Y(), target.Z()}
	} else {
		m.Pos = mgl64.Vec3{m.Pos.X() + dx/dist*travel, m.Pos.Y(), m.Pos.Z() + dz/dist*travel}
	}
	m.Rotation = math.Atan2(dx, dz)
	s.state.TouchMonster(m.ID)
	return false
}

func (s *AISystem) face(m *world.Monster, target mgl64.Vec3) {
	dx := target.X() - m.Pos.X()
	dz := target.Z() - m.Pos.Z()
	if dx == 0 && dz == 0 {
		return
	}
	rot := math.Atan2(dx, dz)
	if rot != m.Rotation {
		m.Rotation = rot
		s.state.TouchMonster(m.ID)
	}
}
