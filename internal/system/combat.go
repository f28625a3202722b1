package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/sim"
	"github.com/duskspire/server/internal/world"
)

// Combat tuning. Chances are rolled per swing; dex feeds both sides.
const (
	meleeRange          = 2.5
	skillRange          = 3.5
	basicAttackCooldown = 1.2
	playerRespawnDelay  = 5.0
	corpseDelay         = 2.0
	dotInterval         = 1.0
)

// CombatSystem resolves the action intents recorded by the input system:
// basic attacks and hotbar skill casts. Runs after AI within PhaseUpdate.
type CombatSystem struct {
	state  *world.State
	bus    *event.Bus
	tables *data.Tables
	lua    *scripting.Engine
	rng    *rand.Rand
	log    *zap.Logger
}

func NewCombatSystem(st *world.State, bus *event.Bus, tables *data.Tables, lua *scripting.Engine, rng *rand.Rand, log *zap.Logger) *CombatSystem {
	return &CombatSystem{state: st, bus: bus, tables: tables, lua: lua, rng: rng, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CombatSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	for _, p := range s.state.Players {
		if p.AttackTimer > 0 {
			p.AttackTimer -= step
		}
		for id, cd := range p.SkillCooldowns {
			if cd <= step {
				delete(p.SkillCooldowns, id)
			} else {
				p.SkillCooldowns[id] = cd - step
			}
		}

		if p.PendingAttack {
			p.PendingAttack = false
			s.basicAttack(p)
		}
		if p.PendingSkill != 0 {
			id := p.PendingSkill
			p.PendingSkill = 0
			s.castSkill(p, id)
		}
	}
}

func (s *CombatSystem) basicAttack(p *world.Player) {
	if p.Dead || p.AttackTimer > 0 {
		return
	}
	p.AttackTimer = basicAttackCooldown
	p.Animation = "attack"
	s.state.TouchPlayer(p.ID)

	m := s.nearestMonster(p.Pos, meleeRange)
	if m == nil {
		return
	}
	s.strikeMonster(p, m, 4+int32(p.Strength)/2)
}

func (s *CombatSystem) castSkill(p *world.Player, skillID int32) {
	if p.Dead {
		return
	}
	node := s.tables.Skills.Get(skillID)
	if node == nil {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: "unknown_skill"})
		return
	}
	points := p.Allocations[skillID]
	if points < 1 || node.Passive {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: "not_allocated"})
		return
	}
	if _, cooling := p.SkillCooldowns[skillID]; cooling {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: "cooldown"})
		return
	}
	if p.Mana < node.ManaCost {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: "mana"})
		return
	}

	p.Mana -= node.ManaCost
	if node.Cooldown > 0 {
		p.SkillCooldowns[skillID] = node.Cooldown
	}
	p.Animation = "cast"
	s.state.TouchPlayer(p.ID)

	damage := node.BaseDamage + node.PerPoint*int32(points)
	if node.Projectile {
		sin, cos := math.Sin(p.Rotation), math.Cos(p.Rotation)
		s.state.AddProjectile(&world.Projectile{
			OwnerID: p.ID,
			Kind:    node.Name,
			Pos:     p.Pos,
			Vel:     mgl64.Vec3{sin * node.ProjSpeed, 0, cos * node.ProjSpeed},
			Damage:  damage,
			Life:    node.ProjLife,
		})
		return
	}

	m := s.nearestMonster(p.Pos, skillRange)
	if m == nil {
		return
	}
	s.strikeMonster(p, m, damage)
}

// strikeMonster rolls dodge and crit and applies the result.
func (s *CombatSystem) strikeMonster(p *world.Player, m *world.Monster, raw int32) {
	if s.rng.Float64() < dodgeChance(m.Def.Dexterity) {
		broadcastRoom(s.state, protocol.DamageMsg{Type: protocol.TypeDamage, Target: m.ID, Dodge: true})
		return
	}
	crit := s.rng.Float64() < critChance(p.Dexterity)
	if crit {
		raw *= 2
	}
	damageMonster(s.state, s.bus, m, p.ID, mitigate(raw, m.EffectiveArmor()), crit)
}

func (s *CombatSystem) nearestMonster(pos mgl64.Vec3, within float64) *world.Monster {
	var best *world.Monster
	bestDist := within
	for _, m := range s.state.Monsters {
		if m.State == world.AIDead {
			continue
		}
		d := sim.PlanarDistance(pos, m.Pos)
		if d <= bestDist {
			best = m
			bestDist = d
		}
	}
	return best
}

// ---------- shared combat helpers ----------

func critChance(dex int16) float64 {
	c := 0.05 + 0.004*float64(dex)
	if c > 0.40 {
		c = 0.40
	}
	return c
}

func dodgeChance(dex int16) float64 {
	c := 0.03 + 0.003*float64(dex)
	if c > 0.30 {
		c = 0.30
	}
	return c
}

// mitigate subtracts armor from a raw hit. A landed hit always deals at
// least 1 damage.
func mitigate(raw int32, armor int16) int32 {
	d := raw - int32(armor)
	if d < 1 {
		d = 1
	}
	return d
}

// damageMonster applies already-mitigated damage, advances boss phases and
// handles death. HP never goes below zero.
func damageMonster(st *world.State, bus *event.Bus, m *world.Monster, attackerID uint64, amount int32, crit bool) {
	if m.State == world.AIDead {
		return
	}
	m.HP -= amount
	if m.HP < 0 {
		m.HP = 0
	}
	st.TouchMonster(m.ID)
	broadcastRoom(st, protocol.DamageMsg{Type: protocol.TypeDamage, Target: m.ID, Amount: amount, Crit: crit})

	if m.Def.Boss && m.HP > 0 {
		advanceBossPhase(st, bus, m)
	}

	if m.HP == 0 {
		killMonster(st, bus, m, attackerID)
	}
}

// advanceBossPhase enters the deepest phase whose threshold the boss's hp
// fraction has crossed. Phases are listed in descending threshold order and
// are never left once entered.
func advanceBossPhase(st *world.State, bus *event.Bus, m *world.Monster) {
	frac := float64(m.HP) / float64(m.MaxHP)
	next := m.BossPhase
	for i := m.BossPhase + 1; i < len(m.Def.Phases); i++ {
		if frac <= m.Def.Phases[i].HPThreshold {
			next = i
		} else {
			break
		}
	}
	if next == m.BossPhase {
		return
	}
	m.BossPhase = next
	m.AbilityCooldown = 0
	st.TouchMonster(m.ID)
	event.Emit(bus, event.BossPhaseChanged{MonsterID: m.ID, Phase: next})
	broadcastRoom(st, protocol.BossPhaseMsg{Type: protocol.TypeBossPhase, MonsterID: m.ID, Phase: next})
}

func killMonster(st *world.State, bus *event.Bus, m *world.Monster, killerID uint64) {
	m.State = world.AIDead
	m.TargetID = 0
	m.DeathTimer = corpseDelay
	m.TelegraphTimer = 0
	m.Effects = nil
	st.TouchMonster(m.ID)
	event.Emit(bus, event.MonsterDied{
		MonsterID: m.ID,
		DefID:     m.Def.DefID,
		KillerID:  killerID,
		Pos:       m.Pos,
		Boss:      m.Def.Boss,
		NoRespawn: m.Def.RespawnDelay <= 0,
	})
}

// damagePlayer applies already-mitigated damage to a player and handles
// death: the corpse stays, a respawn timer starts, and the Lua death
// penalty docks xp gained inside the current level.
func damagePlayer(st *world.State, bus *event.Bus, lua *scripting.Engine, p *world.Player, amount int32, sourceID uint64, dot bool) {
	if p.Dead {
		return
	}
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
	st.TouchPlayer(p.ID)
	broadcastRoom(st, protocol.DamageMsg{Type: protocol.TypeDamage, Target: p.ID, Amount: amount, DoT: dot})

	if p.HP > 0 {
		return
	}
	p.Dead = true
	p.Animation = "dead"
	p.RespawnTimer = playerRespawnDelay
	p.Effects = nil
	p.PendingAttack = false
	p.PendingSkill = 0
	if penalty := lua.DeathXPPenalty(int(p.Level), p.XP); penalty > 0 {
		p.XP -= penalty
		p.Dirty = true
	}
	broadcastRoom(st, protocol.PlayerDiedMsg{Type: protocol.TypePlayerDied, PlayerID: p.ID})
	event.Emit(bus, event.PlayerDied{PlayerID: p.ID, KillerID: sourceID})
}

// broadcastRoom sends a message to every connected player in the room.
func broadcastRoom(st *world.State, msg any) {
	raw := protocol.Encode(msg)
	for _, p := range st.Players {
		if p.Sess != nil {
			p.Sess.Send(raw)
		}
	}
}

// sendTo sends a message to one player's connection.
func sendTo(p *world.Player, msg any) {
	if p.Sess != nil {
		p.Sess.Send(protocol.Encode(msg))
	}
}
