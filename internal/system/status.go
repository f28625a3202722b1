package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/world"
)

// StatusSystem ticks damage-over-time effects on players and monsters.
// DoT damage bypasses armor and dodge; only the application roll happened
// on the original hit.
type StatusSystem struct {
	state *world.State
	bus   *event.Bus
	lua   *scripting.Engine
	log   *zap.Logger
}

func NewStatusSystem(st *world.State, bus *event.Bus, lua *scripting.Engine, log *zap.Logger) *StatusSystem {
	return &StatusSystem{state: st, bus: bus, lua: lua, log: log}
}

func (s *StatusSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *StatusSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	for _, p := range s.state.Players {
		if p.Dead || len(p.Effects) == 0 {
			continue
		}
		p.Effects = s.tickEffects(p.Effects, step, func(e *world.StatusEffect) {
			damagePlayer(s.state, s.bus, s.lua, p, e.PerTick, e.SourceID, true)
		}, p.ID)
		if p.Dead {
			p.Effects = nil
		}
	}
	for _, m := range s.state.Monsters {
		if m.State == world.AIDead || len(m.Effects) == 0 {
			continue
		}
		m.Effects = s.tickEffects(m.Effects, step, func(e *world.StatusEffect) {
			damageMonster(s.state, s.bus, m, e.SourceID, e.PerTick, false)
		}, m.ID)
		if m.State == world.AIDead {
			m.Effects = nil
		}
	}
}

// tickEffects advances one entity's effect list, firing damage ticks and
// dropping expired entries. Returns the surviving list.
func (s *StatusSystem) tickEffects(effects []*world.StatusEffect, step float64, hit func(*world.StatusEffect), targetID uint64) []*world.StatusEffect {
	alive := effects[:0]
	for _, e := range effects {
		e.Remaining -= step
		e.TickTimer -= step
		if e.TickTimer <= 0 {
			e.TickTimer += e.Interval
			hit(e)
		}
		if e.Remaining > 0 {
			alive = append(alive, e)
			continue
		}
		broadcastRoom(s.state, protocol.StatusEffectMsg{
			Type:    protocol.TypeStatusEffect,
			Target:  targetID,
			Effect:  string(e.Kind),
			Applied: false,
		})
	}
	return alive
}
