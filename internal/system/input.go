package system

import (
	"time"

	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/sim"
	"github.com/duskspire/server/internal/world"
)

// InputSystem drains each player's queued inputs in arrival order and
// applies them with the shared movement step. Malformed inputs are dropped
// silently; a per-tick cap bounds the work a flooding client can cause.
// While input is halted (post floor-clear) inputs are acknowledged but not
// applied, so clients reconcile back to the authoritative position.
type InputSystem struct {
	state      *world.State
	maxPerTick int
}

func NewInputSystem(st *world.State, maxPerTick int) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 32
	}
	return &InputSystem{state: st, maxPerTick: maxPerTick}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for _, p := range s.state.Players {
		if len(p.InputQueue) == 0 {
			continue
		}
		queue := p.InputQueue
		if len(queue) > s.maxPerTick {
			queue = queue[:s.maxPerTick]
		}

		applied := false
		var last sim.Input
		for _, in := range queue {
			if !in.Valid() || in.Seq <= p.LastProcessedInput {
				continue
			}
			p.LastProcessedInput = in.Seq
			applied = true
			if s.state.InputHalted || p.Dead {
				continue
			}
			p.Pos = sim.Step(p.Pos, in)
			p.Rotation = in.Rotation
			if in.Attack {
				p.PendingAttack = true
			}
			if in.SkillID != 0 {
				p.PendingSkill = in.SkillID
			}
			last = in
		}
		p.InputQueue = p.InputQueue[:0]

		if applied {
			if !p.Dead {
				if last.Forward || last.Backward || last.Left || last.Right {
					p.Animation = "run"
				} else {
					p.Animation = "idle"
				}
			}
			s.state.TouchPlayer(p.ID)
		}
	}
}
