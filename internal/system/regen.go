package system

import (
	"time"

	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/world"
)

// regenInterval is the wall-clock period between regeneration pulses,
// independent of the room's tick rate.
const regenInterval = 1.0

// RegenSystem restores hp and mana to living players on a fixed one-second
// pulse. Vitality speeds health recovery, intellect speeds mana.
type RegenSystem struct {
	state *world.State
	acc   float64
}

func NewRegenSystem(st *world.State) *RegenSystem {
	return &RegenSystem{state: st}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(dt time.Duration) {
	s.acc += dt.Seconds()
	if s.acc < regenInterval {
		return
	}
	s.acc -= regenInterval

	for _, p := range s.state.Players {
		if p.Dead {
			continue
		}
		changed := false
		if p.HP < p.MaxHP {
			p.HP += 1 + int32(p.Vitality)/10
			if p.HP > p.MaxHP {
				p.HP = p.MaxHP
			}
			changed = true
		}
		if p.Mana < p.MaxMana {
			p.Mana += 1 + int32(p.Intellect)/10
			if p.Mana > p.MaxMana {
				p.Mana = p.MaxMana
			}
			changed = true
		}
		if changed {
			s.state.TouchPlayer(p.ID)
		}
	}
}
