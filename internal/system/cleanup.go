package system

import (
	"time"

	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/world"
)

// CleanupSystem removes monster corpses after their death has been
// broadcast and the corpse delay has elapsed. Runs last in the tick, after
// the output phase, so clients always see the dying state before the
// despawn.
type CleanupSystem struct {
	state *world.State
}

func NewCleanupSystem(st *world.State) *CleanupSystem {
	return &CleanupSystem{state: st}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	for id, m := range s.state.Monsters {
		if m.State != world.AIDead {
			continue
		}
		m.DeathTimer -= step
		if m.DeathTimer <= 0 {
			s.state.RemoveMonster(id)
		}
	}
}
