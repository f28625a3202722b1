package system

import "time"

// Phase defines execution ordering within a single room tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain and apply connection inputs
	PhaseUpdate                  // 1: AI, combat, projectiles, progression
	PhasePostUpdate              // 2: regen, respawn, loot expiry
	PhaseOutput                  // 3: patch broadcast + session flush
	PhasePersist                 // 4: dirty player batch save dispatch
	PhaseCleanup                 // 5: remove dead entities
)

// System is the interface every room system implements. Update runs on the
// room's tick goroutine and must never block.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
