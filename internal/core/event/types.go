package event

import "github.com/go-gl/mathgl/mgl64"

// Room-scoped gameplay events. Emitted during a tick, dispatched at the
// start of the next tick by the room runner.

type PlayerDied struct {
	PlayerID uint64
	KillerID uint64
}

type MonsterDied struct {
	MonsterID uint64
	DefID     int32
	KillerID  uint64 // player entity id, 0 if environmental
	Pos       mgl64.Vec3
	Boss      bool
	// NoRespawn marks kills that count toward floor-clear.
	NoRespawn bool
}

type BossPhaseChanged struct {
	MonsterID uint64
	Phase     int
}

type PlayerLeveledUp struct {
	PlayerID uint64
	NewLevel int16
}
