package room

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/duskspire/server/internal/world"
)

// hubSpawnSpread scatters arrivals so players do not stack on one point.
const hubSpawnSpread = 4.0

// hubMode is the social room: slow tick, shop open, no floors. Monsters
// never spawn here, so the combat systems idle.
type hubMode struct {
	r *Room
}

func (h *hubMode) kind() string      { return "hub" }
func (h *hubMode) dungeonID() string { return "" }
func (h *hubMode) shopOpen() bool    { return true }

func (h *hubMode) onJoin(p *world.Player) {
	p.SpawnPos = mgl64.Vec3{}
	p.Pos = mgl64.Vec3{
		(h.r.rng.Float64() - 0.5) * hubSpawnSpread,
		0,
		(h.r.rng.Float64() - 0.5) * hubSpawnSpread,
	}
}

func (h *hubMode) onLeave(*world.Player) {}

func (h *hubMode) handle(*world.Player, string, []byte) bool { return false }
