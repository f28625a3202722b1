package room

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/world"
)

const entranceSpread = 2.0

// dungeonMode runs one dungeon instance: a linear chain of floors, each
// with its own spawn table. A floor is cleared when every non-respawning
// monster on it is dead; gameplay input then halts until the party sends
// next_floor or exit_dungeon.
type dungeonMode struct {
	r   *Room
	def *data.DungeonDef

	floor    int
	started  bool
	cleared  bool
	complete bool
}

func newDungeonMode(r *Room, def *data.DungeonDef) *dungeonMode {
	d := &dungeonMode{r: r, def: def}
	event.Subscribe(r.bus, d.onMonsterDied)
	return d
}

func (d *dungeonMode) kind() string      { return "dungeon" }
func (d *dungeonMode) dungeonID() string { return d.def.DungeonID }
func (d *dungeonMode) shopOpen() bool    { return false }

func (d *dungeonMode) onJoin(p *world.Player) {
	p.SpawnPos = mgl64.Vec3{}
	p.Pos = d.entrancePos()
	if !d.started {
		d.started = true
		d.startFloor(0)
		return
	}
	sendTo(p, d.floorStartedMsg())
}

func (d *dungeonMode) onLeave(*world.Player) {
	if len(d.r.state.Players) == 0 {
		d.r.mgr.retireDungeon(d.r)
	}
}

func (d *dungeonMode) handle(p *world.Player, msgType string, _ []byte) bool {
	switch msgType {
	case protocol.TypeNextFloor:
		if !d.cleared {
			return true
		}
		if d.complete {
			d.exitAll()
		} else {
			d.advance()
		}
		return true
	case protocol.TypeExitDungeon:
		d.exitPlayer(p)
		return true
	}
	return false
}

// onMonsterDied re-evaluates floor-clear. Fires exactly once per floor:
// the cleared flag latches until the next floor starts.
func (d *dungeonMode) onMonsterDied(ev event.MonsterDied) {
	if d.cleared || !d.started || !ev.NoRespawn {
		return
	}
	for _, m := range d.r.state.Monsters {
		if m.State != world.AIDead && m.Def.RespawnDelay <= 0 {
			return
		}
	}
	d.cleared = true
	d.r.state.InputHalted = true
	if d.floor >= len(d.def.Floors)-1 {
		d.complete = true
		d.r.broadcast(protocol.Base{Type: protocol.TypeDungeonComplete})
	} else {
		d.r.broadcast(protocol.Base{Type: protocol.TypeFloorCleared})
	}
}

func (d *dungeonMode) startFloor(i int) {
	d.floor = i
	d.cleared = false
	d.r.state.InputHalted = false

	fd := &d.def.Floors[i]
	for _, spawn := range fd.Spawns {
		def := d.r.tables.Monsters.Get(spawn.DefID)
		if def == nil {
			d.r.log.Warn("floor spawn references unknown monster",
				zap.String("dungeon", d.def.DungeonID), zap.Int32("def", spawn.DefID))
			continue
		}
		count := spawn.Count
		if count < 1 {
			count = 1
		}
		for n := 0; n < count; n++ {
			pos := mgl64.Vec3{
				spawn.X + (d.r.rng.Float64()-0.5)*2*spawn.Spread,
				0,
				spawn.Z + (d.r.rng.Float64()-0.5)*2*spawn.Spread,
			}
			d.r.state.AddMonster(world.NewMonster(def, pos, fd.Difficulty))
		}
	}
	d.r.broadcast(d.floorStartedMsg())
}

// advance tears down the current floor and starts the next one, pulling
// every player back to the entrance.
func (d *dungeonMode) advance() {
	d.teardownFloor()
	for _, p := range d.r.state.Players {
		p.Pos = d.entrancePos()
		p.InputQueue = nil
		d.r.state.TouchPlayer(p.ID)
	}
	d.startFloor(d.floor + 1)
}

// teardownFloor removes every monster, loot drop and projectile, and drops
// any re-spawns still queued for the old floor.
func (d *dungeonMode) teardownFloor() {
	d.r.respawn.Reset()
	st := d.r.state
	for id := range st.Monsters {
		st.RemoveMonster(id)
	}
	for id := range st.Loot {
		st.RemoveLoot(id)
	}
	for id := range st.Projectiles {
		st.RemoveProjectile(id)
	}
}

func (d *dungeonMode) exitAll() {
	players := make([]*world.Player, 0, len(d.r.state.Players))
	for _, p := range d.r.state.Players {
		players = append(players, p)
	}
	for _, p := range players {
		d.exitPlayer(p)
	}
}

// exitPlayer hands the player back to the hub room.
func (d *dungeonMode) exitPlayer(p *world.Player) {
	sendTo(p, protocol.Base{Type: protocol.TypeReturnToHub})
	d.r.state.RemovePlayer(p.ID)
	if p.Sess != nil {
		p.Sess.FlushOutput()
	}
	d.r.mgr.transferToHub(p)
	if len(d.r.state.Players) == 0 {
		d.r.mgr.retireDungeon(d.r)
	}
}

func (d *dungeonMode) entrancePos() mgl64.Vec3 {
	return mgl64.Vec3{
		(d.r.rng.Float64() - 0.5) * entranceSpread,
		0,
		(d.r.rng.Float64() - 0.5) * entranceSpread,
	}
}

func (d *dungeonMode) floorStartedMsg() protocol.FloorStartedMsg {
	fd := &d.def.Floors[d.floor]
	return protocol.FloorStartedMsg{
		Type:        protocol.TypeFloorStarted,
		FloorIndex:  d.floor,
		TotalFloors: len(d.def.Floors),
		Name:        fd.Name,
		Boss:        fd.Boss,
	}
}
