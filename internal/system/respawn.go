package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/world"
)

type pendingRespawn struct {
	def        *data.MonsterDef
	pos        mgl64.Vec3
	difficulty float64
	timer      float64
}

// RespawnSystem revives dead players after their timer and re-spawns
// monsters whose definition carries a respawn delay. Floor monsters in
// dungeons have no delay and stay dead; that is what floor-clear counts.
type RespawnSystem struct {
	state   *world.State
	log     *zap.Logger
	pending []pendingRespawn
}

func NewRespawnSystem(st *world.State, bus *event.Bus, log *zap.Logger) *RespawnSystem {
	s := &RespawnSystem{state: st, log: log}
	event.Subscribe(bus, s.onMonsterDied)
	return s
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Reset drops every queued re-spawn. Called on floor teardown so a monster
// killed on the old floor cannot reappear on the new one.
func (s *RespawnSystem) Reset() {
	s.pending = s.pending[:0]
}

func (s *RespawnSystem) Update(dt time.Duration) {
	step := dt.Seconds()

	for _, p := range s.state.Players {
		if !p.Dead {
			continue
		}
		p.RespawnTimer -= step
		if p.RespawnTimer > 0 {
			continue
		}
		p.Dead = false
		p.HP = p.MaxHP
		p.Mana = p.MaxMana
		p.Pos = p.SpawnPos
		p.Animation = "idle"
		s.state.TouchPlayer(p.ID)
	}

	alive := s.pending[:0]
	for i := range s.pending {
		r := &s.pending[i]
		r.timer -= step
		if r.timer > 0 {
			alive = append(alive, *r)
			continue
		}
		s.state.AddMonster(world.NewMonster(r.def, r.pos, r.difficulty))
	}
	s.pending = alive
}

// onMonsterDied queues a re-spawn for monsters with a respawn delay. The
// dead monster is still in the map when the event dispatches; cleanup only
// removes it after the corpse delay.
func (s *RespawnSystem) onMonsterDied(ev event.MonsterDied) {
	if ev.NoRespawn {
		return
	}
	m, ok := s.state.Monsters[ev.MonsterID]
	if !ok {
		return
	}
	s.pending = append(s.pending, pendingRespawn{
		def:        m.Def,
		pos:        m.SpawnPos,
		difficulty: m.Difficulty,
		timer:      m.Def.RespawnDelay,
	})
}
