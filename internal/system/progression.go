package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/world"
)

// ProgressionSystem awards xp and gold for kills and handles level-ups.
// It is event-driven: the work happens in the MonsterDied handler, which the
// room dispatches at the start of the tick after the kill.
type ProgressionSystem struct {
	state  *world.State
	bus    *event.Bus
	tables *data.Tables
	lua    *scripting.Engine
	cfg    config.GameplayConfig
	rng    *rand.Rand
	log    *zap.Logger
}

func NewProgressionSystem(st *world.State, bus *event.Bus, tables *data.Tables, lua *scripting.Engine, cfg config.GameplayConfig, rng *rand.Rand, log *zap.Logger) *ProgressionSystem {
	s := &ProgressionSystem{state: st, bus: bus, tables: tables, lua: lua, cfg: cfg, rng: rng, log: log}
	event.Subscribe(bus, s.onMonsterDied)
	return s
}

func (s *ProgressionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ProgressionSystem) Update(_ time.Duration) {}

func (s *ProgressionSystem) onMonsterDied(ev event.MonsterDied) {
	killer, ok := s.state.Players[ev.KillerID]
	if !ok {
		return
	}
	def := s.tables.Monsters.Get(ev.DefID)
	if def == nil {
		return
	}

	xp := int64(float64(def.XPReward) * s.cfg.ExpRate)
	if xp > 0 {
		killer.XP += xp
	}

	if def.GoldMax > 0 {
		gold := def.GoldMin
		if def.GoldMax > def.GoldMin {
			gold += s.rng.Int63n(def.GoldMax - def.GoldMin + 1)
		}
		gold = int64(float64(gold) * s.cfg.GoldRate)
		if gold > 0 {
			killer.Gold += gold
			sendTo(killer, protocol.GoldGainedMsg{Type: protocol.TypeGoldGained, Amount: gold, Total: killer.Gold})
		}
	}

	s.applyLevelUps(killer)
	killer.Dirty = true
	s.state.TouchPlayer(killer.ID)
}

// applyLevelUps consumes banked xp, possibly across several levels at once.
// Each level grants a skill point, a point in every attribute and a larger
// health pool, and restores the player to full.
func (s *ProgressionSystem) applyLevelUps(p *world.Player) {
	leveled := false
	for p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		p.SkillPoints++
		p.Strength++
		p.Dexterity++
		p.Intellect++
		p.Vitality++
		p.MaxHP += 10
		p.MaxMana += 5
		p.XPToNext = s.lua.XPForLevel(int(p.Level))
		leveled = true
		s.log.Info("player leveled up",
			zap.String("name", p.Name), zap.Int16("level", p.Level))
	}
	if !leveled {
		return
	}
	p.HP = p.MaxHP
	p.Mana = p.MaxMana
	sendTo(p, protocol.LevelUpMsg{Type: protocol.TypeLevelUp, NewLevel: p.Level})
	event.Emit(s.bus, event.PlayerLeveledUp{PlayerID: p.ID, NewLevel: p.Level})
}
