package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/world"
)

// LootSystem rolls drop tables on monster death and expires ground loot
// that nobody picked up.
type LootSystem struct {
	state  *world.State
	tables *data.Tables
	lua    *scripting.Engine
	cfg    config.GameplayConfig
	rng    *rand.Rand
	log    *zap.Logger
}

func NewLootSystem(st *world.State, bus *event.Bus, tables *data.Tables, lua *scripting.Engine, cfg config.GameplayConfig, rng *rand.Rand, log *zap.Logger) *LootSystem {
	s := &LootSystem{state: st, tables: tables, lua: lua, cfg: cfg, rng: rng, log: log}
	event.Subscribe(bus, s.onMonsterDied)
	return s
}

func (s *LootSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *LootSystem) Update(_ time.Duration) {
	now := time.Now()
	for id, l := range s.state.Loot {
		if now.After(l.ExpiresAt) {
			s.state.RemoveLoot(id)
		}
	}
}

func (s *LootSystem) onMonsterDied(ev event.MonsterDied) {
	def := s.tables.Monsters.Get(ev.DefID)
	if def == nil || def.DropTable == 0 {
		return
	}
	entries := s.tables.Drops.Get(def.DropTable)
	for _, entry := range entries {
		chance := float64(entry.Chance) * s.cfg.DropRate
		if float64(s.rng.Intn(1_000_000)) >= chance {
			continue
		}
		itemDef := s.tables.Items.Get(entry.ItemID)
		if itemDef == nil {
			s.log.Warn("drop table references unknown item",
				zap.Int32("table", def.DropTable), zap.Int32("item", entry.ItemID))
			continue
		}
		qty := entry.Min
		if entry.Max > entry.Min {
			qty += s.rng.Int31n(entry.Max - entry.Min + 1)
		}
		if qty < 1 {
			qty = 1
		}
		rarity := entry.Rarity
		if rarity == "" {
			rarity = itemDef.Rarity
		}
		s.state.AddLoot(&world.Loot{
			ItemDefID: entry.ItemID,
			Rarity:    rarity,
			Quantity:  qty,
			Pos:       ev.Pos,
			ExpiresAt: time.Now().Add(s.cfg.LootExpiry),
		})
	}
}
