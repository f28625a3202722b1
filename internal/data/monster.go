package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BossPhase is one hp-threshold tier of a boss monster. Phases are listed
// in descending threshold order; crossing a threshold downward enters the
// phase permanently.
type BossPhase struct {
	HPThreshold float64 `yaml:"hp_threshold"` // fraction of max hp, e.g. 0.66
	DamageMult  float64 `yaml:"damage_mult"`
	SpeedMult   float64 `yaml:"speed_mult"`
	ArmorMult   float64 `yaml:"armor_mult"`
	Ability     string  `yaml:"ability"` // lua ability id for this phase
}

// MonsterDef holds static data for a monster type loaded from YAML.
type MonsterDef struct {
	DefID          int32       `yaml:"def_id"`
	Name           string      `yaml:"name"`
	HP             int32       `yaml:"hp"`
	Damage         int32       `yaml:"damage"`
	Armor          int16       `yaml:"armor"`
	Dexterity      int16       `yaml:"dex"`
	Speed          float64     `yaml:"speed"`           // units/sec while chasing
	AggroRange     float64     `yaml:"aggro_range"`
	AttackRange    float64     `yaml:"attack_range"`
	AttackCooldown float64     `yaml:"attack_cooldown"` // seconds
	PatrolRadius   float64     `yaml:"patrol_radius"`   // 0 = stands idle
	RespawnDelay   float64     `yaml:"respawn_delay"`   // seconds, 0 = no respawn
	XPReward       int64       `yaml:"xp_reward"`
	GoldMin        int64       `yaml:"gold_min"`
	GoldMax        int64       `yaml:"gold_max"`
	DropTable      int32       `yaml:"drop_table"`
	Boss           bool        `yaml:"boss"`
	Phases         []BossPhase `yaml:"phases,omitempty"`

	// Optional on-hit damage-over-time effect ("bleed" or "poison").
	Effect         string  `yaml:"effect,omitempty"`
	EffectDamage   int32   `yaml:"effect_damage,omitempty"`   // per tick
	EffectDuration float64 `yaml:"effect_duration,omitempty"` // seconds
}

type monsterListFile struct {
	Monsters []MonsterDef `yaml:"monsters"`
}

// MonsterTable holds all monster definitions indexed by DefID.
type MonsterTable struct {
	defs map[int32]*MonsterDef
}

// LoadMonsterTable loads monster definitions from a YAML file.
func LoadMonsterTable(path string) (*MonsterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monster_list: %w", err)
	}
	var f monsterListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse monster_list: %w", err)
	}
	return NewMonsterTable(f.Monsters), nil
}

// NewMonsterTable builds a table from in-memory definitions.
func NewMonsterTable(defs []MonsterDef) *MonsterTable {
	t := &MonsterTable{defs: make(map[int32]*MonsterDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		t.defs[d.DefID] = d
	}
	return t
}

// Get returns a monster definition by ID, or nil if not found.
func (t *MonsterTable) Get(defID int32) *MonsterDef {
	return t.defs[defID]
}

// Count returns the number of loaded definitions.
func (t *MonsterTable) Count() int {
	return len(t.defs)
}
