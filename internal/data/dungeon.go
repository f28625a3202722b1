package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry defines one monster spawn on a dungeon floor.
type SpawnEntry struct {
	DefID  int32   `yaml:"def_id"`
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Count  int     `yaml:"count"`
	Spread float64 `yaml:"spread,omitempty"` // random placement radius
}

// FloorDef is one floor of a dungeon. Floors form a linear chain; the exit
// edge of floor N leads to floor N+1.
type FloorDef struct {
	Name   string       `yaml:"name"`
	Boss   bool         `yaml:"boss"`
	Spawns []SpawnEntry `yaml:"spawns"`
	// Difficulty multiplier applied to monster hp/damage on this floor.
	Difficulty float64 `yaml:"difficulty,omitempty"`
}

// DungeonDef is the room graph for one dungeon type.
type DungeonDef struct {
	DungeonID string     `yaml:"dungeon_id"`
	Name      string     `yaml:"name"`
	Floors    []FloorDef `yaml:"floors"`
}

type dungeonListFile struct {
	Dungeons []DungeonDef `yaml:"dungeons"`
}

// DungeonTable holds all dungeon definitions indexed by dungeon ID.
type DungeonTable struct {
	defs map[string]*DungeonDef
}

// LoadDungeonTable loads dungeon definitions from a YAML file.
func LoadDungeonTable(path string) (*DungeonTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dungeon_list: %w", err)
	}
	var f dungeonListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse dungeon_list: %w", err)
	}
	return NewDungeonTable(f.Dungeons), nil
}

// NewDungeonTable builds a table from in-memory definitions.
func NewDungeonTable(defs []DungeonDef) *DungeonTable {
	t := &DungeonTable{defs: make(map[string]*DungeonDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		t.defs[d.DungeonID] = d
	}
	return t
}

// Get returns a dungeon definition by ID, or nil if not found.
func (t *DungeonTable) Get(dungeonID string) *DungeonDef {
	return t.defs[dungeonID]
}

// Default returns an arbitrary dungeon when the client names none.
func (t *DungeonTable) Default() *DungeonDef {
	for _, d := range t.defs {
		return d
	}
	return nil
}

// Count returns the number of loaded dungeons.
func (t *DungeonTable) Count() int {
	return len(t.defs)
}
