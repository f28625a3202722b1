package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Item kinds. Materials and consumables stack; gear does not.
const (
	ItemKindWeapon     = "weapon"
	ItemKindArmor      = "armor"
	ItemKindMaterial   = "material"
	ItemKindConsumable = "consumable"
)

// Rarity tiers, in ascending order.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// ItemDef holds static data for an item type loaded from YAML.
type ItemDef struct {
	DefID    int32  `yaml:"def_id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Rarity   string `yaml:"rarity"`
	Slot     string `yaml:"slot,omitempty"` // equip slot for gear
	Damage   int32  `yaml:"damage,omitempty"`
	Armor    int16  `yaml:"armor,omitempty"`
	HealHP   int32  `yaml:"heal_hp,omitempty"`   // consumables
	HealMana int32  `yaml:"heal_mana,omitempty"` // consumables
	BasePrice int64 `yaml:"base_price"`
}

// Stackable reports whether pickups of this item merge into one inventory
// row keyed by (def id, rarity) instead of creating new instances.
func (d *ItemDef) Stackable() bool {
	return d.Kind == ItemKindMaterial || d.Kind == ItemKindConsumable
}

type itemListFile struct {
	Items []ItemDef `yaml:"items"`
}

// ItemTable holds all item definitions indexed by DefID.
type ItemTable struct {
	defs map[int32]*ItemDef
}

// LoadItemTable loads item definitions from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	return NewItemTable(f.Items), nil
}

// NewItemTable builds a table from in-memory definitions.
func NewItemTable(defs []ItemDef) *ItemTable {
	t := &ItemTable{defs: make(map[int32]*ItemDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		t.defs[d.DefID] = d
	}
	return t
}

// Get returns an item definition by ID, or nil if not found.
func (t *ItemTable) Get(defID int32) *ItemDef {
	return t.defs[defID]
}

// Count returns the number of loaded definitions.
func (t *ItemTable) Count() int {
	return len(t.defs)
}

// RarityMult returns the sell-price multiplier for a rarity tier. Used for
// the default rarity-scaled sell formula when an item has no shop entry.
func RarityMult(rarity string) float64 {
	switch rarity {
	case RarityUncommon:
		return 1.5
	case RarityRare:
		return 2.5
	case RarityEpic:
		return 4.0
	case RarityLegendary:
		return 8.0
	default:
		return 1.0
	}
}
