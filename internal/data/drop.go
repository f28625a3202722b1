package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DropEntry represents a single possible drop from a loot table roll.
type DropEntry struct {
	ItemID int32  `yaml:"item_id"`
	Min    int32  `yaml:"min"`
	Max    int32  `yaml:"max"`
	Chance int    `yaml:"chance"` // out of 1,000,000 (100% = 1000000)
	Rarity string `yaml:"rarity,omitempty"` // override; "" = item's own rarity
}

type dropTableEntry struct {
	TableID int32       `yaml:"table_id"`
	Items   []DropEntry `yaml:"items"`
}

type dropListFile struct {
	Tables []dropTableEntry `yaml:"drops"`
}

// DropTable holds all loot tables indexed by table ID.
type DropTable struct {
	tables map[int32][]DropEntry
}

// LoadDropTable loads loot tables from a YAML file.
func LoadDropTable(path string) (*DropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drop_list: %w", err)
	}
	var f dropListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse drop_list: %w", err)
	}
	t := &DropTable{tables: make(map[int32][]DropEntry, len(f.Tables))}
	for _, entry := range f.Tables {
		t.tables[entry.TableID] = entry.Items
	}
	return t, nil
}

// NewDropTable builds a table from in-memory entries.
func NewDropTable(tables map[int32][]DropEntry) *DropTable {
	return &DropTable{tables: tables}
}

// Get returns the drop list for a table, or nil if none defined.
func (t *DropTable) Get(tableID int32) []DropEntry {
	return t.tables[tableID]
}

// Count returns the number of loot tables.
func (t *DropTable) Count() int {
	return len(t.tables)
}
