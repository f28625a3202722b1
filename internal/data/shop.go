package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ShopEntry prices one item in the hub shop. A missing sell price falls
// back to the rarity-scaled default formula.
type ShopEntry struct {
	ItemID    int32 `yaml:"item_id"`
	BuyPrice  int64 `yaml:"buy_price"`            // price the shop sells at
	SellPrice int64 `yaml:"sell_price,omitempty"` // price the shop buys at, 0 = formula
}

type shopListFile struct {
	Entries []ShopEntry `yaml:"shop"`
}

// ShopTable holds the hub shop stock indexed by item definition ID.
type ShopTable struct {
	entries map[int32]*ShopEntry
}

// LoadShopTable loads the shop price table from a YAML file.
func LoadShopTable(path string) (*ShopTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shop_list: %w", err)
	}
	var f shopListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse shop_list: %w", err)
	}
	return NewShopTable(f.Entries), nil
}

// NewShopTable builds a table from in-memory entries.
func NewShopTable(entries []ShopEntry) *ShopTable {
	t := &ShopTable{entries: make(map[int32]*ShopEntry, len(entries))}
	for i := range entries {
		e := &entries[i]
		t.entries[e.ItemID] = e
	}
	return t
}

// Get returns the shop entry for an item, or nil if the shop has no stock.
func (t *ShopTable) Get(itemID int32) *ShopEntry {
	return t.entries[itemID]
}

// Count returns the number of stocked items.
func (t *ShopTable) Count() int {
	return len(t.entries)
}

// SellValue returns the gold credited when selling one unit of an item.
// Shop table price wins; otherwise floor(basePrice * 0.3 * rarityMult),
// scaled by the sold instance's rolled rarity rather than the definition's
// base rarity.
func (t *ShopTable) SellValue(def *ItemDef, rarity string) int64 {
	if e := t.Get(def.DefID); e != nil && e.SellPrice > 0 {
		return e.SellPrice
	}
	if rarity == "" {
		rarity = def.Rarity
	}
	v := int64(math.Floor(float64(def.BasePrice) * 0.3 * RarityMult(rarity)))
	if v < 1 {
		v = 1
	}
	return v
}
