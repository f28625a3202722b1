package persist

import (
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/world"
)

// PlayerRow mirrors one players table row.
type PlayerRow struct {
	ID             int64
	Name           string
	Class          string
	Appearance     int32
	Level          int16
	XP             int64
	Strength       int16
	Dexterity      int16
	Intellect      int16
	Vitality       int16
	Gold           int64
	SkillPoints    int16
	StarterGranted bool
}

// Record is a player's full persisted state loaded under the per-player
// lock. All business rules run against a Record in memory; the service
// wraps load / mutate / save in one transaction so an operation either
// fully succeeds or leaves no partial effect.
type Record struct {
	Player PlayerRow
	Inv    *world.Inventory
	Allocs map[int32]int16
	Hotbar map[int]int32
}

// HotbarSlots is the number of bindable hotbar slots.
const HotbarSlots = 10

// ApplyProgress overwrites the batch-saved slice of the row with the tick
// loop's live values, so an operation's business rules run against gold and
// skill points earned since the last flush.
func (r *Record) ApplyProgress(p Progress) {
	r.Player.Level = p.Level
	r.Player.XP = p.XP
	r.Player.SkillPoints = p.SkillPoints
	r.Player.Gold = p.Gold
}

// GrantGold credits gold. Amounts are always non-negative.
func (r *Record) GrantGold(amount int64) {
	if amount > 0 {
		r.Player.Gold += amount
	}
}

// SpendGold debits gold, failing without effect if the balance is short.
// Gold never goes negative.
func (r *Record) SpendGold(amount int64) error {
	if amount > r.Player.Gold {
		return ErrInsufficientGold
	}
	r.Player.Gold -= amount
	return nil
}

// GrantItem credits an item, merging stackable kinds into an existing
// (def id, rarity) row.
func (r *Record) GrantItem(def *data.ItemDef, rarity string, quantity int32, bonuses []string) (*world.Item, error) {
	if rarity == "" {
		rarity = def.Rarity
	}
	it := r.Inv.Add(def.DefID, rarity, quantity, def.Stackable(), bonuses)
	if it == nil {
		return nil, ErrInventoryFull
	}
	return it, nil
}

// Buy debits gold and credits the item as one unit. The shop entry must
// exist; capacity and balance are checked before anything changes.
func (r *Record) Buy(def *data.ItemDef, entry *data.ShopEntry) (*world.Item, error) {
	if entry == nil {
		return nil, ErrNoStock
	}
	if r.Player.Gold < entry.BuyPrice {
		return nil, ErrInsufficientGold
	}
	if r.Inv.IsFull() && !(def.Stackable() && r.Inv.FindStack(def.DefID, def.Rarity) != nil) {
		return nil, ErrInventoryFull
	}
	r.Player.Gold -= entry.BuyPrice
	return r.Inv.Add(def.DefID, def.Rarity, 1, def.Stackable(), nil), nil
}

// Sell removes one unit of an owned, unequipped item and credits gold from
// the shop price table or the rarity-scaled default formula.
func (r *Record) Sell(instanceID string, items *data.ItemTable, shop *data.ShopTable) (credited int64, removed bool, err error) {
	it := r.Inv.FindByInstance(instanceID)
	if it == nil {
		return 0, false, ErrNotOwned
	}
	if it.Equipped {
		return 0, false, ErrEquipped
	}
	def := items.Get(it.DefID)
	if def == nil {
		return 0, false, ErrNotOwned
	}
	credited = shop.SellValue(def, it.Rarity)
	removed = r.Inv.Remove(instanceID, 1)
	r.Player.Gold += credited
	return credited, removed, nil
}

// UseItem consumes one unit of a consumable, returning its definition so
// the caller can apply the heal/mana effect in the room.
func (r *Record) UseItem(defID int32, items *data.ItemTable) (*data.ItemDef, error) {
	def := items.Get(defID)
	if def == nil {
		return nil, ErrNotOwned
	}
	if def.Kind != data.ItemKindConsumable {
		return nil, ErrNotConsumable
	}
	it := r.Inv.FindByDef(defID)
	if it == nil {
		return nil, ErrNotOwned
	}
	r.Inv.Remove(it.InstanceID, 1)
	return def, nil
}

// AllocateSkill invests one point into a node. Requires a free skill
// point, the node below its max, and every prerequisite already holding at
// least one point.
func (r *Record) AllocateSkill(node *data.SkillNode) error {
	if node == nil {
		return ErrUnknownSkill
	}
	if r.Player.SkillPoints <= 0 {
		return ErrNoSkillPoints
	}
	if r.Allocs[node.NodeID] >= node.MaxPoints {
		return ErrSkillMaxed
	}
	for _, pre := range node.Prereqs {
		if r.Allocs[pre] < 1 {
			return ErrPrereqUnmet
		}
	}
	r.Allocs[node.NodeID]++
	r.Player.SkillPoints--
	return nil
}

// BindHotbar binds an allocated, non-passive skill to a hotbar slot.
func (r *Record) BindHotbar(slot int, node *data.SkillNode) error {
	if slot < 0 || slot >= HotbarSlots {
		return ErrInvalidSlot
	}
	if node == nil {
		return ErrUnknownSkill
	}
	if r.Allocs[node.NodeID] < 1 {
		return ErrNotAllocated
	}
	if node.Passive {
		return ErrPassiveSkill
	}
	r.Hotbar[slot] = node.NodeID
	return nil
}
