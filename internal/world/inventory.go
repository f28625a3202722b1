package world

import "github.com/google/uuid"

// Item is one owned item instance. Stackable kinds merge by (def id,
// rarity); gear gets its own instance per drop with rolled bonuses.
type Item struct {
	InstanceID string
	DefID      int32
	Rarity     string
	Quantity   int32
	Bonuses    []string
	Equipped   bool
	Slot       string
}

// Inventory holds a player's in-memory item list.
// Accessed only from the owning room's tick goroutine or, for persistence
// operations, under the persist service's per-player lock.
type Inventory struct {
	Items    []*Item
	Capacity int
}

// NewInventory creates an empty inventory with the given slot capacity.
func NewInventory(capacity int) *Inventory {
	return &Inventory{Items: make([]*Item, 0, 16), Capacity: capacity}
}

// FindByInstance returns the item with the given instance id, or nil.
func (inv *Inventory) FindByInstance(instanceID string) *Item {
	for _, it := range inv.Items {
		if it.InstanceID == instanceID {
			return it
		}
	}
	return nil
}

// FindStack returns the stack matching (def id, rarity), or nil.
func (inv *Inventory) FindStack(defID int32, rarity string) *Item {
	for _, it := range inv.Items {
		if it.DefID == defID && it.Rarity == rarity {
			return it
		}
	}
	return nil
}

// FindByDef returns the first item with the given definition id, or nil.
func (inv *Inventory) FindByDef(defID int32) *Item {
	for _, it := range inv.Items {
		if it.DefID == defID {
			return it
		}
	}
	return nil
}

// Size returns the number of occupied slots.
func (inv *Inventory) Size() int {
	return len(inv.Items)
}

// IsFull reports whether no further slot can be occupied.
func (inv *Inventory) IsFull() bool {
	return len(inv.Items) >= inv.Capacity
}

// Add places an item into the inventory. Stackable items merge into an
// existing (def id, rarity) row; otherwise a new instance is created.
// Returns the affected item, or nil if the inventory is full.
func (inv *Inventory) Add(defID int32, rarity string, quantity int32, stackable bool, bonuses []string) *Item {
	if quantity <= 0 {
		return nil
	}
	if stackable {
		if existing := inv.FindStack(defID, rarity); existing != nil {
			existing.Quantity += quantity
			return existing
		}
	}
	if inv.IsFull() {
		return nil
	}
	it := &Item{
		InstanceID: uuid.NewString(),
		DefID:      defID,
		Rarity:     rarity,
		Quantity:   quantity,
		Bonuses:    bonuses,
	}
	inv.Items = append(inv.Items, it)
	return it
}

// Remove takes quantity from an instance, deleting the row when it reaches
// zero. Returns true if the row was fully removed, false if decremented.
// Quantities never go negative: removing more than held removes the row.
func (inv *Inventory) Remove(instanceID string, quantity int32) (removed bool) {
	for i, it := range inv.Items {
		if it.InstanceID != instanceID {
			continue
		}
		if it.Quantity > quantity {
			it.Quantity -= quantity
			return false
		}
		inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
		return true
	}
	return false
}
