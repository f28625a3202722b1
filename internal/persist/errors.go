package persist

import "errors"

// Business-rule failures. Each maps to a typed failure reply sent only to
// the originating connection; state is left untouched when one is returned.
var (
	ErrInsufficientGold = errors.New("insufficient gold")
	ErrInventoryFull    = errors.New("inventory full")
	ErrNotOwned         = errors.New("item not owned")
	ErrEquipped         = errors.New("item is equipped")
	ErrNotConsumable    = errors.New("item is not consumable")
	ErrNoStock          = errors.New("shop does not stock this item")
	ErrUnknownSkill     = errors.New("unknown skill node")
	ErrNoSkillPoints    = errors.New("no skill points available")
	ErrSkillMaxed       = errors.New("skill node already at max")
	ErrPrereqUnmet      = errors.New("prerequisite node not allocated")
	ErrNotAllocated     = errors.New("skill not allocated")
	ErrPassiveSkill     = errors.New("passive skills cannot be bound")
	ErrInvalidSlot      = errors.New("invalid hotbar slot")
)

// IsBusinessError reports whether err is a rule violation (as opposed to an
// infrastructure failure). Rule violations get a specific reason string on
// the wire; infrastructure failures get a generic one.
func IsBusinessError(err error) bool {
	for _, e := range []error{
		ErrInsufficientGold, ErrInventoryFull, ErrNotOwned, ErrEquipped,
		ErrNotConsumable, ErrNoStock, ErrUnknownSkill, ErrNoSkillPoints,
		ErrSkillMaxed, ErrPrereqUnmet, ErrNotAllocated, ErrPassiveSkill,
		ErrInvalidSlot,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
