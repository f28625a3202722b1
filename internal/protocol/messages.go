// Package protocol defines the JSON messages exchanged between client and
// server. Any reliable in-order transport works; the server speaks these
// over a websocket. Every message carries a "type" discriminator.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/duskspire/server/internal/sim"
)

// Client -> server message types.
const (
	TypeJoin             = "join"
	TypeInput            = "input"
	TypeChat             = "chat"
	TypeShopBuy          = "shop_buy"
	TypeShopSell         = "shop_sell"
	TypeRequestInventory = "request_inventory"
	TypeAllocateSkill    = "allocate_skill"
	TypeSetHotbar        = "set_hotbar"
	TypeRequestSkills    = "request_skills"
	TypePickup           = "pickup"
	TypeUseItem          = "use_item"
	TypeExitDungeon      = "exit_dungeon"
	TypeNextFloor        = "next_floor"
)

// Server -> client message types.
const (
	TypeWelcome         = "welcome"
	TypePatch           = "patch"
	TypeChatRelay       = "chat_relay"
	TypeDamage          = "damage"
	TypeLevelUp         = "level_up"
	TypeLootAcquired    = "loot_acquired"
	TypeInventoryFull   = "inventory_full"
	TypeGoldGained      = "gold_gained"
	TypeShopBuyOK       = "shop_buy_ok"
	TypeShopBuyFail     = "shop_buy_fail"
	TypeShopSellOK      = "shop_sell_ok"
	TypeShopSellFail    = "shop_sell_fail"
	TypeSkillsFull      = "skills_full"
	TypeSkillsUpdated   = "skills_updated"
	TypeHotbarUpdated   = "hotbar_updated"
	TypeSkillFail       = "skill_fail"
	TypeInventoryState  = "inventory_state"
	TypeFloorStarted    = "floor_started"
	TypeFloorCleared    = "floor_cleared"
	TypeDungeonComplete = "dungeon_complete"
	TypeReturnToHub     = "return_to_hub"
	TypeBossTelegraph   = "boss_telegraph"
	TypeBossPhase       = "boss_phase"
	TypePlayerDied      = "player_died"
	TypeStatusEffect    = "status_effect"
)

// MaxChatLen caps chat payloads; longer messages are dropped.
const MaxChatLen = 200

// Base is decoded first to pick the concrete message type.
type Base struct {
	Type string `json:"type"`
}

func DecodeBase(raw []byte) (Base, error) {
	var b Base
	if err := json.Unmarshal(raw, &b); err != nil {
		return Base{}, fmt.Errorf("decode message: %w", err)
	}
	if b.Type == "" {
		return Base{}, fmt.Errorf("decode message: missing type")
	}
	return b, nil
}

// ---------- client -> server ----------

type JoinMsg struct {
	Type       string `json:"type"`
	Room       string `json:"room"` // "hub" or "dungeon"
	Name       string `json:"name"`
	Class      string `json:"class,omitempty"`
	Appearance int32  `json:"appearance,omitempty"`
	DungeonID  string `json:"dungeon_id,omitempty"`
}

type InputMsg struct {
	Type  string    `json:"type"`
	Input sim.Input `json:"input"`
}

type ChatMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ShopBuyMsg struct {
	Type   string `json:"type"`
	ItemID int32  `json:"item_id"` // item definition id
}

type ShopSellMsg struct {
	Type       string `json:"type"`
	InstanceID string `json:"instance_id"`
}

type AllocateSkillMsg struct {
	Type   string `json:"type"`
	NodeID int32  `json:"node_id"`
}

type SetHotbarMsg struct {
	Type    string `json:"type"`
	Slot    int    `json:"slot"`
	SkillID int32  `json:"skill_id"`
}

type PickupMsg struct {
	Type   string `json:"type"`
	LootID uint64 `json:"loot_id"`
}

type UseItemMsg struct {
	Type   string `json:"type"`
	ItemID int32  `json:"item_id"` // item definition id
}

// ---------- server -> client ----------

type WelcomeMsg struct {
	Type      string          `json:"type"`
	PlayerID  uint64          `json:"player_id"`
	Room      string          `json:"room"`
	DungeonID string          `json:"dungeon_id,omitempty"`
	TickRate  int             `json:"tick_rate_hz"`
	Gold      int64           `json:"gold"`
	Inventory []ItemState     `json:"inventory"`
	Skills    []SkillAlloc    `json:"skills"`
	Hotbar    []HotbarBinding `json:"hotbar"`
}

/// PatchMsg carries the differential state update for one connection: the
// entities whose version changed since the connection's last patch, plus
// explicit spawn/despawn lifecycle events in per-entity order.
type PatchMsg struct {
	Type   string       `json:"type"`
	Tick   uint64       `json:"tick"`
	Events []PatchEvent `json:"events"`
}

// Patch event ops.
const (
	OpSpawn   = "spawn"
	OpUpdate  = "update"
	OpDespawn = "despawn"
)

// Entity kinds carried in patches.
const (
	KindPlayer     = "player"
	KindMonster    = "monster"
	KindLoot       = "loot"
	KindProjectile = "projectile"
)

type PatchEvent struct {
	Op   string `json:"op"`
	Kind string `json:"kind"`
	ID   uint64 `json:"id"`
	// Exactly one of the below is set for spawn/update, matching Kind.
	Player     *PlayerState     `json:"player,omitempty"`
	Monster    *MonsterState    `json:"monster,omitempty"`
	Loot       *LootState       `json:"loot,omitempty"`
	Projectile *ProjectileState `json:"projectile,omitempty"`
}

type PlayerState struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	Appearance int32   `json:"appearance"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Rotation   float64 `json:"rot"`
	HP         int32   `json:"hp"`
	MaxHP      int32   `json:"max_hp"`
	Mana       int32   `json:"mana"`
	MaxMana    int32   `json:"max_mana"`
	Strength   int16   `json:"str"`
	Dexterity  int16   `json:"dex"`
	Intellect  int16   `json:"int"`
	Vitality   int16   `json:"vit"`
	Armor      int16   `json:"armor"`
	Level      int16   `json:"level"`
	XP         int64   `json:"xp"`
	XPToNext   int64   `json:"xp_to_next"`
	SkillPts   int16   `json:"skill_points"`
	Animation  string  `json:"anim"`
	// Highest input sequence the authority has applied for this player.
	// Clients reconcile their prediction against this.
	LastProcessedInput uint32 `json:"last_input"`
}

type MonsterState struct {
	ID        uint64  `json:"id"`
	DefID     int32   `json:"def_id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Rotation  float64 `json:"rot"`
	HP        int32   `json:"hp"`
	MaxHP     int32   `json:"max_hp"`
	AIState   string  `json:"ai_state"`
	BossPhase int     `json:"boss_phase,omitempty"`
}

type LootState struct {
	ID        uint64  `json:"id"`
	ItemDefID int32   `json:"item_def_id"`
	Rarity    string  `json:"rarity"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	ExpiresAt int64   `json:"expires_at"` // unix millis
}

type ProjectileState struct {
	ID      uint64  `json:"id"`
	OwnerID uint64  `json:"owner_id"`
	Kind    string  `json:"proj_kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	VZ      float64 `json:"vz"`
}

type ChatRelayMsg struct {
	Type string `json:"type"`
	From string `json:"from"`
	Text string `json:"text"`
}

type DamageMsg struct {
	Type   string `json:"type"`
	Target uint64 `json:"target"`
	Amount int32  `json:"amount"`
	Crit   bool   `json:"crit,omitempty"`
	Dodge  bool   `json:"dodge,omitempty"`
	Heal   bool   `json:"heal,omitempty"`
	DoT    bool   `json:"dot,omitempty"`
}

type LevelUpMsg struct {
	Type     string `json:"type"`
	NewLevel int16  `json:"new_level"`
}

type ItemState struct {
	InstanceID string   `json:"instance_id"`
	ItemDefID  int32    `json:"item_def_id"`
	Rarity     string   `json:"rarity"`
	Quantity   int32    `json:"quantity"`
	Equipped   bool     `json:"equipped,omitempty"`
	Slot       string   `json:"slot,omitempty"`
	Bonuses    []string `json:"bonuses,omitempty"`
}

type LootAcquiredMsg struct {
	Type string    `json:"type"`
	Item ItemState `json:"item"`
}

type GoldGainedMsg struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Total  int64  `json:"total"`
}

// ResultMsg is the generic typed outcome for shop/skill/item operations:
// shop_buy_ok, shop_buy_fail, skill_fail and friends all share this shape.
type ResultMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Gold   int64  `json:"gold,omitempty"`
}

type InventoryStateMsg struct {
	Type  string      `json:"type"`
	Gold  int64       `json:"gold"`
	Items []ItemState `json:"items"`
}

type SkillAlloc struct {
	NodeID int32 `json:"node_id"`
	Points int16 `json:"points"`
}

type HotbarBinding struct {
	Slot    int   `json:"slot"`
	SkillID int32 `json:"skill_id"`
}

type SkillsStateMsg struct {
	Type      string          `json:"type"` // skills_full or skills_updated
	Points    int16           `json:"points"`
	Allocated []SkillAlloc    `json:"allocated"`
	Hotbar    []HotbarBinding `json:"hotbar"`
}

type FloorStartedMsg struct {
	Type        string `json:"type"`
	FloorIndex  int    `json:"floor_index"`
	TotalFloors int    `json:"total_floors"`
	Name        string `json:"name"`
	Boss        bool   `json:"boss"`
}

type BossTelegraphMsg struct {
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Radius   float64 `json:"radius"`
	Duration float64 `json:"duration_s"`
}

type BossPhaseMsg struct {
	Type      string `json:"type"`
	MonsterID uint64 `json:"monster_id"`
	Phase     int    `json:"phase"`
}

type PlayerDiedMsg struct {
	Type     string `json:"type"`
	PlayerID uint64 `json:"player_id"`
}

type StatusEffectMsg struct {
	Type     string  `json:"type"`
	Target   uint64  `json:"target"`
	Effect   string  `json:"effect"` // "bleed", "poison"
	Duration float64 `json:"duration_s"`
	Applied  bool    `json:"applied"` // false = expired
}

// Encode marshals any protocol message; it never fails for the types in
// this package, so errors are treated as programmer mistakes and dropped.
func Encode(msg any) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return b
}
