package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/net"
	"github.com/duskspire/server/internal/sim"
)

// AIState is the monster state machine tag.
type AIState string

const (
	AIIdle   AIState = "idle"
	AIPatrol AIState = "patrol"
	AIChase  AIState = "chase"
	AIAttack AIState = "attack"
	AIReturn AIState = "return"
	AIDead   AIState = "dead" // terminal
)

// StatusEffectKind identifies a damage-over-time effect.
type StatusEffectKind string

const (
	EffectBleed  StatusEffectKind = "bleed"
	EffectPoison StatusEffectKind = "poison"
)

// StatusEffect is a running DoT on a player or monster. It ticks on a fixed
// interval independent of the attack that applied it.
type StatusEffect struct {
	Kind      StatusEffectKind
	PerTick   int32
	Interval  float64 // seconds between ticks
	TickTimer float64 // counts down to next tick
	Remaining float64 // seconds until expiry
	SourceID  uint64  // attacker entity id, weak reference
}

// Player is the authoritative in-room player entity. Mutated only by the
// room's tick loop; everything broadcast to clients lives here. Gold and
// inventory are session-private and sent only to the owning connection.
type Player struct {
	ID        uint64
	PersistID int64  // players table row
	SessionID uint64 // owning connection
	Sess      *net.Session

	Name       string
	Class      string
	Appearance int32

	Pos      mgl64.Vec3
	SpawnPos mgl64.Vec3
	Rotation float64

	HP, MaxHP     int32
	Mana, MaxMana int32
	Strength      int16
	Dexterity     int16
	Intellect     int16
	Vitality      int16
	Armor         int16
	Level         int16
	XP, XPToNext  int64
	SkillPoints   int16

	Animation          string
	LastProcessedInput uint32
	Dead               bool

	Gold      int64
	Inventory *Inventory

	Allocations map[int32]int16 // skill node -> points
	Hotbar      map[int]int32   // slot -> skill id

	AttackTimer    float64 // seconds until next basic attack allowed
	SkillCooldowns map[int32]float64
	Effects        []*StatusEffect
	RespawnTimer   float64 // counts down while dead

	// InputQueue is appended by the room's message dispatch and drained by
	// the input system, both on the tick goroutine.
	InputQueue []sim.Input

	// Action intents recorded by the input system, consumed by combat.
	PendingAttack bool
	PendingSkill  int32

	// Dirty marks the player for the next batch persistence flush.
	Dirty bool
}

// Monster is the authoritative monster entity. TargetID is a weak reference
// into the player map; every dereference must tolerate "not found".
type Monster struct {
	ID   uint64
	Def  *data.MonsterDef
	Name string

	Pos      mgl64.Vec3
	SpawnPos mgl64.Vec3
	Rotation float64

	HP, MaxHP int32
	State     AIState
	TargetID  uint64

	AttackTimer     float64
	AbilityCooldown float64
	PatrolTarget    mgl64.Vec3
	PatrolWait      float64

	// DeathTimer is the corpse delay before cleanup removes the entity.
	DeathTimer float64

	// Difficulty is the floor multiplier baked in at spawn time.
	Difficulty float64

	BossPhase int // index into Def.Phases; -1 before the first threshold

	// Pending telegraphed area attack. Resolves when TelegraphTimer hits 0.
	TelegraphTimer  float64
	TelegraphPos    mgl64.Vec3
	TelegraphRadius float64
	TelegraphDamage int32

	Effects []*StatusEffect
}

// Loot is a dropped item waiting on the ground.
type Loot struct {
	ID        uint64
	ItemDefID int32
	Rarity    string
	Quantity  int32
	Pos       mgl64.Vec3
	ExpiresAt time.Time
}

// Projectile is a live skill/attack projectile.
type Projectile struct {
	ID      uint64
	OwnerID uint64 // weak reference
	Kind    string
	Pos     mgl64.Vec3
	Vel     mgl64.Vec3
	Damage  int32
	Life    float64 // seconds remaining
}

// NewMonster builds a monster at a spawn point. The floor difficulty
// multiplier is baked into max hp here; damage and armor apply it live.
func NewMonster(def *data.MonsterDef, pos mgl64.Vec3, difficulty float64) *Monster {
	hp := def.HP
	if difficulty > 0 {
		hp = int32(float64(hp) * difficulty)
	}
	if hp < 1 {
		hp = 1
	}
	return &Monster{
		Def:        def,
		Name:       def.Name,
		Pos:        pos,
		SpawnPos:   pos,
		HP:         hp,
		MaxHP:      hp,
		State:      AIIdle,
		Difficulty: difficulty,
		BossPhase:  -1,
	}
}

// EffectiveDamage returns the monster's hit damage including floor
// difficulty and the current boss phase multiplier.
func (m *Monster) EffectiveDamage() int32 {
	d := float64(m.Def.Damage)
	if m.Difficulty > 0 {
		d *= m.Difficulty
	}
	if p := m.CurrentPhase(); p != nil && p.DamageMult > 0 {
		d *= p.DamageMult
	}
	return int32(d)
}

// EffectiveSpeed returns chase speed including the boss phase multiplier.
func (m *Monster) EffectiveSpeed() float64 {
	s := m.Def.Speed
	if p := m.CurrentPhase(); p != nil && p.SpeedMult > 0 {
		s *= p.SpeedMult
	}
	return s
}

// EffectiveArmor returns armor including the boss phase multiplier.
func (m *Monster) EffectiveArmor() int16 {
	a := float64(m.Def.Armor)
	if p := m.CurrentPhase(); p != nil && p.ArmorMult > 0 {
		a *= p.ArmorMult
	}
	return int16(a)
}

// CurrentPhase returns the active boss phase definition, or nil.
func (m *Monster) CurrentPhase() *data.BossPhase {
	if !m.Def.Boss || m.BossPhase < 0 || m.BossPhase >= len(m.Def.Phases) {
		return nil
	}
	return &m.Def.Phases[m.BossPhase]
}
