package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/core/event"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/world"
)

func testTables() *data.Tables {
	return &data.Tables{
		Monsters: data.NewMonsterTable([]data.MonsterDef{
			{DefID: 1, Name: "rat", HP: 10, XPReward: 12, GoldMin: 2, GoldMax: 2, DropTable: 1},
			{DefID: 2, Name: "bare", HP: 10},
		}),
		Items: data.NewItemTable([]data.ItemDef{
			{DefID: 50, Name: "pelt", Kind: data.ItemKindMaterial, Rarity: data.RarityCommon, BasePrice: 4},
		}),
		Skills:   data.NewSkillTable(nil),
		Shop:     data.NewShopTable(nil),
		Drops:    data.NewDropTable(map[int32][]data.DropEntry{1: {{ItemID: 50, Min: 1, Max: 3, Chance: 1_000_000}}}),
		Dungeons: data.NewDungeonTable(nil),
	}
}

func TestLootDropsOnKill(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	cfg := config.Defaults().Gameplay
	rng := rand.New(rand.NewSource(1))

	s := NewLootSystem(st, bus, testTables(), testLua(t), cfg, rng, zap.NewNop())
	_ = s

	event.Emit(bus, event.MonsterDied{MonsterID: 1, DefID: 1, KillerID: 0, Pos: mgl64.Vec3{3, 0, 4}})
	bus.SwapBuffers()
	bus.DispatchAll()

	if len(st.Loot) != 1 {
		t.Fatalf("loot count = %d, want 1 (drop chance is 100%%)", len(st.Loot))
	}
	for _, l := range st.Loot {
		if l.ItemDefID != 50 {
			t.Fatalf("dropped item %d", l.ItemDefID)
		}
		if l.Quantity < 1 || l.Quantity > 3 {
			t.Fatalf("quantity %d outside [1,3]", l.Quantity)
		}
		if l.Pos != (mgl64.Vec3{3, 0, 4}) {
			t.Fatalf("loot at %v, want kill position", l.Pos)
		}
	}
}

func TestLootNoTableNoDrop(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	rng := rand.New(rand.NewSource(1))
	NewLootSystem(st, bus, testTables(), testLua(t), config.Defaults().Gameplay, rng, zap.NewNop())

	event.Emit(bus, event.MonsterDied{MonsterID: 2, DefID: 2})
	bus.SwapBuffers()
	bus.DispatchAll()

	if len(st.Loot) != 0 {
		t.Fatalf("loot from a monster without a drop table: %d", len(st.Loot))
	}
}

func TestLootExpiry(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	rng := rand.New(rand.NewSource(1))
	s := NewLootSystem(st, bus, testTables(), testLua(t), config.Defaults().Gameplay, rng, zap.NewNop())

	st.AddLoot(&world.Loot{ItemDefID: 50, Quantity: 1, ExpiresAt: time.Now().Add(-time.Second)})
	st.AddLoot(&world.Loot{ItemDefID: 50, Quantity: 1, ExpiresAt: time.Now().Add(time.Hour)})

	s.Update(50 * time.Millisecond)
	if len(st.Loot) != 1 {
		t.Fatalf("loot count after expiry = %d, want 1", len(st.Loot))
	}
}

func TestProgressionAwardsAndLevels(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	lua := testLua(t)
	cfg := config.Defaults().Gameplay
	rng := rand.New(rand.NewSource(1))

	tables := &data.Tables{
		Monsters: data.NewMonsterTable([]data.MonsterDef{
			{DefID: 1, Name: "rat", HP: 10, XPReward: 250, GoldMin: 5, GoldMax: 5},
		}),
	}
	NewProgressionSystem(st, bus, tables, lua, cfg, rng, zap.NewNop())

	p := &world.Player{
		Name: "k", Level: 1, XP: 0, XPToNext: lua.XPForLevel(1),
		HP: 10, MaxHP: 50, Mana: 5, MaxMana: 20,
		Strength: 5, Dexterity: 5, Intellect: 5, Vitality: 5,
	}
	st.AddPlayer(p)

	event.Emit(bus, event.MonsterDied{MonsterID: 7, DefID: 1, KillerID: p.ID})
	bus.SwapBuffers()
	bus.DispatchAll()

	// 250 xp over the 100 needed for level 1: one level, 150 banked toward
	// the next (which costs floor(100 * 2^1.5) = 282).
	if p.Level != 2 {
		t.Fatalf("level = %d, want 2", p.Level)
	}
	if p.XP != 150 {
		t.Fatalf("banked xp = %d, want 150", p.XP)
	}
	if p.XPToNext != 282 {
		t.Fatalf("xp to next = %d, want 282", p.XPToNext)
	}
	if p.SkillPoints != 1 {
		t.Fatalf("skill points = %d, want 1", p.SkillPoints)
	}
	if p.Strength != 6 || p.Vitality != 6 {
		t.Fatalf("attributes not granted: str=%d vit=%d", p.Strength, p.Vitality)
	}
	if p.HP != p.MaxHP || p.Mana != p.MaxMana {
		t.Fatal("level-up did not restore to full")
	}
	if p.Gold != 5 {
		t.Fatalf("gold = %d, want 5", p.Gold)
	}
	if !p.Dirty {
		t.Fatal("kill rewards did not mark the player dirty")
	}
}

func TestProgressionIgnoresUnknownKiller(t *testing.T) {
	st := world.NewState()
	bus := event.NewBus()
	tables := &data.Tables{Monsters: data.NewMonsterTable(nil)}
	NewProgressionSystem(st, bus, tables, testLua(t), config.Defaults().Gameplay, rand.New(rand.NewSource(1)), zap.NewNop())

	event.Emit(bus, event.MonsterDied{MonsterID: 7, DefID: 1, KillerID: 99})
	bus.SwapBuffers()
	bus.DispatchAll()
}
