// Package scripting hosts the gopher-lua VM that owns the tunable game
// formulas: the xp curve, the death penalty, boss phase abilities and loot
// bonus rolls. Keeping these in Lua lets designers retune without a server
// rebuild.
package scripting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed scripts/*.lua
var defaultScripts embed.FS

// Engine wraps a single gopher-lua VM. Single-goroutine access only: each
// room owns its own Engine, created on the room's tick goroutine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine. The embedded default scripts always load;
// when scriptDir is non-empty, .lua files found there load afterwards and
// may override any global.
func NewEngine(scriptDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	entries, err := defaultScripts.ReadDir("scripts")
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("read embedded scripts: %w", err)
	}
	for _, entry := range entries {
		src, err := defaultScripts.ReadFile("scripts/" + entry.Name())
		if err != nil {
			vm.Close()
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if err := vm.DoString(string(src)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}

	if scriptDir != "" {
		if err := e.loadDir(scriptDir); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, overriding embedded globals.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua override", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// XPForLevel returns the total xp required to advance from the given level
// to the next one.
func (e *Engine) XPForLevel(level int) int64 {
	fn := e.vm.GetGlobal("xp_for_level")
	if fn == lua.LNil {
		e.log.Error("lua function xp_for_level not found")
		return 100
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(level)); err != nil {
		e.log.Error("xp_for_level failed", zap.Error(err))
		return 100
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return int64(n)
	}
	return 100
}

// DeathXPPenalty returns the xp to subtract when a player dies. Never more
// than the xp held inside the current level.
func (e *Engine) DeathXPPenalty(level int, xpIntoLevel int64) int64 {
	fn := e.vm.GetGlobal("death_xp_penalty")
	if fn == lua.LNil {
		return 0
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(level), lua.LNumber(xpIntoLevel)); err != nil {
		e.log.Error("death_xp_penalty failed", zap.Error(err))
		return 0
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0
	}
	penalty := int64(n)
	if penalty < 0 {
		penalty = 0
	}
	if penalty > xpIntoLevel {
		penalty = xpIntoLevel
	}
	return penalty
}

// BossAbility describes one telegraphed boss area attack.
type BossAbility struct {
	Radius     float64
	Windup     float64 // seconds between telegraph and impact
	DamageMult float64 // applied to the boss's effective damage
	Cooldown   float64 // seconds between casts
}

// GetBossAbility resolves a phase ability id to its parameters, or nil when
// the id is unknown.
func (e *Engine) GetBossAbility(ability string) *BossAbility {
	if ability == "" {
		return nil
	}
	fn := e.vm.GetGlobal("boss_ability")
	if fn == lua.LNil {
		e.log.Error("lua function boss_ability not found")
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(ability)); err != nil {
		e.log.Error("boss_ability failed", zap.Error(err))
		return nil
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	t, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	ab := &BossAbility{
		Radius:     float64(lua.LVAsNumber(t.RawGetString("radius"))),
		Windup:     float64(lua.LVAsNumber(t.RawGetString("windup"))),
		DamageMult: float64(lua.LVAsNumber(t.RawGetString("damage_mult"))),
		Cooldown:   float64(lua.LVAsNumber(t.RawGetString("cooldown"))),
	}
	if ab.Radius <= 0 || ab.Windup <= 0 {
		return nil
	}
	if ab.DamageMult <= 0 {
		ab.DamageMult = 1
	}
	if ab.Cooldown <= 0 {
		ab.Cooldown = 8
	}
	return ab
}

// RollLootBonuses rolls the bonus stat lines for a dropped piece of gear.
// roll is a uniform [0,1) value supplied by the caller so the room's RNG
// stays the single source of randomness.
func (e *Engine) RollLootBonuses(rarity string, roll float64) []string {
	fn := e.vm.GetGlobal("roll_loot_bonuses")
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(rarity), lua.LNumber(roll)); err != nil {
		e.log.Error("roll_loot_bonuses failed", zap.Error(err))
		return nil
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	t, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	var bonuses []string
	t.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			bonuses = append(bonuses, string(s))
		}
	})
	return bonuses
}
