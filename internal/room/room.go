// Package room owns the per-room tick goroutines and routes connection
// messages into them. Each room holds its own entity state, event bus and
// system runner; no entity is ever touched from two goroutines.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/core/event"
	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/net"
	"github.com/duskspire/server/internal/persist"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/scripting"
	"github.com/duskspire/server/internal/sim"
	"github.com/duskspire/server/internal/system"
	"github.com/duskspire/server/internal/world"
)

const (
	inboxSize     = 1024
	pickupRange   = 3.0
	inputQueueCap = 256
	opTimeout     = 5 * time.Second
)

// roomMode is the hub/dungeon behavior split. All methods run on the
// room's tick goroutine.
type roomMode interface {
	kind() string
	dungeonID() string
	shopOpen() bool
	onJoin(p *world.Player)
	onLeave(p *world.Player)
	// handle consumes mode-specific messages; false means unhandled.
	handle(p *world.Player, msgType string, raw []byte) bool
}

// Room is one simulated space: the hub or a dungeon instance. All mutable
// state belongs to the tick goroutine; other goroutines reach it only by
// posting closures to the inbox, which drains at tick boundaries.
type Room struct {
	id     string
	cfg    *config.Config
	tables *data.Tables
	svc    *persist.Service
	mgr    *Manager
	log    *zap.Logger

	state   *world.State
	bus     *event.Bus
	runner  *coresys.Runner
	lua     *scripting.Engine
	rng     *rand.Rand
	mode    roomMode
	respawn *system.RespawnSystem

	tickInterval time.Duration
	inbox        chan func()
	stopCh       chan struct{}
	stopOnce     sync.Once
	done         chan struct{}

	// Per-session chains for ops that flush live progress. Only one such op
	// may be in flight per player, or the next op's progress capture could
	// rewrite gold the previous op already debited.
	opQueue map[uint64][]func(*world.Player)
	opBusy  map[uint64]bool
}

func newRoom(id string, tick time.Duration, patchEvery int, mgr *Manager, log *zap.Logger) (*Room, error) {
	lua, err := scripting.NewEngine(mgr.cfg.Server.ScriptDir, log)
	if err != nil {
		return nil, err
	}
	queue := mgr.cfg.Network.InQueueSize
	if queue < 1 {
		queue = inboxSize
	}
	r := &Room{
		id:           id,
		cfg:          mgr.cfg,
		tables:       mgr.tables,
		svc:          mgr.svc,
		mgr:          mgr,
		log:          log,
		state:        world.NewState(),
		bus:          event.NewBus(),
		runner:       coresys.NewRunner(),
		lua:          lua,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		tickInterval: tick,
		inbox:        make(chan func(), queue),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		opQueue:      make(map[uint64][]func(*world.Player)),
		opBusy:       make(map[uint64]bool),
	}

	simCfg := mgr.cfg.Simulation
	r.runner.Register(system.NewInputSystem(r.state, simCfg.MaxInputsPerTick))
	r.runner.Register(system.NewAISystem(r.state, r.bus, r.lua, r.rng, log))
	r.runner.Register(system.NewCombatSystem(r.state, r.bus, r.tables, r.lua, r.rng, log))
	r.runner.Register(system.NewStatusSystem(r.state, r.bus, r.lua, log))
	r.runner.Register(system.NewProjectileSystem(r.state, r.bus))
	r.runner.Register(system.NewProgressionSystem(r.state, r.bus, r.tables, r.lua, mgr.cfg.Gameplay, r.rng, log))
	r.runner.Register(system.NewLootSystem(r.state, r.bus, r.tables, r.lua, mgr.cfg.Gameplay, r.rng, log))
	r.respawn = system.NewRespawnSystem(r.state, r.bus, log)
	r.runner.Register(r.respawn)
	r.runner.Register(system.NewRegenSystem(r.state))
	r.runner.Register(system.NewBroadcastSystem(r.state, patchEvery))
	r.runner.Register(system.NewPersistSystem(r.state, r.svc, simCfg.PersistInterval, log))
	r.runner.Register(system.NewCleanupSystem(r.state))
	return r, nil
}

// run is the room's tick loop. Inbox closures execute only at tick
// boundaries, then last tick's events dispatch, then the systems run.
func (r *Room) run() {
	defer close(r.done)
	defer r.lua.Close()
	defer r.finalFlush()

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-r.stopCh:
			return
		case now := <-ticker.C:
			r.drainInbox()
			dt := now.Sub(last)
			last = now
			r.bus.SwapBuffers()
			r.bus.DispatchAll()
			r.runner.Tick(dt)
		}
	}
}

func (r *Room) drainInbox() {
	for {
		select {
		case fn := <-r.inbox:
			fn()
		default:
			return
		}
	}
}

// post schedules a closure for the next tick boundary. Drops with a log
// line if the room is hopelessly backed up.
func (r *Room) post(fn func()) {
	select {
	case r.inbox <- fn:
	default:
		r.log.Warn("room inbox full, dropping command", zap.String("room", r.id))
	}
}

func (r *Room) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// async runs fn off the tick goroutine and posts its continuation back.
func (r *Room) async(fn func() func()) {
	go func() {
		if cb := fn(); cb != nil {
			r.post(cb)
		}
	}()
}

// enqueueOp serializes progress-flushing persistence ops for one player.
// The op runs immediately if the chain is idle; otherwise it waits for the
// in-flight op's callback, so its progress capture sees the mirrored
// result. Runs on the tick goroutine.
func (r *Room) enqueueOp(p *world.Player, op func(*world.Player)) {
	sid := p.SessionID
	if r.opBusy[sid] {
		r.opQueue[sid] = append(r.opQueue[sid], op)
		return
	}
	r.opBusy[sid] = true
	op(p)
}

// opDone runs on the tick goroutine after an op's callback and starts the
// next queued op for the session, if any.
func (r *Room) opDone(sid uint64) {
	q := r.opQueue[sid]
	if len(q) == 0 {
		delete(r.opBusy, sid)
		return
	}
	next := q[0]
	if q = q[1:]; len(q) == 0 {
		delete(r.opQueue, sid)
	} else {
		r.opQueue[sid] = q
	}
	p := r.state.PlayerBySession(sid)
	if p == nil {
		delete(r.opQueue, sid)
		delete(r.opBusy, sid)
		return
	}
	next(p)
}

// finalFlush saves every remaining player's progress before the room goes
// away. Runs on the tick goroutine as it exits.
func (r *Room) finalFlush() {
	if r.svc == nil {
		return
	}
	for _, p := range r.state.Players {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		if err := r.svc.SaveProgress(ctx, p.PersistID, liveProgress(p)); err != nil {
			r.log.Error("final save failed", zap.Int64("player", p.PersistID), zap.Error(err))
		}
		cancel()
	}
}

func liveProgress(p *world.Player) persist.Progress {
	return persist.Progress{
		Level:       p.Level,
		XP:          p.XP,
		SkillPoints: p.SkillPoints,
		Gold:        p.Gold,
	}
}

// addPlayer builds the live entity from the persisted record and announces
// it. Runs on the tick goroutine.
func (r *Room) addPlayer(sess *net.Session, rec *persist.Record) {
	p := playerFromRecord(rec)
	p.Sess = sess
	p.SessionID = sess.ID
	p.XPToNext = r.lua.XPForLevel(int(p.Level))
	r.state.AddPlayer(p)

	sendTo(p, r.welcome(p, rec.Inv))
	system.SendSnapshot(r.state, p)
	r.mode.onJoin(p)
	r.log.Info("player joined room",
		zap.String("room", r.id), zap.String("name", p.Name), zap.Uint64("entity", p.ID))
}

// adoptPlayer re-homes a player transferred from another room.
func (r *Room) adoptPlayer(p *world.Player) {
	p.Pos = p.SpawnPos
	p.Rotation = 0
	p.Effects = nil
	p.InputQueue = nil
	p.PendingAttack = false
	p.PendingSkill = 0
	p.Dead = false
	if p.HP < 1 {
		p.HP = p.MaxHP
	}
	r.state.AddPlayer(p)
	sendTo(p, r.welcome(p, p.Inventory))
	system.SendSnapshot(r.state, p)
	r.mode.onJoin(p)
	// The carried inventory snapshot may be stale; refresh it.
	r.handleRequestInventory(p)
}

func (r *Room) welcome(p *world.Player, inv *world.Inventory) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:      protocol.TypeWelcome,
		PlayerID:  p.ID,
		Room:      r.mode.kind(),
		DungeonID: r.mode.dungeonID(),
		TickRate:  int(time.Second / r.tickInterval),
		Gold:      p.Gold,
		Inventory: itemStates(inv),
		Skills:    skillAllocs(p.Allocations),
		Hotbar:    hotbarBindings(p.Hotbar),
	}
}

// removeSession handles a disconnect: flush progress, drop the entity.
func (r *Room) removeSession(sessionID uint64) {
	p := r.state.PlayerBySession(sessionID)
	if p == nil {
		return
	}
	if r.svc != nil {
		id, prog := p.PersistID, liveProgress(p)
		r.async(func() func() {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := r.svc.SaveProgress(ctx, id, prog); err != nil {
				r.log.Error("leave save failed", zap.Int64("player", id), zap.Error(err))
			}
			return nil
		})
	}
	r.state.RemovePlayer(p.ID)
	delete(r.opQueue, sessionID)
	delete(r.opBusy, sessionID)
	r.mode.onLeave(p)
}

// dispatch routes one decoded message for a joined player. Runs on the
// tick goroutine.
func (r *Room) dispatch(sess *net.Session, raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return
	}
	p := r.state.PlayerBySession(sess.ID)
	if p == nil {
		return
	}

	switch base.Type {
	case protocol.TypeInput:
		r.handleInput(p, raw)
	case protocol.TypeChat:
		r.handleChat(p, raw)
	case protocol.TypeShopBuy:
		r.handleShopBuy(p, raw)
	case protocol.TypeShopSell:
		r.handleShopSell(p, raw)
	case protocol.TypeRequestInventory:
		r.handleRequestInventory(p)
	case protocol.TypeAllocateSkill:
		r.handleAllocateSkill(p, raw)
	case protocol.TypeSetHotbar:
		r.handleSetHotbar(p, raw)
	case protocol.TypeRequestSkills:
		sendTo(p, skillsState(protocol.TypeSkillsFull, p))
	case protocol.TypePickup:
		r.handlePickup(p, raw)
	case protocol.TypeUseItem:
		r.handleUseItem(p, raw)
	default:
		if !r.mode.handle(p, base.Type, raw) {
			r.log.Debug("unhandled message type", zap.String("type", base.Type))
		}
	}
}

func (r *Room) handleInput(p *world.Player, raw []byte) {
	var msg protocol.InputMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if len(p.InputQueue) >= inputQueueCap {
		return
	}
	p.InputQueue = append(p.InputQueue, msg.Input)
}

func (r *Room) handleChat(p *world.Player, raw []byte) {
	var msg protocol.ChatMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Text == "" || len(msg.Text) > protocol.MaxChatLen {
		return
	}
	r.broadcast(protocol.ChatRelayMsg{Type: protocol.TypeChatRelay, From: p.Name, Text: msg.Text})
}

func (r *Room) handleShopBuy(p *world.Player, raw []byte) {
	var msg protocol.ShopBuyMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !r.mode.shopOpen() {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopBuyFail, Reason: "no_shop"})
		return
	}
	r.enqueueOp(p, func(p *world.Player) { r.startBuy(p, msg.ItemID) })
}

// startBuy captures live progress for the combined flush-and-buy. Reached
// only through the per-player op chain, so the capture always reflects the
// previous op's mirrored result; the callback then mirrors the delta, which
// stays correct even if more gold lands while the op is in flight.
func (r *Room) startBuy(p *world.Player, itemID int32) {
	pid, sid := p.PersistID, p.SessionID
	prog := liveProgress(p)
	p.Dirty = false
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := r.svc.Buy(ctx, pid, prog, itemID)
		return func() {
			defer r.opDone(sid)
			p := r.state.PlayerBySession(sid)
			if p == nil {
				return
			}
			if err != nil {
				p.Dirty = true
				sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopBuyFail, Reason: failReason(err)})
				return
			}
			p.Gold += res.Gold - prog.Gold
			sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopBuyOK, Gold: p.Gold})
			sendTo(p, protocol.LootAcquiredMsg{Type: protocol.TypeLootAcquired, Item: itemState(res.Item)})
		}
	})
}

func (r *Room) handleShopSell(p *world.Player, raw []byte) {
	var msg protocol.ShopSellMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !r.mode.shopOpen() {
		sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopSellFail, Reason: "no_shop"})
		return
	}
	r.enqueueOp(p, func(p *world.Player) { r.startSell(p, msg.InstanceID) })
}

func (r *Room) startSell(p *world.Player, instanceID string) {
	pid, sid := p.PersistID, p.SessionID
	prog := liveProgress(p)
	p.Dirty = false
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := r.svc.Sell(ctx, pid, prog, instanceID)
		return func() {
			defer r.opDone(sid)
			p := r.state.PlayerBySession(sid)
			if p == nil {
				return
			}
			if err != nil {
				p.Dirty = true
				sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopSellFail, Reason: failReason(err)})
				return
			}
			p.Gold += res.Gold - prog.Gold
			sendTo(p, protocol.ResultMsg{Type: protocol.TypeShopSellOK, Gold: p.Gold})
		}
	})
}

func (r *Room) handleRequestInventory(p *world.Player) {
	if r.svc == nil {
		return
	}
	pid, sid := p.PersistID, p.SessionID
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		gold, items, err := r.svc.Inventory(ctx, pid)
		return func() {
			p := r.state.PlayerBySession(sid)
			if p == nil || err != nil {
				return
			}
			states := make([]protocol.ItemState, 0, len(items))
			for _, it := range items {
				states = append(states, itemState(it))
			}
			sendTo(p, protocol.InventoryStateMsg{Type: protocol.TypeInventoryState, Gold: gold, Items: states})
		}
	})
}

func (r *Room) handleAllocateSkill(p *world.Player, raw []byte) {
	var msg protocol.AllocateSkillMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	r.enqueueOp(p, func(p *world.Player) { r.startAllocateSkill(p, msg.NodeID) })
}

func (r *Room) startAllocateSkill(p *world.Player, nodeID int32) {
	pid, sid := p.PersistID, p.SessionID
	prog := liveProgress(p)
	p.Dirty = false
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := r.svc.AllocateSkill(ctx, pid, prog, nodeID)
		return func() {
			defer r.opDone(sid)
			p := r.state.PlayerBySession(sid)
			if p == nil {
				return
			}
			if err != nil {
				p.Dirty = true
				sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: failReason(err)})
				return
			}
			p.SkillPoints += res.Points - prog.SkillPoints
			p.Allocations = res.Allocs
			p.Hotbar = res.Hotbar
			r.state.TouchPlayer(p.ID)
			sendTo(p, skillsState(protocol.TypeSkillsUpdated, p))
		}
	})
}

func (r *Room) handleSetHotbar(p *world.Player, raw []byte) {
	var msg protocol.SetHotbarMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	pid, sid := p.PersistID, p.SessionID
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := r.svc.BindHotbar(ctx, pid, msg.Slot, msg.SkillID)
		return func() {
			p := r.state.PlayerBySession(sid)
			if p == nil {
				return
			}
			if err != nil {
				sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: failReason(err)})
				return
			}
			p.Hotbar = res.Hotbar
			sendTo(p, skillsState(protocol.TypeHotbarUpdated, p))
		}
	})
}

// handlePickup reserves the loot synchronously (so two players cannot grab
// the same drop), then grants the item durably. A full inventory puts the
// loot back on the ground.
func (r *Room) handlePickup(p *world.Player, raw []byte) {
	var msg protocol.PickupMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	l, ok := r.state.Loot[msg.LootID]
	if !ok || p.Dead {
		return
	}
	if sim.PlanarDistance(p.Pos, l.Pos) > pickupRange {
		return
	}
	taken := *l
	r.state.RemoveLoot(l.ID)
	if r.svc == nil {
		return
	}

	pid, sid := p.PersistID, p.SessionID
	bonuses := r.lua.RollLootBonuses(taken.Rarity, r.rng.Float64())
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		item, err := r.svc.GrantItem(ctx, pid, taken.ItemDefID, taken.Rarity, taken.Quantity, bonuses)
		return func() {
			p := r.state.PlayerBySession(sid)
			if err != nil {
				if errors.Is(err, persist.ErrInventoryFull) {
					restored := taken
					r.state.AddLoot(&restored)
					if p != nil {
						sendTo(p, protocol.ResultMsg{Type: protocol.TypeInventoryFull})
					}
					return
				}
				r.log.Error("pickup grant failed", zap.Int64("player", pid), zap.Error(err))
				return
			}
			if p != nil {
				sendTo(p, protocol.LootAcquiredMsg{Type: protocol.TypeLootAcquired, Item: itemState(item)})
			}
		}
	})
}

func (r *Room) handleUseItem(p *world.Player, raw []byte) {
	var msg protocol.UseItemMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	pid, sid := p.PersistID, p.SessionID
	r.async(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		def, err := r.svc.UseItem(ctx, pid, msg.ItemID)
		return func() {
			p := r.state.PlayerBySession(sid)
			if p == nil {
				return
			}
			if err != nil {
				sendTo(p, protocol.ResultMsg{Type: protocol.TypeSkillFail, Reason: failReason(err)})
				return
			}
			if def.HealHP > 0 {
				p.HP += def.HealHP
				if p.HP > p.MaxHP {
					p.HP = p.MaxHP
				}
			}
			if def.HealMana > 0 {
				p.Mana += def.HealMana
				if p.Mana > p.MaxMana {
					p.Mana = p.MaxMana
				}
			}
			r.state.TouchPlayer(p.ID)
			broadcastRoom(r.state, protocol.DamageMsg{Type: protocol.TypeDamage, Target: p.ID, Amount: def.HealHP, Heal: true})
		}
	})
}

func (r *Room) broadcast(msg any) {
	broadcastRoom(r.state, msg)
}

// ---------- wire helpers ----------

func sendTo(p *world.Player, msg any) {
	if p.Sess != nil {
		p.Sess.Send(protocol.Encode(msg))
	}
}

func broadcastRoom(st *world.State, msg any) {
	raw := protocol.Encode(msg)
	for _, p := range st.Players {
		if p.Sess != nil {
			p.Sess.Send(raw)
		}
	}
}

func playerFromRecord(rec *persist.Record) *world.Player {
	row := rec.Player
	p := &world.Player{
		PersistID:      row.ID,
		Name:           row.Name,
		Class:          row.Class,
		Appearance:     row.Appearance,
		Level:          row.Level,
		XP:             row.XP,
		Strength:       row.Strength,
		Dexterity:      row.Dexterity,
		Intellect:      row.Intellect,
		Vitality:       row.Vitality,
		Gold:           row.Gold,
		SkillPoints:    row.SkillPoints,
		Inventory:      rec.Inv,
		Allocations:    rec.Allocs,
		Hotbar:         rec.Hotbar,
		SkillCooldowns: make(map[int32]float64),
		Animation:      "idle",
	}
	p.MaxHP = 50 + int32(p.Vitality)*5
	p.HP = p.MaxHP
	p.MaxMana = 20 + int32(p.Intellect)*5
	p.Mana = p.MaxMana
	return p
}

func itemState(it *world.Item) protocol.ItemState {
	return protocol.ItemState{
		InstanceID: it.InstanceID,
		ItemDefID:  it.DefID,
		Rarity:     it.Rarity,
		Quantity:   it.Quantity,
		Equipped:   it.Equipped,
		Slot:       it.Slot,
		Bonuses:    it.Bonuses,
	}
}

func itemStates(inv *world.Inventory) []protocol.ItemState {
	if inv == nil {
		return nil
	}
	out := make([]protocol.ItemState, 0, len(inv.Items))
	for _, it := range inv.Items {
		out = append(out, itemState(it))
	}
	return out
}

func skillAllocs(allocs map[int32]int16) []protocol.SkillAlloc {
	out := make([]protocol.SkillAlloc, 0, len(allocs))
	for node, points := range allocs {
		out = append(out, protocol.SkillAlloc{NodeID: node, Points: points})
	}
	return out
}

func hotbarBindings(hotbar map[int]int32) []protocol.HotbarBinding {
	out := make([]protocol.HotbarBinding, 0, len(hotbar))
	for slot, skill := range hotbar {
		out = append(out, protocol.HotbarBinding{Slot: slot, SkillID: skill})
	}
	return out
}

func skillsState(msgType string, p *world.Player) protocol.SkillsStateMsg {
	return protocol.SkillsStateMsg{
		Type:      msgType,
		Points:    p.SkillPoints,
		Allocated: skillAllocs(p.Allocations),
		Hotbar:    hotbarBindings(p.Hotbar),
	}
}

// failReason maps a persistence error to the wire reason. Infrastructure
// failures all surface as "internal".
func failReason(err error) string {
	switch {
	case errors.Is(err, persist.ErrInsufficientGold):
		return "insufficient_gold"
	case errors.Is(err, persist.ErrInventoryFull):
		return "inventory_full"
	case errors.Is(err, persist.ErrNotOwned):
		return "not_owned"
	case errors.Is(err, persist.ErrEquipped):
		return "equipped"
	case errors.Is(err, persist.ErrNotConsumable):
		return "not_consumable"
	case errors.Is(err, persist.ErrNoStock):
		return "no_stock"
	case errors.Is(err, persist.ErrUnknownSkill):
		return "unknown_skill"
	case errors.Is(err, persist.ErrNoSkillPoints):
		return "no_skill_points"
	case errors.Is(err, persist.ErrSkillMaxed):
		return "skill_maxed"
	case errors.Is(err, persist.ErrPrereqUnmet):
		return "prereq_unmet"
	case errors.Is(err, persist.ErrNotAllocated):
		return "not_allocated"
	case errors.Is(err, persist.ErrPassiveSkill):
		return "passive_skill"
	case errors.Is(err, persist.ErrInvalidSlot):
		return "invalid_slot"
	default:
		return "internal"
	}
}
