package system

import (
	"time"

	coresys "github.com/duskspire/server/internal/core/system"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/world"
)

// BroadcastSystem drains the room's change log into a differential patch
// every N ticks and flushes every session's buffered output once per tick.
// Per entity the patch preserves the change-log guarantee: spawn first, at
// most one collapsed update, then despawn.
type BroadcastSystem struct {
	state      *world.State
	patchEvery int
	tick       uint64
}

func NewBroadcastSystem(st *world.State, patchEvery int) *BroadcastSystem {
	if patchEvery < 1 {
		patchEvery = 1
	}
	return &BroadcastSystem{state: st, patchEvery: patchEvery}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *BroadcastSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%uint64(s.patchEvery) == 0 {
		if changes := s.state.DrainChanges(); len(changes) > 0 {
			s.broadcastPatch(changes)
		}
	}
	for _, p := range s.state.Players {
		if p.Sess != nil {
			p.Sess.FlushOutput()
		}
	}
}

func (s *BroadcastSystem) broadcastPatch(changes []world.Change) {
	events := make([]protocol.PatchEvent, 0, len(changes))
	for _, c := range changes {
		ev := protocol.PatchEvent{Op: opName(c.Op), Kind: string(c.Kind), ID: c.ID}
		if c.Op != world.OpDespawn && !fillSnapshot(s.state, &ev, c) {
			// Entity vanished after the change was recorded; the despawn
			// entry for it follows in the same drain.
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return
	}
	broadcastRoom(s.state, protocol.PatchMsg{Type: protocol.TypePatch, Tick: s.tick, Events: events})
}

// SendSnapshot ships spawn events for every already-announced entity to one
// player. Rooms call it on join so a newcomer learns about entities whose
// spawns were drained before it connected; anything still pending in the
// change log reaches it through the normal patch instead.
func SendSnapshot(st *world.State, p *world.Player) {
	if p.Sess == nil {
		return
	}
	changes := st.SnapshotChanges()
	events := make([]protocol.PatchEvent, 0, len(changes))
	for _, c := range changes {
		ev := protocol.PatchEvent{Op: protocol.OpSpawn, Kind: string(c.Kind), ID: c.ID}
		if !fillSnapshot(st, &ev, c) {
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return
	}
	p.Sess.Send(protocol.Encode(protocol.PatchMsg{Type: protocol.TypePatch, Events: events}))
}

func fillSnapshot(st *world.State, ev *protocol.PatchEvent, c world.Change) bool {
	switch c.Kind {
	case world.KindPlayer:
		p, ok := st.Players[c.ID]
		if !ok {
			return false
		}
		ev.Player = playerSnapshot(p)
	case world.KindMonster:
		m, ok := st.Monsters[c.ID]
		if !ok {
			return false
		}
		ev.Monster = monsterSnapshot(m)
	case world.KindLoot:
		l, ok := st.Loot[c.ID]
		if !ok {
			return false
		}
		ev.Loot = lootSnapshot(l)
	case world.KindProjectile:
		pr, ok := st.Projectiles[c.ID]
		if !ok {
			return false
		}
		ev.Projectile = projectileSnapshot(pr)
	}
	return true
}

func opName(op world.ChangeOp) string {
	switch op {
	case world.OpSpawn:
		return protocol.OpSpawn
	case world.OpDespawn:
		return protocol.OpDespawn
	default:
		return protocol.OpUpdate
	}
}

func playerSnapshot(p *world.Player) *protocol.PlayerState {
	return &protocol.PlayerState{
		ID:                 p.ID,
		Name:               p.Name,
		Class:              p.Class,
		Appearance:         p.Appearance,
		X:                  p.Pos.X(),
		Y:                  p.Pos.Y(),
		Z:                  p.Pos.Z(),
		Rotation:           p.Rotation,
		HP:                 p.HP,
		MaxHP:              p.MaxHP,
		Mana:               p.Mana,
		MaxMana:            p.MaxMana,
		Strength:           p.Strength,
		Dexterity:          p.Dexterity,
		Intellect:          p.Intellect,
		Vitality:           p.Vitality,
		Armor:              p.Armor,
		Level:              p.Level,
		XP:                 p.XP,
		XPToNext:           p.XPToNext,
		SkillPts:           p.SkillPoints,
		Animation:          p.Animation,
		LastProcessedInput: p.LastProcessedInput,
	}
}

func monsterSnapshot(m *world.Monster) *protocol.MonsterState {
	return &protocol.MonsterState{
		ID:        m.ID,
		DefID:     m.Def.DefID,
		Name:      m.Name,
		X:         m.Pos.X(),
		Y:         m.Pos.Y(),
		Z:         m.Pos.Z(),
		Rotation:  m.Rotation,
		HP:        m.HP,
		MaxHP:     m.MaxHP,
		AIState:   string(m.State),
		BossPhase: m.BossPhase,
	}
}

func lootSnapshot(l *world.Loot) *protocol.LootState {
	return &protocol.LootState{
		ID:        l.ID,
		ItemDefID: l.ItemDefID,
		Rarity:    l.Rarity,
		X:         l.Pos.X(),
		Y:         l.Pos.Y(),
		Z:         l.Pos.Z(),
		ExpiresAt: l.ExpiresAt.UnixMilli(),
	}
}

func projectileSnapshot(pr *world.Projectile) *protocol.ProjectileState {
	return &protocol.ProjectileState{
		ID:      pr.ID,
		OwnerID: pr.OwnerID,
		Kind:    pr.Kind,
		X:       pr.Pos.X(),
		Y:       pr.Pos.Y(),
		Z:       pr.Pos.Z(),
		VX:      pr.Vel.X(),
		VY:      pr.Vel.Y(),
		VZ:      pr.Vel.Z(),
	}
}
