package world

// EntityKind discriminates the four entity maps.
type EntityKind string

const (
	KindPlayer     EntityKind = "player"
	KindMonster    EntityKind = "monster"
	KindLoot       EntityKind = "loot"
	KindProjectile EntityKind = "projectile"
)

// ChangeOp is a lifecycle event recorded in the change log.
type ChangeOp int

const (
	OpSpawn ChangeOp = iota
	OpUpdate
	OpDespawn
)

// Change is one drained change-log entry. For a given entity the drain
// order is always spawn, at most one collapsed update, then despawn.
type Change struct {
	Op   ChangeOp
	Kind EntityKind
	ID   uint64
}

type changeRecord struct {
	kind    EntityKind
	order   int
	spawned bool
	updated bool
	removed bool
}

// State is the authoritative in-memory model of one room's entities.
// It is owned by exactly one tick goroutine and never locked: all access
// goes through that goroutine. Every mutation bumps the entity's version
// and lands in the change log drained once per broadcast; entity ids are
// allocated from a counter and never reused.
type State struct {
	nextID uint64

	Players     map[uint64]*Player
	Monsters    map[uint64]*Monster
	Loot        map[uint64]*Loot
	Projectiles map[uint64]*Projectile

	versions map[uint64]uint64
	pending  map[uint64]*changeRecord
	order    int

	// InputHalted suspends gameplay input processing. Set between a floor
	// clear and the party's choice to advance or exit.
	InputHalted bool
}

// NewState creates an empty room state.
func NewState() *State {
	return &State{
		Players:     make(map[uint64]*Player),
		Monsters:    make(map[uint64]*Monster),
		Loot:        make(map[uint64]*Loot),
		Projectiles: make(map[uint64]*Projectile),
		versions:    make(map[uint64]uint64),
		pending:     make(map[uint64]*changeRecord),
	}
}

// NextID allocates a fresh entity id, unique for the room's lifetime.
func (s *State) NextID() uint64 {
	s.nextID++
	return s.nextID
}

// Version returns the current version of an entity (0 = never seen).
func (s *State) Version(id uint64) uint64 {
	return s.versions[id]
}

func (s *State) record(kind EntityKind, id uint64, op ChangeOp) {
	s.versions[id]++
	rec := s.pending[id]
	if rec == nil {
		s.order++
		rec = &changeRecord{kind: kind, order: s.order}
		s.pending[id] = rec
	}
	switch op {
	case OpSpawn:
		rec.spawned = true
	case OpUpdate:
		rec.updated = true
	case OpDespawn:
		rec.removed = true
	}
}

// AddPlayer inserts a player, assigning its entity id.
func (s *State) AddPlayer(p *Player) {
	p.ID = s.NextID()
	s.Players[p.ID] = p
	s.record(KindPlayer, p.ID, OpSpawn)
}

// RemovePlayer deletes a player and records the despawn.
func (s *State) RemovePlayer(id uint64) {
	if _, ok := s.Players[id]; !ok {
		return
	}
	delete(s.Players, id)
	s.record(KindPlayer, id, OpDespawn)
}

// AddMonster inserts a monster, assigning its entity id.
func (s *State) AddMonster(m *Monster) {
	m.ID = s.NextID()
	s.Monsters[m.ID] = m
	s.record(KindMonster, m.ID, OpSpawn)
}

// RemoveMonster deletes a monster and records the despawn.
func (s *State) RemoveMonster(id uint64) {
	if _, ok := s.Monsters[id]; !ok {
		return
	}
	delete(s.Monsters, id)
	s.record(KindMonster, id, OpDespawn)
}

// AddLoot inserts a loot drop, assigning its entity id.
func (s *State) AddLoot(l *Loot) {
	l.ID = s.NextID()
	s.Loot[l.ID] = l
	s.record(KindLoot, l.ID, OpSpawn)
}

// RemoveLoot deletes a loot drop and records the despawn.
func (s *State) RemoveLoot(id uint64) {
	if _, ok := s.Loot[id]; !ok {
		return
	}
	delete(s.Loot, id)
	s.record(KindLoot, id, OpDespawn)
}

// AddProjectile inserts a projectile, assigning its entity id.
func (s *State) AddProjectile(p *Projectile) {
	p.ID = s.NextID()
	s.Projectiles[p.ID] = p
	s.record(KindProjectile, p.ID, OpSpawn)
}

// RemoveProjectile deletes a projectile and records the despawn.
func (s *State) RemoveProjectile(id uint64) {
	if _, ok := s.Projectiles[id]; !ok {
		return
	}
	delete(s.Projectiles, id)
	s.record(KindProjectile, id, OpDespawn)
}

// TouchPlayer marks a player mutated for the next broadcast.
func (s *State) TouchPlayer(id uint64) {
	if _, ok := s.Players[id]; ok {
		s.record(KindPlayer, id, OpUpdate)
	}
}

// TouchMonster marks a monster mutated for the next broadcast.
func (s *State) TouchMonster(id uint64) {
	if _, ok := s.Monsters[id]; ok {
		s.record(KindMonster, id, OpUpdate)
	}
}

// TouchProjectile marks a projectile mutated for the next broadcast.
func (s *State) TouchProjectile(id uint64) {
	if _, ok := s.Projectiles[id]; ok {
		s.record(KindProjectile, id, OpUpdate)
	}
}

// PlayerBySession returns the player owned by a connection, or nil.
func (s *State) PlayerBySession(sessionID uint64) *Player {
	for _, p := range s.Players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

// SnapshotChanges returns synthetic spawn entries for every live entity
// whose original spawn has already been drained. Sent to a player joining a
// running room so it can build its local mirror; entities whose spawn is
// still pending in the change log are excluded, since the next patch
// announces those to everyone and a second spawn would break the
// exactly-once lifecycle contract.
func (s *State) SnapshotChanges() []Change {
	var out []Change
	add := func(kind EntityKind, id uint64) {
		if rec := s.pending[id]; rec != nil && rec.spawned {
			return
		}
		out = append(out, Change{Op: OpSpawn, Kind: kind, ID: id})
	}
	for id := range s.Players {
		add(KindPlayer, id)
	}
	for id := range s.Monsters {
		add(KindMonster, id)
	}
	for id := range s.Loot {
		add(KindLoot, id)
	}
	for id := range s.Projectiles {
		add(KindProjectile, id)
	}
	return out
}

// DrainChanges returns the change log accumulated since the last drain, in
// first-touch order, and clears it. Per entity it emits spawn first, then a
// single collapsed update, then despawn, so a client can never observe a
// remove before the add, or two updates out of order.
func (s *State) DrainChanges() []Change {
	if len(s.pending) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	// Insertion-order sort; the map is small per broadcast window.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && s.pending[ids[j-1]].order > s.pending[ids[j]].order; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}

	out := make([]Change, 0, len(ids))
	for _, id := range ids {
		rec := s.pending[id]
		if rec.spawned {
			out = append(out, Change{Op: OpSpawn, Kind: rec.kind, ID: id})
		} else if rec.updated && !rec.removed {
			out = append(out, Change{Op: OpUpdate, Kind: rec.kind, ID: id})
		}
		if rec.removed {
			out = append(out, Change{Op: OpDespawn, Kind: rec.kind, ID: id})
		}
	}
	s.pending = make(map[uint64]*changeRecord)
	return out
}
