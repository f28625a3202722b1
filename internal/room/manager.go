package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/net"
	"github.com/duskspire/server/internal/persist"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/world"
)

const (
	minNameLen = 2
	maxNameLen = 24
)

// Manager owns the hub room and all live dungeon instances and implements
// the connection gateway: it resolves each session to its room and posts
// work into that room's inbox. A dungeon instance is created per join and
// retired when its last player leaves.
type Manager struct {
	cfg    *config.Config
	tables *data.Tables
	svc    *persist.Service
	log    *zap.Logger

	hub *Room

	mu        sync.Mutex
	bySession map[uint64]*Room
	dungeons  map[string]*Room
	online    map[string]uint64 // player name -> session id
}

func NewManager(cfg *config.Config, tables *data.Tables, svc *persist.Service, log *zap.Logger) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		tables:    tables,
		svc:       svc,
		log:       log,
		bySession: make(map[uint64]*Room),
		dungeons:  make(map[string]*Room),
		online:    make(map[string]uint64),
	}

	hub, err := newRoom("hub", cfg.Simulation.HubTick, cfg.Simulation.HubPatchEvery, m, log.Named("hub"))
	if err != nil {
		return nil, fmt.Errorf("create hub room: %w", err)
	}
	hub.mode = &hubMode{r: hub}
	m.hub = hub
	go hub.run()
	return m, nil
}

// HandleJoin processes a connection's first message. Runs on the read
// goroutine; blocking on the database here is fine.
func (m *Manager) HandleJoin(sess *net.Session, raw []byte) error {
	var msg protocol.JoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decode join: %w", err)
	}
	if msg.Type != protocol.TypeJoin {
		return fmt.Errorf("first message must be join, got %q", msg.Type)
	}
	if err := validName(msg.Name); err != nil {
		return err
	}

	m.mu.Lock()
	if _, taken := m.online[msg.Name]; taken {
		m.mu.Unlock()
		return fmt.Errorf("player %q already online", msg.Name)
	}
	m.online[msg.Name] = sess.ID
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	rec, err := m.svc.LoadOrCreate(ctx, msg.Name, msg.Class, msg.Appearance)
	if err != nil {
		m.release(msg.Name)
		return fmt.Errorf("load player: %w", err)
	}

	r, err := m.roomFor(&msg)
	if err != nil {
		m.release(msg.Name)
		return err
	}

	m.mu.Lock()
	m.bySession[sess.ID] = r
	m.mu.Unlock()

	r.post(func() { r.addPlayer(sess, rec) })
	return nil
}

// HandleMessage routes a joined session's message into its room.
func (m *Manager) HandleMessage(sess *net.Session, raw []byte) {
	m.mu.Lock()
	r := m.bySession[sess.ID]
	m.mu.Unlock()
	if r == nil {
		return
	}
	r.post(func() { r.dispatch(sess, raw) })
}

// HandleDisconnect fires once when a connection dies.
func (m *Manager) HandleDisconnect(sess *net.Session) {
	m.mu.Lock()
	r := m.bySession[sess.ID]
	delete(m.bySession, sess.ID)
	for name, id := range m.online {
		if id == sess.ID {
			delete(m.online, name)
			break
		}
	}
	m.mu.Unlock()
	if r == nil {
		return
	}
	r.post(func() { r.removeSession(sess.ID) })
}

// Shutdown stops every room and waits for their final progress flushes.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.dungeons)+1)
	rooms = append(rooms, m.hub)
	for _, r := range m.dungeons {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.stop()
	}
	for _, r := range rooms {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// roomFor picks the hub or creates a fresh dungeon instance.
func (m *Manager) roomFor(msg *protocol.JoinMsg) (*Room, error) {
	if msg.Room != "dungeon" {
		return m.hub, nil
	}
	def := m.tables.Dungeons.Get(msg.DungeonID)
	if def == nil && msg.DungeonID == "" {
		def = m.tables.Dungeons.Default()
	}
	if def == nil {
		return nil, fmt.Errorf("unknown dungeon %q", msg.DungeonID)
	}

	id := "dungeon-" + uuid.NewString()[:8]
	r, err := newRoom(id, m.cfg.Simulation.DungeonTick, m.cfg.Simulation.DungeonPatchEvery, m, m.log.Named(id))
	if err != nil {
		return nil, fmt.Errorf("create dungeon instance: %w", err)
	}
	r.mode = newDungeonMode(r, def)

	m.mu.Lock()
	m.dungeons[id] = r
	m.mu.Unlock()

	go r.run()
	m.log.Info("dungeon instance created",
		zap.String("instance", id), zap.String("dungeon", def.DungeonID))
	return r, nil
}

// transferToHub re-homes a player leaving a dungeon. Called from the
// dungeon's tick goroutine after the entity left its state.
func (m *Manager) transferToHub(p *world.Player) {
	m.mu.Lock()
	m.bySession[p.SessionID] = m.hub
	m.mu.Unlock()
	m.hub.post(func() { m.hub.adoptPlayer(p) })
}

// retireDungeon tears down an empty instance.
func (m *Manager) retireDungeon(r *Room) {
	m.mu.Lock()
	delete(m.dungeons, r.id)
	m.mu.Unlock()
	r.stop()
	m.log.Info("dungeon instance retired", zap.String("instance", r.id))
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	delete(m.online, name)
	m.mu.Unlock()
}

func validName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return fmt.Errorf("name must be %d-%d characters", minNameLen, maxNameLen)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("name contains control characters")
		}
	}
	return nil
}
