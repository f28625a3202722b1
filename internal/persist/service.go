package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
	"github.com/duskspire/server/internal/data"
	"github.com/duskspire/server/internal/world"
)

// Starter kit granted exactly once on first join.
var starterItems = []struct {
	DefID    int32
	Quantity int32
}{
	{DefID: 1, Quantity: 1},   // rusted shortblade
	{DefID: 100, Quantity: 3}, // minor healing draught
}

// Service exposes the atomic persistence operations. Every operation is
// scoped to one player id, runs as a single transaction under that
// player's lock, and either fully succeeds or reports a typed failure with
// no partial effect. Callers invoke it off the tick goroutine and deliver
// results back through the room inbox.
type Service struct {
	db     *DB
	tables *data.Tables
	cfg    config.GameplayConfig
	log    *zap.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewService(db *DB, tables *data.Tables, cfg config.GameplayConfig, log *zap.Logger) *Service {
	return &Service{
		db:     db,
		tables: tables,
		cfg:    cfg,
		log:    log,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// playerLock returns the mutex serializing operations for one player.
// Locks are never freed; the map grows with the set of players seen since
// boot, which is bounded and small.
func (s *Service) playerLock(playerID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[playerID] = l
	}
	return l
}

// withRecord runs fn against the player's loaded record inside one
// transaction. If fn returns an error nothing is written.
func (s *Service) withRecord(ctx context.Context, playerID int64, fn func(*Record) error) (*Record, error) {
	l := s.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := loadRecord(ctx, tx, playerID, s.cfg.InventorySize)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := saveRecord(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// LoadOrCreate resolves a display name to a player record, creating the
// row with defaulted stats and the starter kit on first join. The starter
// grant happens inside the creating transaction, so it cannot be applied
// twice even across crashes.
func (s *Service) LoadOrCreate(ctx context.Context, name, class string, appearance int32) (*Record, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := findPlayerID(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		if class == "" {
			class = "wanderer"
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO players (name, class, appearance, gold)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			name, class, appearance, s.cfg.StarterGold).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("create player %q: %w", name, err)
		}
	}

	rec, err := loadRecord(ctx, tx, id, s.cfg.InventorySize)
	if err != nil {
		return nil, err
	}
	if !rec.Player.StarterGranted {
		s.grantStarterKit(rec)
		rec.Player.StarterGranted = true
	}
	if err := saveRecord(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *Service) grantStarterKit(rec *Record) {
	for _, st := range starterItems {
		def := s.tables.Items.Get(st.DefID)
		if def == nil {
			continue
		}
		if rec.Inv.FindByDef(st.DefID) != nil {
			continue // never double-grant
		}
		rec.Inv.Add(def.DefID, def.Rarity, st.Quantity, def.Stackable(), nil)
	}
}

// BuyResult carries the state a room needs to mirror after a purchase.
type BuyResult struct {
	Item *world.Item
	Gold int64
}

// Buy flushes the live progress and debits gold / credits one unit of the
// item as a single transaction under the player lock. Flushing inside the
// same unit of work means a later op can never rewrite gold this one
// debited.
func (s *Service) Buy(ctx context.Context, playerID int64, prog Progress, itemDefID int32) (BuyResult, error) {
	var res BuyResult
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		rec.ApplyProgress(prog)
		def := s.tables.Items.Get(itemDefID)
		if def == nil {
			return ErrNoStock
		}
		it, err := rec.Buy(def, s.tables.Shop.Get(itemDefID))
		if err != nil {
			return err
		}
		res.Item = it
		res.Gold = rec.Player.Gold
		return nil
	})
	return res, err
}

// SellResult carries the outcome of a sale.
type SellResult struct {
	Credited   int64
	Gold       int64
	InstanceID string
	Removed    bool
}

// Sell flushes the live progress, removes one unit of an owned unequipped
// item and credits gold, all in one transaction under the player lock.
func (s *Service) Sell(ctx context.Context, playerID int64, prog Progress, instanceID string) (SellResult, error) {
	var res SellResult
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		rec.ApplyProgress(prog)
		credited, removed, err := rec.Sell(instanceID, s.tables.Items, s.tables.Shop)
		if err != nil {
			return err
		}
		res = SellResult{
			Credited:   credited,
			Gold:       rec.Player.Gold,
			InstanceID: instanceID,
			Removed:    removed,
		}
		return nil
	})
	return res, err
}

// UseItem consumes one unit of a consumable and returns its definition.
func (s *Service) UseItem(ctx context.Context, playerID int64, itemDefID int32) (*data.ItemDef, error) {
	var def *data.ItemDef
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		d, err := rec.UseItem(itemDefID, s.tables.Items)
		if err != nil {
			return err
		}
		def = d
		return nil
	})
	return def, err
}

// GrantItem credits a dropped/scripted item to the player.
func (s *Service) GrantItem(ctx context.Context, playerID int64, itemDefID int32, rarity string, quantity int32, bonuses []string) (*world.Item, error) {
	var item *world.Item
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		def := s.tables.Items.Get(itemDefID)
		if def == nil {
			return ErrNotOwned
		}
		it, err := rec.GrantItem(def, rarity, quantity, bonuses)
		if err != nil {
			return err
		}
		item = it
		return nil
	})
	return item, err
}

// GrantGold credits gold and returns the new balance.
func (s *Service) GrantGold(ctx context.Context, playerID int64, amount int64) (int64, error) {
	var total int64
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		rec.GrantGold(amount)
		total = rec.Player.Gold
		return nil
	})
	return total, err
}

// SkillsResult is the post-operation skill state mirrored back to the room.
type SkillsResult struct {
	Points int16
	Allocs map[int32]int16
	Hotbar map[int]int32
}

// AllocateSkill flushes the live progress and invests one point into a
// skill node in one transaction under the player lock.
func (s *Service) AllocateSkill(ctx context.Context, playerID int64, prog Progress, nodeID int32) (SkillsResult, error) {
	var res SkillsResult
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		rec.ApplyProgress(prog)
		if err := rec.AllocateSkill(s.tables.Skills.Get(nodeID)); err != nil {
			return err
		}
		res = snapshotSkills(rec)
		return nil
	})
	return res, err
}

// BindHotbar binds an allocated, non-passive skill to a hotbar slot.
func (s *Service) BindHotbar(ctx context.Context, playerID int64, slot int, skillID int32) (SkillsResult, error) {
	var res SkillsResult
	_, err := s.withRecord(ctx, playerID, func(rec *Record) error {
		if err := rec.BindHotbar(slot, s.tables.Skills.Get(skillID)); err != nil {
			return err
		}
		res = snapshotSkills(rec)
		return nil
	})
	return res, err
}

func snapshotSkills(rec *Record) SkillsResult {
	res := SkillsResult{
		Points: rec.Player.SkillPoints,
		Allocs: make(map[int32]int16, len(rec.Allocs)),
		Hotbar: make(map[int]int32, len(rec.Hotbar)),
	}
	for k, v := range rec.Allocs {
		res.Allocs[k] = v
	}
	for k, v := range rec.Hotbar {
		res.Hotbar[k] = v
	}
	return res
}

// Progress is the batch-saved slice of live player state.
type Progress struct {
	Level       int16
	XP          int64
	SkillPoints int16
	Gold        int64
}

// SaveProgress flushes level/xp/skill-point/gold changes accumulated by
// the tick loop. Runs under the player lock like every other op.
func (s *Service) SaveProgress(ctx context.Context, playerID int64, p Progress) error {
	l := s.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	_, err := s.db.Pool.Exec(ctx,
		`UPDATE players SET level=$2, xp=$3, skill_points=$4, gold=$5, updated_at=now()
		 WHERE id=$1`,
		playerID, p.Level, p.XP, p.SkillPoints, p.Gold)
	if err != nil {
		return fmt.Errorf("save progress %d: %w", playerID, err)
	}
	return nil
}

// Inventory reloads a player's gold and items, for request_inventory.
func (s *Service) Inventory(ctx context.Context, playerID int64) (int64, []*world.Item, error) {
	l := s.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	var gold int64
	var items []*world.Item
	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		rec, err := loadRecord(ctx, tx, playerID, s.cfg.InventorySize)
		if err != nil {
			return err
		}
		gold = rec.Player.Gold
		items = rec.Inv.Items
		return nil
	})
	return gold, items, err
}

// Logger exposes the service logger for op workers.
func (s *Service) Logger() *zap.Logger { return s.log }
