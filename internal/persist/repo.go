package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duskspire/server/internal/world"
)

// loadRecord reads a player's full persisted state inside tx. Returns
// pgx.ErrNoRows via the wrapped error if the player does not exist.
func loadRecord(ctx context.Context, tx pgx.Tx, playerID int64, capacity int) (*Record, error) {
	rec := &Record{
		Inv:    world.NewInventory(capacity),
		Allocs: make(map[int32]int16),
		Hotbar: make(map[int]int32),
	}

	row := tx.QueryRow(ctx,
		`SELECT id, name, class, appearance, level, xp, strength, dexterity,
		        intellect, vitality, gold, skill_points, starter_granted
		 FROM players WHERE id = $1`, playerID)
	p := &rec.Player
	if err := row.Scan(&p.ID, &p.Name, &p.Class, &p.Appearance, &p.Level,
		&p.XP, &p.Strength, &p.Dexterity, &p.Intellect, &p.Vitality,
		&p.Gold, &p.SkillPoints, &p.StarterGranted); err != nil {
		return nil, fmt.Errorf("load player %d: %w", playerID, err)
	}

	rows, err := tx.Query(ctx,
		`SELECT instance_id, def_id, rarity, quantity, bonuses, equipped, slot
		 FROM items WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it := &world.Item{}
		if err := rows.Scan(&it.InstanceID, &it.DefID, &it.Rarity,
			&it.Quantity, &it.Bonuses, &it.Equipped, &it.Slot); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		rec.Inv.Items = append(rec.Inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	skillRows, err := tx.Query(ctx,
		`SELECT node_id, points FROM skill_allocations WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	defer skillRows.Close()
	for skillRows.Next() {
		var nodeID int32
		var points int16
		if err := skillRows.Scan(&nodeID, &points); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		rec.Allocs[nodeID] = points
	}
	if err := skillRows.Err(); err != nil {
		return nil, err
	}
	skillRows.Close()

	hbRows, err := tx.Query(ctx,
		`SELECT slot, skill_id FROM hotbar_slots WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("load hotbar: %w", err)
	}
	defer hbRows.Close()
	for hbRows.Next() {
		var slot int
		var skillID int32
		if err := hbRows.Scan(&slot, &skillID); err != nil {
			return nil, fmt.Errorf("scan hotbar: %w", err)
		}
		rec.Hotbar[slot] = skillID
	}
	return rec, hbRows.Err()
}

// saveRecord writes a record back inside tx: the player row is updated in
// place, the dependent tables are replaced (delete + bulk insert, the same
// shape the inventory save has always had).
func saveRecord(ctx context.Context, tx pgx.Tx, rec *Record) error {
	p := &rec.Player
	if _, err := tx.Exec(ctx,
		`UPDATE players SET class=$2, appearance=$3, level=$4, xp=$5,
		        strength=$6, dexterity=$7, intellect=$8, vitality=$9,
		        gold=$10, skill_points=$11, starter_granted=$12, updated_at=now()
		 WHERE id=$1`,
		p.ID, p.Class, p.Appearance, p.Level, p.XP,
		p.Strength, p.Dexterity, p.Intellect, p.Vitality,
		p.Gold, p.SkillPoints, p.StarterGranted); err != nil {
		return fmt.Errorf("save player %d: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE player_id=$1`, p.ID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for _, it := range rec.Inv.Items {
		bonuses := it.Bonuses
		if bonuses == nil {
			bonuses = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO items (instance_id, player_id, def_id, rarity, quantity, bonuses, equipped, slot)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.InstanceID, p.ID, it.DefID, it.Rarity, it.Quantity,
			bonuses, it.Equipped, it.Slot); err != nil {
			return fmt.Errorf("save item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM skill_allocations WHERE player_id=$1`, p.ID); err != nil {
		return fmt.Errorf("clear skills: %w", err)
	}
	for nodeID, points := range rec.Allocs {
		if points <= 0 {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO skill_allocations (player_id, node_id, points) VALUES ($1, $2, $3)`,
			p.ID, nodeID, points); err != nil {
			return fmt.Errorf("save skill: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hotbar_slots WHERE player_id=$1`, p.ID); err != nil {
		return fmt.Errorf("clear hotbar: %w", err)
	}
	for slot, skillID := range rec.Hotbar {
		if _, err := tx.Exec(ctx,
			`INSERT INTO hotbar_slots (player_id, slot, skill_id) VALUES ($1, $2, $3)`,
			p.ID, slot, skillID); err != nil {
			return fmt.Errorf("save hotbar: %w", err)
		}
	}
	return nil
}

// findPlayerID resolves a display name to a players row id, or 0.
func findPlayerID(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM players WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find player %q: %w", name, err)
	}
	return id, nil
}
