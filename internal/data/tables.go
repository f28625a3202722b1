package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles every static data table loaded at boot.
type Tables struct {
	Monsters *MonsterTable
	Items    *ItemTable
	Skills   *SkillTable
	Shop     *ShopTable
	Drops    *DropTable
	Dungeons *DungeonTable
}

// LoadAll loads all YAML tables from a data directory.
func LoadAll(dir string) (*Tables, error) {
	monsters, err := LoadMonsterTable(filepath.Join(dir, "monster_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load monsters: %w", err)
	}
	items, err := LoadItemTable(filepath.Join(dir, "item_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	skills, err := LoadSkillTable(filepath.Join(dir, "skill_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	shop, err := LoadShopTable(filepath.Join(dir, "shop_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load shop: %w", err)
	}
	drops, err := LoadDropTable(filepath.Join(dir, "drop_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load drops: %w", err)
	}
	dungeons, err := LoadDungeonTable(filepath.Join(dir, "dungeon_list.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load dungeons: %w", err)
	}
	return &Tables{
		Monsters: monsters,
		Items:    items,
		Skills:   skills,
		Shop:     shop,
		Drops:    drops,
		Dungeons: dungeons,
	}, nil
}
