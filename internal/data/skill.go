package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SkillNode is one node of the skill tree. A node can be allocated up to
// MaxPoints; its first point requires every prerequisite node to already
// hold at least one point.
type SkillNode struct {
	NodeID     int32   `yaml:"node_id"`
	Name       string  `yaml:"name"`
	MaxPoints  int16   `yaml:"max_points"`
	Prereqs    []int32 `yaml:"prereqs,omitempty"`
	Passive    bool    `yaml:"passive"`
	ManaCost   int32   `yaml:"mana_cost,omitempty"`
	Cooldown   float64 `yaml:"cooldown,omitempty"` // seconds
	BaseDamage int32   `yaml:"base_damage,omitempty"`
	PerPoint   int32   `yaml:"per_point,omitempty"` // damage added per invested point
	Projectile bool    `yaml:"projectile,omitempty"`
	ProjSpeed  float64 `yaml:"proj_speed,omitempty"`
	ProjLife   float64 `yaml:"proj_life,omitempty"` // seconds
}

type skillListFile struct {
	Skills []SkillNode `yaml:"skills"`
}

// SkillTable holds the skill tree indexed by NodeID.
type SkillTable struct {
	nodes map[int32]*SkillNode
}

// LoadSkillTable loads the skill tree from a YAML file.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill_list: %w", err)
	}
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skill_list: %w", err)
	}
	return NewSkillTable(f.Skills), nil
}

// NewSkillTable builds a table from in-memory nodes.
func NewSkillTable(nodes []SkillNode) *SkillTable {
	t := &SkillTable{nodes: make(map[int32]*SkillNode, len(nodes))}
	for i := range nodes {
		n := &nodes[i]
		t.nodes[n.NodeID] = n
	}
	return t
}

// Get returns a skill node by ID, or nil if not found.
func (t *SkillTable) Get(nodeID int32) *SkillNode {
	return t.nodes[nodeID]
}

// Count returns the number of loaded nodes.
func (t *SkillTable) Count() int {
	return len(t.nodes)
}
