package data

import (
	"fmt"

	"github.com/emberfall/server/internal/stat"
	"github.com/emberfall/server/internal/unit"
)

// ItemInfo is an item template.
type ItemInfo struct {
	ID        unit.ItemID
	Name      string
	Level     uint32
	Slot      unit.ItemSlot
	Modifiers []stat.Modifier
}

// Instance rolls a concrete item from the template.
func (i *ItemInfo) Instance() unit.Item {
	return unit.Item{
		ID:        i.ID,
		Name:      i.Name,
		Level:     i.Level,
		Slot:      i.Slot,
		Modifiers: append([]stat.Modifier(nil), i.Modifiers...),
	}
}

type ItemTable struct {
	items map[unit.ItemID]*ItemInfo
}

func (t *ItemTable) Get(id unit.ItemID) *ItemInfo {
	return t.items[id]
}

func (t *ItemTable) Count() int {
	return len(t.items)
}

// --- YAML loading ---

type itemEntry struct {
	ID        unit.ItemID     `yaml:"id"`
	Name      string          `yaml:"name"`
	Level     uint32          `yaml:"level"`
	Slot      string          `yaml:"slot"`
	Modifiers []modifierEntry `yaml:"modifiers"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

// itemModifierBase keeps item modifier ids clear of passive ids.
func itemModifierBase(id unit.ItemID) stat.ModifierID {
	return stat.ModifierID(id) << 8
}

func loadItemTable(src source, stats *StatTable) (*ItemTable, error) {
	var f itemListFile
	if err := src.decode("items.yaml", &f); err != nil {
		return nil, err
	}
	t := &ItemTable{items: make(map[unit.ItemID]*ItemInfo, len(f.Items))}
	for _, e := range f.Items {
		if _, dup := t.items[e.ID]; dup {
			return nil, fmt.Errorf("items: duplicate id %d", e.ID)
		}
		slot, err := unit.ParseItemSlot(e.Slot)
		if err != nil {
			return nil, fmt.Errorf("items: item %q: %w", e.Name, err)
		}
		mods, err := stats.modifiers("items", e.Name, itemModifierBase(e.ID), stat.ModNormal, e.Modifiers)
		if err != nil {
			return nil, err
		}
		t.items[e.ID] = &ItemInfo{
			ID:        e.ID,
			Name:      e.Name,
			Level:     e.Level,
			Slot:      slot,
			Modifiers: mods,
		}
	}
	return t, nil
}
