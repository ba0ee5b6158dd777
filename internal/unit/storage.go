package unit

import (
	"errors"
	"fmt"

	"github.com/emberfall/server/internal/stat"
)

// ItemID identifies an item template in the items metadata table.
type ItemID uint32

type ItemSlot uint8

const (
	SlotWeapon ItemSlot = iota
	SlotHelmet
	SlotChest
	SlotGloves
	SlotBoots
	SlotRing
	SlotAmulet
)

func (s ItemSlot) String() string {
	switch s {
	case SlotWeapon:
		return "weapon"
	case SlotHelmet:
		return "helmet"
	case SlotChest:
		return "chest"
	case SlotGloves:
		return "gloves"
	case SlotBoots:
		return "boots"
	case SlotRing:
		return "ring"
	case SlotAmulet:
		return "amulet"
	default:
		return fmt.Sprintf("ItemSlot(%d)", uint8(s))
	}
}

// ParseItemSlot maps a metadata spelling to an ItemSlot.
func ParseItemSlot(s string) (ItemSlot, error) {
	for slot := SlotWeapon; slot <= SlotAmulet; slot++ {
		if slot.String() == s {
			return slot, nil
		}
	}
	return 0, fmt.Errorf("unknown item slot %q", s)
}

// Item is a rolled item instance. Its modifiers are applied to the wearer
// while equipped.
type Item struct {
	ID        ItemID          `json:"id"`
	Name      string          `json:"name"`
	Level     uint32          `json:"level"`
	Slot      ItemSlot        `json:"slot"`
	Modifiers []stat.Modifier `json:"modifiers,omitempty"`
}

// UnitStorage is a hero's stash, saved next to the unit.
type UnitStorage struct {
	Gold  uint64 `json:"gold"`
	Items []Item `json:"items,omitempty"`
}

func (s *UnitStorage) Add(it Item) { s.Items = append(s.Items, it) }

// Take removes the item at index i.
func (s *UnitStorage) Take(i int) (Item, bool) {
	if i < 0 || i >= len(s.Items) {
		return Item{}, false
	}
	it := s.Items[i]
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return it, true
}

var ErrSlotEmpty = errors.New("equipment slot empty")

// Equip puts it into its slot and applies its modifiers. Whatever occupied the
// slot is unequipped and returned.
func (u *Unit) Equip(it *Item) (*Item, error) {
	prev, _ := u.Unequip(it.Slot)
	for i, m := range it.Modifiers {
		if err := u.AddModifier(m); err != nil {
			for _, done := range it.Modifiers[:i] {
				u.RemoveModifier(done.Stat, done.ID)
			}
			if prev != nil {
				u.Equip(prev)
			}
			return nil, fmt.Errorf("equip %s: %w", it.Name, err)
		}
	}
	if u.Equipment == nil {
		u.Equipment = make(map[ItemSlot]*Item)
	}
	u.Equipment[it.Slot] = it
	return prev, nil
}

// Unequip empties slot and removes the item's modifiers.
func (u *Unit) Unequip(slot ItemSlot) (*Item, error) {
	it, ok := u.Equipment[slot]
	if !ok {
		return nil, ErrSlotEmpty
	}
	for _, m := range it.Modifiers {
		u.RemoveModifier(m.Stat, m.ID)
	}
	delete(u.Equipment, slot)
	u.Dirty = true
	return it, nil
}
