package data

import (
	"fmt"
	"slices"

	"github.com/emberfall/server/internal/geom"
)

// SpawnPoint places one villain when its zone loads.
type SpawnPoint struct {
	Villain  VillainID `yaml:"villain"`
	Position geom.Vec3 `yaml:"position"`
}

// ZoneInfo is the static geometry of a zone: its walkable bounds, blockers
// units cannot enter, where heroes appear, and the villains placed at load.
type ZoneInfo struct {
	ID       uint32       `yaml:"id"`
	Name     string       `yaml:"name"`
	Bounds   geom.AABB    `yaml:"bounds"`
	Blockers []geom.AABB  `yaml:"blockers"`
	Spawn    geom.Vec3    `yaml:"spawn"`
	Villains []SpawnPoint `yaml:"villains"`
}

type ZoneTable struct {
	zones map[uint32]*ZoneInfo
}

func (t *ZoneTable) Get(id uint32) *ZoneInfo {
	return t.zones[id]
}

func (t *ZoneTable) Count() int {
	return len(t.zones)
}

// IDs returns every zone id in ascending order.
func (t *ZoneTable) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.zones))
	for id := range t.zones {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Blocked reports whether p lies inside one of the zone's blockers.
func (z *ZoneInfo) Blocked(p geom.Vec3) bool {
	for _, b := range z.Blockers {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

type zoneListFile struct {
	Zones []*ZoneInfo `yaml:"zones"`
}

func loadZoneTable(src source, villains *VillainTable) (*ZoneTable, error) {
	var f zoneListFile
	if err := src.decode("zones.yaml", &f); err != nil {
		return nil, err
	}
	t := &ZoneTable{zones: make(map[uint32]*ZoneInfo, len(f.Zones))}
	for _, z := range f.Zones {
		if _, dup := t.zones[z.ID]; dup {
			return nil, fmt.Errorf("zones: duplicate id %d", z.ID)
		}
		if !z.Bounds.Contains(z.Spawn) {
			return nil, fmt.Errorf("zones: zone %q spawn lies outside its bounds", z.Name)
		}
		for _, sp := range z.Villains {
			if villains.Get(sp.Villain) == nil {
				return nil, missing("zones", "%s spawns villain %d", z.Name, sp.Villain)
			}
		}
		t.zones[z.ID] = z
	}
	return t, nil
}
