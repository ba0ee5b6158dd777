package world

import (
	"math"

	"github.com/emberfall/server/internal/geom"
	"github.com/emberfall/server/internal/unit"
)

const cellSize = 8

type cellKey struct {
	zone uint32
	cx   int32
	cz   int32
}

func toCell(v float32) int32 {
	return int32(math.Floor(float64(v) / cellSize))
}

func keyOf(zone uint32, p geom.Vec3) cellKey {
	return cellKey{zone: zone, cx: toCell(p.X), cz: toCell(p.Z)}
}

// Grid is a cell-based spatial index over the XZ plane, one layer per zone.
// Game loop only, no locks.
type Grid struct {
	cells map[cellKey]map[unit.Uid]struct{}
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[cellKey]map[unit.Uid]struct{})}
}

func (g *Grid) Add(uid unit.Uid, zone uint32, p geom.Vec3) {
	k := keyOf(zone, p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[unit.Uid]struct{})
		g.cells[k] = cell
	}
	cell[uid] = struct{}{}
}

func (g *Grid) Remove(uid unit.Uid, zone uint32, p geom.Vec3) {
	k := keyOf(zone, p)
	if cell := g.cells[k]; cell != nil {
		delete(cell, uid)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates uid's cell when its position changes.
func (g *Grid) Move(uid unit.Uid, zone uint32, from, to geom.Vec3) {
	if keyOf(zone, from) == keyOf(zone, to) {
		return
	}
	g.Remove(uid, zone, from)
	g.Add(uid, zone, to)
}

// Nearby returns the uids in every cell overlapping the square of half-size
// radius around center. Callers do the exact distance check.
func (g *Grid) Nearby(zone uint32, center geom.Vec3, radius float32) []unit.Uid {
	x0, x1 := toCell(center.X-radius), toCell(center.X+radius)
	z0, z1 := toCell(center.Z-radius), toCell(center.Z+radius)
	var out []unit.Uid
	for cx := x0; cx <= x1; cx++ {
		for cz := z0; cz <= z1; cz++ {
			for uid := range g.cells[cellKey{zone: zone, cx: cx, cz: cz}] {
				out = append(out, uid)
			}
		}
	}
	return out
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int { return len(g.cells) }
