package activity

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type cellKey struct{ x, y, z int }

type indexEntry struct {
	id  int
	pos mgl64.Vec3
}

// SpatialIndex is a uniform grid over body centers. The world rebuilds
// it every tick and passes it read-only into wake decisions; it is not
// safe for concurrent inserts.
type SpatialIndex struct {
	cell  float64
	cells map[cellKey][]indexEntry
	count int
}

func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialIndex{
		cell:  cellSize,
		cells: make(map[cellKey][]indexEntry),
	}
}

func (x *SpatialIndex) keyFor(p mgl64.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(p.X() / x.cell)),
		y: int(math.Floor(p.Y() / x.cell)),
		z: int(math.Floor(p.Z() / x.cell)),
	}
}

func (x *SpatialIndex) Insert(id int, pos mgl64.Vec3) {
	k := x.keyFor(pos)
	x.cells[k] = append(x.cells[k], indexEntry{id: id, pos: pos})
	x.count++
}

func (x *SpatialIndex) Len() int { return x.count }

// Nearby returns the ids of all entries within radius of pos, ascending.
func (x *SpatialIndex) Nearby(pos mgl64.Vec3, radius float64) []int {
	if radius <= 0 || x.count == 0 {
		return nil
	}
	reach := int(math.Ceil(radius / x.cell))
	center := x.keyFor(pos)
	radiusSq := radius * radius

	var ids []int
	for dz := -reach; dz <= reach; dz++ {
		for dy := -reach; dy <= reach; dy++ {
			for dx := -reach; dx <= reach; dx++ {
				k := cellKey{x: center.x + dx, y: center.y + dy, z: center.z + dz}
				for _, e := range x.cells[k] {
					if e.pos.Sub(pos).LenSqr() <= radiusSq {
						ids = append(ids, e.id)
					}
				}
			}
		}
	}
	sort.Ints(ids)
	return ids
}
