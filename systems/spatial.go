package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ufo/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	Delta  r3.Vec // from the query origin to the neighbour
	DistSq float64
}

type cellKey struct {
	x, y, z int
}

// SpatialGrid is an unbounded uniform grid hashing entities by cell.
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]ecs.Entity
}

// NewSpatialGrid creates a grid with the given cell edge length.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]ecs.Entity),
	}
}

// CellSize returns the cell edge length.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// Reset clears the grid and changes its cell size.
func (g *SpatialGrid) Reset(cellSize float64) {
	if cellSize > 0 {
		g.cellSize = cellSize
	}
	g.Clear()
}

// Clear removes all entities from the grid, keeping cell storage.
func (g *SpatialGrid) Clear() {
	for k, c := range g.cells {
		g.cells[k] = c[:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, pos r3.Vec) {
	k := g.key(pos)
	g.cells[k] = append(g.cells[k], e)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
const MaxQueryResults = 128

// QueryRadiusInto finds entities within radius of pos and appends them to
// dst, up to MaxQueryResults.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, pos r3.Vec, radius float64, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	reach := int(math.Ceil(radius / g.cellSize))
	center := g.key(pos)
	radiusSq := radius * radius

	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				k := cellKey{center.x + dx, center.y + dy, center.z + dz}
				for _, e := range g.cells[k] {
					if e == exclude {
						continue
					}
					other := posMap.Get(e)
					if other == nil {
						continue
					}
					delta := r3.Sub(other.Vec, pos)
					distSq := r3.Norm2(delta)
					if distSq <= radiusSq {
						dst = append(dst, Neighbor{E: e, Delta: delta, DistSq: distSq})
						if len(dst) >= MaxQueryResults {
							return dst
						}
					}
				}
			}
		}
	}
	return dst
}

func (g *SpatialGrid) key(pos r3.Vec) cellKey {
	return cellKey{
		x: int(math.Floor(pos.X / g.cellSize)),
		y: int(math.Floor(pos.Y / g.cellSize)),
		z: int(math.Floor(pos.Z / g.cellSize)),
	}
}

// Encounters counts pairs of bound agents closer than radius and reports
// the smallest pairwise distance seen within that radius. minDist is +Inf
// when no pair is close.
func (s *AgentStore) Encounters(radius float64) (pairs int, minDist float64) {
	minDist = math.Inf(1)
	if radius <= 0 {
		return 0, minDist
	}
	s.grid.Reset(radius)

	var agents []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		pos, _, _, agent := query.Get()
		if agent.Pilot == 0 {
			continue
		}
		e := query.Entity()
		s.grid.Insert(e, pos.Vec)
		agents = append(agents, e)
	}

	var buf []Neighbor
	for _, e := range agents {
		buf = s.grid.QueryRadiusInto(buf[:0], s.posMap.Get(e).Vec, radius, e, s.posMap)
		for _, n := range buf {
			// Count each pair once.
			if n.E.ID() < e.ID() {
				continue
			}
			pairs++
			minDist = min(minDist, math.Sqrt(n.DistSq))
		}
	}
	return pairs, minDist
}
