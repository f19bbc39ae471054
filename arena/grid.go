// Package arena owns the shared memory grid warriors execute against:
// cell occupancy, resources, terrain, and territories. All mutation goes
// through the serialized per-tick phases; warriors hold only positions into
// the grid, never references to cells.
package arena

import (
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// CellKind describes what a cell holds. A cell holds at most one of these.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellTerrain
	CellResource
	CellWarrior
)

// ResourceType tags spawned resources; non-energy types carry value bonuses.
type ResourceType uint8

const (
	ResourceEnergy ResourceType = iota
	ResourceComputational
	ResourceTerritory
)

// String returns the type tag for snapshots.
func (t ResourceType) String() string {
	switch t {
	case ResourceComputational:
		return "computational"
	case ResourceTerritory:
		return "territory"
	default:
		return "energy"
	}
}

// Resource is a consumable cell payload.
type Resource struct {
	X, Y   int
	Energy float32
	Type   ResourceType
}

// Neighbors8 is the fixed neighbor scan order: east first, then clockwise.
// Action targets and tie-breaks follow this order by convention.
var Neighbors8 = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// terrainNoiseScale controls terrain feature size relative to the grid.
const terrainNoiseScale = 0.15

// Grid is the bounded arena memory. Occupancy is exclusive per cell and ids
// are never zero; zero marks a free cell.
type Grid struct {
	W, H int

	terrain []bool
	occ     []uint32   // warrior id per cell, 0 = none
	res     []Resource // dense list
	resAt   []int32    // cell -> index into res, -1 = none

	Territories []Territory
}

// NewGrid builds the grid and places terrain from seeded noise.
// coverage is the fraction of cells turned into terrain features.
func NewGrid(w, h int, coverage float64, seed int64) *Grid {
	g := &Grid{
		W:       w,
		H:       h,
		terrain: make([]bool, w*h),
		occ:     make([]uint32, w*h),
		resAt:   make([]int32, w*h),
	}
	for i := range g.resAt {
		g.resAt[i] = -1
	}
	g.generateTerrain(coverage, seed)
	return g
}

// generateTerrain thresholds opensimplex noise at the coverage quantile so
// the requested fraction of cells becomes terrain, independent of the noise
// value distribution.
func (g *Grid) generateTerrain(coverage float64, seed int64) {
	if coverage <= 0 {
		return
	}
	noise := opensimplex.New(seed)
	values := make([]float64, g.W*g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			values[y*g.W+x] = noise.Eval2(float64(x)*terrainNoiseScale, float64(y)*terrainNoiseScale)
		}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	cut := sorted[len(sorted)-1]
	if idx := int(float64(len(sorted)) * (1 - coverage)); idx < len(sorted) {
		cut = sorted[idx]
	}
	for i, v := range values {
		g.terrain[i] = v >= cut
	}
}

// InBounds reports whether a cell exists.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

func (g *Grid) idx(x, y int) int { return y*g.W + x }

// KindAt returns what occupies a cell; out-of-bounds reads are terrain-like
// (never a fault, never enterable).
func (g *Grid) KindAt(x, y int) CellKind {
	if !g.InBounds(x, y) {
		return CellTerrain
	}
	i := g.idx(x, y)
	switch {
	case g.terrain[i]:
		return CellTerrain
	case g.occ[i] != 0:
		return CellWarrior
	case g.resAt[i] >= 0:
		return CellResource
	default:
		return CellEmpty
	}
}

// OccupantAt returns the warrior id at a cell, 0 if none.
func (g *Grid) OccupantAt(x, y int) uint32 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.occ[g.idx(x, y)]
}

// Free reports whether a warrior may enter the cell. Resource cells are
// enterable; consumption happens as part of the move.
func (g *Grid) Free(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	i := g.idx(x, y)
	return !g.terrain[i] && g.occ[i] == 0
}

// Place claims a cell for a warrior. Fails as a no-op on out-of-bounds,
// terrain, or occupied cells.
func (g *Grid) Place(id uint32, x, y int) bool {
	if id == 0 || !g.Free(x, y) {
		return false
	}
	g.occ[g.idx(x, y)] = id
	return true
}

// Remove clears a warrior from its cell. A stale position is ignored.
func (g *Grid) Remove(id uint32, x, y int) {
	if !g.InBounds(x, y) {
		return
	}
	i := g.idx(x, y)
	if g.occ[i] == id {
		g.occ[i] = 0
	}
}

// Move relocates a warrior between cells atomically within the serialized
// apply phase. Fails as a no-op when the target is not free.
func (g *Grid) Move(id uint32, fromX, fromY, toX, toY int) bool {
	if !g.InBounds(fromX, fromY) || g.occ[g.idx(fromX, fromY)] != id {
		return false
	}
	if !g.Free(toX, toY) {
		return false
	}
	g.occ[g.idx(fromX, fromY)] = 0
	g.occ[g.idx(toX, toY)] = id
	return true
}

// AddResource places a resource on an empty cell.
func (g *Grid) AddResource(r Resource) bool {
	if !g.InBounds(r.X, r.Y) {
		return false
	}
	i := g.idx(r.X, r.Y)
	if g.terrain[i] || g.occ[i] != 0 || g.resAt[i] >= 0 {
		return false
	}
	g.resAt[i] = int32(len(g.res))
	g.res = append(g.res, r)
	return true
}

// ConsumeResource removes the resource at a cell and returns its energy.
// At most one consumer can succeed per cell per tick because the apply phase
// is serialized.
func (g *Grid) ConsumeResource(x, y int) (float32, bool) {
	if !g.InBounds(x, y) {
		return 0, false
	}
	i := g.idx(x, y)
	ri := g.resAt[i]
	if ri < 0 {
		return 0, false
	}
	energy := g.res[ri].Energy
	g.removeResourceAt(int(ri))
	return energy, true
}

// removeResourceAt deletes by swapping with the tail, fixing the moved
// resource's cell index.
func (g *Grid) removeResourceAt(ri int) {
	r := g.res[ri]
	g.resAt[g.idx(r.X, r.Y)] = -1
	last := len(g.res) - 1
	if ri != last {
		moved := g.res[last]
		g.res[ri] = moved
		g.resAt[g.idx(moved.X, moved.Y)] = int32(ri)
	}
	g.res = g.res[:last]
}

// Resources returns the live resource list. Callers must not mutate it.
func (g *Grid) Resources() []Resource {
	return g.res
}

// ResourceCount returns the number of live resources.
func (g *Grid) ResourceCount() int {
	return len(g.res)
}

// RandomFreeCell draws an unoccupied non-terrain cell, or false when the
// grid is saturated. Rejection sampling with a bounded retry budget keeps
// the draw cheap; the fallback scan keeps it total.
func (g *Grid) RandomFreeCell(rng *rand.Rand) (int, int, bool) {
	for try := 0; try < 64; try++ {
		x := rng.Intn(g.W)
		y := rng.Intn(g.H)
		if g.Free(x, y) {
			return x, y, true
		}
	}
	start := rng.Intn(g.W * g.H)
	for off := 0; off < g.W*g.H; off++ {
		i := (start + off) % (g.W * g.H)
		if !g.terrain[i] && g.occ[i] == 0 {
			return i % g.W, i / g.W, true
		}
	}
	return 0, 0, false
}

// FreeNeighbor returns the first free adjacent cell scanning Neighbors8
// from the given preferred direction index. Returns false if all eight are
// blocked.
func (g *Grid) FreeNeighbor(x, y, dir int) (int, int, bool) {
	for off := 0; off < 8; off++ {
		d := Neighbors8[(dir+off)%8]
		nx, ny := x+d[0], y+d[1]
		if g.Free(nx, ny) {
			return nx, ny, true
		}
	}
	return 0, 0, false
}

// OccupiedNeighbor returns the first adjacent warrior scanning Neighbors8
// from the preferred direction. Returns 0 if none.
func (g *Grid) OccupiedNeighbor(x, y, dir int) (uint32, int, int) {
	for off := 0; off < 8; off++ {
		d := Neighbors8[(dir+off)%8]
		nx, ny := x+d[0], y+d[1]
		if id := g.OccupantAt(nx, ny); id != 0 {
			return id, nx, ny
		}
	}
	return 0, 0, 0
}
