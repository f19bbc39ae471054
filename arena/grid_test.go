package arena

import (
	"math/rand"
	"testing"
)

// flatGrid builds a grid with no terrain so placement tests are exact.
func flatGrid(w, h int) *Grid {
	return NewGrid(w, h, 0, 1)
}

func TestPlaceExclusivity(t *testing.T) {
	g := flatGrid(8, 8)

	if !g.Place(1, 3, 3) {
		t.Fatal("first placement failed")
	}
	if g.Place(2, 3, 3) {
		t.Error("second placement on occupied cell succeeded")
	}
	if got := g.OccupantAt(3, 3); got != 1 {
		t.Errorf("occupant = %d, want 1", got)
	}
}

func TestPlaceRejectsInvalid(t *testing.T) {
	g := flatGrid(8, 8)

	tests := []struct {
		name string
		id   uint32
		x, y int
	}{
		{"zero id", 0, 1, 1},
		{"negative x", 1, -1, 0},
		{"x past edge", 1, 8, 0},
		{"y past edge", 1, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g.Place(tt.id, tt.x, tt.y) {
				t.Error("placement succeeded, want rejection")
			}
		})
	}
}

func TestMove(t *testing.T) {
	g := flatGrid(8, 8)
	g.Place(1, 2, 2)
	g.Place(2, 3, 2)

	if g.Move(1, 2, 2, 3, 2) {
		t.Error("move onto occupied cell succeeded")
	}
	if !g.Move(1, 2, 2, 2, 3) {
		t.Error("move onto free cell failed")
	}
	if g.OccupantAt(2, 2) != 0 {
		t.Error("origin cell still occupied after move")
	}
	if g.OccupantAt(2, 3) != 1 {
		t.Error("destination cell not claimed after move")
	}
	if g.Move(1, 2, 2, 2, 4) {
		t.Error("move from stale origin succeeded")
	}
}

func TestRemoveStalePosition(t *testing.T) {
	g := flatGrid(8, 8)
	g.Place(1, 2, 2)
	g.Place(2, 4, 4)

	g.Remove(1, 4, 4) // wrong cell for warrior 1
	if g.OccupantAt(4, 4) != 2 {
		t.Error("stale remove cleared another warrior's cell")
	}
	g.Remove(1, 2, 2)
	if g.OccupantAt(2, 2) != 0 {
		t.Error("remove did not clear the cell")
	}
}

func TestOutOfBoundsReads(t *testing.T) {
	g := flatGrid(4, 4)

	if got := g.KindAt(-1, 0); got != CellTerrain {
		t.Errorf("KindAt(-1,0) = %v, want terrain-like", got)
	}
	if got := g.OccupantAt(99, 99); got != 0 {
		t.Errorf("OccupantAt out of bounds = %d, want 0", got)
	}
	if g.Free(-1, -1) {
		t.Error("out-of-bounds cell reported free")
	}
}

func TestResourceConsume(t *testing.T) {
	g := flatGrid(8, 8)

	if !g.AddResource(Resource{X: 2, Y: 2, Energy: 10}) {
		t.Fatal("AddResource failed")
	}
	if g.AddResource(Resource{X: 2, Y: 2, Energy: 5}) {
		t.Error("second resource on the same cell accepted")
	}

	e, ok := g.ConsumeResource(2, 2)
	if !ok || e != 10 {
		t.Errorf("ConsumeResource = %v,%v, want 10,true", e, ok)
	}
	if _, ok := g.ConsumeResource(2, 2); ok {
		t.Error("second consume on the same cell succeeded")
	}
	if g.ResourceCount() != 0 {
		t.Errorf("resource count = %d, want 0", g.ResourceCount())
	}
}

func TestAddResourceRejectsOccupiedCell(t *testing.T) {
	g := flatGrid(8, 8)
	g.Place(42, 3, 3)

	if g.AddResource(Resource{X: 3, Y: 3, Energy: 10}) {
		t.Fatal("resource placed on a warrior-occupied cell")
	}
	if got := g.KindAt(3, 3); got != CellWarrior {
		t.Errorf("KindAt = %v, want warrior", got)
	}
	if g.ResourceCount() != 0 {
		t.Errorf("resource count = %d, want 0", g.ResourceCount())
	}
}

func TestResourceSwapRemoval(t *testing.T) {
	g := flatGrid(8, 8)
	g.AddResource(Resource{X: 1, Y: 1, Energy: 1})
	g.AddResource(Resource{X: 2, Y: 2, Energy: 2})
	g.AddResource(Resource{X: 3, Y: 3, Energy: 3})

	g.ConsumeResource(1, 1)

	// The moved tail resource must still be findable at its own cell.
	if e, ok := g.ConsumeResource(3, 3); !ok || e != 3 {
		t.Errorf("tail resource lookup after swap = %v,%v, want 3,true", e, ok)
	}
	if e, ok := g.ConsumeResource(2, 2); !ok || e != 2 {
		t.Errorf("middle resource lookup = %v,%v, want 2,true", e, ok)
	}
}

func TestFreeNeighborScanOrder(t *testing.T) {
	g := flatGrid(8, 8)

	// Block east; preferred direction 0 (east) must fall through to the
	// next clockwise free cell.
	g.Place(9, 5, 4)
	x, y, ok := g.FreeNeighbor(4, 4, 0)
	if !ok {
		t.Fatal("no free neighbor found")
	}
	if x != 5 || y != 5 {
		t.Errorf("neighbor = %d,%d, want 5,5 (southeast)", x, y)
	}
}

func TestFreeNeighborAllBlocked(t *testing.T) {
	g := flatGrid(8, 8)
	id := uint32(10)
	for _, d := range Neighbors8 {
		g.Place(id, 4+d[0], 4+d[1])
		id++
	}
	if _, _, ok := g.FreeNeighbor(4, 4, 3); ok {
		t.Error("found a free neighbor in a fully blocked ring")
	}
}

func TestRandomFreeCellSaturated(t *testing.T) {
	g := flatGrid(2, 2)
	id := uint32(1)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			g.Place(id, x, y)
			id++
		}
	}
	rng := rand.New(rand.NewSource(1))
	if _, _, ok := g.RandomFreeCell(rng); ok {
		t.Error("found a free cell on a saturated grid")
	}
}

func TestTerrainCoverage(t *testing.T) {
	g := NewGrid(32, 32, 0.25, 42)
	terrain := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if g.KindAt(x, y) == CellTerrain {
				terrain++
			}
		}
	}
	frac := float64(terrain) / (32 * 32)
	if frac < 0.15 || frac > 0.35 {
		t.Errorf("terrain fraction = %v, want near 0.25", frac)
	}
}

func TestTerrainDeterministicFromSeed(t *testing.T) {
	a := NewGrid(16, 16, 0.1, 7)
	b := NewGrid(16, 16, 0.1, 7)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if a.KindAt(x, y) != b.KindAt(x, y) {
				t.Fatalf("terrain differs at %d,%d for the same seed", x, y)
			}
		}
	}
}
