package arena

import "math/rand"

// Territory is a circular region with an optional owner and a resource
// spawn multiplier. Ownership is exclusive; the periodic claim pass assigns
// each territory to the strongest warrior inside it, ties broken by lower
// warrior id.
type Territory struct {
	CX, CY     int
	Radius     int
	Owner      uint32 // 0 = unclaimed
	Multiplier float32
}

// Contains reports whether a cell lies inside the territory.
func (t *Territory) Contains(x, y int) bool {
	dx := x - t.CX
	dy := y - t.CY
	return dx*dx+dy*dy <= t.Radius*t.Radius
}

// PlaceTerritories scatters count territories with randomized multipliers.
// Called once at initialization.
func (g *Grid) PlaceTerritories(rng *rand.Rand, count, radius int) {
	g.Territories = make([]Territory, 0, count)
	for i := 0; i < count; i++ {
		g.Territories = append(g.Territories, Territory{
			CX:         rng.Intn(g.W),
			CY:         rng.Intn(g.H),
			Radius:     radius,
			Multiplier: 0.8 + rng.Float32()*0.7,
		})
	}
}

// TerritoryAt returns the first territory containing the cell, or nil.
func (g *Grid) TerritoryAt(x, y int) *Territory {
	for i := range g.Territories {
		if g.Territories[i].Contains(x, y) {
			return &g.Territories[i]
		}
	}
	return nil
}

// SpawnMultiplier returns the resource multiplier at a cell (1 outside any
// territory).
func (g *Grid) SpawnMultiplier(x, y int) float32 {
	if t := g.TerritoryAt(x, y); t != nil {
		return t.Multiplier
	}
	return 1
}

// ClaimTerritories reassigns ownership from current occupancy. energyOf
// resolves a warrior's energy; warriors that cannot be resolved are skipped.
func (g *Grid) ClaimTerritories(energyOf func(uint32) (float32, bool)) {
	for ti := range g.Territories {
		t := &g.Territories[ti]
		var best uint32
		var bestEnergy float32
		x0, x1 := t.CX-t.Radius, t.CX+t.Radius
		y0, y1 := t.CY-t.Radius, t.CY+t.Radius
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if !g.InBounds(x, y) || !t.Contains(x, y) {
					continue
				}
				id := g.occ[g.idx(x, y)]
				if id == 0 {
					continue
				}
				e, ok := energyOf(id)
				if !ok {
					continue
				}
				if best == 0 || e > bestEnergy || (e == bestEnergy && id < best) {
					best = id
					bestEnergy = e
				}
			}
		}
		t.Owner = best
	}
}
