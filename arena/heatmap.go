package arena

// Heatmap returns a read-only grid of normalized intensities for
// visualization: warriors read hottest, resources scale with their energy,
// terrain shows as a fixed low band. Never mutates grid state.
func (g *Grid) Heatmap() []float32 {
	out := make([]float32, g.W*g.H)

	var maxRes float32
	for i := range g.res {
		if g.res[i].Energy > maxRes {
			maxRes = g.res[i].Energy
		}
	}

	for i := range out {
		switch {
		case g.occ[i] != 0:
			out[i] = 1
		case g.resAt[i] >= 0:
			intensity := float32(0.75)
			if maxRes > 0 {
				intensity = 0.3 + 0.45*g.res[g.resAt[i]].Energy/maxRes
			}
			out[i] = intensity
		case g.terrain[i]:
			out[i] = 0.15
		}
	}
	return out
}
