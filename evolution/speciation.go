package evolution

import "github.com/pthm-cable/neurarena/genome"

// Species groups individuals by genome compatibility. The representative is
// the best member of the last generation the species appeared in.
type Species struct {
	ID             uint32
	Representative genome.Genome
	Size           int
	BestFitness    float64
	Staleness      int // generations without a best-fitness improvement
}

// Speciate partitions individuals by compatibility distance: each joins the
// first species whose representative is within the threshold, in species-id
// order, otherwise founds a new one. Assignments are written back to the
// individuals; empty species are pruned and the threshold adapts toward the
// configured target species count.
func (e *Engine) Speciate(inds []Individual) {
	for _, s := range e.species {
		s.Size = 0
	}

	for i := range inds {
		ind := &inds[i]
		assigned := false
		for _, s := range e.species {
			if genome.Compatibility(ind.Genome, s.Representative) < e.compatThreshold {
				ind.SpeciesID = s.ID
				s.Size++
				assigned = true
				break
			}
		}
		if !assigned {
			s := &Species{
				ID:             e.nextSpeciesID,
				Representative: ind.Genome,
				Size:           1,
				BestFitness:    ind.Fitness,
			}
			e.nextSpeciesID++
			e.species = append(e.species, s)
			ind.SpeciesID = s.ID
		}
	}

	e.updateSpeciesStats(inds)
	e.pruneEmpty()
	e.adaptThreshold()
}

// updateSpeciesStats refreshes best fitness, staleness, and representatives
// from this generation's members.
func (e *Engine) updateSpeciesStats(inds []Individual) {
	for _, s := range e.species {
		if s.Size == 0 {
			continue
		}
		var best *Individual
		for i := range inds {
			if inds[i].SpeciesID != s.ID {
				continue
			}
			if best == nil || inds[i].Fitness > best.Fitness {
				best = &inds[i]
			}
		}
		if best == nil {
			continue
		}
		if best.Fitness > s.BestFitness {
			s.BestFitness = best.Fitness
			s.Staleness = 0
		} else {
			s.Staleness++
		}
		s.Representative = best.Genome
	}
}

func (e *Engine) pruneEmpty() {
	kept := e.species[:0]
	for _, s := range e.species {
		if s.Size > 0 {
			kept = append(kept, s)
		}
	}
	e.species = kept
}

// adaptThreshold nudges the compatibility threshold toward the target
// species count. Bounded so speciation can never collapse to one species or
// shatter into singletons permanently.
func (e *Engine) adaptThreshold() {
	if e.params.TargetSpeciesCount <= 0 {
		return
	}
	if len(e.species) < e.params.TargetSpeciesCount {
		e.compatThreshold -= 0.01
	} else if len(e.species) > e.params.TargetSpeciesCount {
		e.compatThreshold += 0.01
	}
	if e.compatThreshold < 0.02 {
		e.compatThreshold = 0.02
	} else if e.compatThreshold > 1 {
		e.compatThreshold = 1
	}
}

// mutationRateFor returns the species-adjusted mutation rate: stagnant
// species mutate harder, tiny species get a small diversity bonus.
func (e *Engine) mutationRateFor(speciesID uint32) float64 {
	rate := e.params.MutationRate
	for _, s := range e.species {
		if s.ID != speciesID {
			continue
		}
		if e.params.StagnationGens > 0 {
			rate += float64(s.Staleness) / float64(e.params.StagnationGens) * 0.1
		}
		if s.Size < 5 {
			rate += 0.02
		}
		break
	}
	if rate > 0.5 {
		rate = 0.5
	}
	return rate
}
