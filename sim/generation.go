package sim

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/neurarena/evolution"
	"github.com/pthm-cable/neurarena/telemetry"
)

// RunGeneration steps until the current generation closes and returns its
// stats record. Returns nil when paused before the boundary was reached.
func (s *Sim) RunGeneration() *telemetry.GenerationStats {
	for !s.paused {
		if s.Step() {
			return s.lastStats
		}
	}
	return nil
}

// advanceGeneration runs the evolution transition at the generation
// boundary: finalize fitness over everyone who lived this generation,
// speciate, select, and replace the population.
func (s *Sim) advanceGeneration() {
	inds := s.collectIndividuals()
	survivors := 0
	for i := range inds {
		if inds[i].Survived {
			survivors++
		}
	}

	s.evo.FinalizeFitness(inds)
	s.evo.Speciate(inds)

	stats := s.buildStats(inds, survivors)
	children := s.evo.NextGeneration(s.rng, inds)
	stats.Degenerate = s.evo.Degenerate()

	s.collector.Flush(s.tick, stats)
	if s.opts.LogStats {
		stats.Log()
	}
	if err := s.output.WriteGeneration(*stats); err != nil {
		slog.Error("writing generation stats", "error", err)
	}
	s.lastStats = stats

	s.replacePopulation(children)

	s.dead = s.dead[:0]
	s.tickInGen = 0
	s.generation++
}

// collectIndividuals merges survivors with the generation's deceased so the
// evolution engine sees every life lived.
func (s *Sim) collectIndividuals() []evolution.Individual {
	inds := make([]evolution.Individual, 0, s.aliveCount+len(s.dead))

	query := s.warriorFilter.Query()
	for query.Next() {
		_, eng, ident, act := query.Get()
		if !eng.Alive {
			continue
		}
		inds = append(inds, s.lifeRecord(ident, eng, act, true))
	}
	inds = append(inds, s.dead...)
	// Speciation is first-fit and selection consumes RNG per index, so the
	// transition input must have one canonical order.
	sort.Slice(inds, func(i, j int) bool { return inds[i].ID < inds[j].ID })
	return inds
}

// buildStats assembles the generation record from finalized individuals and
// the live arena state.
func (s *Sim) buildStats(inds []evolution.Individual, survivors int) *telemetry.GenerationStats {
	stats := &telemetry.GenerationStats{
		Generation:    s.generation,
		Population:    s.aliveCount,
		SpeciesCount:  s.evo.SpeciesCount(),
		Pressure:      float64(s.dynamics.Pressure),
		ResourceCount: s.grid.ResourceCount(),
	}

	fitness := make([]float64, len(inds))
	for i := range inds {
		fitness[i] = inds[i].Fitness
		if inds[i].Lineage > stats.MaxLineage {
			stats.MaxLineage = inds[i].Lineage
		}
	}
	stats.AvgFitness, stats.MaxFitness, stats.Diversity = telemetry.FitnessSummary(fitness)
	if len(inds) > 0 {
		stats.SurvivalRate = float64(survivors) / float64(len(inds))
	}

	var totalEnergy, totalAge float64
	query := s.warriorFilter.Query()
	for query.Next() {
		_, eng, _, act := query.Get()
		if !eng.Alive {
			continue
		}
		totalEnergy += float64(eng.Value)
		totalAge += float64(act.Age)
	}
	if s.aliveCount > 0 {
		stats.AvgEnergy = totalEnergy / float64(s.aliveCount)
		stats.AvgAge = totalAge / float64(s.aliveCount)
	}
	return stats
}

// replacePopulation clears the arena and seeds the next generation's
// children at random free cells. Placement failure on a saturated grid
// drops the remaining children silently.
func (s *Sim) replacePopulation(children []evolution.Child) {
	s.clearPopulation()

	initial := s.cfg.Derived.InitialE32
	for _, child := range children {
		if _, err := s.spawnWarrior(child.Genome, child.Generation, child.Lineage, initial, -1, -1); err != nil {
			break
		}
	}
}

// clearPopulation removes every live warrior without recording deaths; the
// generation transition is a replacement, not a die-off.
func (s *Sim) clearPopulation() {
	type slot struct {
		id   uint32
		x, y int
	}
	var live []slot

	query := s.warriorFilter.Query()
	for query.Next() {
		pos, _, ident, _ := query.Get()
		live = append(live, slot{id: ident.ID, x: pos.X, y: pos.Y})
	}

	for _, w := range live {
		s.grid.Remove(w.id, w.x, w.y)
		entity := s.entities[w.id]
		s.warriorMapper.Remove(entity)
		delete(s.entities, w.id)
		delete(s.genomes, w.id)
		delete(s.networks, w.id)
	}
	s.aliveCount = 0
}
