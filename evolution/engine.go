// Package evolution runs the generation transition: fitness finalization,
// speciation, tournament selection, crossover, mutation, and elitism.
// All randomness comes from the caller's seeded RNG so a generation
// transition is fully reproducible.
package evolution

import (
	"math/rand"
	"sort"

	"github.com/pthm-cable/neurarena/genome"
)

// Individual is the evolution engine's view of one warrior's life, surviving
// or deceased. The scheduler records these over the generation.
type Individual struct {
	ID         uint32
	Genome     genome.Genome
	Generation uint32
	Lineage    uint32

	TicksSurvived uint32
	Foraged       float32
	Kills         uint32
	Survived      bool

	Fitness   float64 // finalized raw fitness
	shared    float64 // after fitness sharing
	SpeciesID uint32
}

// Child is a genome selected for the next generation with its lineage
// bookkeeping already advanced.
type Child struct {
	Genome     genome.Genome
	Generation uint32
	Lineage    uint32
	Elite      bool
}

// Params configures the engine. Values map one-to-one onto config fields.
type Params struct {
	MaxPopulation    int
	MinViable        int
	RecoveryFraction float64

	TournamentSize int
	ElitismRate    float64
	FitnessSharing bool

	MutationRate float64
	WeightSigma  float64

	SurvivalWeight float64
	ResourceWeight float64
	CombatWeight   float64

	TargetSpeciesCount int
	CompatThreshold    float64
	StagnationGens     int
}

// Engine holds species state that persists across generations.
type Engine struct {
	params Params

	species         []*Species
	nextSpeciesID   uint32
	compatThreshold float64

	// degenerate is set when the last transition had to fall back to
	// uniform random selection.
	degenerate bool
}

// NewEngine creates an engine with the configured starting threshold.
func NewEngine(p Params) *Engine {
	return &Engine{
		params:          p,
		compatThreshold: p.CompatThreshold,
		nextSpeciesID:   1,
	}
}

// EngineState is the cross-generation speciation state, captured for save
// files and restored on resume.
type EngineState struct {
	CompatThreshold float64
	NextSpeciesID   uint32
	Species         []Species
}

// State copies the engine's persistent speciation state.
func (e *Engine) State() EngineState {
	st := EngineState{
		CompatThreshold: e.compatThreshold,
		NextSpeciesID:   e.nextSpeciesID,
		Species:         make([]Species, 0, len(e.species)),
	}
	for _, s := range e.species {
		st.Species = append(st.Species, *s)
	}
	return st
}

// Restore replaces the engine's persistent state with a saved one.
func (e *Engine) Restore(st EngineState) {
	e.compatThreshold = st.CompatThreshold
	e.nextSpeciesID = st.NextSpeciesID
	e.species = e.species[:0]
	for i := range st.Species {
		sp := st.Species[i]
		e.species = append(e.species, &sp)
	}
}

// SpeciesCount returns the number of live species.
func (e *Engine) SpeciesCount() int { return len(e.species) }

// CompatThreshold returns the current adaptive threshold.
func (e *Engine) CompatThreshold() float64 { return e.compatThreshold }

// Degenerate reports whether the last transition used the uniform fallback.
func (e *Engine) Degenerate() bool { return e.degenerate }

// NextGeneration produces the replacement population from this generation's
// individuals. Fitness must already be finalized and speciation applied.
func (e *Engine) NextGeneration(rng *rand.Rand, inds []Individual) []Child {
	e.degenerate = false

	if len(inds) == 0 {
		return e.freshPopulation(rng)
	}
	if len(inds) < e.params.MinViable {
		return e.emergencyPopulation(rng, inds)
	}

	e.applyFitnessSharing(inds)

	target := len(inds)
	if target > e.params.MaxPopulation {
		target = e.params.MaxPopulation
	}

	children := make([]Child, 0, target)

	// Elitism: the top fraction of raw fitness carries forward unchanged.
	order := fitnessOrder(inds)
	elites := int(float64(target) * e.params.ElitismRate)
	if elites > len(inds) {
		elites = len(inds)
	}
	for i := 0; i < elites; i++ {
		p := &inds[order[i]]
		children = append(children, Child{
			Genome:     p.Genome,
			Generation: p.Generation + 1,
			Lineage:    p.Lineage,
			Elite:      true,
		})
	}

	uniform := e.zeroVariance(inds)
	e.degenerate = uniform

	for len(children) < target {
		p1 := e.selectParent(rng, inds, uniform)
		p2 := e.selectParent(rng, inds, uniform)

		g := genome.Crossover(rng, p1.Genome, p2.Genome)
		rate := e.mutationRateFor(p1.SpeciesID)
		g = g.Mutate(rng, rate, e.params.WeightSigma)

		children = append(children, Child{
			Genome:     g,
			Generation: maxU32(p1.Generation, p2.Generation) + 1,
			Lineage:    maxU32(p1.Lineage, p2.Lineage) + 1,
		})
	}
	return children
}

// selectParent runs one tournament; in the degenerate zero-variance state it
// falls back to a uniform draw instead of comparing meaningless fitness.
func (e *Engine) selectParent(rng *rand.Rand, inds []Individual, uniform bool) *Individual {
	if uniform {
		return &inds[rng.Intn(len(inds))]
	}
	best := &inds[rng.Intn(len(inds))]
	for i := 1; i < e.params.TournamentSize; i++ {
		candidate := &inds[rng.Intn(len(inds))]
		if candidate.shared > best.shared {
			best = candidate
		}
	}
	return best
}

// applyFitnessSharing normalizes raw fitness by species size when enabled.
func (e *Engine) applyFitnessSharing(inds []Individual) {
	if !e.params.FitnessSharing {
		for i := range inds {
			inds[i].shared = inds[i].Fitness
		}
		return
	}
	sizes := make(map[uint32]int)
	for i := range inds {
		sizes[inds[i].SpeciesID]++
	}
	for i := range inds {
		n := sizes[inds[i].SpeciesID]
		if n < 1 {
			n = 1
		}
		inds[i].shared = inds[i].Fitness / float64(n)
	}
}

// zeroVariance detects the degenerate evolution state: no spread in shared
// fitness to select on.
func (e *Engine) zeroVariance(inds []Individual) bool {
	first := inds[0].shared
	for i := 1; i < len(inds); i++ {
		if inds[i].shared != first {
			return false
		}
	}
	return true
}

// freshPopulation rebuilds from scratch after a total extinction.
func (e *Engine) freshPopulation(rng *rand.Rand) []Child {
	e.degenerate = true
	n := int(float64(e.params.MaxPopulation) * e.params.RecoveryFraction)
	if n < 1 {
		n = 1
	}
	children := make([]Child, 0, n)
	for i := 0; i < n; i++ {
		children = append(children, Child{Genome: genome.NewRandom(rng)})
	}
	return children
}

// emergencyPopulation clones and heavily mutates the best few survivors when
// the population collapses below viability.
func (e *Engine) emergencyPopulation(rng *rand.Rand, inds []Individual) []Child {
	n := int(float64(e.params.MaxPopulation) * e.params.RecoveryFraction)
	if n < len(inds) {
		n = len(inds)
	}
	order := fitnessOrder(inds)
	pool := order
	if len(pool) > 5 {
		pool = pool[:5]
	}
	children := make([]Child, 0, n)
	for i := 0; i < n; i++ {
		p := &inds[pool[i%len(pool)]]
		g := p.Genome.Mutate(rng, 0.2, e.params.WeightSigma)
		children = append(children, Child{
			Genome:     g,
			Generation: p.Generation + 1,
			Lineage:    p.Lineage + 1,
		})
	}
	return children
}

// fitnessOrder returns individual indices sorted by raw fitness descending,
// ties broken by id so the ordering is deterministic.
func fitnessOrder(inds []Individual) []int {
	order := make([]int, len(inds))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		fa, fb := inds[order[a]].Fitness, inds[order[b]].Fitness
		if fa != fb {
			return fa > fb
		}
		return inds[order[a]].ID < inds[order[b]].ID
	})
	return order
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
