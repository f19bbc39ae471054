package main

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/neurarena/config"
	"github.com/pthm-cable/neurarena/sim"
	"github.com/pthm-cable/neurarena/telemetry"
)

// FitnessEvaluator runs headless simulations and scores parameter vectors.
// Lower is better (gonum/optimize minimizes).
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	bestFitness float64
	bestRaw     []float64
	evals       int
}

// NewFitnessEvaluator creates an evaluator over the given seeds.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// Best returns the best score and raw parameter vector seen so far.
func (fe *FitnessEvaluator) Best() (float64, []float64) {
	return fe.bestFitness, fe.bestRaw
}

// Evals returns the number of evaluations run.
func (fe *FitnessEvaluator) Evals() int {
	return fe.evals
}

// Evaluate scores one raw parameter vector: mean objective over all seeds.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	fe.evals++
	cfg := fe.params.Apply(fe.baseConfig, raw)
	if err := cfg.Validate(); err != nil {
		return 1e6
	}

	total := 0.0
	for _, seed := range fe.seeds {
		total += fe.runOne(cfg, seed)
	}
	score := total / float64(len(fe.seeds))

	if score < fe.bestFitness {
		fe.bestFitness = score
		fe.bestRaw = append([]float64(nil), raw...)
	}
	return score
}

// runOne scores a single seeded run. The objective rewards sustained
// population, species diversity near the configured target, and rising
// fitness; extinction and degenerate transitions are penalized.
func (fe *FitnessEvaluator) runOne(cfg *config.Config, seed int64) float64 {
	s, err := sim.New(cfg, sim.Options{Seed: seed})
	if err != nil {
		return 1e6
	}
	defer s.Close()
	s.InitializePopulation(cfg.Population.Initial)

	var history []*telemetry.GenerationStats
	for gen := 0; gen < fe.generations; gen++ {
		stats := s.RunGeneration()
		if stats == nil {
			break
		}
		history = append(history, stats)
	}
	if len(history) == 0 {
		return 1e6
	}

	penalty := 0.0
	popRatios := make([]float64, len(history))
	maxFit := make([]float64, len(history))
	for i, st := range history {
		popRatios[i] = float64(st.Population) / float64(cfg.Population.Max)
		maxFit[i] = st.MaxFitness
		if st.Degenerate {
			penalty += 50
		}
		if st.Population == 0 {
			penalty += 200
		}
		speciesGap := float64(st.SpeciesCount - cfg.Evolution.TargetSpeciesCount)
		penalty += math.Abs(speciesGap)
	}

	meanPop := stat.Mean(popRatios, nil)
	// Fitness trend: late-run mean minus early-run mean; improvement is good.
	half := len(maxFit) / 2
	trend := 0.0
	if half > 0 {
		trend = stat.Mean(maxFit[half:], nil) - stat.Mean(maxFit[:half], nil)
	}

	return penalty - 100*meanPop - trend
}
