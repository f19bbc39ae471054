package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats is one row of generations.csv.
type GenerationStats struct {
	Generation uint32 `csv:"generation"`
	StartTick  uint64 `csv:"-"`
	EndTick    uint64 `csv:"end_tick"`

	Population   int `csv:"population"`
	SpeciesCount int `csv:"species"`

	AvgFitness float64 `csv:"avg_fitness"`
	MaxFitness float64 `csv:"max_fitness"`
	Diversity  float64 `csv:"diversity"`

	AvgEnergy     float64 `csv:"avg_energy"`
	AvgAge        float64 `csv:"avg_age"`
	MaxLineage    uint32  `csv:"max_lineage"`
	SurvivalRate  float64 `csv:"survival_rate"`
	Pressure      float64 `csv:"pressure"`
	ResourceCount int     `csv:"resources"`

	Births            int     `csv:"births"`
	Deaths            int     `csv:"deaths"`
	Replications      int     `csv:"replications"`
	Attacks           int     `csv:"attacks"`
	Kills             int     `csv:"kills"`
	ResourcesConsumed int     `csv:"resources_consumed"`
	EnergyForaged     float64 `csv:"energy_foraged"`
	PressureEvents    int     `csv:"pressure_events"`
	SelfMutations     int     `csv:"self_mutations"`

	Degenerate bool `csv:"degenerate"` // generation used the fallback selection
}

// FitnessSummary computes mean, max, and standard deviation of a fitness
// sample. The standard deviation doubles as the diversity score reported in
// snapshots. Empty samples yield zeros.
func FitnessSummary(fitness []float64) (mean, max, stddev float64) {
	if len(fitness) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(fitness, nil)
	max = fitness[0]
	for _, f := range fitness[1:] {
		if f > max {
			max = f
		}
	}
	if len(fitness) > 1 {
		stddev = stat.StdDev(fitness, nil)
	}
	return mean, max, stddev
}

// Log emits the stats record through slog as structured fields.
func (s *GenerationStats) Log() {
	slog.Info("generation complete",
		"generation", s.Generation,
		"population", s.Population,
		"species", s.SpeciesCount,
		"avg_fitness", s.AvgFitness,
		"max_fitness", s.MaxFitness,
		"diversity", s.Diversity,
		"births", s.Births,
		"deaths", s.Deaths,
		"kills", s.Kills,
		"pressure", s.Pressure,
		"degenerate", s.Degenerate,
	)
}
