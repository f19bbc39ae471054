// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ValidationError reports an invalid configuration value at load time.
// The simulation is never started with an invalid config.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Config holds all simulation configuration parameters.
type Config struct {
	Grid        GridConfig        `yaml:"grid"`
	Population  PopulationConfig  `yaml:"population"`
	Energy      EnergyConfig      `yaml:"energy"`
	Neural      NeuralConfig      `yaml:"neural"`
	Mutation    MutationConfig    `yaml:"mutation"`
	Evolution   EvolutionConfig   `yaml:"evolution"`
	Environment EnvironmentConfig `yaml:"environment"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds arena memory dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Max              int     `yaml:"max"`               // hard population cap
	Initial          int     `yaml:"initial"`           // seeded at startup
	MinViable        int     `yaml:"min_viable"`        // below this the evolution engine rebuilds
	RecoveryFraction float64 `yaml:"recovery_fraction"` // fraction of Max rebuilt on collapse
}

// EnergyConfig holds the warrior energy economy.
type EnergyConfig struct {
	Initial       float64 `yaml:"initial"`        // starting energy for fresh warriors
	Max           float64 `yaml:"max"`            // energy cap per warrior
	SurvivalCost  float64 `yaml:"survival_cost"`  // deducted every tick regardless of action
	MoveCost      float64 `yaml:"move_cost"`      // per move action
	AttackCost    float64 `yaml:"attack_cost"`    // per attack action
	AttackDamage  float64 `yaml:"attack_damage"`  // energy removed from the target
	DefendCost    float64 `yaml:"defend_cost"`    // per defend action
	ShieldFactor  float64 `yaml:"shield_factor"`  // incoming damage multiplier while defending
	ReplicateCost float64 `yaml:"replicate_cost"` // per replicate action
	ChildFraction float64 `yaml:"child_fraction"` // child starts with this fraction of parent energy
	MutateCost    float64 `yaml:"mutate_cost"`    // per self-mutation opcode
}

// NeuralConfig holds network decode parameters.
type NeuralConfig struct {
	HiddenMin         int     `yaml:"hidden_min"`         // smallest decodable hidden layer
	HiddenMax         int     `yaml:"hidden_max"`         // largest decodable hidden layer
	BackpropEnabled   bool    `yaml:"backprop_enabled"`   // phenotypic weight nudging per tick
	BackpropRate      float64 `yaml:"backprop_rate"`      // nudge step size
	BackpropWriteback bool    `yaml:"backprop_writeback"` // write nudged weights back into the genome
	SelfMutationRate  float64 `yaml:"self_mutation_rate"` // per-tick chance of the heritable MUTATE opcode
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	Rate        float64 `yaml:"rate"`         // per-byte mutation probability
	WeightSigma float64 `yaml:"weight_sigma"` // gaussian perturbation scale, in byte units
}

// EvolutionConfig holds generation-boundary parameters.
type EvolutionConfig struct {
	TicksPerGeneration  int     `yaml:"ticks_per_generation"`
	MaxGenerations      int     `yaml:"max_generations"`
	TournamentSize      int     `yaml:"tournament_size"`
	ElitismRate         float64 `yaml:"elitism_rate"`
	FitnessSharing      bool    `yaml:"fitness_sharing"`
	SurvivalThreshold   float64 `yaml:"survival_threshold"`
	TargetSpeciesCount  int     `yaml:"target_species_count"`
	CompatThreshold     float64 `yaml:"compat_threshold"`
	StagnationGens      int     `yaml:"stagnation_gens"`
	SurvivalWeight      float64 `yaml:"survival_weight"`  // fitness weight on ticks survived
	ResourceWeight      float64 `yaml:"resource_weight"`  // fitness weight on energy foraged
	CombatWeight        float64 `yaml:"combat_weight"`    // fitness weight on kills
	PerformanceTargetPS int     `yaml:"performance_target_ps"` // ticks/sec, advisory only
}

// EnvironmentConfig holds resource spawning and pressure event parameters.
type EnvironmentConfig struct {
	ResourceSpawnRate  float64 `yaml:"resource_spawn_rate"` // expected spawns per tick at zero pressure
	MaxResources       int     `yaml:"max_resources"`
	ResourceEnergyMin  float64 `yaml:"resource_energy_min"`
	ResourceEnergyMax  float64 `yaml:"resource_energy_max"`
	ComputationalBonus float64 `yaml:"computational_bonus"` // value multiplier for computational resources
	TerritoryBonus     float64 `yaml:"territory_bonus"`     // value multiplier for territory resources
	ResourceDecayRate  float64 `yaml:"resource_decay_rate"` // per-resource per-tick removal chance
	TerritoryCount     int     `yaml:"territory_count"`
	TerritoryRadius    int     `yaml:"territory_radius"`
	TerrainCoverage    float64 `yaml:"terrain_coverage"` // noise threshold quantile for terrain cells
	EventChance        float64 `yaml:"event_chance"`     // per-tick chance of a pressure event
	EventIntensityMin  float64 `yaml:"event_intensity_min"`
	EventIntensityMax  float64 `yaml:"event_intensity_max"`
	ClaimInterval      int     `yaml:"claim_interval"` // ticks between territory ownership passes
}

// SchedulerConfig holds fairness and parallelism parameters.
type SchedulerConfig struct {
	MaxSlicesPerTick  int `yaml:"max_slices_per_tick"` // cap on catch-up slices per warrior
	ParallelThreshold int `yaml:"parallel_threshold"`  // population below this runs single-threaded
	Workers           int `yaml:"workers"`             // 0 = GOMAXPROCS
}

// TelemetryConfig holds stats output settings.
type TelemetryConfig struct {
	FlushEvery int `yaml:"flush_every"` // generations between CSV flushes
}

// DerivedConfig holds values computed from loaded config.
type DerivedConfig struct {
	Cells          int     // Grid.Width * Grid.Height
	InitialE32     float32 // Energy.Initial as float32
	MaxE32         float32 // Energy.Max as float32
	SurvivalCost32 float32
	HiddenSpan     int // HiddenMax - HiddenMin + 1
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all values that would make the simulation unrunnable and
// refreshes the derived values on success, so hand-built configs pass
// through the same guarantees as file loading.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return &ValidationError{Field: "grid", Reason: fmt.Sprintf("dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)}
	}
	if c.Population.Max <= 0 {
		return &ValidationError{Field: "population.max", Reason: "must be positive"}
	}
	if c.Population.Max > c.Grid.Width*c.Grid.Height {
		return &ValidationError{Field: "population.max", Reason: "exceeds grid capacity"}
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		return &ValidationError{Field: "mutation.rate", Reason: "must be in [0,1]"}
	}
	if c.Evolution.ElitismRate < 0 || c.Evolution.ElitismRate > 1 {
		return &ValidationError{Field: "evolution.elitism_rate", Reason: "must be in [0,1]"}
	}
	if c.Evolution.TournamentSize < 1 {
		return &ValidationError{Field: "evolution.tournament_size", Reason: "must be at least 1"}
	}
	if c.Evolution.TicksPerGeneration < 1 {
		return &ValidationError{Field: "evolution.ticks_per_generation", Reason: "must be at least 1"}
	}
	if c.Neural.HiddenMin < 1 || c.Neural.HiddenMax < c.Neural.HiddenMin {
		return &ValidationError{Field: "neural.hidden", Reason: fmt.Sprintf("need 1 <= hidden_min <= hidden_max, got %d..%d", c.Neural.HiddenMin, c.Neural.HiddenMax)}
	}
	if c.Neural.HiddenMax > 64 {
		// The connection mask is 64 bits wide.
		return &ValidationError{Field: "neural.hidden_max", Reason: "must not exceed 64"}
	}
	if c.Energy.SurvivalCost < 0 {
		return &ValidationError{Field: "energy.survival_cost", Reason: "must be non-negative"}
	}
	if c.Environment.MaxResources < 0 {
		return &ValidationError{Field: "environment.max_resources", Reason: "must be non-negative"}
	}
	if c.Scheduler.MaxSlicesPerTick < 1 {
		return &ValidationError{Field: "scheduler.max_slices_per_tick", Reason: "must be at least 1"}
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.Grid.Width * c.Grid.Height
	c.Derived.InitialE32 = float32(c.Energy.Initial)
	c.Derived.MaxE32 = float32(c.Energy.Max)
	c.Derived.SurvivalCost32 = float32(c.Energy.SurvivalCost)
	c.Derived.HiddenSpan = c.Neural.HiddenMax - c.Neural.HiddenMin + 1
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
