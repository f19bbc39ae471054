// Package sim orchestrates the arena: it owns the grid, the warrior
// population, the neural VM, the scheduler, and the evolution engine, and
// exposes the step/generation/snapshot contract consumed by external
// presentation layers.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neurarena/arena"
	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/config"
	"github.com/pthm-cable/neurarena/evolution"
	"github.com/pthm-cable/neurarena/genome"
	"github.com/pthm-cable/neurarena/telemetry"
)

// Options configures a simulation run beyond the config file.
type Options struct {
	Seed      int64
	OutputDir string
	LogStats  bool
}

// Sim is the complete simulation state. All mutation happens on the single
// logical timeline: environment phase, then the scheduling pass, then (at
// boundaries) the evolution transition.
type Sim struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	world         *ecs.World
	warriorMapper *ecs.Map4[components.Position, components.Energy, components.Identity, components.Activity]
	warriorFilter *ecs.Filter4[components.Position, components.Energy, components.Identity, components.Activity]
	posMap        *ecs.Map1[components.Position]
	energyMap     *ecs.Map1[components.Energy]
	idMap         *ecs.Map1[components.Identity]
	actMap        *ecs.Map1[components.Activity]

	grid     *arena.Grid
	dynamics *arena.Dynamics
	evo      *evolution.Engine

	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// Per-warrior stores keyed by stable id, the arena+index pattern:
	// entities hold ids, ids resolve through these maps.
	genomes  map[uint32]genome.Genome
	networks map[uint32]*genome.Network
	entities map[uint32]ecs.Entity

	// dead accumulates lifecycle records of warriors removed mid-generation
	// so the evolution engine sees deceased individuals too.
	dead []evolution.Individual

	netParams genome.Params

	lastStats *telemetry.GenerationStats

	tick       uint64
	tickInGen  int
	generation uint32
	nextID     uint32
	aliveCount int
	paused     bool

	par *parallelState
}

// New builds a simulation from a validated config and a seed. The config is
// re-validated so embedders calling with a hand-built config get the same
// ValidationError guarantees as file loading.
func New(cfg *config.Config, opts Options) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	s := &Sim{
		cfg:  cfg,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),

		world: world,
		warriorMapper: ecs.NewMap4[
			components.Position,
			components.Energy,
			components.Identity,
			components.Activity,
		](world),
		warriorFilter: ecs.NewFilter4[
			components.Position,
			components.Energy,
			components.Identity,
			components.Activity,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		idMap:     ecs.NewMap1[components.Identity](world),
		actMap:    ecs.NewMap1[components.Activity](world),

		collector: telemetry.NewCollector(),
		output:    output,

		genomes:  make(map[uint32]genome.Genome),
		networks: make(map[uint32]*genome.Network),
		entities: make(map[uint32]ecs.Entity),

		netParams: genome.Params{
			HiddenMin:  cfg.Neural.HiddenMin,
			HiddenSpan: cfg.Derived.HiddenSpan,
		},
		nextID: 1,
	}

	s.grid = arena.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cfg.Environment.TerrainCoverage, opts.Seed)
	s.grid.PlaceTerritories(s.rng, cfg.Environment.TerritoryCount, cfg.Environment.TerritoryRadius)

	s.dynamics = arena.NewDynamics(arena.DynamicsParams{
		SpawnRate:          cfg.Environment.ResourceSpawnRate,
		MaxResources:       cfg.Environment.MaxResources,
		EnergyMin:          cfg.Environment.ResourceEnergyMin,
		EnergyMax:          cfg.Environment.ResourceEnergyMax,
		ComputationalBonus: cfg.Environment.ComputationalBonus,
		TerritoryBonus:     cfg.Environment.TerritoryBonus,
		DecayRate:          cfg.Environment.ResourceDecayRate,
		EventChance:        cfg.Environment.EventChance,
		IntensityMin:       cfg.Environment.EventIntensityMin,
		IntensityMax:       cfg.Environment.EventIntensityMax,
		CarryingCapacity:   cfg.Population.Max,
	})

	s.evo = evolution.NewEngine(evolution.Params{
		MaxPopulation:      cfg.Population.Max,
		MinViable:          cfg.Population.MinViable,
		RecoveryFraction:   cfg.Population.RecoveryFraction,
		TournamentSize:     cfg.Evolution.TournamentSize,
		ElitismRate:        cfg.Evolution.ElitismRate,
		FitnessSharing:     cfg.Evolution.FitnessSharing,
		MutationRate:       cfg.Mutation.Rate,
		WeightSigma:        cfg.Mutation.WeightSigma,
		SurvivalWeight:     cfg.Evolution.SurvivalWeight,
		ResourceWeight:     cfg.Evolution.ResourceWeight,
		CombatWeight:       cfg.Evolution.CombatWeight,
		TargetSpeciesCount: cfg.Evolution.TargetSpeciesCount,
		CompatThreshold:    cfg.Evolution.CompatThreshold,
		StagnationGens:     cfg.Evolution.StagnationGens,
	})

	s.par = newParallelState(cfg.Scheduler.Workers)

	if err := output.WriteConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Tick returns the global tick counter.
func (s *Sim) Tick() uint64 { return s.tick }

// Generation returns the completed-generation counter.
func (s *Sim) Generation() uint32 { return s.generation }

// Population returns the live warrior count.
func (s *Sim) Population() int { return s.aliveCount }

// Pause stops stepping between ticks. A paused Sim refuses Step and
// RunGeneration until Resume; a tick is never interrupted midway.
func (s *Sim) Pause() { s.paused = true }

// Resume re-enables stepping.
func (s *Sim) Resume() { s.paused = false }

// Paused reports the pause flag.
func (s *Sim) Paused() bool { return s.paused }

// Close releases output resources and stops the worker pool.
func (s *Sim) Close() error {
	s.par.stop()
	return s.output.Close()
}

// energyOf resolves a live warrior's energy by id, for sensors and
// territory claims.
func (s *Sim) energyOf(id uint32) (float32, bool) {
	entity, ok := s.entities[id]
	if !ok || !s.world.Alive(entity) {
		return 0, false
	}
	e := s.energyMap.Get(entity)
	if e == nil || !e.Alive {
		return 0, false
	}
	return e.Value, true
}
