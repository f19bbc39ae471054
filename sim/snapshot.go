package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/neurarena/arena"
	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/evolution"
	"github.com/pthm-cable/neurarena/genome"
	"github.com/pthm-cable/neurarena/telemetry"
)

// Snapshot builds the read-only post-tick view for external consumers.
// Warriors are listed in ascending id order.
func (s *Sim) Snapshot() *telemetry.StateSnapshot {
	snap := &telemetry.StateSnapshot{
		Generation:   s.generation,
		Tick:         s.tick,
		Population:   s.aliveCount,
		SpeciesCount: s.evo.SpeciesCount(),
		Pressure:     float32(s.dynamics.Pressure),
		ActiveEvent:  s.dynamics.ActiveEvent().String(),
	}

	query := s.warriorFilter.Query()
	for query.Next() {
		pos, eng, ident, act := query.Get()
		if !eng.Alive {
			continue
		}
		snap.Warriors = append(snap.Warriors, telemetry.WarriorState{
			ID:           ident.ID,
			X:            pos.X,
			Y:            pos.Y,
			Energy:       eng.Value,
			Age:          act.Age,
			Fitness:      s.liveFitness(ident, eng, act),
			Generation:   ident.Generation,
			LineageDepth: ident.Lineage,
			SpeciesID:    ident.SpeciesID,
			LastAction:   act.LastAction.String(),
		})
	}
	sort.Slice(snap.Warriors, func(i, j int) bool {
		return snap.Warriors[i].ID < snap.Warriors[j].ID
	})

	// Summarize in id order so the aggregate floats are reproducible.
	fitness := make([]float64, len(snap.Warriors))
	for i := range snap.Warriors {
		fitness[i] = snap.Warriors[i].Fitness
	}
	snap.AvgFitness, snap.MaxFitness, snap.Diversity = telemetry.FitnessSummary(fitness)

	for _, r := range s.grid.Resources() {
		snap.Resources = append(snap.Resources, telemetry.ResourceState{
			X:      r.X,
			Y:      r.Y,
			Energy: r.Energy,
			Type:   r.Type.String(),
		})
	}
	for i := range s.grid.Territories {
		t := &s.grid.Territories[i]
		snap.Territories = append(snap.Territories, telemetry.TerritoryState{
			CX:         t.CX,
			CY:         t.CY,
			Radius:     t.Radius,
			Owner:      t.Owner,
			Multiplier: t.Multiplier,
		})
	}
	return snap
}

// liveFitness is the running fitness estimate shown in snapshots before the
// generation finalizes.
func (s *Sim) liveFitness(ident *components.Identity, eng *components.Energy, act *components.Activity) float64 {
	ind := evolution.Individual{
		TicksSurvived: act.Age,
		Foraged:       eng.Foraged,
		Kills:         act.Kills,
		Lineage:       ident.Lineage,
	}
	inds := []evolution.Individual{ind}
	s.evo.FinalizeFitness(inds)
	return inds[0].Fitness
}

// Heatmap returns the normalized per-cell activity view.
func (s *Sim) Heatmap() []float32 {
	return s.grid.Heatmap()
}

// NetworkTopology builds the node/connection view of one warrior's decoded
// network for visualization. Returns an error for unknown ids.
func (s *Sim) NetworkTopology(id uint32) (*telemetry.NetworkTopology, error) {
	net, ok := s.networks[id]
	if !ok {
		return nil, fmt.Errorf("sim: no warrior %d", id)
	}

	topo := &telemetry.NetworkTopology{WarriorID: id}

	// Node ids: inputs 0..7, hidden 8..8+H-1, outputs after that.
	hiddenBase := genome.NumInputs
	outputBase := hiddenBase + net.Hidden

	for i := 0; i < genome.NumInputs; i++ {
		topo.Nodes = append(topo.Nodes, telemetry.TopologyNode{ID: i, Type: "input"})
	}
	for h := 0; h < net.Hidden; h++ {
		if !net.Enabled(h) {
			continue
		}
		topo.Nodes = append(topo.Nodes, telemetry.TopologyNode{
			ID:   hiddenBase + h,
			Type: "hidden",
			Bias: net.B1[h],
		})
		for i := 0; i < genome.NumInputs; i++ {
			topo.Connections = append(topo.Connections, telemetry.TopologyConnection{
				From:   i,
				To:     hiddenBase + h,
				Weight: net.W1[h*genome.NumInputs+i],
			})
		}
	}
	for o := 0; o < genome.NumOutputs; o++ {
		topo.Nodes = append(topo.Nodes, telemetry.TopologyNode{
			ID:   outputBase + o,
			Type: "output",
			Bias: net.B2[o],
		})
		for h := 0; h < net.Hidden; h++ {
			if !net.Enabled(h) {
				continue
			}
			topo.Connections = append(topo.Connections, telemetry.TopologyConnection{
				From:   hiddenBase + h,
				To:     outputBase + o,
				Weight: net.W2[o*net.Hidden+h],
			})
		}
	}
	return topo, nil
}

// ExportGenome returns a copy of a warrior's genome bytes.
func (s *Sim) ExportGenome(id uint32) ([]byte, error) {
	g, ok := s.genomes[id]
	if !ok {
		return nil, fmt.Errorf("sim: no warrior %d", id)
	}
	return g.Bytes(), nil
}

// ImportGenome injects an external genome as a new warrior at a random free
// cell. The bytes are size-validated before anything is placed.
func (s *Sim) ImportGenome(data []byte) (uint32, error) {
	g, err := genome.FromBytes(data)
	if err != nil {
		return 0, err
	}
	return s.spawnWarrior(g, s.generation, 0, s.cfg.Derived.InitialE32, -1, -1)
}

// SaveState captures the complete resumable state. Call between ticks only.
// Saving rotates the simulation RNG onto a checkpoint seed recorded in the
// file, so the saving run and a run resumed from the file continue on the
// same random stream.
func (s *Sim) SaveState(path string) error {
	state := &telemetry.SimState{
		Version:    telemetry.SnapshotVersion,
		Seed:       s.opts.Seed,
		Tick:       s.tick,
		TickInGen:  s.tickInGen,
		Generation: s.generation,
		NextID:     s.nextID,
	}

	query := s.warriorFilter.Query()
	for query.Next() {
		pos, eng, ident, act := query.Get()
		if !eng.Alive {
			continue
		}
		state.Warriors = append(state.Warriors, telemetry.SavedWarrior{
			WarriorState: telemetry.WarriorState{
				ID:           ident.ID,
				X:            pos.X,
				Y:            pos.Y,
				Energy:       eng.Value,
				Age:          act.Age,
				Generation:   ident.Generation,
				LineageDepth: ident.Lineage,
				SpeciesID:    ident.SpeciesID,
				LastAction:   act.LastAction.String(),
			},
			Genome:   s.genomes[ident.ID].Bytes(),
			Foraged:  eng.Foraged,
			Kills:    act.Kills,
			BornTick: ident.BornTick,
			Slices:   act.Slices,
		})
	}
	sort.Slice(state.Warriors, func(i, j int) bool {
		return state.Warriors[i].ID < state.Warriors[j].ID
	})

	for _, r := range s.grid.Resources() {
		state.Resources = append(state.Resources, telemetry.ResourceState{
			X:      r.X,
			Y:      r.Y,
			Energy: r.Energy,
			Type:   r.Type.String(),
		})
	}
	for i := range s.grid.Territories {
		t := &s.grid.Territories[i]
		state.Territories = append(state.Territories, telemetry.TerritoryState{
			CX:         t.CX,
			CY:         t.CY,
			Radius:     t.Radius,
			Owner:      t.Owner,
			Multiplier: t.Multiplier,
		})
	}

	for _, d := range s.dead {
		state.Dead = append(state.Dead, telemetry.SavedDead{
			ID:            d.ID,
			Genome:        d.Genome.Bytes(),
			Generation:    d.Generation,
			Lineage:       d.Lineage,
			TicksSurvived: d.TicksSurvived,
			Foraged:       d.Foraged,
			Kills:         d.Kills,
			SpeciesID:     d.SpeciesID,
		})
	}
	state.Counters = s.collector.Export()

	dyn := s.dynamics.State()
	state.Dynamics = telemetry.SavedDynamics{
		Pressure:   dyn.Pressure,
		Scarcity:   dyn.Scarcity,
		Event:      dyn.Event.String(),
		EventTicks: dyn.EventTicks,
	}

	evoState := s.evo.State()
	state.Evolution = telemetry.SavedEvolution{
		CompatThreshold: evoState.CompatThreshold,
		NextSpeciesID:   evoState.NextSpeciesID,
	}
	for _, sp := range evoState.Species {
		state.Evolution.Species = append(state.Evolution.Species, telemetry.SavedSpecies{
			ID:             sp.ID,
			Representative: sp.Representative.Bytes(),
			BestFitness:    sp.BestFitness,
			Staleness:      sp.Staleness,
		})
	}

	state.RNGSeed = s.opts.Seed ^ int64(s.tick+1)*0x9E3779B9
	s.rng = rand.New(rand.NewSource(state.RNGSeed))

	return state.Save(path)
}

// LoadState rebuilds a simulation from a saved state file. The config must
// match the one the state was saved under; terrain regenerates from the
// stored seed.
func (s *Sim) LoadState(path string) error {
	state, err := telemetry.LoadSimState(path)
	if err != nil {
		return err
	}

	s.clearPopulation()
	s.grid = arena.NewGrid(s.cfg.Grid.Width, s.cfg.Grid.Height, s.cfg.Environment.TerrainCoverage, state.Seed)

	s.tick = state.Tick
	s.tickInGen = state.TickInGen
	s.generation = state.Generation

	for _, rs := range state.Resources {
		s.grid.AddResource(arena.Resource{
			X:      rs.X,
			Y:      rs.Y,
			Energy: rs.Energy,
			Type:   resourceTypeFromString(rs.Type),
		})
	}
	for _, ts := range state.Territories {
		s.grid.Territories = append(s.grid.Territories, arena.Territory{
			CX:         ts.CX,
			CY:         ts.CY,
			Radius:     ts.Radius,
			Owner:      ts.Owner,
			Multiplier: ts.Multiplier,
		})
	}

	for _, w := range state.Warriors {
		g, err := genome.FromBytes(w.Genome)
		if err != nil {
			return fmt.Errorf("sim: warrior %d: %w", w.ID, err)
		}
		if !s.grid.Place(w.ID, w.X, w.Y) {
			return fmt.Errorf("sim: warrior %d: cell %d,%d not placeable", w.ID, w.X, w.Y)
		}
		pos := components.Position{X: w.X, Y: w.Y}
		eng := components.Energy{Value: w.Energy, Max: s.cfg.Derived.MaxE32, Alive: true, Foraged: w.Foraged}
		ident := components.Identity{
			ID:         w.ID,
			Generation: w.Generation,
			Lineage:    w.LineageDepth,
			SpeciesID:  w.SpeciesID,
			BornTick:   w.BornTick,
		}
		act := components.Activity{
			LastAction: actionFromString(w.LastAction),
			Age:        w.Age,
			Kills:      w.Kills,
			Slices:     w.Slices,
		}
		entity := s.warriorMapper.NewEntity(&pos, &eng, &ident, &act)
		s.entities[w.ID] = entity
		s.genomes[w.ID] = g
		s.networks[w.ID] = genome.Decode(g, s.netParams)
		s.aliveCount++
	}

	s.dead = s.dead[:0]
	for _, d := range state.Dead {
		g, err := genome.FromBytes(d.Genome)
		if err != nil {
			return fmt.Errorf("sim: dead record %d: %w", d.ID, err)
		}
		s.dead = append(s.dead, evolution.Individual{
			ID:            d.ID,
			Genome:        g,
			Generation:    d.Generation,
			Lineage:       d.Lineage,
			TicksSurvived: d.TicksSurvived,
			Foraged:       d.Foraged,
			Kills:         d.Kills,
			SpeciesID:     d.SpeciesID,
		})
	}

	s.collector.Restore(state.Counters)
	s.dynamics.Restore(arena.DynamicsState{
		Pressure:   state.Dynamics.Pressure,
		Scarcity:   state.Dynamics.Scarcity,
		Event:      arena.EventFromString(state.Dynamics.Event),
		EventTicks: state.Dynamics.EventTicks,
	})

	evoState := evolution.EngineState{
		CompatThreshold: state.Evolution.CompatThreshold,
		NextSpeciesID:   state.Evolution.NextSpeciesID,
	}
	for _, sp := range state.Evolution.Species {
		g, err := genome.FromBytes(sp.Representative)
		if err != nil {
			return fmt.Errorf("sim: species %d representative: %w", sp.ID, err)
		}
		evoState.Species = append(evoState.Species, evolution.Species{
			ID:             sp.ID,
			Representative: g,
			BestFitness:    sp.BestFitness,
			Staleness:      sp.Staleness,
		})
	}
	s.evo.Restore(evoState)

	s.rng = rand.New(rand.NewSource(state.RNGSeed))

	// nextID must clear every restored id even if the save predates one.
	s.nextID = state.NextID
	for _, w := range state.Warriors {
		if w.ID >= s.nextID {
			s.nextID = w.ID + 1
		}
	}
	return nil
}

func resourceTypeFromString(t string) arena.ResourceType {
	switch t {
	case "computational":
		return arena.ResourceComputational
	case "territory":
		return arena.ResourceTerritory
	default:
		return arena.ResourceEnergy
	}
}

func actionFromString(a string) components.Action {
	switch a {
	case "move":
		return components.ActionMove
	case "replicate":
		return components.ActionReplicate
	case "attack":
		return components.ActionAttack
	case "defend":
		return components.ActionDefend
	default:
		return components.ActionRest
	}
}
