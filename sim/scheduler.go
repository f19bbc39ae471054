package sim

import (
	"sort"

	"github.com/pthm-cable/neurarena/arena"
)

// Step advances the simulation one tick: environment dynamics first, then
// the scheduling pass, then dead-entity cleanup. Returns true when this tick
// closed a generation. A paused Sim does nothing.
func (s *Sim) Step() bool {
	if s.paused {
		return false
	}
	s.tick++
	s.tickInGen++

	// Environment phase, strictly before any warrior executes.
	rep := s.dynamics.Tick(s.grid, s.rng, s.aliveCount)
	if rep.Event != arena.EventNone {
		s.collector.RecordEvent()
	}

	if interval := s.cfg.Environment.ClaimInterval; interval > 0 && s.tick%uint64(interval) == 0 {
		s.grid.ClaimTerritories(s.energyOf)
	}

	// Scheduling pass: every live warrior gets one slice; warriors behind
	// the mean cumulative count get bounded catch-up slices.
	s.buildSnapshots()
	s.senseInfer()
	for i := range s.par.snapshots {
		s.applyIntent(&s.par.snapshots[i], &s.par.intents[i])
	}
	s.runCatchupSlices()

	s.endOfTick(rep.GlobalDrain)
	s.cleanupDead()

	if s.tickInGen >= s.cfg.Evolution.TicksPerGeneration {
		s.advanceGeneration()
		return true
	}
	return false
}

// buildSnapshots freezes the live population for the parallel phase and
// computes each warrior's slice budget. Snapshots are ordered by ascending
// id so the serialized apply phase is deterministic regardless of ECS
// iteration order.
func (s *Sim) buildSnapshots() {
	s.par.snapshots = s.par.snapshots[:0]

	var totalSlices uint64
	live := 0
	query := s.warriorFilter.Query()
	for query.Next() {
		pos, eng, ident, act := query.Get()
		if !eng.Alive {
			continue
		}
		net, ok := s.networks[ident.ID]
		if !ok {
			continue
		}
		totalSlices += act.Slices
		live++
		s.par.snapshots = append(s.par.snapshots, warriorSnapshot{
			Entity:  query.Entity(),
			ID:      ident.ID,
			Pos:     *pos,
			Self: arena.SelfState{
				ID:      ident.ID,
				Energy:  eng.Value,
				Max:     eng.Max,
				Age:     act.Age,
				Lineage: ident.Lineage,
			},
			Network: net,
			Slices:  1,
		})
	}
	if live == 0 {
		return
	}

	sort.Slice(s.par.snapshots, func(i, j int) bool {
		return s.par.snapshots[i].ID < s.par.snapshots[j].ID
	})

	// Warriors below the mean cumulative-execution count catch up, capped
	// so nobody monopolizes a tick.
	mean := totalSlices / uint64(live)
	maxSlices := s.cfg.Scheduler.MaxSlicesPerTick
	for i := range s.par.snapshots {
		snap := &s.par.snapshots[i]
		deficit := int64(mean) - int64(s.actMap.Get(snap.Entity).Slices)
		extra := int(deficit)
		if extra < 0 {
			extra = 0
		}
		if extra > maxSlices-1 {
			extra = maxSlices - 1
		}
		snap.Slices = 1 + extra
	}
}

// runCatchupSlices gives warriors with a remaining budget additional full
// cycles. Each extra slice re-senses serially because earlier effects this
// tick may have changed the arena.
func (s *Sim) runCatchupSlices() {
	maxSlices := s.cfg.Scheduler.MaxSlicesPerTick
	for round := 1; round < maxSlices; round++ {
		ran := false
		for i := range s.par.snapshots {
			snap := &s.par.snapshots[i]
			if snap.Slices <= round {
				continue
			}
			entity, ok := s.liveEntity(snap.ID)
			if !ok {
				continue
			}
			ran = true

			pos := s.posMap.Get(entity)
			eng := s.energyMap.Get(entity)
			act := s.actMap.Get(entity)
			snap.Pos = *pos
			snap.Self.Energy = eng.Value
			snap.Self.Age = act.Age

			inputs := s.grid.Sensors(pos.X, pos.Y, snap.Self, s.energyOf)
			outputs := snap.Network.Forward(inputs)
			intent := warriorIntent{Outputs: outputs}
			intent.Action, intent.Dir = decodeAction(outputs)
			s.applyIntent(snap, &intent)
		}
		if !ran {
			return
		}
	}
}
