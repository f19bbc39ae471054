package sim

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/genome"
)

// applyIntent executes one warrior's decoded decision against the arena.
// Runs only in the serialized apply phase. An action whose energy cost
// exceeds the warrior's reserve is a silent no-op with no charge; an action
// with an invalid target is a no-op with no refund.
func (s *Sim) applyIntent(snap *warriorSnapshot, intent *warriorIntent) {
	entity := snap.Entity
	if !s.world.Alive(entity) {
		return
	}
	eng := s.energyMap.Get(entity)
	if eng == nil || !eng.Alive {
		return
	}
	pos := s.posMap.Get(entity)
	act := s.actMap.Get(entity)

	act.LastAction = intent.Action
	act.Defending = false

	switch intent.Action {
	case components.ActionMove:
		s.applyMove(snap.ID, pos, eng, intent.Dir)
	case components.ActionReplicate:
		if !s.applyReplicate(snap, pos, eng, intent.Dir) {
			act.LastAction = components.ActionRest
		}
	case components.ActionAttack:
		s.applyAttack(snap.ID, pos, eng, act, intent.Dir)
	case components.ActionDefend:
		cost := float32(s.cfg.Energy.DefendCost)
		if eng.Value >= cost {
			eng.Value -= cost
			act.Defending = true
		}
	case components.ActionRest:
		// Recover nothing, spend nothing. Survival cost still applies.
	}
	act.Slices++
}

// applyMove steps into the pushed direction's first free cell, consuming
// any resource found there.
func (s *Sim) applyMove(id uint32, pos *components.Position, eng *components.Energy, dir int) {
	cost := float32(s.cfg.Energy.MoveCost)
	if eng.Value < cost {
		return
	}
	nx, ny, ok := s.grid.FreeNeighbor(pos.X, pos.Y, dir)
	if !ok {
		return
	}
	if !s.grid.Move(id, pos.X, pos.Y, nx, ny) {
		return
	}
	eng.Value -= cost
	pos.X, pos.Y = nx, ny

	if energy, found := s.grid.ConsumeResource(nx, ny); found {
		eng.Value += energy
		if eng.Value > eng.Max {
			eng.Value = eng.Max
		}
		eng.Foraged += energy
		s.collector.RecordConsumption(float64(energy))
	}
}

// applyReplicate spawns a mutated child in an adjacent free cell. Blocked
// placement, insufficient energy, or a full population all fail silently
// with no charge; a failed replicate records as a rest.
func (s *Sim) applyReplicate(snap *warriorSnapshot, pos *components.Position, eng *components.Energy, dir int) bool {
	cost := float32(s.cfg.Energy.ReplicateCost)
	if eng.Value < cost || s.aliveCount >= s.cfg.Population.Max {
		return false
	}
	nx, ny, ok := s.grid.FreeNeighbor(pos.X, pos.Y, dir)
	if !ok {
		return false
	}

	ident := s.idMap.Get(snap.Entity)
	child := s.genomes[snap.ID].Mutate(s.rng, s.cfg.Mutation.Rate, s.cfg.Mutation.WeightSigma)
	childEnergy := eng.Value * float32(s.cfg.Energy.ChildFraction)

	childID, err := s.spawnWarrior(child, ident.Generation, ident.Lineage+1, childEnergy, nx, ny)
	if err != nil {
		return false
	}
	eng.Value -= cost
	if cid := s.entities[childID]; s.world.Alive(cid) {
		s.idMap.Get(cid).SpeciesID = ident.SpeciesID
	}
	s.collector.RecordReplication()
	return true
}

// applyAttack damages the first adjacent warrior in scan order from the
// pushed direction. A defending target shields a fraction of the damage.
func (s *Sim) applyAttack(id uint32, pos *components.Position, eng *components.Energy, act *components.Activity, dir int) {
	cost := float32(s.cfg.Energy.AttackCost)
	if eng.Value < cost {
		return
	}
	targetID, _, _ := s.grid.OccupiedNeighbor(pos.X, pos.Y, dir)
	if targetID == 0 {
		return
	}
	target, ok := s.entities[targetID]
	if !ok || !s.world.Alive(target) {
		return
	}
	tEng := s.energyMap.Get(target)
	if tEng == nil || !tEng.Alive {
		return
	}

	eng.Value -= cost
	damage := float32(s.cfg.Energy.AttackDamage)
	if s.actMap.Get(target).Defending {
		damage *= float32(s.cfg.Energy.ShieldFactor)
	}
	tEng.Value -= damage
	s.collector.RecordAttack()

	if tEng.Value <= 0 {
		s.markDead(targetID)
		act.Kills++
		s.collector.RecordKill()
	}
}

// endOfTick charges the per-tick survival cost, applies phenotypic and
// heritable self-modification, and flags starved warriors. Runs once per
// warrior per tick after all slices.
func (s *Sim) endOfTick(drain float32) {
	survival := s.cfg.Derived.SurvivalCost32
	backprop := s.cfg.Neural.BackpropEnabled
	backpropRate := float32(s.cfg.Neural.BackpropRate)
	selfMutation := s.cfg.Neural.SelfMutationRate

	// Ascending id order keeps the self-mutation RNG draws reproducible
	// regardless of ECS iteration order.
	ids := make([]uint32, 0, s.aliveCount)
	query := s.warriorFilter.Query()
	for query.Next() {
		_, eng, ident, _ := query.Get()
		if eng.Alive {
			ids = append(ids, ident.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		entity := s.entities[id]
		eng := s.energyMap.Get(entity)
		act := s.actMap.Get(entity)
		act.Age++

		before := eng.Value
		eng.Value -= survival + drain
		if eng.Value <= 0 {
			eng.Value = 0
			continue // cleanup pass removes it this tick
		}

		if backprop {
			// Local reward signal: normalized energy delta over the tick.
			reward := (eng.Value - before) / eng.Max
			s.networks[id].Nudge(reward, backpropRate)
			if s.cfg.Neural.BackpropWriteback {
				s.genomes[id] = s.networks[id].EncodeWeights(s.genomes[id])
			}
		}

		if selfMutation > 0 && s.rng.Float64() < selfMutation {
			s.applySelfMutation(id, eng)
		}
	}

	s.removeStarved()
}

// applySelfMutation runs the heritable MUTATE opcode: the warrior rewrites
// its own genome in place, paying the mutate cost. The decoded network is
// rebuilt immediately so behavior changes within the same lifetime.
func (s *Sim) applySelfMutation(id uint32, eng *components.Energy) {
	cost := float32(s.cfg.Energy.MutateCost)
	if eng.Value < cost {
		return
	}
	eng.Value -= cost
	mutated := s.genomes[id].Mutate(s.rng, s.cfg.Mutation.Rate, s.cfg.Mutation.WeightSigma)
	s.genomes[id] = mutated
	s.networks[id] = genome.Decode(mutated, s.netParams)
	s.collector.RecordSelfMutation()
}

// removeStarved flags warriors whose energy reached zero during the charge
// phase. Separate pass so grid mutation never happens during query iteration.
func (s *Sim) removeStarved() {
	var starved []uint32
	query := s.warriorFilter.Query()
	for query.Next() {
		_, eng, ident, _ := query.Get()
		if eng.Alive && eng.Value <= 0 {
			starved = append(starved, ident.ID)
		}
	}
	for _, id := range starved {
		s.markDead(id)
	}
}

// liveEntity resolves an id to its entity if the warrior is still alive.
func (s *Sim) liveEntity(id uint32) (ecs.Entity, bool) {
	entity, ok := s.entities[id]
	if !ok || !s.world.Alive(entity) {
		return ecs.Entity{}, false
	}
	eng := s.energyMap.Get(entity)
	if eng == nil || !eng.Alive {
		return ecs.Entity{}, false
	}
	return entity, true
}
