package sim

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/evolution"
	"github.com/pthm-cable/neurarena/genome"
)

// ErrArenaFull is returned when a warrior cannot be placed because the
// population cap or the grid is exhausted.
var ErrArenaFull = errors.New("sim: arena full")

// InitializePopulation seeds warriors with random genomes at free cells.
// Seeding beyond max_population or grid capacity stops silently at the cap.
func (s *Sim) InitializePopulation(size int) int {
	spawned := 0
	for i := 0; i < size; i++ {
		g := genome.NewRandom(s.rng)
		if _, err := s.spawnWarrior(g, 0, 0, s.cfg.Derived.InitialE32, -1, -1); err != nil {
			break
		}
		spawned++
	}
	slog.Info("population initialized", "requested", size, "spawned", spawned, "seed", s.opts.Seed)
	return spawned
}

// spawnWarrior creates one warrior with the given genome and lineage
// bookkeeping. A negative position requests a random free cell. Fails with
// ErrArenaFull when the population cap or placement is exhausted.
func (s *Sim) spawnWarrior(g genome.Genome, generation, lineage uint32, energy float32, x, y int) (uint32, error) {
	if s.aliveCount >= s.cfg.Population.Max {
		return 0, ErrArenaFull
	}
	if x < 0 || y < 0 {
		var ok bool
		x, y, ok = s.grid.RandomFreeCell(s.rng)
		if !ok {
			return 0, ErrArenaFull
		}
	}

	id := s.nextID
	s.nextID++

	if !s.grid.Place(id, x, y) {
		s.nextID-- // placement failed before the id was ever visible
		return 0, ErrArenaFull
	}

	maxE := s.cfg.Derived.MaxE32
	if energy > maxE {
		energy = maxE
	}
	pos := components.Position{X: x, Y: y}
	eng := components.Energy{Value: energy, Max: maxE, Alive: true}
	ident := components.Identity{
		ID:         id,
		Generation: generation,
		Lineage:    lineage,
		BornTick:   s.tick,
	}
	act := components.Activity{LastAction: components.ActionRest}

	entity := s.warriorMapper.NewEntity(&pos, &eng, &ident, &act)
	s.entities[id] = entity
	s.genomes[id] = g
	s.networks[id] = genome.Decode(g, s.netParams)
	s.aliveCount++
	s.collector.RecordBirth()
	return id, nil
}

// markDead flags a warrior for removal and frees its cell immediately so
// later effects in the same tick see the vacancy. The ECS entity is removed
// in the cleanup pass once query iteration is over.
func (s *Sim) markDead(id uint32) {
	entity, ok := s.entities[id]
	if !ok || !s.world.Alive(entity) {
		return
	}
	eng := s.energyMap.Get(entity)
	if eng == nil || !eng.Alive {
		return
	}
	eng.Alive = false
	if eng.Value < 0 {
		eng.Value = 0
	}
	pos := s.posMap.Get(entity)
	s.grid.Remove(id, pos.X, pos.Y)
}

// cleanupDead removes flagged entities and records their lifecycle for the
// evolution engine. Two passes: collect during iteration, remove after.
func (s *Sim) cleanupDead() {
	type deadInfo struct {
		id     uint32
		record evolution.Individual
	}
	var toRemove []deadInfo

	query := s.warriorFilter.Query()
	for query.Next() {
		_, eng, ident, act := query.Get()
		if eng.Alive {
			continue
		}
		toRemove = append(toRemove, deadInfo{
			id:     ident.ID,
			record: s.lifeRecord(ident, eng, act, false),
		})
	}
	// Deceased records are appended in ascending id order so the
	// generation boundary sees them in a reproducible order.
	sort.Slice(toRemove, func(i, j int) bool { return toRemove[i].id < toRemove[j].id })

	for _, dead := range toRemove {
		s.dead = append(s.dead, dead.record)
		entity := s.entities[dead.id]
		s.warriorMapper.Remove(entity)
		delete(s.entities, dead.id)
		delete(s.genomes, dead.id)
		delete(s.networks, dead.id)
		s.aliveCount--
		s.collector.RecordDeath()
	}
}

// lifeRecord builds the evolution engine's view of one warrior's life.
func (s *Sim) lifeRecord(ident *components.Identity, eng *components.Energy, act *components.Activity, survived bool) evolution.Individual {
	return evolution.Individual{
		ID:            ident.ID,
		Genome:        s.genomes[ident.ID],
		Generation:    ident.Generation,
		Lineage:       ident.Lineage,
		TicksSurvived: act.Age,
		Foraged:       eng.Foraged,
		Kills:         act.Kills,
		Survived:      survived,
		SpeciesID:     ident.SpeciesID,
	}
}
