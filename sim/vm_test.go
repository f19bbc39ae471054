package sim

import (
	"testing"

	"github.com/pthm-cable/neurarena/arena"
	"github.com/pthm-cable/neurarena/components"
	"github.com/pthm-cable/neurarena/genome"
)

func TestDecodeActionArgmax(t *testing.T) {
	tests := []struct {
		name    string
		outputs [genome.NumOutputs]float32
		want    components.Action
	}{
		{"move strongest", [4]float32{0.9, 0.1, 0.1, 0.1}, components.ActionMove},
		{"replicate strongest", [4]float32{0.1, 0.9, 0.1, 0.1}, components.ActionReplicate},
		{"attack strongest", [4]float32{0.1, 0.1, 0.9, 0.1}, components.ActionAttack},
		{"defend strongest", [4]float32{0.1, 0.1, 0.1, 0.9}, components.ActionDefend},
		{"all equal ties to move", [4]float32{0.5, 0.5, 0.5, 0.5}, components.ActionMove},
		{"replicate attack tie", [4]float32{0, 0.7, 0.7, 0}, components.ActionReplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := decodeAction(tt.outputs)
			if got != tt.want {
				t.Errorf("decodeAction(%v) = %v, want %v", tt.outputs, got, tt.want)
			}
		})
	}
}

func TestDirectionFromScore(t *testing.T) {
	tests := []struct {
		score float32
		want  int
	}{
		{-1, 0},
		{-0.5, 2},
		{0, 4},
		{0.5, 6},
		{1, 0}, // wraps
	}
	for _, tt := range tests {
		if got := directionFromScore(tt.score); got != tt.want {
			t.Errorf("directionFromScore(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

// newFlatSim builds a sim without terrain so tests can place warriors at
// exact cells.
func newFlatSim(t *testing.T, seed int64) *Sim {
	t.Helper()
	cfg := testConfig(t)
	cfg.Environment.TerrainCoverage = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("flat config invalid: %v", err)
	}
	s, err := New(cfg, Options{Seed: seed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// placeWarrior drops one warrior at an exact cell for effect tests.
func placeWarrior(t *testing.T, s *Sim, energy float32, x, y int) uint32 {
	t.Helper()
	g := genome.NewRandom(s.rng)
	id, err := s.spawnWarrior(g, 0, 0, energy, x, y)
	if err != nil {
		t.Fatalf("spawnWarrior: %v", err)
	}
	return id
}

func (s *Sim) snapshotFor(id uint32) *warriorSnapshot {
	entity := s.entities[id]
	pos := s.posMap.Get(entity)
	return &warriorSnapshot{Entity: entity, ID: id, Pos: *pos}
}

func TestMoveConsumesResource(t *testing.T) {
	s := newFlatSim(t, 20)
	id := placeWarrior(t, s, 50, 5, 5)
	if !s.grid.AddResource(arena.Resource{X: 6, Y: 5, Energy: 10}) {
		t.Fatal("placing test resource failed")
	}

	intent := &warriorIntent{Action: components.ActionMove, Dir: 0}
	s.applyIntent(s.snapshotFor(id), intent)

	entity := s.entities[id]
	eng := s.energyMap.Get(entity)
	pos := s.posMap.Get(entity)
	if pos.X != 6 || pos.Y != 5 {
		t.Fatalf("position = %d,%d, want 6,5", pos.X, pos.Y)
	}
	want := float32(50) - float32(s.cfg.Energy.MoveCost) + 10
	if eng.Value != want {
		t.Errorf("energy = %v, want %v", eng.Value, want)
	}
	if eng.Foraged != 10 {
		t.Errorf("foraged = %v, want 10", eng.Foraged)
	}
	if s.grid.ResourceCount() != 0 {
		t.Error("resource not consumed on entry")
	}
}

func TestMoveInsufficientEnergyIsNoOp(t *testing.T) {
	s := newFlatSim(t, 21)
	id := placeWarrior(t, s, 1, 5, 5) // below the move cost of 2

	intent := &warriorIntent{Action: components.ActionMove, Dir: 0}
	s.applyIntent(s.snapshotFor(id), intent)

	entity := s.entities[id]
	if pos := s.posMap.Get(entity); pos.X != 5 || pos.Y != 5 {
		t.Errorf("position moved to %d,%d on an unaffordable action", pos.X, pos.Y)
	}
	if eng := s.energyMap.Get(entity); eng.Value != 1 {
		t.Errorf("energy = %v, want 1 (no charge on failed action)", eng.Value)
	}
}

func TestReplicateSpawnsChild(t *testing.T) {
	s := newFlatSim(t, 22)
	id := placeWarrior(t, s, 100, 5, 5)

	intent := &warriorIntent{Action: components.ActionReplicate, Dir: 0}
	s.applyIntent(s.snapshotFor(id), intent)

	if s.Population() != 2 {
		t.Fatalf("population = %d, want 2", s.Population())
	}
	entity := s.entities[id]
	wantParent := float32(100) - float32(s.cfg.Energy.ReplicateCost)
	if eng := s.energyMap.Get(entity); eng.Value != wantParent {
		t.Errorf("parent energy = %v, want %v", eng.Value, wantParent)
	}
	for cid, centity := range s.entities {
		if cid == id {
			continue
		}
		ident := s.idMap.Get(centity)
		if ident.Lineage != 1 {
			t.Errorf("child lineage = %d, want 1", ident.Lineage)
		}
		ceng := s.energyMap.Get(centity)
		if want := float32(100) * float32(s.cfg.Energy.ChildFraction); ceng.Value != want {
			t.Errorf("child energy = %v, want %v", ceng.Value, want)
		}
	}
}

func TestReplicateInsufficientEnergyRecordsRest(t *testing.T) {
	s := newFlatSim(t, 23)
	id := placeWarrior(t, s, 10, 5, 5) // below the replicate cost of 40

	intent := &warriorIntent{Action: components.ActionReplicate, Dir: 0}
	s.applyIntent(s.snapshotFor(id), intent)

	if s.Population() != 1 {
		t.Fatalf("population = %d, want 1", s.Population())
	}
	entity := s.entities[id]
	if eng := s.energyMap.Get(entity); eng.Value != 10 {
		t.Errorf("energy = %v, want 10 (no charge)", eng.Value)
	}
	if act := s.actMap.Get(entity); act.LastAction != components.ActionRest {
		t.Errorf("last action = %v, want rest", act.LastAction)
	}
}

func TestReplicateAtPopulationCapIsNoOp(t *testing.T) {
	s := newFlatSim(t, 24)
	s.InitializePopulation(s.cfg.Population.Max)

	var id uint32
	for wid := range s.entities {
		id = wid
		break
	}
	entity := s.entities[id]
	s.energyMap.Get(entity).Value = 100
	before := s.Population()

	intent := &warriorIntent{Action: components.ActionReplicate, Dir: 0}
	s.applyIntent(s.snapshotFor(id), intent)
	if s.Population() != before {
		t.Errorf("population grew past the cap: %d", s.Population())
	}
}

func TestAttackKillsTarget(t *testing.T) {
	s := newFlatSim(t, 25)
	attacker := placeWarrior(t, s, 50, 5, 5)
	target := placeWarrior(t, s, 5, 6, 5) // dies to one 15-damage hit

	intent := &warriorIntent{Action: components.ActionAttack, Dir: 0}
	s.applyIntent(s.snapshotFor(attacker), intent)

	tEng := s.energyMap.Get(s.entities[target])
	if tEng.Alive {
		t.Fatal("target still alive after lethal hit")
	}
	if s.grid.OccupantAt(6, 5) != 0 {
		t.Error("dead target still holds its cell")
	}
	act := s.actMap.Get(s.entities[attacker])
	if act.Kills != 1 {
		t.Errorf("kills = %d, want 1", act.Kills)
	}

	s.cleanupDead()
	if s.Population() != 1 {
		t.Errorf("population = %d after cleanup, want 1", s.Population())
	}
	if len(s.dead) != 1 {
		t.Errorf("dead records = %d, want 1", len(s.dead))
	}
}

func TestDefendShieldsDamage(t *testing.T) {
	s := newFlatSim(t, 26)
	attacker := placeWarrior(t, s, 50, 5, 5)
	defender := placeWarrior(t, s, 50, 6, 5)

	// Defender arms its shield first within the serialized apply order.
	s.applyIntent(s.snapshotFor(defender), &warriorIntent{Action: components.ActionDefend})
	s.applyIntent(s.snapshotFor(attacker), &warriorIntent{Action: components.ActionAttack, Dir: 0})

	dEng := s.energyMap.Get(s.entities[defender])
	shielded := float32(s.cfg.Energy.AttackDamage) * float32(s.cfg.Energy.ShieldFactor)
	want := float32(50) - float32(s.cfg.Energy.DefendCost) - shielded
	if dEng.Value != want {
		t.Errorf("defender energy = %v, want %v", dEng.Value, want)
	}
}

func TestAttackNoTargetIsNoOp(t *testing.T) {
	s := newFlatSim(t, 27)
	id := placeWarrior(t, s, 50, 5, 5)

	s.applyIntent(s.snapshotFor(id), &warriorIntent{Action: components.ActionAttack, Dir: 0})
	if eng := s.energyMap.Get(s.entities[id]); eng.Value != 50 {
		t.Errorf("energy = %v, want 50 (no charge without a target)", eng.Value)
	}
}

func TestSurvivalCostAndStarvation(t *testing.T) {
	s := newFlatSim(t, 28)
	id := placeWarrior(t, s, 0.05, 5, 5) // below one tick of survival cost

	s.endOfTick(0)
	eng := s.energyMap.Get(s.entities[id])
	if eng.Alive {
		t.Error("starved warrior still alive after the charge phase")
	}
	s.cleanupDead()
	if s.Population() != 0 {
		t.Errorf("population = %d, want 0", s.Population())
	}
}
