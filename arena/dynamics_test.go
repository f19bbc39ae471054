package arena

import (
	"math/rand"
	"testing"
)

func testDynamics() *Dynamics {
	return NewDynamics(DynamicsParams{
		SpawnRate:          2,
		MaxResources:       20,
		EnergyMin:          5,
		EnergyMax:          25,
		ComputationalBonus: 1.5,
		TerritoryBonus:     2,
		DecayRate:          0,
		EventChance:        0,
		IntensityMin:       0.3,
		IntensityMax:       0.8,
		CarryingCapacity:   100,
	})
}

func TestPressureBounds(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	rng := rand.New(rand.NewSource(1))

	for _, pop := range []int{0, 50, 100, 500} {
		d.Tick(g, rng, pop)
		if d.Pressure < 0 || d.Pressure > 1 {
			t.Errorf("pressure at pop %d = %v outside [0,1]", pop, d.Pressure)
		}
	}
}

func TestPressureCombinesLoadAndScarcity(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	d.params.SpawnRate = 0 // isolate the pressure computation

	d.updatePressure(g, 100)
	// Full load, full scarcity: (1 + 1) / 2.
	if d.Pressure != 1 {
		t.Errorf("pressure = %v, want 1", d.Pressure)
	}

	d.updatePressure(g, 0)
	// No load, empty grid is still fully scarce: (0 + 1) / 2.
	if d.Pressure != 0.5 {
		t.Errorf("pressure = %v, want 0.5", d.Pressure)
	}
}

func TestSpawnRespectsCap(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	d.params.SpawnRate = 1000
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 10; i++ {
		d.Tick(g, rng, 10)
	}
	if g.ResourceCount() > d.params.MaxResources {
		t.Errorf("resource count %d exceeds cap %d", g.ResourceCount(), d.params.MaxResources)
	}
}

func TestCompactionDropsResourceOnOccupiedTarget(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	rng := rand.New(rand.NewSource(7))

	g.Place(42, 3, 3)
	g.AddResource(Resource{X: 6, Y: 6, Energy: 10})

	// (6,6) halves onto the warrior's cell; the resource is lost, never
	// stacked under the occupant.
	lost := d.compact(g, rng, 1)
	if lost != 1 {
		t.Errorf("lost = %d, want 1", lost)
	}
	if g.ResourceCount() != 0 {
		t.Errorf("resource count = %d, want 0", g.ResourceCount())
	}
	if got := g.KindAt(3, 3); got != CellWarrior {
		t.Errorf("KindAt(3,3) = %v, want warrior", got)
	}
	if got := g.OccupantAt(3, 3); got != 42 {
		t.Errorf("occupant = %d, want 42", got)
	}
}

func TestDecayRemovesResources(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	d.params.SpawnRate = 0
	d.params.DecayRate = 1
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 5; i++ {
		g.AddResource(Resource{X: i, Y: 0, Energy: 10})
	}
	rep := d.Tick(g, rng, 10)
	if rep.Decayed != 5 {
		t.Errorf("decayed = %d, want 5", rep.Decayed)
	}
	if g.ResourceCount() != 0 {
		t.Errorf("resources remaining = %d, want 0", g.ResourceCount())
	}
}

func TestEventLifecycle(t *testing.T) {
	g := flatGrid(16, 16)
	d := testDynamics()
	d.params.EventChance = 1
	rng := rand.New(rand.NewSource(7))

	d.Tick(g, rng, 10)
	if d.ActiveEvent() == EventNone {
		t.Fatal("no event triggered at chance 1")
	}

	// Events expire within their bounded duration.
	for i := 0; i < 25 && d.ActiveEvent() != EventNone; i++ {
		d.params.EventChance = 0
		d.Tick(g, rng, 10)
	}
	if d.ActiveEvent() != EventNone {
		t.Error("event still active past its maximum duration")
	}
}

func TestRollResourceBonuses(t *testing.T) {
	d := testDynamics()
	rng := rand.New(rand.NewSource(11))

	sawType := map[ResourceType]bool{}
	for i := 0; i < 500; i++ {
		r := d.rollResource(rng, 0, 0)
		sawType[r.Type] = true
		switch r.Type {
		case ResourceEnergy:
			if r.Energy < 5 || r.Energy > 25 {
				t.Fatalf("energy resource value %v outside [5,25]", r.Energy)
			}
		case ResourceComputational:
			if r.Energy < 5*1.5 || r.Energy > 25*1.5 {
				t.Fatalf("computational resource value %v outside bonus range", r.Energy)
			}
		case ResourceTerritory:
			if r.Energy < 5*2 || r.Energy > 25*2 {
				t.Fatalf("territory resource value %v outside bonus range", r.Energy)
			}
		}
	}
	for _, typ := range []ResourceType{ResourceEnergy, ResourceComputational, ResourceTerritory} {
		if !sawType[typ] {
			t.Errorf("type %v never rolled in 500 draws", typ)
		}
	}
}

func TestPoisson(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	if poisson(rng, 0) != 0 {
		t.Error("poisson(0) != 0")
	}

	total := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		total += poisson(rng, 3)
	}
	mean := float64(total) / draws
	if mean < 2.7 || mean > 3.3 {
		t.Errorf("poisson(3) sample mean = %v, want near 3", mean)
	}
}
