package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSimStateRoundTrip(t *testing.T) {
	state := &SimState{
		Version:    SnapshotVersion,
		Seed:       42,
		Tick:       12345,
		TickInGen:  345,
		Generation: 12,
		NextID:     77,
		Warriors: []SavedWarrior{
			{
				WarriorState: WarriorState{
					ID: 3, X: 5, Y: 6, Energy: 81.5, Age: 900,
					Generation: 11, LineageDepth: 4, SpeciesID: 2, LastAction: "move",
				},
				Genome:   bytes.Repeat([]byte{0xAB}, 64),
				Foraged:  33.5,
				Kills:    2,
				BornTick: 11445,
				Slices:   900,
			},
		},
		Resources: []ResourceState{
			{X: 1, Y: 2, Energy: 15, Type: "computational"},
		},
		Territories: []TerritoryState{
			{CX: 10, CY: 10, Radius: 6, Owner: 3, Multiplier: 1.2},
		},
		Dead: []SavedDead{
			{ID: 2, Genome: bytes.Repeat([]byte{0x01}, 64), TicksSurvived: 120, Foraged: 8, Kills: 1, SpeciesID: 1},
		},
		Counters: SavedCounters{StartTick: 12000, Births: 4, Deaths: 2, EnergyForaged: 55.5},
		Dynamics: SavedDynamics{Pressure: 0.4, Scarcity: 1.3, Event: "resource_abundance", EventTicks: 7},
		Evolution: SavedEvolution{
			CompatThreshold: 0.27,
			NextSpeciesID:   5,
			Species: []SavedSpecies{
				{ID: 2, Representative: bytes.Repeat([]byte{0x02}, 64), BestFitness: 9.5, Staleness: 3},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "state.json")
	if err := state.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSimState(path)
	if err != nil {
		t.Fatalf("LoadSimState: %v", err)
	}
	if loaded.Seed != 42 || loaded.Tick != 12345 || loaded.Generation != 12 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Warriors) != 1 {
		t.Fatalf("warrior count = %d, want 1", len(loaded.Warriors))
	}
	w := loaded.Warriors[0]
	if w.ID != 3 || w.Energy != 81.5 || w.LastAction != "move" {
		t.Errorf("warrior mismatch: %+v", w)
	}
	if !bytes.Equal(w.Genome, state.Warriors[0].Genome) {
		t.Error("genome bytes changed in round trip")
	}
	if loaded.Resources[0].Type != "computational" {
		t.Errorf("resource type = %q", loaded.Resources[0].Type)
	}
	if loaded.Territories[0].Owner != 3 {
		t.Errorf("territory owner = %d, want 3", loaded.Territories[0].Owner)
	}
	if len(loaded.Dead) != 1 || loaded.Dead[0].TicksSurvived != 120 {
		t.Errorf("dead records = %+v", loaded.Dead)
	}
	if loaded.Counters != state.Counters {
		t.Errorf("counters = %+v, want %+v", loaded.Counters, state.Counters)
	}
	if loaded.Dynamics != state.Dynamics {
		t.Errorf("dynamics = %+v, want %+v", loaded.Dynamics, state.Dynamics)
	}
	if loaded.Evolution.CompatThreshold != 0.27 || len(loaded.Evolution.Species) != 1 {
		t.Errorf("evolution state = %+v", loaded.Evolution)
	}
	if loaded.Evolution.Species[0].Staleness != 3 {
		t.Errorf("species staleness = %d, want 3", loaded.Evolution.Species[0].Staleness)
	}
}

func TestLoadSimStateRejectsVersionMismatch(t *testing.T) {
	state := &SimState{Version: SnapshotVersion + 1}
	path := filepath.Join(t.TempDir(), "state.json")
	if err := state.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSimState(path); err == nil {
		t.Error("version mismatch accepted")
	}
}

func TestLoadSimStateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSimState(path); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestOutputManagerNilSafe(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\"): %v", err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Errorf("nil manager WriteGeneration: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if err := om.WriteGeneration(GenerationStats{Generation: 0, Population: 100}); err != nil {
		t.Fatalf("WriteGeneration: %v", err)
	}
	if err := om.WriteGeneration(GenerationStats{Generation: 1, Population: 90}); err != nil {
		t.Fatalf("WriteGeneration: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	lines := bytes.Count(data, []byte("\n"))
	if lines != 3 { // header + two records
		t.Errorf("csv line count = %d, want 3", lines)
	}
	if !bytes.HasPrefix(data, []byte("generation,")) {
		t.Errorf("csv header missing, got %q", data)
	}
}
