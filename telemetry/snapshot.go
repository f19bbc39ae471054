package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
)

// SnapshotVersion is incremented when the saved-state format changes.
const SnapshotVersion = 2

// WarriorState is the per-warrior slice of the external snapshot contract.
type WarriorState struct {
	ID           uint32  `json:"id"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Energy       float32 `json:"energy"`
	Age          uint32  `json:"age"`
	Fitness      float64 `json:"fitness"`
	Generation   uint32  `json:"generation"`
	LineageDepth uint32  `json:"lineage_depth"`
	SpeciesID    uint32  `json:"species_id"`
	LastAction   string  `json:"last_action"`
}

// ResourceState is one live resource.
type ResourceState struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Energy float32 `json:"energy_value"`
	Type   string  `json:"type"`
}

// TerritoryState is one territory region.
type TerritoryState struct {
	CX         int     `json:"cx"`
	CY         int     `json:"cy"`
	Radius     int     `json:"radius"`
	Owner      uint32  `json:"owner_id"`
	Multiplier float32 `json:"resource_multiplier"`
}

// StateSnapshot is the read-only post-tick view handed to external
// collaborators. Building one never mutates simulation state.
type StateSnapshot struct {
	Generation   uint32  `json:"generation"`
	Tick         uint64  `json:"tick"`
	Population   int     `json:"population"`
	SpeciesCount int     `json:"species_count"`
	AvgFitness   float64 `json:"average_fitness"`
	MaxFitness   float64 `json:"max_fitness"`
	Diversity    float64 `json:"diversity_score"`
	Pressure     float32 `json:"environmental_pressure"`
	ActiveEvent  string  `json:"active_event"`

	Warriors    []WarriorState   `json:"warriors"`
	Resources   []ResourceState  `json:"resources"`
	Territories []TerritoryState `json:"territories"`
}

// TopologyNode is one node of the network topology view.
type TopologyNode struct {
	ID   int     `json:"id"`
	Type string  `json:"node_type"` // input, hidden, output
	Bias float32 `json:"bias"`
}

// TopologyConnection is one weighted edge of the network topology view.
type TopologyConnection struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float32 `json:"weight"`
}

// NetworkTopology is the derived per-warrior network view for visualization.
type NetworkTopology struct {
	WarriorID   uint32               `json:"warrior_id"`
	Nodes       []TopologyNode       `json:"nodes"`
	Connections []TopologyConnection `json:"connections"`
}

// SavedWarrior extends WarriorState with the fields needed to resume a
// warrior exactly: its genome and its lifecycle counters.
type SavedWarrior struct {
	WarriorState
	Genome   []byte  `json:"genome"`
	Foraged  float32 `json:"foraged"`
	Kills    uint32  `json:"kills"`
	BornTick uint64  `json:"born_tick"`
	Slices   uint64  `json:"slices"`
}

// SavedDead is one deceased warrior's fitness record, pending until the
// generation boundary it died inside of.
type SavedDead struct {
	ID            uint32  `json:"id"`
	Genome        []byte  `json:"genome"`
	Generation    uint32  `json:"generation"`
	Lineage       uint32  `json:"lineage"`
	TicksSurvived uint32  `json:"ticks_survived"`
	Foraged       float32 `json:"foraged"`
	Kills         uint32  `json:"kills"`
	SpeciesID     uint32  `json:"species_id"`
}

// SavedCounters mirrors the collector's in-generation event counters.
type SavedCounters struct {
	StartTick         uint64  `json:"start_tick"`
	Births            int     `json:"births"`
	Deaths            int     `json:"deaths"`
	Replications      int     `json:"replications"`
	Attacks           int     `json:"attacks"`
	Kills             int     `json:"kills"`
	ResourcesConsumed int     `json:"resources_consumed"`
	EnergyForaged     float64 `json:"energy_foraged"`
	PressureEvents    int     `json:"pressure_events"`
	SelfMutations     int     `json:"self_mutations"`
}

// SavedDynamics is the environment driver's state.
type SavedDynamics struct {
	Pressure   float32 `json:"pressure"`
	Scarcity   float32 `json:"scarcity"`
	Event      string  `json:"event"`
	EventTicks int     `json:"event_ticks"`
}

// SavedSpecies is one species record of the evolution engine.
type SavedSpecies struct {
	ID             uint32  `json:"id"`
	Representative []byte  `json:"representative"`
	BestFitness    float64 `json:"best_fitness"`
	Staleness      int     `json:"staleness"`
}

// SavedEvolution is the engine state that persists across generations.
type SavedEvolution struct {
	CompatThreshold float64        `json:"compat_threshold"`
	NextSpeciesID   uint32         `json:"next_species_id"`
	Species         []SavedSpecies `json:"species"`
}

// SimState is the complete resumable simulation state. Terrain is not
// stored; it regenerates deterministically from the seed. RNGSeed is the
// checkpoint seed both the saving run and a resumed run continue from.
type SimState struct {
	Version    int    `json:"version"`
	Seed       int64  `json:"seed"`
	RNGSeed    int64  `json:"rng_seed"`
	Tick       uint64 `json:"tick"`
	TickInGen  int    `json:"tick_in_gen"`
	Generation uint32 `json:"generation"`
	NextID     uint32 `json:"next_id"`

	Warriors    []SavedWarrior   `json:"warriors"`
	Resources   []ResourceState  `json:"resources"`
	Territories []TerritoryState `json:"territories"`
	Dead        []SavedDead      `json:"dead"`
	Counters    SavedCounters    `json:"counters"`
	Dynamics    SavedDynamics    `json:"dynamics"`
	Evolution   SavedEvolution   `json:"evolution"`
}

// Save writes the state as JSON.
func (s *SimState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sim state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing sim state: %w", err)
	}
	return nil
}

// LoadSimState reads and version-checks a saved state file.
func LoadSimState(path string) (*SimState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sim state: %w", err)
	}
	state := &SimState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing sim state: %w", err)
	}
	if state.Version != SnapshotVersion {
		return nil, fmt.Errorf("sim state version %d, want %d", state.Version, SnapshotVersion)
	}
	return state, nil
}
