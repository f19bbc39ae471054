// Package components defines ECS components for warriors.
package components

// Action is the closed set of warrior actions decoded from network outputs.
type Action uint8

const (
	ActionRest Action = iota // no-op, chosen when nothing else is possible
	ActionMove
	ActionReplicate
	ActionAttack
	ActionDefend
)

// String returns the action name for snapshots and logs.
func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionReplicate:
		return "replicate"
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	default:
		return "rest"
	}
}

// Position is a warrior's grid cell. It always resolves to an in-bounds,
// exclusively occupied cell; the arena owns the occupancy index.
type Position struct {
	X, Y int
}

// Energy tracks a warrior's metabolic state. Value never goes negative past
// the tick that exhausts it; the scheduler removes the warrior immediately.
type Energy struct {
	Value   float32
	Max     float32
	Alive   bool
	Foraged float32 // cumulative resource energy acquired, feeds fitness
}

// Identity carries the stable id and lineage bookkeeping.
// Generation and Lineage are non-decreasing along a lineage.
type Identity struct {
	ID         uint32
	Generation uint32
	Lineage    uint32 // ancestor chain length
	SpeciesID  uint32 // last speciation assignment, 0 before the first
	BornTick   uint64
}

// Activity records per-tick execution state.
type Activity struct {
	LastAction Action
	Defending  bool   // shield armed for the current tick only
	Slices     uint64 // cumulative VM slices, used by the fairness budget
	Age        uint32 // ticks survived
	Kills      uint32
}
