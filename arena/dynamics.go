package arena

import (
	"math"
	"math/rand"
)

// EventType is the closed set of environmental pressure events.
type EventType uint8

const (
	EventNone EventType = iota
	EventResourceScarcity
	EventResourceAbundance
	EventMemoryCompaction
	EventPopulationPressure
)

// String returns the event name for logs and snapshots.
func (e EventType) String() string {
	switch e {
	case EventResourceScarcity:
		return "resource_scarcity"
	case EventResourceAbundance:
		return "resource_abundance"
	case EventMemoryCompaction:
		return "memory_compaction"
	case EventPopulationPressure:
		return "population_pressure"
	default:
		return "none"
	}
}

// EventFromString is the inverse of String, for restoring save files.
func EventFromString(s string) EventType {
	switch s {
	case "resource_scarcity":
		return EventResourceScarcity
	case "resource_abundance":
		return EventResourceAbundance
	case "memory_compaction":
		return EventMemoryCompaction
	case "population_pressure":
		return EventPopulationPressure
	default:
		return EventNone
	}
}

// DynamicsParams configures the environment driver. Values come from config;
// keeping a plain struct here avoids an arena->config dependency.
type DynamicsParams struct {
	SpawnRate          float64
	MaxResources       int
	EnergyMin          float64
	EnergyMax          float64
	ComputationalBonus float64
	TerritoryBonus     float64
	DecayRate          float64
	EventChance        float64
	IntensityMin       float64
	IntensityMax       float64
	CarryingCapacity   int
}

// TickReport summarizes one dynamics pass for telemetry and the scheduler.
type TickReport struct {
	Spawned     int
	Decayed     int
	Event       EventType
	GlobalDrain float32 // energy the scheduler must deduct from every warrior
}

// Dynamics drives resource spawning, decay, pressure, and scheduled events.
// It mutates the grid only from the serialized environment phase.
type Dynamics struct {
	params DynamicsParams

	// Pressure is the global environmental pressure in [0,1], derived from
	// population load and resource scarcity.
	Pressure float32

	// scarcity scales the spawn rate; events push it below or above 1.
	scarcity   float32
	eventTicks int
	event      EventType
}

// NewDynamics builds the environment driver.
func NewDynamics(p DynamicsParams) *Dynamics {
	return &Dynamics{params: p, scarcity: 1}
}

// DynamicsState is the resumable view of the environment driver.
type DynamicsState struct {
	Pressure   float32
	Scarcity   float32
	Event      EventType
	EventTicks int
}

// State captures the driver for a save file.
func (d *Dynamics) State() DynamicsState {
	return DynamicsState{
		Pressure:   d.Pressure,
		Scarcity:   d.scarcity,
		Event:      d.event,
		EventTicks: d.eventTicks,
	}
}

// Restore replaces the driver state with a previously saved one.
func (d *Dynamics) Restore(st DynamicsState) {
	d.Pressure = st.Pressure
	d.scarcity = st.Scarcity
	d.event = st.Event
	d.eventTicks = st.EventTicks
}

// ActiveEvent returns the running event, EventNone between events.
func (d *Dynamics) ActiveEvent() EventType {
	if d.eventTicks > 0 {
		return d.event
	}
	return EventNone
}

// Tick advances the environment one step: pressure update, resource decay,
// spawning, and event scheduling. Runs strictly before the warrior
// scheduling pass each tick.
func (d *Dynamics) Tick(g *Grid, rng *rand.Rand, population int) TickReport {
	var rep TickReport

	d.updatePressure(g, population)

	// Expire or trigger events.
	if d.eventTicks > 0 {
		d.eventTicks--
		if d.eventTicks == 0 {
			d.scarcity = 1
			d.event = EventNone
		}
	} else if rng.Float64() < d.params.EventChance {
		rep = d.triggerEvent(g, rng, rep)
	}
	rep.Event = d.ActiveEvent()

	rep.Decayed = d.decayResources(g, rng)
	rep.Spawned = d.spawnResources(g, rng)
	return rep
}

// updatePressure combines population load and resource scarcity, each in
// [0,1], exactly as the statistics surface reports it.
func (d *Dynamics) updatePressure(g *Grid, population int) {
	var load, scarcity float64
	if d.params.CarryingCapacity > 0 {
		load = float64(population) / float64(d.params.CarryingCapacity)
	}
	if d.params.MaxResources > 0 {
		scarcity = 1 - float64(g.ResourceCount())/float64(d.params.MaxResources)
	}
	p := (load + scarcity) / 2
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	d.Pressure = float32(p)
}

func (d *Dynamics) triggerEvent(g *Grid, rng *rand.Rand, rep TickReport) TickReport {
	intensity := d.params.IntensityMin + rng.Float64()*(d.params.IntensityMax-d.params.IntensityMin)
	d.eventTicks = 5 + rng.Intn(15)

	switch EventType(1 + rng.Intn(4)) {
	case EventResourceScarcity:
		d.event = EventResourceScarcity
		d.scarcity = float32(1 - intensity)
		// Remove a fraction of existing resources immediately.
		remove := int(float64(g.ResourceCount()) * intensity * 0.3)
		for i := 0; i < remove && g.ResourceCount() > 0; i++ {
			g.removeResourceAt(rng.Intn(g.ResourceCount()))
			rep.Decayed++
		}
	case EventResourceAbundance:
		d.event = EventResourceAbundance
		d.scarcity = float32(1 + intensity)
	case EventMemoryCompaction:
		d.event = EventMemoryCompaction
		d.eventTicks = 1
		rep.Decayed += d.compact(g, rng, intensity)
	case EventPopulationPressure:
		d.event = EventPopulationPressure
		rep.GlobalDrain = float32(intensity * 5)
	}
	return rep
}

// compact forcibly relocates a fraction of resources toward the grid origin
// and clears all territory ownership, imitating a memory-compaction cycle.
// Resources that cannot be re-placed are deleted.
func (d *Dynamics) compact(g *Grid, rng *rand.Rand, intensity float64) int {
	lost := 0
	moved := int(float64(g.ResourceCount()) * intensity)
	for i := 0; i < moved && g.ResourceCount() > 0; i++ {
		ri := rng.Intn(g.ResourceCount())
		r := g.res[ri]
		g.removeResourceAt(ri)
		r.X /= 2
		r.Y /= 2
		if !g.AddResource(r) {
			lost++
		}
	}
	for ti := range g.Territories {
		g.Territories[ti].Owner = 0
	}
	return lost
}

func (d *Dynamics) decayResources(g *Grid, rng *rand.Rand) int {
	if d.params.DecayRate <= 0 {
		return 0
	}
	decayed := 0
	for ri := g.ResourceCount() - 1; ri >= 0; ri-- {
		if rng.Float64() < d.params.DecayRate {
			g.removeResourceAt(ri)
			decayed++
		}
	}
	return decayed
}

// spawnResources draws a Poisson-distributed spawn count from the scaled
// rate, then places each resource at a random free cell. Placement inside a
// territory is accepted with probability proportional to its multiplier, so
// high-multiplier territories accumulate resources faster.
func (d *Dynamics) spawnResources(g *Grid, rng *rand.Rand) int {
	if g.ResourceCount() >= d.params.MaxResources {
		return 0
	}
	lambda := d.params.SpawnRate * float64(d.scarcity)
	n := poisson(rng, lambda)
	spawned := 0
	for i := 0; i < n && g.ResourceCount() < d.params.MaxResources; i++ {
		x, y, ok := g.RandomFreeCell(rng)
		if !ok {
			break
		}
		mult := g.SpawnMultiplier(x, y)
		if mult < 1 && rng.Float32() >= mult {
			continue
		}
		if mult > 1 && rng.Float32() < (mult-1) {
			// Bonus spawn chance inside rich territories.
			if bx, by, ok := g.RandomFreeCell(rng); ok && g.TerritoryAt(bx, by) != nil {
				g.AddResource(d.rollResource(rng, bx, by))
				spawned++
			}
		}
		if g.AddResource(d.rollResource(rng, x, y)) {
			spawned++
		}
	}
	return spawned
}

// rollResource draws the type and energy value; non-energy types carry the
// configured bonuses.
func (d *Dynamics) rollResource(rng *rand.Rand, x, y int) Resource {
	energy := d.params.EnergyMin + rng.Float64()*(d.params.EnergyMax-d.params.EnergyMin)
	typ := ResourceEnergy
	if rng.Float64() >= 0.7 {
		if rng.Float64() < 0.5 {
			typ = ResourceComputational
			energy *= d.params.ComputationalBonus
		} else {
			typ = ResourceTerritory
			energy *= d.params.TerritoryBonus
		}
	}
	return Resource{X: x, Y: y, Energy: float32(energy), Type: typ}
}

// poisson samples via Knuth's method; fine for the small rates used here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
