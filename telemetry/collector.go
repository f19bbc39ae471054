// Package telemetry collects per-generation statistics and writes CSV and
// snapshot output for external consumers.
package telemetry

// Collector accumulates events within a generation and produces
// GenerationStats at the boundary.
type Collector struct {
	startTick uint64

	// Event counters for the current generation
	births        int
	deaths        int
	replications  int
	attacks       int
	kills         int
	consumed      int
	foraged       float64
	events        int
	selfMutations int
}

// NewCollector creates a stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordBirth records a warrior entering the arena (spawn or replicate).
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a warrior removal from starvation or combat.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordReplication records a successful replicate action.
func (c *Collector) RecordReplication() {
	c.replications++
}

// RecordAttack records an attack that connected with a target.
func (c *Collector) RecordAttack() {
	c.attacks++
}

// RecordKill records an attack that removed its target.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordConsumption records a resource pickup and its energy value.
func (c *Collector) RecordConsumption(energy float64) {
	c.consumed++
	c.foraged += energy
}

// RecordEvent records an environmental pressure event firing.
func (c *Collector) RecordEvent() {
	c.events++
}

// RecordSelfMutation records a heritable in-life mutation.
func (c *Collector) RecordSelfMutation() {
	c.selfMutations++
}

// Export copies the live counters for a save file.
func (c *Collector) Export() SavedCounters {
	return SavedCounters{
		StartTick:         c.startTick,
		Births:            c.births,
		Deaths:            c.deaths,
		Replications:      c.replications,
		Attacks:           c.attacks,
		Kills:             c.kills,
		ResourcesConsumed: c.consumed,
		EnergyForaged:     c.foraged,
		PressureEvents:    c.events,
		SelfMutations:     c.selfMutations,
	}
}

// Restore replaces the counters with a previously exported set.
func (c *Collector) Restore(sc SavedCounters) {
	*c = Collector{
		startTick:     sc.StartTick,
		births:        sc.Births,
		deaths:        sc.Deaths,
		replications:  sc.Replications,
		attacks:       sc.Attacks,
		kills:         sc.Kills,
		consumed:      sc.ResourcesConsumed,
		foraged:       sc.EnergyForaged,
		events:        sc.PressureEvents,
		selfMutations: sc.SelfMutations,
	}
}

// Flush fills the event fields of a GenerationStats record and resets the
// counters for the next generation.
func (c *Collector) Flush(endTick uint64, stats *GenerationStats) {
	stats.StartTick = c.startTick
	stats.EndTick = endTick
	stats.Births = c.births
	stats.Deaths = c.deaths
	stats.Replications = c.replications
	stats.Attacks = c.attacks
	stats.Kills = c.kills
	stats.ResourcesConsumed = c.consumed
	stats.EnergyForaged = c.foraged
	stats.PressureEvents = c.events
	stats.SelfMutations = c.selfMutations

	*c = Collector{startTick: endTick}
}
