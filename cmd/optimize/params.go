// Package main provides CMA-ES optimization for finding simulation
// parameters that produce stable, diverse warrior ecosystems.
package main

import (
	"github.com/pthm-cable/neurarena/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	// Set writes the denormalized value into a config copy.
	Set func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. Costs
// that define the action economy are searchable; structural values (grid
// size, genome layout) are locked.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "survival_cost", Path: "energy.survival_cost", Min: 0.02, Max: 0.5, Default: 0.1,
				Set: func(c *config.Config, v float64) { c.Energy.SurvivalCost = v }},
			{Name: "move_cost", Path: "energy.move_cost", Min: 0.5, Max: 5.0, Default: 2.0,
				Set: func(c *config.Config, v float64) { c.Energy.MoveCost = v }},
			{Name: "attack_cost", Path: "energy.attack_cost", Min: 1.0, Max: 8.0, Default: 3.0,
				Set: func(c *config.Config, v float64) { c.Energy.AttackCost = v }},
			{Name: "attack_damage", Path: "energy.attack_damage", Min: 5.0, Max: 30.0, Default: 15.0,
				Set: func(c *config.Config, v float64) { c.Energy.AttackDamage = v }},
			{Name: "replicate_cost", Path: "energy.replicate_cost", Min: 15.0, Max: 70.0, Default: 40.0,
				Set: func(c *config.Config, v float64) { c.Energy.ReplicateCost = v }},
			{Name: "child_fraction", Path: "energy.child_fraction", Min: 0.3, Max: 0.8, Default: 0.6,
				Set: func(c *config.Config, v float64) { c.Energy.ChildFraction = v }},
			{Name: "spawn_rate", Path: "environment.resource_spawn_rate", Min: 0.1, Max: 2.0, Default: 0.5,
				Set: func(c *config.Config, v float64) { c.Environment.ResourceSpawnRate = v }},
			{Name: "resource_energy_max", Path: "environment.resource_energy_max", Min: 10.0, Max: 60.0, Default: 25.0,
				Set: func(c *config.Config, v float64) { c.Environment.ResourceEnergyMax = v }},
			{Name: "decay_rate", Path: "environment.resource_decay_rate", Min: 0.0, Max: 0.01, Default: 0.002,
				Set: func(c *config.Config, v float64) { c.Environment.ResourceDecayRate = v }},
			{Name: "event_chance", Path: "environment.event_chance", Min: 0.0, Max: 0.1, Default: 0.02,
				Set: func(c *config.Config, v float64) { c.Environment.EventChance = v }},
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.3, Default: 0.05,
				Set: func(c *config.Config, v float64) { c.Mutation.Rate = v }},
			{Name: "compat_threshold", Path: "evolution.compat_threshold", Min: 0.05, Max: 0.6, Default: 0.25,
				Set: func(c *config.Config, v float64) { c.Evolution.CompatThreshold = v }},
		},
	}
}

// Dim returns the search dimensionality.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the raw default values.
func (pv *ParamVector) DefaultVector() []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Default
	}
	return out
}

// Normalize maps raw values into [0,1] per dimension.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize maps [0,1] search coordinates back to raw values, clamping
// out-of-range excursions the optimizer may propose.
func (pv *ParamVector) Denormalize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, spec := range pv.Specs {
		v := spec.Min + x[i]*(spec.Max-spec.Min)
		if v < spec.Min {
			v = spec.Min
		} else if v > spec.Max {
			v = spec.Max
		}
		out[i] = v
	}
	return out
}

// Apply writes raw values into a copy of the base config.
func (pv *ParamVector) Apply(base *config.Config, raw []float64) *config.Config {
	cfg := *base
	for i, spec := range pv.Specs {
		spec.Set(&cfg, raw[i])
	}
	return &cfg
}
