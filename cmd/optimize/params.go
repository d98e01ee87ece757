// Package main tunes the bot's policy knobs with CMA-ES against a fixed
// baseline in the local arena.
package main

import (
	"math"

	"github.com/pthm-cable/fleet/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// State machine
			{Name: "near_full", Path: "policy.near_full", Min: 700, Max: 1000, Integer: true},
			{Name: "depletion_floor", Path: "policy.depletion_floor", Min: 0, Max: 100, Integer: true},
			{Name: "depletion_idle_prob", Path: "policy.depletion_idle_prob", Min: 0, Max: 1},
			{Name: "cooldown_mine", Path: "policy.cooldown_mine", Min: 0, Max: 10, Integer: true},
			{Name: "cooldown_move_to_mine", Path: "policy.cooldown_move_to_mine", Min: 0, Max: 20, Integer: true},
			{Name: "reassign_floor", Path: "policy.reassign_floor", Min: 0, Max: 200, Integer: true},
			{Name: "reassign_prob", Path: "policy.reassign_prob", Min: 0, Max: 1},
			{Name: "local_trigger", Path: "policy.local_trigger", Min: 0, Max: 150, Integer: true},
			// Assignment
			{Name: "transit_cost_ratio", Path: "assign.transit_cost_ratio", Min: 0, Max: 0.5},
			{Name: "mining_turns", Path: "assign.mining_turns", Min: 1, Max: 12, Integer: true},
			{Name: "distance_penalty", Path: "assign.distance_penalty", Min: 0, Max: 30},
			// Economy
			{Name: "halite_per_ship", Path: "spawn.halite_per_ship", Min: 1000, Max: 20000},
			{Name: "spawn_turn_fraction", Path: "spawn.turn_fraction", Min: 0.3, Max: 0.9},
			{Name: "dropoff_min_distance", Path: "dropoff.min_distance", Min: 6, Max: 24, Integer: true},
			{Name: "dropoff_min_area_halite", Path: "dropoff.min_area_halite", Min: 1000, Max: 20000, Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value and rounds the integer ones.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes parameter values into cfg. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	i := 0
	next := func() float64 { v := c[i]; i++; return v }

	cfg.Policy.NearFull = int(next())
	cfg.Policy.DepletionFloor = int(next())
	cfg.Policy.DepletionIdleProb = next()
	cfg.Policy.CooldownMine = int(next())
	cfg.Policy.CooldownMoveToMine = int(next())
	cfg.Policy.ReassignFloor = int(next())
	cfg.Policy.ReassignProb = next()
	cfg.Policy.LocalTrigger = int(next())

	cfg.Assign.TransitCostRatio = next()
	cfg.Assign.MiningTurns = int(next())
	cfg.Assign.DistancePenalty = next()

	cfg.Spawn.HalitePerShip = next()
	cfg.Spawn.TurnFraction = next()
	cfg.Dropoff.MinDistance = int(next())
	cfg.Dropoff.MinAreaHalite = int(next())
	cfg.Recompute()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Policy.NearFull),
		float64(cfg.Policy.DepletionFloor),
		cfg.Policy.DepletionIdleProb,
		float64(cfg.Policy.CooldownMine),
		float64(cfg.Policy.CooldownMoveToMine),
		float64(cfg.Policy.ReassignFloor),
		cfg.Policy.ReassignProb,
		float64(cfg.Policy.LocalTrigger),
		cfg.Assign.TransitCostRatio,
		float64(cfg.Assign.MiningTurns),
		cfg.Assign.DistancePenalty,
		cfg.Spawn.HalitePerShip,
		cfg.Spawn.TurnFraction,
		float64(cfg.Dropoff.MinDistance),
		float64(cfg.Dropoff.MinAreaHalite),
	}
}
