// Package main provides CMA-ES optimization for NEAT evolution parameters.
package main

import (
	"github.com/pthm-cable/flappy/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. Bird
// physics and pipe geometry are fixed; only how the population evolves is
// tuned.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Mutation
			{Name: "weight_mut_power", Path: "neural.weight_mut_power", Min: 0.05, Max: 2.5, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Neural.WeightMutPower },
				set: func(c *config.Config, v float64) { c.Neural.WeightMutPower = v }},
			{Name: "mutate_link_weights_prob", Path: "neural.mutate_link_weights_prob", Min: 0.1, Max: 1.0, Default: 0.8,
				get: func(c *config.Config) float64 { return c.Neural.MutateLinkWeightsProb },
				set: func(c *config.Config, v float64) { c.Neural.MutateLinkWeightsProb = v }},
			{Name: "mutate_add_node_prob", Path: "neural.mutate_add_node_prob", Min: 0.0, Max: 0.2, Default: 0.03,
				get: func(c *config.Config) float64 { return c.Neural.MutateAddNodeProb },
				set: func(c *config.Config, v float64) { c.Neural.MutateAddNodeProb = v }},
			{Name: "mutate_add_link_prob", Path: "neural.mutate_add_link_prob", Min: 0.0, Max: 0.3, Default: 0.05,
				get: func(c *config.Config) float64 { return c.Neural.MutateAddLinkProb },
				set: func(c *config.Config, v float64) { c.Neural.MutateAddLinkProb = v }},
			{Name: "mate_only_prob", Path: "neural.mate_only_prob", Min: 0.0, Max: 0.6, Default: 0.2,
				get: func(c *config.Config) float64 { return c.Neural.MateOnlyProb },
				set: func(c *config.Config, v float64) { c.Neural.MateOnlyProb = v }},
			// Speciation
			{Name: "compat_threshold", Path: "neural.compat_threshold", Min: 0.5, Max: 8.0, Default: 3.0,
				get: func(c *config.Config) float64 { return c.Neural.CompatThreshold },
				set: func(c *config.Config, v float64) { c.Neural.CompatThreshold = v }},
			{Name: "mutdiff_coeff", Path: "neural.mutdiff_coeff", Min: 0.1, Max: 3.0, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Neural.MutdiffCoeff },
				set: func(c *config.Config, v float64) { c.Neural.MutdiffCoeff = v }},
			// Selection
			{Name: "survival_threshold", Path: "evolution.survival_threshold", Min: 0.05, Max: 0.8, Default: 0.2,
				get: func(c *config.Config) float64 { return c.Evolution.SurvivalThreshold },
				set: func(c *config.Config, v float64) { c.Evolution.SurvivalThreshold = v }},
			{Name: "elitism", Path: "evolution.elitism", Min: 0, Max: 5, Default: 2,
				get: func(c *config.Config) float64 { return float64(c.Evolution.Elitism) },
				set: func(c *config.Config, v float64) { c.Evolution.Elitism = int(v + 0.5) }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
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

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.get(cfg)
	}
	return out
}
