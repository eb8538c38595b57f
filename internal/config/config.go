// Package config loads smoothing tuning parameters from JSON files.
// All fields are optional pointers so a partial file overrides only the
// values it names; the same schema is accepted inline by the HTTP API for
// per-request overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/path.report/internal/smoother"
)

// SmootherConfig is the JSON schema for smoothing tuning.
type SmootherConfig struct {
	// Term weights
	SmoothWeight    *float64 `json:"smooth_weight,omitempty"`
	CurveWeight     *float64 `json:"curve_weight,omitempty"`
	CollisionWeight *float64 `json:"collision_weight,omitempty"`
	CostWeight      *float64 `json:"cost_weight,omitempty"`
	ChangeWeight    *float64 `json:"change_weight,omitempty"`
	MaxTurningRate  *float64 `json:"max_turning_rate,omitempty"`

	// Optimizer bounds
	MaxIterations     *int     `json:"max_iterations,omitempty"`
	GradientTolerance *float64 `json:"gradient_tolerance,omitempty"`
	RuntimeBudget     *string  `json:"runtime_budget,omitempty"` // duration string like "2s"
}

// Load reads a SmootherConfig from a JSON file.
func Load(path string) (*SmootherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var c SmootherConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &c, nil
}

// Weights returns the default weights with any configured overrides
// applied. A nil receiver yields the defaults unchanged.
func (c *SmootherConfig) Weights() smoother.Weights {
	w := smoother.DefaultWeights()
	if c == nil {
		return w
	}
	if c.SmoothWeight != nil {
		w.Smooth = *c.SmoothWeight
	}
	if c.CurveWeight != nil {
		w.Curve = *c.CurveWeight
	}
	if c.CollisionWeight != nil {
		w.Collision = *c.CollisionWeight
	}
	if c.CostWeight != nil {
		w.Cost = *c.CostWeight
	}
	if c.ChangeWeight != nil {
		w.Change = *c.ChangeWeight
	}
	if c.MaxTurningRate != nil {
		w.MaxTurningRate = *c.MaxTurningRate
	}
	return w
}

// Options returns the default optimizer bounds with any configured
// overrides applied.
func (c *SmootherConfig) Options() (smoother.Options, error) {
	o := smoother.DefaultOptions()
	if c == nil {
		return o, nil
	}
	if c.MaxIterations != nil {
		o.MaxIterations = *c.MaxIterations
	}
	if c.GradientTolerance != nil {
		o.GradientTolerance = *c.GradientTolerance
	}
	if c.RuntimeBudget != nil {
		d, err := time.ParseDuration(*c.RuntimeBudget)
		if err != nil {
			return o, fmt.Errorf("invalid runtime_budget %q: %w", *c.RuntimeBudget, err)
		}
		o.Runtime = d
	}
	return o, nil
}

// Merge returns a copy of c with any non-nil fields of override applied on
// top. Either argument may be nil.
func Merge(c, override *SmootherConfig) *SmootherConfig {
	if c == nil {
		c = &SmootherConfig{}
	}
	out := *c
	if override == nil {
		return &out
	}
	if override.SmoothWeight != nil {
		out.SmoothWeight = override.SmoothWeight
	}
	if override.CurveWeight != nil {
		out.CurveWeight = override.CurveWeight
	}
	if override.CollisionWeight != nil {
		out.CollisionWeight = override.CollisionWeight
	}
	if override.CostWeight != nil {
		out.CostWeight = override.CostWeight
	}
	if override.ChangeWeight != nil {
		out.ChangeWeight = override.ChangeWeight
	}
	if override.MaxTurningRate != nil {
		out.MaxTurningRate = override.MaxTurningRate
	}
	if override.MaxIterations != nil {
		out.MaxIterations = override.MaxIterations
	}
	if override.GradientTolerance != nil {
		out.GradientTolerance = override.GradientTolerance
	}
	if override.RuntimeBudget != nil {
		out.RuntimeBudget = override.RuntimeBudget
	}
	return &out
}
