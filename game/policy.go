package game

import "github.com/pthm-cable/flappy/components"

// Policy decides, from one observation, how strongly a bird wants to flap.
// Outputs above the configured action threshold trigger a flap.
type Policy interface {
	Decide(obs components.Observation) (float64, error)
}

// FitnessReporter is implemented by policies whose owner wants the bird's
// final fitness once the generation ends.
type FitnessReporter interface {
	ReportFitness(fitness float64)
}

// Tinter is implemented by policies that want their bird drawn in a
// particular color, such as one per species.
type Tinter interface {
	Tint() (r, g, b uint8)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(obs components.Observation) (float64, error)

// Decide calls f(obs).
func (f PolicyFunc) Decide(obs components.Observation) (float64, error) {
	return f(obs)
}

// ConstantPolicy always returns the same output.
type ConstantPolicy float64

// Decide returns c.
func (c ConstantPolicy) Decide(components.Observation) (float64, error) {
	return float64(c), nil
}

// Scripted policies for deterministic runs.
var (
	AlwaysFlap Policy = ConstantPolicy(1)
	NeverFlap  Policy = ConstantPolicy(0)
)
