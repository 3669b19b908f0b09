package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/flappy/config"
)

// BrainInputs is the number of sensory inputs to the brain network:
// y, distance to gap top, distance to gap bottom, and a constant bias.
const BrainInputs = 4

// BrainOutputs is the number of outputs from the brain network.
const BrainOutputs = 1

// NEATOptions builds goNEAT options from the loaded configuration.
func NEATOptions(cfg *config.Config) *neat.Options {
	n := cfg.Neural
	return &neat.Options{
		// Weight mutation
		WeightMutPower:        n.WeightMutPower,
		MutateLinkWeightsProb: n.MutateLinkWeightsProb,

		// Structural mutation rates
		MutateAddNodeProb:      n.MutateAddNodeProb,
		MutateAddLinkProb:      n.MutateAddLinkProb,
		MutateToggleEnableProb: n.MutateToggleProb,

		// Mating probabilities
		MutateOnlyProb: 0.25,
		MateOnlyProb:   n.MateOnlyProb,

		// Speciation
		CompatThreshold: n.CompatThreshold,
		DisjointCoeff:   n.DisjointCoeff,
		ExcessCoeff:     n.ExcessCoeff,
		MutdiffCoeff:    n.MutdiffCoeff,

		// Species management
		DropOffAge:      n.DropOffAge,
		SurvivalThresh:  cfg.Evolution.SurvivalThreshold,
		AgeSignificance: 1.0,

		PopSize: cfg.Evolution.Population,
	}
}
