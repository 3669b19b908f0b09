// Package neural evolves goNEAT genomes into bird policies.
package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappy/components"
)

// BrainPolicy wraps a goNEAT network as a bird policy.
type BrainPolicy struct {
	Genome    *genetics.Genome
	SpeciesID int
	network   *network.Network

	color     SpeciesColor
	fitness   float64
	evaluated bool
}

// NewBrainPolicy creates a policy from a genome.
func NewBrainPolicy(genome *genetics.Genome) (*BrainPolicy, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}

	return &BrainPolicy{
		Genome:  genome,
		network: phenotype,
	}, nil
}

// Decide runs the network on one observation and returns the single output.
func (b *BrainPolicy) Decide(obs components.Observation) (float64, error) {
	out, err := b.Think(obs.Inputs())
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Think processes sensory inputs and returns the raw network outputs.
func (b *BrainPolicy) Think(inputs []float64) ([]float64, error) {
	if len(inputs) != BrainInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", BrainInputs, len(inputs))
	}

	if err := b.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()
	if len(outputs) < BrainOutputs {
		return nil, fmt.Errorf("expected %d outputs, got %d", BrainOutputs, len(outputs))
	}

	// Flush network state so each decision depends only on its observation
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// ReportFitness records the final fitness of the bird this policy flew.
func (b *BrainPolicy) ReportFitness(fitness float64) {
	b.fitness = fitness
	b.evaluated = true
}

// Fitness returns the last reported fitness and whether one was reported.
func (b *BrainPolicy) Fitness() (float64, bool) {
	return b.fitness, b.evaluated
}

// Tint returns the species color used to draw this bird.
func (b *BrainPolicy) Tint() (uint8, uint8, uint8) {
	return b.color.R, b.color.G, b.color.B
}

// NodeCount returns the number of nodes in the network.
func (b *BrainPolicy) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainPolicy) LinkCount() int {
	return b.network.LinkCount()
}

// brainNodes creates the fixed input and output nodes. Input IDs are
// 1..BrainInputs, output IDs follow.
func brainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, BrainInputs+BrainOutputs)
	for i := 1; i <= BrainInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	for i := 1; i <= BrainOutputs; i++ {
		node := network.NewNNode(BrainInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.TanhActivation
		nodes = append(nodes, node)
	}
	return nodes
}

// CreateBrainGenome creates a new brain genome with the specified ID.
// Each input-output pair is connected with probability connectionProb.
// Innovation numbers depend only on the pair so genomes stay aligned.
func CreateBrainGenome(id int, rng *rand.Rand, connectionProb float64) *genetics.Genome {
	nodes := brainNodes()

	genes := make([]*genetics.Gene, 0, BrainInputs*BrainOutputs)
	innovNum := int64(1)

	for i := 0; i < BrainInputs; i++ {
		for j := 0; j < BrainOutputs; j++ {
			// Always increment innovation for consistent tracking
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				gene := genetics.NewGeneWithTrait(
					nil,                  // trait
					rng.Float64()*4-2,    // weight in [-2, 2]
					nodes[i],             // input node
					nodes[BrainInputs+j], // output node
					false,                // recurrent
					currentInnov,         // innovation number
					0,                    // mutation number
				)
				genes = append(genes, gene)
			}
		}
	}

	// Ensure the output is reachable
	if len(genes) == 0 {
		i := rng.Intn(BrainInputs)
		genes = append(genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*2-1,
			nodes[i], nodes[BrainInputs],
			false, int64(i*BrainOutputs+1), 0,
		))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateWeightedBrainGenome creates a fully connected genome with the given
// weights, one per input in input order. Used for scripted brains in tests
// and for seeding from known-good weights.
func CreateWeightedBrainGenome(id int, weights [BrainInputs]float64) *genetics.Genome {
	nodes := brainNodes()
	genes := make([]*genetics.Gene, 0, BrainInputs)
	for i, w := range weights {
		genes = append(genes, genetics.NewGeneWithTrait(
			nil, w,
			nodes[i], nodes[BrainInputs],
			false, int64(i*BrainOutputs+1), 0,
		))
	}
	return genetics.NewGenome(id, nil, nodes, genes)
}
