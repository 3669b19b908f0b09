package neural

import (
	"encoding/json"
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

type nodeJSON struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Activation int    `json:"activation"`
}

type geneJSON struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Innovation int64   `json:"innovation"`
	Mutation   float64 `json:"mutation,omitempty"`
	Enabled    bool    `json:"enabled"`
	Recurrent  bool    `json:"recurrent,omitempty"`
}

type genomeJSON struct {
	ID    int        `json:"id"`
	Nodes []nodeJSON `json:"nodes"`
	Genes []geneJSON `json:"genes"`
}

// EncodeGenome serializes a brain genome for the hall of fame.
func EncodeGenome(g *genetics.Genome) (json.RawMessage, error) {
	if g == nil {
		return nil, fmt.Errorf("cannot encode nil genome")
	}

	out := genomeJSON{
		ID:    g.Id,
		Nodes: make([]nodeJSON, 0, len(g.Nodes)),
		Genes: make([]geneJSON, 0, len(g.Genes)),
	}
	for _, n := range g.Nodes {
		var kind string
		switch n.NeuronType {
		case network.InputNeuron:
			kind = "input"
		case network.BiasNeuron:
			kind = "bias"
		case network.OutputNeuron:
			kind = "output"
		case network.HiddenNeuron:
			kind = "hidden"
		default:
			return nil, fmt.Errorf("node %d has unknown neuron type %v", n.Id, n.NeuronType)
		}
		out.Nodes = append(out.Nodes, nodeJSON{ID: n.Id, Type: kind, Activation: int(n.ActivationType)})
	}
	for _, gene := range g.Genes {
		out.Genes = append(out.Genes, geneJSON{
			In:         gene.Link.InNode.Id,
			Out:        gene.Link.OutNode.Id,
			Weight:     gene.Link.ConnectionWeight,
			Innovation: gene.InnovationNum,
			Mutation:   gene.MutationNum,
			Enabled:    gene.IsEnabled,
			Recurrent:  gene.Link.IsRecurrent,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling genome %d: %w", g.Id, err)
	}
	return data, nil
}

// DecodeGenome rebuilds a genome written by EncodeGenome.
func DecodeGenome(data []byte) (*genetics.Genome, error) {
	var in genomeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing genome: %w", err)
	}

	nodes := make([]*network.NNode, 0, len(in.Nodes))
	byID := make(map[int]*network.NNode, len(in.Nodes))
	for _, n := range in.Nodes {
		var node *network.NNode
		switch n.Type {
		case "input":
			node = network.NewNNode(n.ID, network.InputNeuron)
		case "bias":
			node = network.NewNNode(n.ID, network.BiasNeuron)
		case "output":
			node = network.NewNNode(n.ID, network.OutputNeuron)
		case "hidden":
			node = network.NewNNode(n.ID, network.HiddenNeuron)
		default:
			return nil, fmt.Errorf("node %d has unknown type %q", n.ID, n.Type)
		}
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		node.ActivationType = neatmath.NodeActivationType(n.Activation)
		byID[n.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(in.Genes))
	for _, g := range in.Genes {
		inNode, outNode := byID[g.In], byID[g.Out]
		if inNode == nil || outNode == nil {
			return nil, fmt.Errorf("gene %d references missing node %d->%d", g.Innovation, g.In, g.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, g.Weight, inNode, outNode, g.Recurrent, g.Innovation, g.Mutation)
		gene.IsEnabled = g.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(in.ID, nil, nodes, genes), nil
}
