package neural

import (
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/inspector"
)

// Labels for the fixed brain nodes, in ID order.
var (
	InputLabels  = [BrainInputs]string{"Y", "Top", "Bottom", "Bias"}
	OutputLabels = [BrainOutputs]string{"Flap"}
)

// Network flattens the brain for the inspector. Input and output nodes carry
// the values seen and produced for obs; hidden nodes are left at zero.
func (b *BrainPolicy) Network(obs components.Observation) inspector.NetworkView {
	view := GenomeView(b.Genome)

	inputs := obs.Inputs()
	out, err := b.Decide(obs)
	for i := range view.Nodes {
		n := &view.Nodes[i]
		switch n.Kind {
		case inspector.NodeInput:
			if idx := n.ID - 1; idx >= 0 && idx < len(inputs) {
				n.Value = float32(squash(inputs[idx]))
			}
		case inspector.NodeOutput:
			if err == nil {
				n.Value = float32(out)
			}
		}
	}
	return view
}

// squash maps raw pixel-scale inputs into [-1, 1] for coloring.
func squash(v float64) float64 {
	const scale = 630.0
	if v > scale {
		return 1
	}
	if v < -scale {
		return -1
	}
	return v / scale
}

// GenomeView builds a static diagram of genome. Hidden nodes are placed one
// column past their deepest enabled predecessor.
func GenomeView(g *genetics.Genome) inspector.NetworkView {
	if g == nil {
		return inspector.NetworkView{}
	}

	layer := make(map[int]int, len(g.Nodes))
	kinds := make(map[int]inspector.NodeKind, len(g.Nodes))
	for _, n := range g.Nodes {
		switch n.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			kinds[n.Id] = inspector.NodeInput
		case network.OutputNeuron:
			kinds[n.Id] = inspector.NodeOutput
		default:
			kinds[n.Id] = inspector.NodeHidden
		}
		layer[n.Id] = 0
	}

	// Longest path relaxation, bounded by node count so recurrent links
	// cannot loop forever.
	for range g.Nodes {
		changed := false
		for _, gene := range g.Genes {
			if !gene.IsEnabled {
				continue
			}
			in, out := gene.Link.InNode.Id, gene.Link.OutNode.Id
			if kinds[out] != inspector.NodeHidden {
				continue
			}
			if layer[in]+1 > layer[out] {
				layer[out] = layer[in] + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	outLayer := 1
	for id, l := range layer {
		if kinds[id] == inspector.NodeHidden && l+1 > outLayer {
			outLayer = l + 1
		}
	}

	view := inspector.NetworkView{
		Nodes: make([]inspector.NetworkNode, 0, len(g.Nodes)),
		Links: make([]inspector.NetworkLink, 0, len(g.Genes)),
	}
	for _, n := range g.Nodes {
		node := inspector.NetworkNode{ID: n.Id, Kind: kinds[n.Id], Layer: layer[n.Id]}
		switch node.Kind {
		case inspector.NodeInput:
			if idx := n.Id - 1; idx >= 0 && idx < BrainInputs {
				node.Label = InputLabels[idx]
			}
		case inspector.NodeOutput:
			node.Layer = outLayer
			if idx := n.Id - BrainInputs - 1; idx >= 0 && idx < BrainOutputs {
				node.Label = OutputLabels[idx]
			}
		}
		view.Nodes = append(view.Nodes, node)
	}
	for _, gene := range g.Genes {
		view.Links = append(view.Links, inspector.NetworkLink{
			From:    gene.Link.InNode.Id,
			To:      gene.Link.OutNode.Id,
			Weight:  float32(gene.Link.ConnectionWeight),
			Enabled: gene.IsEnabled,
		})
	}
	return view
}
