package inspector

import (
	"math"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// NodeKind tells the diagram where a node belongs.
type NodeKind uint8

const (
	NodeInput NodeKind = iota
	NodeHidden
	NodeOutput
)

// NetworkNode is one neuron in the diagram.
type NetworkNode struct {
	ID    int
	Kind  NodeKind
	Layer int     // column, 0 for inputs
	Label string  // drawn beside input and output nodes
	Value float32 // current activation, 0 when unknown
}

// NetworkLink is one connection in the diagram.
type NetworkLink struct {
	From, To int
	Weight   float32
	Enabled  bool
}

// NetworkView is a brain flattened for drawing. It carries no reference to
// the network it was built from.
type NetworkView struct {
	Nodes []NetworkNode
	Links []NetworkLink
}

// NetworkColors for activation visualization.
var (
	ColorNodeInactive = rl.Color{R: 60, G: 60, B: 60, A: 255}
	ColorNodePositive = rl.Color{R: 255, G: 100, B: 100, A: 255}
	ColorNodeNegative = rl.Color{R: 100, G: 100, B: 255, A: 255}
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorEdgeDisabled = rl.Color{R: 90, G: 90, B: 90, A: 60}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// Layout places every node inside the w x h box at (x, y). Layers become
// evenly spaced columns and nodes within a layer are spread vertically in
// ID order.
func Layout(view *NetworkView, x, y, w, h float32) map[int]rl.Vector2 {
	pos := make(map[int]rl.Vector2, len(view.Nodes))
	if len(view.Nodes) == 0 {
		return pos
	}

	layers := make(map[int][]NetworkNode)
	maxLayer := 0
	for _, n := range view.Nodes {
		layers[n.Layer] = append(layers[n.Layer], n)
		if n.Layer > maxLayer {
			maxLayer = n.Layer
		}
	}

	colWidth := w / float32(maxLayer+1)
	for layer, nodes := range layers {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
		spacing := (h - 20) / float32(len(nodes))
		colX := x + colWidth*float32(layer) + colWidth/2
		for i, n := range nodes {
			pos[n.ID] = rl.Vector2{
				X: colX,
				Y: y + 10 + spacing*float32(i) + spacing/2,
			}
		}
	}
	return pos
}

// DrawNetworkDiagram renders the network with its latest activations.
func DrawNetworkDiagram(x, y, width, height int32, view *NetworkView) {
	if view == nil || len(view.Nodes) == 0 {
		rl.DrawText("No network data", x+10, y+10, 14, ColorLabelDim)
		return
	}

	// Leave room for labels on both sides
	const labelMargin = 44
	pos := Layout(view, float32(x+labelMargin), float32(y), float32(width-2*labelMargin), float32(height))
	nodeRadius := float32(6)

	for _, l := range view.Links {
		from, okFrom := pos[l.From]
		to, okTo := pos[l.To]
		if !okFrom || !okTo {
			continue
		}
		drawEdge(from, to, l.Weight, l.Enabled)
	}

	for _, n := range view.Nodes {
		p := pos[n.ID]
		switch n.Kind {
		case NodeInput:
			drawNode(p, nodeRadius, n.Value)
			labelWidth := rl.MeasureText(n.Label, 10)
			rl.DrawText(n.Label, int32(p.X-nodeRadius)-labelWidth-4, int32(p.Y)-5, 10, ColorLabelDim)
		case NodeOutput:
			drawNode(p, nodeRadius+2, n.Value)
			rl.DrawText(n.Label, int32(p.X+nodeRadius+6), int32(p.Y)-5, 10, ColorLabelDim)
		default:
			drawNode(p, nodeRadius, n.Value)
		}
	}
}

// drawNode renders a single neuron node.
func drawNode(pos rl.Vector2, radius, activation float32) {
	color := activationColor(activation)
	rl.DrawCircleV(pos, radius, color)
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

// drawEdge renders a connection between nodes.
func drawEdge(from, to rl.Vector2, weight float32, enabled bool) {
	if !enabled {
		rl.DrawLineEx(from, to, 0.5, ColorEdgeDisabled)
		return
	}

	thickness := clamp32(absFloat(weight)*1.5, 0.5, 3)

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	// Adjust alpha based on weight magnitude
	color.A = uint8(clamp32(40+absFloat(weight)*40, 40, 150))

	rl.DrawLineEx(from, to, thickness, color)
}

// activationColor returns a color based on activation value.
// Negative = blue, Zero = gray, Positive = red.
func activationColor(activation float32) rl.Color {
	if activation == 0 {
		return ColorNodeInactive
	}
	t := clamp32(absFloat(activation), 0, 1)
	if activation > 0 {
		return lerpColor(ColorNodeInactive, ColorNodePositive, t)
	}
	return lerpColor(ColorNodeInactive, ColorNodeNegative, t)
}

func absFloat(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
