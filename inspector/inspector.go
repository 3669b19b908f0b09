// Package inspector draws a detail panel for the bird under the mouse.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/components"
)

// Panel dimensions
const (
	PanelWidth    = 300
	PanelPadding  = 10
	HeaderHeight  = 30
	NetworkHeight = 160
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Target is a clickable bird on screen.
type Target struct {
	ID     int
	Bounds rl.Rectangle
}

// Selection is everything the panel shows about one bird.
type Selection struct {
	ID      int
	Bird    components.Bird
	Obs     components.Observation
	HasObs  bool
	Fitness float64
	Color   rl.Color
	Network *NetworkView
}

// Inspector tracks which bird is selected and renders its panel.
type Inspector struct {
	selected     int
	hasSelected  bool
	panelX       int32
	panelY       int32
	screenWidth  int32
	screenHeight int32
	groundY      float32
}

// NewInspector creates a new inspector instance. groundY scales the
// observation bars.
func NewInspector(screenWidth, screenHeight int32, groundY float32) *Inspector {
	ins := &Inspector{groundY: groundY}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize re-anchors the panel to the top-right corner.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.screenWidth = screenWidth
	ins.screenHeight = screenHeight
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = 10
	if ins.panelX < 0 {
		ins.panelX = 0
	}
}

// HandleInput processes click detection for bird selection.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, targets []Target) {
	// Right click or Escape to deselect
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}

	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	ins.Click(mouseX, mouseY, targets)
}

// Click applies a left click at (mouseX, mouseY).
func (ins *Inspector) Click(mouseX, mouseY float32, targets []Target) {
	if ins.hasSelected {
		closeX := float32(ins.panelX + PanelWidth - 25)
		closeY := float32(ins.panelY + 5)
		if contains(rl.Rectangle{X: closeX, Y: closeY, Width: 20, Height: 20}, mouseX, mouseY) {
			ins.Deselect()
			return
		}

		// Clicks inside the panel are ignored
		if mouseX >= float32(ins.panelX) && mouseX <= float32(ins.panelX+PanelWidth) &&
			mouseY >= float32(ins.panelY) && mouseY <= float32(ins.panelY+ins.panelHeight(nil)) {
			return
		}
	}

	if id, ok := Pick(mouseX, mouseY, targets); ok {
		ins.selected = id
		ins.hasSelected = true
	}
}

// Pick returns the topmost target under the point. Targets later in the
// slice are drawn on top.
func Pick(x, y float32, targets []Target) (int, bool) {
	for i := len(targets) - 1; i >= 0; i-- {
		if contains(targets[i].Bounds, x, y) {
			return targets[i].ID, true
		}
	}
	return 0, false
}

func contains(r rl.Rectangle, x, y float32) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the currently selected bird ID.
func (ins *Inspector) Selected() (int, bool) {
	return ins.selected, ins.hasSelected
}

// Draw renders the inspector panel for sel.
func (ins *Inspector) Draw(sel Selection) {
	if !ins.hasSelected {
		return
	}

	fields := ExtractFields(&sel.Bird)
	panelHeight := ins.panelHeight(fields)

	// Draw panel background
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	// Draw header
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("INSPECTOR", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	// Draw close button
	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	y := ins.panelY + HeaderHeight + PanelPadding
	x := ins.panelX + PanelPadding

	rl.DrawRectangle(x, y, 14, 14, sel.Color)
	rl.DrawText(fmt.Sprintf("Bird %d  Fitness: %.1f", sel.ID, sel.Fitness), x+20, y, 14, ColorHeaderText)
	y += 22

	ins.separator(&y)
	for _, f := range fields {
		y += DrawField(x, y, f)
	}

	ins.separator(&y)
	ins.drawSectionHeader(x, y, "OBSERVATION")
	y += 20
	if sel.HasObs {
		h := Hints{Widget: WidgetBar, Format: "%.0f", Max: ins.groundY}
		y += DrawBar(x, y, "Y", float32(sel.Obs.Y), h)
		y += DrawBar(x, y, "Top", float32(sel.Obs.TopDist), h)
		y += DrawBar(x, y, "Bottom", float32(sel.Obs.BottomDist), h)
	} else {
		rl.DrawText("(no observation)", x, y, 12, ColorLabelDim)
		y += 3 * barHeightTotal
	}

	ins.separator(&y)
	ins.drawSectionHeader(x, y, "NEURAL NETWORK")
	y += 20
	DrawNetworkDiagram(x, y, PanelWidth-2*PanelPadding, NetworkHeight, sel.Network)
}

func (ins *Inspector) separator(y *int32) {
	*y += 4
	rl.DrawLine(ins.panelX+PanelPadding, *y, ins.panelX+PanelWidth-PanelPadding, *y, ColorPanelBorder)
	*y += 8
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// panelHeight computes the panel height for the given bird fields. With
// nil fields it measures a zero-value bird.
func (ins *Inspector) panelHeight(fields []Field) int32 {
	if fields == nil {
		fields = ExtractFields(&components.Bird{})
	}
	height := int32(HeaderHeight + PanelPadding)
	height += 22 // ID line
	height += 12 // separator
	for _, f := range fields {
		height += FieldHeight(f)
	}
	height += 12                 // separator
	height += 20                 // observation header
	height += 3 * barHeightTotal // observation bars
	height += 12                 // separator
	height += 20                 // network header
	height += NetworkHeight
	height += PanelPadding
	return height
}

// DrawSelectionHighlight outlines the selected bird.
func (ins *Inspector) DrawSelectionHighlight(bounds rl.Rectangle) {
	if !ins.hasSelected {
		return
	}
	pad := float32(4)
	rl.DrawRectangleLinesEx(rl.Rectangle{
		X:      bounds.X - pad,
		Y:      bounds.Y - pad,
		Width:  bounds.Width + 2*pad,
		Height: bounds.Height + 2*pad,
	}, 2, rl.Yellow)
}
