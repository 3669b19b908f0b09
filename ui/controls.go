package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Speed limits for the steps-per-update slider.
const (
	MinSpeed = 1
	MaxSpeed = 10
)

// ControlsPanel renders the overlay toggles and the speed controls.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetPosition moves the panel's top-left corner.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Height returns the panel height for the given overlays.
func (c *ControlsPanel) Height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	totalItems := 0
	for _, cat := range overlays.Categories() {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	return int32(totalItems)*r.Theme.LineHeight + r.Theme.Padding*3 + r.Theme.LineHeight
}

// Draw renders the overlay list.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	r.DrawPanel(c.x, c.y, c.width, c.Height(overlays))

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// SimControls is the speed slider and pause button along the bottom edge.
type SimControls struct {
	x, y, width int32
}

// NewSimControls anchors the controls at (x, y).
func NewSimControls(x, y, width int32) *SimControls {
	return &SimControls{x: x, y: y, width: width}
}

// SetPosition moves the controls.
func (s *SimControls) SetPosition(x, y, width int32) {
	s.x, s.y, s.width = x, y, width
}

// Draw renders the controls and returns the chosen speed and whether the
// pause button was pressed this frame.
func (s *SimControls) Draw(speed int, paused bool) (int, bool) {
	label := "Pause"
	if paused {
		label = "Resume"
	}
	pressed := gui.Button(rl.Rectangle{X: float32(s.x), Y: float32(s.y), Width: 70, Height: 24}, label)

	sliderX := float32(s.x + 70 + 50)
	value := gui.SliderBar(
		rl.Rectangle{X: sliderX, Y: float32(s.y) + 4, Width: float32(s.width) - sliderX + float32(s.x) - 40, Height: 16},
		"Speed",
		fmt.Sprintf("%dx", speed),
		float32(speed),
		MinSpeed,
		MaxSpeed,
	)
	return ClampSpeed(int(math.Round(float64(value)))), pressed
}

// ClampSpeed bounds a steps-per-update value to the slider range.
func ClampSpeed(speed int) int {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}
