package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/inspector"
	"github.com/pthm-cable/flappy/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.stepsPerUpdate = ui.ClampSpeed(g.stepsPerUpdate - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.stepsPerUpdate = ui.ClampSpeed(g.stepsPerUpdate + 1)
	}

	if rl.IsKeyPressed(rl.KeyO) {
		g.controls.Toggle()
	}

	// Overlay toggles
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}

	if g.inspector != nil {
		mousePos := rl.GetMousePosition()
		g.inspector.HandleInput(mousePos.X, mousePos.Y, g.birdTargets())
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layoutPanels()
}

// layoutPanels anchors the panels to the current screen size.
func (g *Game) layoutPanels() {
	w, h := int32(g.screenWidth), int32(g.screenHeight)
	if g.inspector != nil {
		g.inspector.Resize(w, h)
	}
	g.evoPanel.SetPosition(10, 100)
	g.perfPanel.SetPosition(10, 100)
	g.controls.SetPosition(10, h-70-g.controls.Height(g.overlays))
	g.simControls.SetPosition(10, h-60, w-20)
}

// birdTargets returns the clickable bounds of every live bird.
func (g *Game) birdTargets() []inspector.Target {
	if g.eval == nil {
		return nil
	}
	targets := make([]inspector.Target, 0, g.eval.Alive())
	for i := 0; i < g.eval.Alive(); i++ {
		bird, id, ok := g.eval.LiveBird(i)
		if !ok {
			break
		}
		targets = append(targets, inspector.Target{
			ID: id,
			Bounds: rl.Rectangle{
				X:      float32(bird.X),
				Y:      float32(bird.Y),
				Width:  float32(bird.SpriteW),
				Height: float32(bird.SpriteH),
			},
		})
	}
	return targets
}
