package game

import (
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/inspector"
	"github.com/pthm-cable/flappy/telemetry"
	"github.com/pthm-cable/flappy/ui"
)

// Scene colors
var (
	colorSky        = rl.Color{R: 112, G: 197, B: 206, A: 255}
	colorPipe       = rl.Color{R: 115, G: 191, B: 46, A: 255}
	colorPipeEdge   = rl.Color{R: 84, G: 56, B: 71, A: 255}
	colorGround     = rl.Color{R: 222, G: 216, B: 149, A: 255}
	colorGroundEdge = rl.Color{R: 84, G: 128, B: 40, A: 255}
	colorLine       = rl.Color{R: 255, G: 0, B: 0, A: 160}
	colorHitbox     = rl.Color{R: 255, G: 255, B: 255, A: 160}
)

const controlsLegend = "SPACE pause  ,/. speed  O overlays  click bird to inspect  F11 fullscreen"

// speciesColorer is implemented by drivers that know their species colors.
type speciesColorer interface {
	SpeciesColor(id int) (r, g, b uint8)
}

// networkViewer is implemented by policies the inspector can diagram.
type networkViewer interface {
	Network(obs components.Observation) inspector.NetworkView
}

// Draw renders the current generation.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(colorSky)

	frame := g.eval.Frame()

	g.drawPipes(frame)
	g.drawGround(frame)
	if g.overlays.IsEnabled(ui.OverlayObservationLines) {
		g.drawObservationLines(frame)
	}
	g.drawBirds(frame)

	g.drawHUD(frame)
	g.drawPanels()
	g.drawInspector(frame)

	rl.EndDrawing()
	g.perf.RecordFrame()
}

func (g *Game) drawPipes(frame Frame) {
	w := float32(g.cfg.Pipe.Width)
	h := float32(g.cfg.Pipe.Height)
	hitboxes := g.overlays.IsEnabled(ui.OverlayHitboxes)

	for _, p := range frame.Pipes {
		top := rl.Rectangle{X: float32(p.X), Y: float32(p.GapTop) - h, Width: w, Height: h}
		bottom := rl.Rectangle{X: float32(p.X), Y: float32(p.GapBottom), Width: w, Height: h}
		for _, r := range []rl.Rectangle{top, bottom} {
			rl.DrawRectangleRec(r, colorPipe)
			rl.DrawRectangleLinesEx(r, 3, colorPipeEdge)
			if hitboxes {
				rl.DrawRectangleLinesEx(r, 1, colorHitbox)
			}
		}
	}
}

func (g *Game) drawGround(frame Frame) {
	y := g.cfg.Derived.GroundY32
	w := float32(g.cfg.Ground.Width)
	h := g.screenHeight - y
	for _, x := range []float64{frame.GroundX1, frame.GroundX2} {
		rl.DrawRectangleRec(rl.Rectangle{X: float32(x), Y: y, Width: w, Height: h}, colorGround)
	}
	rl.DrawRectangleRec(rl.Rectangle{X: 0, Y: y, Width: g.screenWidth, Height: 6}, colorGroundEdge)
}

// drawObservationLines connects each bird to the gap edges it observes.
func (g *Game) drawObservationLines(frame Frame) {
	if frame.Active < 0 || frame.Active >= len(frame.Pipes) {
		return
	}
	p := frame.Pipes[frame.Active]
	gapX := float32(p.X) + float32(g.cfg.Pipe.Width)/2
	for _, b := range frame.Birds {
		from := rl.Vector2{
			X: float32(b.X) + float32(g.cfg.Bird.Width)/2,
			Y: float32(b.Y) + float32(g.cfg.Bird.Height)/2,
		}
		rl.DrawLineEx(from, rl.Vector2{X: gapX, Y: float32(p.GapTop)}, 2, colorLine)
		rl.DrawLineEx(from, rl.Vector2{X: gapX, Y: float32(p.GapBottom)}, 2, colorLine)
	}
}

func (g *Game) drawBirds(frame Frame) {
	w := float32(g.cfg.Bird.Width)
	h := float32(g.cfg.Bird.Height)
	tinted := g.overlays.IsEnabled(ui.OverlaySpeciesColors)
	hitboxes := g.overlays.IsEnabled(ui.OverlayHitboxes)

	for _, b := range frame.Birds {
		color := rl.Color{R: defaultBirdColor[0], G: defaultBirdColor[1], B: defaultBirdColor[2], A: 255}
		if tinted {
			color = rl.Color{R: b.Color[0], G: b.Color[1], B: b.Color[2], A: 255}
		}

		// Rotate about the sprite centre; positive tilt is beak up
		body := rl.Rectangle{X: float32(b.X) + w/2, Y: float32(b.Y) + h/2, Width: w, Height: h}
		rl.DrawRectanglePro(body, rl.Vector2{X: w / 2, Y: h / 2}, float32(-b.Tilt), color)

		// Wing flaps through three positions
		wingY := float32(b.Y) + h/2 + float32(b.WingFrame-1)*h/6
		rl.DrawCircleV(rl.Vector2{X: float32(b.X) + w/3, Y: wingY}, h/5, rl.Fade(rl.White, 0.8))

		if hitboxes {
			rl.DrawRectangleLinesEx(rl.Rectangle{X: float32(b.X), Y: float32(b.Y), Width: w, Height: h}, 1, colorHitbox)
		}
	}
}

func (g *Game) drawHUD(frame Frame) {
	g.hud.Draw(ui.HUDData{
		Generation:   frame.Generation,
		Tick:         frame.Tick,
		Score:        frame.Score,
		Alive:        frame.Alive,
		Population:   frame.Population,
		Speed:        g.stepsPerUpdate,
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		ScreenWidth:  int32(g.screenWidth),
		ScreenHeight: int32(g.screenHeight),
	})
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)

	speed, pressed := g.simControls.Draw(g.stepsPerUpdate, g.paused)
	g.stepsPerUpdate = speed
	if pressed {
		g.paused = !g.paused
	}
}

func (g *Game) drawPanels() {
	switch {
	case g.overlays.IsEnabled(ui.OverlayEvolutionPanel):
		g.evoPanel.Draw(g.evolutionStats())
	case g.overlays.IsEnabled(ui.OverlayPerfPanel):
		p := g.perf.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			AvgTick:      p.AvgTickDuration,
			MaxTick:      p.MaxTickDuration,
			TicksPerSec:  p.TicksPerSecond,
			FPS:          p.FPS,
			WallLastGen:  msDuration(g.lastStats.WallMS),
			TicksLastGen: g.lastStats.Ticks,
		})
	}
	g.controls.Draw(g.overlays)
}

// evolutionStats gathers what the evolution panel shows.
func (g *Game) evolutionStats() ui.EvolutionStatsData {
	data := ui.EvolutionStatsData{Generation: g.driver.Generation()}
	if hof := g.driver.HallOfFame(); hof != nil {
		data.HallOfFameSize = hof.Size()
		data.BestFitness = hof.TopFitness()
	}
	if g.hasStats {
		data.LastMean = g.lastStats.FitnessMean
		data.LastMax = g.lastStats.FitnessMax
	}

	records := g.driver.SpeciesRecords()
	data.SpeciesCount = len(records)
	colorer, _ := g.driver.(speciesColorer)
	for _, r := range topSpecies(records, 5) {
		info := ui.SpeciesInfo{
			ID:        r.SpeciesID,
			Size:      r.Size,
			Age:       r.Age,
			BestFit:   r.BestFitness,
			Offspring: r.Offspring,
			Color:     rl.Gray,
		}
		if colorer != nil {
			cr, cg, cb := colorer.SpeciesColor(r.SpeciesID)
			info.Color = rl.Color{R: cr, G: cg, B: cb, A: 255}
		}
		data.TopSpecies = append(data.TopSpecies, info)
	}
	return data
}

// drawInspector shows the selected bird, dropping the selection once it
// has been eliminated.
func (g *Game) drawInspector(frame Frame) {
	if g.inspector == nil {
		return
	}
	id, ok := g.inspector.Selected()
	if !ok {
		return
	}

	for i, b := range frame.Birds {
		if b.ID != id {
			continue
		}
		bird, _, _ := g.eval.LiveBird(i)
		obs, hasObs := g.eval.Observation(i)
		sel := inspector.Selection{
			ID:      id,
			Bird:    bird,
			Obs:     obs,
			HasObs:  hasObs,
			Fitness: b.Fitness,
			Color:   rl.Color{R: b.Color[0], G: b.Color[1], B: b.Color[2], A: 255},
		}
		if nv, ok := g.eval.Policy(id).(networkViewer); ok && hasObs {
			view := nv.Network(obs)
			sel.Network = &view
		}
		g.inspector.DrawSelectionHighlight(rl.Rectangle{
			X: float32(b.X), Y: float32(b.Y),
			Width: float32(bird.SpriteW), Height: float32(bird.SpriteH),
		})
		g.inspector.Draw(sel)
		return
	}
	g.inspector.Deselect()
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// topSpecies returns up to n records, largest species first.
func topSpecies(records []telemetry.SpeciesRecord, n int) []telemetry.SpeciesRecord {
	sorted := make([]telemetry.SpeciesRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
