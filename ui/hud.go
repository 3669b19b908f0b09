package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Generation   int
	Tick         int
	Score        int
	Alive        int
	Population   int
	Speed        int
	FPS          int32
	Paused       bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Score, top right
	score := fmt.Sprintf("Score: %d", data.Score)
	scoreWidth := rl.MeasureText(score, 30)
	rl.DrawText(score, data.ScreenWidth-scoreWidth-15, 10, 30, rl.White)

	rl.DrawText(fmt.Sprintf("Gen: %d", data.Generation), 10, 10, 24, rl.White)
	rl.DrawText(
		fmt.Sprintf("Alive: %d/%d | Tick: %d", data.Alive, data.Population, data.Tick),
		10, 38, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Speed: %dx | FPS: %d", data.Speed, data.FPS),
		10, 56, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 76, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-20, 12, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	AvgTick      time.Duration
	MaxTick      time.Duration
	TicksPerSec  float64
	FPS          float64
	WallLastGen  time.Duration
	TicksLastGen int
}

// PerfPanel renders tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	r := p.renderer
	padding := r.Theme.Padding
	height := r.Theme.LineHeight*6 + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := p.y + padding
	y = r.DrawSectionHeader(x, y, "Performance")
	y = r.DrawLabelValue(x, y, "Tick avg", data.AvgTick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Tick max", data.MaxTick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Ticks/s", fmt.Sprintf("%.0f", data.TicksPerSec))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%.0f", data.FPS))
	r.DrawLabelValue(x, y, "Last gen", fmt.Sprintf("%d ticks in %s", data.TicksLastGen, data.WallLastGen.Round(time.Millisecond)))
}

// EvolutionStatsData holds data for the evolution stats panel.
type EvolutionStatsData struct {
	Generation     int
	SpeciesCount   int
	BestFitness    float64 // across the whole run
	LastMean       float64 // mean fitness of the previous generation
	LastMax        float64
	HallOfFameSize int
	TopSpecies     []SpeciesInfo
}

// SpeciesInfo holds info about a single species.
type SpeciesInfo struct {
	ID        int
	Size      int
	Age       int
	BestFit   float64
	Offspring int
	Color     rl.Color
}

// EvolutionStatsPanel renders the evolution statistics.
type EvolutionStatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewEvolutionStatsPanel creates a new evolution stats panel.
func NewEvolutionStatsPanel(x, y, width int32) *EvolutionStatsPanel {
	return &EvolutionStatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (n *EvolutionStatsPanel) SetPosition(x, y int32) {
	n.x = x
	n.y = y
}

// maxListedSpecies caps the species list.
const maxListedSpecies = 5

// Draw renders the evolution stats panel.
func (n *EvolutionStatsPanel) Draw(data EvolutionStatsData) {
	r := n.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	listed := min(len(data.TopSpecies), maxListedSpecies)
	rows := int32(6 + listed)
	if listed > 0 {
		rows++
	}
	r.DrawPanel(n.x, n.y, n.width, rows*lineHeight+padding*2)

	x := n.x + padding
	y := n.y + padding
	rl.DrawText("Evolution", x, y, 16, rl.White)
	y += lineHeight + 4

	y = r.DrawLabelValue(x, y, "Generation", fmt.Sprintf("%d", data.Generation))
	y = r.DrawLabelValue(x, y, "Species", fmt.Sprintf("%d", data.SpeciesCount))
	y = r.DrawLabelValue(x, y, "Best", fmt.Sprintf("%.1f", data.BestFitness))
	y = r.DrawLabelValue(x, y, "Last gen", fmt.Sprintf("mean %.1f max %.1f", data.LastMean, data.LastMax))
	y = r.DrawLabelValue(x, y, "Hall", fmt.Sprintf("%d", data.HallOfFameSize))

	if listed == 0 {
		return
	}
	y = r.DrawSectionHeader(x, y+2, "Top Species")
	for _, sp := range data.TopSpecies[:listed] {
		text := fmt.Sprintf("#%d: %d members (age %d, fit %.0f)", sp.ID, sp.Size, sp.Age, sp.BestFit)
		y = r.DrawColorSwatch(x, y, sp.Color, text)
	}
}
