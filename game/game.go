package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/inspector"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
	"github.com/pthm-cable/flappy/ui"
)

// Driver owns the population: it hands out one generation of policies at a
// time and breeds the next from the result.
type Driver interface {
	Generation() int
	Policies() []Policy
	Evolve(res Result) error
	SpeciesRecords() []telemetry.SpeciesRecord
	HallOfFame() *telemetry.HallOfFame
}

// Sink receives live frames and generation stats, typically a spectator feed.
type Sink interface {
	PublishFrame(f Frame)
	PublishGeneration(stats telemetry.GenerationStats)
}

// Options configures a Game.
type Options struct {
	Seed           int64
	RunID          string
	OutputDir      string // empty disables CSV/JSON output
	Headless       bool
	StepsPerUpdate int // ticks per rendered frame, windowed only
	Generations    int // windowed stop condition, 0 = until closed
	Sink           Sink
	LogStats       bool
}

// Game ties the evaluator to telemetry, output and, when windowed, the
// renderer. Headless runs drive it through Evaluate and Report; windowed
// runs call Update and Draw once per frame.
type Game struct {
	cfg    *config.Config
	driver Driver
	rng    *rand.Rand

	eval      *Evaluator
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	sink      Sink
	logStats  bool

	// Windowed state
	inspector      *inspector.Inspector
	hud            *ui.HUD
	overlays       *ui.OverlayRegistry
	controls       *ui.ControlsPanel
	simControls    *ui.SimControls
	evoPanel       *ui.EvolutionStatsPanel
	perfPanel      *ui.PerfPanel
	screenWidth    float32
	screenHeight   float32
	paused         bool
	stepsPerUpdate int
	generations    int
	played         int
	done           bool
	err            error

	lastStats telemetry.GenerationStats
	hasStats  bool
}

// NewGame creates a game for driver. Windowed games start their first
// generation immediately.
func NewGame(cfg *config.Config, driver Driver, opts Options) (*Game, error) {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			output.Close()
			return nil, err
		}
	}

	steps := ui.ClampSpeed(opts.StepsPerUpdate)

	g := &Game{
		cfg:            cfg,
		driver:         driver,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		collector:      telemetry.NewCollector(opts.RunID),
		perf:           telemetry.NewPerfCollector(60),
		output:         output,
		sink:           opts.Sink,
		logStats:       opts.LogStats,
		screenWidth:    cfg.Derived.ScreenW32,
		screenHeight:   cfg.Derived.ScreenH32,
		stepsPerUpdate: steps,
		generations:    opts.Generations,
	}

	if !opts.Headless {
		g.inspector = inspector.NewInspector(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Derived.GroundY32)
		g.hud = ui.NewHUD()
		g.overlays = ui.NewOverlayRegistry()
		g.controls = ui.NewControlsPanel(10, 0, 220)
		g.simControls = ui.NewSimControls(0, 0, 0)
		g.evoPanel = ui.NewEvolutionStatsPanel(0, 0, 260)
		g.perfPanel = ui.NewPerfPanel(0, 0, 260)
		g.layoutPanels()
		if err := g.begin(driver.Generation(), driver.Policies()); err != nil {
			g.Unload()
			return nil, err
		}
	}

	return g, nil
}

// hooks forwards evaluator events to the collector.
func (g *Game) hooks() Hooks {
	return Hooks{
		OnFlap: func(tick, id int) {
			g.collector.Record(telemetry.NewFlapEvent(tick, id))
		},
		OnPass: func(tick, score int) {
			g.collector.Record(telemetry.NewPassEvent(tick, score))
		},
		OnEliminate: func(tick, id int, cause systems.Cause, fitness float64) {
			g.collector.Record(telemetry.NewDeathEvent(tick, id, cause.String(), fitness))
		},
	}
}

// begin starts a generation.
func (g *Game) begin(generation int, policies []Policy) error {
	eval, err := NewEvaluator(g.cfg, g.rng, generation, policies, WithHooks(g.hooks()))
	if err != nil {
		return fmt.Errorf("starting generation %d: %w", generation, err)
	}
	g.eval = eval
	g.collector.Begin(generation)
	return nil
}

// step advances the current generation one tick, expiring it at the tick cap.
func (g *Game) step() error {
	if limit := g.cfg.Evolution.MaxTicks; limit > 0 && g.eval.Tick() >= limit {
		g.eval.Expire()
		return nil
	}

	g.perf.StartTick()
	err := g.eval.Step()
	g.perf.EndTick()
	if err != nil {
		return err
	}

	if g.sink != nil && g.eval.Tick()%g.cfg.Stream.FrameInterval == 0 {
		g.sink.PublishFrame(g.eval.Frame())
	}
	return nil
}

// Evaluate plays one whole generation. It has the shape the population's
// Run loop expects.
func (g *Game) Evaluate(generation int, policies []Policy) (Result, error) {
	if err := g.begin(generation, policies); err != nil {
		return Result{}, err
	}
	for !g.eval.Done() {
		if err := g.step(); err != nil {
			return Result{}, err
		}
	}
	return g.eval.Result(), nil
}

// Report turns a finished, already evolved generation into stats and sends
// them to the log, the output files and the sink. Output failures are
// logged, never returned.
func (g *Game) Report(res Result) telemetry.GenerationStats {
	records := g.driver.SpeciesRecords()
	stats := g.collector.Flush(telemetry.GenerationSummary{
		Generation: res.Generation,
		Ticks:      res.Ticks,
		Score:      res.Score,
		Fitness:    res.Fitnesses(),
		Species:    len(records),
	})

	if g.logStats {
		stats.LogStats()
		slog.Info("perf", "stats", g.perf.Stats())
	}

	if g.output != nil {
		if err := g.output.WriteGeneration(stats); err != nil {
			slog.Error("failed to write generation", "error", err)
		}
		if err := g.output.WriteSpecies(records); err != nil {
			slog.Error("failed to write species", "error", err)
		}
		if hof := g.driver.HallOfFame(); hof != nil {
			if err := g.output.WriteHallOfFame(hof); err != nil {
				slog.Error("failed to write hall of fame", "error", err)
			}
		}
	}

	if g.sink != nil {
		g.sink.PublishGeneration(stats)
	}

	g.lastStats = stats
	g.hasStats = true
	return stats
}

// Update handles input and advances the simulation by up to
// stepsPerUpdate ticks. It is a no-op once the run is done.
func (g *Game) Update() {
	g.handleInput()
	if g.paused || g.done {
		return
	}
	g.advance(g.stepsPerUpdate)
}

// advance runs up to n ticks, rolling over into the next generation as
// each one finishes.
func (g *Game) advance(n int) {
	for i := 0; i < n && !g.done; i++ {
		if err := g.step(); err != nil {
			g.fail(err)
			return
		}
		if g.eval.Done() {
			g.finishGeneration()
		}
	}
}

// finishGeneration evolves, reports, and either stops or starts the next
// generation.
func (g *Game) finishGeneration() {
	res := g.eval.Result()
	if err := g.driver.Evolve(res); err != nil {
		g.fail(fmt.Errorf("evolving generation %d: %w", res.Generation, err))
		return
	}
	g.Report(res)
	g.played++

	threshold := g.cfg.Evolution.FitnessThreshold
	if threshold > 0 && res.Best().Fitness >= threshold {
		slog.Info("fitness threshold reached", "generation", res.Generation, "fitness", res.Best().Fitness)
		g.done = true
		return
	}
	if g.generations > 0 && g.played >= g.generations {
		g.done = true
		return
	}

	if err := g.begin(g.driver.Generation(), g.driver.Policies()); err != nil {
		g.fail(err)
	}
}

func (g *Game) fail(err error) {
	slog.Error("run stopped", "error", err)
	g.err = err
	g.done = true
}

// Tick returns the current tick within the generation.
func (g *Game) Tick() int {
	if g.eval == nil {
		return 0
	}
	return g.eval.Tick()
}

// Played returns the number of generations finished by Update.
func (g *Game) Played() int { return g.played }

// Done reports whether a windowed run has stopped.
func (g *Game) Done() bool { return g.done }

// Err returns the error that stopped the run, if any.
func (g *Game) Err() error { return g.err }

// LastStats returns the most recent generation stats.
func (g *Game) LastStats() (telemetry.GenerationStats, bool) {
	return g.lastStats, g.hasStats
}

// Unload closes output files.
func (g *Game) Unload() {
	if g.output == nil {
		return
	}
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
