package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/stream"
	"github.com/pthm-cable/flappy/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output per-generation stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, hall of fame and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", -1, "Generations to play (0 = unlimited, -1 = use config)")
	maxTicks := flag.Int("max-ticks", -1, "Per-generation tick cap (0 = unlimited, -1 = use config)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per rendered frame")
	hallOfFame := flag.String("hall-of-fame", "", "Seed the population from a hall_of_fame.json")
	streamAddr := flag.String("stream", "", "Serve a spectator websocket on this address (overrides config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *maxTicks >= 0 {
		cfg.Evolution.MaxTicks = *maxTicks
	}
	if *generations >= 0 {
		cfg.Evolution.Generations = *generations
	}
	if *streamAddr != "" {
		cfg.Stream.Addr = *streamAddr
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	runID := uuid.NewString()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runOptions{
		runID:          runID,
		seed:           rngSeed,
		headless:       *headless,
		logStats:       *logStats,
		outputDir:      *outputDir,
		stepsPerUpdate: *stepsPerUpdate,
		hallOfFame:     *hallOfFame,
	}); err != nil {
		slog.Error("run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	runID          string
	seed           int64
	headless       bool
	logStats       bool
	outputDir      string
	stepsPerUpdate int
	hallOfFame     string
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	pop, err := newPopulation(cfg, opts)
	if err != nil {
		return err
	}
	pop.SetRunID(opts.runID)

	var hub *stream.Hub
	if cfg.Stream.Addr != "" {
		hub = stream.NewHub(stream.Hello{
			RunID:   opts.runID,
			Width:   cfg.Screen.Width,
			Height:  cfg.Screen.Height,
			GroundY: cfg.World.GroundY,
			BirdW:   cfg.Bird.Width,
			BirdH:   cfg.Bird.Height,
			PipeW:   cfg.Pipe.Width,
			PipeH:   cfg.Pipe.Height,
		})
		go func() {
			if err := stream.Serve(ctx, cfg.Stream.Addr, hub); err != nil {
				slog.Error("spectator stream stopped", "error", err)
			}
		}()
	}

	gameOpts := game.Options{
		Seed:           opts.seed,
		RunID:          opts.runID,
		OutputDir:      opts.outputDir,
		Headless:       opts.headless,
		StepsPerUpdate: opts.stepsPerUpdate,
		Generations:    cfg.Evolution.Generations,
		LogStats:       opts.logStats,
	}
	if hub != nil {
		gameOpts.Sink = hub
	}

	slog.Info("starting run",
		"run_id", opts.runID,
		"seed", opts.seed,
		"headless", opts.headless,
		"population", cfg.Evolution.Population,
		"generations", cfg.Evolution.Generations,
		"max_ticks", cfg.Evolution.MaxTicks,
	)

	if opts.headless {
		// Headless mode - pure CPU evaluation, no raylib needed
		g, err := game.NewGame(cfg, pop, gameOpts)
		if err != nil {
			return err
		}
		defer g.Unload()

		summary, err := pop.Run(ctx, g.Evaluate, cfg.Evolution.Generations, func(res game.Result) {
			g.Report(res)
		})
		if err != nil {
			return err
		}
		slog.Info("run finished", "summary", summary)
	} else {
		// Graphical mode
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flappy NEAT")
		defer rl.CloseWindow()

		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		g, err := game.NewGame(cfg, pop, gameOpts)
		if err != nil {
			return err
		}
		defer g.Unload()

		for !rl.WindowShouldClose() && !g.Done() && ctx.Err() == nil {
			g.Update()
			g.Draw()
		}
		if err := g.Err(); err != nil {
			return err
		}
		slog.Info("run finished", "generations", g.Played())
	}

	if best, ok := pop.Best(); ok {
		slog.Info("champion",
			"fitness", best.Fitness,
			"generation", best.Generation,
			"genome_id", best.Genome.Id,
		)
	}
	return nil
}

// newPopulation creates a random population, or one seeded from a saved
// hall of fame.
func newPopulation(cfg *config.Config, opts runOptions) (*neural.Population, error) {
	rng := rand.New(rand.NewSource(opts.seed + 1))
	if opts.hallOfFame == "" {
		return neural.NewPopulation(cfg, rng)
	}

	hof, err := telemetry.LoadHallOfFameFromFile(opts.hallOfFame, cfg.Telemetry.HallOfFameSize)
	if err != nil {
		return nil, err
	}
	slog.Info("seeding from hall of fame", "path", opts.hallOfFame, "entries", hof.Size())
	return neural.NewPopulationFromHallOfFame(cfg, rng, hof)
}
