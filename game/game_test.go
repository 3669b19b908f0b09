package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/telemetry"
)

// scriptedDriver replays the same policies every generation.
type scriptedDriver struct {
	generation int
	policies   []Policy
	evolved    []Result
	records    []telemetry.SpeciesRecord
	hof        *telemetry.HallOfFame
	err        error
}

func (d *scriptedDriver) Generation() int    { return d.generation }
func (d *scriptedDriver) Policies() []Policy { return d.policies }

func (d *scriptedDriver) Evolve(res Result) error {
	if d.err != nil {
		return d.err
	}
	d.evolved = append(d.evolved, res)
	d.records = []telemetry.SpeciesRecord{{Generation: res.Generation, SpeciesID: 1, Size: len(res.Agents)}}
	d.generation++
	return nil
}

func (d *scriptedDriver) SpeciesRecords() []telemetry.SpeciesRecord { return d.records }
func (d *scriptedDriver) HallOfFame() *telemetry.HallOfFame         { return d.hof }

type recordingSink struct {
	frames []Frame
	stats  []telemetry.GenerationStats
}

func (s *recordingSink) PublishFrame(f Frame) { s.frames = append(s.frames, f) }
func (s *recordingSink) PublishGeneration(stats telemetry.GenerationStats) {
	s.stats = append(s.stats, stats)
}

func newTestGame(t *testing.T, cfg *config.Config, driver Driver, opts Options) *Game {
	t.Helper()
	g, err := NewGame(cfg, driver, opts)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestGameEvaluateHeadless(t *testing.T) {
	cfg := config.Defaults()
	driver := &scriptedDriver{policies: []Policy{AlwaysFlap, NeverFlap}}
	sink := &recordingSink{}
	g := newTestGame(t, cfg, driver, Options{Seed: 1, RunID: "test", Headless: true, Sink: sink})

	res, err := g.Evaluate(0, driver.Policies())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(res.Agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(res.Agents))
	}
	if len(sink.frames) != res.Ticks {
		t.Errorf("frames = %d, want one per tick (%d)", len(sink.frames), res.Ticks)
	}

	if err := driver.Evolve(res); err != nil {
		t.Fatal(err)
	}
	stats := g.Report(res)

	if stats.RunID != "test" || stats.Population != 2 || stats.Species != 1 {
		t.Errorf("stats = %+v, want run test with 2 birds in 1 species", stats)
	}
	if deaths := stats.DeathsPipe + stats.DeathsGround + stats.DeathsCeiling; deaths != 2 {
		t.Errorf("deaths = %d, want 2", deaths)
	}
	if stats.DeathsGround < 1 {
		t.Error("the bird that never flaps should hit the ground")
	}
	if stats.Flaps == 0 {
		t.Error("flaps should be counted")
	}
	if len(sink.stats) != 1 {
		t.Errorf("published stats = %d, want 1", len(sink.stats))
	}
	if last, ok := g.LastStats(); !ok || last.Generation != 0 {
		t.Errorf("LastStats = (%+v, %v)", last, ok)
	}
}

func TestGameEvaluateExpiresAtMaxTicks(t *testing.T) {
	cfg := config.Defaults()
	cfg.Evolution.MaxTicks = 10
	driver := &scriptedDriver{policies: []Policy{NeverFlap}}
	g := newTestGame(t, cfg, driver, Options{Seed: 1, Headless: true})

	res, err := g.Evaluate(0, driver.Policies())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Ticks != 10 {
		t.Errorf("ticks = %d, want 10", res.Ticks)
	}
	if math.Abs(res.Agents[0].Fitness-1.0) > eps {
		t.Errorf("fitness = %v, want 1.0 with no penalty", res.Agents[0].Fitness)
	}

	stats := g.Report(res)
	if stats.Timeouts != 1 {
		t.Errorf("timeouts = %d, want 1", stats.Timeouts)
	}
}

func TestGameEvaluateEmpty(t *testing.T) {
	g := newTestGame(t, config.Defaults(), &scriptedDriver{}, Options{Headless: true})
	if _, err := g.Evaluate(0, nil); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("err = %v, want ErrEmptyPopulation", err)
	}
}

func TestGameReportWritesOutput(t *testing.T) {
	cfg := config.Defaults()
	cfg.Evolution.MaxTicks = 5
	dir := t.TempDir()
	hof := telemetry.NewHallOfFame(3)
	hof.Consider(telemetry.HallEntry{Generation: 0, Fitness: 0.5})
	driver := &scriptedDriver{policies: []Policy{NeverFlap}, hof: hof}
	g := newTestGame(t, cfg, driver, Options{Headless: true, OutputDir: dir})

	res, err := g.Evaluate(0, driver.Policies())
	if err != nil {
		t.Fatal(err)
	}
	if err := driver.Evolve(res); err != nil {
		t.Fatal(err)
	}
	g.Report(res)
	g.Unload()

	for _, name := range []string{"config.yaml", "generations.csv", "species.csv", "hall_of_fame.json"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s missing: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestGameAdvanceRollsOverGenerations(t *testing.T) {
	cfg := config.Defaults()
	cfg.Evolution.MaxTicks = 10
	cfg.Evolution.FitnessThreshold = 0
	driver := &scriptedDriver{policies: []Policy{NeverFlap, NeverFlap, NeverFlap}}
	sink := &recordingSink{}
	g := newTestGame(t, cfg, driver, Options{Seed: 1, Generations: 2, Sink: sink})

	g.advance(100)

	if !g.Done() || g.Err() != nil {
		t.Fatalf("Done = %v, Err = %v, want a clean stop", g.Done(), g.Err())
	}
	if g.Played() != 2 || len(driver.evolved) != 2 {
		t.Errorf("played %d, evolved %d, want 2", g.Played(), len(driver.evolved))
	}
	if driver.evolved[1].Generation != 1 {
		t.Errorf("second generation index = %d, want 1", driver.evolved[1].Generation)
	}
	if len(sink.stats) != 2 {
		t.Errorf("published stats = %d, want 2", len(sink.stats))
	}
}

func TestGameAdvanceStopsAtThreshold(t *testing.T) {
	cfg := config.Defaults()
	cfg.Evolution.MaxTicks = 10
	cfg.Evolution.FitnessThreshold = 0.5
	driver := &scriptedDriver{policies: []Policy{NeverFlap}}
	g := newTestGame(t, cfg, driver, Options{Seed: 1})

	g.advance(100)

	if !g.Done() || g.Played() != 1 {
		t.Errorf("Done = %v after %d generations, want stop after 1", g.Done(), g.Played())
	}
}

func TestGameAdvanceStopsOnEvolveError(t *testing.T) {
	cfg := config.Defaults()
	cfg.Evolution.MaxTicks = 5
	boom := errors.New("boom")
	driver := &scriptedDriver{policies: []Policy{NeverFlap}, err: boom}
	g := newTestGame(t, cfg, driver, Options{Seed: 1})

	g.advance(100)

	if !g.Done() || !errors.Is(g.Err(), boom) {
		t.Errorf("Done = %v, Err = %v, want stop with boom", g.Done(), g.Err())
	}
	if g.Tick() != 5 {
		t.Errorf("tick = %d, want 5", g.Tick())
	}
}

func TestTopSpecies(t *testing.T) {
	records := []telemetry.SpeciesRecord{
		{SpeciesID: 1, Size: 2},
		{SpeciesID: 2, Size: 9},
		{SpeciesID: 3, Size: 5},
	}
	top := topSpecies(records, 2)
	if len(top) != 2 || top[0].SpeciesID != 2 || top[1].SpeciesID != 3 {
		t.Errorf("topSpecies = %+v, want species 2 then 3", top)
	}
	if records[0].SpeciesID != 1 {
		t.Error("topSpecies should not reorder its input")
	}
}
