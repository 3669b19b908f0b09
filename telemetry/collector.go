package telemetry

import "time"

// Death causes counted by the collector.
const (
	CausePipe    = "pipe"
	CauseGround  = "ground"
	CauseCeiling = "ceiling"
	CauseTimeout = "timeout"
)

// GenerationSummary is what the evaluator knows once a generation ends.
type GenerationSummary struct {
	Generation int
	Ticks      int
	Score      int
	Fitness    []float64 // per bird, policy order
	Species    int
}

// Collector accumulates events for the current generation and produces
// GenerationStats.
type Collector struct {
	runID string
	now   func() time.Time

	generation int
	started    time.Time

	// Event counters for current generation
	flaps      int
	passes     int
	deaths     map[string]int
	deathTicks []float64
}

// NewCollector creates a collector tagging every record with runID.
func NewCollector(runID string) *Collector {
	c := &Collector{
		runID:  runID,
		now:    time.Now,
		deaths: make(map[string]int),
	}
	c.Begin(0)
	return c
}

// Begin resets counters for a new generation.
func (c *Collector) Begin(generation int) {
	c.generation = generation
	c.started = c.now()
	c.flaps = 0
	c.passes = 0
	clear(c.deaths)
	c.deathTicks = c.deathTicks[:0]
}

// Record counts one event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventFlap:
		c.flaps++
	case EventPass:
		c.passes++
	case EventDeath:
		c.deaths[ev.Cause]++
		c.deathTicks = append(c.deathTicks, float64(ev.Tick))
	}
}

// Flush produces the stats for the finished generation. Counters are not
// reset until the next Begin.
func (c *Collector) Flush(s GenerationSummary) GenerationStats {
	elapsed := c.now().Sub(c.started)
	mean, std, lo, p10, p50, p90, hi := ComputeFitnessStats(s.Fitness)
	lifeMean, _, _, _, _, _, _ := ComputeFitnessStats(c.deathTicks)

	stats := GenerationStats{
		RunID:      c.runID,
		Generation: s.Generation,
		Ticks:      s.Ticks,
		Score:      s.Score,
		Population: len(s.Fitness),
		Species:    s.Species,

		FitnessMean: mean,
		FitnessStd:  std,
		FitnessMin:  lo,
		FitnessP10:  p10,
		FitnessP50:  p50,
		FitnessP90:  p90,
		FitnessMax:  hi,

		Flaps:         c.flaps,
		Passes:        c.passes,
		DeathsPipe:    c.deaths[CausePipe],
		DeathsGround:  c.deaths[CauseGround],
		DeathsCeiling: c.deaths[CauseCeiling],
		Timeouts:      c.deaths[CauseTimeout],
		LifetimeMean:  lifeMean,

		WallMS: elapsed.Milliseconds(),
	}
	if elapsed > 0 {
		stats.TicksPerSec = float64(s.Ticks) / elapsed.Seconds()
	}
	return stats
}

// RunID returns the run identifier.
func (c *Collector) RunID() string {
	return c.runID
}
