package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	RunID      string `csv:"run_id" json:"run_id"`
	Generation int    `csv:"generation" json:"generation"`
	Ticks      int    `csv:"ticks" json:"ticks"`
	Score      int    `csv:"score" json:"score"`
	Population int    `csv:"population" json:"population"`
	Species    int    `csv:"species" json:"species"`

	// Fitness distribution
	FitnessMean float64 `csv:"fitness_mean" json:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std" json:"fitness_std"`
	FitnessMin  float64 `csv:"fitness_min" json:"fitness_min"`
	FitnessP10  float64 `csv:"fitness_p10" json:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50" json:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90" json:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max" json:"fitness_max"`

	// Events during the generation
	Flaps         int     `csv:"flaps" json:"flaps"`
	Passes        int     `csv:"passes" json:"passes"`
	DeathsPipe    int     `csv:"deaths_pipe" json:"deaths_pipe"`
	DeathsGround  int     `csv:"deaths_ground" json:"deaths_ground"`
	DeathsCeiling int     `csv:"deaths_ceiling" json:"deaths_ceiling"`
	Timeouts      int     `csv:"timeouts" json:"timeouts"`
	LifetimeMean  float64 `csv:"lifetime_mean" json:"lifetime_mean"` // mean elimination tick

	// Throughput
	WallMS      int64   `csv:"wall_ms" json:"wall_ms"`
	TicksPerSec float64 `csv:"ticks_per_sec" json:"ticks_per_sec"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFitnessStats calculates mean, population std, extremes and
// percentiles. All zeros for an empty slice.
func ComputeFitnessStats(values []float64) (mean, std, lo, p10, p50, p90, hi float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)
	lo, hi = floats.Min(values), floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, lo, p10, p50, p90, hi
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int("score", s.Score),
		slog.Int("population", s.Population),
		slog.Int("species", s.Species),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Int("flaps", s.Flaps),
		slog.Int("deaths_pipe", s.DeathsPipe),
		slog.Int("deaths_ground", s.DeathsGround),
		slog.Int("deaths_ceiling", s.DeathsCeiling),
		slog.Int("timeouts", s.Timeouts),
		slog.Float64("ticks_per_sec", s.TicksPerSec),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}
