package main

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

// FitnessEvaluator runs headless evolutions and scores parameter vectors.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastSolved     float64 // fraction of seeds solved in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastSolved returns the solved fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastSolved() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSolved
}

// runResult holds the results from a single evolution run.
type runResult struct {
	summary    neural.RunSummary
	hallOfFame *telemetry.HallOfFame
	err        error
}

// Evaluate computes the cost of a parameter vector (lower = better).
// Each seed contributes its negated best fitness, plus a bonus for every
// generation left unused when the fitness threshold was reached early.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runEvolution(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var total, solved float64
	bestSeedCost := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame
	for _, r := range results {
		cost := fe.computeCost(r)
		total += cost
		if r.summary.Solved {
			solved++
		}
		if cost < bestSeedCost {
			bestSeedCost = cost
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avg := total / n

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastSolved = solved / n
	fe.mu.Unlock()

	return avg
}

// computeCost turns one run into a cost. Failed runs cost nothing so the
// optimizer moves away from them.
func (fe *FitnessEvaluator) computeCost(r runResult) float64 {
	if r.err != nil {
		return 0
	}
	cost := -r.summary.BestFitness
	if r.summary.Solved {
		cost -= float64(fe.generations - r.summary.Generations)
	}
	return cost
}

// runEvolution plays one headless evolution with its own RNG.
func (fe *FitnessEvaluator) runEvolution(cfg *config.Config, seed int64) runResult {
	rng := rand.New(rand.NewSource(seed))
	pop, err := neural.NewPopulation(cfg, rng)
	if err != nil {
		return runResult{err: err}
	}

	simRNG := rand.New(rand.NewSource(seed + 1))
	eval := func(gen int, policies []game.Policy) (game.Result, error) {
		return game.EvaluateGeneration(cfg, simRNG, gen, policies, game.WithTickCap(cfg.Evolution.MaxTicks))
	}

	summary, err := pop.Run(context.Background(), eval, fe.generations, nil)
	return runResult{summary: summary, hallOfFame: pop.HallOfFame(), err: err}
}

// copyConfig returns a copy of the base config. Config holds no reference
// types, so a value copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
