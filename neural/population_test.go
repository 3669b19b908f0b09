package neural

import (
	"context"
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
)

func smallConfig(pop int) *config.Config {
	cfg := config.Defaults()
	cfg.Evolution.Population = pop
	cfg.Evolution.MaxTicks = 300
	return cfg
}

// rankedResult scores agent i with fitness i.
func rankedResult(gen, n int) game.Result {
	res := game.Result{Generation: gen, Agents: make([]game.AgentResult, n)}
	for i := range res.Agents {
		res.Agents[i] = game.AgentResult{ID: i, Fitness: float64(i)}
	}
	return res
}

func weightsOf(g *genetics.Genome) []float64 {
	out := make([]float64, len(g.Genes))
	for i, gene := range g.Genes {
		out[i] = gene.Link.ConnectionWeight
	}
	return out
}

func sameWeights(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewPopulation(t *testing.T) {
	cfg := smallConfig(20)
	p, err := NewPopulation(cfg, testRNG())
	if err != nil {
		t.Fatalf("NewPopulation failed: %v", err)
	}

	if len(p.Policies()) != 20 {
		t.Errorf("policies = %d, want 20", len(p.Policies()))
	}
	if p.Generation() != 0 {
		t.Errorf("generation = %d, want 0", p.Generation())
	}
	if len(p.Species().Species) == 0 {
		t.Error("population should be speciated")
	}
	for i, b := range p.Brains() {
		if b.SpeciesID == 0 {
			t.Errorf("brain %d has no species", i)
		}
	}
}

func TestPopulationEvolve(t *testing.T) {
	cfg := smallConfig(20)
	p, err := NewPopulation(cfg, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	champion := weightsOf(p.Brains()[19].Genome)

	if err := p.Evolve(rankedResult(0, 20)); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}

	if len(p.Policies()) != 20 {
		t.Errorf("next generation size = %d, want 20", len(p.Policies()))
	}
	if p.Generation() != 1 {
		t.Errorf("generation = %d, want 1", p.Generation())
	}

	best, ok := p.Best()
	if !ok || best.Fitness != 19 || best.Generation != 0 {
		t.Errorf("best = %+v, want fitness 19 from generation 0", best)
	}
	if top := p.HallOfFame().TopFitness(); top != 19 {
		t.Errorf("hall of fame top = %v, want 19", top)
	}

	offspring := 0
	for _, r := range p.SpeciesRecords() {
		offspring += r.Offspring
	}
	if offspring != 20 {
		t.Errorf("species offspring total = %d, want 20", offspring)
	}

	// The champion is carried over unchanged
	found := false
	for _, b := range p.Brains() {
		if sameWeights(weightsOf(b.Genome), champion) {
			found = true
			break
		}
	}
	if !found {
		t.Error("champion genome missing from next generation")
	}

	// Genome IDs are unique
	seen := make(map[int]bool)
	for _, b := range p.Brains() {
		if seen[b.Genome.Id] {
			t.Errorf("duplicate genome id %d", b.Genome.Id)
		}
		seen[b.Genome.Id] = true
	}
}

func TestPopulationEvolveRejectsMismatchedResult(t *testing.T) {
	p, err := NewPopulation(smallConfig(10), testRNG())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Evolve(rankedResult(0, 9)); err == nil {
		t.Error("expected error for a result of the wrong size")
	}
	if p.Generation() != 0 {
		t.Error("failed Evolve should not advance the generation")
	}
}

func TestPopulationRun(t *testing.T) {
	cfg := smallConfig(15)
	cfg.Evolution.FitnessThreshold = 0
	p, err := NewPopulation(cfg, testRNG())
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(7))
	var observed []int
	eval := func(gen int, policies []game.Policy) (game.Result, error) {
		return game.EvaluateGeneration(cfg, rng, gen, policies, game.WithTickCap(cfg.Evolution.MaxTicks))
	}

	summary, err := p.Run(context.Background(), eval, 3, func(res game.Result) {
		observed = append(observed, res.Generation)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Generations != 3 || summary.Solved || summary.Canceled {
		t.Errorf("summary = %+v, want 3 plain generations", summary)
	}
	if len(observed) != 3 || observed[0] != 0 || observed[2] != 2 {
		t.Errorf("observed generations = %v, want [0 1 2]", observed)
	}
	if summary.BestFitness <= 0 {
		t.Errorf("best fitness = %v, want positive", summary.BestFitness)
	}
}

func TestPopulationRunStopsAtThreshold(t *testing.T) {
	cfg := smallConfig(10)
	cfg.Evolution.FitnessThreshold = 5
	p, err := NewPopulation(cfg, testRNG())
	if err != nil {
		t.Fatal(err)
	}

	eval := func(gen int, policies []game.Policy) (game.Result, error) {
		return rankedResult(gen, len(policies)), nil
	}
	summary, err := p.Run(context.Background(), eval, 50, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Solved || summary.Generations != 1 {
		t.Errorf("summary = %+v, want solved after 1 generation", summary)
	}
}

func TestPopulationRunCanceled(t *testing.T) {
	p, err := NewPopulation(smallConfig(10), testRNG())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	eval := func(gen int, policies []game.Policy) (game.Result, error) {
		calls++
		return rankedResult(gen, len(policies)), nil
	}
	summary, err := p.Run(ctx, eval, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Canceled || calls != 0 {
		t.Errorf("summary = %+v after %d calls, want canceled before any", summary, calls)
	}
}

func TestNewPopulationFromHallOfFame(t *testing.T) {
	cfg := smallConfig(10)
	p, err := NewPopulation(cfg, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	champion := weightsOf(p.Brains()[9].Genome)
	if err := p.Evolve(rankedResult(0, 10)); err != nil {
		t.Fatal(err)
	}

	seeded, err := NewPopulationFromHallOfFame(cfg, rand.New(rand.NewSource(3)), p.HallOfFame())
	if err != nil {
		t.Fatalf("NewPopulationFromHallOfFame failed: %v", err)
	}
	if len(seeded.Policies()) != 10 {
		t.Errorf("policies = %d, want 10", len(seeded.Policies()))
	}
	if !sameWeights(weightsOf(seeded.Brains()[0].Genome), champion) {
		t.Error("first seeded genome should be the hall of fame champion")
	}
	if seeded.HallOfFame() != p.HallOfFame() {
		t.Error("seeded population should keep the loaded hall of fame")
	}
}

func TestNewPopulationFromGenomesEmpty(t *testing.T) {
	if _, err := NewPopulationFromGenomes(smallConfig(5), testRNG(), nil); err == nil {
		t.Error("expected error without seeds")
	}
}
