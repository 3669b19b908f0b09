package neural

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/telemetry"
)

// Champion is the best genome seen so far.
type Champion struct {
	Genome     *genetics.Genome
	Fitness    float64
	Generation int
}

// EvalFunc plays one generation of policies and returns its result.
type EvalFunc func(generation int, policies []game.Policy) (game.Result, error)

// RunSummary describes how a run ended.
type RunSummary struct {
	Generations    int
	BestFitness    float64
	BestGeneration int
	Solved         bool // Fitness threshold reached
	Canceled       bool
}

// LogValue implements slog.LogValuer.
func (s RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generations", s.Generations),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Int("best_generation", s.BestGeneration),
		slog.Bool("solved", s.Solved),
		slog.Bool("canceled", s.Canceled),
	)
}

// Population evolves a fixed-size set of brain genomes, one generation per
// Evolve call.
type Population struct {
	cfg     *config.Config
	opts    *neat.Options
	rng     *rand.Rand
	ids     *GenomeIDGenerator
	species *SpeciesManager
	hof     *telemetry.HallOfFame
	runID   string

	brains     []*BrainPolicy
	policies   []game.Policy
	generation int
	best       Champion
	hasBest    bool
	records    []telemetry.SpeciesRecord
}

// NewPopulation creates cfg.Evolution.Population random minimal genomes.
func NewPopulation(cfg *config.Config, rng *rand.Rand) (*Population, error) {
	p := newPopulation(cfg, rng)
	genomes := make([]*genetics.Genome, cfg.Evolution.Population)
	for i := range genomes {
		genomes[i] = CreateBrainGenome(p.ids.NextID(), rng, cfg.Neural.InitialConnectionProb)
	}
	if err := p.setGenomes(genomes); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPopulationFromGenomes fills a population from seed genomes. Seeds are
// kept unchanged; the rest of the slots get mutated copies of them.
func NewPopulationFromGenomes(cfg *config.Config, rng *rand.Rand, seeds []*genetics.Genome) (*Population, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed genomes")
	}
	p := newPopulation(cfg, rng)
	for _, s := range seeds {
		p.ids.Observe(s)
	}

	genomes := make([]*genetics.Genome, cfg.Evolution.Population)
	for i := range genomes {
		g, err := CloneGenome(seeds[i%len(seeds)], p.ids.NextID())
		if err != nil {
			return nil, err
		}
		if i >= len(seeds) {
			mutateWeights(rng, g, p.opts.WeightMutPower)
		}
		genomes[i] = g
	}
	if err := p.setGenomes(genomes); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPopulationFromHallOfFame seeds a population with the genomes stored in
// a hall of fame and keeps adding to that hall.
func NewPopulationFromHallOfFame(cfg *config.Config, rng *rand.Rand, hof *telemetry.HallOfFame) (*Population, error) {
	seeds := make([]*genetics.Genome, 0, hof.Size())
	for _, e := range hof.Entries() {
		g, err := DecodeGenome(e.Genome)
		if err != nil {
			return nil, fmt.Errorf("hall of fame generation %d: %w", e.Generation, err)
		}
		seeds = append(seeds, g)
	}
	p, err := NewPopulationFromGenomes(cfg, rng, seeds)
	if err != nil {
		return nil, err
	}
	p.hof = hof
	return p, nil
}

func newPopulation(cfg *config.Config, rng *rand.Rand) *Population {
	opts := NEATOptions(cfg)
	return &Population{
		cfg:     cfg,
		opts:    opts,
		rng:     rng,
		ids:     NewGenomeIDGenerator(),
		species: NewSpeciesManager(opts),
		hof:     telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
	}
}

// SetRunID tags hall of fame entries with the run they came from.
func (p *Population) SetRunID(id string) { p.runID = id }

// setGenomes builds policies for genomes and speciates them.
func (p *Population) setGenomes(genomes []*genetics.Genome) error {
	brains := make([]*BrainPolicy, len(genomes))
	policies := make([]game.Policy, len(genomes))
	for i, g := range genomes {
		b, err := NewBrainPolicy(g)
		if err != nil {
			return fmt.Errorf("genome %d: %w", g.Id, err)
		}
		brains[i] = b
		policies[i] = b
	}
	p.brains = brains
	p.policies = policies
	p.speciate()
	return nil
}

// speciate assigns every brain to a species. Each surviving species takes
// its first member of the new generation as representative.
func (p *Population) speciate() {
	p.species.ResetMembers()
	for _, b := range p.brains {
		sid := p.species.AssignSpecies(b.Genome)
		p.species.AddMember(sid, b.Genome.Id)
		b.SpeciesID = sid
	}
	p.species.DropEmpty()

	seen := make(map[int]bool, len(p.species.Species))
	for _, b := range p.brains {
		if !seen[b.SpeciesID] {
			seen[b.SpeciesID] = true
			p.species.GetSpecies(b.SpeciesID).Representative = b.Genome
		}
		b.color = p.species.GetSpeciesColor(b.SpeciesID)
	}
}

// Generation returns the index of the generation about to be played.
func (p *Population) Generation() int { return p.generation }

// Policies returns the current generation's policies in population order.
func (p *Population) Policies() []game.Policy { return p.policies }

// Brains returns the current generation's brains in population order.
func (p *Population) Brains() []*BrainPolicy { return p.brains }

// Species returns the species manager.
func (p *Population) Species() *SpeciesManager { return p.species }

// HallOfFame returns the run's hall of fame.
func (p *Population) HallOfFame() *telemetry.HallOfFame { return p.hof }

// SpeciesRecords returns one record per species from the last Evolve call.
func (p *Population) SpeciesRecords() []telemetry.SpeciesRecord { return p.records }

// SpeciesColor returns the display color of a species, gray once it is gone.
func (p *Population) SpeciesColor(id int) (uint8, uint8, uint8) {
	c := p.species.GetSpeciesColor(id)
	return c.R, c.G, c.B
}

// Best returns the best genome seen so far.
func (p *Population) Best() (Champion, bool) { return p.best, p.hasBest }

// Evolve scores the current generation with res and replaces it with the
// next one.
func (p *Population) Evolve(res game.Result) error {
	if len(res.Agents) != len(p.brains) {
		return fmt.Errorf("result has %d agents, population has %d", len(res.Agents), len(p.brains))
	}

	fitness := res.Fitnesses()
	for i, b := range p.brains {
		b.ReportFitness(fitness[i])
		p.species.AccumulateFitness(b.SpeciesID, fitness[i])
	}

	bestIdx := floats.MaxIdx(fitness)
	champ := p.brains[bestIdx]
	if !p.hasBest || fitness[bestIdx] > p.best.Fitness {
		p.best = Champion{Genome: champ.Genome, Fitness: fitness[bestIdx], Generation: p.generation}
		p.hasBest = true
	}
	if err := p.recordChampion(res, bestIdx); err != nil {
		return err
	}

	p.species.EndGeneration(champ.SpeciesID)

	counts := p.allocateOffspring(champ.SpeciesID)
	p.records = make([]telemetry.SpeciesRecord, 0, len(p.species.Species))
	for i, sp := range p.species.Species {
		p.species.RecordOffspring(sp.ID, counts[i])
		p.records = append(p.records, telemetry.SpeciesRecord{
			Generation:  p.generation,
			SpeciesID:   sp.ID,
			Size:        len(sp.Members),
			Age:         sp.Age,
			BestFitness: sp.BestFitness,
			AvgFitness:  sp.AvgFitness,
			Offspring:   counts[i],
		})
	}

	next, err := p.reproduce(fitness, counts)
	if err != nil {
		return fmt.Errorf("generation %d: %w", p.generation, err)
	}
	if err := p.setGenomes(next); err != nil {
		return fmt.Errorf("generation %d: %w", p.generation, err)
	}
	p.generation++
	return nil
}

func (p *Population) recordChampion(res game.Result, idx int) error {
	b := p.brains[idx]
	data, err := EncodeGenome(b.Genome)
	if err != nil {
		return err
	}
	p.hof.Consider(telemetry.HallEntry{
		RunID:      p.runID,
		Generation: p.generation,
		BirdID:     idx,
		Fitness:    res.Agents[idx].Fitness,
		Score:      res.Score,
		Nodes:      b.NodeCount(),
		Links:      b.LinkCount(),
		Genome:     data,
	})
	return nil
}

// allocateOffspring splits the population size across species in
// proportion to their shifted average fitness. Remainders go to the
// species with the largest fractional share. The species keepID always
// gets at least one slot so the champion survives.
func (p *Population) allocateOffspring(keepID int) []int {
	n := len(p.species.Species)
	counts := make([]int, n)
	if n == 0 {
		return counts
	}

	share := make([]float64, n)
	for i, sp := range p.species.Species {
		share[i] = sp.AvgFitness
	}
	floats.AddConst(1e-3-floats.Min(share), share)
	floats.Scale(float64(p.cfg.Evolution.Population)/floats.Sum(share), share)

	assigned := 0
	frac := make([]float64, n)
	for i, s := range share {
		counts[i] = int(math.Floor(s))
		frac[i] = s - float64(counts[i])
		assigned += counts[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })
	for k := 0; assigned < p.cfg.Evolution.Population; k++ {
		counts[order[k%n]]++
		assigned++
	}

	for i, sp := range p.species.Species {
		if sp.ID != keepID || counts[i] > 0 {
			continue
		}
		donor := floats.MaxIdx(intsToFloats(counts))
		counts[donor]--
		counts[i]++
	}
	return counts
}

func intsToFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// reproduce builds the next generation's genomes.
func (p *Population) reproduce(fitness []float64, counts []int) ([]*genetics.Genome, error) {
	index := make(map[int]int, len(p.brains))
	for i, b := range p.brains {
		index[b.Genome.Id] = i
	}

	next := make([]*genetics.Genome, 0, p.cfg.Evolution.Population)
	for si, sp := range p.species.Species {
		if counts[si] == 0 {
			continue
		}

		ranked := make([]int, 0, len(sp.Members))
		for _, id := range sp.Members {
			ranked = append(ranked, index[id])
		}
		sort.SliceStable(ranked, func(a, b int) bool { return fitness[ranked[a]] > fitness[ranked[b]] })

		elite := min(p.cfg.Evolution.Elitism, counts[si], len(ranked))
		for _, idx := range ranked[:elite] {
			g, err := CloneGenome(p.brains[idx].Genome, p.ids.NextID())
			if err != nil {
				return nil, err
			}
			next = append(next, g)
		}

		poolSize := max(1, int(math.Ceil(p.opts.SurvivalThresh*float64(len(ranked)))))
		pool := ranked[:min(poolSize, len(ranked))]

		for k := elite; k < counts[si]; k++ {
			child, err := p.breed(pool, fitness)
			if err != nil {
				return nil, err
			}
			next = append(next, child)
		}
	}
	return next, nil
}

// breed produces one child from a species' parent pool.
func (p *Population) breed(pool []int, fitness []float64) (*genetics.Genome, error) {
	mom := pool[p.rng.Intn(len(pool))]

	if len(pool) == 1 || p.rng.Float64() < p.opts.MutateOnlyProb {
		child, err := CloneGenome(p.brains[mom].Genome, p.ids.NextID())
		if err != nil {
			return nil, err
		}
		if _, err := MutateGenome(p.rng, child, p.opts, p.ids); err != nil {
			return nil, err
		}
		return child, nil
	}

	dad := pool[p.rng.Intn(len(pool))]
	child, err := CrossoverGenomes(p.rng, p.brains[mom].Genome, p.brains[dad].Genome, fitness[mom], fitness[dad], p.ids.NextID())
	if err != nil {
		return nil, err
	}
	if p.rng.Float64() >= p.opts.MateOnlyProb {
		if _, err := MutateGenome(p.rng, child, p.opts, p.ids); err != nil {
			return nil, err
		}
	}
	return child, nil
}

// Run plays and evolves generations until ctx is canceled, the fitness
// threshold is reached, or generations have been played (0 = unlimited).
// observe is called after each generation has been evolved.
func (p *Population) Run(ctx context.Context, eval EvalFunc, generations int, observe func(game.Result)) (RunSummary, error) {
	var summary RunSummary
	threshold := p.cfg.Evolution.FitnessThreshold

	for generations <= 0 || summary.Generations < generations {
		if ctx.Err() != nil {
			summary.Canceled = true
			break
		}

		res, err := eval(p.generation, p.Policies())
		if err != nil {
			return summary, fmt.Errorf("evaluating generation %d: %w", p.generation, err)
		}
		if err := p.Evolve(res); err != nil {
			return summary, err
		}
		summary.Generations++
		if observe != nil {
			observe(res)
		}

		if p.hasBest {
			summary.BestFitness = p.best.Fitness
			summary.BestGeneration = p.best.Generation
		}
		if threshold > 0 && res.Best().Fitness >= threshold {
			summary.Solved = true
			break
		}
	}
	return summary, nil
}
