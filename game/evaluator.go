// Package game runs generations of birds through the pipe field.
package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
)

// State is the evaluator's lifecycle state.
type State uint8

const (
	StateRunning State = iota
	StateTerminated
)

// String returns a lowercase name for logs.
func (s State) String() string {
	if s == StateTerminated {
		return "terminated"
	}
	return "running"
}

var (
	// ErrPolicy wraps any error returned by a Policy. It is fatal for the generation.
	ErrPolicy = errors.New("policy invocation failed")
	// ErrTerminated is returned by Step once every bird has been eliminated.
	ErrTerminated = errors.New("generation terminated")
	// ErrEmptyPopulation is returned when a generation is started without policies.
	ErrEmptyPopulation = errors.New("no policies to evaluate")
	// ErrNoPipe is returned by Step if the pipe field has run empty, leaving
	// birds nothing to observe.
	ErrNoPipe = errors.New("no pipe in play")
)

// Hooks receive evaluator events. Any hook may be nil.
type Hooks struct {
	OnFlap      func(tick, id int)
	OnPass      func(tick, score int)
	OnEliminate func(tick, id int, cause systems.Cause, fitness float64)
	OnTerminate func(result Result)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithGapSource overrides the random gap heights.
func WithGapSource(src systems.GapSource) Option {
	return func(e *Evaluator) { e.gaps = src }
}

// WithCollision replaces the default solid-footprint collision system.
func WithCollision(cs *systems.CollisionSystem) Option {
	return func(e *Evaluator) { e.collision = cs }
}

// WithTickCap expires the generation after n ticks when it is run through
// EvaluateGeneration. n <= 0 runs until every bird is eliminated.
func WithTickCap(n int) Option {
	return func(e *Evaluator) { e.tickCap = n }
}

// WithHooks installs event hooks.
func WithHooks(h Hooks) Option {
	return func(e *Evaluator) { e.hooks = h }
}

// agent binds a bird to its policy and fitness for one generation.
type agent struct {
	id      int
	bird    components.Bird
	policy  Policy
	fitness float64
}

// AgentResult is one bird's outcome.
type AgentResult struct {
	ID      int           `csv:"id" json:"id"`
	Fitness float64       `csv:"fitness" json:"fitness"`
	Cause   systems.Cause `csv:"-" json:"-"`
	Tick    int           `csv:"tick" json:"tick"` // tick of elimination
	Flaps   int           `csv:"flaps" json:"flaps"`
}

// Result summarizes a finished generation. Agents are indexed by policy order.
type Result struct {
	Generation int
	Ticks      int
	Score      int
	Agents     []AgentResult
}

// Fitnesses returns final fitness in policy order.
func (r Result) Fitnesses() []float64 {
	out := make([]float64, len(r.Agents))
	for i, a := range r.Agents {
		out[i] = a.Fitness
	}
	return out
}

// Best returns the highest-fitness agent. The first wins ties.
func (r Result) Best() AgentResult {
	best := AgentResult{ID: -1, Fitness: math.Inf(-1)}
	for _, a := range r.Agents {
		if a.Fitness > best.Fitness {
			best = a
		}
	}
	return best
}

// Evaluator runs one generation: every bird is stepped in lock-step until
// none remain. Birds are kept in a stable order; the first live bird is the
// reference every bird uses to pick the pipe it observes.
type Evaluator struct {
	cfg       *config.Config
	physics   *systems.PhysicsSystem
	collision *systems.CollisionSystem
	gaps      systems.GapSource
	field     *systems.PipeField
	ground    components.Ground
	hooks     Hooks

	agents   []agent
	policies []Policy
	results  []AgentResult

	generation int
	tick       int
	tickCap    int
	score      int
	state      State

	// per-tick scratch, indexed like agents
	flap  []bool
	cause []systems.Cause
}

// NewEvaluator seeds a generation with one bird per policy. rng drives pipe
// heights unless WithGapSource is given.
func NewEvaluator(cfg *config.Config, rng *rand.Rand, generation int, policies []Policy, opts ...Option) (*Evaluator, error) {
	if len(policies) == 0 {
		return nil, ErrEmptyPopulation
	}

	e := &Evaluator{
		cfg:        cfg,
		physics:    systems.NewPhysicsSystem(cfg),
		ground:     components.NewGround(cfg.World.GroundY, cfg.Ground.Width),
		policies:   policies,
		generation: generation,
		agents:     make([]agent, len(policies)),
		results:    make([]AgentResult, len(policies)),
		flap:       make([]bool, len(policies)),
		cause:      make([]systems.Cause, len(policies)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.collision == nil {
		e.collision = systems.NewCollisionSystem(cfg)
	}
	if e.gaps == nil {
		if rng == nil {
			return nil, fmt.Errorf("evaluator needs an rng or a gap source")
		}
		e.gaps = systems.RandomGaps(rng, cfg.Pipe.MinGapTop, cfg.Pipe.MaxGapTop)
	}

	for i, p := range policies {
		if p == nil {
			return nil, fmt.Errorf("policy %d is nil", i)
		}
		e.agents[i] = agent{
			id:     i,
			bird:   components.NewBird(cfg.Bird.StartX, cfg.Bird.StartY, cfg.Bird.Width, cfg.Bird.Height),
			policy: p,
		}
		e.results[i] = AgentResult{ID: i}
	}

	e.field = systems.NewPipeField(cfg, e.gaps)
	e.field.Spawn()

	return e, nil
}

// observe builds a bird's view of the active pipe.
func observe(b *components.Bird, p *components.Pipe) components.Observation {
	return components.Observation{
		Y:          b.Y,
		TopDist:    math.Abs(b.Y - p.GapTop),
		BottomDist: math.Abs(b.Y - p.GapBottom()),
	}
}

// Step advances the generation by exactly one tick. Policy errors abort the
// tick before any state changes and are wrapped in ErrPolicy.
func (e *Evaluator) Step() error {
	if e.state == StateTerminated {
		return ErrTerminated
	}
	tick := e.tick + 1
	fit := e.cfg.Fitness

	// Every bird observes the pipe chosen for the lead bird.
	idx := e.field.ActiveIndex(e.agents[0].bird.X)
	if idx < 0 {
		return fmt.Errorf("%w at tick %d", ErrNoPipe, tick)
	}
	active := e.field.At(idx)

	for i := range e.agents {
		a := &e.agents[i]
		out, err := a.policy.Decide(observe(&a.bird, active))
		if err != nil {
			return fmt.Errorf("%w: agent %d at tick %d: %w", ErrPolicy, a.id, tick, err)
		}
		e.flap[i] = out > fit.ActionThreshold
	}
	e.tick = tick

	for i := range e.agents {
		if e.flap[i] {
			e.physics.Jump(&e.agents[i].bird)
			if e.hooks.OnFlap != nil {
				e.hooks.OnFlap(tick, e.agents[i].id)
			}
		}
		e.agents[i].fitness += fit.TickReward
	}

	e.field.Advance()
	e.physics.MoveGround(&e.ground)
	for i := range e.agents {
		e.physics.Move(&e.agents[i].bird)
	}

	e.collide()
	e.checkPassage()
	e.removeEliminated()
	e.field.RetireOffscreen()

	if len(e.agents) == 0 {
		e.terminate()
	}
	return nil
}

// collide marks every bird touching a pipe or the world bounds and applies
// the collision penalty once per bird.
func (e *Evaluator) collide() {
	for i := range e.agents {
		e.cause[i] = e.collision.OutOfBounds(&e.agents[i].bird)
	}
	for p := 0; p < e.field.Len(); p++ {
		pipe := e.field.At(p)
		for i := range e.agents {
			if e.cause[i] == systems.CauseNone && e.collision.Overlaps(pipe, &e.agents[i].bird) {
				e.cause[i] = systems.CausePipe
			}
		}
	}
	for i := range e.agents {
		if e.cause[i] != systems.CauseNone {
			e.agents[i].fitness -= e.cfg.Fitness.CollisionPenalty
		}
	}
}

// checkPassage scores each pipe the first time any bird that started this
// tick alive is to its right. Birds surviving the tick share the bonus and
// a new pipe is spawned per passage.
func (e *Evaluator) checkPassage() {
	n := e.field.Len() // pipes spawned below are not checked until next tick
	for p := 0; p < n; p++ {
		pipe := e.field.At(p)
		if pipe.Passed || !e.anyRightOf(pipe.X) {
			continue
		}
		pipe.Passed = true
		e.score++
		for i := range e.agents {
			if e.cause[i] == systems.CauseNone {
				e.agents[i].fitness += e.cfg.Fitness.PassBonus
			}
		}
		e.field.Spawn()
		if e.hooks.OnPass != nil {
			e.hooks.OnPass(e.tick, e.score)
		}
	}
}

func (e *Evaluator) anyRightOf(x float64) bool {
	for i := range e.agents {
		if e.agents[i].bird.X > x {
			return true
		}
	}
	return false
}

// removeEliminated drops marked birds in one pass, preserving the order of
// the survivors.
func (e *Evaluator) removeEliminated() {
	kept := e.agents[:0]
	for i := range e.agents {
		a := e.agents[i]
		if c := e.cause[i]; c != systems.CauseNone {
			e.finalize(&a, c)
			continue
		}
		kept = append(kept, a)
	}
	e.agents = kept
}

func (e *Evaluator) finalize(a *agent, cause systems.Cause) {
	e.results[a.id] = AgentResult{
		ID:      a.id,
		Fitness: a.fitness,
		Cause:   cause,
		Tick:    e.tick,
		Flaps:   a.bird.Flaps,
	}
	if e.hooks.OnEliminate != nil {
		e.hooks.OnEliminate(e.tick, a.id, cause, a.fitness)
	}
}

// terminate reports final fitness to every policy owner that asked for it.
func (e *Evaluator) terminate() {
	e.state = StateTerminated
	for i, p := range e.policies {
		if r, ok := p.(FitnessReporter); ok {
			r.ReportFitness(e.results[i].Fitness)
		}
	}
	if e.hooks.OnTerminate != nil {
		e.hooks.OnTerminate(e.Result())
	}
}

// Expire ends the generation early, keeping survivors' fitness without a
// penalty. It is a no-op once terminated.
func (e *Evaluator) Expire() {
	if e.state == StateTerminated {
		return
	}
	for i := range e.agents {
		e.finalize(&e.agents[i], systems.CauseTimeout)
	}
	e.agents = e.agents[:0]
	e.terminate()
}

// Run steps until every bird is eliminated. A positive maxTicks expires the
// generation once that many ticks have run.
func (e *Evaluator) Run(maxTicks int) (Result, error) {
	for e.state == StateRunning {
		if maxTicks > 0 && e.tick >= maxTicks {
			e.Expire()
			break
		}
		if err := e.Step(); err != nil {
			return Result{}, err
		}
	}
	return e.Result(), nil
}

// Result returns the outcome so far. Birds still alive report their current
// fitness with CauseNone.
func (e *Evaluator) Result() Result {
	agents := make([]AgentResult, len(e.results))
	copy(agents, e.results)
	for _, a := range e.agents {
		agents[a.id] = AgentResult{ID: a.id, Fitness: a.fitness, Flaps: a.bird.Flaps}
	}
	return Result{
		Generation: e.generation,
		Ticks:      e.tick,
		Score:      e.score,
		Agents:     agents,
	}
}

// State returns the lifecycle state.
func (e *Evaluator) State() State { return e.state }

// Done reports whether the generation has terminated.
func (e *Evaluator) Done() bool { return e.state == StateTerminated }

// Tick returns the number of ticks processed.
func (e *Evaluator) Tick() int { return e.tick }

// Score returns the number of pipes passed.
func (e *Evaluator) Score() int { return e.score }

// Alive returns the number of live birds.
func (e *Evaluator) Alive() int { return len(e.agents) }

// Generation returns the generation index this evaluator was created with.
func (e *Evaluator) Generation() int { return e.generation }

// EvaluateGeneration runs one full generation and returns its result. It is
// the callback form used by the population driver. Without WithTickCap the
// generation ends only when the last bird is eliminated.
func EvaluateGeneration(cfg *config.Config, rng *rand.Rand, generation int, policies []Policy, opts ...Option) (Result, error) {
	e, err := NewEvaluator(cfg, rng, generation, policies, opts...)
	if err != nil {
		return Result{}, err
	}
	return e.Run(e.tickCap)
}
