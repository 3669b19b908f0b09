package game

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
)

const (
	eps = 1e-9

	// testTickCap bounds every Run in tests so a policy that never dies
	// fails the assertions instead of hanging.
	testTickCap = 2000
)

// hoverPolicy flaps whenever the bird sinks within 88 units of the gap
// bottom. With a gap top of 300 it stays inside [329, 427].
var hoverPolicy = PolicyFunc(func(obs components.Observation) (float64, error) {
	if obs.BottomDist < 88 {
		return 1, nil
	}
	return 0, nil
})

// lowPolicy flaps only once the bird sinks below y=450, holding it in a band
// beneath any gap that ends above 379.
var lowPolicy = PolicyFunc(func(obs components.Observation) (float64, error) {
	if obs.Y > 450 {
		return 1, nil
	}
	return 0, nil
})

type recordingPolicy struct {
	Policy
	reported []float64
}

func (r *recordingPolicy) ReportFitness(f float64) {
	r.reported = append(r.reported, f)
}

func newTestEvaluator(t *testing.T, policies []Policy, opts ...Option) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(config.Defaults(), rand.New(rand.NewSource(1)), 0, policies, opts...)
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	return e
}

func TestNeverFlapHitsGround(t *testing.T) {
	e := newTestEvaluator(t, []Policy{NeverFlap})

	res, err := e.Run(testTickCap)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Ticks != 17 {
		t.Errorf("ticks = %d, want 17", res.Ticks)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	a := res.Agents[0]
	if math.Abs(a.Fitness-0.7) > eps {
		t.Errorf("fitness = %v, want 0.7", a.Fitness)
	}
	if a.Cause != systems.CauseGround {
		t.Errorf("cause = %v, want ground", a.Cause)
	}
	if !e.Done() || e.Alive() != 0 {
		t.Errorf("done=%v alive=%d after termination", e.Done(), e.Alive())
	}
}

func TestTwoBirdsEliminatedIndependently(t *testing.T) {
	e := newTestEvaluator(t, []Policy{NeverFlap, AlwaysFlap})

	for e.Tick() < 17 {
		if err := e.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if e.Alive() != 1 {
		t.Fatalf("alive after tick 17 = %d, want 1", e.Alive())
	}
	if _, id, _ := e.LiveBird(0); id != 1 {
		t.Errorf("lead bird id = %d, want 1", id)
	}

	res, err := e.Run(testTickCap)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Ticks != 39 {
		t.Errorf("ticks = %d, want 39", res.Ticks)
	}

	tests := []struct {
		id      int
		tick    int
		fitness float64
		cause   systems.Cause
	}{
		{0, 17, 0.7, systems.CauseGround},
		{1, 39, 2.9, systems.CauseCeiling},
	}
	for _, tt := range tests {
		a := res.Agents[tt.id]
		if a.Tick != tt.tick {
			t.Errorf("agent %d tick = %d, want %d", tt.id, a.Tick, tt.tick)
		}
		if math.Abs(a.Fitness-tt.fitness) > eps {
			t.Errorf("agent %d fitness = %v, want %v", tt.id, a.Fitness, tt.fitness)
		}
		if a.Cause != tt.cause {
			t.Errorf("agent %d cause = %v, want %v", tt.id, a.Cause, tt.cause)
		}
	}
	if res.Agents[1].Flaps != 39 {
		t.Errorf("flaps = %d, want 39", res.Agents[1].Flaps)
	}
}

func TestHoverPassesPipes(t *testing.T) {
	var passTicks []int
	e := newTestEvaluator(t, []Policy{hoverPolicy},
		WithGapSource(systems.FixedGaps(300)),
		WithHooks(Hooks{OnPass: func(tick, score int) { passTicks = append(passTicks, tick) }}),
	)

	res, err := e.Run(200)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Score != 3 {
		t.Errorf("score = %d, want 3", res.Score)
	}
	if !reflect.DeepEqual(passTicks, []int{55, 110, 165}) {
		t.Errorf("pass ticks = %v, want [55 110 165]", passTicks)
	}
	a := res.Agents[0]
	if math.Abs(a.Fitness-35) > 1e-6 {
		t.Errorf("fitness = %v, want 35", a.Fitness)
	}
	if a.Cause != systems.CauseTimeout {
		t.Errorf("cause = %v, want timeout", a.Cause)
	}
}

func TestPipeCollision(t *testing.T) {
	// Gap [100, 300) sits above the [379, 450] band, so the bird meets the
	// bottom pipe's lip as it arrives.
	e := newTestEvaluator(t, []Policy{lowPolicy}, WithGapSource(systems.FixedGaps(100)))

	res, err := e.Run(testTickCap)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	a := res.Agents[0]
	if a.Cause != systems.CausePipe {
		t.Fatalf("cause = %v, want pipe", a.Cause)
	}
	if a.Tick != 41 {
		t.Errorf("tick = %d, want 41", a.Tick)
	}
	if math.Abs(a.Fitness-3.1) > eps {
		t.Errorf("fitness = %v, want 3.1 (penalty applied once)", a.Fitness)
	}
}

func TestPolicyErrorLeavesStateUntouched(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	failing := PolicyFunc(func(components.Observation) (float64, error) {
		calls++
		if calls == 3 {
			return 0, boom
		}
		return 0, nil
	})

	e := newTestEvaluator(t, []Policy{NeverFlap, failing})
	for i := 0; i < 2; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i+1, err)
		}
	}
	before := e.Frame()

	err := e.Step()
	if !errors.Is(err, ErrPolicy) {
		t.Fatalf("err = %v, want ErrPolicy", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v does not wrap the policy error", err)
	}
	if after := e.Frame(); !reflect.DeepEqual(before, after) {
		t.Errorf("frame changed on failed step:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestStepWithEmptyPipeField(t *testing.T) {
	e := newTestEvaluator(t, []Policy{NeverFlap})
	e.field.At(0).X = -float64(e.cfg.Pipe.Width) - 1
	e.field.RetireOffscreen()
	before := e.Frame()

	if err := e.Step(); !errors.Is(err, ErrNoPipe) {
		t.Fatalf("err = %v, want ErrNoPipe", err)
	}
	after := e.Frame()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("frame changed on failed step:\nbefore %+v\nafter  %+v", before, after)
	}
	if after.Active != -1 {
		t.Errorf("frame active = %d, want -1", after.Active)
	}
	if _, ok := e.Observation(0); ok {
		t.Error("Observation reported a pipe on an empty field")
	}
}

func TestStepAfterTermination(t *testing.T) {
	e := newTestEvaluator(t, []Policy{NeverFlap})
	if _, err := e.Run(testTickCap); err != nil {
		t.Fatal(err)
	}
	if err := e.Step(); !errors.Is(err, ErrTerminated) {
		t.Errorf("err = %v, want ErrTerminated", err)
	}
	if e.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", e.State())
	}
}

func TestEmptyPopulation(t *testing.T) {
	_, err := NewEvaluator(config.Defaults(), rand.New(rand.NewSource(1)), 0, nil)
	if !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("err = %v, want ErrEmptyPopulation", err)
	}
}

func TestFitnessReported(t *testing.T) {
	p := &recordingPolicy{Policy: NeverFlap}
	e := newTestEvaluator(t, []Policy{p, AlwaysFlap})
	if _, err := e.Run(testTickCap); err != nil {
		t.Fatal(err)
	}
	if len(p.reported) != 1 {
		t.Fatalf("reported %d times, want 1", len(p.reported))
	}
	if math.Abs(p.reported[0]-0.7) > eps {
		t.Errorf("reported %v, want 0.7", p.reported[0])
	}
}

func TestRandomGapsDeterministic(t *testing.T) {
	run := func() Result {
		policies := make([]Policy, 10)
		for i := range policies {
			policies[i] = hoverPolicy
		}
		res, err := EvaluateGeneration(config.Defaults(), rand.New(rand.NewSource(42)), 3, policies, WithTickCap(500))
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different results:\n%+v\n%+v", a, b)
	}
	if a.Generation != 3 {
		t.Errorf("generation = %d, want 3", a.Generation)
	}
}

func TestEvaluateGenerationTickCap(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		configCap int
		opts      []Option
		ticks     int
		cause     systems.Cause
	}{
		// The config cap belongs to the drivers; the core ignores it.
		{"config cap ignored", NeverFlap, 5, nil, 17, systems.CauseGround},
		{"no cap runs to elimination", NeverFlap, 0, nil, 17, systems.CauseGround},
		{"cap expires survivors", hoverPolicy, 0, []Option{WithTickCap(200)}, 200, systems.CauseTimeout},
		{"cap after elimination", NeverFlap, 0, []Option{WithTickCap(200)}, 17, systems.CauseGround},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Evolution.MaxTicks = tt.configCap
			opts := append([]Option{WithGapSource(systems.FixedGaps(300))}, tt.opts...)
			res, err := EvaluateGeneration(cfg, nil, 0, []Policy{tt.policy}, opts...)
			if err != nil {
				t.Fatalf("EvaluateGeneration failed: %v", err)
			}
			if res.Ticks != tt.ticks {
				t.Errorf("ticks = %d, want %d", res.Ticks, tt.ticks)
			}
			if res.Agents[0].Cause != tt.cause {
				t.Errorf("cause = %v, want %v", res.Agents[0].Cause, tt.cause)
			}
		})
	}
}

func TestFrameIsACopy(t *testing.T) {
	e := newTestEvaluator(t, []Policy{NeverFlap})
	if err := e.Step(); err != nil {
		t.Fatal(err)
	}

	f := e.Frame()
	if f.Alive != 1 || len(f.Birds) != 1 || len(f.Pipes) != 1 {
		t.Fatalf("unexpected frame %+v", f)
	}
	if f.Active != 0 {
		t.Errorf("active = %d, want 0", f.Active)
	}
	f.Birds[0].Y = -1000
	f.Pipes[0].X = -1000

	g := e.Frame()
	if g.Birds[0].Y != 351.5 {
		t.Errorf("bird y = %v, want 351.5", g.Birds[0].Y)
	}
	if g.Pipes[0].X != 495 {
		t.Errorf("pipe x = %v, want 495", g.Pipes[0].X)
	}
}

func TestHooksFire(t *testing.T) {
	var flaps, eliminated int
	var final Result
	e := newTestEvaluator(t, []Policy{NeverFlap, AlwaysFlap}, WithHooks(Hooks{
		OnFlap:      func(tick, id int) { flaps++ },
		OnEliminate: func(tick, id int, cause systems.Cause, fitness float64) { eliminated++ },
		OnTerminate: func(r Result) { final = r },
	}))
	if _, err := e.Run(testTickCap); err != nil {
		t.Fatal(err)
	}
	if flaps != 39 {
		t.Errorf("flaps = %d, want 39", flaps)
	}
	if eliminated != 2 {
		t.Errorf("eliminated = %d, want 2", eliminated)
	}
	if final.Ticks != 39 {
		t.Errorf("terminate hook saw %d ticks, want 39", final.Ticks)
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := config.Defaults()
	policies := make([]Policy, 50)
	for i := range policies {
		policies[i] = hoverPolicy
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e, err := NewEvaluator(cfg, nil, 0, policies, WithGapSource(systems.FixedGaps(300)))
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < 100; j++ {
			if err := e.Step(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
