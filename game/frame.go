package game

import "github.com/pthm-cable/flappy/components"

// BirdView is a read-only bird snapshot for rendering and streaming.
type BirdView struct {
	ID        int      `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Tilt      float64  `json:"tilt"`
	WingFrame int      `json:"wing"`
	Fitness   float64  `json:"fitness"`
	Color     [3]uint8 `json:"color"`
}

// PipeView is a read-only pipe snapshot.
type PipeView struct {
	X         float64 `json:"x"`
	GapTop    float64 `json:"gap_top"`
	GapBottom float64 `json:"gap_bottom"`
	Passed    bool    `json:"passed"`
}

// Frame is a copy of everything needed to draw one tick. Mutating it never
// affects the evaluator.
type Frame struct {
	Generation int        `json:"generation"`
	Tick       int        `json:"tick"`
	Score      int        `json:"score"`
	Alive      int        `json:"alive"`
	Population int        `json:"population"`
	State      string     `json:"state"`
	Active     int        `json:"active"` // index into Pipes, -1 with no birds or pipes left
	Birds      []BirdView `json:"birds"`
	Pipes      []PipeView `json:"pipes"`
	GroundX1   float64    `json:"ground_x1"`
	GroundX2   float64    `json:"ground_x2"`
}

// defaultBirdColor is used for policies without a tint.
var defaultBirdColor = [3]uint8{240, 200, 40}

// Frame snapshots the current tick.
func (e *Evaluator) Frame() Frame {
	f := Frame{
		Generation: e.generation,
		Tick:       e.tick,
		Score:      e.score,
		Alive:      len(e.agents),
		Population: len(e.policies),
		State:      e.state.String(),
		Active:     -1,
		Birds:      make([]BirdView, len(e.agents)),
		Pipes:      make([]PipeView, e.field.Len()),
		GroundX1:   e.ground.X1,
		GroundX2:   e.ground.X2,
	}
	for i := range e.agents {
		a := &e.agents[i]
		f.Birds[i] = BirdView{
			ID:        a.id,
			X:         a.bird.X,
			Y:         a.bird.Y,
			Tilt:      a.bird.Tilt,
			WingFrame: a.bird.WingFrame,
			Fitness:   a.fitness,
			Color:     defaultBirdColor,
		}
		if t, ok := a.policy.(Tinter); ok {
			r, g, b := t.Tint()
			f.Birds[i].Color = [3]uint8{r, g, b}
		}
	}
	for i := range f.Pipes {
		p := e.field.At(i)
		f.Pipes[i] = PipeView{X: p.X, GapTop: p.GapTop, GapBottom: p.GapBottom(), Passed: p.Passed}
	}
	if len(e.agents) > 0 {
		f.Active = e.field.ActiveIndex(e.agents[0].bird.X)
	}
	return f
}

// LiveBird returns a copy of the bird at position i in the live set along
// with its policy index.
func (e *Evaluator) LiveBird(i int) (components.Bird, int, bool) {
	if i < 0 || i >= len(e.agents) {
		return components.Bird{}, -1, false
	}
	return e.agents[i].bird, e.agents[i].id, true
}

// Observation returns what the live bird at position i saw of the active
// pipe this tick.
func (e *Evaluator) Observation(i int) (components.Observation, bool) {
	if i < 0 || i >= len(e.agents) || e.field.Len() == 0 {
		return components.Observation{}, false
	}
	active := e.field.ActiveIndex(e.agents[0].bird.X)
	return observe(&e.agents[i].bird, e.field.At(active)), true
}

// Policy returns the policy flying bird id.
func (e *Evaluator) Policy(id int) Policy {
	if id < 0 || id >= len(e.policies) {
		return nil
	}
	return e.policies[id]
}
