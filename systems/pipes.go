package systems

import (
	"math/rand"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// GapSource yields the gap-top height for each new pipe.
type GapSource func() int

// RandomGaps draws gap tops uniformly from [minTop, maxTop).
func RandomGaps(rng *rand.Rand, minTop, maxTop int) GapSource {
	return func() int {
		return minTop + rng.Intn(maxTop-minTop)
	}
}

// FixedGaps cycles through the given gap tops. Used for scripted runs.
func FixedGaps(tops ...int) GapSource {
	i := 0
	return func() int {
		top := tops[i%len(tops)]
		i++
		return top
	}
}

// PipeField owns the live pipes in creation order, which under constant
// velocity is also left-to-right order.
type PipeField struct {
	pipes    []components.Pipe
	next     GapSource
	spawnX   float64
	velocity float64
	gap      float64
	width    int
	height   int
}

// NewPipeField creates an empty field; call Spawn for the first pipe.
func NewPipeField(cfg *config.Config, next GapSource) *PipeField {
	return &PipeField{
		pipes:    make([]components.Pipe, 0, 4),
		next:     next,
		spawnX:   cfg.Pipe.SpawnX,
		velocity: cfg.Pipe.Velocity,
		gap:      cfg.Pipe.Gap,
		width:    cfg.Pipe.Width,
		height:   cfg.Pipe.Height,
	}
}

// Spawn appends a new pipe at the spawn x.
func (f *PipeField) Spawn() {
	top := float64(f.next())
	f.pipes = append(f.pipes, components.NewPipe(f.spawnX, top, f.gap, f.width, f.height))
}

// Advance scrolls every pipe left by one tick.
func (f *PipeField) Advance() {
	for i := range f.pipes {
		f.pipes[i].X -= f.velocity
	}
}

// RetireOffscreen drops pipes whose trailing edge is left of x=0 and
// returns how many were removed.
func (f *PipeField) RetireOffscreen() int {
	kept := f.pipes[:0]
	for _, p := range f.pipes {
		if p.Right() >= 0 {
			kept = append(kept, p)
		}
	}
	removed := len(f.pipes) - len(kept)
	f.pipes = kept
	return removed
}

// ActiveIndex returns the index of the pipe birds at refX should look at:
// the first pipe whose trailing edge refX has not yet passed. When every
// pipe has been passed the last one is returned. An empty field yields -1,
// which callers must check before calling At.
func (f *PipeField) ActiveIndex(refX float64) int {
	for i := range f.pipes {
		if refX <= f.pipes[i].Right() {
			return i
		}
	}
	return len(f.pipes) - 1
}

// Len returns the number of live pipes.
func (f *PipeField) Len() int {
	return len(f.pipes)
}

// At returns the i-th pipe. The pointer is invalidated by Spawn and RetireOffscreen.
func (f *PipeField) At(i int) *components.Pipe {
	return &f.pipes[i]
}

// Pipes returns the live pipes. Callers must not modify the slice.
func (f *PipeField) Pipes() []components.Pipe {
	return f.pipes
}
