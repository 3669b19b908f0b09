package components

// Pipe is one obstacle: a top and bottom pipe around a vertical gap.
type Pipe struct {
	X      float64
	GapTop float64 // lower edge of the top pipe
	Gap    float64
	Passed bool

	Width, Height int // sprite footprint of a single pipe
}

// NewPipe creates a pipe at x whose gap starts at gapTop.
func NewPipe(x, gapTop, gap float64, width, height int) Pipe {
	return Pipe{
		X:      x,
		GapTop: gapTop,
		Gap:    gap,
		Width:  width,
		Height: height,
	}
}

// GapBottom returns the upper edge of the bottom pipe.
func (p *Pipe) GapBottom() float64 {
	return p.GapTop + p.Gap
}

// TopY returns the y of the top pipe's upper-left corner.
func (p *Pipe) TopY() float64 {
	return p.GapTop - float64(p.Height)
}

// Right returns the trailing edge of the pipe.
func (p *Pipe) Right() float64 {
	return p.X + float64(p.Width)
}
