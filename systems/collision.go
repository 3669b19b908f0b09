package systems

import (
	"math"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// Cause records why a bird was eliminated.
type Cause uint8

const (
	CauseNone Cause = iota
	CausePipe
	CauseGround
	CauseCeiling
	CauseTimeout // generation tick cap reached while still alive
)

// String returns a lowercase name for logs and CSV.
func (c Cause) String() string {
	switch c {
	case CausePipe:
		return "pipe"
	case CauseGround:
		return "ground"
	case CauseCeiling:
		return "ceiling"
	case CauseTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// CollisionSystem tests birds against pipes and the world bounds using
// per-pixel masks.
type CollisionSystem struct {
	birdMask   *components.Mask
	topMask    *components.Mask
	bottomMask *components.Mask
	groundY    float64
}

// NewCollisionSystem builds solid masks from the configured sprite footprints.
func NewCollisionSystem(cfg *config.Config) *CollisionSystem {
	return NewCollisionSystemWithMasks(
		cfg,
		components.NewRectMask(cfg.Bird.Width, cfg.Bird.Height),
		components.NewRectMask(cfg.Pipe.Width, cfg.Pipe.Height),
		components.NewRectMask(cfg.Pipe.Width, cfg.Pipe.Height),
	)
}

// NewCollisionSystemWithMasks uses caller-provided masks, e.g. traced from sprites.
func NewCollisionSystemWithMasks(cfg *config.Config, bird, top, bottom *components.Mask) *CollisionSystem {
	return &CollisionSystem{
		birdMask:   bird,
		topMask:    top,
		bottomMask: bottom,
		groundY:    cfg.World.GroundY,
	}
}

// Overlaps reports whether the bird touches the top or bottom pipe.
// Offsets are taken relative to the bird's rounded position.
func (s *CollisionSystem) Overlaps(p *components.Pipe, b *components.Bird) bool {
	by := int(math.Round(b.Y))
	dx := int(math.Round(p.X - b.X))

	if _, _, ok := s.birdMask.Overlap(s.topMask, dx, int(math.Round(p.TopY()))-by); ok {
		return true
	}
	_, _, ok := s.birdMask.Overlap(s.bottomMask, dx, int(math.Round(p.GapBottom()))-by)
	return ok
}

// OutOfBounds reports whether the bird has hit the ground or left the top of
// the screen.
func (s *CollisionSystem) OutOfBounds(b *components.Bird) Cause {
	if b.Y+float64(b.SpriteH) >= s.groundY {
		return CauseGround
	}
	if b.Y < 0 {
		return CauseCeiling
	}
	return CauseNone
}
