// Package systems contains the per-tick behaviour applied to components.
package systems

import (
	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// Tilt bounds in degrees.
const (
	noseDiveTilt = -80.0
	minTilt      = -90.0
	climbWindow  = 50.0 // birds within this distance below their flap height keep climbing tilt
)

// PhysicsSystem integrates bird motion and scrolls the ground.
type PhysicsSystem struct {
	jumpVelocity     float64
	halfGravity      float64
	maxFall          float64
	maxRotation      float64
	rotationVelocity float64
	animationTime    int
	groundVelocity   float64
}

// NewPhysicsSystem creates a physics system from the loaded config.
func NewPhysicsSystem(cfg *config.Config) *PhysicsSystem {
	return &PhysicsSystem{
		jumpVelocity:     cfg.Bird.JumpVelocity,
		halfGravity:      cfg.Derived.HalfGravity,
		maxFall:          cfg.Bird.MaxFall,
		maxRotation:      cfg.Bird.MaxRotation,
		rotationVelocity: cfg.Bird.RotationVelocity,
		animationTime:    cfg.Bird.AnimationTime,
		groundVelocity:   cfg.Ground.Velocity,
	}
}

// Displacement returns the vertical step taken on the t-th tick after a flap:
// v*t + halfGravity*t², capped at maxFall. Upward steps are never capped.
func Displacement(v float64, t int, halfGravity, maxFall float64) float64 {
	ft := float64(t)
	d := v*ft + halfGravity*ft*ft
	if d >= maxFall {
		d = maxFall
	}
	return d
}

// Jump sets the bird's velocity upwards and restarts its ballistic curve.
// Calling it more than once in a tick has the same effect as calling it once.
func (s *PhysicsSystem) Jump(b *components.Bird) {
	b.Velocity = s.jumpVelocity
	b.Ticks = 0
	b.RefY = b.Y
	b.Flaps++
}

// Move advances the bird by one tick and returns the displacement applied.
// The step is recomputed from ticks since the last flap, not integrated.
func (s *PhysicsSystem) Move(b *components.Bird) float64 {
	b.Ticks++
	d := Displacement(b.Velocity, b.Ticks, s.halfGravity, s.maxFall)
	b.Y += d

	if d < 0 || b.Y < b.RefY+climbWindow {
		if b.Tilt < s.maxRotation {
			b.Tilt = s.maxRotation
		}
	} else if b.Tilt > minTilt {
		b.Tilt -= s.rotationVelocity
	}

	s.animate(b)
	return d
}

// animate cycles the wing frame 0,1,2,1,0 every animationTime ticks.
// A nose-diving bird holds its wings level.
func (s *PhysicsSystem) animate(b *components.Bird) {
	at := s.animationTime
	b.AnimCounter++

	switch {
	case b.AnimCounter < at:
		b.WingFrame = 0
	case b.AnimCounter < at*2:
		b.WingFrame = 1
	case b.AnimCounter < at*3:
		b.WingFrame = 2
	case b.AnimCounter < at*4:
		b.WingFrame = 1
	default:
		b.WingFrame = 0
		b.AnimCounter = 0
	}

	if b.Tilt < noseDiveTilt {
		b.WingFrame = 1
		b.AnimCounter = at * 2
	}
}

// MoveGround scrolls both ground tiles, wrapping a tile behind the other
// once it has fully left the screen.
func (s *PhysicsSystem) MoveGround(g *components.Ground) {
	g.X1 -= s.groundVelocity
	g.X2 -= s.groundVelocity

	if g.X1 < -g.Width {
		g.X1 = g.X2 + g.Width
	}
	if g.X2 < -g.Width {
		g.X2 = g.X1 + g.Width
	}
}
