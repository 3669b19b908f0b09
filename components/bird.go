// Package components defines the plain data the simulation systems operate on.
package components

// Bird is one simulated agent. X never changes; the world scrolls past it.
type Bird struct {
	X float64 `inspect:"label,fmt:%.0f"`
	Y float64 `inspect:"bar,max:630"`

	Velocity float64 `inspect:"label,fmt:%.1f"` // set by a flap, constant until the next one
	Ticks    int     `inspect:"label"`          // ticks since last flap
	RefY     float64 `inspect:"label,fmt:%.1f"` // Y at last flap
	Tilt     float64 `inspect:"angle,unit:deg"` // presentation only

	AnimCounter int `inspect:"skip"`
	WingFrame   int `inspect:"label"` // 0..2, index into the wing sprites
	Flaps       int `inspect:"label"`

	SpriteW int `inspect:"skip"`
	SpriteH int `inspect:"skip"`
}

// NewBird creates a bird at rest at (x, y) with the given sprite footprint.
func NewBird(x, y float64, spriteW, spriteH int) Bird {
	return Bird{
		X:       x,
		Y:       y,
		RefY:    y,
		SpriteW: spriteW,
		SpriteH: spriteH,
	}
}

// CenterX returns the horizontal centre of the sprite.
func (b *Bird) CenterX() float64 {
	return b.X + float64(b.SpriteW)/2
}

// CenterY returns the vertical centre of the sprite.
func (b *Bird) CenterY() float64 {
	return b.Y + float64(b.SpriteH)/2
}
