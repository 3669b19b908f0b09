package components

// Ground is the scrolling base strip drawn as two tiles side by side.
type Ground struct {
	Y      float64
	X1, X2 float64
	Width  float64
}

// NewGround creates a ground strip at y made of tiles of the given width.
func NewGround(y, width float64) Ground {
	return Ground{Y: y, X1: 0, X2: width, Width: width}
}
