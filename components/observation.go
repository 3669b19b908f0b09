package components

// Observation is what a policy sees each tick.
type Observation struct {
	Y          float64 // bird y
	TopDist    float64 // |y - gap top| of the active pipe
	BottomDist float64 // |y - gap bottom| of the active pipe
}

// Inputs returns the observation as a network input vector with a trailing bias of 1.
func (o Observation) Inputs() []float64 {
	return []float64{o.Y, o.TopDist, o.BottomDist, 1.0}
}
