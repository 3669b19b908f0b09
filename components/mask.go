package components

import "math/bits"

// Mask is a per-pixel collision footprint, one bit per pixel, row-major.
type Mask struct {
	W, H  int
	words int // uint64 words per row
	bits  []uint64
	full  bool
}

// NewMask creates an empty w×h mask.
func NewMask(w, h int) *Mask {
	words := (w + 63) / 64
	return &Mask{
		W:     w,
		H:     h,
		words: words,
		bits:  make([]uint64, words*h),
	}
}

// NewRectMask creates a w×h mask with every pixel set.
func NewRectMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y)
		}
	}
	m.full = true
	return m
}

// Set marks pixel (x, y) as solid. Out-of-range pixels are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.bits[y*m.words+x/64] |= 1 << uint(x%64)
}

// Clear marks pixel (x, y) as empty.
func (m *Mask) Clear(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.bits[y*m.words+x/64] &^= 1 << uint(x%64)
	m.full = false
}

// Get reports whether pixel (x, y) is solid.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[y*m.words+x/64]&(1<<uint(x%64)) != 0
}

// Count returns the number of solid pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Overlap reports the first solid pixel shared by m and other when other's
// top-left corner sits at (dx, dy) in m's coordinates. The returned point is
// in m's coordinates.
func (m *Mask) Overlap(other *Mask, dx, dy int) (x, y int, ok bool) {
	x0, x1 := max(0, dx), min(m.W, dx+other.W)
	y0, y1 := max(0, dy), min(m.H, dy+other.H)
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, false
	}

	if m.full && other.full {
		return x0, y0, true
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.Get(x, y) && other.Get(x-dx, y-dy) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
