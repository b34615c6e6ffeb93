package deepzoom

// quadtreeMaxDepth and quadtreeMinLeaf bound glitch subdivision:
// subdivision stops at depth 10 or once a leaf's edge drops below 16px,
// whichever comes first.
const (
	quadtreeMaxDepth = 10
	quadtreeMinLeaf  = 16
)

// GlitchCell is a node in the glitch-resolution quadtree: a rectangular
// sub-region of a tile that shares one reference orbit.
type GlitchCell struct {
	X, Y, Width, Height uint32
	Depth               int
	OrbitID             uint64
}

// CanSubdivide reports whether c may still be split: below the max depth
// and large enough that each child still meets the minimum leaf size.
func (c GlitchCell) CanSubdivide() bool {
	if c.Depth >= quadtreeMaxDepth {
		return false
	}
	halfW := c.Width / 2
	halfH := c.Height / 2
	return halfW >= quadtreeMinLeaf && halfH >= quadtreeMinLeaf
}

// Subdivide splits c into up to four children, conserving area exactly:
// the right/bottom child absorbs any odd remainder pixel, so
// left_w = width/2 and right_w = width - left_w (and similarly
// vertically). Children needing a new reference orbit are assigned
// OrbitID 0; the caller fills it in once the new reference has been
// computed.
func (c GlitchCell) Subdivide() []GlitchCell {
	if !c.CanSubdivide() {
		return nil
	}

	leftW := c.Width / 2
	rightW := c.Width - leftW
	topH := c.Height / 2
	bottomH := c.Height - topH

	children := []GlitchCell{
		{X: c.X, Y: c.Y, Width: leftW, Height: topH, Depth: c.Depth + 1},
		{X: c.X + leftW, Y: c.Y, Width: rightW, Height: topH, Depth: c.Depth + 1},
		{X: c.X, Y: c.Y + topH, Width: leftW, Height: bottomH, Depth: c.Depth + 1},
		{X: c.X + leftW, Y: c.Y + topH, Width: rightW, Height: bottomH, Depth: c.Depth + 1},
	}

	out := children[:0]
	for _, ch := range children {
		if ch.Width > 0 && ch.Height > 0 {
			out = append(out, ch)
		}
	}
	return out
}

// CenterPixel returns the cell's center in pixel coordinates, used to pick
// the point a fresh reference orbit is computed around.
func (c GlitchCell) CenterPixel() (int, int) {
	return int(c.X + c.Width/2), int(c.Y + c.Height/2)
}

// Contains reports whether pixel (px, py) lies within c.
func (c GlitchCell) Contains(px, py int) bool {
	return px >= int(c.X) && px < int(c.X+c.Width) && py >= int(c.Y) && py < int(c.Y+c.Height)
}
