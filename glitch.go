package deepzoom

// glitchMaxRounds bounds the number of subdivide-and-rerender rounds a
// single render will attempt, independent of the quadtree's own depth cap.
const glitchMaxRounds = 10

// GlitchResolver tracks which tiles still have glitched pixels after a
// render pass and drives the subdivide-recompute-rerender loop: each
// round, every glitched cell is split, a fresh reference orbit is
// computed at each child's center, and the affected pixels are
// recomputed against it.
type GlitchResolver struct {
	cache   *OrbitCache
	nextID  uint64
	round   int
	pending []GlitchCell
}

// NewGlitchResolver builds a resolver backed by cache, with orbit_ids
// starting above the reserved range used by the render's primary
// reference orbit (conventionally orbit_id 0).
func NewGlitchResolver(cache *OrbitCache) *GlitchResolver {
	return &GlitchResolver{cache: cache, nextID: 1000}
}

// Seed registers the tile-sized cells that came back glitched from the
// initial render pass, seeding round 1 of resolution.
func (g *GlitchResolver) Seed(cells []GlitchCell) {
	g.pending = cells
	g.round = 0
}

// Done reports whether resolution has converged: no glitched cells remain,
// or the round cap was reached.
func (g *GlitchResolver) Done() bool {
	return len(g.pending) == 0 || g.round >= glitchMaxRounds
}

// RoundCells subdivides every pending cell and assigns each child a fresh
// orbit_id. Cells that cannot subdivide further (depth or minimum-leaf-size
// cap) are dropped: their pixels remain marked glitched in the final
// output, a best-effort resolution rather than a guarantee of convergence.
func (g *GlitchResolver) RoundCells() []GlitchCell {
	var children []GlitchCell
	for _, cell := range g.pending {
		for _, child := range cell.Subdivide() {
			child.OrbitID = g.nextID
			g.nextID++
			children = append(children, child)
		}
	}
	return children
}

// ResolveRound computes a fresh reference orbit for each cell in round
// (keyed by its OrbitID, cached for reuse by later tile recomputation),
// recomputes the kernel for every pixel the cell covers via compute, and
// reports which of those cells still came back glitched. The caller is
// expected to pass the same compute closure it uses for ordinary tile
// dispatch, parameterized to run against cell.OrbitID's orbit.
func (g *GlitchResolver) ResolveRound(round []GlitchCell, cRefFor func(GlitchCell) Complex, maxIterations uint32, compute func(cell GlitchCell, orbit *ReferenceOrbit) (stillGlitched bool)) []GlitchCell {
	var stillGlitched []GlitchCell
	for _, cell := range round {
		cRef := cRefFor(cell)
		orbit := ComputeReferenceOrbit(cRef, maxIterations)
		g.cache.Put(cell.OrbitID, orbit)

		if compute(cell, orbit) {
			stillGlitched = append(stillGlitched, cell)
		}
	}
	return stillGlitched
}

// Advance runs one full round: subdivide pending cells, resolve each
// child, and set the surviving glitched children as next round's pending
// set. Returns the number of cells resolved this round.
func (g *GlitchResolver) Advance(cRefFor func(GlitchCell) Complex, maxIterations uint32, compute func(cell GlitchCell, orbit *ReferenceOrbit) (stillGlitched bool)) int {
	if g.Done() {
		return 0
	}
	children := g.RoundCells()
	g.pending = g.ResolveRound(children, cRefFor, maxIterations, compute)
	g.round++
	return len(children)
}
