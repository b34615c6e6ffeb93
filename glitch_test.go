package deepzoom

import "testing"

func TestGlitchResolverDoneWhenNoPendingCells(t *testing.T) {
	g := NewGlitchResolver(NewOrbitCache())
	if !g.Done() {
		t.Error("a resolver with no seeded cells should already be done")
	}
}

func TestGlitchResolverSeedAndRoundCellsAssignOrbitIDs(t *testing.T) {
	g := NewGlitchResolver(NewOrbitCache())
	g.Seed([]GlitchCell{{X: 0, Y: 0, Width: 128, Height: 128, Depth: 0}})
	if g.Done() {
		t.Fatal("resolver should not be done right after seeding a glitched cell")
	}

	children := g.RoundCells()
	if len(children) != 4 {
		t.Fatalf("expected 4 children from a 128x128 cell, got %d", len(children))
	}
	seen := make(map[uint64]bool)
	for _, c := range children {
		if c.OrbitID < 1000 {
			t.Errorf("child orbit_id %d should be >= 1000, outside the primary render's range", c.OrbitID)
		}
		if seen[c.OrbitID] {
			t.Errorf("duplicate orbit_id %d assigned to two children", c.OrbitID)
		}
		seen[c.OrbitID] = true
	}
}

func TestGlitchResolverAdvanceConvergesWhenNothingStillGlitched(t *testing.T) {
	cache := NewOrbitCache()
	g := NewGlitchResolver(cache)
	g.Seed([]GlitchCell{{X: 0, Y: 0, Width: 128, Height: 128, Depth: 0}})

	cRefFor := func(c GlitchCell) Complex {
		return Complex{Re: WithPrecision(0, 128), Im: WithPrecision(0, 128)}
	}
	resolved := g.Advance(cRefFor, 50, func(cell GlitchCell, orbit *ReferenceOrbit) bool {
		return false // nothing stays glitched
	})
	if resolved != 4 {
		t.Errorf("Advance resolved %d cells, want 4", resolved)
	}
	if !g.Done() {
		t.Error("resolver should be done once every child reports no more glitches")
	}
}

func TestGlitchResolverAdvanceCachesOrbitPerCell(t *testing.T) {
	cache := NewOrbitCache()
	g := NewGlitchResolver(cache)
	g.Seed([]GlitchCell{{X: 0, Y: 0, Width: 128, Height: 128, Depth: 0}})

	cRefFor := func(c GlitchCell) Complex {
		return Complex{Re: WithPrecision(0, 128), Im: WithPrecision(0, 128)}
	}
	g.Advance(cRefFor, 10, func(cell GlitchCell, orbit *ReferenceOrbit) bool { return false })

	if cache.Len() == 0 {
		t.Error("expected the resolver to populate the orbit cache")
	}
}

func TestGlitchResolverStopsAtRoundCap(t *testing.T) {
	cache := NewOrbitCache()
	g := NewGlitchResolver(cache)
	big := GlitchCell{X: 0, Y: 0, Width: 1 << 20, Height: 1 << 20, Depth: 0}
	g.Seed([]GlitchCell{big})

	cRefFor := func(c GlitchCell) Complex {
		return Complex{Re: WithPrecision(0, 64), Im: WithPrecision(0, 64)}
	}
	alwaysGlitched := func(cell GlitchCell, orbit *ReferenceOrbit) bool { return true }

	for i := 0; i < glitchMaxRounds+5; i++ {
		g.Advance(cRefFor, 5, alwaysGlitched)
	}
	if !g.Done() {
		t.Error("resolver should stop advancing once the round cap is reached")
	}
}
