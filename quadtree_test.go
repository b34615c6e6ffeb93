package deepzoom

import "testing"

func TestGlitchCellSubdivideConservesArea(t *testing.T) {
	cell := GlitchCell{X: 0, Y: 0, Width: 127, Height: 65, Depth: 0}
	children := cell.Subdivide()
	if len(children) == 0 {
		t.Fatal("expected at least one child")
	}
	var area uint32
	for _, c := range children {
		area += c.Width * c.Height
	}
	if area != cell.Width*cell.Height {
		t.Errorf("children area = %d, want %d", area, cell.Width*cell.Height)
	}
}

func TestGlitchCellSubdivideStopsAtMinLeafSize(t *testing.T) {
	cell := GlitchCell{X: 0, Y: 0, Width: 31, Height: 31, Depth: 0}
	if cell.CanSubdivide() {
		children := cell.Subdivide()
		for _, c := range children {
			if c.Width < quadtreeMinLeaf && c.Width > 0 {
				t.Errorf("child width %d below min leaf size", c.Width)
			}
		}
	}

	tooSmall := GlitchCell{X: 0, Y: 0, Width: 16, Height: 16, Depth: 0}
	if tooSmall.CanSubdivide() {
		t.Error("a 16x16 cell should not subdivide further (children would be 8px)")
	}
	if got := tooSmall.Subdivide(); got != nil {
		t.Errorf("Subdivide on a cell at the min leaf size should return nil, got %v", got)
	}
}

func TestGlitchCellSubdivideStopsAtMaxDepth(t *testing.T) {
	cell := GlitchCell{X: 0, Y: 0, Width: 1 << 16, Height: 1 << 16, Depth: quadtreeMaxDepth}
	if cell.CanSubdivide() {
		t.Error("a cell at max depth should not subdivide further")
	}
}

func TestGlitchCellSubdivideIncrementsDepth(t *testing.T) {
	cell := GlitchCell{X: 0, Y: 0, Width: 128, Height: 128, Depth: 3}
	for _, c := range cell.Subdivide() {
		if c.Depth != 4 {
			t.Errorf("child depth = %d, want 4", c.Depth)
		}
	}
}

func TestGlitchCellContains(t *testing.T) {
	cell := GlitchCell{X: 5, Y: 5, Width: 10, Height: 10}
	if !cell.Contains(5, 5) {
		t.Error("cell should contain its top-left corner")
	}
	if cell.Contains(15, 5) {
		t.Error("cell should not contain its right edge (exclusive)")
	}
}
