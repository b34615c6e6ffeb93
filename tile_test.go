package deepzoom

import "testing"

func TestTilesCoverCanvasExhaustively(t *testing.T) {
	canvasW, canvasH := uint32(300), uint32(200)
	tiles := Tiles(canvasW, canvasH, 128)

	covered := make([][]bool, canvasH)
	for i := range covered {
		covered[i] = make([]bool, canvasW)
	}
	for _, tile := range tiles {
		for y := tile.Y; y < tile.Y+tile.Height; y++ {
			for x := tile.X; x < tile.X+tile.Width; x++ {
				if covered[y][x] {
					t.Fatalf("pixel (%d,%d) covered by more than one tile", x, y)
				}
				covered[y][x] = true
			}
		}
	}
	for y := uint32(0); y < canvasH; y++ {
		for x := uint32(0); x < canvasW; x++ {
			if !covered[y][x] {
				t.Fatalf("pixel (%d,%d) not covered by any tile", x, y)
			}
		}
	}
}

func TestTileSizeForThreshold(t *testing.T) {
	if got := TileSizeFor(1); got != 128 {
		t.Errorf("TileSizeFor(1) = %d, want 128", got)
	}
	if got := TileSizeFor(1e10); got != 64 {
		t.Errorf("TileSizeFor(1e10) = %d, want 64", got)
	}
	if got := TileSizeFor(1e15); got != 64 {
		t.Errorf("TileSizeFor(1e15) = %d, want 64", got)
	}
}

func TestCenterOutOrderStartsNearestCenter(t *testing.T) {
	tiles := Tiles(256, 256, 128)
	ordered := CenterOutOrder(tiles, 256, 256)
	if len(ordered) != len(tiles) {
		t.Fatalf("CenterOutOrder changed tile count: %d vs %d", len(ordered), len(tiles))
	}
	first := ordered[0]
	cx, cy := first.CenterPixel()
	if !first.Contains(cx, cy) {
		t.Fatalf("sanity: tile should contain its own center")
	}
	// The first tile in center-out order must be at least as close to the
	// canvas center as every other tile.
	dist := func(tile Tile) float64 {
		tx := float64(tile.X) + float64(tile.Width)/2 - 128
		ty := float64(tile.Y) + float64(tile.Height)/2 - 128
		return tx*tx + ty*ty
	}
	firstDist := dist(first)
	for _, tile := range ordered[1:] {
		if dist(tile) < firstDist {
			t.Fatalf("tile %v is closer to center than the first tile %v", tile, first)
		}
	}
}

func TestTileContains(t *testing.T) {
	tile := Tile{X: 10, Y: 10, Width: 20, Height: 20}
	if !tile.Contains(10, 10) {
		t.Error("tile should contain its top-left corner")
	}
	if tile.Contains(30, 10) {
		t.Error("tile should not contain its right edge (exclusive)")
	}
	if tile.Contains(9, 10) {
		t.Error("tile should not contain a pixel left of it")
	}
}
