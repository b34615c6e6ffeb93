package deepzoom

import (
	"math"

	"golang.org/x/exp/slices"
)

// Tile is a non-overlapping rectangular region of the canvas, in pixel
// coordinates.
type Tile struct {
	X, Y, Width, Height uint32
}

// zoomFactorTileThreshold is the zoom factor above which tiles shrink from
// 128px to 64px: "Tile size is 128 at zoom factors below
// 10^10 and 64 above".
const zoomFactorTileThreshold = 1e10

// TileSizeFor returns the tile edge length for a given zoom factor
// (1/viewport.width in fractal-space units).
func TileSizeFor(zoomFactor float64) uint32 {
	if zoomFactor >= zoomFactorTileThreshold {
		return 64
	}
	return 128
}

// Tiles partitions a canvasW x canvasH canvas into non-overlapping tiles
// of the given edge length: tile edges align to multiples of
// tileSize except at the canvas's right/bottom edges.
func Tiles(canvasW, canvasH, tileSize uint32) []Tile {
	if tileSize == 0 {
		tileSize = 128
	}
	var out []Tile
	for y := uint32(0); y < canvasH; y += tileSize {
		h := tileSize
		if y+h > canvasH {
			h = canvasH - y
		}
		for x := uint32(0); x < canvasW; x += tileSize {
			w := tileSize
			if x+w > canvasW {
				w = canvasW - x
			}
			out = append(out, Tile{X: x, Y: y, Width: w, Height: h})
		}
	}
	return out
}

// CenterOutOrder sorts tiles by increasing Euclidean distance from the
// canvas center. This is a UX hint only: there is no global ordering
// guarantee, and results may still complete in any order. Returns a new
// slice; the input is not mutated.
func CenterOutOrder(tiles []Tile, canvasW, canvasH uint32) []Tile {
	out := slices.Clone(tiles)
	cx := float64(canvasW) / 2
	cy := float64(canvasH) / 2

	dist := func(t Tile) float64 {
		tx := float64(t.X) + float64(t.Width)/2
		ty := float64(t.Y) + float64(t.Height)/2
		dx := tx - cx
		dy := ty - cy
		return math.Hypot(dx, dy)
	}

	slices.SortFunc(out, func(a, b Tile) bool {
		return dist(a) < dist(b)
	})
	return out
}

// Contains reports whether the pixel (px, py) lies within t.
func (t Tile) Contains(px, py int) bool {
	return px >= int(t.X) && px < int(t.X+t.Width) && py >= int(t.Y) && py < int(t.Y+t.Height)
}

// CenterPixel returns the tile's center in pixel coordinates (integer
// truncation toward the top-left of the center pixel).
func (t Tile) CenterPixel() (int, int) {
	return int(t.X + t.Width/2), int(t.Y + t.Height/2)
}
