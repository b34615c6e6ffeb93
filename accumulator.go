package deepzoom

import "fmt"

// AdamPassFractions are the seven Adam7-style pass fractions: they sum
// to 1 and mirror PNG's interlace pattern.
var AdamPassFractions = [7]float64{
	1.0 / 64, 1.0 / 64, 2.0 / 64, 4.0 / 64, 8.0 / 64, 16.0 / 64, 32.0 / 64,
}

// ExpectedAdam7Pass returns which pass (1-7) owns pixel (x, y), following
// PNG's Adam7 8x8 tile pattern: every canvas pixel is claimed by exactly
// one pass.
func ExpectedAdam7Pass(x, y uint32) uint8 {
	switch {
	case x%8 == 0 && y%8 == 0:
		return 1
	case x%8 == 4 && y%8 == 0:
		return 2
	case x%4 == 0 && y%8 == 4:
		return 3
	case x%4 == 2 && y%4 == 0:
		return 4
	case x%2 == 0 && y%4 == 2:
		return 5
	case x%2 != 0 && y%2 == 0:
		return 6
	case y%2 != 0:
		return 7
	default:
		// Unreachable for any (x, y); every case above partitions all
		// residues mod 8. Surfacing 0 here would indicate a pattern bug,
		// matching the panic Accumulator.FinalBuffer raises for the same
		// class of bug.
		return 0
	}
}

// Accumulator is the progressive interlaced pixel-set accumulator. Once a
// slot is filled by a pass it is never overwritten by that same pass; it
// may be overwritten only when glitch resolution reruns the affected tile
// with a different reference.
type Accumulator struct {
	data          []*PixelResult
	width, height uint32
}

// NewAccumulator allocates an accumulator for a width x height canvas.
func NewAccumulator(width, height uint32) *Accumulator {
	return &Accumulator{data: make([]*PixelResult, int(width)*int(height)), width: width, height: height}
}

func (a *Accumulator) index(x, y uint32) int { return int(y)*int(a.width) + int(x) }

// Set stores a single pixel's result, overwriting any prior value. Used
// both for normal pass merges and for glitch-resolution reruns.
func (a *Accumulator) Set(x, y uint32, r PixelResult) {
	if x >= a.width || y >= a.height {
		return
	}
	v := r
	a.data[a.index(x, y)] = &v
}

// Get returns the stored result for (x, y), or nil if not yet computed.
func (a *Accumulator) Get(x, y uint32) *PixelResult {
	if x >= a.width || y >= a.height {
		return nil
	}
	return a.data[a.index(x, y)]
}

// Merge folds a tile's results into the accumulator. Slots the tile
// computed are overwritten; everything else is left untouched.
func (a *Accumulator) Merge(tile Tile, results []PixelResult) {
	for row := uint32(0); row < tile.Height; row++ {
		for col := uint32(0); col < tile.Width; col++ {
			idx := row*tile.Width + col
			if int(idx) >= len(results) {
				continue
			}
			a.Set(tile.X+col, tile.Y+row, results[idx])
		}
	}
}

// IsComplete reports whether every slot has been computed.
func (a *Accumulator) IsComplete() bool {
	for _, v := range a.data {
		if v == nil {
			return false
		}
	}
	return true
}

// DisplayBuffer returns a full width*height buffer with every slot filled:
// missing slots are filled from the left neighbor, or from the top
// neighbor at the left edge, or black at the very first pixel.
func (a *Accumulator) DisplayBuffer() []PixelResult {
	out := make([]PixelResult, len(a.data))
	for y := uint32(0); y < a.height; y++ {
		for x := uint32(0); x < a.width; x++ {
			idx := a.index(x, y)
			if v := a.data[idx]; v != nil {
				out[idx] = *v
				continue
			}
			if x > 0 {
				out[idx] = out[a.index(x-1, y)]
			} else if y > 0 {
				out[idx] = out[a.index(0, y-1)]
			} else {
				out[idx] = PixelResult{} // black: zero value
			}
		}
	}
	return out
}

// FinalBuffer returns the fully computed buffer after all passes. It
// panics if any slot is still empty: this is the one
// place the core panics, deliberately, to expose an Adam7 mask bug rather
// than a user-facing condition.
func (a *Accumulator) FinalBuffer() []PixelResult {
	out := make([]PixelResult, len(a.data))
	missing := 0
	for i, v := range a.data {
		if v == nil {
			missing++
			continue
		}
		out[i] = *v
	}
	if missing > 0 {
		panic(fmt.Sprintf("deepzoom: accumulator has %d uncomputed pixels after final pass", missing))
	}
	return out
}
