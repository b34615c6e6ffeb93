package deepzoom

import "testing"

func TestAdam7PassFractionsSumToOne(t *testing.T) {
	var sum float64
	for _, f := range AdamPassFractions {
		sum += f
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("pass fractions sum to %v, want 1", sum)
	}
}

func TestExpectedAdam7PassPartitionsEveryPixel(t *testing.T) {
	seen := make(map[uint8]int)
	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			pass := ExpectedAdam7Pass(x, y)
			if pass == 0 {
				t.Fatalf("pixel (%d,%d) matched no pass", x, y)
			}
			seen[pass]++
		}
	}
	for p := uint8(1); p <= 7; p++ {
		if seen[p] == 0 {
			t.Errorf("pass %d claimed no pixel in a 16x16 block", p)
		}
	}
}

func TestExpectedAdam7PassKnownPoints(t *testing.T) {
	tests := []struct {
		x, y uint32
		want uint8
	}{
		{0, 0, 1}, {8, 0, 1}, {4, 0, 2}, {4, 8, 2},
		{0, 4, 3}, {2, 0, 4}, {0, 2, 5}, {1, 0, 6}, {0, 1, 7},
	}
	for _, tt := range tests {
		if got := ExpectedAdam7Pass(tt.x, tt.y); got != tt.want {
			t.Errorf("ExpectedAdam7Pass(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAccumulatorMergeOverwritesOnlyCoveredSlots(t *testing.T) {
	acc := NewAccumulator(4, 4)
	tile := Tile{X: 0, Y: 0, Width: 2, Height: 2}
	results := []PixelResult{
		{Iterations: 1}, {Iterations: 2},
		{Iterations: 3}, {Iterations: 4},
	}
	acc.Merge(tile, results)

	if got := acc.Get(0, 0); got == nil || got.Iterations != 1 {
		t.Errorf("(0,0) = %v, want Iterations=1", got)
	}
	if got := acc.Get(1, 1); got == nil || got.Iterations != 4 {
		t.Errorf("(1,1) = %v, want Iterations=4", got)
	}
	if acc.Get(3, 3) != nil {
		t.Error("(3,3) should be uncomputed")
	}
}

func TestAccumulatorIsComplete(t *testing.T) {
	acc := NewAccumulator(2, 1)
	if acc.IsComplete() {
		t.Fatal("fresh accumulator should not be complete")
	}
	acc.Merge(Tile{X: 0, Y: 0, Width: 2, Height: 1}, []PixelResult{{}, {}})
	if !acc.IsComplete() {
		t.Error("accumulator with every slot filled should be complete")
	}
}

func TestAccumulatorDisplayBufferFillsFromLeftThenTop(t *testing.T) {
	acc := NewAccumulator(3, 2)
	acc.Set(0, 0, PixelResult{Iterations: 9})
	acc.Set(0, 1, PixelResult{Iterations: 7})

	buf := acc.DisplayBuffer()
	// (1,0) and (2,0) are missing, should inherit from the left: 9,9.
	if buf[1].Iterations != 9 {
		t.Errorf("(1,0) = %v, want 9 (filled from left)", buf[1].Iterations)
	}
	if buf[2].Iterations != 9 {
		t.Errorf("(2,0) = %v, want 9 (filled from left)", buf[2].Iterations)
	}
	// (1,1): left neighbor (0,1) is set to 7.
	idx11 := 1*3 + 1
	if buf[idx11].Iterations != 7 {
		t.Errorf("(1,1) = %v, want 7 (filled from left)", buf[idx11].Iterations)
	}
}

func TestAccumulatorDisplayBufferFirstPixelBlackIfMissing(t *testing.T) {
	acc := NewAccumulator(2, 2)
	buf := acc.DisplayBuffer()
	if buf[0] != (PixelResult{}) {
		t.Errorf("(0,0) with nothing computed should be black/zero, got %v", buf[0])
	}
}

func TestAccumulatorFinalBufferPanicsOnMissingPixel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("FinalBuffer should panic when a pixel is never computed")
		}
	}()
	acc := NewAccumulator(2, 2)
	acc.FinalBuffer()
}

func TestAccumulatorFinalBufferSucceedsWhenComplete(t *testing.T) {
	acc := NewAccumulator(1, 1)
	acc.Set(0, 0, PixelResult{Iterations: 42})
	buf := acc.FinalBuffer()
	if buf[0].Iterations != 42 {
		t.Errorf("FinalBuffer()[0] = %v, want 42", buf[0].Iterations)
	}
}
