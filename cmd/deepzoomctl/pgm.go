package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/flga/deepzoom"
)

// writePGM dumps an accumulator's display buffer as a grayscale PGM image,
// iteration count mapped linearly into 0-255. This is a debugging aid, not
// a colorization pipeline: real palettes are collaborator surface.
func writePGM(path string, acc *deepzoom.Accumulator, width, height uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P5\n%d %d\n255\n", width, height)

	buf := acc.DisplayBuffer()
	row := make([]byte, width)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			px := buf[y*width+x]
			var v byte
			switch {
			case px.Escaped && px.MaxIterations > 0:
				v = byte(255 * px.Iterations / px.MaxIterations)
			case px.Glitched:
				v = 255
			default:
				v = 0
			}
			row[x] = v
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Flush()
}
