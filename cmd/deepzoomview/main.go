package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/flga/deepzoom"
)

func init() {
	runtime.LockOSThread()
}

// deepzoomview is a minimal SDL2 preview window: it renders one view with
// the core package and blits the progressive accumulator's display buffer
// as a grayscale texture once, after the render has finished. Colorization,
// panning and zoom gestures are collaborator surface, not implemented
// here.
func main() {
	centerRe := flag.Float64("re", -0.5, "center real part")
	centerIm := flag.Float64("im", 0, "center imaginary part")
	width := flag.Float64("width", 4, "viewport width")
	maxIterations := flag.Uint("iterations", 1000, "max iterations")
	canvasW := flag.Uint("w", 800, "canvas width")
	canvasH := flag.Uint("h", 600, "canvas height")
	flag.Parse()

	if err := run(*centerRe, *centerIm, *width, uint32(*canvasW), uint32(*canvasH), uint32(*maxIterations)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(centerRe, centerIm, width float64, canvasW, canvasH, maxIterations uint32) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("init sdl: %w", err)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("deepzoomview", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, int32(canvasW), int32(canvasH), sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGB24, sdl.TEXTUREACCESS_STREAMING, int32(canvasW), int32(canvasH))
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}
	defer texture.Destroy()

	height := width * float64(canvasH) / float64(canvasW)
	cfg := Config{CenterRe: centerRe, CenterIm: centerIm, Width: width, Height: height,
		CanvasWidth: canvasW, CanvasHeight: canvasH, MaxIterations: maxIterations,
		TauSq: deepzoomDefaultTauSq, Workers: runtime.NumCPU()}

	acc, _, err := render(cfg)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := blit(texture, acc, canvasW, canvasH); err != nil {
		return fmt.Errorf("blit: %w", err)
	}

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				running = false
			}
		}
		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()
		sdl.Delay(16)
	}

	return nil
}

func blit(texture *sdl.Texture, acc *deepzoom.Accumulator, width, height uint32) error {
	buf := acc.DisplayBuffer()
	pixels := make([]byte, int(width)*int(height)*3)
	for i, px := range buf {
		var v byte
		switch {
		case px.Escaped && px.MaxIterations > 0:
			v = byte(255 * px.Iterations / px.MaxIterations)
		case px.Glitched:
			v = 255
		}
		pixels[i*3] = v
		pixels[i*3+1] = v
		pixels[i*3+2] = v
	}
	return texture.Update(nil, pixels, int(width)*3)
}

const deepzoomDefaultTauSq = 1e-6
