package main

import (
	"runtime"

	"github.com/flga/deepzoom"
)

// Config mirrors deepzoomctl's render parameters; kept separate since the
// two commands are independent binaries, each with its own small main
// package.
type Config struct {
	CenterRe, CenterIm   float64
	Width, Height        float64
	CanvasWidth          uint32
	CanvasHeight         uint32
	MaxIterations        uint32
	TauSq                float64
	Workers              int
}

func render(config Config) (*deepzoom.Accumulator, int, error) {
	bits := deepzoom.RequiredPrecisionBits(
		unvalidatedViewport(config), config.CanvasWidth, config.CanvasHeight, config.MaxIterations,
	)
	viewport, err := deepzoom.NewViewport(config.CenterRe, config.CenterIm, config.Width, config.Height, bits)
	if err != nil {
		return nil, 0, err
	}

	orbit := deepzoom.ComputeReferenceOrbit(viewport.Center, config.MaxIterations)
	dcMax := deepzoom.FromBigFloat(viewport.Width)
	bla := deepzoom.BuildBlaTable(orbit, dcMax)
	flavor := deepzoom.ChooseFlavor(dcMax)

	tileSize := deepzoom.TileSizeFor(1.0 / viewport.Width.ToF64())
	tiles := deepzoom.Tiles(config.CanvasWidth, config.CanvasHeight, tileSize)

	workers := config.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	sched := deepzoom.NewScheduler(workers)

	items := make([]deepzoom.WorkItem, len(tiles))
	for i, tile := range tiles {
		items[i] = deepzoom.WorkItem{Tile: tile, MaxIterations: config.MaxIterations, TauSq: config.TauSq}
	}
	renderID := sched.StartRender(items, config.CanvasWidth, config.CanvasHeight)

	acc := deepzoom.NewAccumulator(config.CanvasWidth, config.CanvasHeight)

	done := make(chan struct{})
	sched.Run(done, func(item deepzoom.WorkItem) ([]deepzoom.PixelResult, error) {
		return computeTile(viewport, orbit, bla, flavor, item, config.CanvasWidth, config.CanvasHeight)
	})
	defer close(done)

	remaining := len(items)
	for remaining > 0 {
		outcome := <-sched.Outcomes()
		remaining--
		if sched.IsStale(outcome.RenderID) || outcome.RenderID != renderID {
			continue
		}
		if outcome.Err == nil {
			acc.Merge(outcome.Tile, outcome.Data)
		}
	}

	return acc, remaining, nil
}

func unvalidatedViewport(config Config) deepzoom.Viewport {
	v, _ := deepzoom.NewViewport(config.CenterRe, config.CenterIm, config.Width, config.Height, 64)
	return v
}

func computeTile(viewport deepzoom.Viewport, orbit *deepzoom.ReferenceOrbit, bla *deepzoom.BlaTable, flavor deepzoom.Flavor, item deepzoom.WorkItem, canvasW, canvasH uint32) ([]deepzoom.PixelResult, error) {
	tile := item.Tile
	results := make([]deepzoom.PixelResult, 0, tile.Width*tile.Height)

	for row := uint32(0); row < tile.Height; row++ {
		for col := uint32(0); col < tile.Width; col++ {
			px := int(tile.X + col)
			py := int(tile.Y + row)
			c := viewport.PixelToC(px, py, canvasW, canvasH)
			deltaC := deepzoom.Complex{
				Re: c.Re.Sub(viewport.Center.Re),
				Im: c.Im.Sub(viewport.Center.Im),
			}

			var r deepzoom.PixelResult
			switch flavor {
			case deepzoom.FlavorF64:
				r = deepzoom.IteratePixelF64(orbit, bla, deepzoom.F64Pair{Re: deltaC.Re.ToF64(), Im: deltaC.Im.ToF64()}, item.MaxIterations, item.TauSq)
			case deepzoom.FlavorHDR:
				hdrDelta := deepzoom.HDRComplex{Re: deepzoom.FromBigFloat(deltaC.Re), Im: deepzoom.FromBigFloat(deltaC.Im)}
				r = deepzoom.IteratePixelHDR(orbit, bla, hdrDelta, item.MaxIterations, item.TauSq)
			default:
				r = deepzoom.IteratePixelBigFloat(orbit, bla, deltaC, item.MaxIterations, item.TauSq)
			}
			results = append(results, r)
		}
	}
	return results, nil
}
