package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/flga/deepzoom"
)

func main() {
	app := cli.NewApp()
	app.Name = "deepzoomctl"
	app.Usage = "render deep-zoom Mandelbrot views from the command line"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a TOML render config"},
		cli.StringFlag{Name: "cpuprofile", Usage: "write a CPU profile to this path"},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single view to a pixel dump",
			Action: func(c *cli.Context) error {
				return runRender(c)
			},
		},
		{
			Name:  "bench",
			Usage: "render the same view with 1/2/4/8 workers and report timings",
			Action: func(c *cli.Context) error {
				return runBench(c)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func withCPUProfile(path string, fn func() error) error {
	if path == "" {
		return fn()
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create cpu profile")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errors.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return fn()
}

func runRender(c *cli.Context) error {
	config, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	return withCPUProfile(c.GlobalString("cpuprofile"), func() error {
		acc, elapsed, err := render(config)
		if err != nil {
			return err
		}
		log.Printf("rendered %dx%d in %s", config.CanvasWidth, config.CanvasHeight, elapsed)
		return writePGM(config.Output, acc, config.CanvasWidth, config.CanvasHeight)
	})
}

func runBench(c *cli.Context) error {
	config, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	for _, workers := range []int{1, 2, 4, 8} {
		cfg := config
		cfg.Workers = workers
		_, elapsed, err := render(cfg)
		if err != nil {
			return err
		}
		log.Printf("workers=%d elapsed=%s", workers, elapsed)
	}
	return nil
}

// render drives a single complete render using the core package: build the
// viewport, compute the reference orbit and BLA table, dispatch tiles
// across a worker pool, and merge results into an accumulator.
func render(config Config) (*deepzoom.Accumulator, time.Duration, error) {
	start := time.Now()

	bits := deepzoom.RequiredPrecisionBits(
		mustViewport(config),
		config.CanvasWidth, config.CanvasHeight, config.MaxIterations,
	)
	viewport, err := deepzoom.NewViewport(config.CenterRe, config.CenterIm, config.Width, config.Height, bits)
	if err != nil {
		return nil, 0, err
	}

	computed := deepzoom.ComputeReferenceOrbit(viewport.Center, config.MaxIterations)

	workers := config.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	sched := deepzoom.NewScheduler(workers)

	// Broadcast the primary reference orbit to every worker as a real
	// StoreReferenceOrbit message (orbit_id 0, the convention reserved
	// for a render's main reference) rather than sharing the orbit
	// pointer directly. The round-tripped copy sched.BroadcastOrbit
	// returns is what every tile is actually computed against.
	const primaryOrbitID = 0
	orbit, err := sched.BroadcastOrbit(primaryOrbitID, computed, viewport.Width)
	if err != nil {
		return nil, 0, err
	}

	dcMax := deepzoom.FromBigFloat(viewport.Width)
	bla := deepzoom.BuildBlaTable(orbit, dcMax)

	tileSize := deepzoom.TileSizeFor(1.0 / viewport.Width.ToF64())
	tiles := deepzoom.Tiles(config.CanvasWidth, config.CanvasHeight, tileSize)

	items := make([]deepzoom.WorkItem, len(tiles))
	for i, tile := range tiles {
		items[i] = deepzoom.WorkItem{Tile: tile, OrbitID: primaryOrbitID, MaxIterations: config.MaxIterations, TauSq: config.TauSq}
	}
	renderID := sched.StartRender(items, config.CanvasWidth, config.CanvasHeight)

	acc := deepzoom.NewAccumulator(config.CanvasWidth, config.CanvasHeight)

	done := make(chan struct{})
	sched.Run(done, func(item deepzoom.WorkItem) ([]deepzoom.PixelResult, error) {
		return computeTile(viewport, orbit, bla, item, config.CanvasWidth, config.CanvasHeight)
	})
	defer close(done)

	remaining := len(items)
	for remaining > 0 {
		outcome := <-sched.Outcomes()
		remaining--
		if sched.IsStale(outcome.RenderID) || outcome.RenderID != renderID {
			continue
		}
		if outcome.Err != nil {
			log.Printf("tile %v failed: %v", outcome.Tile, outcome.Err)
			continue
		}
		acc.Merge(outcome.Tile, outcome.Data)
	}

	return acc, time.Since(start), nil
}

func mustViewport(config Config) deepzoom.Viewport {
	v, _ := deepzoom.NewViewport(config.CenterRe, config.CenterIm, config.Width, config.Height, 64)
	return v
}

// computeTile runs the perturbation kernel for every pixel in item.Tile,
// choosing a flavor once per tile rather than per pixel.
func computeTile(viewport deepzoom.Viewport, orbit *deepzoom.ReferenceOrbit, bla *deepzoom.BlaTable, item deepzoom.WorkItem, canvasW, canvasH uint32) ([]deepzoom.PixelResult, error) {
	tile := item.Tile
	results := make([]deepzoom.PixelResult, 0, tile.Width*tile.Height)

	flavor := deepzoom.ChooseFlavor(deepzoom.FromBigFloat(viewport.Width))

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
