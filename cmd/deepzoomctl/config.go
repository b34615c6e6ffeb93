package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk render configuration, loaded via a TOML file the
// same way noisetorch's own config.go loads its settings.
type Config struct {
	CenterRe      float64 `toml:"center_re"`
	CenterIm      float64 `toml:"center_im"`
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	CanvasWidth   uint32  `toml:"canvas_width"`
	CanvasHeight  uint32  `toml:"canvas_height"`
	MaxIterations uint32  `toml:"max_iterations"`
	TauSq         float64 `toml:"tau_sq"`
	Workers       int     `toml:"workers"`
	Output        string  `toml:"output"`
}

func defaultConfig() Config {
	return Config{
		Width:         4,
		Height:        3,
		CanvasWidth:   1280,
		CanvasHeight:  960,
		MaxIterations: 1000,
		TauSq:         DefaultTauSqConst,
		Workers:       4,
		Output:        "render.bin",
	}
}

// DefaultTauSqConst is the tau_sq that defaultConfig uses; it has the same
// value as deepzoom.DefaultTauSq.
const DefaultTauSqConst = 1e-6

func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if _, err := toml.DecodeReader(f, &config); err != nil {
		return config, err
	}
	return config, nil
}
