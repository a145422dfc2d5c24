// Package config holds the run configuration for tolego and its validation rules.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	// DefaultBrickSize is the cell edge length in pixels when none is given.
	DefaultBrickSize = 50

	// MinBrickSize is the smallest cell edge that leaves a non-empty interior
	// once the one-pixel gap around each brick is removed.
	MinBrickSize = 3

	// DefaultBrickPath is the brick texture asset expected next to the binary.
	DefaultBrickPath = "brick.jpg"

	// OptimizerBuiltin selects the in-process PNG recompressor.
	OptimizerBuiltin = "builtin"

	// OptimizerNone skips recompression; the render is renamed to the final name.
	OptimizerNone = "none"
)

// Environment variables consulted by WithEnv.
const (
	EnvBrickPath = "TOLEGO_BRICK"
	EnvBrickSize = "TOLEGO_BRICK_SIZE"
	EnvWorkers   = "TOLEGO_WORKERS"
	EnvOptimizer = "TOLEGO_OPTIMIZER"
)

// Config describes a single legofy run.
type Config struct {
	// SourcePath is the image to convert.
	SourcePath string

	// BrickPath is the brick texture. Relative paths are resolved against the
	// working directory, then the executable's directory.
	BrickPath string

	// BrickSize is the edge length of each square cell in pixels.
	BrickSize int

	// Workers is the number of goroutines used by the transform.
	// Values below 2 run the transform on the calling goroutine.
	Workers int

	// Optimizer is "builtin", "none", or the name of an external optimizer
	// command such as "oxipng".
	Optimizer string

	// OptimizerArgs are passed to an external optimizer. The placeholders
	// {in} and {out} are replaced with the source and destination paths.
	OptimizerArgs []string
}

// Default returns the default configuration, rendering on one goroutine per CPU.
func Default() Config {
	return Config{
		BrickPath: DefaultBrickPath,
		BrickSize: DefaultBrickSize,
		Workers:   runtime.NumCPU(),
		Optimizer: OptimizerBuiltin,
	}
}

// WithEnv overlays values from TOLEGO_* environment variables onto c.
// Malformed numeric values are reported rather than silently ignored.
func (c Config) WithEnv() (Config, error) {
	if v := os.Getenv(EnvBrickPath); v != "" {
		c.BrickPath = v
	}
	if v := os.Getenv(EnvBrickSize); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, fmt.Errorf("invalid %s %q: %w", EnvBrickSize, v, err)
		}
		c.BrickSize = n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvOptimizer); v != "" {
		c.Optimizer = v
	}
	return c, nil
}

// Validate checks the configuration before any image is read.
func (c Config) Validate() error {
	if c.SourcePath == "" {
		return fmt.Errorf("source image path cannot be empty")
	}
	if c.BrickPath == "" {
		return fmt.Errorf("brick texture path cannot be empty")
	}
	if c.BrickSize < MinBrickSize {
		return fmt.Errorf("brick size must be at least %d, got %d", MinBrickSize, c.BrickSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	if strings.TrimSpace(c.Optimizer) == "" {
		return fmt.Errorf("optimizer cannot be empty (use %q to disable)", OptimizerNone)
	}
	return nil
}
