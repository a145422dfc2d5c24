// Package pipeline runs the load, compute, render and optimize stages that
// turn a source image into a brick mosaic.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tolego/internal/config"
	imageio "github.com/jmylchreest/tolego/internal/image"
	"github.com/jmylchreest/tolego/internal/mosaic"
	"github.com/jmylchreest/tolego/internal/output"
)

// Result describes the files produced by a run.
type Result struct {
	// Output is the final image path.
	Output string

	// Optimized is false when the render was kept without recompression.
	Optimized bool

	// Width and Height are the output dimensions.
	Width, Height int

	// Bricks is the number of cells rendered.
	Bricks int

	// Bytes is the size of the final file.
	Bytes int64
}

// Pipeline holds the collaborators of a run. The zero value is not usable;
// create one with New.
type Pipeline struct {
	loader       imageio.Loader
	optimizer    output.Optimizer
	optimizerSet bool
	logger       hclog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader replaces the file loader.
func WithLoader(l imageio.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithOptimizer replaces the optimizer chosen from the config. A nil
// optimizer skips recompression.
func WithOptimizer(o output.Optimizer) Option {
	return func(p *Pipeline) {
		p.optimizer = o
		p.optimizerSet = true
	}
}

// New creates a pipeline that logs stage progress to logger.
func New(logger hclog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p := &Pipeline{
		loader: imageio.NewFileLoader(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OptimizerFor returns the optimizer selected by cfg, or nil for "none".
func OptimizerFor(cfg config.Config) output.Optimizer {
	switch cfg.Optimizer {
	case config.OptimizerNone:
		return nil
	case config.OptimizerBuiltin, "":
		return output.NewPNGOptimizer()
	default:
		return output.NewCommandOptimizer(cfg.Optimizer, cfg.OptimizerArgs)
	}
}

// Run converts cfg.SourcePath into a mosaic next to it.
//
// Every failure is an *Error, except cancellation, which returns ctx.Err()
// unwrapped. An optimize failure still leaves the unoptimized render at
// Result.Output, so Run returns both a Result and an error in that case.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindInvalidConfig, "", err)
	}

	if err := imageio.ValidateImagePath(cfg.SourcePath); err != nil {
		if errors.Is(err, imageio.ErrNotFound) {
			return nil, newError(KindSourceNotFound, cfg.SourcePath, err)
		}
		return nil, newError(KindDecode, cfg.SourcePath, err)
	}
	intermediate, final := output.Paths(cfg.SourcePath)
	if samePath(cfg.SourcePath, intermediate) || samePath(cfg.SourcePath, final) {
		return nil, newError(KindInvalidConfig, cfg.SourcePath,
			fmt.Errorf("output would overwrite the source; rename it so it does not end in %s", output.IntermediateExt))
	}
	if !imageio.IsImageFile(cfg.SourcePath) {
		p.logger.Debug("unrecognised extension, detecting format from content", "path", cfg.SourcePath)
	}

	brickPath, err := imageio.ResolveAssetPath(cfg.BrickPath)
	if err != nil {
		return nil, newError(KindBrickAssetMissing, cfg.BrickPath, err)
	}

	brickImg, err := p.loader.Load(brickPath)
	if err != nil {
		return nil, newError(KindDecode, brickPath, err)
	}

	srcImg, err := p.loader.Load(cfg.SourcePath)
	if err != nil {
		return nil, newError(KindDecode, cfg.SourcePath, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// compute
	log := p.logger.Named("compute")
	start := time.Now()
	src := mosaic.ToNRGBA(srcImg)
	cols, rows := mosaic.Grid(src.Rect.Dx(), src.Rect.Dy(), cfg.BrickSize)
	log.Info("stage started",
		"source", cfg.SourcePath,
		"width", src.Rect.Dx(), "height", src.Rect.Dy(),
		"brick_size", cfg.BrickSize, "bricks", cols*rows, "workers", cfg.Workers)

	brick := mosaic.ResizeBrick(brickImg, cfg.BrickSize)
	lego, err := mosaic.Transform(ctx, src, brick, mosaic.Options{
		BrickSize: cfg.BrickSize,
		Workers:   cfg.Workers,
	})
	if err != nil {
		log.Error("stage failed", "error", err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, newError(KindInvalidConfig, cfg.SourcePath, err)
	}
	log.Info("stage completed", "duration", time.Since(start))

	// render
	log = p.logger.Named("render")
	start = time.Now()
	log.Info("stage started", "path", intermediate)
	if err := output.Encode(lego, intermediate); err != nil {
		log.Error("stage failed", "error", err)
		return nil, newError(KindEncode, intermediate, err)
	}
	log.Info("stage completed", "duration", time.Since(start))

	result := &Result{
		Output: final,
		Width:  lego.Rect.Dx(),
		Height: lego.Rect.Dy(),
		Bricks: cols * rows,
	}

	// optimize
	optimizer := p.optimizer
	if !p.optimizerSet {
		optimizer = OptimizerFor(cfg)
	}
	log = p.logger.Named("optimize")
	start = time.Now()
	if optimizer == nil {
		log.Info("optimization disabled, keeping render", "path", final)
	} else {
		log.Info("stage started", "optimizer", optimizer.Name(), "path", final)
	}

	finalizeErr := output.Finalize(ctx, optimizer, intermediate, final)
	result.Optimized = optimizer != nil && finalizeErr == nil
	if info, err := os.Stat(final); err == nil {
		result.Bytes = info.Size()
	}

	if finalizeErr != nil {
		var fallback *output.FallbackError
		if errors.As(finalizeErr, &fallback) {
			log.Warn("stage failed, kept unoptimized render", "path", final, "error", fallback.Err)
			return result, newError(KindOptimize, final, finalizeErr)
		}
		log.Error("stage failed", "error", finalizeErr)
		return nil, newError(KindOptimize, final, finalizeErr)
	}

	if optimizer != nil {
		log.Info("stage completed", "bytes", result.Bytes, "duration", time.Since(start))
	}

	return result, nil
}

// samePath reports whether a and b name the same file location.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Describe returns a one-line summary of a result for user output.
func (r *Result) Describe() string {
	state := "optimized"
	if !r.Optimized {
		state = "unoptimized"
	}
	return fmt.Sprintf("%s (%dx%d, %d bricks, %d bytes, %s)", r.Output, r.Width, r.Height, r.Bricks, r.Bytes, state)
}
