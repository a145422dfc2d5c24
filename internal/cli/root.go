// Package cli provides the command-line interface for tolego.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/tolego/internal/config"
	"github.com/jmylchreest/tolego/internal/pipeline"
	"github.com/jmylchreest/tolego/internal/version"
)

// rootOptions holds the flag values of one root command instance.
type rootOptions struct {
	file          string
	brick         string
	brickSize     int
	workers       int
	optimizer     string
	optimizerArgs []string
	noOptimize    bool
	verbose       bool
	quiet         bool
}

// NewRootCmd creates the tolego command. Each call returns an independent
// command tree, so tests can run several in one process.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tolego [image]",
		Short: "Turn an image into a lego brick mosaic",
		Long: `tolego cuts an image into square cells, averages the colour of each cell
and redraws it as a brick by tinting a brick texture with that colour.

The result is written next to the source as <name>.lego.png. Partial cells on
the right and bottom edges are cropped. The brick texture (brick.jpg) must sit
in the working directory or next to the tolego binary.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF, optionally wrapped
in gzip, bzip2, xz or zstd.

A default brick texture can be generated from a source checkout with:
  go generate ./cmd/tolego

Examples:
  # Legofy a photo with 50px bricks (default)
  tolego --file photo.jpg

  # Smaller bricks
  tolego -f photo.jpg -b 16

  # Use oxipng instead of the built-in optimizer
  tolego -f photo.jpg --optimizer oxipng

  # Skip optimization
  tolego photo.jpg --no-optimize`,
		Version:      version.Short(),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLegofy(cmd, args, opts)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "path of the image to legofy")
	flags.IntVarP(&opts.brickSize, "brick-size", "b", defaults.BrickSize, fmt.Sprintf("brick edge in pixels (minimum %d)", config.MinBrickSize))
	flags.StringVar(&opts.brick, "brick", defaults.BrickPath, "brick texture image")
	flags.IntVarP(&opts.workers, "workers", "w", defaults.Workers, "goroutines used to render bricks")
	flags.StringVar(&opts.optimizer, "optimizer", defaults.Optimizer, "optimizer: builtin, none, or an external command such as oxipng")
	flags.StringSliceVar(&opts.optimizerArgs, "optimizer-args", nil, "arguments for an external optimizer ({in} and {out} are replaced)")
	flags.BoolVar(&opts.noOptimize, "no-optimize", false, "keep the unoptimized render")

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.MarkFlagsMutuallyExclusive("optimizer", "no-optimize")

	cmd.SetVersionTemplate(version.String() + "\n")
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// runLegofy executes the root command.
func runLegofy(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfg, err := buildConfig(cmd.Flags(), opts, args)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.quiet)
	logger.Debug("configuration", "source", cfg.SourcePath, "brick", cfg.BrickPath,
		"brick_size", cfg.BrickSize, "workers", cfg.Workers, "optimizer", cfg.Optimizer)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := pipeline.New(logger).Run(ctx, cfg)
	if err != nil {
		// A failed optimization still leaves the unoptimized render as output.
		var pe *pipeline.Error
		if !errors.As(err, &pe) || !pe.Recoverable() {
			return describeError(err, cfg)
		}
		// The pipeline logs it as a warning, which --quiet filters out.
		if opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	if !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), result.Describe())
	}
	return nil
}

// buildConfig layers environment defaults and explicitly set flags.
func buildConfig(flags *pflag.FlagSet, opts *rootOptions, args []string) (config.Config, error) {
	cfg, err := config.Default().WithEnv()
	if err != nil {
		return cfg, err
	}

	switch {
	case len(args) == 1 && opts.file != "" && args[0] != opts.file:
		return cfg, fmt.Errorf("image given twice: %q and --file %q", args[0], opts.file)
	case len(args) == 1:
		cfg.SourcePath = args[0]
	default:
		cfg.SourcePath = opts.file
	}
	if cfg.SourcePath == "" {
		return cfg, fmt.Errorf("an image is required (use --file or pass it as an argument)")
	}

	if flags.Changed("brick-size") {
		cfg.BrickSize = opts.brickSize
	}
	if flags.Changed("brick") {
		cfg.BrickPath = opts.brick
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("optimizer") {
		cfg.Optimizer = opts.optimizer
	}
	if flags.Changed("optimizer-args") {
		cfg.OptimizerArgs = opts.optimizerArgs
	}
	if opts.noOptimize {
		cfg.Optimizer = config.OptimizerNone
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// describeError turns pipeline failures into messages for the terminal.
func describeError(err error, cfg config.Config) error {
	switch pipeline.KindOf(err) {
	case pipeline.KindSourceNotFound:
		return fmt.Errorf("there is no file at %s", cfg.SourcePath)
	case pipeline.KindBrickAssetMissing:
		return fmt.Errorf("%s needs to be in the working directory or next to the tolego binary: %w", cfg.BrickPath, err)
	default:
		return err
	}
}
