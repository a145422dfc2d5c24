// Package cli_test provides tests for the CLI package.
package cli_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/tolego/internal/cli"
)

// setupTests writes a source image and brick texture and returns their paths.
func setupTests(t *testing.T) (source, brick string) {
	t.Helper()
	dir := t.TempDir()
	source = filepath.Join(dir, "photo.png")
	brick = filepath.Join(dir, "brick.png")
	writeSolid(t, source, 64, 48, color.NRGBA{200, 40, 40, 255})
	writeSolid(t, brick, 32, 32, color.NRGBA{255, 255, 255, 255})
	return source, brick
}

func writeSolid(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRootCommand(t *testing.T) {
	source, brick := setupTests(t)

	t.Run("WithFileFlag", func(t *testing.T) {
		stdout, stderr, err := execute(t, "--file", source, "--brick", brick, "--brick-size", "16")
		if err != nil {
			t.Fatalf("Execute() error = %v\nstderr: %s", err, stderr)
		}

		final := filepath.Join(filepath.Dir(source), "photo.lego.png")
		if !strings.Contains(stdout, final) {
			t.Errorf("Expected output path in stdout, got %q", stdout)
		}
		if !strings.Contains(stdout, "64x48") || !strings.Contains(stdout, "12 bricks") {
			t.Errorf("Expected 64x48 with 12 bricks, got %q", stdout)
		}
		for _, stage := range []string{"compute", "render", "optimize"} {
			if !strings.Contains(stderr, stage) {
				t.Errorf("Expected %s stage in log output, got:\n%s", stage, stderr)
			}
		}
		if _, err := os.Stat(final); err != nil {
			t.Errorf("Expected final output: %v", err)
		}
	})

	t.Run("WithPositionalArgument", func(t *testing.T) {
		_, stderr, err := execute(t, source, "--brick", brick, "-b", "8", "--no-optimize", "-w", "2")
		if err != nil {
			t.Fatalf("Execute() error = %v\nstderr: %s", err, stderr)
		}
	})

	t.Run("Quiet", func(t *testing.T) {
		stdout, stderr, err := execute(t, source, "--brick", brick, "-b", "8", "-q")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if stdout != "" || stderr != "" {
			t.Errorf("Expected no output with --quiet, got stdout %q stderr %q", stdout, stderr)
		}
	})
}

func TestRootCommandErrors(t *testing.T) {
	source, brick := setupTests(t)
	dir := filepath.Dir(source)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "NoImage",
			args:    []string{"--brick", brick},
			wantErr: "an image is required",
		},
		{
			name:    "MissingSource",
			args:    []string{"-f", filepath.Join(dir, "missing.png"), "--brick", brick},
			wantErr: "there is no file",
		},
		{
			name:    "MissingBrick",
			args:    []string{"-f", source, "--brick", filepath.Join(dir, "brick.jpg")},
			wantErr: "needs to be in the working directory",
		},
		{
			name:    "BrickSizeTooSmall",
			args:    []string{"-f", source, "--brick", brick, "-b", "2"},
			wantErr: "brick size must be at least 3",
		},
		{
			name:    "ImageGivenTwice",
			args:    []string{source, "-f", filepath.Join(dir, "other.png"), "--brick", brick},
			wantErr: "image given twice",
		},
		{
			name:    "VerboseAndQuiet",
			args:    []string{"-f", source, "--brick", brick, "-v", "-q"},
			wantErr: "none of the others can be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestRootCommandEnv(t *testing.T) {
	source, brick := setupTests(t)
	t.Setenv("TOLEGO_BRICK", brick)
	t.Setenv("TOLEGO_BRICK_SIZE", "12")
	t.Setenv("TOLEGO_OPTIMIZER", "none")

	stdout, stderr, err := execute(t, source)
	if err != nil {
		t.Fatalf("Execute() error = %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "60x48") || !strings.Contains(stdout, "unoptimized") {
		t.Errorf("Expected env brick size and optimizer to apply, got %q", stdout)
	}

	// Flags win over the environment.
	stdout, _, err = execute(t, source, "-b", "16", "--optimizer", "builtin")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "64x48") || strings.Contains(stdout, "unoptimized") {
		t.Errorf("Expected flags to override env, got %q", stdout)
	}
}

func TestRootCommandOptimizerFallback(t *testing.T) {
	source, brick := setupTests(t)
	missing := filepath.Join(filepath.Dir(source), "no-such-optimizer")

	stdout, stderr, err := execute(t, source, "--brick", brick, "-b", "16", "--optimizer", missing)
	if err != nil {
		t.Fatalf("Optimizer failure should not fail the run: %v", err)
	}
	if !strings.Contains(stdout, "unoptimized") {
		t.Errorf("Expected unoptimized result, got %q", stdout)
	}
	if !strings.Contains(stderr, "kept unoptimized render") {
		t.Errorf("Expected optimizer failure to be logged, got:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(source), "photo.lego")); !os.IsNotExist(err) {
		t.Errorf("intermediate should not remain, stat err = %v", err)
	}
}

func TestRootCommandQuietOptimizerFailure(t *testing.T) {
	source, brick := setupTests(t)
	missing := filepath.Join(filepath.Dir(source), "no-such-optimizer")

	stdout, stderr, err := execute(t, "-q", "-f", source, "--brick", brick, "-b", "8", "--optimizer", missing)
	if err != nil {
		t.Fatalf("Optimizer failure should not fail the run: %v", err)
	}
	if stdout != "" {
		t.Errorf("Expected no stdout with --quiet, got %q", stdout)
	}
	if !strings.Contains(stderr, "Warning:") || !strings.Contains(stderr, "no-such-optimizer") {
		t.Errorf("Expected optimizer failure on stderr with --quiet, got %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(source), "photo.lego.png")); err != nil {
		t.Errorf("unoptimized render should be kept: %v", err)
	}
}

func TestRootCommandHelpMentionsBrickGeneration(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "go generate ./cmd/tolego") {
		t.Errorf("Expected help to explain how to create brick.jpg, got:\n%s", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(stdout, "tolego version") {
		t.Errorf("Expected version output, got %q", stdout)
	}
}
