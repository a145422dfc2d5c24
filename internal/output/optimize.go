package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// Optimizer recompresses a PNG file losslessly.
type Optimizer interface {
	// Name identifies the optimizer in logs.
	Name() string

	// Optimize reads src and writes an optimized copy to dst. On error dst
	// may be missing or partial.
	Optimize(ctx context.Context, src, dst string) error
}

// PNGOptimizer re-encodes PNGs in process, keeping the smallest of several
// lossless encodings.
type PNGOptimizer struct{}

// NewPNGOptimizer creates the built-in optimizer.
func NewPNGOptimizer() *PNGOptimizer {
	return &PNGOptimizer{}
}

// Name implements Optimizer.
func (o *PNGOptimizer) Name() string {
	return "builtin"
}

// Optimize implements Optimizer.
func (o *PNGOptimizer) Optimize(ctx context.Context, src, dst string) error {
	original, err := os.ReadFile(src) // #nosec G304 - Intermediate file written by this program
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	img, err := png.Decode(bytes.NewReader(original))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}

	best := original
	for _, candidate := range candidates(img) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, candidate); err != nil {
			return fmt.Errorf("failed to re-encode %s: %w", src, err)
		}
		if buf.Len() < len(best) {
			best = buf.Bytes()
		}
	}

	if err := os.WriteFile(dst, best, 0o644); err != nil { // #nosec G306 - Output image needs standard read permissions
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// candidates returns lossless re-encodings worth trying for img.
func candidates(img image.Image) []image.Image {
	out := []image.Image{img}
	if p := toPaletted(img); p != nil {
		out = append(out, p)
	}
	return out
}

// toPaletted converts img to a paletted image when it holds at most 256
// distinct colours, or returns nil.
func toPaletted(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}

	b := img.Bounds()
	index := make(map[color.NRGBA]uint8)
	palette := make(color.Palette, 0, 256)
	pixels := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(palette) == 256 {
					return nil
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			pixels = append(pixels, i)
		}
	}

	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	copy(p.Pix, pixels)
	return p
}

// CommandOptimizer runs an external optimizer such as oxipng.
type CommandOptimizer struct {
	// Path is the executable name or path.
	Path string

	// Args are the command arguments; {in} and {out} are replaced with the
	// source and destination paths.
	Args []string
}

// DefaultCommandArgs are oxipng's arguments for writing to a separate file.
var DefaultCommandArgs = []string{"--opt", "2", "--out", "{out}", "{in}"}

// NewCommandOptimizer creates an optimizer that runs path with args, or with
// DefaultCommandArgs when args is empty.
func NewCommandOptimizer(path string, args []string) *CommandOptimizer {
	if len(args) == 0 {
		args = DefaultCommandArgs
	}
	return &CommandOptimizer{Path: path, Args: args}
}

// Name implements Optimizer.
func (o *CommandOptimizer) Name() string {
	return o.Path
}

// Optimize implements Optimizer.
func (o *CommandOptimizer) Optimize(ctx context.Context, src, dst string) error {
	replacer := strings.NewReplacer("{in}", src, "{out}", dst)
	args := make([]string, len(o.Args))
	for i, arg := range o.Args {
		args[i] = replacer.Replace(arg)
	}

	cmd := exec.CommandContext(ctx, o.Path, args...) // #nosec G204 - Optimizer command chosen by the user
	if out, err := cmd.CombinedOutput(); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", o.Path, err, msg)
		}
		return fmt.Errorf("%s failed: %w", o.Path, err)
	}

	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%s did not produce %s: %w", o.Path, dst, err)
	}
	return nil
}

// FallbackError reports an optimizer failure after the unoptimized render
// was kept as the final output.
type FallbackError struct {
	Optimizer string
	Err       error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%s optimizer failed, kept unoptimized output: %v", e.Optimizer, e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// Finalize turns the intermediate render into the final deliverable.
//
// With a nil optimizer the intermediate is renamed to final. Otherwise the
// optimizer writes final and the intermediate is removed; if it fails, any
// partial output is replaced by renaming the intermediate to final, and a
// *FallbackError is returned. Either way a usable file ends up at final.
func Finalize(ctx context.Context, opt Optimizer, intermediate, final string) error {
	if opt == nil {
		if err := os.Rename(intermediate, final); err != nil {
			return fmt.Errorf("failed to rename %s: %w", intermediate, err)
		}
		return nil
	}

	// A final left by an earlier run must not pass for fresh output.
	if err := os.Remove(final); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale %s: %w", final, err)
	}

	optErr := opt.Optimize(ctx, intermediate, final)
	if optErr == nil {
		if err := os.Remove(intermediate); err != nil {
			return fmt.Errorf("failed to remove %s: %w", intermediate, err)
		}
		return nil
	}

	if err := os.Rename(intermediate, final); err != nil {
		return fmt.Errorf("optimization failed (%v) and fallback rename failed: %w", optErr, err)
	}
	return &FallbackError{Optimizer: opt.Name(), Err: optErr}
}
