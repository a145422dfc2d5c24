// Package mosaic renders an image as a grid of tinted lego bricks.
//
// The source is cut into square cells of BrickSize pixels anchored at the
// top-left corner; any partial cells on the right and bottom edges are
// dropped. Each cell's interior is averaged and the brick texture is
// multiplied by that average. The one-pixel ring around every cell is never
// written, leaving a transparent gap between neighbouring bricks.
//
// All arithmetic is integer with floor division, so output is bit-exact for a
// given source, brick and brick size.
package mosaic

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// MinBrickSize is the smallest brick size with a non-empty interior.
const MinBrickSize = 3

var (
	// ErrBrickSize is returned when the brick size leaves no interior pixels.
	ErrBrickSize = errors.New("brick size too small")

	// ErrImageTooSmall is returned when the source holds no complete cell.
	ErrImageTooSmall = errors.New("image smaller than one brick")
)

// RGB is the average colour of a cell. Alpha is not part of the average.
type RGB struct {
	R, G, B uint8
}

// Options controls a transform.
type Options struct {
	// BrickSize is the cell edge length in pixels.
	BrickSize int

	// Workers is the number of goroutines rendering cell rows.
	// Values below 2 render on the calling goroutine.
	Workers int
}

// Grid returns the number of whole cells across and down an image.
func Grid(width, height, brickSize int) (cols, rows int) {
	return width / brickSize, height / brickSize
}

// OutputBounds returns the bounds of the cropped output image.
func OutputBounds(width, height, brickSize int) image.Rectangle {
	cols, rows := Grid(width, height, brickSize)
	return image.Rect(0, 0, cols*brickSize, rows*brickSize)
}

// Average returns the mean colour of the cell whose top-left pixel is origin,
// excluding the cell's outer ring. An empty window averages to black.
func Average(src *image.NRGBA, origin image.Point, brickSize int) RGB {
	var r, g, b, n uint64
	for y := origin.Y + 1; y < origin.Y+brickSize-1; y++ {
		i := src.PixOffset(origin.X+1, y)
		for x := origin.X + 1; x < origin.X+brickSize-1; x++ {
			r += uint64(src.Pix[i+0])
			g += uint64(src.Pix[i+1])
			b += uint64(src.Pix[i+2])
			n++
			i += 4
		}
	}
	if n == 0 {
		return RGB{}
	}
	return RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}
}

// Tint multiplies avg by a brick texel, treating each brick channel as a
// factor in [0, 1]. The result is always opaque.
func Tint(avg RGB, brick color.NRGBA) color.NRGBA {
	return color.NRGBA{
		R: uint8(uint16(avg.R) * uint16(brick.R) / 255),
		G: uint8(uint16(avg.G) * uint16(brick.G) / 255),
		B: uint8(uint16(avg.B) * uint16(brick.B) / 255),
		A: 255,
	}
}

// Transform renders src as a brick mosaic. The brick must already be
// BrickSize x BrickSize (see ResizeBrick). Neither src nor brick is modified.
func Transform(ctx context.Context, src, brick *image.NRGBA, opts Options) (*image.NRGBA, error) {
	size := opts.BrickSize
	if size < MinBrickSize {
		return nil, fmt.Errorf("%w: %d (minimum %d)", ErrBrickSize, size, MinBrickSize)
	}
	if b := brick.Bounds(); b.Dx() != size || b.Dy() != size {
		return nil, fmt.Errorf("brick texture is %dx%d, want %dx%d", b.Dx(), b.Dy(), size, size)
	}

	src = ToNRGBA(src)
	brick = ToNRGBA(brick)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	cols, rows := Grid(w, h, size)
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("%w: %dx%d with brick size %d", ErrImageTooSmall, w, h, size)
	}

	dst := image.NewNRGBA(OutputBounds(w, h, size))

	r := renderer{src: src, brick: brick, dst: dst, size: size, cols: cols}
	if err := r.run(ctx, rows, opts.Workers); err != nil {
		return nil, err
	}
	return dst, nil
}

// renderer holds the shared, read-only inputs of a transform.
type renderer struct {
	src   *image.NRGBA
	brick *image.NRGBA
	dst   *image.NRGBA
	size  int
	cols  int
}

// renderRow renders every cell in cell row j.
func (r *renderer) renderRow(j int) {
	for i := 0; i < r.cols; i++ {
		r.renderCell(image.Pt(i*r.size, j*r.size))
	}
}

// renderCell writes the interior of one cell. Only pixels inside the cell
// are touched, so cells can be rendered concurrently.
func (r *renderer) renderCell(origin image.Point) {
	avg := Average(r.src, origin, r.size)
	for dy := 1; dy < r.size-1; dy++ {
		bi := r.brick.PixOffset(1, dy)
		di := r.dst.PixOffset(origin.X+1, origin.Y+dy)
		for dx := 1; dx < r.size-1; dx++ {
			texel := color.NRGBA{R: r.brick.Pix[bi+0], G: r.brick.Pix[bi+1], B: r.brick.Pix[bi+2]}
			out := Tint(avg, texel)
			r.dst.Pix[di+0] = out.R
			r.dst.Pix[di+1] = out.G
			r.dst.Pix[di+2] = out.B
			r.dst.Pix[di+3] = out.A
			bi += 4
			di += 4
		}
	}
}
