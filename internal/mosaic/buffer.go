package mosaic

import (
	"image"

	"golang.org/x/image/draw"
)

// ToNRGBA returns img as a dense, zero-origin NRGBA buffer. Images already
// in that form are returned as-is; anything else is copied.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ResizeBrick scales the brick texture to size x size with a bilinear
// (triangle) filter. It is called once per run, not per cell.
func ResizeBrick(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
