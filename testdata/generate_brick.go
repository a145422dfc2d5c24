// Brick texture generator. Renders brick.jpg, the texture tolego tints for
// every cell: a near-white bevelled tile with a raised stud.
//
//	go run testdata/generate_brick.go [-size 256] [-o brick.jpg]
package main

import (
	"flag"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"math"
	"os"
)

func main() {
	size := flag.Int("size", 256, "edge length of the texture in pixels")
	out := flag.String("o", "brick.jpg", "output file")
	flag.Parse()

	img := image.NewRGBA(image.Rect(0, 0, *size, *size))
	s := float64(*size)
	bevel := s * 0.06
	studRadius := s * 0.3
	centre := s / 2

	for y := 0; y < *size; y++ {
		for x := 0; x < *size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			shade := 225.0

			// Bevel: light from the top-left.
			switch {
			case fx < bevel || fy < bevel:
				shade = 250
			case fx > s-bevel || fy > s-bevel:
				shade = 170
			}

			// Stud: a disc with a highlight towards the light and a rim shadow.
			dx, dy := fx-centre, fy-centre
			d := math.Hypot(dx, dy)
			switch {
			case d < studRadius:
				shade = 235 - 25*(dx+dy)/(2*studRadius)
			case d < studRadius+bevel:
				shade = 190
			}

			v := uint8(math.Max(0, math.Min(255, shade)))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *out, err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 95}); err != nil {
		log.Fatalf("failed to encode %s: %v", *out, err)
	}
}
