// Package output writes rendered mosaics to disk and recompresses them.
package output

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/tolego/internal/compression"
)

const (
	// IntermediateExt is appended to the source stem for the unoptimized render.
	IntermediateExt = ".lego"

	// FinalExt is appended to the source stem for the deliverable.
	FinalExt = ".lego.png"
)

// Paths returns the intermediate and final output paths for a source image.
// Both live next to the source: "dir/photo.jpg" gives "dir/photo.lego" and
// "dir/photo.lego.png". A compression suffix is ignored when deriving the stem.
func Paths(source string) (intermediate, final string) {
	dir := filepath.Dir(source)
	name := filepath.Base(compression.TrimExt(source))
	if ext := filepath.Ext(name); ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(dir, name+IntermediateExt), filepath.Join(dir, name+FinalExt)
}

// Encode writes img to path as PNG regardless of the path's extension.
func Encode(img image.Image, path string) error {
	file, err := os.Create(path) // #nosec G304 - Output path derived from the user's source image
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	encodeErr := png.Encode(file, img)
	closeErr := file.Close()

	if encodeErr != nil {
		os.Remove(path)
		return fmt.Errorf("failed to encode png: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return nil
}
