// Package image provides utilities for loading source images and assets.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/tolego/internal/compression"
)

// ErrNotFound is returned when an image path does not exist.
var ErrNotFound = errors.New("image file not found")

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem. Files wrapped in gzip,
// bzip2, xz or zstd are decompressed before decoding.
type FileLoader struct {
	maxDecompressed int64
}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{
		maxDecompressed: compression.MaxDecompressedSize,
	}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, BMP, TIFF.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if err := ValidateImagePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	data, _, err = compression.Decompress(data, path, l.maxDecompressed)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// ValidateImagePath checks that path names an existing regular file.
// A missing file yields an error wrapping ErrNotFound.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	return nil
}

// ResolveAssetPath locates an asset such as the brick texture. Absolute paths
// are checked as-is; relative paths are tried against the working directory
// and then against the directory holding the running executable.
func ResolveAssetPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("asset path cannot be empty")
	}

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		if exe, err := os.Executable(); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(exe), path))
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// IsImageFile reports whether path has a supported image extension, ignoring
// any compression suffix.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(compression.TrimExt(path)))
	return slices.Contains(SupportedImageExtensions(), ext)
}
