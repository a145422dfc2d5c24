// Package compression provides transparent decompression of single-file
// compressed images (photo.png.xz, scan.tiff.gz, ...).
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// MaxDecompressedSize caps the size of a decompressed image.
const MaxDecompressedSize = 100 * 1024 * 1024

// Format identifies a single-file compression wrapper.
type Format string

const (
	// FormatNone means the data is not compressed.
	FormatNone  Format = ""
	FormatGzip  Format = "gzip"
	FormatBzip2 Format = "bzip2"
	FormatXz    Format = "xz"
	FormatZstd  Format = "zstd"
)

var extensions = map[string]Format{
	".gz":   FormatGzip,
	".gzip": FormatGzip,
	".bz2":  FormatBzip2,
	".xz":   FormatXz,
	".zst":  FormatZstd,
	".zstd": FormatZstd,
}

var magics = []struct {
	prefix []byte
	format Format
}{
	{[]byte{0x1f, 0x8b}, FormatGzip},
	{[]byte("BZh"), FormatBzip2},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, FormatXz},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, FormatZstd},
}

// FormatFromExt returns the compression format implied by the file extension.
func FormatFromExt(path string) Format {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Detect identifies the compression format of data, first by magic bytes and
// then by the extension of path.
func Detect(data []byte, path string) Format {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.prefix) {
			return m.format
		}
	}
	return FormatFromExt(path)
}

// TrimExt strips a compression extension from path, if present.
// "photo.png.xz" becomes "photo.png"; "photo.png" is returned unchanged.
func TrimExt(path string) string {
	if FormatFromExt(path) == FormatNone {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// NewReader wraps r with a decompressor for format.
func NewReader(r io.Reader, format Format) (io.ReadCloser, error) {
	switch format {
	case FormatNone:
		return io.NopCloser(r), nil
	case FormatGzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil
	case FormatBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case FormatXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xzr), nil
	case FormatZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", format)
	}
}

// Decompress returns data unchanged when it is not compressed, or the
// decompressed bytes otherwise. Output larger than limit is an error.
func Decompress(data []byte, path string, limit int64) ([]byte, Format, error) {
	format := Detect(data, path)
	if format == FormatNone {
		return data, format, nil
	}

	r, err := NewReader(bytes.NewReader(data), format)
	if err != nil {
		return nil, format, err
	}
	defer r.Close()

	out, err := io.ReadAll(NewLimitedReader(r, limit))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decompress %s data: %w", format, err)
	}
	return out, format, nil
}
