// Package imageio decodes uploaded raster images into grid.Image buffers.
package imageio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/inkgrid/server/internal/grid"
)

// DefaultMaxPixels bounds decoded image size when no limit is configured.
const DefaultMaxPixels = 64 * 1024 * 1024

var (
	// ErrUnsupportedFormat is returned when the data is not a known image format.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the image header announces more pixels than allowed.
	ErrImageTooLarge = errors.New("image too large")
	// ErrEmptyImage is returned for zero-width or zero-height images.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrCorruptImage is returned when a recognised format fails to decode,
	// for example a truncated upload.
	ErrCorruptImage = errors.New("corrupt image data")
)

// Decoder decodes images with a pixel budget.
type Decoder struct {
	MaxPixels int
}

// NewDecoder returns a decoder that refuses images above maxPixels.
// A non-positive maxPixels selects DefaultMaxPixels.
func NewDecoder(maxPixels int) *Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Decoder{MaxPixels: maxPixels}
}

// Decode reads one image from r. The header is checked against the pixel
// budget before the pixel data is decoded.
func (d *Decoder) Decode(r io.ReadSeeker) (*grid.Image, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("%w: failed to read image header: %w", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrEmptyImage, cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > d.MaxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, d.MaxPixels)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, format, fmt.Errorf("failed to rewind image: %w", err)
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, format, fmt.Errorf("%w: failed to decode image (format: %s): %w", ErrCorruptImage, format, err)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return grid.FromImage(img), format, nil
}

// Load decodes the image file at path.
func (d *Decoder) Load(path string) (*grid.Image, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("image file not found: %s", path)
		}
		return nil, "", fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path) // #nosec G304 - user-specified image path
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	return d.Decode(f)
}
