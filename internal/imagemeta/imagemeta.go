// Package imagemeta reads image dimensions without decoding pixels, so
// renderers can pick a layout and size image elements.
package imagemeta

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

// ErrUnsupported is returned for formats no registered decoder understands.
var ErrUnsupported = errors.New("imagemeta: unsupported image format")

// FormatSVG is reported for vector images, which are never decoded.
const FormatSVG = "svg"

// Layouts chosen from an image's proportions.
const (
	LayoutWide = "wide"
	LayoutTall = "tall"
)

// tallRatio is how much taller than wide an image must be to count as tall.
const tallRatio = 1.1

// Info describes one image. Width and Height are zero for vector formats.
type Info struct {
	Format string
	Width  int
	Height int
}

// Layout returns LayoutTall for portrait images and LayoutWide otherwise.
func (i Info) Layout() string {
	if i.Width > 0 && float64(i.Height) > float64(i.Width)*tallRatio {
		return LayoutTall
	}
	return LayoutWide
}

// Probe reads the header of the image at path.
// SVG files are recognized by extension and reported without dimensions.
func Probe(path string) (Info, error) {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return Info{Format: FormatSVG}, nil
	}

	f, err := os.Open(path) // #nosec G304 -- caller-provided image path
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
		}
		return Info{}, fmt.Errorf("imagemeta: %s: %w", filepath.Base(path), err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Fit scales w x h to fit inside maxW x maxH, keeping the aspect ratio.
// Unknown dimensions fill the box.
func Fit(w, h int, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := min(maxW/float64(w), maxH/float64(h))
	return float64(w) * scale, float64(h) * scale
}
