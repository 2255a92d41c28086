// Package texture loads and prepares flat garment images for warping.
package texture

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Loader reads garment images and trims them to the garment itself
type Loader struct {
	config Config
}

// Config holds configuration for the texture loader
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	// BackgroundTolerance is the per-channel distance (0-255) within which a
	// pixel counts as the background colour sampled from the image corners.
	BackgroundTolerance int
}

// DefaultConfig returns the stock loader settings
func DefaultConfig() Config {
	return Config{
		SupportedFormats:    []string{"jpg", "jpeg", "png", "webp"},
		MinImageSize:        16,
		BackgroundTolerance: 12,
	}
}

// New creates a new Loader with default configuration
func New() *Loader {
	return &Loader{config: DefaultConfig()}
}

// NewWithConfig creates a new Loader with custom configuration
func NewWithConfig(config Config) *Loader {
	return &Loader{config: config}
}

// Load loads a garment image from file
func (l *Loader) Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open garment image: %w", err)
	}
	defer file.Close()

	return l.LoadFromReader(file)
}

// LoadFromReader loads a garment image from an io.Reader
func (l *Loader) LoadFromReader(reader io.Reader) (image.Image, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode garment image: %w", err)
	}

	if !l.isFormatSupported(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return img, nil
}

// Info contains basic image metadata
type Info struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
	// Transparent is set when the image carries an alpha channel with at
	// least one non-opaque pixel.
	Transparent bool
}

// Info returns basic information about a garment image
func (l *Loader) Info(img image.Image) Info {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := Info{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	info.Transparent = hasTransparency(img)
	return info
}

func (l *Loader) isFormatSupported(format string) bool {
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// Validate checks if an image meets minimum requirements
func (l *Loader) Validate(img image.Image) error {
	if img == nil {
		return fmt.Errorf("garment image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() < l.config.MinImageSize || bounds.Dy() < l.config.MinImageSize {
		return fmt.Errorf("garment image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), l.config.MinImageSize)
	}
	return nil
}

func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// background samples the top-left corner, the usual backdrop of a product shot
func background(img image.Image) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.NRGBA)
}

func (l *Loader) isBackground(c, bg color.NRGBA) bool {
	if c.A == 0 {
		return true
	}
	tol := l.config.BackgroundTolerance
	return bg.A != 0 &&
		absDiff(c.R, bg.R) <= tol &&
		absDiff(c.G, bg.G) <= tol &&
		absDiff(c.B, bg.B) <= tol
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// ContentBounds returns the bounding box of the garment: every pixel that is
// neither transparent nor close to the corner background colour. An image with
// no such pixel yields an empty rectangle. The rectangle is in img coordinates.
func (l *Loader) ContentBounds(img image.Image) image.Rectangle {
	nrgba := imaging.Clone(img)
	bg := background(nrgba)
	b := nrgba.Bounds()

	content := image.Rectangle{}
	found := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if l.isBackground(nrgba.NRGBAAt(x, y), bg) {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if !found {
				content = px
				found = true
				continue
			}
			content = content.Union(px)
		}
	}
	if !found {
		return image.Rectangle{}
	}
	return content.Add(img.Bounds().Min)
}

// Trim crops the image to its content bounds so UV (0,0)-(1,1) spans the
// garment rather than the backdrop. The result always starts at (0,0).
func (l *Loader) Trim(img image.Image) (*image.NRGBA, error) {
	rect := l.ContentBounds(img)
	if rect.Empty() {
		return nil, fmt.Errorf("garment image has no content")
	}
	return imaging.Crop(img, rect), nil
}

// KeyOut makes background-coloured pixels transparent, so a product shot on a
// plain backdrop composites cleanly.
func (l *Loader) KeyOut(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	bg := background(out)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if l.isBackground(out.NRGBAAt(x, y), bg) {
				out.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	return out
}
