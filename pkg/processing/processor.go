// Package processing handles image I/O for the mirror: loading camera frames
// and garment images, preparing model input, saving renders and drawing debug
// overlays.
package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	_ "golang.org/x/image/webp"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// Processor handles image processing operations
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	// Validate URL
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	// Create request with User-Agent header
	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ai-mirror/1.0")

	// Make request
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	// Check content type
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	// Read response body
	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	// Decode image from bytes
	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	low := strings.ToLower(path)
	if strings.HasSuffix(low, ".webp") || strings.Contains(low, ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	} else {
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	// Check if it's a URL
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	// Otherwise treat as file path
	return p.LoadImage(source)
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	// Try standard image.Decode first
	reader := bytes.NewReader(data)
	if img, _, err := image.Decode(reader); err == nil {
		return img, nil
	}

	// Try WebP decode
	reader = bytes.NewReader(data)
	if img, err := webp.Decode(reader); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FitToFrame scales and center-crops an image to exactly width×height, the
// reference frame keypoints are expressed in
func (p *Processor) FitToFrame(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img), nil
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
}

// NewCanvas returns a width×height surface filled with bg, for rendering
// without a camera frame
func (p *Processor) NewCanvas(width, height int, bg color.Color) *image.NRGBA {
	return imaging.New(width, height, bg)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// CreateDebugOverlay draws the detected joints, the body mesh outline and the
// garment grids over img. Coordinates are frame pixels, so img should already
// be fit to the reference frame. Strokes are clipped to the image, so points
// far outside the frame cost nothing extra.
func (p *Processor) CreateDebugOverlay(img image.Image, sk *keypoints.Skeleton, mesh *body.Mesh, grids []garment.Grid) image.Image {
	base := imaging.Clone(img)
	ctx := gg.NewContextForImage(base)
	defer ctx.Close()

	// Colors
	green := color.NRGBA{0, 255, 0, 255}  // detected joints
	gold := color.NRGBA{255, 204, 0, 255} // body mesh
	red := color.NRGBA{255, 0, 0, 255}    // synthesized joints
	blue := color.NRGBA{0, 170, 255, 255} // garment grid

	b := base.Bounds()
	cross := math.Max(4, 0.01*float64(min(b.Dx(), b.Dy()))) // ~1% of min side
	ctx.SetLineWidth(2)

	ctx.SetColor(blue)
	for _, grid := range grids {
		for r := 0; r < grid.Rows; r++ {
			for c := 0; c < grid.Cols; c++ {
				pt, _ := grid.At(r, c)
				if c+1 < grid.Cols {
					next, _ := grid.At(r, c+1)
					addLine(ctx, pt, next)
				}
				if r+1 < grid.Rows {
					next, _ := grid.At(r+1, c)
					addLine(ctx, pt, next)
				}
			}
		}
	}
	_ = ctx.Stroke()

	if mesh != nil {
		ctx.SetColor(gold)
		addPolyline(ctx,
			mesh.Arms.Left.End, mesh.Arms.Left.Mid, mesh.Arms.Left.Root,
			mesh.Shoulders.Left, mesh.Shoulders.Right,
			mesh.Arms.Right.Root, mesh.Arms.Right.Mid, mesh.Arms.Right.End)
		addPolyline(ctx, mesh.Legs.Left.Root, mesh.Legs.Left.Mid, mesh.Legs.Left.End)
		addPolyline(ctx, mesh.Legs.Right.Root, mesh.Legs.Right.Mid, mesh.Legs.Right.End)
		if mesh.Hips.OK {
			addLine(ctx, mesh.Hips.Left, mesh.Hips.Right)
		}
		_ = ctx.Stroke()

		ctx.SetColor(red)
		for _, j := range mesh.Synthesized {
			if pt, ok := synthesizedPoint(mesh, j); ok {
				addCross(ctx, pt, cross)
			}
		}
		_ = ctx.Stroke()
	}

	if sk != nil {
		ctx.SetColor(green)
		for j := keypoints.JointName(0); j < keypoints.NumJoints; j++ {
			if pt, ok := sk.Point(j); ok {
				addCross(ctx, pt, cross)
			}
		}
		_ = ctx.Stroke()
	}

	_ = ctx.FlushGPU()
	return imaging.Clone(ctx.Image())
}

func synthesizedPoint(m *body.Mesh, j keypoints.JointName) (keypoints.Point, bool) {
	switch j {
	case keypoints.LeftElbow:
		return m.Arms.Left.Mid, true
	case keypoints.LeftWrist:
		return m.Arms.Left.End, true
	case keypoints.RightElbow:
		return m.Arms.Right.Mid, true
	case keypoints.RightWrist:
		return m.Arms.Right.End, true
	case keypoints.LeftHip:
		return m.Legs.Left.Root, true
	case keypoints.RightHip:
		return m.Legs.Right.Root, true
	case keypoints.LeftKnee:
		return m.Legs.Left.Mid, true
	case keypoints.LeftAnkle:
		return m.Legs.Left.End, true
	case keypoints.RightKnee:
		return m.Legs.Right.Mid, true
	case keypoints.RightAnkle:
		return m.Legs.Right.End, true
	}
	return keypoints.Point{}, false
}

func finite(pt keypoints.Point) bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}

func addLine(ctx *gg.Context, from, to keypoints.Point) {
	if !finite(from) || !finite(to) {
		return
	}
	ctx.DrawLine(from.X, from.Y, to.X, to.Y)
}

func addPolyline(ctx *gg.Context, pts ...keypoints.Point) {
	for i := 1; i < len(pts); i++ {
		addLine(ctx, pts[i-1], pts[i])
	}
}

func addCross(ctx *gg.Context, pt keypoints.Point, size float64) {
	addLine(ctx, keypoints.Pt(pt.X-size, pt.Y), keypoints.Pt(pt.X+size, pt.Y))
	addLine(ctx, keypoints.Pt(pt.X, pt.Y-size), keypoints.Pt(pt.X, pt.Y+size))
}
