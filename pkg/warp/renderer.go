// Package warp draws a garment texture onto its generated grids with
// piecewise affine quad warps, then adds view-dependent shading.
package warp

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
)

var (
	// ErrNilSurface is returned when Render has nowhere to draw.
	ErrNilSurface = errors.New("warp: nil destination surface")
	// ErrNilTexture is returned for a missing or empty garment texture.
	ErrNilTexture = errors.New("warp: nil or empty texture")

	errDegenerate = errors.New("degenerate quad")
)

// Config controls the quad pass and the shading passes.
type Config struct {
	// Shading enables the cylindrical and side shading passes.
	Shading bool
	// SeamOverlap widens and heightens every quad by this many pixels so
	// neighbouring quads leave no hairline gaps.
	SeamOverlap float64
	// MinQuadArea is the smallest destination area, in square pixels, a quad
	// may have before it is skipped.
	MinQuadArea float64

	// CylinderBand is the fraction of a limb segment, from each end, covered
	// by the highlight and the shadow.
	CylinderBand   float64
	HighlightAlpha float64
	ShadowAlpha    float64

	// SideShadeWidth is the fraction of the garment width, from each edge,
	// over which the side shade fades out. SideShadeTone is the grey the edges
	// are multiplied by; SideShadeOpacity is the opacity of the multiply layer.
	SideShadeWidth   float64
	SideShadeTone    float64
	SideShadeOpacity float64
}

// DefaultConfig returns the standard renderer settings.
func DefaultConfig() Config {
	return Config{
		Shading:          true,
		SeamOverlap:      1.0,
		MinQuadArea:      0.5,
		CylinderBand:     0.15,
		HighlightAlpha:   0.25,
		ShadowAlpha:      0.3,
		SideShadeWidth:   0.35,
		SideShadeTone:    0.55,
		SideShadeOpacity: 0.25,
	}
}

// Result reports how many quads were drawn and how many were dropped as
// degenerate.
type Result struct {
	Drawn   int
	Skipped int
}

// Partial reports whether any quad was dropped.
func (r Result) Partial() bool {
	return r.Skipped > 0
}

// Renderer warps garment textures onto destination images.
type Renderer struct {
	config Config
}

// New creates a Renderer with the default settings.
func New() *Renderer {
	return &Renderer{config: DefaultConfig()}
}

// NewWithConfig creates a Renderer with custom settings.
func NewWithConfig(config Config) *Renderer {
	return &Renderer{config: config}
}

// Config returns the renderer settings.
func (r *Renderer) Config() Config {
	return r.config
}

// Render draws texture onto dst along every grid of g. Degenerate quads are
// skipped and counted; only a missing surface or texture, or a failing shading
// pass, is reported as an error.
func (r *Renderer) Render(dst draw.Image, texture image.Image, g garment.Garment) (Result, error) {
	var res Result
	if dst == nil {
		return res, ErrNilSurface
	}
	if texture == nil || texture.Bounds().Empty() {
		return res, ErrNilTexture
	}

	log := logging.For("warp")
	for gi, grid := range g.Grids {
		winding := gridWinding(grid)
		for row := 0; row < grid.Rows-1; row++ {
			for col := 0; col < grid.Cols-1; col++ {
				pts, uvs := grid.Quad(row, col)
				if err := r.drawQuad(dst, texture, pts, uvs, winding); err != nil {
					res.Skipped++
					log.Debug("quad skipped", "grid", gi, "row", row, "col", col, "error", err)
					continue
				}
				res.Drawn++
			}
		}
	}

	if r.config.Shading && res.Drawn > 0 {
		if err := r.shade(dst, g); err != nil {
			return res, fmt.Errorf("shading failed: %w", err)
		}
	}
	if res.Partial() {
		log.Debug("render partial", "drawn", res.Drawn, "skipped", res.Skipped)
	}
	return res, nil
}

// signedArea is positive for quads wound top-left, top-right, bottom-right,
// bottom-left in image coordinates.
func signedArea(pts []garment.Point) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// gridWinding is -1 for grids whose columns run right to left on screen.
func gridWinding(grid garment.Grid) float64 {
	if signedArea(grid.Outline()) < 0 {
		return -1
	}
	return 1
}

// sourceRect is the texture region spanned by the quad's UV corners.
func sourceRect(tb image.Rectangle, uvs [4]garment.UV) image.Rectangle {
	u0, v0 := math.Inf(1), math.Inf(1)
	u1, v1 := math.Inf(-1), math.Inf(-1)
	for _, uv := range uvs {
		u0, u1 = math.Min(u0, uv.U), math.Max(u1, uv.U)
		v0, v1 = math.Min(v0, uv.V), math.Max(v1, uv.V)
	}
	w, h := float64(tb.Dx()), float64(tb.Dy())
	sr := image.Rect(
		tb.Min.X+int(math.Floor(u0*w)),
		tb.Min.Y+int(math.Floor(v0*h)),
		tb.Min.X+int(math.Ceil(u1*w)),
		tb.Min.Y+int(math.Ceil(v1*h)),
	)
	return sr.Intersect(tb)
}

// quadTransform maps the source rectangle sr onto the quad: scale to the mean
// edge lengths, rotate by the top edge angle, then translate to the centroid.
func (r *Renderer) quadTransform(pts [4]garment.Point, sr image.Rectangle, winding float64) f64.Aff3 {
	tl, tr, br, bl := pts[0], pts[1], pts[2], pts[3]
	width := (tl.Dist(tr)+bl.Dist(br))/2 + r.config.SeamOverlap
	height := (tl.Dist(bl)+tr.Dist(br))/2 + r.config.SeamOverlap

	sx := width / float64(sr.Dx())
	sy := height / float64(sr.Dy())
	angle := math.Atan2(tr.Y-tl.Y, tr.X-tl.X)
	if winding < 0 {
		// Mirrored grid: flip the texture horizontally instead of turning it
		// upside down.
		sx = -sx
		angle = math.Atan2(tl.Y-tr.Y, tl.X-tr.X)
	}
	cos, sin := math.Cos(angle), math.Sin(angle)

	cx := (tl.X + tr.X + br.X + bl.X) / 4
	cy := (tl.Y + tr.Y + br.Y + bl.Y) / 4
	mx := float64(sr.Min.X+sr.Max.X) / 2
	my := float64(sr.Min.Y+sr.Max.Y) / 2

	a, b := cos*sx, -sin*sy
	d, e := sin*sx, cos*sy
	return f64.Aff3{
		a, b, cx - (a*mx + b*my),
		d, e, cy - (d*mx + e*my),
	}
}

func (r *Renderer) drawQuad(dst draw.Image, texture image.Image, pts [4]garment.Point, uvs [4]garment.UV, winding float64) error {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: non-finite corner", errDegenerate)
		}
	}
	area := signedArea(pts[:])
	if math.Abs(area) < r.config.MinQuadArea {
		return fmt.Errorf("%w: area %.3f", errDegenerate, area)
	}
	if area*winding < 0 {
		return fmt.Errorf("%w: folded cell", errDegenerate)
	}
	sr := sourceRect(texture.Bounds(), uvs)
	if sr.Empty() {
		return fmt.Errorf("%w: empty source region", errDegenerate)
	}

	xdraw.BiLinear.Transform(dst, r.quadTransform(pts, sr, winding), texture, sr, xdraw.Over, nil)
	return nil
}
