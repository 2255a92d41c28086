package warp

import (
	"image"
	"image/draw"
	"math"

	"github.com/gogpu/gg"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
)

// shade runs the shading passes on a gg context over dst and copies the
// result back.
func (r *Renderer) shade(dst draw.Image, g garment.Garment) error {
	b := dst.Bounds()
	ctx := gg.NewContextForImage(dst)
	defer ctx.Close()

	// The context covers dst.Bounds() with its own origin at (0,0).
	origin := garment.Point{X: float64(b.Min.X), Y: float64(b.Min.Y)}

	for _, seg := range g.Segments {
		if err := r.cylinder(ctx, seg, origin); err != nil {
			return err
		}
	}

	ctx.PushLayer(gg.BlendMultiply, r.config.SideShadeOpacity)
	for _, grid := range g.Grids {
		if err := r.sideShade(ctx, grid, origin); err != nil {
			ctx.PopLayer()
			return err
		}
	}
	ctx.PopLayer()

	if err := ctx.FlushGPU(); err != nil {
		return err
	}
	draw.Draw(dst, b, ctx.Image(), image.Point{}, draw.Src)
	return nil
}

func fillPolygon(ctx *gg.Context, pts []garment.Point, origin garment.Point) error {
	if len(pts) < 3 {
		return nil
	}
	ctx.MoveTo(pts[0].X-origin.X, pts[0].Y-origin.Y)
	for _, p := range pts[1:] {
		ctx.LineTo(p.X-origin.X, p.Y-origin.Y)
	}
	ctx.ClosePath()
	return ctx.Fill()
}

// cylinder lightens the first CylinderBand of a limb segment and darkens the
// last, each band fading towards the middle of the segment.
func (r *Renderer) cylinder(ctx *gg.Context, seg garment.Segment, origin garment.Point) error {
	length := seg.From.Dist(seg.To)
	band := r.config.CylinderBand
	if length < 1 || seg.Width <= 0 || band <= 0 {
		return nil
	}
	dir := seg.To.Sub(seg.From)
	dir = garment.Point{X: dir.X / length, Y: dir.Y / length}
	half := garment.Point{X: -dir.Y * seg.Width / 2, Y: dir.X * seg.Width / 2}

	strip := func(t0, t1 float64) []garment.Point {
		a := seg.From.Lerp(seg.To, t0)
		b := seg.From.Lerp(seg.To, t1)
		return []garment.Point{a.Add(half), b.Add(half), b.Sub(half), a.Sub(half)}
	}
	gradient := func(t0, t1 float64) *gg.LinearGradientBrush {
		a := seg.From.Lerp(seg.To, t0).Sub(origin)
		b := seg.From.Lerp(seg.To, t1).Sub(origin)
		return gg.NewLinearGradientBrush(a.X, a.Y, b.X, b.Y)
	}

	ctx.SetFillBrush(gradient(0, band).
		AddColorStop(0, gg.RGBA{R: 1, G: 1, B: 1, A: r.config.HighlightAlpha}).
		AddColorStop(1, gg.RGBA{R: 1, G: 1, B: 1, A: 0}))
	if err := fillPolygon(ctx, strip(0, band), origin); err != nil {
		return err
	}

	ctx.SetFillBrush(gradient(1-band, 1).
		AddColorStop(0, gg.RGBA{A: 0}).
		AddColorStop(1, gg.RGBA{A: r.config.ShadowAlpha}))
	return fillPolygon(ctx, strip(1-band, 1), origin)
}

// sideShade multiplies the grid outline by a grey that fades from both side
// edges towards the centre, leaving the middle untouched.
func (r *Renderer) sideShade(ctx *gg.Context, grid garment.Grid, origin garment.Point) error {
	outline := grid.Outline()
	if len(outline) < 3 {
		return nil
	}
	lo, hi := grid.Bounds()
	if hi.X-lo.X < 1 {
		return nil
	}
	w := math.Min(math.Max(r.config.SideShadeWidth, 0), 0.5)
	tone := gg.RGBA{R: r.config.SideShadeTone, G: r.config.SideShadeTone, B: r.config.SideShadeTone, A: 1}
	white := gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	y := (lo.Y+hi.Y)/2 - origin.Y

	ctx.SetFillBrush(gg.NewLinearGradientBrush(lo.X-origin.X, y, hi.X-origin.X, y).
		AddColorStop(0, tone).
		AddColorStop(w, white).
		AddColorStop(1-w, white).
		AddColorStop(1, tone))
	return fillPolygon(ctx, outline, origin)
}
