package warp

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func solidTexture(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// splitTexture is red on the left half and blue on the right half.
func splitTexture(w, h int) *image.RGBA {
	img := solidTexture(w, h, blue)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	return img
}

func rectGrid(tl, tr, bl, br garment.Point) garment.Grid {
	return garment.Grid{
		Rows:   2,
		Cols:   2,
		Points: []garment.Point{tl, tr, bl, br},
		UV:     []garment.UV{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}},
	}
}

func flat() *Renderer {
	cfg := DefaultConfig()
	cfg.Shading = false
	return NewWithConfig(cfg)
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	g := garment.Garment{Grids: []garment.Grid{rectGrid(
		garment.Point{X: 10, Y: 10}, garment.Point{X: 50, Y: 10},
		garment.Point{X: 10, Y: 40}, garment.Point{X: 50, Y: 40},
	)}}
	tex := solidTexture(20, 20, red)

	_, err := New().Render(nil, tex, g)
	assert.ErrorIs(t, err, ErrNilSurface)

	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	_, err = New().Render(dst, nil, g)
	assert.ErrorIs(t, err, ErrNilTexture)

	_, err = New().Render(dst, image.NewRGBA(image.Rectangle{}), g)
	assert.ErrorIs(t, err, ErrNilTexture)
}

func TestRenderAxisAlignedQuad(t *testing.T) {
	t.Parallel()

	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	g := garment.Garment{Grids: []garment.Grid{rectGrid(
		garment.Point{X: 10, Y: 10}, garment.Point{X: 50, Y: 10},
		garment.Point{X: 10, Y: 40}, garment.Point{X: 50, Y: 40},
	)}}

	res, err := flat().Render(dst, solidTexture(20, 20, red), g)
	require.NoError(t, err)
	assert.Equal(t, Result{Drawn: 1}, res)
	assert.False(t, res.Partial())

	assert.Equal(t, red, dst.RGBAAt(30, 25))
	assert.Equal(t, red, dst.RGBAAt(12, 12))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(55, 45))
}

func TestRenderOffsetSurface(t *testing.T) {
	t.Parallel()

	dst := image.NewRGBA(image.Rect(100, 100, 160, 160))
	g := garment.Garment{Grids: []garment.Grid{rectGrid(
		garment.Point{X: 110, Y: 110}, garment.Point{X: 150, Y: 110},
		garment.Point{X: 110, Y: 140}, garment.Point{X: 150, Y: 140},
	)}}

	_, err := flat().Render(dst, solidTexture(20, 20, red), g)
	require.NoError(t, err)
	assert.Equal(t, red, dst.RGBAAt(130, 125))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(105, 105))
}

func TestRenderMirroredGridFlipsTexture(t *testing.T) {
	t.Parallel()

	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	// Columns run right to left, as in a selfie view.
	g := garment.Garment{Grids: []garment.Grid{rectGrid(
		garment.Point{X: 50, Y: 10}, garment.Point{X: 10, Y: 10},
		garment.Point{X: 50, Y: 40}, garment.Point{X: 10, Y: 40},
	)}}

	res, err := flat().Render(dst, splitTexture(20, 20), g)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Drawn)
	// u=0 (red) sits on the right of the screen, and the texture stays upright.
	assert.Equal(t, red, dst.RGBAAt(45, 25))
	assert.Equal(t, blue, dst.RGBAAt(15, 25))
}

func TestDegenerateQuadsAreSkipped(t *testing.T) {
	t.Parallel()

	tex := solidTexture(20, 20, red)

	t.Run("collapsed", func(t *testing.T) {
		p := garment.Point{X: 20, Y: 20}
		g := garment.Garment{Grids: []garment.Grid{rectGrid(p, p, p, p)}}
		res, err := flat().Render(image.NewRGBA(image.Rect(0, 0, 40, 40)), tex, g)
		require.NoError(t, err)
		assert.Equal(t, Result{Skipped: 1}, res)
		assert.True(t, res.Partial())
	})

	t.Run("folded", func(t *testing.T) {
		// The second cell folds back over the first.
		grid := garment.Grid{
			Rows: 2,
			Cols: 3,
			Points: []garment.Point{
				{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 30, Y: 0},
				{X: 0, Y: 20}, {X: 40, Y: 20}, {X: 30, Y: 20},
			},
			UV: []garment.UV{
				{U: 0, V: 0}, {U: 0.5, V: 0}, {U: 1, V: 0},
				{U: 0, V: 1}, {U: 0.5, V: 1}, {U: 1, V: 1},
			},
		}
		g := garment.Garment{Grids: []garment.Grid{grid}}
		res, err := flat().Render(image.NewRGBA(image.Rect(0, 0, 60, 40)), tex, g)
		require.NoError(t, err)
		assert.Equal(t, Result{Drawn: 1, Skipped: 1}, res)
	})

	t.Run("non-finite", func(t *testing.T) {
		nan := garment.Point{X: math.NaN(), Y: 5}
		g := garment.Garment{Grids: []garment.Grid{rectGrid(
			nan, garment.Point{X: 30, Y: 0},
			garment.Point{X: 0, Y: 30}, garment.Point{X: 30, Y: 30},
		)}}
		res, err := flat().Render(image.NewRGBA(image.Rect(0, 0, 40, 40)), tex, g)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Skipped)
	})
}

func TestQuadTransformHitsRotatedCorners(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SeamOverlap = 0
	r := NewWithConfig(cfg)

	// A square turned by 45 degrees.
	pts := [4]garment.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 20}, {X: -10, Y: 10}}
	sr := image.Rect(0, 0, 20, 20)
	m := r.quadTransform(pts, sr, 1)

	apply := func(x, y float64) garment.Point {
		return garment.Point{X: m[0]*x + m[1]*y + m[2], Y: m[3]*x + m[4]*y + m[5]}
	}
	corners := [4]garment.Point{apply(0, 0), apply(20, 0), apply(20, 20), apply(0, 20)}
	for i, want := range pts {
		assert.InDelta(t, want.X, corners[i].X, 1e-9, "corner %d x", i)
		assert.InDelta(t, want.Y, corners[i].Y, 1e-9, "corner %d y", i)
	}
}

func TestSourceRect(t *testing.T) {
	t.Parallel()

	tb := image.Rect(0, 0, 100, 50)
	uvs := [4]garment.UV{{U: 0.5, V: 0}, {U: 1, V: 0}, {U: 1, V: 0.5}, {U: 0.5, V: 0.5}}
	assert.Equal(t, image.Rect(50, 0, 100, 25), sourceRect(tb, uvs))

	flatUV := [4]garment.UV{{U: 0.2, V: 0.2}, {U: 0.2, V: 0.2}, {U: 0.2, V: 0.2}, {U: 0.2, V: 0.2}}
	assert.True(t, sourceRect(tb, flatUV).Empty())
}

func TestShadingPasses(t *testing.T) {
	t.Parallel()

	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	g := garment.Garment{
		Grids: []garment.Grid{rectGrid(
			garment.Point{X: 10, Y: 10}, garment.Point{X: 50, Y: 10},
			garment.Point{X: 10, Y: 40}, garment.Point{X: 50, Y: 40},
		)},
		Segments: []garment.Segment{{
			From:  garment.Point{X: 30, Y: 12},
			To:    garment.Point{X: 30, Y: 38},
			Width: 10,
		}},
	}

	res, err := New().Render(dst, solidTexture(20, 20, red), g)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Drawn)

	// The top of the segment is lightened towards white.
	lit := dst.RGBAAt(30, 13)
	assert.Greater(t, lit.G, uint8(0))
	assert.Greater(t, lit.R, uint8(200))
	// Pixels outside the garment are left alone.
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(2, 2))
}

func TestShadingDarkensEdgesAndSegmentEnd(t *testing.T) {
	t.Parallel()

	dst := image.NewRGBA(image.Rect(0, 0, 120, 70))
	g := garment.Garment{
		Grids: []garment.Grid{rectGrid(
			garment.Point{X: 10, Y: 5}, garment.Point{X: 110, Y: 5},
			garment.Point{X: 10, Y: 65}, garment.Point{X: 110, Y: 65},
		)},
		Segments: []garment.Segment{{
			From:  garment.Point{X: 60, Y: 10},
			To:    garment.Point{X: 60, Y: 60},
			Width: 10,
		}},
	}

	_, err := New().Render(dst, solidTexture(20, 20, red), g)
	require.NoError(t, err)

	t.Run("side shade", func(t *testing.T) {
		left, center, right := dst.RGBAAt(12, 35), dst.RGBAAt(60, 35), dst.RGBAAt(108, 35)
		assert.Greater(t, center.R, uint8(245))
		assert.Less(t, int(left.R), int(center.R)-10)
		assert.Less(t, int(right.R), int(center.R)-10)
		assert.InDelta(t, float64(left.R), float64(right.R), 4)
	})

	t.Run("cylinder", func(t *testing.T) {
		top, middle, bottom := dst.RGBAAt(60, 11), dst.RGBAAt(60, 35), dst.RGBAAt(60, 58)
		// Highlight mixes in white, the shadow only darkens.
		assert.Greater(t, top.G, uint8(20))
		assert.Less(t, middle.G, uint8(5))
		assert.Less(t, int(bottom.R), int(middle.R)-30)
		assert.Less(t, bottom.G, uint8(5))
	})

	cfg := DefaultConfig()
	cfg.SideShadeOpacity = 0
	cfg.ShadowAlpha = 0
	plain := image.NewRGBA(dst.Bounds())
	_, err = NewWithConfig(cfg).Render(plain, solidTexture(20, 20, red), g)
	require.NoError(t, err)
	assert.Greater(t, plain.RGBAAt(12, 35).R, uint8(245))
	assert.Greater(t, plain.RGBAAt(60, 58).R, uint8(245))
}

func TestSignedAreaWinding(t *testing.T) {
	t.Parallel()

	cw := []garment.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.InDelta(t, 100, signedArea(cw), 1e-12)
	ccw := []garment.Point{{X: 10, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}
	assert.InDelta(t, -100, signedArea(ccw), 1e-12)
}
