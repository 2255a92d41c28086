package garment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

func kp(name string, x, y float64) keypoints.Keypoint {
	return keypoints.Keypoint{Name: name, X: x, Y: y, Confidence: 0.9}
}

func referenceMesh(t *testing.T, drop ...string) body.Mesh {
	t.Helper()
	all := []keypoints.Keypoint{
		kp("nose", 250, 100),
		kp("left_shoulder", 200, 150),
		kp("right_shoulder", 300, 150),
		kp("left_elbow", 180, 220),
		kp("right_elbow", 320, 220),
		kp("left_wrist", 175, 280),
		kp("right_wrist", 325, 280),
		kp("left_hip", 210, 300),
		kp("right_hip", 290, 300),
		kp("left_knee", 212, 380),
		kp("right_knee", 288, 380),
		kp("left_ankle", 214, 460),
		kp("right_ankle", 286, 460),
	}
	skip := map[string]bool{}
	for _, d := range drop {
		skip[d] = true
	}
	var f keypoints.Frame
	for _, k := range all {
		if !skip[k.Name] {
			f.Keypoints = append(f.Keypoints, k)
		}
	}
	m, ok := body.New().Build(f, 170)
	require.True(t, ok)
	return m
}

func assertPoint(t *testing.T, want, got Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func TestGridSizes(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	g := New()
	tests := []struct {
		cat        Category
		grids      int
		rows, cols int
	}{
		{UpperBody, 1, 5, 3},
		{Dress, 1, 6, 4},
		{LowerBody, 2, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			out := g.Build(&m, tt.cat)
			require.Len(t, out.Grids, tt.grids)
			for _, grid := range out.Grids {
				assert.Equal(t, tt.rows, grid.Rows)
				assert.Equal(t, tt.cols, grid.Cols)
				assert.Len(t, grid.Points, tt.rows*tt.cols)
				assert.Len(t, grid.UV, tt.rows*tt.cols)
				for _, uv := range grid.UV {
					assert.GreaterOrEqual(t, uv.U, 0.0)
					assert.LessOrEqual(t, uv.U, 1.0)
					assert.GreaterOrEqual(t, uv.V, 0.0)
					assert.LessOrEqual(t, uv.V, 1.0)
				}
			}
		})
	}
}

func TestUpperBodyFollowsTorso(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	out := New().Build(&m, UpperBody)
	grid := out.Grids[0]

	p, uv := grid.At(0, 0)
	assertPoint(t, Point{X: 200, Y: 150}, p)
	assert.Equal(t, UV{U: 0, V: 0}, uv)

	// The middle column is pushed sideways by the full bulge.
	p, _ = grid.At(0, 1)
	assertPoint(t, Point{X: 258, Y: 150}, p)

	p, uv = grid.At(4, 2)
	assertPoint(t, Point{X: 290, Y: 300}, p)
	assert.Equal(t, UV{U: 1, V: 1}, uv)

	require.Len(t, out.Segments, 2)
	assert.Equal(t, Point{X: 200, Y: 150}, out.Segments[0].From)
	assert.Equal(t, Point{X: 180, Y: 220}, out.Segments[0].To)
	assert.InDelta(t, 30, out.Segments[0].Width, 1e-9)
}

func TestUpperBodyWithoutHips(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t, "left_hip", "right_hip")
	grid := New().Build(&m, UpperBody).Grids[0]
	require.Len(t, grid.Points, 15)
	// Bottom row falls back to the synthesized leg roots.
	p, _ := grid.At(4, 0)
	assertPoint(t, m.Legs.Left.Root, p)
}

func TestDressHem(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	grid := New().Build(&m, Dress).Grids[0]
	p, _ := grid.At(0, 0)
	assertPoint(t, Point{X: 177.5, Y: 150}, p)
	p, _ = grid.At(5, 3)
	assertPoint(t, Point{X: 342.5, Y: 380}, p)

	noKnees := referenceMesh(t, "left_knee")
	grid = New().Build(&noKnees, Dress).Grids[0]
	p, _ = grid.At(5, 0)
	assertPoint(t, Point{X: 157.5, Y: 400}, p)
}

func TestLowerBodyLegs(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	out := New().Build(&m, LowerBody)
	require.Len(t, out.Grids, 2)
	left, right := out.Grids[0], out.Grids[1]

	p, uv := left.At(0, 0)
	assertPoint(t, Point{X: 188, Y: 300}, p)
	assert.Equal(t, UV{U: 0, V: 0}, uv)
	_, uv = left.At(0, 2)
	assert.InDelta(t, 0.5, uv.U, 1e-12)

	_, uv = right.At(0, 0)
	assert.InDelta(t, 0.5, uv.U, 1e-12)
	_, uv = right.At(4, 2)
	assert.InDelta(t, 1.0, uv.U, 1e-12)

	// Shin narrows to 0.85 × 0.8 of the thigh at the ankle.
	a, _ := left.At(4, 0)
	b, _ := left.At(4, 2)
	assert.InDelta(t, 44*0.85*0.8, b.X-a.X, 1e-9)

	assert.Len(t, out.Segments, 4)
}

func TestBulgeIsHorizontal(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	g := New()

	t.Run("legs", func(t *testing.T) {
		left := g.Build(&m, LowerBody).Grids[0]
		for r := 0; r < left.Rows; r++ {
			a, _ := left.At(r, 0)
			mid, _ := left.At(r, 1)
			b, _ := left.At(r, 2)
			assert.InDelta(t, 6, mid.X-(a.X+b.X)/2, 1e-9, "row %d", r)
			assert.InDelta(t, a.Y, mid.Y, 1e-9, "row %d", r)
			assert.InDelta(t, a.Y, b.Y, 1e-9, "row %d", r)
		}
	})

	t.Run("dress", func(t *testing.T) {
		grid := g.Build(&m, Dress).Grids[0]
		top0, _ := grid.At(0, 0)
		top1, _ := grid.At(0, 1)
		top3, _ := grid.At(0, 3)
		// No bulge at the neckline.
		assert.InDelta(t, top0.X+(top3.X-top0.X)/3, top1.X, 1e-9)

		last := grid.Rows - 1
		hem0, _ := grid.At(last, 0)
		hem1, _ := grid.At(last, 1)
		hem3, _ := grid.At(last, 3)
		want := hem0.X + (hem3.X-hem0.X)/3 + 8*math.Sin(math.Pi/3)
		assert.InDelta(t, want, hem1.X, 1e-9)
		assert.InDelta(t, hem0.Y, hem1.Y, 1e-9)
	})

	t.Run("mirrored leg bulges the other way", func(t *testing.T) {
		f := keypoints.Frame{Keypoints: []keypoints.Keypoint{
			kp("left_shoulder", 300, 150), kp("right_shoulder", 200, 150),
			kp("left_hip", 290, 300), kp("right_hip", 210, 300),
		}}
		mm, ok := body.New().Build(f, 170)
		require.True(t, ok)
		left := g.Build(&mm, LowerBody).Grids[0]
		a, _ := left.At(0, 0)
		mid, _ := left.At(0, 1)
		b, _ := left.At(0, 2)
		assert.InDelta(t, -6, mid.X-(a.X+b.X)/2, 1e-9)
	})
}

func TestDressOnlyHasNoSegments(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	assert.Empty(t, New().Build(&m, Dress).Segments)
}

func TestMirroredDressRunsRightToLeft(t *testing.T) {
	t.Parallel()

	f := keypoints.Frame{Keypoints: []keypoints.Keypoint{
		kp("left_shoulder", 300, 150), kp("right_shoulder", 200, 150),
	}}
	m, ok := body.New().Build(f, 170)
	require.True(t, ok)
	grid := New().Build(&m, Dress).Grids[0]
	first, _ := grid.At(0, 0)
	last, _ := grid.At(0, 3)
	assert.Greater(t, first.X, last.X)
}

func TestQuadAndOutline(t *testing.T) {
	t.Parallel()

	m := referenceMesh(t)
	grid := New().Build(&m, Dress).Grids[0]

	pts, uvs := grid.Quad(1, 2)
	tl, _ := grid.At(1, 2)
	br, _ := grid.At(2, 3)
	assert.Equal(t, tl, pts[0])
	assert.Equal(t, br, pts[2])
	assert.Less(t, uvs[0].U, uvs[1].U)
	assert.Less(t, uvs[0].V, uvs[3].V)

	// 6×4 grid: 2·(6+4) − 4 boundary points.
	outline := grid.Outline()
	assert.Len(t, outline, 16)
	assert.Equal(t, grid.Points[0], outline[0])

	lo, hi := grid.Bounds()
	assert.InDelta(t, 157.5, lo.X, 1e-9)
	assert.InDelta(t, 342.5, hi.X, 1e-9)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Category{"upper": UpperBody, " Dress ": Dress, "pants": LowerBody} {
		got, err := ParseCategory(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCategory("hat")
	assert.Error(t, err)
}
