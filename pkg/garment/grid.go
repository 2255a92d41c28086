// Package garment generates the deforming control-point grids that map a flat
// garment image onto a body mesh.
package garment

import (
	"fmt"
	"math"
	"strings"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// Point is a position in frame pixels.
type Point = keypoints.Point

// UV is a texture coordinate in [0,1]².
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// Category selects the grid layout.
type Category int

const (
	// UpperBody wraps the torso from the shoulders to the hips.
	UpperBody Category = iota
	// Dress flares from the shoulders down to the knees.
	Dress
	// LowerBody covers each leg with its own grid.
	LowerBody
)

func (c Category) String() string {
	switch c {
	case UpperBody:
		return "upper"
	case Dress:
		return "dress"
	case LowerBody:
		return "lower"
	default:
		return "unknown"
	}
}

// ParseCategory parses "upper", "dress" or "lower" (and a few aliases).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "upperbody", "upper_body", "top", "shirt":
		return UpperBody, nil
	case "dress":
		return Dress, nil
	case "lower", "lowerbody", "lower_body", "bottom", "pants", "legwear":
		return LowerBody, nil
	}
	return 0, fmt.Errorf("unknown garment category %q (use upper, dress or lower)", s)
}

// Grid is a Rows×Cols control grid stored row-major. Points[i] pairs with
// UV[i]; neighbouring entries in the row-major order form the warp quads.
type Grid struct {
	Rows   int
	Cols   int
	Points []Point
	UV     []UV
}

func newGrid(rows, cols int) Grid {
	return Grid{
		Rows:   rows,
		Cols:   cols,
		Points: make([]Point, 0, rows*cols),
		UV:     make([]UV, 0, rows*cols),
	}
}

func (g *Grid) add(p Point, uv UV) {
	g.Points = append(g.Points, p)
	g.UV = append(g.UV, uv)
}

// Len is the number of control points.
func (g Grid) Len() int {
	return len(g.Points)
}

// At returns the control point and texture coordinate at row r, column c.
func (g Grid) At(r, c int) (Point, UV) {
	i := r*g.Cols + c
	return g.Points[i], g.UV[i]
}

// Quad returns the cell whose top-left corner is (r, c), corners ordered
// top-left, top-right, bottom-right, bottom-left.
func (g Grid) Quad(r, c int) ([4]Point, [4]UV) {
	var pts [4]Point
	var uvs [4]UV
	pts[0], uvs[0] = g.At(r, c)
	pts[1], uvs[1] = g.At(r, c+1)
	pts[2], uvs[2] = g.At(r+1, c+1)
	pts[3], uvs[3] = g.At(r+1, c)
	return pts, uvs
}

// Outline returns the boundary of the grid clockwise from the top-left corner.
func (g Grid) Outline() []Point {
	if g.Rows == 0 || g.Cols == 0 {
		return nil
	}
	out := make([]Point, 0, 2*(g.Rows+g.Cols))
	for c := 0; c < g.Cols; c++ {
		p, _ := g.At(0, c)
		out = append(out, p)
	}
	for r := 1; r < g.Rows; r++ {
		p, _ := g.At(r, g.Cols-1)
		out = append(out, p)
	}
	for c := g.Cols - 2; c >= 0; c-- {
		p, _ := g.At(g.Rows-1, c)
		out = append(out, p)
	}
	for r := g.Rows - 2; r > 0; r-- {
		p, _ := g.At(r, 0)
		out = append(out, p)
	}
	return out
}

// Bounds returns the axis-aligned extent of the control points.
func (g Grid) Bounds() (lo, hi Point) {
	lo = Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range g.Points {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// Segment is a limb section the renderer shades as a cylinder.
type Segment struct {
	From  Point
	To    Point
	Width float64
}

// Garment is the generated geometry for one frame.
type Garment struct {
	Category Category
	Grids    []Grid
	Segments []Segment
}
