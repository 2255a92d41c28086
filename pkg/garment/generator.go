package garment

import (
	"math"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
)

// Config holds grid sizes and shape constants.
type Config struct {
	UpperRows, UpperCols int
	DressRows, DressCols int
	LegRows, LegCols     int

	// TorsoBulge and LegBulge are the peak horizontal offset, in pixels,
	// pushed into the middle of each grid row to suggest body roundness.
	// The dress scales TorsoBulge down to nothing at the neckline.
	TorsoBulge float64
	LegBulge   float64

	// DressTopWidth and DressBottomWidth are multiples of shoulder width.
	DressTopWidth    float64
	DressBottomWidth float64
	// HemDrop places the hem HemDrop × shoulder width below the shoulders
	// when the knees are not detected.
	HemDrop float64

	// LegWidth is the thigh width as a fraction of the hip span.
	LegWidth float64
	// KneeTaper scales the thigh width at the knee; AnkleTaper further
	// narrows the shin by up to that fraction at the ankle.
	KneeTaper  float64
	AnkleTaper float64

	// SleeveWidth is the upper-arm shading width as a fraction of shoulder width.
	SleeveWidth float64
}

// DefaultConfig returns the canonical grid layout.
func DefaultConfig() Config {
	return Config{
		UpperRows:        5,
		UpperCols:        3,
		DressRows:        6,
		DressCols:        4,
		LegRows:          5,
		LegCols:          3,
		TorsoBulge:       8,
		LegBulge:         6,
		DressTopWidth:    1.45,
		DressBottomWidth: 1.85,
		HemDrop:          2.5,
		LegWidth:         0.55,
		KneeTaper:        0.85,
		AnkleTaper:       0.2,
		SleeveWidth:      0.3,
	}
}

// Generator builds garment grids from body meshes. Grids are rebuilt for
// every frame; nothing is cached.
type Generator struct {
	config Config
}

// New creates a Generator with the default layout.
func New() *Generator {
	return &Generator{config: DefaultConfig()}
}

// NewWithConfig creates a Generator with a custom layout.
func NewWithConfig(config Config) *Generator {
	return &Generator{config: config}
}

// Config returns the generator layout.
func (g *Generator) Config() Config {
	return g.config
}

// Build generates the garment geometry for category c on mesh m.
func (g *Generator) Build(m *body.Mesh, c Category) Garment {
	out := Garment{Category: c}
	switch c {
	case UpperBody:
		out.Grids = []Grid{g.upperBody(m)}
		out.Segments = []Segment{
			{From: m.Arms.Left.Root, To: m.Arms.Left.Mid, Width: g.config.SleeveWidth * m.ShoulderWidthPx},
			{From: m.Arms.Right.Root, To: m.Arms.Right.Mid, Width: g.config.SleeveWidth * m.ShoulderWidthPx},
		}
	case Dress:
		out.Grids = []Grid{g.dress(m)}
	case LowerBody:
		base := g.legBase(m)
		dir := handedness(m)
		out.Grids = []Grid{
			g.leg(m.Legs.Left, base, dir, 0),
			g.leg(m.Legs.Right, base, dir, 0.5),
		}
		for _, leg := range []body.Chain{m.Legs.Left, m.Legs.Right} {
			out.Segments = append(out.Segments,
				Segment{From: leg.Root, To: leg.Mid, Width: base},
				Segment{From: leg.Mid, To: leg.End, Width: base * g.config.KneeTaper},
			)
		}
	}
	return out
}

func bulge(s, amount float64) float64 {
	return math.Sin(s*math.Pi) * amount
}

// handedness is +1 when the body's left side appears on the image left and -1
// for a mirrored view. Columns run from the body's left to its right.
func handedness(m *body.Mesh) float64 {
	if m.Shoulders.Right.X < m.Shoulders.Left.X {
		return -1
	}
	return 1
}

func param(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// torsoEdges returns the shoulder, chest, waist and hip landmarks, projecting
// waist and hips from the leg roots when the hips were not detected.
func torsoEdges(m *body.Mesh) [4]body.Triple {
	waist, hips := m.Waist, m.Hips
	if !hips.OK {
		l, r := m.Legs.Left.Root, m.Legs.Right.Root
		hips = body.Triple{Left: l, Right: r, Center: l.Mid(r), OK: true}
	}
	if !waist.OK {
		l := m.Shoulders.Left.Mid(hips.Left)
		r := m.Shoulders.Right.Mid(hips.Right)
		waist = body.Triple{Left: l, Right: r, Center: l.Mid(r), OK: true}
	}
	return [4]body.Triple{m.Shoulders, m.Chest, waist, hips}
}

func (g *Generator) upperBody(m *body.Mesh) Grid {
	rows, cols := g.config.UpperRows, g.config.UpperCols
	edges := torsoEdges(m)
	grid := newGrid(rows, cols)
	for r := 0; r < rows; r++ {
		t := param(r, rows)
		var from, to body.Triple
		var local float64
		switch {
		case t < 0.33:
			from, to, local = edges[0], edges[1], t/0.33
		case t < 0.66:
			from, to, local = edges[1], edges[2], (t-0.33)/0.33
		default:
			from, to, local = edges[2], edges[3], (t-0.66)/0.34
		}
		left := from.Left.Lerp(to.Left, local)
		right := from.Right.Lerp(to.Right, local)
		for c := 0; c < cols; c++ {
			s := param(c, cols)
			p := left.Lerp(right, s)
			p.X += bulge(s, g.config.TorsoBulge)
			grid.add(p, UV{U: s, V: t})
		}
	}
	return grid
}

func (g *Generator) dress(m *body.Mesh) Grid {
	rows, cols := g.config.DressRows, g.config.DressCols
	w := m.ShoulderWidthPx
	top := m.Shoulders.Center
	hem := Point{X: top.X, Y: top.Y + g.config.HemDrop*w}
	if m.KneesDetected {
		hem = m.Legs.Left.Mid.Mid(m.Legs.Right.Mid)
	}
	topWidth := g.config.DressTopWidth * w
	bottomWidth := g.config.DressBottomWidth * w
	dir := handedness(m)

	grid := newGrid(rows, cols)
	for r := 0; r < rows; r++ {
		t := param(r, rows)
		center := top.Lerp(hem, t)
		width := topWidth + (bottomWidth-topWidth)*t
		for c := 0; c < cols; c++ {
			s := param(c, cols)
			p := Point{
				X: center.X + dir*((s-0.5)*width+bulge(s, g.config.TorsoBulge)*t),
				Y: center.Y,
			}
			grid.add(p, UV{U: s, V: t})
		}
	}
	return grid
}

func (g *Generator) legBase(m *body.Mesh) float64 {
	span := m.Legs.Left.Root.Dist(m.Legs.Right.Root)
	if span < 1 {
		span = m.ShoulderWidthPx
	}
	return span * g.config.LegWidth
}

func (g *Generator) leg(chain body.Chain, base, dir, uOffset float64) Grid {
	rows, cols := g.config.LegRows, g.config.LegCols
	grid := newGrid(rows, cols)
	for r := 0; r < rows; r++ {
		t := param(r, rows)
		var center Point
		var width float64
		if t < 0.5 {
			local := t / 0.5
			center = chain.Root.Lerp(chain.Mid, local)
			width = base * (1 - (1-g.config.KneeTaper)*local)
		} else {
			local := (t - 0.5) / 0.5
			center = chain.Mid.Lerp(chain.End, local)
			width = base * g.config.KneeTaper * (1 - g.config.AnkleTaper*local)
		}
		for c := 0; c < cols; c++ {
			s := param(c, cols)
			p := Point{
				X: center.X + dir*((s-0.5)*width+bulge(s, g.config.LegBulge)),
				Y: center.Y,
			}
			grid.add(p, UV{U: uOffset + s*0.5, V: t})
		}
	}
	return grid
}
