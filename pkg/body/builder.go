package body

import (
	"math"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// Config holds the geometry constants of the builder.
type Config struct {
	// MinConfidence is the confidence a joint needs to be used; weaker
	// joints count as missing.
	MinConfidence float64

	// SideRatio: nose offset from the shoulder midpoint, relative to the
	// shoulder span, above which the subject is seen from the side.
	SideRatio float64
	// BackRatio: shoulder span below BackRatio × hip span reads as a back view.
	BackRatio float64

	// FallbackHeightPx is the body height assumed when the ankles are not
	// visible.
	FallbackHeightPx float64
	// DefaultHeightCm is used when the caller passes a non-positive height.
	DefaultHeightCm float64

	// ChestDrop places the chest line ChestDrop × shoulder width below the
	// shoulders; ChestFlare widens it by ChestFlare × shoulder width on each side.
	ChestDrop  float64
	ChestFlare float64

	// ElbowOffset and WristOffset synthesize a missing joint from its parent.
	// X points away from the body center, Y down.
	ElbowOffset Point
	WristOffset Point
	KneeOffset  Point
	AnkleOffset Point
	// HipDrop places a synthesized hip HipDrop × shoulder width below its shoulder.
	HipDrop float64

	ChestRatio float64
	WaistRatio float64
	HipRatio   float64
}

// DefaultConfig returns the canonical constants.
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.3,
		SideRatio:        0.4,
		BackRatio:        0.8,
		FallbackHeightPx: 400,
		DefaultHeightCm:  170,
		ChestDrop:        0.4,
		ChestFlare:       0.15,
		ElbowOffset:      Point{X: 30, Y: 60},
		WristOffset:      Point{X: 30, Y: 60},
		KneeOffset:       Point{X: 0, Y: 90},
		AnkleOffset:      Point{X: 0, Y: 90},
		HipDrop:          1.5,
		ChestRatio:       1.25,
		WaistRatio:       0.9,
		HipRatio:         1.15,
	}
}

// Builder turns keypoint frames into body meshes.
type Builder struct {
	config Config
}

// New creates a Builder with the default constants.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewWithConfig creates a Builder with custom constants.
func NewWithConfig(config Config) *Builder {
	return &Builder{config: config}
}

// Config returns the builder constants.
func (b *Builder) Config() Config {
	return b.config
}

// Build derives a mesh from frame for a subject heightCm tall. The result is
// absent when either shoulder is missing.
func (b *Builder) Build(frame keypoints.Frame, heightCm float64) (Mesh, bool) {
	s := frame.Resolve()
	return b.BuildSkeleton(&s, heightCm)
}

// BuildSkeleton is Build for an already resolved frame.
func (b *Builder) BuildSkeleton(s *keypoints.Skeleton, heightCm float64) (Mesh, bool) {
	cfg := b.config
	point := func(j keypoints.JointName) (Point, bool) {
		if !s.Visible(j, cfg.MinConfidence) {
			return Point{}, false
		}
		return s.Point(j)
	}

	ls, okL := point(keypoints.LeftShoulder)
	rs, okR := point(keypoints.RightShoulder)
	if !okL || !okR {
		return Mesh{}, false
	}

	m := Mesh{
		Shoulders:       newTriple(ls, rs),
		ShoulderWidthPx: ls.Dist(rs),
	}
	w := m.ShoulderWidthPx

	// out is +1 when the right shoulder lies to the right of the left one in
	// the image, so left-side offsets point towards -x.
	out := 1.0
	if rs.X < ls.X {
		out = -1
	}

	nose, okNose := point(keypoints.Nose)
	lh, okLH := point(keypoints.LeftHip)
	rh, okRH := point(keypoints.RightHip)
	m.Orientation = b.orientation(ls, rs, nose, okNose, lh, rh, okLH && okRH)

	m.Chest = newTriple(
		Point{X: ls.X - out*cfg.ChestFlare*w, Y: ls.Y + cfg.ChestDrop*w},
		Point{X: rs.X + out*cfg.ChestFlare*w, Y: rs.Y + cfg.ChestDrop*w},
	)
	if okLH && okRH {
		m.Waist = newTriple(ls.Mid(lh), rs.Mid(rh))
		m.Hips = newTriple(lh, rh)
	}

	// Arms.
	m.Arms.Left = b.chain(&m, ls, -out, keypoints.LeftElbow, keypoints.LeftWrist, cfg.ElbowOffset, cfg.WristOffset, point, DegradedArms)
	m.Arms.Right = b.chain(&m, rs, out, keypoints.RightElbow, keypoints.RightWrist, cfg.ElbowOffset, cfg.WristOffset, point, DegradedArms)

	// Legs start from the detected hip, or one synthesized below the shoulder.
	hipL, hipR := lh, rh
	if !okLH {
		hipL = Point{X: ls.X, Y: ls.Y + cfg.HipDrop*w}
		m.synthesize(keypoints.LeftHip, DegradedHips)
	}
	if !okRH {
		hipR = Point{X: rs.X, Y: rs.Y + cfg.HipDrop*w}
		m.synthesize(keypoints.RightHip, DegradedHips)
	}
	_, okLK := point(keypoints.LeftKnee)
	_, okRK := point(keypoints.RightKnee)
	m.KneesDetected = okLK && okRK
	m.Legs.Left = b.chain(&m, hipL, -out, keypoints.LeftKnee, keypoints.LeftAnkle, cfg.KneeOffset, cfg.AnkleOffset, point, DegradedLegs)
	m.Legs.Right = b.chain(&m, hipR, out, keypoints.RightKnee, keypoints.RightAnkle, cfg.KneeOffset, cfg.AnkleOffset, point, DegradedLegs)

	// Contour uses detected joints only.
	m.Contour = make([]Point, 0, 8)
	for _, j := range contourOrder {
		if p, ok := point(j); ok {
			m.Contour = append(m.Contour, p)
		}
	}

	// Scale.
	if heightCm <= 0 {
		heightCm = cfg.DefaultHeightCm
	}
	heightPx := cfg.FallbackHeightPx
	la, okLA := point(keypoints.LeftAnkle)
	ra, okRA := point(keypoints.RightAnkle)
	if okLA && okRA && okNose && math.Abs((la.Y+ra.Y)/2-nose.Y) > 0 {
		heightPx = math.Abs((la.Y+ra.Y)/2 - nose.Y)
	} else {
		m.Degraded |= DegradedHeight
	}
	m.PixelsPerCm = heightPx / heightCm
	m.MeasurementsCm = Measurements{
		ShoulderWidthCm: w / m.PixelsPerCm,
		ChestCm:         cfg.ChestRatio * w / m.PixelsPerCm,
		WaistCm:         cfg.WaistRatio * w / m.PixelsPerCm,
		HipCm:           cfg.HipRatio * w / m.PixelsPerCm,
	}

	if m.Degraded != 0 {
		logging.For("body").Debug("mesh built with fallbacks",
			"degraded", m.Degraded.String(),
			"synthesized", len(m.Synthesized),
			"orientation", m.Orientation.String())
	}
	return m, true
}

var contourOrder = [...]keypoints.JointName{
	keypoints.LeftShoulder,
	keypoints.LeftElbow,
	keypoints.LeftHip,
	keypoints.LeftKnee,
	keypoints.RightKnee,
	keypoints.RightHip,
	keypoints.RightElbow,
	keypoints.RightShoulder,
}

func (b *Builder) orientation(ls, rs, nose Point, okNose bool, lh, rh Point, okHips bool) Orientation {
	span := math.Abs(rs.X - ls.X)
	if okNose {
		offset := math.Abs(nose.X - (ls.X+rs.X)/2)
		if span == 0 || offset/span > b.config.SideRatio {
			return Side
		}
	}
	if okHips && span < b.config.BackRatio*math.Abs(rh.X-lh.X) {
		return Back
	}
	return Front
}

// chain fills a limb from root, using detected joints where available and
// extending from the previous joint by the configured offset otherwise.
func (b *Builder) chain(m *Mesh, root Point, dir float64, midJ, endJ keypoints.JointName,
	midOff, endOff Point, point func(keypoints.JointName) (Point, bool), flag Degradation) Chain {
	c := Chain{Root: root}
	var ok bool
	if c.Mid, ok = point(midJ); !ok {
		c.Mid = Point{X: root.X + dir*midOff.X, Y: root.Y + midOff.Y}
		m.synthesize(midJ, flag)
	}
	if c.End, ok = point(endJ); !ok {
		c.End = Point{X: c.Mid.X + dir*endOff.X, Y: c.Mid.Y + endOff.Y}
		m.synthesize(endJ, flag)
	}
	return c
}

func (m *Mesh) synthesize(j keypoints.JointName, flag Degradation) {
	m.Degraded |= flag
	m.Synthesized = append(m.Synthesized, j)
}
