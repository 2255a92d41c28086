// Package body derives a body mesh from one frame of keypoints: the facing
// direction, interpolated chest/waist/hip landmarks, fully populated arm and
// leg chains and approximate measurements in centimetres.
//
// The mesh is a projective approximation used as a deformation basis for
// garment rendering. It is not a 3D reconstruction.
package body

import (
	"strings"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// Point is a position in frame pixels.
type Point = keypoints.Point

// Orientation is the direction the subject faces relative to the camera.
type Orientation int

const (
	Front Orientation = iota
	Back
	Side
)

func (o Orientation) String() string {
	switch o {
	case Front:
		return "front"
	case Back:
		return "back"
	case Side:
		return "side"
	default:
		return "unknown"
	}
}

// Triple is a left/right landmark pair and its midpoint. OK is false when the
// landmark could not be derived for the frame.
type Triple struct {
	Left   Point
	Right  Point
	Center Point
	OK     bool
}

func newTriple(l, r Point) Triple {
	return Triple{Left: l, Right: r, Center: l.Mid(r), OK: true}
}

// Width is the distance between the left and right points.
func (t Triple) Width() float64 {
	return t.Left.Dist(t.Right)
}

// Chain is a three-joint limb: shoulder/elbow/wrist or hip/knee/ankle.
type Chain struct {
	Root Point
	Mid  Point
	End  Point
}

// Limbs holds a left and a right chain.
type Limbs struct {
	Left  Chain
	Right Chain
}

// Measurements are heuristic circumference/width estimates in centimetres.
type Measurements struct {
	ShoulderWidthCm float64 `json:"shoulderWidthCm"`
	ChestCm         float64 `json:"chestCm"`
	WaistCm         float64 `json:"waistCm"`
	HipCm           float64 `json:"hipCm"`
}

// Degradation flags the fallbacks applied while building a mesh.
type Degradation uint8

const (
	// DegradedHeight means the ankles were not visible and the fallback body
	// height in pixels was used for scale.
	DegradedHeight Degradation = 1 << iota
	// DegradedArms means an elbow or wrist was synthesized.
	DegradedArms
	// DegradedLegs means a knee or ankle was synthesized.
	DegradedLegs
	// DegradedHips means a hip was synthesized below its shoulder.
	DegradedHips
)

// Has reports whether every flag in f is set.
func (d Degradation) Has(f Degradation) bool {
	return d&f == f
}

func (d Degradation) String() string {
	if d == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		flag Degradation
		name string
	}{
		{DegradedHeight, "height"},
		{DegradedArms, "arms"},
		{DegradedLegs, "legs"},
		{DegradedHips, "hips"},
	} {
		if d.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Mesh is the per-frame body structure. It is built fresh for every frame
// and never mutated afterwards.
type Mesh struct {
	Orientation Orientation

	Shoulders Triple
	Chest     Triple
	Waist     Triple
	Hips      Triple

	// Arms run shoulder, elbow, wrist; Legs run hip, knee, ankle.
	Arms Limbs
	Legs Limbs

	// Contour visits the detected shoulder, elbow, hip and knee joints
	// around the body, skipping any that are missing.
	Contour []Point

	ShoulderWidthPx float64
	PixelsPerCm     float64
	MeasurementsCm  Measurements

	// KneesDetected is set when both knees came from the frame rather than
	// synthesis.
	KneesDetected bool

	Degraded    Degradation
	Synthesized []keypoints.JointName
}
