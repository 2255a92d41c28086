// Package measure extracts approximate body measurements in pixels from a
// keypoint frame and formats them as centimetre records.
//
// The ratios used here are heuristics. They give a stable, repeatable
// estimate for a front-facing subject, not anthropometric ground truth.
package measure

import (
	"strconv"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/scale"
)

// DefaultChestRatio approximates chest width from shoulder width.
const DefaultChestRatio = 1.3

// PixelSet is one frame's measurements in pixels. It is only ever built
// complete.
type PixelSet struct {
	ShoulderWidth float64 `json:"shoulderWidthPx"`
	TorsoHeight   float64 `json:"torsoHeightPx"`
	FullHeight    float64 `json:"fullHeightPx"`
	Chest         float64 `json:"chestPx"`
}

// Fields returns the measurements in a fixed order.
func (p PixelSet) Fields() [4]float64 {
	return [4]float64{p.ShoulderWidth, p.TorsoHeight, p.FullHeight, p.Chest}
}

// FieldNames labels the values returned by Fields.
var FieldNames = [4]string{"shoulder", "torso", "full_height", "chest"}

var requiredJoints = [...]keypoints.JointName{
	keypoints.LeftShoulder,
	keypoints.RightShoulder,
	keypoints.LeftHip,
	keypoints.RightHip,
	keypoints.Nose,
}

// Extract computes a PixelSet from a frame using the default chest ratio.
func Extract(frame keypoints.Frame) (PixelSet, bool) {
	s := frame.Resolve()
	return ExtractSkeleton(&s, DefaultChestRatio)
}

// ExtractSkeleton computes a PixelSet from a resolved frame. Joint
// confidence is ignored; the result is absent when any of the shoulders,
// hips or nose is missing.
func ExtractSkeleton(s *keypoints.Skeleton, chestRatio float64) (PixelSet, bool) {
	for _, j := range requiredJoints {
		if !s.Has(j) {
			return PixelSet{}, false
		}
	}
	ls, _ := s.Point(keypoints.LeftShoulder)
	rs, _ := s.Point(keypoints.RightShoulder)
	lh, _ := s.Point(keypoints.LeftHip)
	rh, _ := s.Point(keypoints.RightHip)
	nose, _ := s.Point(keypoints.Nose)

	shoulder := ls.Dist(rs)
	return PixelSet{
		ShoulderWidth: shoulder,
		TorsoHeight:   (lh.Y+rh.Y)/2 - (ls.Y+rs.Y)/2,
		FullHeight:    s.MaxY() - nose.Y,
		Chest:         shoulder * chestRatio,
	}, true
}

// Record is an emitted measurement in centimetres, each rounded to one
// fractional digit. It serializes as a flat JSON object.
type Record struct {
	ShoulderCm   string `json:"shoulderCm" yaml:"shoulderCm"`
	TorsoCm      string `json:"torsoCm" yaml:"torsoCm"`
	FullHeightCm string `json:"fullHeightCm" yaml:"fullHeightCm"`
	ChestCm      string `json:"chestCm" yaml:"chestCm"`
}

// NewRecord converts a PixelSet to centimetres with r.
func NewRecord(p PixelSet, r scale.Resolver) Record {
	return Record{
		ShoulderCm:   formatCm(r.Convert(p.ShoulderWidth)),
		TorsoCm:      formatCm(r.Convert(p.TorsoHeight)),
		FullHeightCm: formatCm(r.Convert(p.FullHeight)),
		ChestCm:      formatCm(r.Convert(p.Chest)),
	}
}

func formatCm(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
