// Package quality labels a keypoint frame by how usable it is for taking body
// measurements.
package quality

import (
	"math"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// PoseQuality is the usability label of a single frame.
type PoseQuality int

const (
	// NoPose means the frame carries no keypoints at all.
	NoPose PoseQuality = iota
	// Partial means more than one required joint is not visible.
	Partial
	// TooFar means the subject is too small in the frame.
	TooFar
	// TooClose means the subject is too large in the frame.
	TooClose
	// Good means the frame can be measured.
	Good
)

func (q PoseQuality) String() string {
	switch q {
	case NoPose:
		return "no_pose"
	case Partial:
		return "partial"
	case TooFar:
		return "too_far"
	case TooClose:
		return "too_close"
	case Good:
		return "good"
	default:
		return "invalid"
	}
}

// MarshalText encodes the label by name.
func (q PoseQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Hint is a short operator-facing instruction for the label.
func (q PoseQuality) Hint() string {
	switch q {
	case NoPose:
		return "step into the frame"
	case Partial:
		return "make sure your whole body is visible"
	case TooFar:
		return "move closer to the camera"
	case TooClose:
		return "step back from the camera"
	case Good:
		return "hold still"
	default:
		return ""
	}
}

// Required lists the joints that must be visible for a measurement.
var Required = []keypoints.JointName{
	keypoints.Nose,
	keypoints.LeftShoulder,
	keypoints.RightShoulder,
	keypoints.LeftHip,
	keypoints.RightHip,
	keypoints.LeftAnkle,
	keypoints.RightAnkle,
}

// Config holds the classifier thresholds. Widths are in reference-frame
// pixels (640 wide).
type Config struct {
	MinConfidence    float64
	MinShoulderWidth float64
	MaxShoulderWidth float64
	// MaxMissing is how many required joints may be invisible.
	MaxMissing int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.3,
		MinShoulderWidth: 60,
		MaxShoulderWidth: 220,
		MaxMissing:       1,
	}
}

// Classifier labels frames. It holds no state besides its configuration.
type Classifier struct {
	config Config
}

// New creates a Classifier with default thresholds.
func New() *Classifier {
	return &Classifier{config: DefaultConfig()}
}

// NewWithConfig creates a Classifier with custom thresholds.
func NewWithConfig(config Config) *Classifier {
	return &Classifier{config: config}
}

// Config returns the classifier thresholds.
func (c *Classifier) Config() Config {
	return c.config
}

// Classify labels a frame.
func (c *Classifier) Classify(frame keypoints.Frame) PoseQuality {
	s := frame.Resolve()
	return c.ClassifySkeleton(&s)
}

// ClassifySkeleton labels an already resolved frame.
func (c *Classifier) ClassifySkeleton(s *keypoints.Skeleton) PoseQuality {
	if s.Count() == 0 {
		return NoPose
	}

	visible := 0
	for _, j := range Required {
		if s.Visible(j, c.config.MinConfidence) {
			visible++
		}
	}
	if visible < len(Required)-c.config.MaxMissing {
		return Partial
	}

	if s.Visible(keypoints.LeftShoulder, c.config.MinConfidence) &&
		s.Visible(keypoints.RightShoulder, c.config.MinConfidence) {
		ls, _ := s.Get(keypoints.LeftShoulder)
		rs, _ := s.Get(keypoints.RightShoulder)
		width := math.Abs(rs.X - ls.X)
		if width < c.config.MinShoulderWidth {
			return TooFar
		}
		if width > c.config.MaxShoulderWidth {
			return TooClose
		}
	}

	return Good
}
