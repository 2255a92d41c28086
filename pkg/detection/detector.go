// Package detection locates body joints on a still image with a
// vision-language model and turns the reply into a keypoint frame.
package detection

import (
	"context"
	"errors"
	"math"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/client"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/types"
)

// ErrNoPerson is returned when the model reports nobody in the image.
var ErrNoPerson = errors.New("detection: no person in image")

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt is the default prompt for pose estimation
const DefaultPrompt = `You are a human pose estimator.

Return JSON only:
{
  "persons": 1,
  "keypoints": [
    {"name": "nose", "x": 0.0, "y": 0.0, "confidence": 0.0}
  ],
  "description": "short neutral sentence (≤ 15 words)"
}

HARD RULES
- Report the most prominent person only.
- Use exactly these joint names: nose, left_eye, right_eye, left_ear, right_ear,
  left_shoulder, right_shoulder, left_elbow, right_elbow, left_wrist, right_wrist,
  left_hip, right_hip, left_knee, right_knee, left_ankle, right_ankle.
- "left" and "right" are the person's own sides, not the viewer's.
- Coordinates are normalized to [0,1] of the image width and height (NOT pixels).
- Omit joints you cannot see; never guess hidden joints.
- confidence is your certainty in [0,1].
- If nobody is visible, return {"persons": 0, "keypoints": [], "description": "no person"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Detector handles pose estimation using vision models
type Detector struct {
	client client.VisionClient
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client}
}

// DetectPose estimates the keypoints of the person in an image and returns
// them in a frameW×frameH reference frame.
func (d *Detector) DetectPose(ctx context.Context, model, imageB64 string, frameW, frameH int) (keypoints.Frame, error) {
	return d.DetectPoseWithPrompt(ctx, model, imageB64, DefaultPrompt, frameW, frameH)
}

// DetectPoseWithPrompt is DetectPose with a custom prompt
func (d *Detector) DetectPoseWithPrompt(ctx context.Context, model, imageB64, prompt string, frameW, frameH int) (keypoints.Frame, error) {
	result, err := d.client.EstimatePose(ctx, model, prompt, imageB64)
	if err != nil {
		return keypoints.Frame{}, err
	}
	if result.Persons == 0 || len(result.Keypoints) == 0 {
		return keypoints.Frame{}, ErrNoPerson
	}

	frame := toFrame(result.Keypoints, frameW, frameH)
	logging.For("detection").Debug("pose estimated",
		"model", model,
		"reported", len(result.Keypoints),
		"kept", frame.Len())
	return frame, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// toFrame maps model joints to canonical names in frame pixels. Unknown and
// repeated joints are dropped; coordinates above 1 are taken as already in
// frame pixels.
func toFrame(kps []types.PoseKeypoint, frameW, frameH int) keypoints.Frame {
	seen := make(map[keypoints.JointName]bool, len(kps))
	out := keypoints.Frame{Keypoints: make([]keypoints.Keypoint, 0, len(kps))}
	for _, kp := range kps {
		j := keypoints.ParseJointName(kp.Name)
		if j == keypoints.JointUnknown || seen[j] {
			continue
		}
		if math.IsNaN(kp.X) || math.IsNaN(kp.Y) {
			continue
		}
		seen[j] = true
		out.Keypoints = append(out.Keypoints, keypoints.Keypoint{
			Name:       j.String(),
			X:          toPixels(kp.X, frameW),
			Y:          toPixels(kp.Y, frameH),
			Confidence: clamp(kp.Confidence, 0, 1),
		})
	}
	return out
}

func toPixels(v float64, size int) float64 {
	if v > 1 {
		return clamp(v, 0, float64(size))
	}
	return clamp(v, 0, 1) * float64(size)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
