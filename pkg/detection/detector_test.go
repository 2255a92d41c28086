package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/types"
)

type fakeClient struct {
	result *types.PoseResult
	err    error
	prompt string
}

func (f *fakeClient) SimpleQuery(_ context.Context, _, prompt, _ string) (string, error) {
	f.prompt = prompt
	return "a person", f.err
}

func (f *fakeClient) EstimatePose(_ context.Context, _, prompt, _ string) (*types.PoseResult, error) {
	f.prompt = prompt
	return f.result, f.err
}

func TestDetectPoseScalesToFrame(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{result: &types.PoseResult{Persons: 1, Keypoints: []types.PoseKeypoint{
		{Name: "nose", X: 0.5, Y: 0.25, Confidence: 0.9},
		{Name: "leftShoulder", X: 0.25, Y: 0.5, Confidence: 1.4},
		{Name: "left_shoulder", X: 0.9, Y: 0.9, Confidence: 0.9},
		{Name: "tail", X: 0.1, Y: 0.1, Confidence: 0.9},
		{Name: "right_ankle", X: 600, Y: 470, Confidence: 0.6},
	}}}
	d := NewDetector(fc)

	frame, err := d.DetectPose(context.Background(), "llava", "aW1n", 640, 480)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, fc.prompt)
	assert.Equal(t, []keypoints.Keypoint{
		{Name: "nose", X: 320, Y: 120, Confidence: 0.9},
		{Name: "left_shoulder", X: 160, Y: 240, Confidence: 1},
		{Name: "right_ankle", X: 600, Y: 470, Confidence: 0.6},
	}, frame.Keypoints)
}

func TestDetectPoseNoPerson(t *testing.T) {
	t.Parallel()

	d := NewDetector(&fakeClient{result: &types.PoseResult{}})
	_, err := d.DetectPose(context.Background(), "llava", "aW1n", 640, 480)
	assert.ErrorIs(t, err, ErrNoPerson)
}

func TestDetectPoseClientError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	d := NewDetector(&fakeClient{err: boom})
	_, err := d.DetectPose(context.Background(), "llava", "aW1n", 640, 480)
	assert.ErrorIs(t, err, boom)
}

func TestTestVision(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	out, err := NewDetector(fc).TestVision(context.Background(), "llava", "aW1n")
	require.NoError(t, err)
	assert.Equal(t, "a person", out)
	assert.Equal(t, SimpleTestPrompt, fc.prompt)
}
