package keypoints

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoFrames is returned when a keypoint stream holds no frames.
var ErrNoFrames = errors.New("keypoints: no frames in input")

// UnmarshalJSON reads the detection confidence from "confidence", falling
// back to the "score" key pose models commonly emit.
func (k *Keypoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       string   `json:"name"`
		Part       string   `json:"part"`
		X          float64  `json:"x"`
		Y          float64  `json:"y"`
		Score      *float64 `json:"score"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.Name = raw.Name
	if k.Name == "" {
		k.Name = raw.Part
	}
	k.X, k.Y = raw.X, raw.Y
	switch {
	case raw.Confidence != nil:
		k.Confidence = *raw.Confidence
	case raw.Score != nil:
		k.Confidence = *raw.Score
	default:
		k.Confidence = 0
	}
	return nil
}

// UnmarshalJSON accepts an object with a "keypoints" field, a bare array of
// keypoint objects, or a flat COCO array of [x, y, score] triples.
func (f *Frame) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty frame")
	}
	if data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		raw, ok := obj["keypoints"]
		if !ok {
			return fmt.Errorf("frame object has no keypoints field")
		}
		data = bytes.TrimSpace(raw)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			f.Keypoints = nil
			return nil
		}
	}

	var kps []Keypoint
	if err := json.Unmarshal(data, &kps); err == nil {
		f.Keypoints = kps
		return nil
	}

	var flat []float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unrecognised frame layout: %w", err)
	}
	fr, err := FromCOCO(flat)
	if err != nil {
		return err
	}
	*f = fr
	return nil
}

// FromCOCO builds a frame from a flat array of [x, y, score] triples in COCO
// joint order.
func FromCOCO(values []float64) (Frame, error) {
	if len(values)%3 != 0 {
		return Frame{}, fmt.Errorf("coco keypoints: length %d is not a multiple of 3", len(values))
	}
	n := len(values) / 3
	if n > int(NumJoints) {
		return Frame{}, fmt.Errorf("coco keypoints: %d joints, expected at most %d", n, NumJoints)
	}
	kps := make([]Keypoint, 0, n)
	for i := 0; i < n; i++ {
		kps = append(kps, Keypoint{
			Name:       JointName(i).String(),
			X:          values[3*i],
			Y:          values[3*i+1],
			Confidence: values[3*i+2],
		})
	}
	return Frame{Keypoints: kps}, nil
}

// DecodeFrames reads every frame from r. The input is either a single JSON
// array of frames or JSON Lines with one frame per line.
func DecodeFrames(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoFrames
	}

	if data[0] == '[' {
		var frames []Frame
		if err := json.Unmarshal(data, &frames); err == nil {
			if len(frames) == 0 {
				return nil, ErrNoFrames
			}
			return frames, nil
		}
	}
	// A lone frame, possibly spread over several lines.
	var single Frame
	if err := json.Unmarshal(data, &single); err == nil {
		return []Frame{single}, nil
	}

	var frames []Frame
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(text, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}
