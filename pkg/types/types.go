// Package types holds the wire shapes exchanged with vision-model backends.
package types

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a model reply carries no JSON object.
var ErrNoJSON = errors.New("no JSON object in model response")

// PoseKeypoint is one joint as reported by a vision model. Coordinates are
// normalized to [0,1] of the image width and height.
type PoseKeypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// PoseResult is the decoded reply of a pose query.
type PoseResult struct {
	Persons     int            `json:"persons"`
	Keypoints   []PoseKeypoint `json:"keypoints"`
	Description string         `json:"description"`
}

// ProcessingOptions contains options for rendering outputs
type ProcessingOptions struct {
	OutputDir    string
	Extension    string
	Quality      int
	Lossless     bool
	DebugOverlay bool
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)\s//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// SanitizeModelJSON removes code fences, comments and trailing commas from a
// model reply and keeps only the outermost {...}.
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// ParsePoseResult decodes a model reply into a PoseResult. A reply without
// any JSON object is an error; a reply reporting no person decodes to an
// empty result.
func ParsePoseResult(raw string) (*PoseResult, error) {
	raw = SanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, ErrNoJSON
	}

	var result PoseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	if result.Persons == 0 && len(result.Keypoints) > 0 {
		result.Persons = 1
	}
	return &result, nil
}
