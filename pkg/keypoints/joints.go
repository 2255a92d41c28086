// Package keypoints defines the per-frame input contract of the pipeline: named
// body joints with a 2D position and a detection confidence.
package keypoints

import "strings"

// JointName identifies one of the 17 COCO body keypoints.
type JointName uint8

// Joint names in COCO index order.
const (
	Nose JointName = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumJoints is the number of known joints.
	NumJoints

	// JointUnknown marks a name that is not in the table.
	JointUnknown JointName = 255
)

var jointNames = [NumJoints]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

var jointByName = func() map[string]JointName {
	m := make(map[string]JointName, NumJoints)
	for i, n := range jointNames {
		m[n] = JointName(i)
	}
	return m
}()

// String returns the snake_case name of the joint.
func (j JointName) String() string {
	if j < NumJoints {
		return jointNames[j]
	}
	return "unknown"
}

// ParseJointName resolves a joint name. Both snake_case ("left_shoulder") and
// camelCase ("leftShoulder") spellings are accepted; anything else returns
// JointUnknown.
func ParseJointName(name string) JointName {
	if j, ok := jointByName[name]; ok {
		return j
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '-' || r == ' ':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	if j, ok := jointByName[b.String()]; ok {
		return j
	}
	return JointUnknown
}
