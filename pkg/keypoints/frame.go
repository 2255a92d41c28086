package keypoints

import "math"

// Point is a 2D position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Lerp interpolates linearly from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point { return p.Lerp(q, 0.5) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Keypoint is a single detected joint.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Point returns the keypoint position.
func (k Keypoint) Point() Point {
	return Point{X: k.X, Y: k.Y}
}

// Frame is the ordered set of keypoints detected in one video frame.
type Frame struct {
	Keypoints []Keypoint `json:"keypoints"`
}

// Len returns the number of keypoints in the frame.
func (f Frame) Len() int {
	return len(f.Keypoints)
}

// Resolve maps the frame onto a Skeleton. When a joint name occurs more than
// once the first occurrence wins; unknown names are ignored.
func (f Frame) Resolve() Skeleton {
	var s Skeleton
	s.count = len(f.Keypoints)
	s.maxY = math.Inf(-1)
	for _, kp := range f.Keypoints {
		if kp.Y > s.maxY {
			s.maxY = kp.Y
		}
		j := ParseJointName(kp.Name)
		if j == JointUnknown || s.present[j] {
			continue
		}
		s.joints[j] = kp
		s.present[j] = true
	}
	return s
}

// Skeleton is a Frame resolved into one optional slot per known joint.
type Skeleton struct {
	joints  [NumJoints]Keypoint
	present [NumJoints]bool
	count   int
	maxY    float64
}

// Get returns the keypoint for j and whether it was present in the frame,
// regardless of its confidence.
func (s *Skeleton) Get(j JointName) (Keypoint, bool) {
	if j >= NumJoints {
		return Keypoint{}, false
	}
	return s.joints[j], s.present[j]
}

// Has reports whether j was present in the frame.
func (s *Skeleton) Has(j JointName) bool {
	return j < NumJoints && s.present[j]
}

// Visible reports whether j is present with a confidence strictly above minConf.
func (s *Skeleton) Visible(j JointName, minConf float64) bool {
	return s.Has(j) && s.joints[j].Confidence > minConf
}

// Point returns the position of j and whether it was present.
func (s *Skeleton) Point(j JointName) (Point, bool) {
	kp, ok := s.Get(j)
	return kp.Point(), ok
}

// Count is the number of keypoints in the source frame, known or not.
func (s *Skeleton) Count() int {
	return s.count
}

// MaxY is the largest y over every keypoint of the source frame. It is -Inf
// for an empty frame.
func (s *Skeleton) MaxY() float64 {
	return s.maxY
}
