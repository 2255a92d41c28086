// Package session runs a measurement capture: frames are quality gated,
// measured in pixels, fed to the stability filter and, once the window
// converges, converted to a centimetre record.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/measure"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/quality"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/scale"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/stability"
)

// Config holds the capture settings.
type Config struct {
	// ReferenceCm is the known real-world length spanning FrameHeightPx,
	// normally the subject's height.
	ReferenceCm float64
	// FrameHeightPx is the reference frame height keypoints are expressed in.
	FrameHeightPx float64
	// ChestRatio approximates chest width from shoulder width.
	ChestRatio float64
	// ResetOnCapture clears the window and ends the capture as soon as a
	// record is emitted. When false the session keeps accumulating and emits
	// again on every stable frame. Neither behaviour is more correct; the
	// default is true so that one Start yields one record, and continuous
	// measurement has to be asked for.
	ResetOnCapture bool
}

// DefaultConfig returns the standard capture settings, with ResetOnCapture
// enabled.
func DefaultConfig() Config {
	return Config{
		ReferenceCm:    170,
		FrameHeightPx:  480,
		ChestRatio:     measure.DefaultChestRatio,
		ResetOnCapture: true,
	}
}

// Update is the outcome of processing one frame.
type Update struct {
	Quality quality.PoseQuality `json:"quality"`
	// Accepted is set when the frame's measurements entered the window.
	Accepted  bool       `json:"accepted"`
	Collected int        `json:"collected"`
	Capacity  int        `json:"capacity"`
	Stable    bool       `json:"stable"`
	Variances [4]float64 `json:"variances"`
	// Record is set on the frame that completed a capture.
	Record *measure.Record `json:"record,omitempty"`
}

// Session owns the stability window of one user's measurement capture. It is
// meant to be driven from a single per-frame callback and is not safe for
// concurrent use.
type Session struct {
	id         string
	config     Config
	classifier *quality.Classifier
	filter     *stability.Filter
	resolver   scale.Resolver

	active   bool
	last     *measure.Record
	captures int
}

// New creates a Session with default settings.
func New() (*Session, error) {
	return NewWithConfig(DefaultConfig(), quality.New(), stability.New())
}

// NewWithConfig creates a Session from its parts. It fails when the frame
// height is zero, since no scale can be derived.
func NewWithConfig(config Config, classifier *quality.Classifier, filter *stability.Filter) (*Session, error) {
	resolver, err := scale.New(config.ReferenceCm, config.FrameHeightPx)
	if err != nil {
		return nil, fmt.Errorf("invalid session scale: %w", err)
	}
	if classifier == nil {
		classifier = quality.New()
	}
	if filter == nil {
		filter = stability.New()
	}
	return &Session{
		id:         uuid.NewString(),
		config:     config,
		classifier: classifier,
		filter:     filter,
		resolver:   resolver,
	}, nil
}

// ID identifies the session in logs and outputs.
func (s *Session) ID() string {
	return s.id
}

// Config returns the capture settings.
func (s *Session) Config() Config {
	return s.config
}

// Resolver returns the pixel to centimetre conversion in use.
func (s *Session) Resolver() scale.Resolver {
	return s.resolver
}

// Start begins a capture from an empty window.
func (s *Session) Start() {
	s.filter.Reset()
	s.active = true
	logging.For("session").Debug("capture started", "session", s.id)
}

// Stop pauses the capture; the window is kept.
func (s *Session) Stop() {
	s.active = false
}

// Active reports whether frames are currently being collected.
func (s *Session) Active() bool {
	return s.active
}

// Reset discards the window and the last record.
func (s *Session) Reset() {
	s.filter.Reset()
	s.last = nil
}

// Captures is the number of records emitted so far.
func (s *Session) Captures() int {
	return s.captures
}

// Capture returns the most recently emitted record.
func (s *Session) Capture() (measure.Record, bool) {
	if s.last == nil {
		return measure.Record{}, false
	}
	return *s.last, true
}

// Process classifies frame and, while the session is active and the pose is
// good, pushes its measurements into the stability window.
func (s *Session) Process(frame keypoints.Frame) Update {
	sk := frame.Resolve()
	u := Update{
		Quality:   s.classifier.ClassifySkeleton(&sk),
		Collected: s.filter.Len(),
		Capacity:  s.filter.Config().Capacity,
	}
	if !s.active || u.Quality != quality.Good {
		return u
	}
	p, ok := measure.ExtractSkeleton(&sk, s.config.ChestRatio)
	if !ok {
		return u
	}

	report := s.filter.Push(p)
	u.Accepted = true
	u.Collected = report.Collected
	u.Stable = report.Stable
	u.Variances = report.Variances
	if !report.Stable {
		return u
	}

	rec := measure.NewRecord(report.Latest, s.resolver)
	u.Record = &rec
	s.last = &rec
	s.captures++
	logging.For("session").Info("measurement captured",
		"session", s.id,
		"capture", s.captures,
		"shoulderCm", rec.ShoulderCm,
		"fullHeightCm", rec.FullHeightCm)

	if s.config.ResetOnCapture {
		s.filter.Reset()
		s.active = false
	}
	return u
}
