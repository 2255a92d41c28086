// Package mirror turns per-frame pose keypoints into body measurements and
// garment try-on renders.
//
// The package ties together the pipeline stages that live under pkg/:
//
//  1. Quality (pkg/quality): classifies each frame so only well-framed poses
//     are measured
//  2. Stability (pkg/stability): holds a sliding window of pixel measurements
//     and reports when they stop moving
//  3. Measurement (pkg/measure, pkg/scale): extracts pixel distances and
//     converts them to centimetres against a reference height
//  4. Body (pkg/body): builds a body mesh, synthesizing missing limbs
//  5. Garment (pkg/garment): lays deformable grids over the mesh
//  6. Warp (pkg/warp): maps a garment texture onto the grids and shades it
//
// Basic usage:
//
//	m := mirror.New()
//
//	s, err := m.NewSession()
//	if err != nil {
//		log.Fatal(err)
//	}
//	s.Start()
//	for _, frame := range frames {
//		if u := s.Process(frame); u.Record != nil {
//			fmt.Println(u.Record.ShoulderCm)
//		}
//	}
//
//	canvas := image.NewRGBA(image.Rect(0, 0, 640, 480))
//	result, mesh, err := m.TryOn(canvas, shirt, frames[0], 175, garment.UpperBody)
//
// Frames typically come from a pose model; pkg/detection adapts vision LLM
// backends (pkg/ollama, pkg/llamacpp) to the keypoint format.
package mirror

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/config"
	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/quality"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/session"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/stability"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/texture"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/warp"
)

// Version of the mirror library
const Version = "2.0.0"

// ErrNoBody is returned when a frame lacks the shoulders needed for a mesh.
var ErrNoBody = errors.New("mirror: no body in frame")

// Mirror provides a high-level interface over the measurement and try-on
// pipeline
type Mirror struct {
	config     *config.Config
	classifier *quality.Classifier
	builder    *body.Builder
	generator  *garment.Generator
	renderer   *warp.Renderer
	textures   *texture.Loader
}

// New creates a new Mirror with default configuration
func New() *Mirror {
	m, err := NewWithConfig(config.Default())
	if err != nil {
		// the defaults always validate
		panic(err)
	}
	return m
}

// NewWithConfig creates a new Mirror with custom configuration
func NewWithConfig(cfg *config.Config) (*Mirror, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Mirror{
		config:     cfg,
		classifier: quality.NewWithConfig(cfg.QualityConfig()),
		builder:    body.NewWithConfig(cfg.BodyConfig()),
		generator:  garment.NewWithConfig(cfg.GarmentConfig()),
		renderer:   warp.NewWithConfig(cfg.RenderConfig()),
		textures:   texture.New(),
	}, nil
}

// Config returns the configuration the pipeline was built from
func (m *Mirror) Config() *config.Config {
	return m.config
}


// NewSession starts a fresh measurement session. Sessions share the
// classifier but each owns its own stability window.
func (m *Mirror) NewSession() (*session.Session, error) {
	filter := stability.NewWithConfig(m.config.StabilityConfig())
	return session.NewWithConfig(m.config.SessionConfig(), m.classifier, filter)
}

// Classify reports the pose quality of a single frame
func (m *Mirror) Classify(frame keypoints.Frame) quality.PoseQuality {
	return m.classifier.Classify(frame)
}

// BuildBody builds the body mesh for a frame. A non-positive height falls
// back to the configured reference height.
func (m *Mirror) BuildBody(frame keypoints.Frame, heightCm float64) (*body.Mesh, error) {
	mesh, ok := m.builder.Build(frame, heightCm)
	if !ok {
		return nil, ErrNoBody
	}
	return &mesh, nil
}

// Garment generates garment geometry for a mesh
func (m *Mirror) Garment(mesh *body.Mesh, category garment.Category) garment.Garment {
	return m.generator.Build(mesh, category)
}

// LoadTexture loads a garment texture, keys out a flat backdrop unless the
// image already has alpha, and trims it to the garment
func (m *Mirror) LoadTexture(path string) (image.Image, error) {
	img, err := m.textures.Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.textures.Validate(img); err != nil {
		return nil, fmt.Errorf("texture validation failed: %w", err)
	}
	if !m.textures.Info(img).Transparent {
		img = m.textures.KeyOut(img)
	}
	trimmed, err := m.textures.Trim(img)
	if err != nil {
		return nil, fmt.Errorf("failed to trim texture: %w", err)
	}
	return trimmed, nil
}

// TryOn builds the body mesh and garment for frame and renders texture onto
// dst. The mesh is returned so callers can reuse it for overlays. A render
// that skipped quads still returns a nil error; check Result.Partial.
func (m *Mirror) TryOn(dst draw.Image, tex image.Image, frame keypoints.Frame, heightCm float64, category garment.Category) (warp.Result, *body.Mesh, error) {
	mesh, err := m.BuildBody(frame, heightCm)
	if err != nil {
		return warp.Result{}, nil, err
	}

	g := m.generator.Build(mesh, category)
	result, err := m.renderer.Render(dst, tex, g)
	if err != nil {
		return result, mesh, fmt.Errorf("render failed: %w", err)
	}
	return result, mesh, nil
}

// SetLogger routes logging from every pipeline package to l. The logger is
// shared by the whole process. Pass nil to silence it again, which is the
// default.
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger {
	return logging.L()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
