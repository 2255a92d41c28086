// Package config loads the file configuration of the mirror pipeline. Files
// may be JSON or YAML; the format is chosen by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/quality"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/session"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/stability"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/warp"
)

// Config holds the application configuration
type Config struct {
	Frame     FrameConfig     `json:"frame" yaml:"frame"`
	Quality   QualityConfig   `json:"quality" yaml:"quality"`
	Stability StabilityConfig `json:"stability" yaml:"stability"`
	Body      BodyConfig      `json:"body" yaml:"body"`
	Garment   GarmentConfig   `json:"garment" yaml:"garment"`
	Render    RenderConfig    `json:"render" yaml:"render"`
	Pose      PoseConfig      `json:"pose" yaml:"pose"`
	Output    OutputConfig    `json:"output" yaml:"output"`
}

// FrameConfig holds the reference frame keypoints are expressed in
type FrameConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// QualityConfig holds the pose quality thresholds
type QualityConfig struct {
	MinConfidence    float64 `json:"min_confidence" yaml:"min_confidence"`
	MinShoulderWidth float64 `json:"min_shoulder_width" yaml:"min_shoulder_width"`
	MaxShoulderWidth float64 `json:"max_shoulder_width" yaml:"max_shoulder_width"`
	MaxMissing       int     `json:"max_missing" yaml:"max_missing"`
}

// StabilityConfig holds the measurement capture settings
type StabilityConfig struct {
	WindowSize        int     `json:"window_size" yaml:"window_size"`
	VarianceThreshold float64 `json:"variance_threshold" yaml:"variance_threshold"`
	ResetOnCapture    bool    `json:"reset_on_capture" yaml:"reset_on_capture"`
	HeightCm          float64 `json:"height_cm" yaml:"height_cm"`
	ChestRatio        float64 `json:"chest_ratio" yaml:"chest_ratio"`
}

// BodyConfig holds the body geometry constants
type BodyConfig struct {
	MinConfidence    float64 `json:"min_confidence" yaml:"min_confidence"`
	SideRatio        float64 `json:"side_ratio" yaml:"side_ratio"`
	BackRatio        float64 `json:"back_ratio" yaml:"back_ratio"`
	FallbackHeightPx float64 `json:"fallback_height_px" yaml:"fallback_height_px"`
	ChestRatio       float64 `json:"chest_ratio" yaml:"chest_ratio"`
	WaistRatio       float64 `json:"waist_ratio" yaml:"waist_ratio"`
	HipRatio         float64 `json:"hip_ratio" yaml:"hip_ratio"`
}

// GarmentConfig holds the grid layout
type GarmentConfig struct {
	Category   string  `json:"category" yaml:"category"`
	TorsoBulge float64 `json:"torso_bulge" yaml:"torso_bulge"`
	LegBulge   float64 `json:"leg_bulge" yaml:"leg_bulge"`
	HemDrop    float64 `json:"hem_drop" yaml:"hem_drop"`
}

// RenderConfig holds the warp renderer settings
type RenderConfig struct {
	Shading          bool    `json:"shading" yaml:"shading"`
	SeamOverlap      float64 `json:"seam_overlap" yaml:"seam_overlap"`
	MinQuadArea      float64 `json:"min_quad_area" yaml:"min_quad_area"`
	CylinderBand     float64 `json:"cylinder_band" yaml:"cylinder_band"`
	SideShadeOpacity float64 `json:"side_shade_opacity" yaml:"side_shade_opacity"`
}

// PoseConfig holds the optional vision-model keypoint source
type PoseConfig struct {
	Backend        string `json:"backend" yaml:"backend"`
	URL            string `json:"url" yaml:"url"`
	Model          string `json:"model" yaml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	Quality       int    `json:"quality" yaml:"quality"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	Prefix        string `json:"prefix" yaml:"prefix"`
	Suffix        string `json:"suffix" yaml:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	q := quality.DefaultConfig()
	st := stability.DefaultConfig()
	se := session.DefaultConfig()
	b := body.DefaultConfig()
	g := garment.DefaultConfig()
	r := warp.DefaultConfig()
	return &Config{
		Frame: FrameConfig{
			Width:  640,
			Height: 480,
		},
		Quality: QualityConfig{
			MinConfidence:    q.MinConfidence,
			MinShoulderWidth: q.MinShoulderWidth,
			MaxShoulderWidth: q.MaxShoulderWidth,
			MaxMissing:       q.MaxMissing,
		},
		Stability: StabilityConfig{
			WindowSize:        st.Capacity,
			VarianceThreshold: st.VarianceThreshold,
			ResetOnCapture:    se.ResetOnCapture,
			HeightCm:          se.ReferenceCm,
			ChestRatio:        se.ChestRatio,
		},
		Body: BodyConfig{
			MinConfidence:    b.MinConfidence,
			SideRatio:        b.SideRatio,
			BackRatio:        b.BackRatio,
			FallbackHeightPx: b.FallbackHeightPx,
			ChestRatio:       b.ChestRatio,
			WaistRatio:       b.WaistRatio,
			HipRatio:         b.HipRatio,
		},
		Garment: GarmentConfig{
			Category:   garment.UpperBody.String(),
			TorsoBulge: g.TorsoBulge,
			LegBulge:   g.LegBulge,
			HemDrop:    g.HemDrop,
		},
		Render: RenderConfig{
			Shading:          r.Shading,
			SeamOverlap:      r.SeamOverlap,
			MinQuadArea:      r.MinQuadArea,
			CylinderBand:     r.CylinderBand,
			SideShadeOpacity: r.SideShadeOpacity,
		},
		Pose: PoseConfig{
			Backend:        "ollama",
			URL:            "http://localhost:11434",
			Model:          "llava:13b",
			TimeoutSeconds: 120,
		},
		Output: OutputConfig{
			DefaultFormat: "png",
			Quality:       90,
			OutputDir:     "./output",
			Prefix:        "",
			Suffix:        "_tryon",
		},
	}
}

func isYAML(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFromFile loads configuration from a JSON or YAML file. Missing keys
// keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Frame.Width < 1 || c.Frame.Height < 1 {
		return fmt.Errorf("frame.width and frame.height must be positive")
	}

	if c.Quality.MinConfidence < 0 || c.Quality.MinConfidence > 1 {
		return fmt.Errorf("quality.min_confidence must be between 0 and 1")
	}

	if c.Quality.MinShoulderWidth >= c.Quality.MaxShoulderWidth {
		return fmt.Errorf("quality.min_shoulder_width must be below quality.max_shoulder_width")
	}

	if c.Quality.MaxMissing < 0 || c.Quality.MaxMissing > len(quality.Required) {
		return fmt.Errorf("quality.max_missing must be between 0 and %d", len(quality.Required))
	}

	if c.Stability.WindowSize < 1 {
		return fmt.Errorf("stability.window_size must be positive")
	}

	if c.Stability.VarianceThreshold <= 0 {
		return fmt.Errorf("stability.variance_threshold must be positive")
	}

	if c.Stability.HeightCm <= 0 {
		return fmt.Errorf("stability.height_cm must be positive")
	}

	if c.Body.MinConfidence < 0 || c.Body.MinConfidence > 1 {
		return fmt.Errorf("body.min_confidence must be between 0 and 1")
	}

	if c.Body.FallbackHeightPx <= 0 {
		return fmt.Errorf("body.fallback_height_px must be positive")
	}

	if _, err := garment.ParseCategory(c.Garment.Category); err != nil {
		return fmt.Errorf("garment.category: %w", err)
	}

	if c.Render.CylinderBand < 0 || c.Render.CylinderBand > 0.5 {
		return fmt.Errorf("render.cylinder_band must be between 0 and 0.5")
	}

	if c.Render.SideShadeOpacity < 0 || c.Render.SideShadeOpacity > 1 {
		return fmt.Errorf("render.side_shade_opacity must be between 0 and 1")
	}

	switch c.Pose.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("pose.backend must be ollama or llamacpp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// QualityConfig converts the quality section for the classifier.
func (c *Config) QualityConfig() quality.Config {
	return quality.Config{
		MinConfidence:    c.Quality.MinConfidence,
		MinShoulderWidth: c.Quality.MinShoulderWidth,
		MaxShoulderWidth: c.Quality.MaxShoulderWidth,
		MaxMissing:       c.Quality.MaxMissing,
	}
}

// StabilityConfig converts the stability section for the filter.
func (c *Config) StabilityConfig() stability.Config {
	return stability.Config{
		Capacity:          c.Stability.WindowSize,
		VarianceThreshold: c.Stability.VarianceThreshold,
	}
}

// SessionConfig converts the stability and frame sections for a capture.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		ReferenceCm:    c.Stability.HeightCm,
		FrameHeightPx:  float64(c.Frame.Height),
		ChestRatio:     c.Stability.ChestRatio,
		ResetOnCapture: c.Stability.ResetOnCapture,
	}
}

// BodyConfig converts the body section, keeping the default joint offsets.
func (c *Config) BodyConfig() body.Config {
	b := body.DefaultConfig()
	b.MinConfidence = c.Body.MinConfidence
	b.SideRatio = c.Body.SideRatio
	b.BackRatio = c.Body.BackRatio
	b.FallbackHeightPx = c.Body.FallbackHeightPx
	b.DefaultHeightCm = c.Stability.HeightCm
	b.ChestRatio = c.Body.ChestRatio
	b.WaistRatio = c.Body.WaistRatio
	b.HipRatio = c.Body.HipRatio
	return b
}

// GarmentConfig converts the garment section, keeping the default grid sizes.
func (c *Config) GarmentConfig() garment.Config {
	g := garment.DefaultConfig()
	g.TorsoBulge = c.Garment.TorsoBulge
	g.LegBulge = c.Garment.LegBulge
	g.HemDrop = c.Garment.HemDrop
	return g
}

// Category returns the configured garment category.
func (c *Config) Category() (garment.Category, error) {
	return garment.ParseCategory(c.Garment.Category)
}

// RenderConfig converts the render section.
func (c *Config) RenderConfig() warp.Config {
	r := warp.DefaultConfig()
	r.Shading = c.Render.Shading
	r.SeamOverlap = c.Render.SeamOverlap
	r.MinQuadArea = c.Render.MinQuadArea
	r.CylinderBand = c.Render.CylinderBand
	r.SideShadeOpacity = c.Render.SideShadeOpacity
	return r
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "ai-mirror", "config.json")
}
