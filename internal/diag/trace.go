// Package diag records per-frame stability diagnostics of a measurement
// session and renders them as a PNG plot.
package diag

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/measure"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/session"
)

// ErrEmptyTrace is returned when there is nothing to plot.
var ErrEmptyTrace = errors.New("diag: no full-window samples recorded")

// Sample is one processed frame.
type Sample struct {
	FrameIdx  int        `json:"frame"`
	Quality   string     `json:"quality"`
	Accepted  bool       `json:"accepted"`
	Collected int        `json:"collected"`
	Stable    bool       `json:"stable"`
	Variances [4]float64 `json:"variances"`
}

// Trace accumulates samples over a run.
type Trace struct {
	threshold float64
	samples   []Sample
}

// NewTrace creates a Trace that draws threshold as the stability limit.
func NewTrace(threshold float64) *Trace {
	return &Trace{threshold: threshold}
}

// Add records the update produced for frame frameIdx.
func (t *Trace) Add(frameIdx int, u session.Update) {
	t.samples = append(t.samples, Sample{
		FrameIdx:  frameIdx,
		Quality:   u.Quality.String(),
		Accepted:  u.Accepted,
		Collected: u.Collected,
		Stable:    u.Stable,
		Variances: u.Variances,
	})
}

// Len is the number of recorded frames.
func (t *Trace) Len() int {
	return len(t.samples)
}

// Samples returns the recorded frames in order.
func (t *Trace) Samples() []Sample {
	return t.samples
}

var fieldColors = [4]color.Color{
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
}

// SavePlot writes a PNG of every field's window variance against the frame
// index, with the stability threshold as a dashed line. Frames recorded
// before the window filled are left out.
func (t *Trace) SavePlot(path string) error {
	var series [4]plotter.XYs
	first, last := -1, -1
	for _, s := range t.samples {
		if !s.Accepted || (s.Variances == [4]float64{} && !s.Stable) {
			continue
		}
		for i, v := range s.Variances {
			series[i] = append(series[i], plotter.XY{X: float64(s.FrameIdx), Y: v})
		}
		if first < 0 {
			first = s.FrameIdx
		}
		last = s.FrameIdx
	}
	if first < 0 {
		return ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = "Measurement window variance"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Variance (px²)"

	for i, pts := range series {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build %s series: %w", measure.FieldNames[i], err)
		}
		line.Color = fieldColors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(measure.FieldNames[i], line)
	}

	limit, err := plotter.NewLine(plotter.XYs{
		{X: float64(first), Y: t.threshold},
		{X: float64(last), Y: t.threshold},
	})
	if err != nil {
		return fmt.Errorf("failed to build threshold line: %w", err)
	}
	limit.Color = color.Gray{Y: 96}
	limit.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(limit)
	p.Legend.Add("threshold", limit)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
