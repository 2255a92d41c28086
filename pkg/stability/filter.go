package stability

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Aditya-9215/ai-mirror-stage-2/internal/logging"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/measure"
)

// DefaultVarianceThreshold is the population variance, in px², below which
// every field must fall for the window to count as stable.
const DefaultVarianceThreshold = 5.0

// Config holds the filter parameters.
type Config struct {
	Capacity          int
	VarianceThreshold float64
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		Capacity:          DefaultCapacity,
		VarianceThreshold: DefaultVarianceThreshold,
	}
}

// Report describes the window after a push.
type Report struct {
	// Collected is the number of samples in the window.
	Collected int
	// Capacity is the window size.
	Capacity int
	// Stable is set when the window is full and every field variance is
	// below the threshold.
	Stable bool
	// Means and Variances are per field, in measure.FieldNames order. They
	// are zero until the window is full.
	Means     [4]float64
	Variances [4]float64
	// Latest is the raw sample just pushed. On a stable report it is the
	// value to emit.
	Latest measure.PixelSet
}

// Filter accumulates samples and reports convergence. It has no notion of a
// capture session; callers Reset it to start over.
type Filter struct {
	config  Config
	window  *Window
	scratch []float64
}

// New creates a Filter with default parameters.
func New() *Filter {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Filter with custom parameters.
func NewWithConfig(config Config) *Filter {
	if config.Capacity < 1 {
		config.Capacity = DefaultCapacity
	}
	return &Filter{
		config:  config,
		window:  NewWindow(config.Capacity),
		scratch: make([]float64, config.Capacity),
	}
}

// Config returns the filter parameters.
func (f *Filter) Config() Config {
	return f.config
}

// Len returns the number of samples collected so far.
func (f *Filter) Len() int {
	return f.window.Len()
}

// Push offers a new sample and reports the window state.
func (f *Filter) Push(p measure.PixelSet) Report {
	f.window.Push(p)
	r := Report{
		Collected: f.window.Len(),
		Capacity:  f.window.Cap(),
		Latest:    p,
	}
	if !f.window.Full() {
		return r
	}

	r.Stable = true
	for field := 0; field < 4; field++ {
		for i := 0; i < f.window.Len(); i++ {
			f.scratch[i] = f.window.At(i).Fields()[field]
		}
		r.Means[field], r.Variances[field] = stat.PopMeanVariance(f.scratch[:f.window.Len()], nil)
		if !(r.Variances[field] < f.config.VarianceThreshold) {
			r.Stable = false
		}
	}
	return r
}

// Reset discards every collected sample.
func (f *Filter) Reset() {
	f.window.Reset()
	logging.For("stability").Debug("window reset")
}
