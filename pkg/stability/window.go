// Package stability decides when repeated per-frame measurements have settled
// enough to be trusted. It does not smooth values; it only gates them.
package stability

import "github.com/Aditya-9215/ai-mirror-stage-2/pkg/measure"

// DefaultCapacity is the number of samples the window holds.
const DefaultCapacity = 10

// Window is a fixed-capacity ring of pixel measurements. The backing array is
// allocated once; pushing past capacity overwrites the oldest sample.
type Window struct {
	buf   []measure.PixelSet
	head  int // index of the oldest sample
	count int
}

// NewWindow creates a window holding up to capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]measure.PixelSet, capacity)}
}

// Push appends p, evicting the oldest sample when full.
func (w *Window) Push(p measure.PixelSet) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = p
		w.count++
		return
	}
	w.buf[w.head] = p
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of samples held.
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Full reports whether the window holds Cap samples.
func (w *Window) Full() bool { return w.count == len(w.buf) }

// At returns the i-th sample, oldest first.
func (w *Window) At(i int) measure.PixelSet {
	if i < 0 || i >= w.count {
		panic("stability: window index out of range")
	}
	return w.buf[(w.head+i)%len(w.buf)]
}

// Newest returns the most recently pushed sample.
func (w *Window) Newest() (measure.PixelSet, bool) {
	if w.count == 0 {
		return measure.PixelSet{}, false
	}
	return w.At(w.count - 1), true
}

// Reset empties the window without releasing its storage.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}
