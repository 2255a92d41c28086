// Package scale converts pixel distances into centimetres from one known
// reference length.
package scale

import "errors"

// ErrZeroPixelHeight is returned when the reference spans no pixels, so no
// scale can be derived.
var ErrZeroPixelHeight = errors.New("scale: reference pixel height is zero")

// Resolver maps pixels to centimetres along the reference axis.
type Resolver struct {
	referenceCm float64
	referencePx float64
	cmPerPx     float64
}

// New creates a Resolver where referencePx pixels correspond to referenceCm
// centimetres. With the user's height as reference, referencePx is the frame
// height; with a held object, it is the object's height in pixels.
func New(referenceCm, referencePx float64) (Resolver, error) {
	if referencePx == 0 {
		return Resolver{}, ErrZeroPixelHeight
	}
	return Resolver{
		referenceCm: referenceCm,
		referencePx: referencePx,
		cmPerPx:     referenceCm / referencePx,
	}, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew(referenceCm, referencePx float64) Resolver {
	r, err := New(referenceCm, referencePx)
	if err != nil {
		panic(err)
	}
	return r
}

// Convert returns pixels expressed in centimetres.
func (r Resolver) Convert(pixels float64) float64 {
	return pixels * r.cmPerPx
}

// CmPerPixel returns the conversion factor.
func (r Resolver) CmPerPixel() float64 {
	return r.cmPerPx
}

// Reference returns the reference length in centimetres and pixels.
func (r Resolver) Reference() (cm, px float64) {
	return r.referenceCm, r.referencePx
}
