// Package detect implements the Fast Isolated Marker Detector (FIMD) core:
// a single-pass raster scan over an 8-bit grayscale image that locates
// bright isolated point markers and saturated "sun" pixels using a
// Bresenham-circle neighborhood test at a configured radius.
package detect

import "fmt"

// Point is a signed 2-D offset relative to a candidate center pixel.
type Point struct {
	DX, DY int
}

// Image is an 8-bit grayscale, row-major pixel buffer with no padding.
// The caller owns Pix; Detect mutates it in place (see Detector.Detect).
type Image struct {
	W, H int
	Pix  []byte
}

// NewImage allocates a zeroed image of the given dimensions.
func NewImage(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]byte, w*h)}
}

// Clone returns a deep copy of the image, for callers that need Detect to
// leave their original buffer untouched.
func (img *Image) Clone() *Image {
	cp := make([]byte, len(img.Pix))
	copy(cp, img.Pix)
	return &Image{W: img.W, H: img.H, Pix: cp}
}

// At returns the pixel value at (x, y).
func (img *Image) At(x, y int) byte {
	return img.Pix[y*img.W+x]
}

// Thresholds configures the detector's decision cascade.
type Thresholds struct {
	Tc uint8 // center-brightness gate
	Td uint8 // center-to-ring difference gate
	Ts uint8 // sun-saturation gate
}

// Validate checks that 0 < Tc <= Ts <= 255 and 0 < Td <= 255 (Td's upper
// bound is automatic for a uint8).
func (t Thresholds) Validate() error {
	if t.Tc == 0 {
		return fmt.Errorf("%w: Tc must be > 0", ErrInvalidThresholds)
	}
	if t.Td == 0 {
		return fmt.Errorf("%w: Td must be > 0", ErrInvalidThresholds)
	}
	if t.Ts < t.Tc {
		return fmt.Errorf("%w: Ts (%d) must be >= Tc (%d)", ErrInvalidThresholds, t.Ts, t.Tc)
	}
	return nil
}

// Caps bounds the number of markers and sun pixels a single Detect call
// will report. Hitting a cap is not an error: the scan terminates early
// via sentinel injection and the caller observes a count equal to the
// cap.
type Caps struct {
	Mmax int
	Smax int
}

// Result holds the bounded, raster-ordered detections from one Detect call.
type Result struct {
	Markers []Point2D
	Suns    []Point2D

	// BytesScanned is the number of bytes the engine advanced the cursor
	// over before termination (sentinel hit or cap-forced termination).
	BytesScanned int
}

// Point2D is an absolute pixel coordinate in the image, x = column, y = row.
type Point2D struct {
	X, Y int
}

// TermSeq is the 2-byte termination sentinel pattern written near the end
// of the image buffer and checked each SCAN step. It is always written
// and tested as two fixed bytes, never as a host-endianness-dependent
// 16-bit integer store.
var TermSeq = [2]byte{0xFF, 0x00}
