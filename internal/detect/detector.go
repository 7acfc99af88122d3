package detect

import "fmt"

// Detector runs a single-pass bright-blob scan for one fixed circle
// radius R. A single instance is specialized to one R; scanning a
// different radius means building a different Detector.
type Detector interface {
	// Radius returns the circle radius this detector was built for.
	Radius() int

	// Detect runs one single-pass scan over img, mutating it in place:
	// interior pixels of every accepted candidate are zeroed and the
	// termination sentinel is written near the end of the buffer (and,
	// if a cap is reached, at the cursor where the cap was hit). Callers
	// that need img left untouched must pass img.Clone().
	Detect(img *Image, th Thresholds, caps Caps) (*Result, error)
}

type cpuDetector struct {
	radius   int
	boundary []Point
	interior []Point
}

// New returns a Detector specialized to radius. Only the radii with a
// compiled-in boundary/interior table (R = 2, 3, 4, 5) are supported; any
// other value returns ErrUnsupportedRadius.
func New(radius int) (Detector, error) {
	switch radius {
	case 2:
		return &cpuDetector{radius: 2, boundary: boundaryR2, interior: interiorR2}, nil
	case 3:
		return &cpuDetector{radius: 3, boundary: boundaryR3, interior: interiorR3}, nil
	case 4:
		return &cpuDetector{radius: 4, boundary: boundaryR4, interior: interiorR4}, nil
	case 5:
		return &cpuDetector{radius: 5, boundary: boundaryR5, interior: interiorR5}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRadius, radius)
	}
}

// SupportedRadii lists the radii New will accept, in the preferred
// multi-radius attempt order.
func SupportedRadii() []int { return []int{2, 3, 4, 5} }

func (d *cpuDetector) Radius() int { return d.radius }

func (d *cpuDetector) Detect(img *Image, th Thresholds, caps Caps) (*Result, error) {
	r := d.radius
	if img.W < 2*r+1 || img.H < 2*r+1 {
		return &Result{}, fmt.Errorf("%w: %dx%d image, radius %d", ErrImageTooSmall, img.W, img.H, r)
	}
	if len(img.Pix) < 2 {
		return &Result{}, fmt.Errorf("%w: buffer shorter than 2 bytes", ErrImageTooSmall)
	}
	if err := th.Validate(); err != nil {
		return &Result{}, err
	}

	pix := img.Pix
	writeSentinel(pix, len(pix)-2)

	boff := offsetsFor(d.boundary, img.W)
	ioff := offsetsFor(d.interior, img.W)

	return runScan(pix, img.W, r, th, caps, boff, ioff), nil
}
