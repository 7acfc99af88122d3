// Package batch applies the detector across many images: per-image radius
// selection, sequential iteration over an image set, and progress
// tracking suitable for checkpointing.
package batch

import (
	"fmt"

	"github.com/fimd/fimd/internal/detect"
)

// RadiusPolicy is the ordered list of radii to attempt per image. The
// first radius that yields any detection wins; if none do, the image's
// result has Radius 0 and zero counts.
type RadiusPolicy []int

// DefaultRadiusPolicy mirrors the commonly supported radii.
func DefaultRadiusPolicy() RadiusPolicy { return RadiusPolicy{2, 3, 4, 5} }

func (p RadiusPolicy) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("batch: radius policy must name at least one radius")
	}
	for _, r := range p {
		if _, err := detect.New(r); err != nil {
			return fmt.Errorf("batch: radius policy: %w", err)
		}
	}
	return nil
}

// PerImageResult is one image's outcome within a batch run.
type PerImageResult struct {
	Path         string          `json:"path"`
	Radius       int             `json:"radius"` // 0 if no radius in the policy produced a detection
	Markers      []detect.Point2D `json:"markers"`
	Suns         []detect.Point2D `json:"suns"`
	BytesScanned int             `json:"bytesScanned"`
}

// MarkerCount and SunCount are convenience accessors used by summaries
// and trace logging.
func (r PerImageResult) MarkerCount() int { return len(r.Markers) }
func (r PerImageResult) SunCount() int    { return len(r.Suns) }

// ScanImage tries each radius in policy against img in order, stopping at
// the first one that reports any marker or sun. Since detect.Detector.Detect
// mutates its input, each attempt runs on img.Clone(): img itself is left
// untouched, and an empty result at R=2 doesn't corrupt the R=3 retry.
func ScanImage(path string, img *detect.Image, policy RadiusPolicy, th detect.Thresholds, caps detect.Caps) (PerImageResult, error) {
	var last PerImageResult
	for _, r := range policy {
		d, err := detect.New(r)
		if err != nil {
			return PerImageResult{}, fmt.Errorf("batch: scan %s: %w", path, err)
		}
		res, err := d.Detect(img.Clone(), th, caps)
		if err != nil {
			return PerImageResult{}, fmt.Errorf("batch: scan %s at R=%d: %w", path, r, err)
		}
		last = PerImageResult{
			Path:         path,
			Radius:       r,
			Markers:      res.Markers,
			Suns:         res.Suns,
			BytesScanned: res.BytesScanned,
		}
		if len(res.Markers) > 0 || len(res.Suns) > 0 {
			return last, nil
		}
	}
	last.Radius = 0
	return last, nil
}
