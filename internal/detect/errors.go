package detect

import "errors"

// ErrUnsupportedRadius is returned by New when the requested radius has no
// compiled-in boundary/interior table.
var ErrUnsupportedRadius = errors.New("detect: unsupported radius")

// ErrImageTooSmall is returned when the image is smaller than 2R+1 in
// either dimension, so no candidate center exists.
var ErrImageTooSmall = errors.New("detect: image smaller than 2R+1")

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("detect: invalid thresholds")
