package detect

// offsetsFor flattens a radius-relative 2-D point set into signed 1-D
// cursor offsets for an image of width w: offset = dy*w+dx. This is
// where the geometry collapses into the scalar strides the hot
// scan loop actually uses; every other part of the detector deals in
// Points, only this function, its caller in detector.go and the scan
// loop in scan.go deal in offsets.
func offsetsFor(pts []Point, w int) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.DY*w + p.DX
	}
	return out
}
