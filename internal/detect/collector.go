package detect

// resultCollector accumulates the two bounded, raster-ordered detection
// sequences. It never rejects on its own — the scan engine stops
// producing once a sequence is full, by writing the termination
// sentinel; the collector's only job is capacity bookkeeping.
type resultCollector struct {
	markers []Point2D
	suns    []Point2D
	mmax    int
	smax    int
}

func newResultCollector(caps Caps) *resultCollector {
	return &resultCollector{mmax: caps.Mmax, smax: caps.Smax}
}

// markerFull reports whether the marker cap has already been reached.
func (c *resultCollector) markerFull() bool { return len(c.markers) >= c.mmax }

// sunFull reports whether the sun cap has already been reached.
func (c *resultCollector) sunFull() bool { return len(c.suns) >= c.smax }

// addMarker appends a peak position and reports whether the cap was
// reached by this insertion (the caller uses that to force termination).
func (c *resultCollector) addMarker(p Point2D) (capReached bool) {
	c.markers = append(c.markers, p)
	return len(c.markers) >= c.mmax
}

// addSun appends a sun-pixel position and reports whether the cap was
// reached by this insertion.
func (c *resultCollector) addSun(p Point2D) (capReached bool) {
	c.suns = append(c.suns, p)
	return len(c.suns) >= c.smax
}
