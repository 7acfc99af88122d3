package detect

// runScan implements the radius-parameterized scan engine contract: given
// a prepared pixel buffer, width, thresholds, caps, and the flattened
// boundary/interior offset tables for one radius, it populates markers and
// sun pixels in raster order and returns the number of bytes scanned.
//
// The three-state SCAN / SUN_TEST / MARKER_TEST machine is expressed as a
// tight loop with early returns (sunTest/markerTest returning early on
// the first failing boundary test) rather than labeled jumps between
// states; the semantics are identical — a failing boundary test aborts
// the whole cascade without touching interior pixels, and a successful
// MARKER_TEST always zeroes the interior and appends the peak.
//
// The termination sentinel is written by the caller (Detector.Detect)
// before this runs; runScan only reads and, on a cap hit, rewrites it.
func runScan(pix []byte, w int, r int, th Thresholds, caps Caps, boff, ioff []int) *Result {
	offset := r*w + r
	cursor := offset - 1
	coll := newResultCollector(caps)
	n := len(pix)

	for {
		// SCAN: sentinel check happens before the cursor advances.
		if cursor+offset+1 >= n {
			break
		}
		if pix[cursor+offset] == TermSeq[0] && pix[cursor+offset+1] == TermSeq[1] {
			break
		}
		cursor++
		pc := pix[cursor]
		if pc <= th.Tc {
			continue
		}

		delta0 := int(pc) - int(pix[cursor+boff[0]])
		switch {
		case delta0 <= int(th.Td) && pc >= th.Ts:
			sunTest(pix, cursor, w, offset, pc, boff, ioff, th, coll)
		case delta0 > int(th.Td):
			markerTest(pix, cursor, w, offset, pc, boff, ioff, th, coll)
		}
		// Otherwise: neither gate fired, stay in SCAN.
	}

	return &Result{
		Markers:      coll.markers,
		Suns:         coll.suns,
		BytesScanned: cursor + 1,
	}
}

// sunTest runs boundary points 1..B(R)-1, requiring every one to be within
// Td of the center; on success it zeros the interior (destructive NMS) and
// records the candidate center as a sun pixel.
func sunTest(pix []byte, cursor, w, offset int, pc byte, boff, ioff []int, th Thresholds, coll *resultCollector) {
	if coll.sunFull() {
		writeSentinel(pix, cursor+offset)
		return
	}

	for i := 1; i < len(boff); i++ {
		delta := int(pc) - int(pix[cursor+boff[i]])
		if delta > int(th.Td) {
			return // not a sun: neighborhood not uniformly bright
		}
	}

	zeroInterior(pix, cursor, ioff)
	pos := pointAt(cursor, w)
	if coll.addSun(pos) {
		writeSentinel(pix, cursor+offset)
	}
}

// markerTest runs boundary points 1..B(R)-1, requiring every one to be
// more than Td dimmer than the center; on success it scans the interior
// once, zeroing each pixel as it is inspected while tracking the brightest
// (first-occurrence-wins on ties) as the marker's peak position.
func markerTest(pix []byte, cursor, w, offset int, pc byte, boff, ioff []int, th Thresholds, coll *resultCollector) {
	if coll.markerFull() {
		writeSentinel(pix, cursor+offset)
		return
	}

	for i := 1; i < len(boff); i++ {
		delta := int(pc) - int(pix[cursor+boff[i]])
		if delta <= int(th.Td) {
			return // center is not sufficiently brighter than the surround here
		}
	}

	peakOffset := ioff[0]
	peakVal := pix[cursor+ioff[0]]
	for _, off := range ioff {
		v := pix[cursor+off]
		if v > peakVal {
			peakVal = v
			peakOffset = off
		}
		pix[cursor+off] = 0
	}

	pos := pointAt(cursor+peakOffset, w)
	if coll.addMarker(pos) {
		writeSentinel(pix, cursor+offset)
	}
}

func zeroInterior(pix []byte, cursor int, ioff []int) {
	for _, off := range ioff {
		pix[cursor+off] = 0
	}
}

func writeSentinel(pix []byte, at int) {
	pix[at] = TermSeq[0]
	pix[at+1] = TermSeq[1]
}

func pointAt(cursor, w int) Point2D {
	return Point2D{X: cursor % w, Y: cursor / w}
}
