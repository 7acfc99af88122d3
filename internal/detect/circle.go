package detect

import "sort"

// ComputeBoundary runs the integer Bresenham midpoint circle algorithm for
// radius R and returns the boundary ring ordered for early rejection:
// boundary[0] is the point directly above the center (0, -R), and the
// remaining points are ordered to maximize the Chebyshev distance to the
// points already chosen, ties broken toward larger DY (the "eval_sort"
// behavior).
//
// This is the build/generation-time tool behind scan_r2.go..scan_r5.go's
// checked-in tables; TestComputeBoundary pins its output against them.
func ComputeBoundary(r int) []Point {
	first := bresenhamFirstOctant(r)
	seen := make(map[Point]bool)
	var pts []Point
	for _, p := range first {
		for _, c := range octantReflections(p) {
			if !seen[c] {
				seen[c] = true
				pts = append(pts, c)
			}
		}
	}
	return evalSort(pts, Point{DX: 0, DY: -r})
}

// ComputeInterior enumerates every integer point strictly inside the disk
// of radius R, including the center (0,0) exactly once, ordered by
// ascending DY then ascending DX. Both halves of the disk are included
// (see DESIGN.md "Open Questions" decision #1): the scan engine then
// visits every interior pixel of a candidate exactly once per
// classification without needing to special-case a mirrored half.
func ComputeInterior(r int) []Point {
	var pts []Point
	r2 := r * r
	for dy := -r + 1; dy <= r-1; dy++ {
		for dx := -r + 1; dx <= r-1; dx++ {
			if dx*dx+dy*dy < r2 {
				pts = append(pts, Point{DX: dx, DY: dy})
			}
		}
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].DY != pts[j].DY {
			return pts[i].DY < pts[j].DY
		}
		return pts[i].DX < pts[j].DX
	})
	return pts
}

// bresenhamFirstOctant traces the first octant of the circle of radius r
// starting at (0, r): P0 = 3 - 2R, east or south-east steps chosen by the
// sign of the decision variable, terminating when x > y.
func bresenhamFirstOctant(r int) []Point {
	x, y := 0, r
	p := 3 - 2*r
	var pts []Point
	for x <= y {
		pts = append(pts, Point{DX: x, DY: y})
		if p < 0 {
			p += 4*x + 6
		} else {
			p += 4*(x-y) + 10
			y--
		}
		x++
	}
	return pts
}

// octantReflections reflects a first-octant point (x, y), with y measured
// from the axis (0, r), into all 8 octants relative to that same axis
// convention, then flips the sign of DY so that boundary[0] lands at
// (0, -r) — "above" the center in row-major (y-increases-downward) image
// coordinates.
func octantReflections(p Point) []Point {
	x, y := p.DX, p.DY
	raw := []Point{
		{DX: x, DY: y}, {DX: y, DY: x},
		{DX: -x, DY: y}, {DX: -y, DY: x},
		{DX: x, DY: -y}, {DX: y, DY: -x},
		{DX: -x, DY: -y}, {DX: -y, DY: -x},
	}
	out := make([]Point, len(raw))
	for i, q := range raw {
		out[i] = Point{DX: q.DX, DY: -q.DY}
	}
	return out
}

func chebyshev(a, b Point) int {
	dx := a.DX - b.DX
	if dx < 0 {
		dx = -dx
	}
	dy := a.DY - b.DY
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// evalSort orders pts starting from start, repeatedly picking the
// remaining point with the largest Chebyshev distance to the closest
// already-chosen point, breaking ties toward larger DY and, failing that,
// toward the point encountered first in the canonical (ascending DX, then
// ascending DY) scan order — a fixed tie-break needed for reproducibility,
// since multiple points can share both the winning distance and DY.
func evalSort(pts []Point, start Point) []Point {
	canonical := append([]Point(nil), pts...)
	sort.Slice(canonical, func(i, j int) bool {
		if canonical[i].DX != canonical[j].DX {
			return canonical[i].DX < canonical[j].DX
		}
		return canonical[i].DY < canonical[j].DY
	})

	var remaining []Point
	for _, p := range canonical {
		if p != start {
			remaining = append(remaining, p)
		}
	}

	order := []Point{start}
	for len(remaining) > 0 {
		bestIdx := -1
		bestDist := -1
		var bestPoint Point
		for idx, p := range remaining {
			d := minChebyshev(p, order)
			if d > bestDist || (d == bestDist && p.DY > bestPoint.DY) {
				bestIdx = idx
				bestDist = d
				bestPoint = p
			}
		}
		order = append(order, bestPoint)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return order
}

func minChebyshev(p Point, chosen []Point) int {
	best := -1
	for _, c := range chosen {
		d := chebyshev(p, c)
		if best == -1 || d < best {
			best = d
		}
	}
	return best
}
