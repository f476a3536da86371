// Package geom holds the convex polygon math used for clip regions.
//
// Polygons are flat coordinate slices [x0, y0, x1, y1, ...]. Either winding
// is accepted; the orientation of the clipping polygon is detected from its
// signed area.
package geom

import "math"

// Epsilon is the inside margin used by the half-plane tests. Points within
// this distance-weighted margin of an edge count as inside.
const Epsilon = 1e-9

// PointInConvex reports whether (x, y) lies inside or on the boundary of the
// convex polygon p.
func PointInConvex(p []float64, x, y float64) bool {
	n := len(p)
	if n < 6 {
		return false
	}
	sign := orientation(p)
	if sign == 0 {
		return false
	}
	for i := 0; i < n; i += 2 {
		j := (i + 2) % n
		if sign*side(p[i], p[i+1], p[j], p[j+1], x, y) < -Epsilon {
			return false
		}
	}
	return true
}

// IntersectConvex returns the intersection of the convex polygons a and b by
// clipping b against every edge of a (Sutherland-Hodgman).
//
// When no edge of a cuts b, b itself is returned (same backing array), so
// callers can detect a no-op clip with SamePolygon. An empty, non-nil slice
// means the polygons do not overlap.
func IntersectConvex(a, b []float64) []float64 {
	if len(a) < 6 || len(b) < 6 {
		return []float64{}
	}
	sign := orientation(a)
	if sign == 0 {
		return []float64{}
	}

	out := b
	n := len(a)
	for i := 0; i < n && len(out) > 0; i += 2 {
		j := (i + 2) % n
		out = clipEdge(out, a[i], a[i+1], a[j], a[j+1], sign)
	}

	switch {
	case len(out) == 0:
		return containment(a, b)
	case len(out) < 6:
		return []float64{}
	}
	return out
}

// SamePolygon reports whether a and b share the same backing array and
// length, meaning IntersectConvex left the subject untouched.
func SamePolygon(a, b []float64) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

// clipEdge clips the subject polygon against the half plane to the inside of
// the directed edge (x1,y1)->(x2,y2). The subject is returned unchanged when
// all of its points are inside.
func clipEdge(subject []float64, x1, y1, x2, y2, sign float64) []float64 {
	n := len(subject)
	inside := true
	for k := 0; k < n; k += 2 {
		if sign*side(x1, y1, x2, y2, subject[k], subject[k+1]) < -Epsilon {
			inside = false
			break
		}
	}
	if inside {
		return subject
	}

	out := make([]float64, 0, n+4)
	sx, sy := subject[n-2], subject[n-1]
	sd := sign * side(x1, y1, x2, y2, sx, sy)
	for k := 0; k < n; k += 2 {
		ex, ey := subject[k], subject[k+1]
		ed := sign * side(x1, y1, x2, y2, ex, ey)

		// Intersections are only computed when the segment strictly crosses
		// the edge. Points on the edge are emitted as themselves, which keeps
		// collinear edges from producing duplicate vertices.
		if (sd > Epsilon && ed < -Epsilon) || (sd < -Epsilon && ed > Epsilon) {
			t := sd / (sd - ed)
			out = append(out, sx+(ex-sx)*t, sy+(ey-sy)*t)
		}
		if ed >= -Epsilon {
			out = append(out, ex, ey)
		}
		sx, sy, sd = ex, ey, ed
	}
	return dedupe(out)
}

// containment resolves the degenerate case where edge clipping produced no
// points at all. It returns whichever polygon lies inside the other, or an
// empty polygon when they are disjoint.
func containment(a, b []float64) []float64 {
	ax0, ay0, ax1, ay1 := Bounds(a)
	bx0, by0, bx1, by1 := Bounds(b)

	bcx, bcy := Centroid(b)
	if PointInConvex(a, bcx, bcy) &&
		bx0 >= ax0-Epsilon && by0 >= ay0-Epsilon && bx1 <= ax1+Epsilon && by1 <= ay1+Epsilon {
		return b
	}
	acx, acy := Centroid(a)
	if PointInConvex(b, acx, acy) &&
		ax0 >= bx0-Epsilon && ay0 >= by0-Epsilon && ax1 <= bx1+Epsilon && ay1 <= by1+Epsilon {
		return a
	}
	return []float64{}
}

// Bounds returns the axis-aligned bounding box of p.
func Bounds(p []float64) (minX, minY, maxX, maxY float64) {
	if len(p) < 2 {
		return 0, 0, 0, 0
	}
	minX, minY = p[0], p[1]
	maxX, maxY = p[0], p[1]
	for i := 2; i+1 < len(p); i += 2 {
		minX = math.Min(minX, p[i])
		maxX = math.Max(maxX, p[i])
		minY = math.Min(minY, p[i+1])
		maxY = math.Max(maxY, p[i+1])
	}
	return minX, minY, maxX, maxY
}

// Centroid returns the average of the polygon's points.
func Centroid(p []float64) (float64, float64) {
	n := len(p) / 2
	if n == 0 {
		return 0, 0
	}
	var x, y float64
	for i := 0; i+1 < len(p); i += 2 {
		x += p[i]
		y += p[i+1]
	}
	return x / float64(n), y / float64(n)
}

// Area returns the signed area of p (positive for the winding where the
// interior lies to the left of each edge in a y-up frame).
func Area(p []float64) float64 {
	n := len(p)
	var s float64
	for i := 0; i+1 < n; i += 2 {
		j := (i + 2) % n
		s += p[i]*p[j+1] - p[j]*p[i+1]
	}
	return s / 2
}

// side returns the cross product of the edge direction with the vector from
// the edge start to (px, py).
func side(x1, y1, x2, y2, px, py float64) float64 {
	return (x2-x1)*(py-y1) - (y2-y1)*(px-x1)
}

func orientation(p []float64) float64 {
	a := Area(p)
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}

// dedupe removes consecutive points closer than Epsilon, including the
// wrap-around pair.
func dedupe(p []float64) []float64 {
	if len(p) < 4 {
		return p
	}
	out := p[:2]
	for i := 2; i+1 < len(p); i += 2 {
		lx, ly := out[len(out)-2], out[len(out)-1]
		if math.Abs(p[i]-lx) <= Epsilon && math.Abs(p[i+1]-ly) <= Epsilon {
			continue
		}
		out = append(out, p[i], p[i+1])
	}
	for len(out) >= 4 &&
		math.Abs(out[0]-out[len(out)-2]) <= Epsilon && math.Abs(out[1]-out[len(out)-1]) <= Epsilon {
		out = out[:len(out)-2]
	}
	return out
}
