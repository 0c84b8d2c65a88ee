// Package geom provides the floating-point board-plane geometry primitives
// shared by every other package in this module: points, axis-aligned
// rectangles, polygons, and the distance/containment queries the routing
// grid, zone fill, and analysis engines all need.
//
// Units are millimeters and degrees unless documented otherwise. Nothing in
// this package allocates a grid or touches layer information; it is pure
// Euclidean geometry, grounded on the coordinate/neighbor-offset handling in
// gridgraph but generalized from integer grid cells to continuous board
// coordinates.
package geom

import "math"

// PosTolerance is the default position tolerance (mm) used throughout this
// module when deciding whether two points "coincide".
const PosTolerance = 0.01

// Point is a location on the board plane in millimeters.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y

	return math.Sqrt(dx*dx + dy*dy)
}

// ManhattanDist returns the L1 (taxicab) distance between p and q.
func (p Point) ManhattanDist(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Near reports whether p and q coincide within tol millimeters.
func (p Point) Near(q Point, tol float64) bool {
	return p.Dist(q) <= tol
}

// Rotate returns p rotated by deg degrees counter-clockwise about origin.
// This module's pad-rotation convention treats positive degrees as
// counter-clockwise.
func (p Point) Rotate(deg float64) Point {
	rad := deg * math.Pi / 180.0
	sin, cos := math.Sin(rad), math.Cos(rad)

	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// Rect is an axis-aligned bounding box, Min inclusive, Max inclusive.
type Rect struct {
	Min, Max Point
}

// RectFromCenter builds a Rect centered at c with the given full width/height.
func RectFromCenter(c Point, w, h float64) Rect {
	return Rect{
		Min: Point{c.X - w/2, c.Y - h/2},
		Max: Point{c.X + w/2, c.Y + h/2},
	}
}

// Expand returns a copy of r grown by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		Min: Point{r.Min.X - margin, r.Min.Y - margin},
		Max: Point{r.Max.X + margin, r.Max.Y + margin},
	}
}

// Contains reports whether p lies within r (inclusive of the boundary).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Overlaps reports whether r and o share any area (touching edges count).
func (r Rect) Overlaps(o Rect) bool {
	if r.Max.X < o.Min.X || o.Max.X < r.Min.X {
		return false
	}
	if r.Max.Y < o.Min.Y || o.Max.Y < r.Min.Y {
		return false
	}

	return true
}

// Width returns Max.X - Min.X.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns Max.Y - Min.Y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Polygon is an ordered list of vertices forming a (possibly non-convex)
// simple polygon. The last vertex is implicitly connected back to the first.
type Polygon struct {
	Points []Point
}

// Empty reports whether the polygon has fewer than 3 vertices.
func (poly Polygon) Empty() bool { return len(poly.Points) < 3 }

// BoundingBox returns the axis-aligned bounding box of the polygon.
func (poly Polygon) BoundingBox() Rect {
	if len(poly.Points) == 0 {
		return Rect{}
	}
	r := Rect{Min: poly.Points[0], Max: poly.Points[0]}
	for _, p := range poly.Points[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}

	return r
}

// Contains reports whether p lies inside the polygon using half-open-edge
// ray casting. Points exactly on an edge are treated as inside, which
// maximizes connectivity capture during net-status analysis.
//
// Complexity: O(n) in the number of polygon vertices.
func (poly Polygon) Contains(p Point) bool {
	if poly.Empty() {
		return false
	}
	// First check exact boundary membership (segment containment) so the
	// inside-biased tie-break is explicit rather than accidental.
	n := len(poly.Points)
	for i := 0; i < n; i++ {
		a := poly.Points[i]
		b := poly.Points[(i+1)%n]
		if pointOnSegment(p, a, b) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := poly.Points[i]
		b := poly.Points[j]
		// Half-open edge test: include the lower endpoint, exclude the upper.
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xIntersect := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}

	return inside
}

func pointOnSegment(p, a, b Point) bool {
	const eps = 1e-9
	cross := (p.X-a.X)*(b.Y-a.Y) - (p.Y-a.Y)*(b.X-a.X)
	if math.Abs(cross) > eps {
		return false
	}
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)

	return p.X >= minX-eps && p.X <= maxX+eps && p.Y >= minY-eps && p.Y <= maxY+eps
}

// SegmentsIntersect reports whether segment p1-p2 crosses segment p3-p4.
// DistanceSegmentToSegment uses it to return 0 for crossing segments.
func SegmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := cross(p4.Sub(p3), p1.Sub(p3))
	d2 := cross(p4.Sub(p3), p2.Sub(p3))
	d3 := cross(p2.Sub(p1), p3.Sub(p1))
	d4 := cross(p2.Sub(p1), p4.Sub(p1))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && pointOnSegment(p1, p3, p4) {
		return true
	}
	if d2 == 0 && pointOnSegment(p2, p3, p4) {
		return true
	}
	if d3 == 0 && pointOnSegment(p3, p1, p2) {
		return true
	}
	if d4 == 0 && pointOnSegment(p4, p1, p2) {
		return true
	}

	return false
}

func cross(a, b Point) float64 { return a.X*b.Y - a.Y*b.X }

// DistancePointToSegment returns the shortest Euclidean distance from p to
// the segment a-b. DistanceSegmentToSegment is built from it.
func DistancePointToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	abLen2 := ab.X*ab.X + ab.Y*ab.Y
	if abLen2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / abLen2
	t = math.Max(0, math.Min(1, t))
	proj := Point{a.X + t*ab.X, a.Y + t*ab.Y}

	return p.Dist(proj)
}

// DistanceSegmentToSegment returns the minimum Euclidean distance between
// segments a1-a2 and b1-b2 (0 if they intersect).
func DistanceSegmentToSegment(a1, a2, b1, b2 Point) float64 {
	if SegmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	d1 := DistancePointToSegment(a1, b1, b2)
	d2 := DistancePointToSegment(a2, b1, b2)
	d3 := DistancePointToSegment(b1, a1, a2)
	d4 := DistancePointToSegment(b2, a1, a2)

	return math.Min(math.Min(d1, d2), math.Min(d3, d4))
}

// Round rounds v to n decimal places. The analysis packages apply it to
// report fields (2-3 decimal places, 1 for impedances and temperatures) as
// they build each report, so the report values they return are already
// rounded before any serialization.
func Round(v float64, n int) float64 {
	p := math.Pow(10, float64(n))

	return math.Round(v*p) / p
}
