package engine

import (
	"math"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// curveSamples is the number of segments used to approximate a link curve
// when measuring distance to it.
const curveSamples = 32

// Rect represents an axis-aligned box in world space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeRect returns the world-space rectangle occupied by n.
func NodeRect(n document.Node) Rect {
	return Rect{X: n.Position.X, Y: n.Position.Y, Width: n.Size.Width, Height: n.Size.Height}
}

// Contains checks if a point is inside the rect. Edges count as inside.
func (r Rect) Contains(p document.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inflate grows r by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) Center() document.Point {
	return document.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// BottomCenter is the anchor a link leaves its source node from.
func (r Rect) BottomCenter() document.Point {
	return document.Point{X: r.X + r.Width/2, Y: r.Y + r.Height}
}

// TopCenter is the anchor a link enters its target node at.
func (r Rect) TopCenter() document.Point {
	return document.Point{X: r.X + r.Width/2, Y: r.Y}
}

// RectContains reports whether p lies inside r.
func RectContains(r Rect, p document.Point) bool {
	return r.Contains(p)
}

// WorldToScreen converts a world point to screen space: world*zoom + pan.
func WorldToScreen(p document.Point, vp document.Viewport) document.Point {
	return ViewMatrix(vp).Apply(p)
}

// ScreenToWorld converts a screen point to world space:
// (screen + scrollOffset - pan) / zoom.
func ScreenToWorld(p document.Point, vp document.Viewport, scroll document.Point) document.Point {
	return ViewMatrix(vp).Invert().Apply(document.Point{X: p.X + scroll.X, Y: p.Y + scroll.Y})
}

// Curve is a cubic bezier from Start to End with control points C1 and C2.
type Curve struct {
	Start document.Point `json:"start"`
	C1    document.Point `json:"c1"`
	C2    document.Point `json:"c2"`
	End   document.Point `json:"end"`
}

// ConnectionPath routes a link from the bottom-center of source to the
// top-center of target. The control points sit a third of the vertical gap
// below the start and above the end, so vertically aligned nodes get a
// straight line and offset nodes get an S-curve.
func ConnectionPath(source, target Rect) Curve {
	return curveBetween(source.BottomCenter(), target.TopCenter())
}

func curveBetween(start, end document.Point) Curve {
	offset := math.Abs(end.Y-start.Y) / 3
	return Curve{
		Start: start,
		C1:    document.Point{X: start.X, Y: start.Y + offset},
		C2:    document.Point{X: end.X, Y: end.Y - offset},
		End:   end,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) document.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return document.Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

// Midpoint is the midpoint of the straight line between the anchors.
func (c Curve) Midpoint() document.Point {
	return document.Point{X: (c.Start.X + c.End.X) / 2, Y: (c.Start.Y + c.End.Y) / 2}
}

// LabelAnchor places a link label above the anchor midpoint.
func (c Curve) LabelAnchor(offset float64) document.Point {
	m := c.Midpoint()
	m.Y -= offset
	return m
}

// DistanceTo approximates the shortest distance from p to the curve by
// measuring against a polyline of curveSamples segments.
func (c Curve) DistanceTo(p document.Point) float64 {
	best := math.Inf(1)
	prev := c.Start
	for i := 1; i <= curveSamples; i++ {
		next := c.At(float64(i) / curveSamples)
		if d := segmentDistance(p, prev, next); d < best {
			best = d
		}
		prev = next
	}
	return best
}

// Bounds returns the bounding box of the curve's control polygon, which
// contains the whole curve.
func (c Curve) Bounds() Rect {
	minX := min(c.Start.X, c.C1.X, c.C2.X, c.End.X)
	minY := min(c.Start.Y, c.C1.Y, c.C2.Y, c.End.Y)
	maxX := max(c.Start.X, c.C1.X, c.C2.X, c.End.X)
	maxY := max(c.Start.Y, c.C1.Y, c.C2.Y, c.End.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func segmentDistance(p, a, b document.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
