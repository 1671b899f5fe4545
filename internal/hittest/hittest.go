// Package hittest answers the pointer queries the selection tools need: is a point
// inside a shape, on its outline, inside a marquee, or on a resize handle.
package hittest

import (
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	// outlineTolerance is the widest ring, in world units, counted as an outline hit.
	outlineTolerance = 6.0
	// pencilTolerance is how close to a stroke a point must be to hit it.
	pencilTolerance = 10.0
	// circleOutlineTolerance is the band around a circle's true edge.
	circleOutlineTolerance = 6.0
)

// Tester runs hit queries against shapes. Text shapes need its measurer.
type Tester struct {
	m geom.Measurer
}

// New returns a Tester. It fails when m is nil, since text hits cannot be answered without it.
func New(m geom.Measurer) (*Tester, error) {
	if m == nil {
		return nil, geom.ErrNoMeasurer
	}
	return &Tester{m: m}, nil
}

// Measurer returns the measurement context the tester was built with.
func (t *Tester) Measurer() geom.Measurer { return t.m }

// Bounds returns the bounds of s. It cannot fail because the measurer is non-nil.
func (t *Tester) Bounds(s shape.Shape) geom.Bounds {
	b, err := geom.BoundsOf(s, t.m)
	if err != nil {
		panic(err)
	}
	return b
}

// PointInShape tests solid containment. Pencil strokes count as hit within 10 units of
// any vertex; segments in between are not considered.
func (t *Tester) PointInShape(x, y float64, s shape.Shape) bool {
	switch v := s.(type) {
	case *shape.Rect, *shape.Text:
		return geom.PointInBounds(x, y, t.Bounds(v), 0)
	case *shape.Circle:
		return math.Hypot(x-v.CenterX, y-v.CenterY) <= v.Radius
	case *shape.Pencil:
		for _, p := range v.Points {
			if math.Hypot(x-p.X, y-p.Y) < pencilTolerance {
				return true
			}
		}
	}
	return false
}

// RingTolerance shrinks the outline tolerance for small boxes so interior clicks on
// small shapes are not read as outline hits.
func RingTolerance(w, h float64) float64 {
	return math.Min(outlineTolerance, math.Max(1, math.Min(w, h)/2-1))
}

func onRing(x, y float64, b geom.Bounds) bool {
	tol := RingTolerance(b.W, b.H)
	if !geom.PointInBounds(x, y, b, tol) {
		return false
	}
	innerExists := b.W > 2*tol && b.H > 2*tol
	inInner := innerExists &&
		x >= b.X1+tol && x <= b.X2-tol &&
		y >= b.Y1+tol && y <= b.Y2-tol
	return !inInner
}

// PointOnOutline tests whether (x, y) grabs the shape's outline. Rects, circles and text
// use a ring around their bounds; pencil strokes use distance to each segment.
func (t *Tester) PointOnOutline(x, y float64, s shape.Shape) bool {
	switch v := s.(type) {
	case *shape.Rect, *shape.Circle, *shape.Text:
		return onRing(x, y, t.Bounds(v))
	case *shape.Pencil:
		switch len(v.Points) {
		case 0:
			return false
		case 1:
			return math.Hypot(x-v.Points[0].X, y-v.Points[0].Y) <= pencilTolerance
		}
		for i := 1; i < len(v.Points); i++ {
			a, b := v.Points[i-1], v.Points[i]
			if DistanceToSegment(x, y, a.X, a.Y, b.X, b.Y) <= pencilTolerance {
				return true
			}
		}
	}
	return false
}

// DistanceToSegment returns the distance from p to the segment ab.
func DistanceToSegment(px, py, ax, ay, bx, by float64) float64 {
	abx, aby := bx-ax, by-ay
	apx, apy := px-ax, py-ay
	abLen2 := abx*abx + aby*aby
	if abLen2 == 0 {
		return math.Hypot(apx, apy)
	}
	u := (apx*abx + apy*aby) / abLen2
	u = math.Max(0, math.Min(1, u))
	return math.Hypot(px-(ax+u*abx), py-(ay+u*aby))
}

// ShapeInBox reports whether s belongs to a marquee selection. The box may have
// negative width or height. Rects and text overlap-test their bounds, circles need
// their centre inside, pencils need any vertex inside.
func (t *Tester) ShapeInBox(s shape.Shape, boxX, boxY, boxW, boxH float64) bool {
	box := geom.FromCorners(boxX, boxY, boxX+boxW, boxY+boxH)

	switch v := s.(type) {
	case *shape.Rect, *shape.Text:
		b := t.Bounds(v)
		return !(b.X2 < box.X1 || b.X1 > box.X2 || b.Y2 < box.Y1 || b.Y1 > box.Y2)
	case *shape.Circle:
		return geom.PointInBounds(v.CenterX, v.CenterY, box, 0)
	case *shape.Pencil:
		for _, p := range v.Points {
			if geom.PointInBounds(p.X, p.Y, box, 0) {
				return true
			}
		}
	}
	return false
}

// PointOnCircleOutline tests the band around the circle's true curved edge.
func PointOnCircleOutline(x, y float64, c *shape.Circle) bool {
	d := math.Hypot(x-c.CenterX, y-c.CenterY)
	return math.Abs(d-c.Radius) <= circleOutlineTolerance
}
