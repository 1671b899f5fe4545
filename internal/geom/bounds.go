package geom

import (
	"errors"
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// ErrNoMeasurer is returned when text bounds are requested without a measurement context.
var ErrNoMeasurer = errors.New("geom: text bounds need a measurer")

// Bounds is an axis-aligned bounding box with X1 <= X2 and Y1 <= Y2.
type Bounds struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// FromCorners builds normalized bounds from two arbitrary corners.
func FromCorners(ax, ay, bx, by float64) Bounds {
	x1, x2 := math.Min(ax, bx), math.Max(ax, bx)
	y1, y2 := math.Min(ay, by), math.Max(ay, by)
	return Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2, W: x2 - x1, H: y2 - y1}
}

// Union returns the smallest bounds containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return FromCorners(math.Min(b.X1, o.X1), math.Min(b.Y1, o.Y1), math.Max(b.X2, o.X2), math.Max(b.Y2, o.Y2))
}

// Expand grows b by d on every side. Negative d shrinks it.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{X1: b.X1 - d, Y1: b.Y1 - d, X2: b.X2 + d, Y2: b.Y2 + d, W: b.W + 2*d, H: b.H + 2*d}
}

func (b Bounds) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// PointInBounds is an inclusive range test with an optional tolerance.
func PointInBounds(x, y float64, b Bounds, tol float64) bool {
	return x >= b.X1-tol && x <= b.X2+tol && y >= b.Y1-tol && y <= b.Y2+tol
}

func RectBounds(r *shape.Rect) Bounds {
	return FromCorners(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func CircleBounds(c *shape.Circle) Bounds {
	x1, x2 := c.CenterX-c.Radius, c.CenterX+c.Radius
	y1, y2 := c.CenterY-c.Radius, c.CenterY+c.Radius
	return Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2, W: x2 - x1, H: y2 - y1}
}

// PencilBounds folds min/max over the points. An empty stroke yields a zero box at the origin.
func PencilBounds(p *shape.Pencil) Bounds {
	if len(p.Points) == 0 {
		return Bounds{}
	}
	x1, y1 := p.Points[0].X, p.Points[0].Y
	x2, y2 := x1, y1
	for _, pt := range p.Points[1:] {
		x1 = math.Min(x1, pt.X)
		y1 = math.Min(y1, pt.Y)
		x2 = math.Max(x2, pt.X)
		y2 = math.Max(y2, pt.Y)
	}
	return Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2, W: x2 - x1, H: y2 - y1}
}

// TextBounds is width = measured string width, height = font size, origin top-left.
func TextBounds(t *shape.Text, m Measurer) (Bounds, error) {
	if m == nil {
		return Bounds{}, ErrNoMeasurer
	}
	w := m.Measure(t.Text, t.FontSize)
	return Bounds{X1: t.X, Y1: t.Y, X2: t.X + w, Y2: t.Y + t.FontSize, W: w, H: t.FontSize}, nil
}

// BoundsOf computes the axis-aligned bounds of any shape. m is only consulted for text.
func BoundsOf(s shape.Shape, m Measurer) (Bounds, error) {
	switch v := s.(type) {
	case *shape.Rect:
		return RectBounds(v), nil
	case *shape.Circle:
		return CircleBounds(v), nil
	case *shape.Pencil:
		return PencilBounds(v), nil
	case *shape.Text:
		return TextBounds(v, m)
	}
	return Bounds{}, nil
}

// UnionBounds folds BoundsOf over shapes. ok is false when shapes is empty.
func UnionBounds(shapes []shape.Shape, m Measurer) (b Bounds, ok bool, err error) {
	for _, s := range shapes {
		sb, err := BoundsOf(s, m)
		if err != nil {
			return Bounds{}, false, err
		}
		if !ok {
			b, ok = sb, true
			continue
		}
		b = b.Union(sb)
	}
	return b, ok, nil
}

// NormalizeRect rewrites r so that Width and Height are non-negative. It is idempotent.
func NormalizeRect(r *shape.Rect) {
	b := RectBounds(r)
	r.X, r.Y, r.Width, r.Height = b.X1, b.Y1, b.W, b.H
}
