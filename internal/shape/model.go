package shape

import (
	"math"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindPencil Kind = "pencil"
	KindText   Kind = "text"
)

// Meta carries the identity shared by every shape variant.
//
// ID is assigned by the backing store and is zero until the create call returns.
// Key is generated locally when the shape is created and never changes; it is the
// identifier selection and remote updates fall back to while ID is still zero.
type Meta struct {
	ID  int64  `json:"id,omitempty"`
	Key string `json:"key,omitempty"`
}

// Ident exposes the shared identity through the Shape interface.
func (m *Meta) Ident() *Meta { return m }

// NewKey returns a fresh local key.
func NewKey() string { return uuid.NewString() }

// Shape is one drawable primitive. The concrete types are *Rect, *Circle, *Pencil and *Text.
type Shape interface {
	Kind() Kind
	Ident() *Meta
	// Clone returns a deep copy.
	Clone() Shape
	// Translate moves the shape by (dx, dy) in world units.
	Translate(dx, dy float64)
	// Anchor is the point a single-shape drag keeps at a fixed offset from the pointer.
	Anchor() (float64, float64)

	isShape()
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect has a corner at (X, Y). Width and Height may be negative while a drag is in progress.
type Rect struct {
	Meta
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Circle struct {
	Meta
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}

// Pencil is a freehand stroke. Fewer than two points draw nothing.
type Pencil struct {
	Meta
	Points []Point `json:"points"`
}

// Text is anchored at its top-left corner.
type Text struct {
	Meta
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
}

func (*Rect) Kind() Kind   { return KindRect }
func (*Circle) Kind() Kind { return KindCircle }
func (*Pencil) Kind() Kind { return KindPencil }
func (*Text) Kind() Kind   { return KindText }

func (*Rect) isShape()   {}
func (*Circle) isShape() {}
func (*Pencil) isShape() {}
func (*Text) isShape()   {}

func (r *Rect) Clone() Shape {
	c := *r
	return &c
}

func (c *Circle) Clone() Shape {
	cp := *c
	return &cp
}

func (p *Pencil) Clone() Shape {
	cp := *p
	cp.Points = append([]Point(nil), p.Points...)
	return &cp
}

func (t *Text) Clone() Shape {
	cp := *t
	return &cp
}

func (r *Rect) Translate(dx, dy float64) {
	r.X += dx
	r.Y += dy
}

func (c *Circle) Translate(dx, dy float64) {
	c.CenterX += dx
	c.CenterY += dy
}

func (p *Pencil) Translate(dx, dy float64) {
	for i := range p.Points {
		p.Points[i].X += dx
		p.Points[i].Y += dy
	}
}

func (t *Text) Translate(dx, dy float64) {
	t.X += dx
	t.Y += dy
}

func (r *Rect) Anchor() (float64, float64) {
	return math.Min(r.X, r.X+r.Width), math.Min(r.Y, r.Y+r.Height)
}

func (c *Circle) Anchor() (float64, float64) { return c.CenterX, c.CenterY }

func (p *Pencil) Anchor() (float64, float64) {
	if len(p.Points) == 0 {
		return 0, 0
	}
	x, y := p.Points[0].X, p.Points[0].Y
	for _, pt := range p.Points[1:] {
		x = math.Min(x, pt.X)
		y = math.Min(y, pt.Y)
	}
	return x, y
}

func (t *Text) Anchor() (float64, float64) { return t.X, t.Y }

// Same reports whether a and b refer to the same logical shape: equal non-zero ids,
// or equal non-empty keys.
func Same(a, b *Meta) bool {
	if a.ID != 0 && b.ID != 0 {
		return a.ID == b.ID
	}
	return a.Key != "" && a.Key == b.Key
}
