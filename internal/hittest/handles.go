package hittest

import (
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// Handle names one of the eight resize grips of a bounding box.
type Handle string

const (
	None Handle = ""
	TL   Handle = "tl"
	TR   Handle = "tr"
	BL   Handle = "bl"
	BR   Handle = "br"
	L    Handle = "l"
	R    Handle = "r"
	T    Handle = "t"
	B    Handle = "b"
)

const (
	handleTolerance = 6.0
	axisDominance   = 1.5
)

// HandlePoint is the anchor of a handle, used when drawing the grips.
type HandlePoint struct {
	X, Y   float64
	Handle Handle
}

// HandlePoints returns the eight grip anchors of b: corners first, then edge midpoints.
func HandlePoints(b geom.Bounds) []HandlePoint {
	cx, cy := b.Center()
	return []HandlePoint{
		{b.X1, b.Y1, TL},
		{b.X2, b.Y1, TR},
		{b.X1, b.Y2, BL},
		{b.X2, b.Y2, BR},
		{cx, b.Y1, T},
		{cx, b.Y2, B},
		{b.X1, cy, L},
		{b.X2, cy, R},
	}
}

// ResizeHandleAt returns the handle under (x, y), or None. Any point within 6 units of
// an edge counts, and corners win over edges.
func ResizeHandleAt(x, y float64, b geom.Bounds) Handle {
	withinX := x >= b.X1-handleTolerance && x <= b.X2+handleTolerance
	withinY := y >= b.Y1-handleTolerance && y <= b.Y2+handleTolerance

	nearLeft := math.Abs(x-b.X1) <= handleTolerance && withinY
	nearRight := math.Abs(x-b.X2) <= handleTolerance && withinY
	nearTop := math.Abs(y-b.Y1) <= handleTolerance && withinX
	nearBottom := math.Abs(y-b.Y2) <= handleTolerance && withinX

	switch {
	case nearLeft && nearTop:
		return TL
	case nearRight && nearTop:
		return TR
	case nearLeft && nearBottom:
		return BL
	case nearRight && nearBottom:
		return BR
	case nearLeft:
		return L
	case nearRight:
		return R
	case nearTop:
		return T
	case nearBottom:
		return B
	}
	return None
}

// CircleHandleFromPoint picks the handle a drag on the circle's curved edge should act
// as: a pure edge when one axis clearly dominates, otherwise the quadrant's corner.
func CircleHandleFromPoint(x, y float64, c *shape.Circle) Handle {
	dx, dy := x-c.CenterX, y-c.CenterY
	adx, ady := math.Abs(dx), math.Abs(dy)

	if adx > ady*axisDominance {
		if dx < 0 {
			return L
		}
		return R
	}
	if ady > adx*axisDominance {
		if dy < 0 {
			return T
		}
		return B
	}

	switch {
	case dx < 0 && dy < 0:
		return TL
	case dx > 0 && dy < 0:
		return TR
	case dx < 0 && dy > 0:
		return BL
	}
	return BR
}

// Cursor maps a handle to its CSS resize cursor.
func Cursor(h Handle) string {
	switch h {
	case TL, BR:
		return "nwse-resize"
	case TR, BL:
		return "nesw-resize"
	case L, R:
		return "ew-resize"
	case T, B:
		return "ns-resize"
	}
	return "nwse-resize"
}
