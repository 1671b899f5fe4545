package engine

import (
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/hittest"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	minCircleRadius = 1.0
	minFontSize     = 6.0
)

// ComputeResizedBounds moves the edges named by h to (x, y) and returns the
// normalized result. Dragging past the opposite edge flips the box rather than
// producing a negative size.
func ComputeResizedBounds(start geom.Bounds, h hittest.Handle, x, y float64) geom.Bounds {
	x1, y1, x2, y2 := start.X1, start.Y1, start.X2, start.Y2
	switch h {
	case hittest.TL:
		x1, y1 = x, y
	case hittest.TR:
		x2, y1 = x, y
	case hittest.BL:
		x1, y2 = x, y
	case hittest.BR:
		x2, y2 = x, y
	case hittest.L:
		x1 = x
	case hittest.R:
		x2 = x
	case hittest.T:
		y1 = y
	case hittest.B:
		y2 = y
	}
	return geom.FromCorners(x1, y1, x2, y2)
}

// scaleFactors returns per-axis scale from start to next. A degenerate axis keeps scale 1.
func scaleFactors(start, next geom.Bounds) (float64, float64) {
	sx, sy := 1.0, 1.0
	if start.W > 0 {
		sx = next.W / start.W
	}
	if start.H > 0 {
		sy = next.H / start.H
	}
	return sx, sy
}

// ResizeShape maps snap, captured when the gesture began inside start, into next.
// The result is a new shape carrying snap's identity. Circles keep their shape by
// scaling the radius with the mean of both axes, and text scales its font the same way.
func ResizeShape(snap shape.Shape, start, next geom.Bounds) shape.Shape {
	sx, sy := scaleFactors(start, next)
	mapX := func(x float64) float64 { return next.X1 + (x-start.X1)*sx }
	mapY := func(y float64) float64 { return next.Y1 + (y-start.Y1)*sy }
	mean := (math.Abs(sx) + math.Abs(sy)) / 2

	out := snap.Clone()
	switch v := out.(type) {
	case *shape.Rect:
		rb := geom.RectBounds(v)
		nx1, ny1 := mapX(rb.X1), mapY(rb.Y1)
		nx2, ny2 := mapX(rb.X2), mapY(rb.Y2)
		v.X, v.Y = math.Min(nx1, nx2), math.Min(ny1, ny2)
		v.Width, v.Height = math.Abs(nx2-nx1), math.Abs(ny2-ny1)
	case *shape.Circle:
		v.CenterX, v.CenterY = mapX(v.CenterX), mapY(v.CenterY)
		v.Radius = math.Max(minCircleRadius, v.Radius*mean)
	case *shape.Pencil:
		for i, p := range v.Points {
			v.Points[i] = shape.Point{X: mapX(p.X), Y: mapY(p.Y)}
		}
	case *shape.Text:
		v.X, v.Y = mapX(v.X), mapY(v.Y)
		v.FontSize = math.Max(minFontSize, v.FontSize*mean)
	}
	return out
}

// snapshot is the state captured when a move or resize begins. It is what a resize is
// computed from and what a cancelled gesture restores.
type snapshot struct {
	bounds geom.Bounds
	shapes map[string]shape.Shape
}

func (e *Engine) takeSnapshot(b geom.Bounds, indices []int) *snapshot {
	snap := &snapshot{bounds: b, shapes: make(map[string]shape.Shape, len(indices))}
	for _, i := range indices {
		s := e.shapes[i]
		snap.shapes[s.Ident().Key] = s.Clone()
	}
	return snap
}

// restore puts every snapshotted shape that still exists back to its captured state.
func (e *Engine) restore(snap *snapshot) {
	for key, s := range snap.shapes {
		if i := e.indexOf(key); i >= 0 {
			e.shapes[i] = s.Clone()
		}
	}
}

func (e *Engine) applyResize(x, y float64) {
	snap := e.g.snap
	next := ComputeResizedBounds(snap.bounds, e.g.handle, x, y)
	for key, before := range snap.shapes {
		i := e.indexOf(key)
		if i < 0 {
			continue
		}
		// Keep whatever id arrived while the gesture was running.
		id := e.shapes[i].Ident().ID
		resized := ResizeShape(before, snap.bounds, next)
		resized.Ident().ID = id
		e.shapes[i] = resized
	}
}

// applyMove drags the selection. A single shape keeps its grab offset to its anchor;
// a group moves by the pointer delta since the last event.
func (e *Engine) applyMove(x, y float64) {
	switch e.g.mode {
	case modeGroup:
		dx, dy := x-e.g.last.X, y-e.g.last.Y
		for _, i := range e.sel.Indices(e.shapes) {
			if r, ok := e.shapes[i].(*shape.Rect); ok {
				geom.NormalizeRect(r)
			}
			e.shapes[i].Translate(dx, dy)
		}
	case modeSingle:
		i, ok := e.sel.Primary(e.shapes)
		if !ok {
			return
		}
		s := e.shapes[i]
		if r, ok := s.(*shape.Rect); ok {
			geom.NormalizeRect(r)
		}
		ax, ay := s.Anchor()
		s.Translate(x-e.g.offset.X-ax, y-e.g.offset.Y-ay)
	}
	e.g.last = shape.Point{X: x, Y: y}
}
