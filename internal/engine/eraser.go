package engine

import (
	"math"
	"slices"

	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// touchesEraser reports whether the eraser disc at (x, y) with radius r reaches s.
// Rects and text overlap-test their bounds against the disc's box, circles compare
// centre distance with the summed radii, pencils need a vertex inside the disc.
func (e *Engine) touchesEraser(s shape.Shape, x, y, r float64) bool {
	switch v := s.(type) {
	case *shape.Rect, *shape.Text:
		b := e.hit.Bounds(v)
		return x+r > b.X1 && x-r < b.X2 && y+r > b.Y1 && y-r < b.Y2
	case *shape.Circle:
		return math.Hypot(x-v.CenterX, y-v.CenterY) < r+v.Radius
	case *shape.Pencil:
		for _, p := range v.Points {
			if math.Hypot(x-p.X, y-p.Y) < r {
				return true
			}
		}
	}
	return false
}

// markForErase adds every shape under the eraser at world (x, y) to the marked set.
func (e *Engine) markForErase(x, y float64) {
	r := e.cam.ScreenLength(e.eraserRadius)
	if e.g.marked == nil {
		e.g.marked = make(map[string]struct{})
	}
	for _, s := range e.shapes {
		if e.touchesEraser(s, x, y, r) {
			e.g.marked[s.Ident().Key] = struct{}{}
		}
	}
}

func (e *Engine) isMarked(key string) bool {
	_, ok := e.g.marked[key]
	return ok
}

// commitErase removes the marked shapes.
func (e *Engine) commitErase() {
	var indices []int
	for i, s := range e.shapes {
		if e.isMarked(s.Ident().Key) {
			indices = append(indices, i)
		}
	}
	e.g.marked = nil
	e.removeIndices(indices)
}

// removeIndices deletes the shapes at indices from the highest position down, then
// reports them to the outbox in that order with a single call.
func (e *Engine) removeIndices(indices []int) {
	if len(indices) == 0 {
		return
	}
	order := slices.Clone(indices)
	slices.Sort(order)
	order = slices.Compact(order)
	slices.Reverse(order)

	var ids []int64
	var keys []string
	for _, i := range order {
		m := e.shapes[i].Ident()
		if m.ID != 0 {
			ids = append(ids, m.ID)
		} else {
			keys = append(keys, m.Key)
		}
		delete(e.unpersisted, m.Key)
		e.shapes = slices.Delete(e.shapes, i, i+1)
	}
	e.sel.Prune(e.shapes)
	e.out.ShapesErased(ids, keys)
}
