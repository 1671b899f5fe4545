package engine

import (
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/hittest"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// minBoxSelect is the marquee size, in screen pixels, below which a drag counts as a click.
const minBoxSelect = 4.0

// PointerEvent is a pointer position in canvas-relative screen pixels.
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WheelEvent is a wheel or trackpad scroll. Ctrl is set for pinch-zoom and ctrl+wheel.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrl"`
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gestureDraw
	gestureBox
	gestureMove
	gestureResize
	gestureErase
)

type moveMode int

const (
	modeSingle moveMode = iota
	modeGroup
)

type gestureState struct {
	kind   gestureKind
	mode   moveMode
	handle hittest.Handle

	start  shape.Point // world position at pointer-down
	last   shape.Point // world position at the previous event
	offset shape.Point // pointer minus anchor, for single moves

	panX, panY float64 // screen position at pointer-down
	camX, camY float64
	snap       *snapshot
	changed    bool
	pencil     []shape.Point
	marked     map[string]struct{}
}

// PointerDown starts a gesture for the active tool.
func (e *Engine) PointerDown(ev PointerEvent) {
	defer e.touch()
	e.pointer, e.pointerIn = shape.Point{X: ev.X, Y: ev.Y}, true
	wx, wy := e.cam.ScreenToWorld(ev.X, ev.Y)

	switch e.tool {
	case ToolPan:
		e.text.Teardown()
		e.sel.Clear()
		e.g = gestureState{kind: gesturePan, panX: ev.X, panY: ev.Y, camX: e.cam.X, camY: e.cam.Y}
		e.cursor = "grabbing"
		return
	case ToolText:
		e.text.Begin(ev.X, ev.Y, wx, wy, e.cam.Scale)
		e.g = gestureState{}
		return
	}

	p := shape.Point{X: wx, Y: wy}
	e.g = gestureState{start: p, last: p}

	switch e.tool {
	case ToolEraser:
		e.g.kind = gestureErase
		e.markForErase(wx, wy)
	case ToolRectangle, ToolCircle:
		e.g.kind = gestureDraw
	case ToolPencil:
		e.g.kind = gestureDraw
		e.g.pencil = []shape.Point{p}
	case ToolSelection:
		e.beginSelect(wx, wy)
	}
}

// beginSelect decides between resize, move and marquee. Handles of the current
// selection win over its interior, and the interior wins over other shapes.
func (e *Engine) beginSelect(x, y float64) {
	idx := e.sel.Indices(e.shapes)

	if len(idx) > 1 {
		b := e.boundsOf(idx)
		if h := hittest.ResizeHandleAt(x, y, b); h != hittest.None {
			e.beginResize(modeGroup, h, b, idx)
			return
		}
		if geom.PointInBounds(x, y, b, 0) {
			e.beginMove(modeGroup, x, y, idx)
			return
		}
	}

	if len(idx) == 1 {
		if p, ok := e.sel.Primary(e.shapes); ok {
			s := e.shapes[p]
			b := e.hit.Bounds(s)
			if h := hittest.ResizeHandleAt(x, y, b); h != hittest.None {
				e.beginResize(modeSingle, h, b, idx)
				return
			}
			if c, ok := s.(*shape.Circle); ok && hittest.PointOnCircleOutline(x, y, c) {
				e.beginResize(modeSingle, hittest.CircleHandleFromPoint(x, y, c), b, idx)
				return
			}
			if geom.PointInBounds(x, y, b, 0) {
				e.beginMove(modeSingle, x, y, idx)
				return
			}
		}
	}

	for i := len(e.shapes) - 1; i >= 0; i-- {
		s := e.shapes[i]
		if e.sel.Has(s.Ident().Key) || !e.hit.PointOnOutline(x, y, s) {
			continue
		}
		e.sel.SelectSingle(s.Ident().Key)
		e.beginMove(modeSingle, x, y, []int{i})
		return
	}

	e.sel.Clear()
	e.g.kind = gestureBox
}

func (e *Engine) boundsOf(indices []int) geom.Bounds {
	var b geom.Bounds
	for n, i := range indices {
		sb := e.hit.Bounds(e.shapes[i])
		if n == 0 {
			b = sb
		} else {
			b = b.Union(sb)
		}
	}
	return b
}

func (e *Engine) beginResize(mode moveMode, h hittest.Handle, b geom.Bounds, indices []int) {
	e.g.kind = gestureResize
	e.g.mode = mode
	e.g.handle = h
	e.g.snap = e.takeSnapshot(b, indices)
	e.cursor = hittest.Cursor(h)
}

func (e *Engine) beginMove(mode moveMode, x, y float64, indices []int) {
	e.g.kind = gestureMove
	e.g.mode = mode
	e.g.snap = e.takeSnapshot(e.boundsOf(indices), indices)
	if mode == modeSingle {
		s := e.shapes[indices[0]]
		if r, ok := s.(*shape.Rect); ok {
			geom.NormalizeRect(r)
		}
		ax, ay := s.Anchor()
		e.g.offset = shape.Point{X: x - ax, Y: y - ay}
	}
	e.cursor = "move"
}

// PointerMove advances the active gesture, or updates the hover cursor when idle.
func (e *Engine) PointerMove(ev PointerEvent) {
	e.pointer, e.pointerIn = shape.Point{X: ev.X, Y: ev.Y}, true
	wx, wy := e.cam.ScreenToWorld(ev.X, ev.Y)

	switch e.g.kind {
	case gestureNone:
		if c := e.hoverCursor(wx, wy); c != e.cursor || e.tool == ToolEraser {
			e.cursor = c
			e.touch()
		}
		return
	case gesturePan:
		e.cam.X = e.g.camX + (ev.X - e.g.panX)
		e.cam.Y = e.g.camY + (ev.Y - e.g.panY)
	case gestureResize:
		e.applyResize(wx, wy)
		e.g.changed = true
	case gestureMove:
		e.applyMove(wx, wy)
		e.g.changed = true
	case gestureDraw:
		if e.tool == ToolPencil {
			e.g.pencil = append(e.g.pencil, shape.Point{X: wx, Y: wy})
		}
	case gestureErase:
		e.markForErase(wx, wy)
	}
	e.g.last = shape.Point{X: wx, Y: wy}
	e.touch()
}

// PointerUp completes the active gesture and hands finished mutations to the outbox.
func (e *Engine) PointerUp(ev PointerEvent) {
	defer e.touch()
	wx, wy := e.cam.ScreenToWorld(ev.X, ev.Y)
	g := e.g
	e.g = gestureState{}
	cursor := ""

	switch g.kind {
	case gesturePan:
	case gestureDraw:
		e.finishDraw(g, wx, wy)
	case gestureBox:
		cursor = e.finishBox(g, wx, wy)
	case gestureMove, gestureResize:
		if !g.changed {
			break
		}
		if g.mode == modeGroup {
			e.emitUpdated(e.sel.Indices(e.shapes))
		} else if i, ok := e.sel.Primary(e.shapes); ok {
			e.emitUpdated([]int{i})
		}
	case gestureErase:
		e.g.marked = g.marked
		e.commitErase()
	}
	if cursor == "" {
		cursor = e.hoverCursor(wx, wy)
	}
	e.cursor = cursor
}

// PointerLeave hides the eraser ring.
func (e *Engine) PointerLeave() {
	e.pointerIn = false
	e.touch()
}

func (e *Engine) finishDraw(g gestureState, x, y float64) {
	var s shape.Shape
	switch e.tool {
	case ToolRectangle:
		r := &shape.Rect{X: g.start.X, Y: g.start.Y, Width: x - g.start.X, Height: y - g.start.Y}
		geom.NormalizeRect(r)
		if r.Width == 0 && r.Height == 0 {
			return
		}
		s = r
	case ToolCircle:
		radius := math.Hypot(x-g.start.X, y-g.start.Y)
		if radius == 0 {
			return
		}
		s = &shape.Circle{CenterX: g.start.X, CenterY: g.start.Y, Radius: radius}
	case ToolPencil:
		pts := g.pencil
		if last := pts[len(pts)-1]; last.X != x || last.Y != y {
			pts = append(pts, shape.Point{X: x, Y: y})
		}
		if len(pts) < 2 {
			return
		}
		s = &shape.Pencil{Points: pts}
	default:
		return
	}
	e.emitCreated(s)
}

// finishBox selects what the marquee touched and returns the cursor for the release
// point over the new primary shape, or "" when nothing was selected.
func (e *Engine) finishBox(g gestureState, x, y float64) string {
	w, h := x-g.start.X, y-g.start.Y
	threshold := e.cam.ScreenLength(minBoxSelect)
	if math.Abs(w) < threshold && math.Abs(h) < threshold {
		e.sel.Clear()
		return ""
	}
	var hits []int
	for i, s := range e.shapes {
		if e.hit.ShapeInBox(s, g.start.X, g.start.Y, w, h) {
			hits = append(hits, i)
		}
	}
	e.sel.SelectMany(e.shapes, hits)

	p, ok := e.sel.Primary(e.shapes)
	if !ok {
		return ""
	}
	s := e.shapes[p]
	if hd := hittest.ResizeHandleAt(x, y, e.hit.Bounds(s)); hd != hittest.None {
		return hittest.Cursor(hd)
	}
	if e.hit.PointInShape(x, y, s) {
		return "move"
	}
	return "default"
}

// cancelGesture abandons the gesture in progress, restoring shapes a move or resize
// had already changed.
func (e *Engine) cancelGesture() {
	if e.g.snap != nil {
		e.restore(e.g.snap)
	}
	e.g = gestureState{}
}

// Wheel pans, or zooms about the cursor when Ctrl is held. It is ignored while the
// text editor is open.
func (e *Engine) Wheel(ev WheelEvent) {
	if e.text.Active() {
		return
	}
	if ev.Ctrl {
		e.cam.WheelZoom(ev.X, ev.Y, ev.DeltaY)
	} else {
		e.cam.PanBy(-ev.DeltaX, -ev.DeltaY)
	}
	e.touch()
}

// KeyDown handles keyboard input. The text editor gets first refusal; otherwise
// Delete and Backspace erase the selection and Escape drops it.
func (e *Engine) KeyDown(key string) bool {
	if e.text.Active() {
		handled := e.text.Key(key)
		if handled {
			e.touch()
		}
		return handled
	}
	switch key {
	case "Delete", "Backspace":
		if e.sel.Len() == 0 || e.g.kind != gestureNone {
			return false
		}
		e.removeIndices(e.sel.Indices(e.shapes))
		e.sel.Clear()
	case "Escape":
		e.cancelGesture()
		e.sel.Clear()
	default:
		return false
	}
	e.touch()
	return true
}

// TextInput forwards the inline editor's current value.
func (e *Engine) TextInput(value string) {
	e.text.Input(value)
	e.touch()
}

// TextBlur commits the inline editor, as focus loss does.
func (e *Engine) TextBlur() {
	e.text.Blur()
	e.touch()
}

func (e *Engine) commitText(t *shape.Text) {
	e.emitCreated(t)
}

// hoverCursor picks the cursor for an idle pointer at world (x, y).
func (e *Engine) hoverCursor(x, y float64) string {
	if e.tool != ToolSelection {
		return e.idleCursor()
	}

	if idx := e.sel.Indices(e.shapes); len(idx) > 1 {
		b := e.boundsOf(idx)
		if h := hittest.ResizeHandleAt(x, y, b); h != hittest.None {
			return hittest.Cursor(h)
		}
		if geom.PointInBounds(x, y, b, 0) {
			return "move"
		}
	}

	if p, ok := e.sel.Primary(e.shapes); ok {
		s := e.shapes[p]
		b := e.hit.Bounds(s)
		if h := hittest.ResizeHandleAt(x, y, b); h != hittest.None {
			return hittest.Cursor(h)
		}
		if c, ok := s.(*shape.Circle); ok && hittest.PointOnCircleOutline(x, y, c) {
			return hittest.Cursor(hittest.CircleHandleFromPoint(x, y, c))
		}
		if geom.PointInBounds(x, y, b, 0) {
			return "move"
		}
	}

	for i := len(e.shapes) - 1; i >= 0; i-- {
		if e.hit.PointOnOutline(x, y, e.shapes[i]) {
			return "move"
		}
	}
	return "default"
}

func (e *Engine) idleCursor() string {
	switch e.tool {
	case ToolPan:
		return "grab"
	case ToolText:
		return "text"
	case ToolEraser:
		return "none"
	case ToolSelection:
		return "default"
	}
	return "crosshair"
}
