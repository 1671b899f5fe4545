package engine

import (
	"errors"
	"log/slog"

	"github.com/nisshchayarathi/drawing-app/internal/camera"
	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/hittest"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolSelection Tool = "selection"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolPencil    Tool = "pencil"
	ToolEraser    Tool = "eraser"
	ToolPan       Tool = "pan"
	ToolText      Tool = "text"
)

const (
	DefaultEraserRadius = 20.0
	DefaultTextSize     = 24.0
)

// ErrUnknownTool is returned by SetTool for names outside the tool set.
var ErrUnknownTool = errors.New("engine: unknown tool")

// Outbox receives completed local mutations. Every shape handed to it is a deep copy,
// so implementations may keep it and use it from other goroutines.
type Outbox interface {
	// ShapeCreated is called once per new shape.
	ShapeCreated(s shape.Shape)
	// ShapesUpdated is called when a move or resize is released, one entry per shape.
	ShapesUpdated(shapes []shape.Shape)
	// ShapesErased is called once per erase commit with the persisted ids of the removed
	// shapes and the keys of those that had no id yet.
	ShapesErased(ids []int64, keys []string)
	// ShapeIdentified is called when a locally created shape learns its persisted id.
	// changed reports whether it was edited while the id was outstanding.
	ShapeIdentified(s shape.Shape, changed bool)
}

// Options configures an Engine.
type Options struct {
	// Measurer measures text. Required.
	Measurer geom.Measurer
	Outbox   Outbox
	Logger   *slog.Logger
	// EraserRadius is the eraser size in screen pixels.
	EraserRadius float64
	// TextSize is the world font size of new text shapes.
	TextSize float64
}

// Engine is the client-side drawing engine: it owns the shape list, the camera, the
// selection and the gesture state machine, and turns pointer input into mutations.
//
// An Engine is not safe for concurrent use; one goroutine must own it.
type Engine struct {
	log *slog.Logger
	hit *hittest.Tester
	out Outbox
	cam *camera.Camera

	tool   Tool
	shapes []shape.Shape
	sel    Selection
	text   *TextEditor

	g gestureState

	// Last pointer position in screen pixels, for the eraser ring.
	pointer   shape.Point
	pointerIn bool

	// Keys of locally created shapes still waiting for a persisted id, mapped to
	// whether they were edited in the meantime.
	unpersisted map[string]bool

	eraserRadius float64
	cursor       string
	version      uint64
}

// New creates an engine with the selection tool active.
func New(opts Options) (*Engine, error) {
	hit, err := hittest.New(opts.Measurer)
	if err != nil {
		return nil, err
	}
	if opts.Outbox == nil {
		opts.Outbox = nopOutbox{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EraserRadius <= 0 {
		opts.EraserRadius = DefaultEraserRadius
	}
	if opts.TextSize <= 0 {
		opts.TextSize = DefaultTextSize
	}

	e := &Engine{
		log:          opts.Logger,
		hit:          hit,
		out:          opts.Outbox,
		cam:          camera.New(),
		tool:         ToolSelection,
		unpersisted:  make(map[string]bool),
		eraserRadius: opts.EraserRadius,
		cursor:       "default",
	}
	e.text = newTextEditor(opts.Measurer, opts.TextSize, e.commitText)
	return e, nil
}

// SetTool switches tools. Any gesture in progress is cancelled, and switching to pan
// or text clears the selection.
func (e *Engine) SetTool(t Tool) error {
	switch t {
	case ToolSelection, ToolRectangle, ToolCircle, ToolPencil, ToolEraser, ToolPan, ToolText:
	default:
		return ErrUnknownTool
	}

	e.cancelGesture()
	e.text.Teardown()
	if t == ToolPan || t == ToolText {
		e.sel.Clear()
	}
	e.tool = t
	e.cursor = e.idleCursor()
	e.touch()
	return nil
}

func (e *Engine) Tool() Tool { return e.tool }

// Camera returns a copy of the current camera.
func (e *Engine) Camera() camera.Camera { return *e.cam }

// SetCamera replaces the camera; the scale is clamped.
func (e *Engine) SetCamera(c camera.Camera) {
	c.Scale = camera.Clamp(c.Scale)
	*e.cam = c
	e.touch()
}

// Shapes returns deep copies of the shapes in paint order.
func (e *Engine) Shapes() []shape.Shape {
	out := make([]shape.Shape, len(e.shapes))
	for i, s := range e.shapes {
		out[i] = s.Clone()
	}
	return out
}

// SelectedIndices returns the current positions of the selected shapes, ascending.
func (e *Engine) SelectedIndices() []int { return e.sel.Indices(e.shapes) }

// Primary returns the position of the primary selected shape.
func (e *Engine) Primary() (int, bool) { return e.sel.Primary(e.shapes) }

// Cursor is the CSS cursor the host should show.
func (e *Engine) Cursor() string { return e.cursor }

// Version increases on every state change; hosts redraw when it moves.
func (e *Engine) Version() uint64 { return e.version }

// TextOverlay describes the inline text input the host should display, if any.
func (e *Engine) TextOverlay() (Overlay, bool) { return e.text.Overlay() }

func (e *Engine) touch() { e.version++ }

func (e *Engine) indexOf(key string) int {
	for i, s := range e.shapes {
		if s.Ident().Key == key {
			return i
		}
	}
	return -1
}

func (e *Engine) indexOfMeta(m *shape.Meta) int {
	for i, s := range e.shapes {
		if shape.Same(s.Ident(), m) {
			return i
		}
	}
	return -1
}

func ensureKey(s shape.Shape) {
	if s.Ident().Key == "" {
		s.Ident().Key = shape.NewKey()
	}
}

// --- Board: mutations arriving from the sync layer ---

// Load replaces the whole shape list, typically with the persisted room contents.
func (e *Engine) Load(shapes []shape.Shape) {
	e.cancelGesture()
	e.sel.Clear()
	e.shapes = e.shapes[:0]
	for _, s := range shapes {
		ensureKey(s)
		e.shapes = append(e.shapes, s)
	}
	e.touch()
}

// AddShape appends a shape created elsewhere. Duplicates of a shape already on the
// board are ignored and reported as false.
func (e *Engine) AddShape(s shape.Shape) bool {
	if e.indexOfMeta(s.Ident()) >= 0 {
		return false
	}
	ensureKey(s)
	e.shapes = append(e.shapes, s)
	e.touch()
	return true
}

// EraseShapes removes every shape whose id or key is listed and returns how many went.
func (e *Engine) EraseShapes(ids []int64, keys []string) int {
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	kept := e.shapes[:0]
	removed := 0
	for _, s := range e.shapes {
		m := s.Ident()
		_, byID := idSet[m.ID]
		_, byKey := keySet[m.Key]
		if (m.ID != 0 && byID) || (m.Key != "" && byKey) {
			removed++
			e.forget(m.Key)
			continue
		}
		kept = append(kept, s)
	}
	clear(e.shapes[len(kept):])
	e.shapes = kept
	if removed > 0 {
		e.sel.Prune(e.shapes)
		e.touch()
	}
	return removed
}

// ReplaceShape overwrites the shape with the same id (or key, while it has no id).
// It reports false when nothing matched.
func (e *Engine) ReplaceShape(s shape.Shape) bool {
	i := e.indexOfMeta(s.Ident())
	if i < 0 {
		return false
	}
	old := e.shapes[i].Ident()
	if s.Ident().Key == "" {
		s.Ident().Key = old.Key
	}
	if s.Ident().ID == 0 {
		s.Ident().ID = old.ID
	}
	if s.Ident().Key != old.Key {
		e.rekey(old.Key, s.Ident().Key)
	}
	e.shapes[i] = s
	e.touch()
	return true
}

// AssignID records the persisted id of a locally created shape. When the shape was
// erased before the id arrived, the orphaned record is deleted.
func (e *Engine) AssignID(key string, id int64) {
	changed, waiting := e.unpersisted[key]
	delete(e.unpersisted, key)

	i := e.indexOf(key)
	if i < 0 {
		if waiting || id != 0 {
			e.log.Info("created shape already erased, deleting record", "key", key, "id", id)
			e.out.ShapesErased([]int64{id}, nil)
		}
		return
	}
	e.shapes[i].Ident().ID = id
	e.out.ShapeIdentified(e.shapes[i].Clone(), changed)
	e.touch()
}

// rekey moves selection and gesture state keyed by from over to to. A key only
// changes for a shape matched by id, and shapes with an id are never unpersisted.
func (e *Engine) rekey(from, to string) {
	e.sel.Rekey(from, to)
	if _, ok := e.g.marked[from]; ok {
		delete(e.g.marked, from)
		e.g.marked[to] = struct{}{}
	}
	if snap := e.g.snap; snap != nil {
		if before, ok := snap.shapes[from]; ok {
			delete(snap.shapes, from)
			before.Ident().Key = to
			snap.shapes[to] = before
		}
	}
}

// forget drops per-shape bookkeeping for a removed shape.
func (e *Engine) forget(key string) {
	delete(e.g.marked, key)
}

// emitCreated appends a new local shape and hands it to the outbox.
func (e *Engine) emitCreated(s shape.Shape) {
	s.Ident().Key = shape.NewKey()
	e.shapes = append(e.shapes, s)
	e.unpersisted[s.Ident().Key] = false
	e.out.ShapeCreated(s.Clone())
}

func (e *Engine) emitUpdated(indices []int) {
	if len(indices) == 0 {
		return
	}
	updated := make([]shape.Shape, 0, len(indices))
	for _, i := range indices {
		s := e.shapes[i]
		if r, ok := s.(*shape.Rect); ok {
			geom.NormalizeRect(r)
		}
		if _, waiting := e.unpersisted[s.Ident().Key]; waiting {
			e.unpersisted[s.Ident().Key] = true
		}
		updated = append(updated, s.Clone())
	}
	e.out.ShapesUpdated(updated)
}

type nopOutbox struct{}

func (nopOutbox) ShapeCreated(shape.Shape)          {}
func (nopOutbox) ShapesUpdated([]shape.Shape)       {}
func (nopOutbox) ShapesErased([]int64, []string)    {}
func (nopOutbox) ShapeIdentified(shape.Shape, bool) {}
