package engine

import (
	"encoding/json"
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/hittest"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	colorStroke    = "white"
	colorSelected  = "#3b82f6"
	colorMarked    = "#808080"
	colorMarquee   = "rgba(59,130,246,0.1)"
	colorEraser    = "red"
	markedOpacity  = 0.3
	strokeWidth    = 2.0
	selectedWidth  = 3.0
	handleSize     = 8.0
	textFontFamily = "sans-serif"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "clear", "transform", "rect", "circle", "path", "text", "handle"
	Key         string        `json:"key,omitempty"`         // Shape key, for hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	Width       float64       `json:"width,omitempty"`
	Height      float64       `json:"height,omitempty"`
	Radius      float64       `json:"radius,omitempty"`
	Points      []shape.Point `json:"points,omitempty"`
	Text        string        `json:"text,omitempty"`
	Font        string        `json:"font,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"` // Global alpha, 0 means opaque
	Dash        []float64     `json:"dash,omitempty"`
}

// Render compiles the current state into draw commands in painter's order: shapes in
// world space, then the selection chrome and gesture previews, then screen-space
// overlays. It only reads state, so it is safe to call as often as the host likes.
func (e *Engine) Render() []DrawCommand {
	cmds := []DrawCommand{
		{Op: "transform", Transform: geom.Identity().ToSlice()},
		{Op: "clear"},
		{Op: "transform", Transform: e.cam.Matrix().ToSlice()},
	}

	for _, s := range e.shapes {
		key := s.Ident().Key
		style := DrawCommand{Key: key, Stroke: colorStroke, StrokeWidth: strokeWidth}
		switch {
		case e.isMarked(key):
			style.Stroke, style.Opacity = colorMarked, markedOpacity
		case e.tool == ToolSelection && e.sel.Has(key):
			style.Stroke, style.StrokeWidth = colorSelected, selectedWidth
		}
		if cmd, ok := shapeCommand(s, style); ok {
			cmds = append(cmds, cmd)
		}
	}

	if e.tool == ToolSelection {
		cmds = e.appendSelection(cmds)
	}
	cmds = e.appendPreview(cmds)

	if e.tool == ToolEraser && e.pointerIn {
		cmds = append(cmds,
			DrawCommand{Op: "transform", Transform: geom.Identity().ToSlice()},
			DrawCommand{Op: "circle", X: e.pointer.X, Y: e.pointer.Y, Radius: e.eraserRadius, Stroke: colorEraser, StrokeWidth: 1},
		)
	}
	return cmds
}

// shapeCommand emits the command for one shape. Degenerate pencil strokes draw nothing.
func shapeCommand(s shape.Shape, style DrawCommand) (DrawCommand, bool) {
	cmd := style
	switch v := s.(type) {
	case *shape.Rect:
		cmd.Op = "rect"
		cmd.X, cmd.Y, cmd.Width, cmd.Height = v.X, v.Y, v.Width, v.Height
	case *shape.Circle:
		cmd.Op = "circle"
		cmd.X, cmd.Y, cmd.Radius = v.CenterX, v.CenterY, v.Radius
	case *shape.Pencil:
		if len(v.Points) < 2 {
			return DrawCommand{}, false
		}
		cmd.Op = "path"
		cmd.Points = v.Points
	case *shape.Text:
		cmd.Op = "text"
		cmd.X, cmd.Y = v.X, v.Y
		cmd.Text, cmd.Font, cmd.FontSize = v.Text, textFontFamily, v.FontSize
		cmd.Fill, cmd.Stroke, cmd.StrokeWidth = cmd.Stroke, "", 0
	default:
		return DrawCommand{}, false
	}
	return cmd, true
}

// appendSelection draws the selection box and its eight handles.
func (e *Engine) appendSelection(cmds []DrawCommand) []DrawCommand {
	idx := e.sel.Indices(e.shapes)
	if len(idx) == 0 {
		return cmds
	}
	var b geom.Bounds
	if len(idx) == 1 {
		p, ok := e.sel.Primary(e.shapes)
		if !ok {
			return cmds
		}
		b = e.hit.Bounds(e.shapes[p])
	} else {
		b = e.boundsOf(idx)
	}

	cmds = append(cmds, DrawCommand{
		Op: "rect", X: b.X1, Y: b.Y1, Width: b.W, Height: b.H,
		Stroke: colorSelected, StrokeWidth: 1, Dash: []float64{4, 4},
	})
	size := e.cam.ScreenLength(handleSize)
	for _, hp := range hittest.HandlePoints(b) {
		cmds = append(cmds, DrawCommand{
			Op: "handle", X: hp.X - size/2, Y: hp.Y - size/2, Width: size, Height: size,
			Fill: colorSelected, Stroke: colorStroke, StrokeWidth: 1,
		})
	}
	return cmds
}

// appendPreview draws the shape or marquee being dragged out.
func (e *Engine) appendPreview(cmds []DrawCommand) []DrawCommand {
	g := e.g
	switch g.kind {
	case gestureBox:
		return append(cmds, DrawCommand{
			Op: "rect", X: g.start.X, Y: g.start.Y, Width: g.last.X - g.start.X, Height: g.last.Y - g.start.Y,
			Fill: colorMarquee, Stroke: colorSelected, StrokeWidth: 1, Dash: []float64{5, 5},
		})
	case gestureDraw:
		style := DrawCommand{Stroke: colorStroke, StrokeWidth: strokeWidth}
		var s shape.Shape
		switch e.tool {
		case ToolRectangle:
			s = &shape.Rect{X: g.start.X, Y: g.start.Y, Width: g.last.X - g.start.X, Height: g.last.Y - g.start.Y}
		case ToolCircle:
			s = &shape.Circle{CenterX: g.start.X, CenterY: g.start.Y, Radius: math.Hypot(g.last.X-g.start.X, g.last.Y-g.start.Y)}
		case ToolPencil:
			s = &shape.Pencil{Points: g.pencil}
		}
		if s == nil {
			return cmds
		}
		if cmd, ok := shapeCommand(s, style); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
