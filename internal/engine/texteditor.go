package engine

import (
	"math"
	"strings"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	minEditorFontPx = 8.0
	minEditorWidth  = 20.0
	editorPadding   = 12.0
)

// Overlay is what the host needs to place the inline text input.
type Overlay struct {
	ScreenX    float64 `json:"screenX"`
	ScreenY    float64 `json:"screenY"`
	FontSizePx float64 `json:"fontSizePx"`
	WidthPx    float64 `json:"widthPx"`
	Value      string  `json:"value"`
}

type textSession struct {
	overlay Overlay
	worldX  float64
	worldY  float64
}

// TextEditor tracks the single inline text input. Its placement is fixed when it
// opens; later camera changes do not move it.
type TextEditor struct {
	m        geom.Measurer
	fontSize float64
	onCommit func(*shape.Text)
	active   *textSession
}

func newTextEditor(m geom.Measurer, fontSize float64, onCommit func(*shape.Text)) *TextEditor {
	return &TextEditor{m: m, fontSize: fontSize, onCommit: onCommit}
}

// Begin opens an editor at screen (sx, sy), bound to world (wx, wy). Any open editor is
// discarded first.
func (t *TextEditor) Begin(sx, sy, wx, wy, scale float64) {
	t.Teardown()
	t.active = &textSession{
		overlay: Overlay{
			ScreenX:    sx,
			ScreenY:    sy,
			FontSizePx: math.Max(minEditorFontPx, t.fontSize*scale),
		},
		worldX: wx,
		worldY: wy,
	}
	t.syncWidth()
}

func (t *TextEditor) Active() bool { return t.active != nil }

func (t *TextEditor) Overlay() (Overlay, bool) {
	if t.active == nil {
		return Overlay{}, false
	}
	return t.active.overlay, true
}

// Input replaces the edited value.
func (t *TextEditor) Input(value string) {
	if t.active == nil {
		return
	}
	t.active.overlay.Value = value
	t.syncWidth()
}

// Key handles Enter and Escape and reports whether the key was consumed.
func (t *TextEditor) Key(key string) bool {
	if t.active == nil {
		return false
	}
	switch key {
	case "Enter":
		t.commit()
	case "Escape":
		t.Teardown()
	default:
		return false
	}
	return true
}

// Blur commits, as losing focus does for a browser input.
func (t *TextEditor) Blur() { t.commit() }

// Teardown closes the editor without committing.
func (t *TextEditor) Teardown() { t.active = nil }

func (t *TextEditor) commit() {
	s := t.active
	if s == nil {
		return
	}
	t.active = nil
	if strings.TrimSpace(s.overlay.Value) == "" {
		return
	}
	t.onCommit(&shape.Text{
		X:        s.worldX,
		Y:        s.worldY,
		Text:     s.overlay.Value,
		FontSize: t.fontSize,
	})
}

func (t *TextEditor) syncWidth() {
	v := t.active.overlay.Value
	if v == "" {
		v = " "
	}
	w := t.m.Measure(v, t.active.overlay.FontSizePx) + editorPadding
	t.active.overlay.WidthPx = math.Max(minEditorWidth, w)
}
