package export

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
	"github.com/nisshchayarathi/drawing-app/internal/shapes"
)

type fixedMeasurer struct{}

func (fixedMeasurer) Measure(text string, fontSize float64) float64 {
	return 0.5 * fontSize * float64(len(text))
}

func sample() []shape.Shape {
	return []shape.Shape{
		&shape.Rect{X: 110, Y: 60, Width: -100, Height: -50},
		&shape.Circle{CenterX: 300, CenterY: 200, Radius: 40},
		&shape.Pencil{Points: []shape.Point{{X: 0, Y: 0}, {X: 20, Y: 30}, {X: 40, Y: 10}}},
		&shape.Text{X: 50, Y: 300, Text: "hello", FontSize: 24},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "Room 1", sample(), fixedMeasurer{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderEmptyRoom(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "empty", nil, fixedMeasurer{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("empty room should still produce a page")
	}
}

func TestRenderNeedsMeasurerForText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "t", sample(), nil); err == nil {
		t.Error("expected an error without a measurer")
	}
}

func TestFit(t *testing.T) {
	const pageW, pageH = 842.0, 595.0
	tests := []struct {
		name      string
		b         geom.Bounds
		wantScale float64
	}{
		{"small drawing keeps scale", geom.FromCorners(0, 0, 100, 50), 1},
		{"wide drawing shrinks to width", geom.FromCorners(0, 0, 1540, 100), (pageW - 2*pageMargin) / 1540},
		{"tall drawing shrinks to height", geom.FromCorners(-10, -10, 90, 1036), (pageH - 2*pageMargin) / 1046},
		{"single point", geom.FromCorners(5, 5, 5, 5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFit(tt.b, pageW, pageH)
			if math.Abs(f.scale-tt.wantScale) > 1e-9 {
				t.Errorf("scale = %v, want %v", f.scale, tt.wantScale)
			}
			// the drawing is centred on the page
			x1, y1 := f.point(tt.b.X1, tt.b.Y1)
			x2, y2 := f.point(tt.b.X2, tt.b.Y2)
			if math.Abs((x1+x2)/2-pageW/2) > 1e-6 || math.Abs((y1+y2)/2-pageH/2) > 1e-6 {
				t.Errorf("centre = (%v, %v), want page centre", (x1+x2)/2, (y1+y2)/2)
			}
		})
	}
}

type fakeSource struct{ list []shape.Shape }

func (f fakeSource) Decoded(_ context.Context, roomID int64) ([]shape.Shape, error) {
	if roomID != 7 {
		return nil, shapes.ErrNotFound
	}
	return f.list, nil
}

func TestRoomPDFHandler(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/rooms/{roomId}/export.pdf", NewHandler(fakeSource{sample()}, fixedMeasurer{}).RoomPDF)

	tests := []struct {
		path string
		want int
	}{
		{"/rooms/7/export.pdf", http.StatusOK},
		{"/rooms/8/export.pdf", http.StatusNotFound},
		{"/rooms/x/export.pdf", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
					t.Errorf("content type = %q", ct)
				}
				if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "room-7-exp_") {
					t.Errorf("content disposition = %q", cd)
				}
			}
		})
	}
}
