// Package export renders a room's shapes to PDF.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
	"github.com/nisshchayarathi/drawing-app/internal/shape"
)

const (
	pageMargin = 36.0 // points
	lineWidth  = 1.0
	fontFamily = "Helvetica"
)

// fit maps world coordinates onto a page area, preserving aspect ratio. Drawings
// smaller than the page are not enlarged.
type fit struct {
	originX, originY float64
	offsetX, offsetY float64
	scale            float64
}

func newFit(b geom.Bounds, pageW, pageH float64) fit {
	availW := pageW - 2*pageMargin
	availH := pageH - 2*pageMargin
	scale := 1.0
	if b.W > 0 {
		scale = math.Min(scale, availW/b.W)
	}
	if b.H > 0 {
		scale = math.Min(scale, availH/b.H)
	}
	return fit{
		originX: b.X1,
		originY: b.Y1,
		offsetX: pageMargin + (availW-b.W*scale)/2,
		offsetY: pageMargin + (availH-b.H*scale)/2,
		scale:   scale,
	}
}

func (f fit) point(x, y float64) (float64, float64) {
	return f.offsetX + (x-f.originX)*f.scale, f.offsetY + (y-f.originY)*f.scale
}

// Render writes a single landscape A4 page with every shape fitted into it.
func Render(w io.Writer, title string, shapes []shape.Shape, m geom.Measurer) error {
	pdf := gofpdf.New("L", "pt", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("drawing-app", true)
	pdf.AddPage()
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetLineWidth(lineWidth)

	b, ok, err := geom.UnionBounds(shapes, m)
	if err != nil {
		return fmt.Errorf("measure room: %w", err)
	}
	if ok {
		pageW, pageH := pdf.GetPageSize()
		f := newFit(b, pageW, pageH)
		for _, s := range shapes {
			drawShape(pdf, f, s)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawShape(pdf *gofpdf.Fpdf, f fit, s shape.Shape) {
	switch v := s.(type) {
	case *shape.Rect:
		r := v.Clone().(*shape.Rect)
		geom.NormalizeRect(r)
		x, y := f.point(r.X, r.Y)
		pdf.Rect(x, y, r.Width*f.scale, r.Height*f.scale, "D")
	case *shape.Circle:
		x, y := f.point(v.CenterX, v.CenterY)
		pdf.Circle(x, y, v.Radius*f.scale, "D")
	case *shape.Pencil:
		for i := 1; i < len(v.Points); i++ {
			x1, y1 := f.point(v.Points[i-1].X, v.Points[i-1].Y)
			x2, y2 := f.point(v.Points[i].X, v.Points[i].Y)
			pdf.Line(x1, y1, x2, y2)
		}
	case *shape.Text:
		size := v.FontSize * f.scale
		pdf.SetFont(fontFamily, "", size)
		x, y := f.point(v.X, v.Y)
		// x/y is the top-left corner; PDF text is placed by baseline.
		pdf.Text(x, y+size, v.Text)
	}
}
