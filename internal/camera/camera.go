// Package camera maps between screen pixels and world coordinates on the infinite canvas.
package camera

import (
	"math"

	"github.com/nisshchayarathi/drawing-app/internal/geom"
)

const (
	MinScale = 0.1
	MaxScale = 4.0

	// zoomRate converts wheel delta units into an exponential zoom factor.
	zoomRate = 0.001
)

// Camera is a translate + uniform scale transform: screen = world*Scale + (X, Y).
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// New returns the identity camera.
func New() *Camera {
	return &Camera{Scale: 1}
}

// Matrix returns the world-to-screen transform.
func (c *Camera) Matrix() geom.Matrix2D {
	return geom.Translate(c.X, c.Y).Multiply(geom.Scale(c.Scale, c.Scale))
}

func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - c.X) / c.Scale, (sy - c.Y) / c.Scale
}

func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*c.Scale + c.X, wy*c.Scale + c.Y
}

// ScreenLength converts a screen-space distance to world units.
func (c *Camera) ScreenLength(px float64) float64 {
	return px / c.Scale
}

// PanBy shifts the view by a screen-space delta.
func (c *Camera) PanBy(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// ZoomAt scales the view by factor while keeping the world point under (sx, sy) fixed.
// The resulting scale is clamped to [MinScale, MaxScale].
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Scale = Clamp(c.Scale * factor)
	c.X = sx - wx*c.Scale
	c.Y = sy - wy*c.Scale
}

// WheelZoom applies a ctrl+wheel gesture around the cursor.
func (c *Camera) WheelZoom(sx, sy, deltaY float64) {
	c.ZoomAt(sx, sy, math.Exp(-deltaY*zoomRate))
}

// Clamp limits a scale to the allowed range.
func Clamp(scale float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, scale))
}
