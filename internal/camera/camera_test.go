package camera

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestScreenToWorld(t *testing.T) {
	tests := []struct {
		name           string
		cam            Camera
		sx, sy, wx, wy float64
	}{
		{"identity", Camera{Scale: 1}, 40, 40, 40, 40},
		{"scale 2", Camera{Scale: 2}, 40, 40, 20, 20},
		{"offset", Camera{X: 10, Y: -20, Scale: 1}, 40, 40, 30, 60},
		{"offset and scale", Camera{X: 10, Y: 10, Scale: 0.5}, 20, 30, 20, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wx, wy := tt.cam.ScreenToWorld(tt.sx, tt.sy)
			if !near(wx, tt.wx) || !near(wy, tt.wy) {
				t.Errorf("ScreenToWorld(%v,%v) = (%v,%v), want (%v,%v)", tt.sx, tt.sy, wx, wy, tt.wx, tt.wy)
			}
			sx, sy := tt.cam.WorldToScreen(wx, wy)
			if !near(sx, tt.sx) || !near(sy, tt.sy) {
				t.Errorf("WorldToScreen round trip = (%v,%v), want (%v,%v)", sx, sy, tt.sx, tt.sy)
			}
			mx, my := tt.cam.Matrix().TransformPoint(wx, wy)
			if !near(mx, tt.sx) || !near(my, tt.sy) {
				t.Errorf("Matrix().TransformPoint = (%v,%v), want (%v,%v)", mx, my, tt.sx, tt.sy)
			}
		})
	}
}

func TestZoomKeepsAnchorAndClamps(t *testing.T) {
	c := New()
	c.PanBy(15, -5)
	wx, wy := c.ScreenToWorld(200, 120)

	c.ZoomAt(200, 120, 1.7)
	gx, gy := c.ScreenToWorld(200, 120)
	if !near(wx, gx) || !near(wy, gy) {
		t.Errorf("anchor moved from (%v,%v) to (%v,%v)", wx, wy, gx, gy)
	}

	c.ZoomAt(0, 0, 1000)
	if c.Scale != MaxScale {
		t.Errorf("scale = %v, want clamp to %v", c.Scale, MaxScale)
	}
	c.ZoomAt(0, 0, 1e-6)
	if c.Scale != MinScale {
		t.Errorf("scale = %v, want clamp to %v", c.Scale, MinScale)
	}
}

func TestWheelZoomDirection(t *testing.T) {
	c := New()
	c.WheelZoom(0, 0, -100)
	if c.Scale <= 1 {
		t.Errorf("negative deltaY should zoom in, scale = %v", c.Scale)
	}
	if !near(c.Scale, math.Exp(0.1)) {
		t.Errorf("scale = %v, want %v", c.Scale, math.Exp(0.1))
	}
}
