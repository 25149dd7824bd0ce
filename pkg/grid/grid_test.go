package grid

import (
	"math"
	"testing"
)

// TestNewValidation ensures invalid geometries are rejected at
// construction time.
func TestNewValidation(t *testing.T) {
	if _, err := New(0, 0, 0, 0, 10, 10); err == nil {
		t.Errorf("Expected error for zero pixel scale, got nil")
	}
	if _, err := New(0, 0, -0.05, 0, 10, 10); err == nil {
		t.Errorf("Expected error for negative pixel scale, got nil")
	}
	if _, err := New(0, 0, 0.05, 0, 0, 10); err == nil {
		t.Errorf("Expected error for zero pixel count, got nil")
	}
	if _, err := New(0, 0, 0.05, 0, 10, -3); err == nil {
		t.Errorf("Expected error for negative pixel count, got nil")
	}
}

// TestPixelSkyRoundTrip verifies the pixel<->sky transform is bijective,
// including for rotated grids.
func TestPixelSkyRoundTrip(t *testing.T) {
	for _, rotation := range []float64{0, 0.3, -1.1, math.Pi / 2} {
		g, err := New(1.5, -0.7, 0.05, rotation, 40, 30)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for _, c := range [][2]float64{{0, 0}, {39, 29}, {12.25, 7.5}, {-3, 45}} {
			x, y := g.PixelToSky(c[0], c[1])
			ix, iy := g.SkyToPixel(x, y)
			if math.Abs(ix-c[0]) > 1e-10 || math.Abs(iy-c[1]) > 1e-10 {
				t.Errorf("rotation %.2f: expected round trip (%g, %g), got (%g, %g)",
					rotation, c[0], c[1], ix, iy)
			}
		}
	}
}

// TestCoordinatesLayout verifies the flattened row-major coordinate
// arrays.
func TestCoordinatesLayout(t *testing.T) {
	g, err := New(0, 0, 0.1, 0, 3, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	x, y := g.Coordinates()
	if len(x) != 6 || len(y) != 6 {
		t.Fatalf("Expected 6 coordinates, got %d and %d", len(x), len(y))
	}
	// pixel (ix=2, iy=1) sits at index 1*3+2
	wantX, wantY := g.PixelToSky(2, 1)
	if x[5] != wantX || y[5] != wantY {
		t.Errorf("Expected coordinate (%g, %g) at index 5, got (%g, %g)", wantX, wantY, x[5], y[5])
	}
}

// TestCentered verifies NewCentered places the grid center at the
// requested sky position.
func TestCentered(t *testing.T) {
	g, err := NewCentered(0.5, -0.25, 0.05, 0.4, 51, 41)
	if err != nil {
		t.Fatalf("NewCentered failed: %v", err)
	}
	cx, cy := g.Center()
	if math.Abs(cx-0.5) > 1e-12 || math.Abs(cy+0.25) > 1e-12 {
		t.Errorf("Expected center (0.5, -0.25), got (%g, %g)", cx, cy)
	}
}

// TestExtent verifies the bounding box of an axis-aligned grid.
func TestExtent(t *testing.T) {
	g, err := New(-1, -2, 0.5, 0, 5, 9)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	xmin, xmax, ymin, ymax := g.Extent()
	if xmin != -1 || xmax != 1 || ymin != -2 || ymax != 2 {
		t.Errorf("Expected extent (-1, 1, -2, 2), got (%g, %g, %g, %g)", xmin, xmax, ymin, ymax)
	}
}
