package calibration

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

func createInMemoryImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDerive_ModePriority(t *testing.T) {
	white := &Color{R: 250, G: 240, B: 230}
	black := &Color{R: 10, G: 20, B: 30}
	gray := &Color{R: 120, G: 128, B: 140}

	tests := []struct {
		name     string
		refs     References
		wantMode Mode
		wantRef  string
	}{
		{"none", References{}, ModeIdentity, ""},
		{"black only", References{Black: black}, ModeIdentity, ""},
		{"gray only", References{Gray: gray}, ModeGrayWorld, "gray"},
		{"white only", References{White: white}, ModeGrayWorld, "white"},
		{"white beats gray", References{White: white, Gray: gray}, ModeGrayWorld, "white"},
		{"white and black", References{White: white, Black: black}, ModeContrastStretch, ""},
		{"all three", References{White: white, Black: black, Gray: gray}, ModeContrastStretch, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Derive(tt.refs)
			if c.Mode != tt.wantMode {
				t.Errorf("Mode: got %v, want %v", c.Mode, tt.wantMode)
			}
			if c.Reference != tt.wantRef {
				t.Errorf("Reference: got %q, want %q", c.Reference, tt.wantRef)
			}
		})
	}
}

func TestApply_ContrastStretch(t *testing.T) {
	c := Derive(References{
		White: &Color{R: 210, G: 210, B: 100},
		Black: &Color{R: 10, G: 10, B: 100},
	})

	r, g, b := c.Apply(110, 5, 150)
	if !approx(r, 127.5) {
		t.Errorf("R: got %v, want 127.5", r)
	}
	if g != 0 {
		t.Errorf("G below black should clamp to 0, got %v", g)
	}
	// white == black on blue: divisor 1
	if b != 255 {
		t.Errorf("B with equal references should clamp to 255, got %v", b)
	}
	if c.Divisor[2] != 1 {
		t.Errorf("Divisor[2]: got %v, want 1", c.Divisor[2])
	}
}

func TestApply_GrayWorld(t *testing.T) {
	t.Run("white target", func(t *testing.T) {
		c := Derive(References{White: &Color{R: 200, G: 255, B: 170}})
		r, g, b := c.Apply(100, 100, 200)
		if !approx(r, 127.5) || !approx(g, 100) || b != 255 {
			t.Errorf("Apply: got (%v,%v,%v)", r, g, b)
		}
	})

	t.Run("gray target", func(t *testing.T) {
		c := Derive(References{Gray: &Color{R: 64, G: 128, B: 256}})
		r, g, b := c.Apply(64, 128, 256)
		if !approx(r, 128) || !approx(g, 128) || !approx(b, 128) {
			t.Errorf("Apply: got (%v,%v,%v)", r, g, b)
		}
	})

	t.Run("zero channel uses divisor floor", func(t *testing.T) {
		c := Derive(References{White: &Color{R: 0, G: 0.5, B: 255}})
		if c.Scale[0] != 255 || c.Scale[1] != 255 {
			t.Errorf("Scale: got %v, want floor-bounded 255", c.Scale)
		}
		if math.IsInf(c.Scale[0], 0) || math.IsNaN(c.Scale[0]) {
			t.Error("scale must be finite")
		}
		r, _, _ := c.Apply(2, 0, 0)
		if r != 255 {
			t.Errorf("R: got %v, want clamped 255", r)
		}
	})
}

func TestApply_Identity(t *testing.T) {
	c := Derive(References{})
	r, g, b := c.Apply(12, 34, 56)
	if r != 12 || g != 34 || b != 56 {
		t.Errorf("identity changed pixel: (%v,%v,%v)", r, g, b)
	}
}

func TestSample(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{10, 20, 30, 255})
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{110, 120, 130, 255})
		}
	}

	t.Run("uniform region", func(t *testing.T) {
		c, n, ok := Sample(img, geometry.NewRect("r", geometry.Pt(0, 0), geometry.Pt(4, 4)))
		if !ok || n != 25 {
			t.Fatalf("Sample: ok=%v n=%d, want 25 pixels", ok, n)
		}
		if c != (Color{R: 10, G: 20, B: 30}) {
			t.Errorf("Color: got %+v", c)
		}
	})

	t.Run("straddling region", func(t *testing.T) {
		c, _, ok := Sample(img, geometry.NewRect("r", geometry.Pt(8, 0), geometry.Pt(11, 0)))
		if ok {
			t.Errorf("zero-height rect should sample nothing, got %+v", c)
		}
		c, n, ok := Sample(img, geometry.NewRect("r", geometry.Pt(8, 0), geometry.Pt(11, 1)))
		if !ok || n != 8 {
			t.Fatalf("Sample: ok=%v n=%d, want 8", ok, n)
		}
		if !approx(c.R, 60) || !approx(c.G, 70) || !approx(c.B, 80) {
			t.Errorf("Color: got %+v, want (60,70,80)", c)
		}
	})

	t.Run("clipped to image", func(t *testing.T) {
		_, n, ok := Sample(img, geometry.NewRect("r", geometry.Pt(-10, -10), geometry.Pt(1, 1)))
		if !ok || n != 4 {
			t.Errorf("Sample: ok=%v n=%d, want 4", ok, n)
		}
	})

	t.Run("outside image", func(t *testing.T) {
		if _, _, ok := Sample(img, geometry.NewRect("r", geometry.Pt(30, 30), geometry.Pt(40, 40))); ok {
			t.Error("expected no samples outside the image")
		}
	})
}
