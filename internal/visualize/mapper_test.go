package visualize

import (
	"image/color"
	"testing"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
)

func pixel(class analysis.Class, r, g, b float64, inGroup, anyGroups bool) *analysis.Pixel {
	return &analysis.Pixel{
		R: r, G: g, B: b,
		Class:     class,
		Indices:   analysis.ComputeIndices(r, g, b),
		InGroup:   inGroup,
		AnyGroups: anyGroups,
	}
}

func TestPainter_Segmentation(t *testing.T) {
	p := Painter(roi.TabSegmentation, ModeNGRDI)

	if got := p(pixel(analysis.ClassVegetation, 50, 200, 50, false, false)); got != VegetationGreen {
		t.Errorf("vegetation: got %v", got)
	}
	// luma of (100,100,100) is 100, dimmed by 0.3
	if got := p(pixel(analysis.ClassBackground, 100, 100, 100, false, false)); got != (color.RGBA{30, 30, 30, 255}) {
		t.Errorf("background: got %v", got)
	}
	if got := p(pixel(analysis.ClassExcluded, 100, 100, 100, false, false)); got.G != 30 {
		t.Errorf("excluded should render as background: got %v", got)
	}
}

func TestPainter_AnalysisRGB(t *testing.T) {
	p := Painter(roi.TabAnalysis, ModeRGB)

	tests := []struct {
		name string
		px   *analysis.Pixel
		want color.RGBA
	}{
		{"in group", pixel(analysis.ClassVegetation, 50, 200, 50, true, true), color.RGBA{50, 200, 50, 255}},
		{"no groups defined", pixel(analysis.ClassVegetation, 50, 200, 50, false, false), color.RGBA{50, 200, 50, 255}},
		{"outside groups", pixel(analysis.ClassVegetation, 100, 100, 100, false, true), color.RGBA{50, 50, 50, 255}},
		{"background", pixel(analysis.ClassBackground, 100, 100, 100, false, true), color.RGBA{20, 20, 20, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p(tt.px); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPainter_IndexModes(t *testing.T) {
	report := Painter(roi.TabReport, ModeNGRDI)

	// NGRDI 0.6 clamps to the top of the ramp
	top := report(pixel(analysis.ClassVegetation, 50, 200, 50, true, true))
	if top != NGRDIRamp.At(0.5) {
		t.Errorf("clamped high: got %v, want %v", top, NGRDIRamp.At(0.5))
	}
	bg := report(pixel(analysis.ClassBackground, 100, 100, 100, false, true))
	if bg != (color.RGBA{20, 20, 20, 255}) {
		t.Errorf("background: got %v", bg)
	}

	gi := Painter(roi.TabAnalysis, ModeGI)
	if got := gi(pixel(analysis.ClassVegetation, 100, 100, 100, false, true)); got != (color.RGBA{50, 50, 50, 255}) {
		t.Errorf("outside groups in index mode: got %v", got)
	}
}

func TestPainter_CalibrationPassThrough(t *testing.T) {
	p := Painter(roi.TabCalibration, ModeMACI)
	if got := p(pixel(analysis.ClassBackground, 12, 34, 56, false, true)); got != (color.RGBA{12, 34, 56, 255}) {
		t.Errorf("got %v", got)
	}
}

func TestRamp(t *testing.T) {
	r := NewRamp(0, 1, "#000000", "#ffffff")
	if got := r.At(-5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("below range: got %v", got)
	}
	if got := r.At(5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("above range: got %v", got)
	}
	mid := r.At(0.5)
	if mid.R < 126 || mid.R > 129 {
		t.Errorf("midpoint: got %v", mid)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"rgb", "ngrdi", "maci", "gi"} {
		m, err := ParseMode(s)
		if err != nil || m.String() != s {
			t.Errorf("ParseMode(%q): %v %v", s, m, err)
		}
	}
	if _, err := ParseMode("hsv"); err == nil {
		t.Error("expected error")
	}
}
