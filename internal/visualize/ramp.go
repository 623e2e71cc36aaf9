package visualize

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Ramp is a piecewise-linear color scale over a clamped value range.
type Ramp struct {
	Lo, Hi float64
	Stops  []colorful.Color
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// NewRamp builds a ramp from hex color stops spread evenly over [lo, hi].
func NewRamp(lo, hi float64, hexStops ...string) Ramp {
	stops := make([]colorful.Color, len(hexStops))
	for i, h := range hexStops {
		stops[i] = mustHex(h)
	}
	return Ramp{Lo: lo, Hi: hi, Stops: stops}
}

// At returns the ramp color for v, clamping v into [Lo, Hi].
func (r Ramp) At(v float64) color.RGBA {
	if len(r.Stops) == 0 {
		return color.RGBA{A: 255}
	}
	t := 0.0
	if r.Hi > r.Lo {
		t = (v - r.Lo) / (r.Hi - r.Lo)
	}
	t = min(max(t, 0), 1)

	seg := t * float64(len(r.Stops)-1)
	i := int(seg)
	if i >= len(r.Stops)-1 {
		return toRGBA(r.Stops[len(r.Stops)-1])
	}
	return toRGBA(r.Stops[i].BlendRgb(r.Stops[i+1], seg-float64(i)))
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Index ramps. Ranges cover the values typically seen on plant trays.
var (
	NGRDIRamp = NewRamp(-0.3, 0.5, "#d7191c", "#ffffbf", "#1a9641")
	MACIRamp  = NewRamp(0.2, 1.6, "#1a9641", "#ffffbf", "#7b3294")
	GIRamp    = NewRamp(0.3, 0.6, "#0b3d0b", "#39b54a", "#c7f464")
)
