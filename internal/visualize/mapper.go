package visualize

import (
	"fmt"
	"image/color"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
)

// Mode is the display submode of the analysis and report tabs.
type Mode int

const (
	ModeRGB Mode = iota
	ModeNGRDI
	ModeMACI
	ModeGI
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "rgb"
	case ModeNGRDI:
		return "ngrdi"
	case ModeMACI:
		return "maci"
	case ModeGI:
		return "gi"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMode converts "rgb", "ngrdi", "maci" or "gi" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "rgb":
		return ModeRGB, nil
	case "ngrdi":
		return ModeNGRDI, nil
	case "maci":
		return ModeMACI, nil
	case "gi":
		return ModeGI, nil
	}
	return 0, fmt.Errorf("unknown display mode: %q", s)
}

// VegetationGreen is the flat segmentation color.
var VegetationGreen = color.RGBA{R: 34, G: 197, B: 94, A: 255}

const (
	segmentationDim = 0.3
	outsideGroupDim = 0.5
	backgroundDim   = 0.2
)

// Painter returns the pixel mapper for the given tab and mode.
func Painter(tab roi.Tab, mode Mode) analysis.Painter {
	switch tab {
	case roi.TabCalibration:
		return passThrough
	case roi.TabSegmentation:
		return segmentation
	}

	var ramp *Ramp
	switch mode {
	case ModeNGRDI:
		ramp = &NGRDIRamp
	case ModeMACI:
		ramp = &MACIRamp
	case ModeGI:
		ramp = &GIRamp
	}

	return func(px *analysis.Pixel) color.RGBA {
		if px.Class != analysis.ClassVegetation {
			return gray(px, backgroundDim)
		}
		if px.AnyGroups && !px.InGroup {
			return gray(px, outsideGroupDim)
		}
		if ramp == nil {
			return rgb(px)
		}
		return ramp.At(indexFor(mode, px.Indices))
	}
}

func indexFor(mode Mode, idx analysis.Indices) float64 {
	switch mode {
	case ModeNGRDI:
		return idx.NGRDI
	case ModeMACI:
		return idx.MACI
	default:
		return idx.GI
	}
}

func passThrough(px *analysis.Pixel) color.RGBA {
	return rgb(px)
}

func segmentation(px *analysis.Pixel) color.RGBA {
	if px.Class == analysis.ClassVegetation {
		return VegetationGreen
	}
	return gray(px, segmentationDim)
}

func rgb(px *analysis.Pixel) color.RGBA {
	return color.RGBA{R: clamp8(px.R), G: clamp8(px.G), B: clamp8(px.B), A: 255}
}

// Luma returns the Rec. 601 luma of a pixel.
func Luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func gray(px *analysis.Pixel, factor float64) color.RGBA {
	v := clamp8(Luma(px.R, px.G, px.B) * factor)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
