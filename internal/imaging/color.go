package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// HSL is often more intuitive than RGB when judging reference patches:
//   - Hue represents the color type (red, green, blue, etc.)
//   - Saturation near 0 means the patch is neutral gray
//   - Lightness represents brightness (black to white)
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in several representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// DescribeColor converts floating-point channels in 0-255 into a ColorResult.
// Channels are clamped and rounded to 8 bits.
func DescribeColor(r, g, b float64) ColorResult {
	c := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Clamped()
	r8, g8, b8 := c.RGB255()
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// SampleColor returns the color at pixel (x, y).
//
// Parameters:
//   - img: The raster to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y).
//   - error: Non-nil if coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, _ := img.At(x, y).RGBA()
	res := DescribeColor(float64(r>>8), float64(g>>8), float64(b>>8))
	return &res, nil
}
