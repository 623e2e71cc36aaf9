package roi

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the cyclic list of group colors.
var Palette = []string{
	"#ef4444",
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#8b5cf6",
	"#ec4899",
}

// PaletteColor returns the i-th palette entry, wrapping around.
func PaletteColor(i int) string {
	return Palette[((i%len(Palette))+len(Palette))%len(Palette)]
}

// HexRGBA parses a "#rrggbb" color, returning opaque white for invalid input.
func HexRGBA(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
