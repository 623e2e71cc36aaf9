package calibration

import (
	"fmt"
	"math"
)

// Color is a mean RGB value with channels in 0-255.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

func (c Color) channels() [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

// Mode is the correction strategy selected by Derive.
type Mode int

const (
	ModeIdentity Mode = iota
	ModeGrayWorld
	ModeContrastStretch
)

func (m Mode) String() string {
	switch m {
	case ModeIdentity:
		return "identity"
	case ModeGrayWorld:
		return "gray_world"
	case ModeContrastStretch:
		return "contrast_stretch"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	for _, v := range []Mode{ModeIdentity, ModeGrayWorld, ModeContrastStretch} {
		if v.String() == string(b) {
			*m = v
			return nil
		}
	}
	return fmt.Errorf("unknown calibration mode: %q", b)
}

const (
	whiteTarget = 255.0
	grayTarget  = 128.0
)

// References holds the sampled color of each slot, nil when unsampled.
type References struct {
	Gray  *Color
	White *Color
	Black *Color
}

// Correction is a derived per-channel transform.
type Correction struct {
	Mode Mode `json:"mode"`
	// Reference names the slot driving a gray-world correction.
	Reference string `json:"reference,omitempty"`
	// Offset and Divisor are used by contrast stretch.
	Offset  [3]float64 `json:"offset"`
	Divisor [3]float64 `json:"divisor"`
	// Scale is used by gray-world balance.
	Scale [3]float64 `json:"scale"`
}

// Identity returns the pass-through correction.
func Identity() Correction {
	return Correction{Mode: ModeIdentity, Divisor: [3]float64{1, 1, 1}, Scale: [3]float64{1, 1, 1}}
}

// Derive selects the correction mode for the sampled references.
func Derive(refs References) Correction {
	switch {
	case refs.White != nil && refs.Black != nil:
		c := Identity()
		c.Mode = ModeContrastStretch
		white, black := refs.White.channels(), refs.Black.channels()
		for i := range white {
			c.Offset[i] = black[i]
			c.Divisor[i] = white[i] - black[i]
			if c.Divisor[i] == 0 {
				c.Divisor[i] = 1
			}
		}
		return c
	case refs.White != nil:
		return grayWorld(*refs.White, whiteTarget, "white")
	case refs.Gray != nil:
		return grayWorld(*refs.Gray, grayTarget, "gray")
	}
	return Identity()
}

func grayWorld(ref Color, target float64, slot string) Correction {
	c := Identity()
	c.Mode = ModeGrayWorld
	c.Reference = slot
	for i, v := range ref.channels() {
		c.Scale[i] = target / math.Max(v, 1)
	}
	return c
}

// Apply corrects one pixel. Outputs are in [0, 255].
func (c Correction) Apply(r, g, b float64) (float64, float64, float64) {
	switch c.Mode {
	case ModeContrastStretch:
		return c.stretch(0, r), c.stretch(1, g), c.stretch(2, b)
	case ModeGrayWorld:
		return math.Min(r*c.Scale[0], 255), math.Min(g*c.Scale[1], 255), math.Min(b*c.Scale[2], 255)
	}
	return r, g, b
}

func (c Correction) stretch(i int, v float64) float64 {
	out := (v - c.Offset[i]) / c.Divisor[i] * 255
	return math.Max(0, math.Min(out, 255))
}
