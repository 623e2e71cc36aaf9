package analysis

// Indices holds the color indices of one calibrated pixel.
type Indices struct {
	ExG   float64 `json:"exg"`
	NGRDI float64 `json:"ngrdi"`
	MACI  float64 `json:"maci"`
	GI    float64 `json:"gi"`
}

// ComputeIndices returns ExG, NGRDI, mACI and GI for one pixel. Ratios with a
// zero denominator are 0.
func ComputeIndices(r, g, b float64) Indices {
	idx := Indices{ExG: 2*g - r - b}
	if d := g + r; d != 0 {
		idx.NGRDI = (g - r) / d
	}
	if g != 0 {
		idx.MACI = r / g
	}
	if d := r + g + b; d != 0 {
		idx.GI = g / d
	}
	return idx
}
