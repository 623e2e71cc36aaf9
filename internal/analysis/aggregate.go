package analysis

// GroupStats is the aggregate of one ROI group for one pipeline pass.
//
// Sums are accumulated during the scan, means and the anthocyanin estimate are
// filled in by Finalize. The struct is comparable with ==.
type GroupStats struct {
	Count    int     `json:"pixel_count"`
	SumR     float64 `json:"sum_r"`
	SumG     float64 `json:"sum_g"`
	SumB     float64 `json:"sum_b"`
	SumNGRDI float64 `json:"sum_ngrdi"`
	SumMACI  float64 `json:"sum_maci"`
	SumGI    float64 `json:"sum_gi"`

	MeanR       float64 `json:"mean_r"`
	MeanG       float64 `json:"mean_g"`
	MeanB       float64 `json:"mean_b"`
	MeanNGRDI   float64 `json:"mean_ngrdi"`
	MeanMACI    float64 `json:"mean_maci"`
	MeanGI      float64 `json:"mean_gi"`
	Anthocyanin float64 `json:"anthocyanin"`
	// Area is Count / PixelsPerUnit^2 when a scale is known.
	Area float64 `json:"area,omitempty"`
}

func (s *GroupStats) add(r, g, b float64, idx Indices) {
	s.Count++
	s.SumR += r
	s.SumG += g
	s.SumB += b
	s.SumNGRDI += idx.NGRDI
	s.SumMACI += idx.MACI
	s.SumGI += idx.GI
}

// Finalize computes means with a max(count, 1) divisor, the regression
// estimate and, when pixelsPerUnit > 0, the physical area. Empty groups
// finalize to all zeros.
func (s *GroupStats) Finalize(reg Regression, pixelsPerUnit float64) {
	n := float64(max(s.Count, 1))
	s.MeanR = s.SumR / n
	s.MeanG = s.SumG / n
	s.MeanB = s.SumB / n
	s.MeanNGRDI = s.SumNGRDI / n
	s.MeanMACI = s.SumMACI / n
	s.MeanGI = s.SumGI / n

	s.Anthocyanin = 0
	if s.Count > 0 {
		s.Anthocyanin = reg.Estimate(s.targetMean(reg.Target))
	}

	s.Area = 0
	if pixelsPerUnit > 0 {
		s.Area = float64(s.Count) / (pixelsPerUnit * pixelsPerUnit)
	}
}

func (s GroupStats) targetMean(t Target) float64 {
	if t == TargetNGRDI {
		return s.MeanNGRDI
	}
	return s.MeanMACI
}
