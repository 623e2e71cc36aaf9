package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Target is the index that drives the anthocyanin regression.
type Target int

const (
	TargetMACI Target = iota
	TargetNGRDI
)

func (t Target) String() string {
	switch t {
	case TargetMACI:
		return "maci"
	case TargetNGRDI:
		return "ngrdi"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget converts "maci" or "ngrdi" into a Target.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "maci", "mACI", "MACI":
		return TargetMACI, nil
	case "ngrdi", "NGRDI":
		return TargetNGRDI, nil
	}
	return 0, fmt.Errorf("unknown target index: %q", s)
}

// MarshalText encodes the target name.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a target name.
func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Regression maps the mean target index of a group to an anthocyanin estimate.
type Regression struct {
	Target    Target  `json:"target"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Estimate returns slope * x + intercept.
func (r Regression) Estimate(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Literature defaults, per target index.
const (
	defaultMACISlope      = 28.0
	defaultMACIIntercept  = -2.0
	defaultNGRDISlope     = -45.0
	defaultNGRDIIntercept = 20.0
)

// DefaultRegression returns the literature-default line for t.
func DefaultRegression(t Target) Regression {
	if t == TargetNGRDI {
		return Regression{Target: t, Slope: defaultNGRDISlope, Intercept: defaultNGRDIIntercept}
	}
	return Regression{Target: TargetMACI, Slope: defaultMACISlope, Intercept: defaultMACIIntercept}
}

const (
	// NoiseFloor is the minimum observed span that auto-tune will fit.
	NoiseFloor = 0.05
	tuneLow    = 1.0
	tuneHigh   = 40.0
)

// ErrInsufficientGroups is returned by AutoTune with fewer than two
// non-empty groups.
var ErrInsufficientGroups = errors.New("auto-tune needs at least 2 groups with vegetation pixels")

// TuneResult describes an auto-tune outcome.
type TuneResult struct {
	Regression  Regression `json:"regression"`
	ObservedMin float64    `json:"observed_min"`
	ObservedMax float64    `json:"observed_max"`
	Groups      int        `json:"groups"`
	Fallback    bool       `json:"fallback"`
}

// AutoTune fits the regression for target so that the smallest observed group
// mean maps to 1 and the largest to 40. Groups without pixels are ignored.
func AutoTune(stats []GroupStats, target Target) (*TuneResult, error) {
	var means []float64
	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		means = append(means, s.targetMean(target))
	}
	if len(means) < 2 {
		return nil, fmt.Errorf("%w (have %d)", ErrInsufficientGroups, len(means))
	}

	lo, hi := floats.Min(means), floats.Max(means)
	res := &TuneResult{ObservedMin: lo, ObservedMax: hi, Groups: len(means)}
	if hi-lo < NoiseFloor {
		res.Regression = DefaultRegression(target)
		res.Fallback = true
		return res, nil
	}

	intercept, slope := stat.LinearRegression([]float64{lo, hi}, []float64{tuneLow, tuneHigh}, nil, false)
	res.Regression = Regression{Target: target, Slope: slope, Intercept: intercept}
	return res, nil
}
