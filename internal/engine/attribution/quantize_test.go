package attribution

import (
	"math"
	"testing"
)

func TestQuantizeBands(t *testing.T) {
	cases := []struct {
		name      string
		ratio     float64
		newBlocks int
		class     CoverageClass
	}{
		{"zero new blocks", 0.5, 0, ClassNone},
		{"tiny ratio", 0.01, 3, ClassLow},
		{"just below low-mid", 0.0499, 3, ClassLow},
		{"low-mid lower bound", 0.05, 3, ClassLowMid},
		{"just below mid-high", 0.0999, 3, ClassLowMid},
		{"mid-high lower bound", 0.10, 3, ClassMidHigh},
		{"high lower bound", 0.25, 3, ClassHigh},
		{"well into high", 0.8, 3, ClassHigh},
		{"just below complete", 0.9989, 3, ClassHigh},
		{"complete threshold", 0.999, 3, ClassComplete},
		{"full", 1.0, 3, ClassComplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Quantize(tc.ratio, tc.newBlocks)
			if got.Class != tc.class {
				t.Errorf("Quantize(%v, %d) = %q, want %q", tc.ratio, tc.newBlocks, got.Class, tc.class)
			}
		})
	}
}

func TestQuantizeInterpolation(t *testing.T) {
	// Midpoint of the low-mid band (0.05..0.10) interpolates to T = 0.5.
	got := Quantize(0.075, 2)
	if got.Class != ClassLowMid || math.Abs(got.T-0.5) > 1e-9 {
		t.Errorf("expected low-mid T=0.5, got %+v", got)
	}

	got = Quantize(0.25-1e-9, 2)
	if got.Class != ClassMidHigh || got.T < 0.99 {
		t.Errorf("upper edge of mid-high should approach T=1, got %+v", got)
	}

	// Non-interpolated bands carry T = 0.
	if q := Quantize(0.5, 2); q.T != 0 {
		t.Errorf("high band must not interpolate, got %+v", q)
	}
}
