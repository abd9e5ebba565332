package attribution

// CoverageClass is the discrete severity band for a coverage ratio. The
// banding is deliberately asymmetric: real coverage deltas cluster below 10%,
// so the low end gets finer resolution than the high end.
type CoverageClass string

const (
	ClassNone     CoverageClass = "none"
	ClassLow      CoverageClass = "low"
	ClassLowMid   CoverageClass = "low-mid"
	ClassMidHigh  CoverageClass = "mid-high"
	ClassHigh     CoverageClass = "high"
	ClassComplete CoverageClass = "complete"
)

const (
	completeThreshold = 0.999
	lowThreshold      = 0.05
	lowMidThreshold   = 0.10
	midHighThreshold  = 0.25
)

// Quantized is a band plus the linear position within it. T is meaningful
// only for the interpolated bands (low-mid, mid-high) and is 0 elsewhere.
type Quantized struct {
	Class CoverageClass
	T     float64
}

// Quantize maps a coverage ratio to its visual-weight band. Zero new blocks
// is its own class, distinct from a merely small ratio.
func Quantize(ratio float64, newBlocks int) Quantized {
	if newBlocks == 0 {
		return Quantized{Class: ClassNone}
	}
	switch {
	case ratio >= completeThreshold:
		return Quantized{Class: ClassComplete}
	case ratio < lowThreshold:
		return Quantized{Class: ClassLow}
	case ratio < lowMidThreshold:
		return Quantized{
			Class: ClassLowMid,
			T:     (ratio - lowThreshold) / (lowMidThreshold - lowThreshold),
		}
	case ratio < midHighThreshold:
		return Quantized{
			Class: ClassMidHigh,
			T:     (ratio - lowMidThreshold) / (midHighThreshold - lowMidThreshold),
		}
	default:
		return Quantized{Class: ClassHigh}
	}
}
