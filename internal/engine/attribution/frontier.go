package attribution

import (
	"fmt"

	"frontier/internal/engine/dataset"
)

// FrontierStyle is the function-level classification of whether a function's
// frontier blocks are dominated by the strong or weak subtype. It drives a
// single border-style decision per function, not per-block styling.
type FrontierStyle string

const (
	StyleNone   FrontierStyle = "none"
	StyleWeak   FrontierStyle = "weak"
	StyleStrong FrontierStyle = "strong"
)

// IsFrontierCandidate reports whether a block is a coverage frontier: newly
// reached and flagged structurally pivotal by the analyzer.
func IsFrontierCandidate(b *dataset.BasicBlock) bool {
	return b.Status == dataset.BlockNew && b.IsFrontier
}

// FunctionFrontierStyle answers "is this function dominated by strong or
// weak frontiers". Strong wins ties only when strictly greater.
func FunctionFrontierStyle(fn *dataset.Function) FrontierStyle {
	if fn.Attribution.FrontierCount == 0 {
		return StyleNone
	}
	if fn.Attribution.StrongFrontierCount > fn.Attribution.WeakFrontierCount {
		return StyleStrong
	}
	return StyleWeak
}

// ContributionPercent is the share of the owning function's newly-reached
// blocks attributable to reaching this frontier block, clamped to [0,100].
// A function with no new blocks yields 0.
func ContributionPercent(b *dataset.BasicBlock, fn *dataset.Function) float64 {
	if !IsFrontierCandidate(b) || b.Attribution == nil {
		return 0
	}
	total := fn.Attribution.TotalNewBB
	if total <= 0 {
		return 0
	}
	pct := float64(b.Attribution.TotalNewBB) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Contribution colors interpolate continuously between these two endpoints.
// This is a ranking signal, so it stays continuous rather than reusing the
// banded quantization applied to coverage ratios.
var (
	contributionLow  = [3]uint8{0x64, 0x74, 0x8B}
	contributionHigh = [3]uint8{0xF8, 0x71, 0x71}
)

// ContributionColor maps a contribution percentage to a hex color via linear
// two-color interpolation.
func ContributionColor(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	t := pct / 100
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t)
	}
	return fmt.Sprintf("#%02X%02X%02X",
		lerp(contributionLow[0], contributionHigh[0]),
		lerp(contributionLow[1], contributionHigh[1]),
		lerp(contributionLow[2], contributionHigh[2]))
}
