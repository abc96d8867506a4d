package cue

import "math"

// Threshold maps a control value in [0,1] to a gap threshold by logarithmic
// interpolation between maxGap and minGap. Control 0 is the strictest setting
// (threshold = maxGap, fewest chapters); control 1 the most permissive
// (threshold = minGap). Gap distributions are heavily skewed toward short
// gaps, so interpolating in log space gives the slider even perceptual
// resolution across the range.
//
// A degenerate range (maxGap <= minGap) collapses to a constant minGap so no
// log of a non-positive ratio is ever taken.
func Threshold(control, minGap, maxGap float64) float64 {
	if maxGap <= minGap {
		return minGap
	}
	control = clamp01(control)
	return math.Exp(math.Log(maxGap)*(1-control) + math.Log(minGap)*control)
}

// ControlFor inverts Threshold: it returns the control value whose threshold
// equals gap, clamped to [0,1]. Used by Preselect to reverse-solve "what
// slider position reproduces this gap". A degenerate range returns 0.5, the
// slider's neutral position.
func ControlFor(gap, minGap, maxGap float64) float64 {
	if maxGap <= minGap {
		return 0.5
	}
	if gap < minGap {
		gap = minGap
	}
	if gap > maxGap {
		gap = maxGap
	}
	return clamp01(math.Log(maxGap/gap) / math.Log(maxGap/minGap))
}

// Proximity reports how close a timestamp sits to either edge of the book,
// fading linearly from 1 at the edge to 0 at EdgeWindow seconds in. Interior
// cues score 0.
//
// Near-start and near-end are combined with max rather than a sum; a cue in a
// very short book can be inside both fades, and whichever edge it is closer
// to dominates.
func Proximity(timestamp, duration float64) float64 {
	nearStart := 1 - timestamp/EdgeWindow
	nearEnd := 1 - (duration-timestamp)/EdgeWindow

	p := math.Max(nearStart, nearEnd)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// EffectiveGap is the gap used for selection: the raw gap plus the
// sensitivity-scaled edge bonus. Positive sensitivity lowers the bar for
// intro/credits cues whose silences run short; negative sensitivity raises
// it.
func EffectiveGap(c Cue, sensitivity, duration float64) float64 {
	return c.Gap + sensitivity*Proximity(c.Timestamp, duration)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
