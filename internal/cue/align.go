package cue

import (
	"fmt"
	"math"
)

// AlignedCount reports how many timestamps in existing lie within
// MatchTolerance of some timestamp in selected. Matching is existential per
// existing entry, not an assignment problem: one selected timestamp may cover
// several nearby existing ones. That is the right trade for a visual aid
// where the user makes the final call.
func AlignedCount(existing, selected []float64) int {
	count := 0
	for _, e := range existing {
		if hasMatch(e, selected) {
			count++
		}
	}
	return count
}

// AlignmentPercent is the rounded percentage of existing timestamps that
// AlignedCount matches. Empty lists score 0 rather than NaN.
func AlignmentPercent(existing, selected []float64) int {
	if len(existing) == 0 {
		return 0
	}
	aligned := AlignedCount(existing, selected)
	return int(math.Round(100 * float64(aligned) / float64(len(existing))))
}

// Unaligned returns the existing timestamps with no selected match. The
// caller can merge these into the final chapter list when the user trusts a
// source beyond what the threshold reproduced.
func Unaligned(existing, selected []float64) []float64 {
	var out []float64
	for _, e := range existing {
		if !hasMatch(e, selected) {
			out = append(out, e)
		}
	}
	return out
}

// Score builds the full per-source stats for one existing timestamp list.
// The leading 0 entry is the fixed book-start anchor, not a detected
// boundary, so it is dropped before scoring.
func Score(sourceID string, existing, selected []float64) SourceStats {
	existing = StripAnchor(existing)
	aligned := AlignedCount(existing, selected)

	s := SourceStats{
		SourceID:  sourceID,
		Aligned:   aligned,
		Total:     len(existing),
		Unaligned: len(existing) - aligned,
	}
	if s.Total > 0 {
		s.Percent = int(math.Round(100 * float64(aligned) / float64(s.Total)))
	}
	s.Color = AlignmentColor(s.Percent)
	return s
}

// StripAnchor drops a leading book-start timestamp from a source's list.
func StripAnchor(timestamps []float64) []float64 {
	if len(timestamps) > 0 && timestamps[0] == 0 {
		return timestamps[1:]
	}
	return timestamps
}

func hasMatch(t float64, selected []float64) bool {
	for _, s := range selected {
		if math.Abs(t-s) <= MatchTolerance {
			return true
		}
	}
	return false
}

// Gradient anchor colors: poor / middling / good.
var (
	colorPoor = [3]int{0xd9, 0x30, 0x25}
	colorMid  = [3]int{0xf9, 0xab, 0x00}
	colorGood = [3]int{0x18, 0x80, 0x38}
)

// AlignmentColor maps an alignment percentage to a hex color for the UI.
// At or below 50 the color is flat colorPoor; 50..75 blends linearly toward
// colorMid; 75..100 blends linearly toward colorGood. The two segments meet
// exactly at the breakpoints, so the gradient is continuous.
func AlignmentColor(percent int) string {
	p := float64(percent)
	switch {
	case p <= 50:
		return hexColor(colorPoor)
	case p <= 75:
		return hexColor(lerpColor(colorPoor, colorMid, (p-50)/25))
	default:
		if p > 100 {
			p = 100
		}
		return hexColor(lerpColor(colorMid, colorGood, (p-75)/25))
	}
}

func lerpColor(a, b [3]int, t float64) [3]int {
	var out [3]int
	for i := range out {
		out[i] = a[i] + int(math.Round(t*float64(b[i]-a[i])))
	}
	return out
}

func hexColor(c [3]int) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
