package cue

import "math"

// Histogram buckets the working set's gaps into NumBins bins. Bins are
// equal-width in control space and converted to gap space through the same
// log mapping the slider uses, so the bars line up under the control: bin i
// spans [i/N, (i+1)/N) in control space, which in gap space is the range
// (Threshold((i+1)/N), Threshold(i/N)]. Each bin is open at GapLow and
// closed at GapHigh, so a gap sitting exactly on an edge belongs to the bin
// below it; in particular maxGap lands in bin 0. The bottom bin also
// includes minGap.
//
// Every cue lands in exactly one bin; the counts always sum to len(cues).
func Histogram(cues []Cue, minGap, maxGap float64) []Bin {
	bins := make([]Bin, NumBins)
	for i := range bins {
		bins[i].GapLow = Threshold(float64(i+1)/NumBins, minGap, maxGap)
		bins[i].GapHigh = Threshold(float64(i)/NumBins, minGap, maxGap)
	}

	for _, c := range cues {
		// A cue's bin is its position in control space. ControlFor clamps,
		// so out-of-range gaps fold into the edge bins and a degenerate
		// range puts everything in the middle bin.
		s := ControlFor(c.Gap, minGap, maxGap)
		idx := int(s * NumBins)
		if idx >= NumBins {
			idx = NumBins - 1
		}
		bins[idx].Count++
	}

	return bins
}

// BarHeight converts a bin count to a display height. Heights are
// log-compressed against the largest bin so one outlier does not flatten the
// rest of the histogram: zero stays zero, and non-zero counts interpolate
// between minHeight and maxHeight on ln(count)/ln(maxCount).
func BarHeight(count, maxCount int, minHeight, maxHeight float64) float64 {
	if count <= 0 || maxCount <= 0 {
		return 0
	}
	if count >= maxCount || maxCount == 1 {
		return maxHeight
	}
	frac := math.Log(float64(count)) / math.Log(float64(maxCount))
	return minHeight + (maxHeight-minHeight)*frac
}

// MaxCount returns the largest bin count, for use as the BarHeight scale.
func MaxCount(bins []Bin) int {
	max := 0
	for _, b := range bins {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}
