package cue

import "sort"

// Cap bounds a candidate list to at most max cues, keeping the largest gaps.
//
// Gap magnitude is the best available signal for "this is a real chapter
// boundary", so an oversized candidate list must keep the highest-gap cues
// rather than an arbitrary prefix. Ties keep their original input order. The
// returned list is sorted by timestamp ascending either way. The bool reports
// whether anything was dropped so the caller can tell the user the list was
// truncated.
func Cap(cues []Cue, max int) ([]Cue, bool) {
	if max < 0 {
		max = 0
	}

	out := make([]Cue, len(cues))
	copy(out, cues)

	if len(out) <= max {
		sortByTimestamp(out)
		return out, false
	}

	// Stable sort by gap descending so equal gaps keep input order, then
	// take the top max and restore timestamp order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Gap > out[j].Gap
	})
	out = out[:max]
	sortByTimestamp(out)

	return out, true
}

// GapRange reports the smallest and largest gap in the working set. An empty
// set falls back to DefaultMinGap/DefaultMaxGap so downstream consumers can
// still render an inert control.
func GapRange(cues []Cue) (minGap, maxGap float64) {
	if len(cues) == 0 {
		return DefaultMinGap, DefaultMaxGap
	}

	minGap = cues[0].Gap
	maxGap = cues[0].Gap
	for _, c := range cues[1:] {
		if c.Gap < minGap {
			minGap = c.Gap
		}
		if c.Gap > maxGap {
			maxGap = c.Gap
		}
	}
	return minGap, maxGap
}

func sortByTimestamp(cues []Cue) {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Timestamp < cues[j].Timestamp
	})
}
