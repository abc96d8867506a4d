package cue

import (
	"math"
	"sort"
)

// Preselect chooses the initial control value for a fresh editing session.
//
// The richest known chapter source is the best prior for plausible chapter
// density, so we reverse-solve the slider position that reproduces roughly
// that many chapters: take the highest existing count N (counts include the
// book-start anchor, so N timestamps mean N-1 detected boundaries), find the
// gap of the (N-2)th cue in gap-descending order, and invert the threshold
// mapping at that gap. The result snaps up to the ControlStep grid so the
// slider lands on a stable UI position.
//
// With no usable source, or an empty working set, the neutral 0.5 is
// returned.
func Preselect(cues []Cue, existingCounts []int, minGap, maxGap float64) float64 {
	highest := 0
	for _, n := range existingCounts {
		if n > highest {
			highest = n
		}
	}

	// A count of 1 is just the anchor; nothing to aim for.
	if highest <= 1 || len(cues) == 0 {
		return 0.5
	}

	byGap := make([]Cue, len(cues))
	copy(byGap, cues)
	sort.SliceStable(byGap, func(i, j int) bool {
		return byGap[i].Gap > byGap[j].Gap
	})

	idx := highest - 2
	if idx < 0 {
		idx = 0
	}
	if idx > len(byGap)-1 {
		idx = len(byGap) - 1
	}

	s := ControlFor(byGap[idx].Gap, minGap, maxGap)
	return clamp01(math.Ceil(s/ControlStep) * ControlStep)
}
