package cue

import "sort"

// Select returns the ordered chapter timestamps for the given threshold:
// every cue whose effective gap meets the threshold (inclusive), plus the
// book-start anchor at 0. The result is unique and ascending.
//
// This runs on every pointer move during a drag, so it stays O(n) with a
// single allocation.
func Select(cues []Cue, threshold, sensitivity, duration float64) []float64 {
	out := make([]float64, 0, len(cues)+1)
	out = append(out, 0)

	for _, c := range cues {
		if EffectiveGap(c, sensitivity, duration) >= threshold {
			out = append(out, c.Timestamp)
		}
	}

	sort.Float64s(out)
	return dedupSorted(out)
}

// Recompute is the single entry point the interactive caller invokes per
// control mutation: threshold mapping, selection, histogram, and alignment
// stats against every existing source, all from explicit inputs.
func Recompute(in Inputs) Outputs {
	minGap, maxGap := GapRange(in.Cues)
	threshold := Threshold(in.Control, minGap, maxGap)
	selection := Select(in.Cues, threshold, in.Sensitivity, in.Duration)

	out := Outputs{
		Threshold: threshold,
		Selection: selection,
		Histogram: Histogram(in.Cues, minGap, maxGap),
	}

	if len(in.Existing) > 0 {
		out.Sources = make(map[string]SourceStats, len(in.Existing))
		for id, timestamps := range in.Existing {
			out.Sources[id] = Score(id, timestamps, selection)
		}
	}

	return out
}

// dedupSorted removes adjacent duplicates in place. A cue sitting exactly at
// 0 must not produce a doubled book-start anchor.
func dedupSorted(ts []float64) []float64 {
	if len(ts) < 2 {
		return ts
	}
	w := 1
	for _, t := range ts[1:] {
		if t != ts[w-1] {
			ts[w] = t
			w++
		}
	}
	return ts[:w]
}
