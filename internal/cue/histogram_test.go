package cue

import (
	"math"
	"math/rand"
	"testing"
)

func TestHistogram_CountsSumToWorkingSet(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cues := make([]Cue, 500)
	for i := range cues {
		cues[i] = Cue{
			Timestamp: float64(i) * 30,
			Gap:       0.5 + rng.Float64()*20,
		}
	}
	minGap, maxGap := GapRange(cues)

	bins := Histogram(cues, minGap, maxGap)

	if len(bins) != NumBins {
		t.Fatalf("expected %d bins, got %d", NumBins, len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(cues) {
		t.Errorf("bin counts sum to %d, want %d", total, len(cues))
	}
}

func TestHistogram_EdgeGaps(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 1},  // minGap, most permissive end
		{Timestamp: 20, Gap: 16}, // maxGap, strictest end
	}

	bins := Histogram(cues, 1, 16)

	// A gap on a bin edge belongs to the bin whose GapHigh it is: maxGap
	// sits inside bin 0, not above it, and minGap inside the bottom bin.
	if math.Abs(bins[0].GapHigh-16) > epsilon {
		t.Fatalf("bin 0 high = %f, want 16", bins[0].GapHigh)
	}
	if bins[0].Count != 1 {
		t.Errorf("maxGap cue should land in bin 0, got %d", bins[0].Count)
	}
	if bins[NumBins-1].Count != 1 {
		t.Errorf("minGap cue should land in the last bin, got %d", bins[NumBins-1].Count)
	}
}

func TestHistogram_BinRangesTrackThresholdMapping(t *testing.T) {
	minGap, maxGap := 2.0, 50.0

	bins := Histogram(nil, minGap, maxGap)

	// Bins are contiguous in gap space and descend from maxGap to minGap.
	if math.Abs(bins[0].GapHigh-maxGap) > epsilon {
		t.Errorf("first bin high = %f, want %f", bins[0].GapHigh, maxGap)
	}
	if math.Abs(bins[NumBins-1].GapLow-minGap) > epsilon {
		t.Errorf("last bin low = %f, want %f", bins[NumBins-1].GapLow, minGap)
	}
	for i := 1; i < len(bins); i++ {
		if math.Abs(bins[i].GapHigh-bins[i-1].GapLow) > epsilon {
			t.Fatalf("gap between bins %d and %d: %f vs %f", i-1, i, bins[i-1].GapLow, bins[i].GapHigh)
		}
	}
}

func TestHistogram_DegenerateRange(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 3},
		{Timestamp: 20, Gap: 3},
	}

	bins := Histogram(cues, 3, 3)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 2 {
		t.Errorf("degenerate range must not drop cues, sum = %d", total)
	}
}

func TestBarHeight(t *testing.T) {
	if got := BarHeight(0, 40, 2, 28); got != 0 {
		t.Errorf("zero count renders zero height, got %f", got)
	}
	if got := BarHeight(40, 40, 2, 28); got != 28 {
		t.Errorf("max count renders max height, got %f", got)
	}
	if got := BarHeight(1, 1, 2, 28); got != 28 {
		t.Errorf("single-cue scale renders max height, got %f", got)
	}

	// Log compression keeps intermediate counts above the linear ratio.
	mid := BarHeight(20, 40, 2, 28)
	if mid <= 2 || mid >= 28 {
		t.Errorf("intermediate count out of range: %f", mid)
	}
	linear := 2 + (28-2)*(20.0/40.0)
	if mid <= linear {
		t.Errorf("expected log compression to lift mid count above %f, got %f", linear, mid)
	}
}

func TestMaxCount(t *testing.T) {
	bins := []Bin{{Count: 3}, {Count: 11}, {Count: 7}}
	if got := MaxCount(bins); got != 11 {
		t.Errorf("MaxCount = %d, want 11", got)
	}
}
