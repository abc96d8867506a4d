package cue

import "testing"

func TestCap_UnderLimit(t *testing.T) {
	cues := []Cue{
		{Timestamp: 300, Gap: 2},
		{Timestamp: 100, Gap: 5},
		{Timestamp: 200, Gap: 1},
	}

	out, truncated := Cap(cues, 10)

	if truncated {
		t.Error("expected no truncation")
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(out))
	}
	// Re-sorted by timestamp even when nothing is dropped.
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp < out[i-1].Timestamp {
			t.Errorf("output not sorted at %d: %v", i, out)
		}
	}
}

func TestCap_KeepsLargestGaps(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 1},
		{Timestamp: 20, Gap: 9},
		{Timestamp: 30, Gap: 3},
		{Timestamp: 40, Gap: 7},
		{Timestamp: 50, Gap: 2},
	}

	out, truncated := Cap(cues, 2)

	if !truncated {
		t.Error("expected truncation")
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(out))
	}
	if out[0].Timestamp != 20 || out[1].Timestamp != 40 {
		t.Errorf("expected cues at 20 and 40, got %v", out)
	}
}

func TestCap_TiesKeepInputOrder(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 5},
		{Timestamp: 20, Gap: 5},
		{Timestamp: 30, Gap: 5},
	}

	out, _ := Cap(cues, 2)

	// Stable sort keeps the first two equal-gap cues.
	if out[0].Timestamp != 10 || out[1].Timestamp != 20 {
		t.Errorf("expected deterministic tie-break, got %v", out)
	}
}

func TestCap_DoesNotMutateInput(t *testing.T) {
	cues := []Cue{
		{Timestamp: 30, Gap: 1},
		{Timestamp: 10, Gap: 2},
	}

	_, _ = Cap(cues, 1)

	if cues[0].Timestamp != 30 {
		t.Error("input slice was reordered")
	}
}

func TestGapRange(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 3},
		{Timestamp: 20, Gap: 0.5},
		{Timestamp: 30, Gap: 12},
	}

	minGap, maxGap := GapRange(cues)

	if minGap != 0.5 {
		t.Errorf("expected minGap 0.5, got %f", minGap)
	}
	if maxGap != 12 {
		t.Errorf("expected maxGap 12, got %f", maxGap)
	}
}

func TestGapRange_Empty(t *testing.T) {
	minGap, maxGap := GapRange(nil)

	if minGap != DefaultMinGap || maxGap != DefaultMaxGap {
		t.Errorf("expected fallback range [%f, %f], got [%f, %f]",
			DefaultMinGap, DefaultMaxGap, minGap, maxGap)
	}
}
