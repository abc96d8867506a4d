package cue

import (
	"math"
	"testing"
)

func TestSelect_ThresholdScenario(t *testing.T) {
	cues := []Cue{
		{Timestamp: 10, Gap: 2},
		{Timestamp: 50, Gap: 8},
		{Timestamp: 90, Gap: 1},
	}

	got := Select(cues, 5, 0, 100)

	want := []float64{0, 50}
	if !equalFloats(got, want) {
		t.Errorf("Select = %v, want %v", got, want)
	}
}

func TestSelect_InclusiveComparison(t *testing.T) {
	cues := []Cue{{Timestamp: 40, Gap: 5}}

	got := Select(cues, 5, 0, 100)

	if len(got) != 2 || got[1] != 40 {
		t.Errorf("cue equal to threshold must be included, got %v", got)
	}
}

func TestSelect_SensitivityAdmitsEdgeCues(t *testing.T) {
	// A short-gap cue near the end clears a threshold its raw gap misses
	// once the proximity bonus kicks in. The same gap in the interior does
	// not.
	duration := 10000.0
	cues := []Cue{
		{Timestamp: 5000, Gap: 1},           // interior
		{Timestamp: duration - 100, Gap: 1}, // near end
	}

	strict := Select(cues, 2.5, 0, duration)
	if len(strict) != 1 {
		t.Fatalf("with sensitivity 0 nothing should pass, got %v", strict)
	}

	boosted := Select(cues, 2.5, 2, duration)
	want := []float64{0, duration - 100}
	if !equalFloats(boosted, want) {
		t.Errorf("with sensitivity 2 the edge cue should pass: got %v, want %v", boosted, want)
	}
}

func TestSelect_AlwaysContainsStart(t *testing.T) {
	if got := Select(nil, 5, 0, 100); !equalFloats(got, []float64{0}) {
		t.Errorf("empty set should select only the start anchor, got %v", got)
	}

	// Even an impossible threshold keeps the anchor.
	cues := []Cue{{Timestamp: 10, Gap: 1}}
	if got := Select(cues, math.Inf(1), 0, 100); !equalFloats(got, []float64{0}) {
		t.Errorf("expected [0], got %v", got)
	}
}

func TestSelect_CueAtZeroNotDuplicated(t *testing.T) {
	cues := []Cue{{Timestamp: 0, Gap: 10}}

	got := Select(cues, 1, 0, 100)

	if !equalFloats(got, []float64{0}) {
		t.Errorf("anchor must not be doubled, got %v", got)
	}
}

func TestSelect_MonotoneInControl(t *testing.T) {
	cues := []Cue{
		{Timestamp: 100, Gap: 1.2},
		{Timestamp: 900, Gap: 3.7},
		{Timestamp: 1700, Gap: 0.4},
		{Timestamp: 2500, Gap: 9.8},
		{Timestamp: 3300, Gap: 2.1},
		{Timestamp: 4100, Gap: 6.6},
	}
	minGap, maxGap := GapRange(cues)

	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		threshold := Threshold(s, minGap, maxGap)
		n := len(Select(cues, threshold, 0, 5000))
		if n < prev {
			t.Fatalf("selection shrank as control increased at s=%f: %d < %d", s, n, prev)
		}
		prev = n
	}
}

func TestRecompute_EmptyWorkingSet(t *testing.T) {
	out := Recompute(Inputs{Duration: 3600, Control: 0.5})

	if !equalFloats(out.Selection, []float64{0}) {
		t.Errorf("expected selection [0], got %v", out.Selection)
	}
	if len(out.Histogram) != NumBins {
		t.Fatalf("expected %d bins, got %d", NumBins, len(out.Histogram))
	}
	for i, b := range out.Histogram {
		if b.Count != 0 {
			t.Errorf("bin %d should be empty, got %d", i, b.Count)
		}
	}
}

func TestRecompute_ScoresSources(t *testing.T) {
	out := Recompute(Inputs{
		Cues:     []Cue{{Timestamp: 50, Gap: 8}},
		Duration: 100,
		Control:  1, // most permissive
		Existing: map[string][]float64{
			"src-embedded": {0, 48, 52},
		},
	})

	stats, ok := out.Sources["src-embedded"]
	if !ok {
		t.Fatal("missing source stats")
	}
	if stats.Percent != 100 {
		t.Errorf("expected 100%% alignment, got %d", stats.Percent)
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
