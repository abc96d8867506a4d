// Package cue implements the chapter cue selection and alignment engine.
//
// An external analyzer produces candidate cues (silence-gap positions) for a
// book. This package turns a single control value into a chapter selection:
// it caps the candidate list, maps the control onto a gap threshold, applies
// an edge-proximity bonus, buckets gaps into a display histogram, and scores
// a selection against chapter sets from other sources.
//
// Everything here is pure. Callers invoke Recompute (or the individual
// functions) on every control mutation; no state is retained between calls.
package cue

// Cue is a candidate chapter boundary: a position in the book and the length
// of the silence immediately preceding it.
type Cue struct {
	Timestamp float64 `json:"timestamp"`
	Gap       float64 `json:"gap"`
}

// Bin is one histogram bucket. GapLow/GapHigh describe the gap range the
// bucket covers, open at GapLow and closed at GapHigh (the bottom bin also
// includes its GapLow); Count is how many working-set cues fall inside it.
type Bin struct {
	GapLow  float64 `json:"gap_low"`
	GapHigh float64 `json:"gap_high"`
	Count   int     `json:"count"`
}

// SourceStats describes how well a selection lines up with one existing
// chapter source.
type SourceStats struct {
	SourceID  string `json:"source_id"`
	Aligned   int    `json:"aligned"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Color     string `json:"color"`
	Unaligned int    `json:"unaligned"`
}

// Engine constants. These match the interactive editor's expectations and are
// not configurable per call.
const (
	// MaxCandidates bounds the working set handed to the selector and
	// histogram. Capping keeps recomputation cheap during a drag.
	MaxCandidates = 500

	// NumBins is the number of histogram buckets, equal-width in control
	// space.
	NumBins = 100

	// EdgeWindow is the fade distance (seconds) over which cues near the
	// book's start or end earn a proximity bonus. Forty minutes covers
	// typical intro/credits material.
	EdgeWindow = 2400.0

	// MatchTolerance is the absolute difference (seconds) under which two
	// timestamps from different sources count as the same boundary.
	MatchTolerance = 5.0

	// DefaultMinGap and DefaultMaxGap stand in for the gap range when the
	// working set is empty, so the control still renders.
	DefaultMinGap = 1.0
	DefaultMaxGap = 10.0

	// ControlStep is the UI grid the preselected control value snaps to.
	ControlStep = 0.01
)

// Inputs carries everything Recompute needs for one evaluation.
type Inputs struct {
	// Cues is the working set (already capped). Order does not matter.
	Cues []Cue
	// Duration is the book length in seconds.
	Duration float64
	// Control is the slider position in [0,1].
	Control float64
	// Sensitivity is the edge-proximity knob in [-2,2].
	Sensitivity float64
	// Existing maps source IDs to their ordered timestamp lists, used for
	// alignment scoring. May be nil.
	Existing map[string][]float64
}

// Outputs is the result of one Recompute evaluation.
type Outputs struct {
	// Threshold is the effective gap threshold the control mapped to.
	Threshold float64 `json:"threshold"`
	// Selection is the ordered chapter timestamp list, always starting at 0.
	Selection []float64 `json:"selection"`
	// Histogram is the gap distribution of the working set.
	Histogram []Bin `json:"histogram"`
	// Sources holds per-source alignment statistics, keyed by source ID.
	Sources map[string]SourceStats `json:"sources,omitempty"`
}
