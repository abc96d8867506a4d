// Command cuetool runs the cue selection engine against an analyzer result
// file without a running server. Useful for eyeballing what the knobs do to
// a real book's cues.
package main

import (
	"encoding/json/v2"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cuemarkapp/cuemark-server/internal/cue"
)

func main() {
	control := flag.Float64("control", -1, "Gap threshold control in [0,1]; -1 picks automatically")
	sensitivity := flag.Float64("sensitivity", 0, "Edge sensitivity in [-2,2]")
	refPath := flag.String("ref", "", "Reference chapter JSON to score the selection against")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: cuetool [-control C] [-sensitivity S] <cues.json>")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	var result struct {
		BookID   string    `json:"book_id"`
		Duration float64   `json:"duration"`
		Cues     []cue.Cue `json:"cues"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		log.Fatalf("Failed to parse file: %v", err)
	}

	capped, truncated := cue.Cap(result.Cues, cue.MaxCandidates)
	minGap, maxGap := cue.GapRange(capped)

	c := *control
	if c < 0 {
		c = cue.Preselect(capped, nil, minGap, maxGap)
	}

	out := cue.Recompute(cue.Inputs{
		Cues:        capped,
		Duration:    result.Duration,
		Control:     c,
		Sensitivity: *sensitivity,
	})

	fmt.Printf("Book: %s\n", result.BookID)
	fmt.Printf("Cues: %d", len(result.Cues))
	if truncated {
		fmt.Printf(" (capped to %d)", cue.MaxCandidates)
	}
	fmt.Println()
	fmt.Printf("Gap range: %.2f - %.2f sec\n", minGap, maxGap)
	fmt.Printf("Control: %.3f  Sensitivity: %.1f  Threshold: %.2f sec\n\n", c, *sensitivity, out.Threshold)

	fmt.Printf("Selected %d chapter marks:\n", len(out.Selection))
	for i, ts := range out.Selection {
		fmt.Printf("  [%d] %s\n", i+1, formatTime(ts))
	}

	if *refPath != "" {
		refData, err := os.ReadFile(*refPath)
		if err != nil {
			log.Fatalf("Failed to read reference file: %v", err)
		}
		var ref struct {
			Name     string `json:"name"`
			Chapters []struct {
				Timestamp float64 `json:"timestamp"`
				Title     string  `json:"title"`
			} `json:"chapters"`
		}
		if err := json.Unmarshal(refData, &ref); err != nil {
			log.Fatalf("Failed to parse reference file: %v", err)
		}

		existing := make([]float64, len(ref.Chapters))
		for i, ch := range ref.Chapters {
			existing[i] = ch.Timestamp
		}
		stats := cue.Score(ref.Name, cue.StripAnchor(existing), out.Selection)
		fmt.Printf("\nAlignment vs %s: %d/%d (%d%%)\n", ref.Name, stats.Aligned, stats.Total, stats.Percent)
		if stats.Unaligned > 0 {
			fmt.Printf("  %d reference chapters have no selected mark within %.0fs\n", stats.Unaligned, cue.MatchTolerance)
		}
	}

	maxCount := cue.MaxCount(out.Histogram)
	if maxCount > 0 {
		fmt.Println("\nGap histogram:")
		for _, bin := range out.Histogram {
			if bin.Count == 0 {
				continue
			}
			bar := strings.Repeat("#", int(cue.BarHeight(bin.Count, maxCount, 1, 50)))
			fmt.Printf("  %6.2fs %s %d\n", bin.GapLow, bar, bin.Count)
		}
	}
}

func formatTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
