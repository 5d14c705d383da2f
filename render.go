package main

import (
	"fmt"
	"strings"

	"evoke/analysis"
)

// formatResult renders an analysis as plain text, for clipboard copy
// and for headless transcript mode.
func formatResult(r *analysis.Result) string {
	var b strings.Builder

	section := func(name string) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name + "\n")
		b.WriteString(strings.Repeat("-", len(name)) + "\n")
	}

	if r.Summary != "" {
		section("Summary")
		b.WriteString(r.Summary + "\n")
	}

	if len(r.TranscriptSegments) > 0 {
		section("Transcript")
		for _, seg := range r.TranscriptSegments {
			fmt.Fprintf(&b, "[%s] %s: %s\n", seg.Timestamp, seg.Speaker, seg.Text)
		}
	}

	if len(r.DiachronicStructure) > 0 {
		section("Diachronic structure")
		for _, p := range r.DiachronicStructure {
			fmt.Fprintf(&b, "%s (%s): %s\n", p.Phase, p.TimestampEstimate, p.Description)
		}
	}

	if len(r.SynchronicStructure) > 0 {
		section("Synchronic structure")
		for _, m := range r.SynchronicStructure {
			line := m.Modality
			if m.Submodality != "" {
				line += " / " + m.Submodality
			}
			fmt.Fprintf(&b, "%s: %s\n", line, m.Description)
		}
	}

	if len(r.Satellites) > 0 {
		section("Satellite dimensions")
		for _, s := range r.Satellites {
			b.WriteString("- " + s + "\n")
		}
	}

	if len(r.Suggestions) > 0 {
		section("Suggested follow-up questions")
		for _, s := range r.Suggestions {
			b.WriteString("- " + s + "\n")
		}
	}

	return b.String()
}
