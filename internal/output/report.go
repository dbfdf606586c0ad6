// Package output renders the engine's findings: a structured Report for
// machine consumption, a colorized human summary, and elapsed-time progress
// logging during a run.
package output

import (
	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
)

// Report is the complete, read-only result of one run, built once after
// every detector and the environmental damping pass have finished.
type Report struct {
	Verdict        string                   `json:"verdict"`
	Score          uint64                   `json:"score"`
	Evidence       []evidence.Evidence      `json:"evidence"`
	Contradictions []evidence.Contradiction `json:"contradictions"`
	SourceTotals   map[string]int           `json:"source_totals"`
}

// BuildReport snapshots an engine's final state into a Report. Call it only
// after AnalyzeContradictions and ApplyEnvironmentalAdjustment have run.
func BuildReport(eng *engine.Engine) Report {
	totals := make(map[string]int)
	for _, s := range evidence.AllSources() {
		if t := eng.SourceTotal(s); t != 0 {
			totals[s.String()] = t
		}
	}

	return Report{
		Verdict:        eng.Decide().String(),
		Score:          eng.Score(),
		Evidence:       eng.EvidenceLog(),
		Contradictions: eng.Contradictions(),
		SourceTotals:   totals,
	}
}
