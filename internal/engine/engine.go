// Package engine implements the decision engine: it aggregates weighted
// evidence from detectors, tracks per-source totals, detects cross-source
// contradictions, applies environmental damping, and emits a verdict.
//
// The engine holds no locks. Callers guarantee single-threaded use — all
// detectors and the engine run sequentially on the main goroutine.
package engine

import (
	"fmt"
	"strings"

	"github.com/aleksvor/sentrycheck/internal/evidence"
)

// Engine is the mutable per-run state described as EngineState in the
// specification: a saturating score, an ordered evidence log, an ordered
// contradiction log, and per-source weight totals.
type Engine struct {
	score         uint64
	evidenceLog   []evidence.Evidence
	contradictions []evidence.Contradiction
	perSource     map[evidence.Source]int
	damped        bool

	rules []rule
}

// contradictionPenalty is the fixed score contribution of each recorded
// contradiction.
const contradictionPenalty = 30

// New creates an empty Engine with the built-in correlation rule
// registered (see rules.go); AnalyzeContradictions runs this rule alongside
// any additional ones a caller registers with RegisterRule.
func New() *Engine {
	e := &Engine{
		perSource: make(map[evidence.Source]int),
	}
	e.rules = append(e.rules, defaultCorrelationRule)
	return e
}

// Report appends Evidence with confidence 1.0. Equivalent to
// ReportWithConfidence(source, weight, 1.0, details).
func (e *Engine) Report(source evidence.Source, weight int, details string) {
	e.ReportWithConfidence(source, weight, 1.0, details)
}

// ReportWithConfidence appends Evidence, saturating-adds its effective
// contribution (floor(weight*confidence)) to the score, and accumulates the
// per-source total. Evidence is appended even when weight or confidence is
// zero, so the evidence log always reflects every report() call a detector
// made.
func (e *Engine) ReportWithConfidence(source evidence.Source, weight int, confidence float64, details string) {
	ev := evidence.Evidence{Source: source, Weight: weight, Confidence: confidence, Details: details}
	e.evidenceLog = append(e.evidenceLog, ev)

	effective := ev.Effective()
	e.addScore(uint64(effective))
	e.perSource[source] += effective
}

// RecordContradiction appends a Contradiction and saturating-adds the fixed
// contradictionPenalty to the score.
func (e *Engine) RecordContradiction(a, b evidence.Source, description string) {
	e.contradictions = append(e.contradictions, evidence.Contradiction{SourceA: a, SourceB: b, Description: description})
	e.addScore(contradictionPenalty)
}

// addScore performs saturating unsigned addition so pathological evidence
// storms cannot wrap the score around.
func (e *Engine) addScore(delta uint64) {
	sum := e.score + delta
	if sum < e.score { // overflow
		sum = ^uint64(0)
	}
	e.score = sum
}

// Score returns the current accumulated score.
func (e *Engine) Score() uint64 { return e.score }

// EvidenceLog returns the ordered evidence log. Callers must not mutate the
// returned slice.
func (e *Engine) EvidenceLog() []evidence.Evidence { return e.evidenceLog }

// Contradictions returns the ordered contradiction log. Callers must not
// mutate the returned slice.
func (e *Engine) Contradictions() []evidence.Contradiction { return e.contradictions }

// SourceTotal returns the accumulated effective contribution for a single
// DetectionSource.
func (e *Engine) SourceTotal(s evidence.Source) int { return e.perSource[s] }

// AnalyzeContradictions runs every registered rule (the built-in
// correlation rule plus any added with RegisterRule) against the current
// evidence log and records a contradiction for each rule that fires. It is
// not idempotent: a second call records every still-firing rule's
// contradiction, and its penalty, again. Callers call this exactly once,
// after all detectors have reported.
func (e *Engine) AnalyzeContradictions() {
	for _, r := range e.rules {
		r.evaluate(e)
	}
}

// ApplyEnvironmentalAdjustment multiplies the score by factor and truncates,
// but only if 0 < factor < 1. Factors outside that open interval are a
// no-op. The adjustment is applied at most once per Engine; subsequent
// calls are no-ops regardless of factor.
func (e *Engine) ApplyEnvironmentalAdjustment(factor float64) {
	if e.damped {
		return
	}
	e.damped = true
	if factor <= 0 || factor >= 1 {
		return
	}
	e.score = uint64(float64(e.score) * factor)
}

// Decide returns the final Verdict. Any recorded contradiction forces
// Deceptive regardless of score.
func (e *Engine) Decide() evidence.Verdict {
	if len(e.contradictions) > 0 {
		return evidence.Deceptive
	}
	switch {
	case e.score >= 90:
		return evidence.Deceptive
	case e.score >= 50:
		return evidence.Instrumented
	case e.score >= 20:
		return evidence.Suspicious
	default:
		return evidence.Clean
	}
}

// Summary renders the total score, verdict, per-source breakdown, and
// contradiction log as human-readable text, suitable for the §7 "final
// summary" printed to standard output.
func (e *Engine) Summary() string {
	var b strings.Builder
	verdict := e.Decide()
	fmt.Fprintf(&b, "score=%d verdict=%s\n", e.score, verdict)
	for _, s := range evidence.AllSources() {
		if total := e.perSource[s]; total != 0 {
			fmt.Fprintf(&b, "  %-20s %d\n", s, total)
		}
	}
	for _, c := range e.contradictions {
		fmt.Fprintf(&b, "  contradiction: %s vs %s: %s\n", c.SourceA, c.SourceB, c.Description)
	}
	return b.String()
}
