package engine

import (
	"fmt"
	"log"

	"github.com/casbin/govaluate"

	"github.com/aleksvor/sentrycheck/internal/evidence"
)

// rule is anything AnalyzeContradictions can evaluate against the current
// engine state. The built-in correlation rule is a closure over engine
// totals; user-registered rules are backed by govaluate expressions so the
// correlation analysis can be extended without a Go code change, per the
// spec's "additional rules are permitted but not required" note.
type rule struct {
	name     string
	evaluate func(e *Engine)
}

// defaultCorrelationRule implements the engine's single required rule: a
// heavy timing+jitter anomaly with no hardware-breakpoint or ptrace
// evidence is itself suspicious — something suppressed the detectors that
// would normally explain heavy timing overhead.
var defaultCorrelationRule = rule{
	name: "timing-without-tracer",
	evaluate: func(e *Engine) {
		timingJitter := e.SourceTotal(evidence.Timing) + e.SourceTotal(evidence.Jitter)
		if timingJitter > 40 && e.SourceTotal(evidence.HardwareBreakpoint) == 0 && e.SourceTotal(evidence.Ptrace) == 0 {
			e.RecordContradiction(evidence.Timing, evidence.Ptrace, "Heavy timing anomaly but no tracer detected")
		}
	},
}

// RegisterRule adds an additional contradiction rule expressed as a
// govaluate boolean expression over the per-source effective totals (one
// variable per evidence.Source name, e.g. "Timing", "Jitter",
// "HardwareBreakpoint", "Ptrace") plus "Contradictions", the number already
// recorded. When the expression evaluates true, a contradiction tagged with
// sourceA/sourceB and description is recorded.
//
// A malformed expression is rejected at registration time; it never reaches
// AnalyzeContradictions, so a bad rule can't silently fail to fire at
// analysis time.
func (e *Engine) RegisterRule(name, expr string, sourceA, sourceB evidence.Source, description string) error {
	compiled, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return fmt.Errorf("rule %q: %w", name, err)
	}

	e.rules = append(e.rules, rule{
		name: name,
		evaluate: func(eng *Engine) {
			params := make(map[string]interface{}, len(evidence.AllSources())+1)
			for _, s := range evidence.AllSources() {
				params[s.String()] = float64(eng.SourceTotal(s))
			}
			params["Contradictions"] = float64(len(eng.Contradictions()))

			result, err := compiled.Evaluate(params)
			if err != nil {
				log.Printf("[engine] rule %q evaluation error: %v", name, err)
				return
			}
			fired, ok := result.(bool)
			if ok && fired {
				eng.RecordContradiction(sourceA, sourceB, description)
			}
		},
	})
	return nil
}
