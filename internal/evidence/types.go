// Package evidence defines the closed data model shared by every detector
// and the decision engine: detection sources, weighted evidence, recorded
// contradictions, and the final verdict.
package evidence

import (
	"encoding/json"
	"fmt"
)

// Source tags the origin of a piece of evidence. It is a closed
// enumeration: add a variant only by changing this file, never by dynamic
// registration.
type Source int

const (
	Timing Source = iota
	Int3
	TrapFlag
	Ptrace
	HardwareBreakpoint
	Jitter
	RecordReplay
	EbpfComparison
	Correlation
)

// sourceNames keeps String() and parsing (used by the govaluate-based rule
// engine in internal/engine) in lockstep with the const block above.
var sourceNames = [...]string{
	Timing:             "Timing",
	Int3:               "Int3",
	TrapFlag:           "TrapFlag",
	Ptrace:             "Ptrace",
	HardwareBreakpoint: "HardwareBreakpoint",
	Jitter:             "Jitter",
	RecordReplay:       "RecordReplay",
	EbpfComparison:     "EbpfComparison",
	Correlation:        "Correlation",
}

func (s Source) String() string {
	if int(s) < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceNames[s]
}

// ParseSource reverses String(); used by internal/pipeline when wiring
// user-configured contradiction rules into the engine.
func ParseSource(name string) (Source, bool) {
	for i, n := range sourceNames {
		if n == name {
			return Source(i), true
		}
	}
	return 0, false
}

// MarshalJSON renders a Source by name rather than its underlying integer,
// so a JSON report reads as "Timing" instead of "0".
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a Source from its name.
func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseSource(name)
	if !ok {
		return fmt.Errorf("evidence: unknown Source %q", name)
	}
	*s = parsed
	return nil
}

// AllSources lists every closed DetectionSource, in declaration order.
func AllSources() []Source {
	out := make([]Source, len(sourceNames))
	for i := range sourceNames {
		out[i] = Source(i)
	}
	return out
}

// Evidence is an immutable record produced by a detector. The effective
// contribution to the engine's score is floor(Weight * Confidence).
type Evidence struct {
	Source     Source  `json:"source"`
	Weight     int     `json:"weight"` // 0-100
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details"`
}

// Effective returns floor(Weight * Confidence), the evidence's contribution
// to the engine's score.
func (e Evidence) Effective() int {
	if e.Weight <= 0 || e.Confidence <= 0 {
		return 0
	}
	return int(float64(e.Weight) * e.Confidence)
}

// Contradiction is an immutable record produced by the engine when two
// detection sources disagree. Each contradiction forces a non-Clean verdict
// and contributes a fixed score penalty (see internal/engine).
type Contradiction struct {
	SourceA     Source `json:"source_a"`
	SourceB     Source `json:"source_b"`
	Description string `json:"description"`
}

// Verdict is the engine's final, closed, totally-ordered classification.
type Verdict int

const (
	Clean Verdict = iota
	Suspicious
	Instrumented
	Deceptive
)

var verdictNames = [...]string{
	Clean:        "Clean",
	Suspicious:   "Suspicious",
	Instrumented: "Instrumented",
	Deceptive:    "Deceptive",
}

func (v Verdict) String() string {
	if int(v) < 0 || int(v) >= len(verdictNames) {
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
	return verdictNames[v]
}

// ParseVerdict reverses String(); used by callers that only hold a
// Report's rendered verdict name, such as the CLI dispatching an exit code.
func ParseVerdict(name string) (Verdict, bool) {
	for i, n := range verdictNames {
		if n == name {
			return Verdict(i), true
		}
	}
	return 0, false
}
