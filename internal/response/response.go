// Package response maps a verdict to the process's exit behavior. The
// specification keeps this component deliberately thin: the interesting
// work is in the evidence pipeline, not in what happens afterward.
package response

import (
	"time"

	"github.com/aleksvor/sentrycheck/internal/evidence"
)

// Exit codes per the external-interface contract.
const (
	ExitClean        = 0
	ExitSuspicious   = 0
	ExitInstrumented = 0xC0DE // 49374
	ExitDeceptive    = 0xDEAD // 57005
)

// suspiciousDelay is the short pause inserted before returning on a
// Suspicious verdict, giving an attached tool a brief window to show
// itself through further timing anomalies. Its exact duration is cosmetic
// and deliberately small.
const suspiciousDelay = 50 * time.Millisecond

// ExitCode maps a verdict to the process exit code the specification
// requires.
func ExitCode(v evidence.Verdict) int {
	switch v {
	case evidence.Instrumented:
		return ExitInstrumented
	case evidence.Deceptive:
		return ExitDeceptive
	default:
		return ExitClean
	}
}

// Dispatch performs the verdict's side effect and returns the process exit
// code the caller should use. It never calls os.Exit itself, so callers
// (and tests) stay in control of process termination.
func Dispatch(v evidence.Verdict) int {
	if v == evidence.Suspicious {
		time.Sleep(suspiciousDelay)
	}
	return ExitCode(v)
}
