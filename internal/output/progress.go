// Package output handles report serialization and progress reporting.
package output

import (
	"fmt"
	"os"
	"time"
)

// Progress reports run status to stderr.
type Progress struct {
	enabled bool
	verbose bool
	start   time.Time
}

// NewProgress creates a Progress reporter. Set enabled=false for --quiet mode.
func NewProgress(enabled bool) *Progress {
	return &Progress{
		enabled: enabled,
		start:   time.Now(),
	}
}

// NewVerboseProgress creates a Progress reporter with independent enabled
// and verbose flags. A verbose reporter logs regardless of enabled — a
// developer asking for debug output expects to see it even in quiet mode.
func NewVerboseProgress(enabled, verbose bool) *Progress {
	return &Progress{
		enabled: enabled,
		verbose: verbose,
		start:   time.Now(),
	}
}

// Log prints a progress message to stderr if enabled, or if verbose.
func (p *Progress) Log(format string, args ...interface{}) {
	if !p.enabled && !p.verbose {
		return
	}
	p.write(fmt.Sprintf(format, args...))
}

// Debug prints a debug-tagged message to stderr, only when verbose.
func (p *Progress) Debug(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.write("DEBUG: " + fmt.Sprintf(format, args...))
}

func (p *Progress) write(msg string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Fprintf(os.Stderr, "[%s] %s\n", elapsed, msg)
}
