// Package detector implements the specification's seven detectors. Each one
// consumes the probe ABI, /proc, and kernel interfaces, and reports weighted,
// confidence-scored evidence to the decision engine. Detectors do not assume
// ordering among themselves, with one exception the Run helper enforces: the
// ptrace detector always executes last, since PTRACE_TRACEME mutates process
// state irreversibly for the rest of the run.
package detector

import (
	"context"

	"github.com/aleksvor/sentrycheck/internal/config"
	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/tracer"
)

// Deps bundles the dependencies every detector may need. It plays the role
// the teacher's CollectConfig plays for its collectors: a single struct
// threaded through Run so individual detectors stay easy to unit test
// against fakes.
type Deps struct {
	Config   config.Detectors
	Tracer   *tracer.State
	ProcRoot string
	SysRoot  string
}

// DefaultDeps returns the Deps a production run uses: live /proc and /sys,
// the process-wide tracer state, and zero-value (spec-default) detector
// thresholds.
func DefaultDeps() Deps {
	return Deps{
		Tracer:   tracer.Global(),
		ProcRoot: "/proc",
		SysRoot:  "/sys",
	}
}

// Detector is the contract every detection method implements. Run must not
// panic on an unreadable environment — /proc and /sys nodes come and go, and
// a missing probe is evidence of nothing. A returned error means the
// detector could not run at all (not that it found nothing); the caller
// logs it and continues with the remaining detectors.
type Detector interface {
	Name() string
	Run(ctx context.Context, eng *engine.Engine, deps Deps) error
}

// Default returns the full detector set in the order the specification
// expects: the ptrace detectors will be moved to the end by RunAll
// regardless of where they appear here, but listing them last keeps this
// slice self-documenting.
func Default() []Detector {
	return []Detector{
		&Timing{},
		&Jitter{},
		&Int3Scan{},
		&TrapFlag{},
		&HardwareBreakpoint{},
		&RecordReplay{},
		&EbpfCompare{},
		&Ptrace{},
	}
}

// RunAll runs every detector against eng, in order, with ptrace detectors
// forced last. onError, if non-nil, is called with each detector's name and
// error instead of aborting the run.
func RunAll(ctx context.Context, eng *engine.Engine, deps Deps, detectors []Detector, onError func(name string, err error)) {
	ordered := make([]Detector, 0, len(detectors))
	var last []Detector
	for _, d := range detectors {
		if rl, ok := d.(interface{ RunsLast() bool }); ok && rl.RunsLast() {
			last = append(last, d)
			continue
		}
		ordered = append(ordered, d)
	}
	ordered = append(ordered, last...)

	for _, d := range ordered {
		if err := d.Run(ctx, eng, deps); err != nil && onError != nil {
			onError(d.Name(), err)
		}
	}
}
