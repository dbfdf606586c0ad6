// Package environment takes a single startup snapshot of CPU governor and
// SMT state and derives the multiplicative damping factor the decision
// engine applies once, after all detectors have reported.
package environment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// State is the read-only environment snapshot. It is captured once at
// startup (see Detect) and never mutated afterward.
type State struct {
	CPUGovernor      string // empty if unknown
	SMTActive        *bool  // nil if unknown
	AdjustmentFactor float64
	Warnings         []string
	KernelRelease    string // informational, from /proc/sys/kernel/osrelease
}

const (
	governorRelPath  = "devices/system/cpu/cpu0/cpufreq/scaling_governor"
	smtRelPath       = "devices/system/cpu/smt/active"
	osreleaseRelPath = "sys/kernel/osrelease"
)

// governorFactor maps a CPU governor name to its damping multiplier.
func governorFactor(governor string) (float64, string) {
	switch governor {
	case "performance":
		return 1.0, ""
	case "schedutil", "ondemand", "conservative":
		return 0.7, fmt.Sprintf("CPU governor %q introduces frequency-scaling noise; damping timing evidence", governor)
	case "powersave":
		return 0.5, "CPU governor \"powersave\" introduces significant frequency-scaling noise; damping timing evidence"
	case "":
		return 1.0, ""
	default:
		return 0.9, fmt.Sprintf("Unrecognized CPU governor %q; applying mild damping", governor)
	}
}

// smtFactor maps SMT activity to its damping multiplier.
func smtFactor(active *bool) (float64, string) {
	if active != nil && *active {
		return 0.9, "SMT/Hyper-Threading active; sibling-thread contention can inflate timing evidence"
	}
	return 1.0, ""
}

// Detect takes a pure snapshot of governor/SMT state from the live system
// (/sys and /proc). Two successive calls on an unchanged system yield an
// equal State (modulo the Warnings slice, which callers should treat as
// informational, not identity-compared).
func Detect() State {
	return DetectWithRoots("/sys", "/proc")
}

// DetectWithRoots is Detect with overridable sysfs/procfs roots, so tests
// can point it at a fixture directory instead of the live system — the
// same ProcRoot/SysRoot convention used throughout this module's
// proc-parsing code.
func DetectWithRoots(sysRoot, procRoot string) State {
	var s State

	s.CPUGovernor = readTrimmed(filepath.Join(sysRoot, governorRelPath))
	if smt, ok := readBool(filepath.Join(sysRoot, smtRelPath)); ok {
		s.SMTActive = &smt
	}
	s.KernelRelease = readTrimmed(filepath.Join(procRoot, osreleaseRelPath))

	govFactor, govWarn := governorFactor(s.CPUGovernor)
	smtF, smtWarn := smtFactor(s.SMTActive)

	s.AdjustmentFactor = govFactor * smtF
	if govWarn != "" {
		s.Warnings = append(s.Warnings, govWarn)
	}
	if smtWarn != "" {
		s.Warnings = append(s.Warnings, smtWarn)
	}

	return s
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readBool interprets sysfs "0"/"1" content as a boolean. ok is false if
// the file is missing or the content is unrecognized.
func readBool(path string) (bool, bool) {
	v := readTrimmed(path)
	switch v {
	case "1":
		return true, true
	case "0":
		return false, true
	default:
		return false, false
	}
}
