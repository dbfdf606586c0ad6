package detector

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cilium/ebpf/btf"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
)

// EbpfCompare implements the eBPF observer comparison (spec §4.4.7): it
// compares an internally TSC-bracketed view of a trivial syscall against an
// externally wall-clock-timed view of the same syscall, on the theory that
// an observer (eBPF probe, ptrace, or emulator) attached to the syscall
// boundary perturbs the two views differently. This module does not attach
// real eBPF programs — it simulates the comparison's statistical shape —
// but does probe for genuine eBPF availability as an informational
// sub-check.
type EbpfCompare struct{}

func (e *EbpfCompare) Name() string { return "ebpf_compare" }

const (
	ebpfTrials           = 5
	ebpfSyscallsPerTrial = 10
	cyclesPerNanosecond  = 3 // approximation at 3 GHz, per spec
)

func (e *EbpfCompare) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	discrepant := 0
	for i := 0; i < ebpfTrials; i++ {
		if e.trialDiscrepant() {
			discrepant++
		}
	}
	if discrepant > 0 {
		eng.ReportWithConfidence(evidence.EbpfComparison, 30, float64(discrepant)/float64(ebpfTrials), "internal/external syscall-timing comparison discrepant in one or more trials")
	}

	e.probeRealEbpfAvailability(deps)
	return nil
}

func (e *EbpfCompare) trialDiscrepant() bool {
	internalStart := probe.ReadTSC()
	internalCount := 0
	for i := 0; i < ebpfSyscallsPerTrial; i++ {
		_, _, _ = syscall.Syscall(syscall.SYS_GETPID, 0, 0, 0)
		internalCount++
	}
	internalCycles := probe.ReadTSC() - internalStart

	externalStart := time.Now()
	externalCount := 0
	for i := 0; i < ebpfSyscallsPerTrial; i++ {
		_, _, _ = syscall.Syscall(syscall.SYS_GETPID, 0, 0, 0)
		externalCount++
	}
	externalNs := time.Since(externalStart).Nanoseconds()
	externalCycles := externalNs * cyclesPerNanosecond

	if internalCount != externalCount {
		return true
	}
	if externalCycles == 0 {
		return false
	}
	ratio := float64(internalCycles) / float64(externalCycles)
	return ratio < 0.1 || ratio > 10.0
}

// probeRealEbpfAvailability checks whether this kernel could plausibly host
// a real eBPF-based observer: BTF availability, root privilege (required to
// load most program types), and a minimum kernel version. This is purely
// informational — it never reports evidence, only logs.
func (e *EbpfCompare) probeRealEbpfAvailability(deps Deps) {
	_, btfErr := btf.LoadKernelSpec()
	hasBTF := btfErr == nil

	isRoot := os.Geteuid() == 0

	kernelOK := kernelAtLeast(readTrimmedFile(filepath.Join(deps.ProcRoot, "sys/kernel/osrelease")), 4, 18)

	log.Printf("[ebpf_compare] real eBPF availability: btf=%v root=%v kernel>=4.18=%v", hasBTF, isRoot, kernelOK)
}

// kernelAtLeast parses a "major.minor.patch..." release string and reports
// whether it is at least major.minor.
func kernelAtLeast(release string, wantMajor, wantMinor int) bool {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	minorStr := parts[1]
	for i, r := range minorStr {
		if r < '0' || r > '9' {
			minorStr = minorStr[:i]
			break
		}
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return false
	}
	if major != wantMajor {
		return major > wantMajor
	}
	return minor >= wantMinor
}
