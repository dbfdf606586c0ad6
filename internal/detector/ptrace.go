package detector

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
)

// Ptrace implements the ptrace detectors (spec §4.4.8). It MUST run after
// every other detector: PTRACE_TRACEME irreversibly changes this process's
// tracer relationship, which would invalidate the tracer-presence
// assumptions the other detectors (notably HardwareBreakpoint's fault
// probe) rely on.
type Ptrace struct{}

func (p *Ptrace) Name() string { return "ptrace" }

// RunsLast tells RunAll to always schedule this detector after every other
// detector, regardless of registration order.
func (p *Ptrace) RunsLast() bool { return true }

func (p *Ptrace) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	if tracerPID := readTracerPIDFromStatus(filepath.Join(deps.ProcRoot, "self/status")); tracerPID > 0 {
		eng.Report(evidence.Ptrace, 70, "TracerPid is non-zero in /proc/self/status")
	}

	if err := unix.PtraceTraceme(); err != nil {
		eng.Report(evidence.Ptrace, 80, "PTRACE_TRACEME failed; a tracer already holds the tracee slot")
	}
	// On success, nothing to report — the process is now being traced by
	// its parent, which is the expected no-debugger case when the parent
	// is simply the shell or a supervisor that does not act on it.
	return nil
}

func readTracerPIDFromStatus(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return pid
	}
	return 0
}
