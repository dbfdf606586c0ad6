// Package tracer holds the process-wide signal-compatibility state: whether
// an external tracer is attached (cached after first read), and whether
// detectors should cooperate with it by substituting non-destructive probes.
package tracer

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CompatEnvVar, when set to any value, latches compat mode at package init,
// per the specification's external-interface contract.
const CompatEnvVar = "ANTIDEBUG_GDB_COMPATIBLE"

// State is the process-wide, explicitly-initialized tracer cache described
// in the specification's "process-wide state" design note. There is
// intentionally a single package-level instance — the tracer relationship
// is a property of the whole process, not of any one detector.
type State struct {
	mu         sync.Mutex
	cached     bool
	tracerPID  int
	compatMode bool
}

var global = New()

// New constructs a fresh, uncached State. Exposed for tests; production
// code uses the package-level Global().
func New() *State {
	return &State{}
}

// Global returns the process-wide tracer state, seeded with compat mode
// from ANTIDEBUG_GDB_COMPATIBLE.
func Global() *State {
	return global
}

func init() {
	if _, set := os.LookupEnv(CompatEnvVar); set {
		global.SetCompatMode(true)
	}
}

// TracerPID returns the PID of the process attached via ptrace to this one,
// or 0 if none. The value is read from /proc/self/status on first call and
// cached; call Invalidate to force a re-read (e.g. after a successful
// PTRACE_TRACEME, which changes the tracer relationship).
func (s *State) TracerPID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached {
		return s.tracerPID
	}
	s.tracerPID = readTracerPID("/proc/self/status")
	s.cached = true
	return s.tracerPID
}

// Invalidate clears the cached TracerPID so the next call re-reads
// /proc/self/status.
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = false
	s.tracerPID = 0
}

// CompatMode reports whether detectors should substitute non-destructive
// alternatives for probes known to conflict with an external debugger.
func (s *State) CompatMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compatMode
}

// SetCompatMode sets compat mode programmatically.
func (s *State) SetCompatMode(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compatMode = v
}

// readTracerPID parses the "TracerPid:" line out of a /proc/[pid]/status
// file. A missing file, missing line, or unparseable integer all default to
// 0 (no tracer) — per the error taxonomy, this is "environment unreadable",
// never fatal.
func readTracerPID(path string) int {
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
