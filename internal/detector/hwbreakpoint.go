package detector

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
	"github.com/aleksvor/sentrycheck/internal/stats"
)

// HardwareBreakpoint implements the four hardware-breakpoint sub-methods
// (spec §4.4.5): a privileged-instruction fault probe, DR7-indicator
// timing, a /proc/self/status scan for non-standard debug-register lines,
// and a data-access-pattern timing.
type HardwareBreakpoint struct{}

func (h *HardwareBreakpoint) Name() string { return "hardware_breakpoint" }

func (h *HardwareBreakpoint) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	h.faultProbe(eng, deps)
	h.timingProbe(eng, deps)
	h.statusScan(eng, deps)
	h.dataAccessPattern(eng, deps)
	return nil
}

// faultProbe attempts the privileged DR7 read. If a tracer already holds
// this process, the probe's outcome is unreliable (ptrace itself can
// interact with debug-register access), so it is skipped in favor of a
// weaker report.
func (h *HardwareBreakpoint) faultProbe(eng *engine.Engine, deps Deps) {
	if deps.Tracer != nil && deps.Tracer.TracerPID() > 0 {
		eng.ReportWithConfidence(evidence.HardwareBreakpoint, 20, 0.7, "tracer present; DR7 fault probe skipped")
		return
	}

	_, executed := probe.ProbeDR7()
	if executed {
		eng.Report(evidence.HardwareBreakpoint, 30, "privileged DR7 read executed without faulting; access likely virtualized or masked")
	}
}

const dr7IndicatorSamples = 10

func (h *HardwareBreakpoint) timingProbe(eng *engine.Engine, deps Deps) {
	samples := make([]uint64, dr7IndicatorSamples)
	for i := range samples {
		samples[i] = probe.TimeDR7Indicator()
	}
	s := stats.FromSamples(samples)

	timingHigh := configOrU64(deps.Config.HardwareBreak.TimingHighMeanCycles, 50000)

	switch {
	case s.Mean > float64(timingHigh):
		eng.Report(evidence.HardwareBreakpoint, 50, "DR7-indicator mean exceeds high threshold")
	case s.Mean > float64(timingHigh)/5:
		eng.Report(evidence.HardwareBreakpoint, 20, "DR7-indicator mean exceeds medium threshold")
	}
	if s.Max > 10*s.Min {
		eng.Report(evidence.HardwareBreakpoint, 15, "DR7-indicator max/min ratio indicates intermittent hits")
	}
}

func (h *HardwareBreakpoint) statusScan(eng *engine.Engine, deps Deps) {
	f, err := os.Open(filepath.Join(deps.ProcRoot, "self/status"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "X86_HW_DBG:") || strings.HasPrefix(line, "DrX:") {
			eng.Report(evidence.HardwareBreakpoint, 40, "non-standard debug-register line present in /proc/self/status")
			return
		}
	}
}

const dataAccessIterations = 1000

func (h *HardwareBreakpoint) dataAccessPattern(eng *engine.Engine, deps Deps) {
	var buf [64]byte
	start := probe.ReadTSC()
	idx := 0
	for i := 0; i < dataAccessIterations; i++ {
		buf[idx] = byte(i)
		idx = (idx + 7) % len(buf)
	}
	elapsed := probe.ReadTSC() - start

	switch {
	case elapsed > 200000:
		eng.Report(evidence.HardwareBreakpoint, 40, "alternating-index buffer access exceeds high threshold")
	case elapsed > 50000:
		eng.ReportWithConfidence(evidence.HardwareBreakpoint, 10, 0.4, "alternating-index buffer access exceeds low threshold")
	}
}
