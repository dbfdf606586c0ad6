package detector

import (
	"context"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
	"github.com/aleksvor/sentrycheck/internal/stats"
)

// Timing implements the statistical-timing detector (spec §4.4.1): RDTSC
// read overhead and a 100-iteration integer-add work block, both measured
// while pinned to CPU 0.
type Timing struct{}

func (t *Timing) Name() string { return "timing" }

const (
	timingOverheadSamples = 1000
	timingExecSamples     = 100
	timingWarmupReads     = 100
)

func (t *Timing) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	restore, err := probe.PinCurrentThreadToCPU0()
	if err != nil {
		// Soft failure per spec: pinning is best-effort, not required.
		restore = func() {}
	}
	defer restore()

	for i := 0; i < timingWarmupReads; i++ {
		probe.ReadTSC()
	}

	overhead := make([]uint64, timingOverheadSamples)
	for i := range overhead {
		start := probe.ReadTSC()
		end := probe.ReadTSC()
		overhead[i] = end - start
	}
	overheadStats := stats.FromSamples(overhead)

	exec := make([]uint64, timingExecSamples)
	for i := range exec {
		exec[i] = probe.TimeAddBurst()
	}
	execStats := stats.FromSamples(exec)

	cfg := deps.Config.Timing

	overheadHigh := configOrU64(cfg.OverheadHighMeanCycles, 5000)
	overheadMedium := configOrU64(cfg.OverheadMediumMeanCycles, 500)
	execHigh := configOrU64(cfg.ExecHighMeanCycles, 1000000)

	switch {
	case overheadStats.Mean > float64(overheadHigh):
		eng.Report(evidence.Timing, 40, "RDTSC overhead mean exceeds high threshold")
	case overheadStats.Mean > float64(overheadMedium):
		eng.Report(evidence.Timing, 15, "RDTSC overhead mean exceeds medium threshold")
	}
	if overheadStats.CV > 2.0 && overheadStats.Mean < float64(overheadMedium) {
		eng.Report(evidence.Timing, 20, "RDTSC overhead coefficient of variation abnormally high at low mean")
	}

	switch {
	case execStats.Mean > float64(execHigh):
		eng.Report(evidence.Timing, 60, "execution-timing mean exceeds high threshold")
	case execStats.Mean > float64(execHigh)/20:
		eng.Report(evidence.Timing, 30, "execution-timing mean exceeds medium threshold")
	case execStats.Mean > float64(execHigh)/100:
		eng.Report(evidence.Timing, 10, "execution-timing mean exceeds low threshold")
	}
	if execStats.N > 10 && execStats.Max > 50*execStats.Min {
		eng.ReportWithConfidence(evidence.Timing, 10, 0.6, "execution-timing max/min ratio indicates intermittent stalls")
	}

	return nil
}

// configOrU64 returns override if it is non-zero, else def. Zero-value
// config fields mean "not set", per the config package's "never fatal,
// fall back to spec defaults" policy.
func configOrU64(override, def uint64) uint64 {
	if override != 0 {
		return override
	}
	return def
}

// configOrF64 is configOrU64 for the float64-valued overrides (e.g.
// record-replay's TSC ratio bounds).
func configOrF64(override, def float64) float64 {
	if override != 0 {
		return override
	}
	return def
}
