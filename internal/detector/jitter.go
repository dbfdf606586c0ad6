package detector

import (
	"context"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
	"github.com/aleksvor/sentrycheck/internal/stats"
)

// Jitter implements the instruction-level jitter detector (spec §4.4.2):
// NOP, MOV, XOR, and branch-amplification bursts, pinned to CPU 0.
type Jitter struct{}

func (j *Jitter) Name() string { return "jitter" }

const jitterSamples = 1000

func (j *Jitter) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	restore, err := probe.PinCurrentThreadToCPU0()
	if err != nil {
		restore = func() {}
	}
	defer restore()

	for i := 0; i < timingWarmupReads; i++ {
		probe.ReadTSC()
	}

	nopStats := stats.FromSamples(sampleBurst(probe.TimeNopBurst))
	movStats := stats.FromSamples(sampleBurst(probe.TimeMovBurst))
	ampStats := stats.FromSamples(sampleBurst(probe.TimeStepAmplification))
	// XOR burst samples are collected as part of the measurement set, but
	// no reporting rule reads them; the computed summary is discarded.
	_ = stats.FromSamples(sampleBurst(probe.TimeXorBurst))

	cfg := deps.Config.Jitter
	ampHigh := configOrU64(cfg.AmplificationHighMeanCycles, 1000000)
	nopHigh := configOrU64(cfg.NopHighMeanCycles, 10000)

	switch {
	case ampStats.Mean > float64(ampHigh):
		eng.Report(evidence.Jitter, 70, "amplification-loop mean exceeds high threshold")
	case ampStats.Mean > float64(ampHigh)/10:
		eng.Report(evidence.Jitter, 40, "amplification-loop mean exceeds medium threshold")
	}

	switch {
	case nopStats.Mean > float64(nopHigh):
		eng.Report(evidence.Jitter, 50, "NOP-burst mean exceeds high threshold")
	case nopStats.Mean > float64(nopHigh)/10:
		eng.Report(evidence.Jitter, 20, "NOP-burst mean exceeds medium threshold")
	}

	if nopStats.Bimodal {
		eng.ReportWithConfidence(evidence.Jitter, 25, 0.7, "NOP-burst distribution is bimodal")
	}
	if ampStats.Bimodal {
		eng.ReportWithConfidence(evidence.Jitter, 30, 0.8, "amplification-loop distribution is bimodal")
	}
	if nopStats.CV > 1.0 && nopStats.Mean > 100 {
		eng.ReportWithConfidence(evidence.Jitter, 15, 0.5, "NOP-burst coefficient of variation abnormally high")
	}

	if movStats.Mean > 0 {
		ratio := nopStats.Mean / movStats.Mean
		if ratio < 0.2 || ratio > 5.0 {
			eng.Report(evidence.Jitter, 20, "NOP/MOV burst ratio outside expected native range")
		}
	}

	return nil
}

func sampleBurst(burst func() uint64) []uint64 {
	samples := make([]uint64, jitterSamples)
	for i := range samples {
		samples[i] = burst()
	}
	return samples
}
