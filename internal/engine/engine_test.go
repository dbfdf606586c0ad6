package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvor/sentrycheck/internal/evidence"
)

func TestReportComputesEffectiveContribution(t *testing.T) {
	e := New()
	e.ReportWithConfidence(evidence.Timing, 40, 1.0, "overhead high")
	e.ReportWithConfidence(evidence.Jitter, 25, 0.8, "nop burst noisy") // floor(20)=20

	assert.EqualValues(t, 60, e.Score())
	assert.Equal(t, 40, e.SourceTotal(evidence.Timing))
	assert.Equal(t, 20, e.SourceTotal(evidence.Jitter))
	assert.Len(t, e.EvidenceLog(), 2)
}

func TestReportAppendsEvenAtZeroContribution(t *testing.T) {
	e := New()
	e.Report(evidence.Int3, 0, "alignment padding")
	assert.EqualValues(t, 0, e.Score())
	assert.Len(t, e.EvidenceLog(), 1, "zero-weight evidence must still be logged")
}

func TestRecordContradictionAddsFixedPenalty(t *testing.T) {
	e := New()
	e.RecordContradiction(evidence.Timing, evidence.Ptrace, "test")
	assert.EqualValues(t, 30, e.Score())
	assert.Len(t, e.Contradictions(), 1)
}

func TestDecideForcesDeceptiveOnAnyContradiction(t *testing.T) {
	e := New()
	e.RecordContradiction(evidence.Timing, evidence.Ptrace, "test")
	assert.Equal(t, evidence.Deceptive, e.Decide(), "any contradiction forces Deceptive regardless of score")
}

func TestDecideScoreBoundaries(t *testing.T) {
	cases := []struct {
		score uint64
		want  evidence.Verdict
	}{
		{19, evidence.Clean},
		{20, evidence.Suspicious},
		{49, evidence.Suspicious},
		{50, evidence.Instrumented},
		{89, evidence.Instrumented},
		{90, evidence.Deceptive},
	}
	for _, c := range cases {
		e := New()
		e.Report(evidence.Timing, int(c.score), "boundary probe")
		assert.Equal(t, c.want, e.Decide(), "score=%d", c.score)
	}
}

func TestApplyEnvironmentalAdjustmentDampsInRange(t *testing.T) {
	e := New()
	e.Report(evidence.Timing, 100, "raw")
	e.ApplyEnvironmentalAdjustment(0.45)
	assert.EqualValues(t, 45, e.Score())
}

func TestApplyEnvironmentalAdjustmentNoopOutsideRange(t *testing.T) {
	for _, factor := range []float64{0, 1, -0.5, 1.5} {
		e := New()
		e.Report(evidence.Timing, 77, "raw")
		e.ApplyEnvironmentalAdjustment(factor)
		assert.EqualValues(t, 77, e.Score(), "factor=%v must be a no-op", factor)
	}
}

func TestApplyEnvironmentalAdjustmentAppliesAtMostOnce(t *testing.T) {
	e := New()
	e.Report(evidence.Timing, 100, "raw")
	e.ApplyEnvironmentalAdjustment(0.5)
	e.ApplyEnvironmentalAdjustment(0.5)
	assert.EqualValues(t, 50, e.Score(), "second call must be a no-op")
}

func TestAnalyzeContradictionsBuiltinRule(t *testing.T) {
	e := New()
	e.Report(evidence.Jitter, 70, "amplification mean 2,000,000")
	e.AnalyzeContradictions()
	require.Len(t, e.Contradictions(), 1)
	assert.Equal(t, evidence.Deceptive, e.Decide())
}

func TestAnalyzeContradictionsDoesNotFireWithHardwareBreakpointEvidence(t *testing.T) {
	e := New()
	e.Report(evidence.Jitter, 70, "amplification mean 2,000,000")
	e.Report(evidence.HardwareBreakpoint, 10, "fault probe noted")
	e.AnalyzeContradictions()
	assert.Empty(t, e.Contradictions())
}

func TestOrderingIndependence(t *testing.T) {
	build := func(order []int) *Engine {
		e := New()
		reports := []func(){
			func() { e.Report(evidence.Timing, 15, "a") },
			func() { e.Report(evidence.Jitter, 25, "b") },
			func() { e.Report(evidence.Int3, 5, "c") },
		}
		for _, i := range order {
			reports[i]()
		}
		return e
	}

	e1 := build([]int{0, 1, 2})
	e2 := build([]int{2, 1, 0})

	assert.Equal(t, e1.Score(), e2.Score())
	assert.Equal(t, e1.Decide(), e2.Decide())
}

func TestRegisterRuleFiresOnExpression(t *testing.T) {
	e := New()
	err := e.RegisterRule("custom", "RecordReplay > 0 && Ptrace == 0", evidence.RecordReplay, evidence.Ptrace, "rr artifact without tracer")
	require.NoError(t, err)

	e.Report(evidence.RecordReplay, 50, "rr env var found")
	e.AnalyzeContradictions()

	require.Len(t, e.Contradictions(), 1)
	assert.Equal(t, "rr artifact without tracer", e.Contradictions()[0].Description)
}

func TestRegisterRuleRejectsMalformedExpression(t *testing.T) {
	e := New()
	err := e.RegisterRule("broken", "Timing >>> ===", evidence.Timing, evidence.Ptrace, "n/a")
	assert.Error(t, err)
}

func TestSummaryIncludesVerdictAndBreakdown(t *testing.T) {
	e := New()
	e.Report(evidence.Ptrace, 70, "TracerPid=12345")
	summary := e.Summary()
	assert.Contains(t, summary, "Instrumented")
	assert.Contains(t, summary, "Ptrace")
}
