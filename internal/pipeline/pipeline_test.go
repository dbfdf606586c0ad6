package pipeline

import (
	"context"
	"testing"

	"github.com/aleksvor/sentrycheck/internal/config"
	"github.com/aleksvor/sentrycheck/internal/detector"
	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/environment"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/output"
)

var noDamping = &environment.State{AdjustmentFactor: 1.0}

type fakeDetector struct {
	source evidence.Source
	weight int
}

func (f *fakeDetector) Name() string { return "fake" }

func (f *fakeDetector) Run(_ context.Context, eng *engine.Engine, _ detector.Deps) error {
	eng.Report(f.source, f.weight, "synthetic evidence for pipeline test")
	return nil
}

func TestRunProducesCleanVerdictWithNoEvidence(t *testing.T) {
	report := Run(context.Background(), Options{Quiet: true, Detectors: []detector.Detector{}, Environment: noDamping})
	if report.Verdict != evidence.Clean.String() {
		t.Errorf("Verdict = %s, want %s", report.Verdict, evidence.Clean.String())
	}
	if report.Score != 0 {
		t.Errorf("Score = %d, want 0", report.Score)
	}
}

func TestRegisterConfiguredRulesSkipsUnknownSource(t *testing.T) {
	eng := engine.New()
	progress := output.NewProgress(false)
	registerConfiguredRules(eng, []config.RuleConfig{
		{Name: "bad-source", Expr: "Ptrace > 0", SourceA: "NotReal", SourceB: "Ptrace", Description: "x"},
	}, progress)
	eng.Report(evidence.Ptrace, 50, "synthetic")
	eng.AnalyzeContradictions()
	if len(eng.Contradictions()) != 0 {
		t.Errorf("expected no contradictions from a rule with an unknown source, got %+v", eng.Contradictions())
	}
}

func TestRegisterConfiguredRulesFiresOnMatch(t *testing.T) {
	eng := engine.New()
	progress := output.NewProgress(false)
	registerConfiguredRules(eng, []config.RuleConfig{
		{
			Name:        "ptrace-and-jitter",
			Expr:        "Ptrace > 0 && Jitter > 30",
			SourceA:     "Ptrace",
			SourceB:     "Jitter",
			Description: "tracer present alongside heavy jitter",
		},
	}, progress)
	eng.Report(evidence.Ptrace, 10, "synthetic")
	eng.Report(evidence.Jitter, 40, "synthetic")
	eng.AnalyzeContradictions()

	found := false
	for _, c := range eng.Contradictions() {
		if c.Description == "tracer present alongside heavy jitter" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the configured rule to fire, got %+v", eng.Contradictions())
	}
}

func TestRunAggregatesFakeDetectorEvidence(t *testing.T) {
	report := Run(context.Background(), Options{
		Quiet: true,
		Detectors: []detector.Detector{
			&fakeDetector{source: evidence.Ptrace, weight: 70},
		},
		Environment: noDamping,
	})
	if report.Score != 70 {
		t.Errorf("Score = %d, want 70", report.Score)
	}
	if report.Verdict != evidence.Instrumented.String() {
		t.Errorf("Verdict = %s, want %s", report.Verdict, evidence.Instrumented.String())
	}
}
