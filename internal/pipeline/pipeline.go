// Package pipeline wires the environment snapshot, detector run, and
// decision engine into the single sequential phase sequence the
// specification's entrypoint performs. It plays the role the teacher's
// internal/orchestrator plays for its collectors, adapted from parallel
// fan-out to the detector pipeline's strict sequencing requirement:
// detectors share CPU-pinning and tracer-presence state, and the ptrace
// detector must run last since PTRACE_TRACEME mutates process state
// irreversibly.
package pipeline

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleksvor/sentrycheck/internal/config"
	"github.com/aleksvor/sentrycheck/internal/detector"
	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/environment"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/output"
	"github.com/aleksvor/sentrycheck/internal/tracer"
)

// Options configures a single Run.
type Options struct {
	Quiet     bool
	Detectors []detector.Detector // nil means detector.Default()
	// Environment overrides the live environment.Detect() snapshot, for
	// tests that need a deterministic damping factor.
	Environment *environment.State
}

// Run executes the full phase sequence and returns the final Report:
// signal-compat init, an environment snapshot, every detector in order
// (ptrace forced last), contradiction analysis, one environmental damping
// pass, and the verdict.
func Run(ctx context.Context, opts Options) output.Report {
	progress := output.NewProgress(!opts.Quiet)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			progress.Log("received %v; detectors do not check for cancellation, so the run continues to completion", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	defer signal.Stop(sigCh)

	progress.Log("compat mode: %v", tracer.Global().CompatMode())

	env := opts.Environment
	if env == nil {
		detected := environment.Detect()
		env = &detected
	}
	progress.Log("environment: governor=%q smt=%v adjustment=%.2f", env.CPUGovernor, env.SMTActive, env.AdjustmentFactor)
	for _, w := range env.Warnings {
		progress.Log("environment warning: %s", w)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		progress.Log("config: %v (continuing with defaults)", err)
		cfg = config.Detectors{}
	}

	eng := engine.New()
	registerConfiguredRules(eng, cfg.Rules, progress)
	deps := detector.DefaultDeps()
	deps.Config = cfg

	detectors := opts.Detectors
	if detectors == nil {
		detectors = detector.Default()
	}

	detector.RunAll(ctx, eng, deps, detectors, func(name string, err error) {
		progress.Log("detector %q error: %v", name, err)
	})

	eng.AnalyzeContradictions()
	eng.ApplyEnvironmentalAdjustment(env.AdjustmentFactor)

	report := output.BuildReport(eng)
	progress.Log("verdict: %s (score=%d)", report.Verdict, report.Score)
	return report
}

// registerConfiguredRules wires the optional rules: section of the
// detector config into the engine's govaluate-backed extension point. A
// rule naming an unknown source or carrying a malformed expression is
// logged and skipped rather than failing the whole run, matching the
// config package's "never fatal" policy.
func registerConfiguredRules(eng *engine.Engine, rules []config.RuleConfig, progress *output.Progress) {
	for _, rc := range rules {
		sourceA, ok := evidence.ParseSource(rc.SourceA)
		if !ok {
			progress.Log("config: rule %q references unknown source %q, skipping", rc.Name, rc.SourceA)
			continue
		}
		sourceB, ok := evidence.ParseSource(rc.SourceB)
		if !ok {
			progress.Log("config: rule %q references unknown source %q, skipping", rc.Name, rc.SourceB)
			continue
		}
		if err := eng.RegisterRule(rc.Name, rc.Expr, sourceA, sourceB, rc.Description); err != nil {
			progress.Log("config: rule %q: %v, skipping", rc.Name, err)
		}
	}
}
