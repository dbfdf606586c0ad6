package detector

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
)

// TrapFlag implements the trap-flag probe (spec §4.4.4). It arms the
// single-step trap for exactly one instruction and checks whether a SIGTRAP
// was observed. A debugger or emulator that intercepts the step (rather
// than letting the kernel deliver it to the process) prevents the signal
// from ever reaching this handler.
//
// In compat mode (tracer.CompatEnvVar set) this detector is skipped
// entirely and replaced by a low-weight, high-confidence report based
// solely on TracerPid, since single-stepping a process an external
// debugger is also single-stepping corrupts both tools' state.
type TrapFlag struct{}

func (t *TrapFlag) Name() string { return "trap_flag" }

func (t *TrapFlag) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	if deps.Tracer != nil && deps.Tracer.CompatMode() {
		if deps.Tracer.TracerPID() > 0 {
			eng.ReportWithConfidence(evidence.TrapFlag, 15, 0.9, "compat mode: trap-flag probe skipped, tracer present per TracerPid")
		}
		return nil
	}

	notifyCh := make(chan os.Signal, 1)
	signal.Notify(notifyCh, syscall.SIGTRAP)
	defer signal.Stop(notifyCh)

	probe.TriggerTrapFlag()

	select {
	case <-notifyCh:
		// The kernel delivered the single-step trap to this process, as
		// expected on bare hardware.
	case <-time.After(50 * time.Millisecond):
		eng.Report(evidence.TrapFlag, 60, "single-step trap was not observed after arming the trap flag")
	}
	return nil
}
