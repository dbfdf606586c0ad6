// sentrycheck — userspace anti-debugging and anti-analysis probe for
// x86_64 Linux.
//
// Runs a sequence of CPU-timing, hardware-register, and procfs-based
// detectors, correlates their evidence for contradictions, and reports a
// single verdict: Clean, Suspicious, Instrumented, or Deceptive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/output"
	"github.com/aleksvor/sentrycheck/internal/pipeline"
	"github.com/aleksvor/sentrycheck/internal/response"
	"github.com/aleksvor/sentrycheck/internal/telemetry"
)

var version = "0.1.0"

func main() {
	var (
		quiet      bool
		jsonOutput bool
		metricsAdr string
	)

	rootCmd := &cobra.Command{
		Use:   "sentrycheck",
		Short: "Userspace anti-debugging and anti-analysis probe",
		Long: `sentrycheck — single Go binary for detecting debuggers, hypervisor-based
record-replay tooling, and eBPF-based tracing on the current host.

Runs CPU-timing detectors (TSC jitter, instruction-burst variance),
hardware-register probes (DR7, trap flag), a code-segment scan for
injected breakpoints, and a ptrace-presence check, then correlates all
evidence into one of four verdicts: Clean, Suspicious, Instrumented,
Deceptive.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(quiet, jsonOutput, metricsAdr)
		},
	}

	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging to stderr")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the structured JSON report instead of the colorized summary")
	rootCmd.Flags().StringVar(&metricsAdr, "metrics-addr", os.Getenv(telemetry.AddrEnvVar), "address to serve Prometheus metrics on after the run completes (also settable via "+telemetry.AddrEnvVar+")")

	rootCmd.AddCommand(mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDetect(quiet, jsonOutput bool, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := pipeline.Run(ctx, pipeline.Options{Quiet: quiet})

	if jsonOutput {
		if err := output.WriteJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintSummary(os.Stdout, report)
	}

	if metricsAddr != "" {
		collector := telemetry.NewCollector()
		collector.Observe(report)
		fmt.Fprintf(os.Stderr, "[telemetry] serving metrics on %s until interrupted (ctrl-C)\n", metricsAddr)
		if err := collector.Serve(ctx, metricsAddr); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		}
	}

	verdict, _ := evidence.ParseVerdict(report.Verdict)
	exitCode := response.Dispatch(verdict)
	os.Exit(exitCode)
	return nil
}
