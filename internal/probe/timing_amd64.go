//go:build linux && amd64

package probe

// Each *BurstAsm function is implemented in timing_amd64.s: a fixed
// instruction sequence bracketed by a serialized TSC read, returning the
// elapsed cycle count for that sequence alone.
func timeNopBurstAsm() uint64
func timeAddBurstAsm() uint64
func timeMovBurstAsm() uint64
func timeXorBurstAsm() uint64
func timeStepAmplificationAsm() uint64
func timeDR7IndicatorAsm() uint64

// TimeNopBurst times a 100-instruction NOP burst. Under single-stepping,
// each retired instruction costs a SIGTRAP round-trip, inflating the
// measured cycle count by orders of magnitude relative to free execution.
func TimeNopBurst() uint64 { return timeNopBurstAsm() }

// TimeAddBurst times a 100-instruction integer-add work block, the
// statistical-timing detector's "execution timing" measurement.
func TimeAddBurst() uint64 { return timeAddBurstAsm() }

// TimeMovBurst times a 100-instruction register-shuffle burst.
func TimeMovBurst() uint64 { return timeMovBurstAsm() }

// TimeXorBurst times a 100-instruction XOR/NOT burst.
func TimeXorBurst() uint64 { return timeXorBurstAsm() }

// TimeStepAmplification times a 100-iteration branch-heavy loop, which
// amplifies single-step overhead further than the NOP burst since each
// iteration retires more instructions, extra branches included, for a
// single-stepping tracer to trap.
func TimeStepAmplification() uint64 { return timeStepAmplificationAsm() }

// TimeDR7Indicator times a 1000-iteration NOP loop; the hardware-breakpoint
// detector compares the samples' mean and max/min spread against fixed cycle
// thresholds.
func TimeDR7Indicator() uint64 { return timeDR7IndicatorAsm() }
