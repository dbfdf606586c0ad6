//go:build linux && amd64

package probe

// readTSCAsm is implemented in tsc_amd64.s. It brackets RDTSC with a leading
// CPUID and a trailing LFENCE so the read is serialized against out-of-order
// execution in both directions.
func readTSCAsm() uint64

// ReadTSC returns the current value of the CPU timestamp counter, serialized
// with a leading CPUID so the read cannot retire ahead of prior instructions
// and a trailing LFENCE so later instructions do not start before it.
func ReadTSC() uint64 {
	return readTSCAsm()
}
