//go:build linux && amd64

package probe

// cpuidAsm is implemented in cpuid_amd64.s.
func cpuidAsm(leafEax, leafEcx uint32) (eax, ebx, ecx, edx uint32)

// CPUID executes the CPUID instruction for the given leaf/subleaf and
// returns the four result registers.
func CPUID(leafEax, leafEcx uint32) (eax, ebx, ecx, edx uint32) {
	return cpuidAsm(leafEax, leafEcx)
}
