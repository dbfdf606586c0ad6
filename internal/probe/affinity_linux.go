//go:build linux

package probe

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThreadToCPU0 locks the calling goroutine to its current OS
// thread and restricts that thread's affinity to CPU 0. Timing bursts are
// only comparable run-to-run if they execute on the same core throughout;
// otherwise a migration mid-burst can inflate the cycle count for reasons
// that have nothing to do with a debugger. The caller owns the returned
// restore function and should defer it before the goroutine is allowed to
// migrate again.
func PinCurrentThreadToCPU0() (restore func(), err error) {
	runtime.LockOSThread()

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		runtime.UnlockOSThread()
		return func() {}, fmt.Errorf("probe: read current CPU affinity: %w", err)
	}

	var want unix.CPUSet
	want.Zero()
	want.Set(0)
	if err := unix.SchedSetaffinity(0, &want); err != nil {
		runtime.UnlockOSThread()
		return func() {}, fmt.Errorf("probe: pin to CPU 0: %w", err)
	}

	return func() {
		_ = unix.SchedSetaffinity(0, &prev)
		runtime.UnlockOSThread()
	}, nil
}
