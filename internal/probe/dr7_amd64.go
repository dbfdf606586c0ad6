//go:build linux && amd64

package probe

import (
	"runtime"
	"runtime/debug"
)

// probeDR7Asm executes the 3-byte encoding of "MOV RAX, DR7" (0F 21 F8).
// Reading a debug register from user mode is a privileged instruction and
// raises #GP on bare metal, which the Linux kernel delivers as SIGSEGV; it
// only succeeds under a hypervisor or emulator that virtualizes debug-
// register access for the guest (a common tracer/sandbox shortcut).
func probeDR7Asm() uint64

// ProbeDR7 attempts the privileged DR7 read. It returns (value, true) if the
// instruction executed without faulting — which should never happen on real
// hardware in an unprivileged process — or (0, false) if it faulted.
//
// Go has no portable way to install a custom SIGSEGV handler without cgo, so
// this relies on debug.SetPanicOnFault: the runtime converts the faulting
// instruction into a recoverable panic instead of crashing the process. The
// goroutine is locked to its OS thread for the duration, since
// SetPanicOnFault is a per-thread (not per-goroutine) runtime property on
// some platforms and the calling convention assumes no intervening context
// switch.
func ProbeDR7() (val uint64, executed bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prev := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(prev)

	defer func() {
		if r := recover(); r != nil {
			val, executed = 0, false
		}
	}()

	val = probeDR7Asm()
	executed = true
	return val, executed
}
