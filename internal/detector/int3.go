package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
)

// Int3Scan implements the memory INT3 scan detector (spec §4.4.3): it reads
// /proc/self/maps, restricts to executable ranges belonging to the current
// binary, and scans the live mapped bytes for 0xCC (software breakpoint
// opcode).
type Int3Scan struct{}

func (s *Int3Scan) Name() string { return "int3_scan" }

func (s *Int3Scan) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	exePath, err := os.Readlink(filepath.Join(deps.ProcRoot, "self/exe"))
	if err != nil {
		return fmt.Errorf("detector: resolve current executable: %w", err)
	}

	ranges, err := executableRanges(filepath.Join(deps.ProcRoot, "self/maps"), exePath)
	if err != nil {
		return fmt.Errorf("detector: read process maps: %w", err)
	}

	for _, r := range ranges {
		shape := probe.ScanInt3Shape(liveMemoryView(r.start, r.end))
		reportInt3Shape(eng, shape)
	}
	return nil
}

func reportInt3Shape(eng *engine.Engine, shape probe.Int3Shape) {
	isPadding := shape.IsAlignmentPadding()
	switch {
	case shape.Total > 1000 && isPadding:
		eng.ReportWithConfidence(evidence.Int3, 1, 0.1, "large contiguous 0xCC run classified as compiler padding")
	case isPadding && shape.Total > 100:
		eng.ReportWithConfidence(evidence.Int3, 2, 0.3, "0xCC distribution classified as likely padding")
	case shape.Total > 20:
		eng.ReportWithConfidence(evidence.Int3, 5, 0.5, "0xCC count ambiguous between padding and breakpoints")
	case shape.Total > 0:
		eng.ReportWithConfidence(evidence.Int3, 25, 0.8, "0xCC count in the likely-breakpoint range")
	}
}

type memRange struct {
	start, end uintptr
}

// executableRanges returns the r-xp ranges in mapsPath whose path field
// equals exePath, suppressing library-padding noise from shared objects.
func executableRanges(mapsPath, exePath string) ([]memRange, error) {
	f, err := os.Open(mapsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ranges []memRange
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		if fields[1] != "r-xp" {
			continue
		}
		if fields[5] != exePath {
			continue
		}
		addrs := strings.SplitN(fields[0], "-", 2)
		if len(addrs) != 2 {
			continue
		}
		start, err := strconv.ParseUint(addrs[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(addrs[1], 16, 64)
		if err != nil {
			continue
		}
		ranges = append(ranges, memRange{start: uintptr(start), end: uintptr(end)})
	}
	return ranges, scanner.Err()
}

// liveMemoryView constructs a byte slice over this process's own already-
// mapped [start, end) address range. This reads live memory rather than the
// on-disk file, since a software breakpoint patches the running image, not
// the binary on disk.
func liveMemoryView(start, end uintptr) []byte {
	if end <= start {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(start)), end-start)
}
