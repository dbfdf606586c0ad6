package detector

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aleksvor/sentrycheck/internal/engine"
	"github.com/aleksvor/sentrycheck/internal/evidence"
	"github.com/aleksvor/sentrycheck/internal/probe"
)

// RecordReplay implements the five record-and-replay sub-methods (spec
// §4.4.6): a hypervisor CPUID bit check, TSC-vs-wall-clock rate comparison,
// signal-handler-ordering determinism, environment artifact matching, and
// an informational perf_event_paranoid read.
type RecordReplay struct{}

func (r *RecordReplay) Name() string { return "record_replay" }

func (r *RecordReplay) Run(_ context.Context, eng *engine.Engine, deps Deps) error {
	r.hypervisorBit(eng)
	r.tscVsWallClock(eng, deps)
	r.signalDeterminism(eng, deps)
	r.environmentArtifacts(eng, deps)
	r.perfCounterParanoia(deps)
	return nil
}

func (r *RecordReplay) hypervisorBit(eng *engine.Engine) {
	_, _, ecx, _ := probe.CPUID(1, 0)
	if ecx&(1<<31) != 0 {
		eng.ReportWithConfidence(evidence.RecordReplay, 15, 0.4, "CPUID hypervisor-present bit set")
	}

	eax, ebx, ecx, edx := probe.CPUID(0x40000000, 0)
	if eax < 0x40000000 {
		return
	}
	vendor := decodeCPUIDString(ebx, ecx, edx)
	lower := strings.ToLower(vendor)
	if strings.Contains(lower, "rr") || strings.Contains(lower, "record") {
		eng.Report(evidence.RecordReplay, 50, "hypervisor vendor string matches known record/replay signature: "+vendor)
	}
}

func decodeCPUIDString(ebx, ecx, edx uint32) string {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], ebx)
	binary.LittleEndian.PutUint32(buf[4:8], ecx)
	binary.LittleEndian.PutUint32(buf[8:12], edx)
	return string(buf[:])
}

func (r *RecordReplay) tscVsWallClock(eng *engine.Engine, deps Deps) {
	wallStart := time.Now()
	tscStart := probe.ReadTSC()
	time.Sleep(10 * time.Millisecond)
	tscEnd := probe.ReadTSC()
	wallNs := time.Since(wallStart).Nanoseconds()
	if wallNs <= 0 {
		return
	}
	ratio := float64(tscEnd-tscStart) / float64(wallNs)

	cfg := deps.Config.RecordReplay
	lowBound := configOrF64(cfg.TSCRatioLowBound, 0.1)
	highBound := configOrF64(cfg.TSCRatioHighBound, 20.0)

	switch {
	case ratio < lowBound:
		eng.Report(evidence.RecordReplay, 40, "TSC-to-wall-clock ratio far below native range")
	case ratio > highBound:
		eng.Report(evidence.RecordReplay, 30, "TSC-to-wall-clock ratio far above native range")
	}
}

const signalDeterminismTrials = 20

// signalDeterminism sends two signals repeatedly and records a shared
// accumulator's value after each round; the accumulator and the call count
// are reset at the start of every round. The accumulator's formula weights
// each handler's invocation by the running call count so that handler
// firing order is observable in the recorded values; on real hardware,
// scheduling jitter between the two kill() calls makes the sequence vary
// trial to trial. A replayed, fully deterministic schedule can make every
// trial identical.
func (r *RecordReplay) signalDeterminism(eng *engine.Engine, deps Deps) {
	var mu sync.Mutex
	var acc int64
	count := 0

	ch1 := make(chan os.Signal, 1)
	ch2 := make(chan os.Signal, 1)
	signal.Notify(ch1, syscall.SIGUSR1)
	signal.Notify(ch2, syscall.SIGUSR2)
	defer signal.Stop(ch1)
	defer signal.Stop(ch2)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ch1:
				mu.Lock()
				count++
				acc += int64(count) * 1
				mu.Unlock()
			case <-ch2:
				mu.Lock()
				count++
				acc += int64(count) * 10
				mu.Unlock()
			case <-done:
				return
			}
		}
	}()

	pid := os.Getpid()
	values := make([]int64, 0, signalDeterminismTrials)
	for i := 0; i < signalDeterminismTrials; i++ {
		mu.Lock()
		acc, count = 0, 0
		mu.Unlock()
		_ = syscall.Kill(pid, syscall.SIGUSR1)
		_ = syscall.Kill(pid, syscall.SIGUSR2)
		time.Sleep(time.Millisecond)
		mu.Lock()
		values = append(values, acc)
		mu.Unlock()
	}
	close(done)
	wg.Wait()

	allIdentical := true
	for _, v := range values {
		if v != values[0] {
			allIdentical = false
			break
		}
	}

	load := readLoadAverage1m(deps.ProcRoot)
	if allIdentical && load >= 0.5 {
		eng.ReportWithConfidence(evidence.RecordReplay, 2, 0.15, "signal handler ordering identical across 20 trials under non-idle load")
	}
}

var replayArtifactPrefixes = []string{"_RR_TRACE_DIR", "RR_", "LD_PRELOAD"}

var replayValueSignatures = []string{"rr", "record", "replay"}

func matchesReplaySignature(value string) bool {
	lower := strings.ToLower(value)
	for _, sig := range replayValueSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

func (r *RecordReplay) environmentArtifacts(eng *engine.Engine, deps Deps) {
	if exe, err := os.Readlink(filepath.Join(deps.ProcRoot, "self/exe")); err == nil {
		if strings.Contains(strings.ToLower(exe), "rr") {
			eng.Report(evidence.RecordReplay, 60, "/proc/self/exe points to an rr-related path: "+exe)
		}
	}

	for _, e := range os.Environ() {
		name, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		for _, prefix := range replayArtifactPrefixes {
			if strings.HasPrefix(name, prefix) && matchesReplaySignature(value) {
				eng.Report(evidence.RecordReplay, 40, "environment variable "+name+" value matches known record/replay signature")
				break
			}
		}
	}

	ppid := readPPID(filepath.Join(deps.ProcRoot, "self/status"))
	if ppid > 0 {
		comm := readTrimmedFile(filepath.Join(deps.ProcRoot, strconv.Itoa(ppid), "comm"))
		if strings.Contains(strings.ToLower(comm), "rr") {
			eng.Report(evidence.RecordReplay, 50, "parent process command name matches known record/replay tooling")
		}
	}
}

func (r *RecordReplay) perfCounterParanoia(deps Deps) {
	val := readTrimmedFile(filepath.Join(deps.ProcRoot, "sys/kernel/perf_event_paranoid"))
	if val != "" {
		log.Printf("[record_replay] perf_event_paranoid=%s", val)
	}
}

func readPPID(statusPath string) int {
	data, err := os.ReadFile(statusPath)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "PPid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return ppid
	}
	return 0
}

func readTrimmedFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readLoadAverage1m(procRoot string) float64 {
	data, err := os.ReadFile(filepath.Join(procRoot, "loadavg"))
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}
