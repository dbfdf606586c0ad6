package tracer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStatus(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "status")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTracerPIDParsesValue(t *testing.T) {
	path := writeStatus(t, "Name:\tsentrycheck\nPid:\t42\nTracerPid:\t12345\nUid:\t0\t0\t0\t0\n")
	if got := readTracerPID(path); got != 12345 {
		t.Errorf("TracerPID = %d, want 12345", got)
	}
}

func TestReadTracerPIDZeroMeansNoTracer(t *testing.T) {
	path := writeStatus(t, "Name:\tsentrycheck\nTracerPid:\t0\n")
	if got := readTracerPID(path); got != 0 {
		t.Errorf("TracerPID = %d, want 0", got)
	}
}

func TestReadTracerPIDMissingFile(t *testing.T) {
	if got := readTracerPID("/nonexistent/status"); got != 0 {
		t.Errorf("TracerPID = %d, want 0 for missing file", got)
	}
}

func TestReadTracerPIDMissingLine(t *testing.T) {
	path := writeStatus(t, "Name:\tsentrycheck\nPid:\t42\n")
	if got := readTracerPID(path); got != 0 {
		t.Errorf("TracerPID = %d, want 0 when line absent", got)
	}
}

func TestTracerPIDIsCachedUntilInvalidate(t *testing.T) {
	s := New()
	s.cached = true
	s.tracerPID = 999

	if got := s.TracerPID(); got != 999 {
		t.Errorf("expected cached value 999, got %d", got)
	}

	s.Invalidate()
	if s.cached {
		t.Error("Invalidate must clear the cache flag")
	}
}

func TestCompatModeDefaultsFalse(t *testing.T) {
	s := New()
	if s.CompatMode() {
		t.Error("compat mode should default to false")
	}
	s.SetCompatMode(true)
	if !s.CompatMode() {
		t.Error("SetCompatMode(true) should be observable")
	}
}
