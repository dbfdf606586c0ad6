package response

import (
	"testing"
	"time"

	"github.com/aleksvor/sentrycheck/internal/evidence"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		verdict evidence.Verdict
		want    int
	}{
		{evidence.Clean, 0},
		{evidence.Suspicious, 0},
		{evidence.Instrumented, 0xC0DE},
		{evidence.Deceptive, 0xDEAD},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.verdict); got != tc.want {
			t.Errorf("ExitCode(%v) = %#x, want %#x", tc.verdict, got, tc.want)
		}
	}
}

func TestDispatchDoesNotDelayOnCleanOrInstrumented(t *testing.T) {
	start := time.Now()
	Dispatch(evidence.Clean)
	if time.Since(start) > 10*time.Millisecond {
		t.Error("Dispatch(Clean) should return immediately")
	}

	start = time.Now()
	Dispatch(evidence.Instrumented)
	if time.Since(start) > 10*time.Millisecond {
		t.Error("Dispatch(Instrumented) should return immediately")
	}
}

func TestDispatchDelaysOnSuspicious(t *testing.T) {
	start := time.Now()
	Dispatch(evidence.Suspicious)
	if time.Since(start) < suspiciousDelay {
		t.Error("Dispatch(Suspicious) should pause for suspiciousDelay")
	}
}
