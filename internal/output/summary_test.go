package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintSummaryIncludesVerdictAndTotals(t *testing.T) {
	report := Report{
		Verdict:      "Instrumented",
		Score:        70,
		SourceTotals: map[string]int{"Ptrace": 70},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, report)

	out := buf.String()
	if !strings.Contains(out, "Instrumented") {
		t.Errorf("summary missing verdict: %s", out)
	}
	if !strings.Contains(out, "Ptrace:") {
		t.Errorf("summary missing source breakdown: %s", out)
	}
	if !strings.Contains(out, "70") {
		t.Errorf("summary missing score/total: %s", out)
	}
}

func TestVerdictStyleFallsBackForUnknown(t *testing.T) {
	rendered := verdictStyle("NotAVerdict").Render("NotAVerdict")
	if !strings.Contains(rendered, "NotAVerdict") {
		t.Errorf("fallback style should still render the verdict text, got %q", rendered)
	}
}
