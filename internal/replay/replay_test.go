package replay

import (
	"strings"
	"testing"
	"time"

	"github.com/sentinelops/sentinel/internal/session"
)

func testSession() *session.Session {
	return &session.Session{
		RunID:     "run-123",
		RiskID:    "r-1",
		ControlID: "c-1",
		Status:    session.StatusCompleted,
		StartedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Logs: []session.LogEntry{
			{Timestamp: "10:00:01", Action: "INIT_CONNECTION", Detail: "connecting", Status: session.LogInfo},
			{Timestamp: "10:00:02", Action: "COMPLIANCE_FAIL", Detail: "gap found", Status: session.LogError},
		},
		Result: &session.AuditResult{
			Score:           45,
			Effective:       false,
			Summary:         "control has a gap",
			Gaps:            []string{"MFA Bypass on Internal Subnets"},
			Recommendations: []string{"Remove IP-based trust"},
			DurationMs:      900,
		},
	}
}

func TestReplay_RendersTimelineAndResult(t *testing.T) {
	var buf strings.Builder
	if err := New(&buf).Replay(testSession()); err != nil {
		t.Fatalf("replay error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-123",
		"INIT_CONNECTION",
		"COMPLIANCE_FAIL",
		"INEFFECTIVE",
		"score 45/100",
		"MFA Bypass on Internal Subnets",
		"Remove IP-based trust",
		"COMPLETED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestReplay_EmptySession(t *testing.T) {
	var buf strings.Builder
	sess := &session.Session{RunID: "run-1", Status: session.StatusPlanning}
	if err := New(&buf).Replay(sess); err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if !strings.Contains(buf.String(), "(no log entries)") {
		t.Error("empty timeline marker missing")
	}
}

func TestWrapContent_IndentsTimelineContinuations(t *testing.T) {
	line := "    1 10:00:01 │ SCAN " + strings.Repeat("word ", 30)
	wrapped := wrapContent(line, 40)
	lines := strings.Split(wrapped, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", wrapped)
	}
	if !strings.HasPrefix(lines[1], strings.Repeat(" ", 10)) {
		t.Errorf("continuation not indented: %q", lines[1])
	}
}
