package stream

import (
	"strings"
	"testing"
)

func TestParseChunk_LogAndResult(t *testing.T) {
	chunk := `{"type":"log","action":"INIT","detail":"start","status":"info"}
{"type":"result","data":{"score":80,"effective":true,"summary":"ok","gaps":[],"recommendations":["none"]}}`

	events := ParseChunk(chunk)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	log, ok := events[0].(LogEvent)
	if !ok {
		t.Fatalf("expected LogEvent, got %T", events[0])
	}
	if log.Action != "INIT" || log.Detail != "start" || log.Status != "info" {
		t.Errorf("unexpected log event: %+v", log)
	}
	result, ok := events[1].(ResultEvent)
	if !ok {
		t.Fatalf("expected ResultEvent, got %T", events[1])
	}
	if result.Score != 80 || !result.Effective || result.Summary != "ok" {
		t.Errorf("unexpected result event: %+v", result)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != "none" {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
}

func TestParseChunk_NarrationBecomesGenericLog(t *testing.T) {
	events := ParseChunk("not json at all, just narrative output from the model")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	log, ok := events[0].(LogEvent)
	if !ok {
		t.Fatalf("expected LogEvent, got %T", events[0])
	}
	if log.Action != "PROCESSING" || log.Status != "info" {
		t.Errorf("unexpected synthesized event: %+v", log)
	}
	if log.Detail != "not json at all, just narrative output from the model" {
		t.Errorf("detail should carry the raw text, got %q", log.Detail)
	}
}

func TestParseChunk_DropsNoise(t *testing.T) {
	cases := []struct {
		name  string
		chunk string
	}{
		{"empty", ""},
		{"blank lines", "\n\n\n"},
		{"short fragment", "hi"},
		{"code fence", "```json"},
		{"truncated object", `{"type":"log","action":"INIT"`},
		{"malformed json", `{"type":"log",}`},
		{"unknown discriminator", `{"type":"heartbeat"}`},
		{"result without data", `{"type":"result"}`},
	}
	for _, tc := range cases {
		if events := ParseChunk(tc.chunk); len(events) != 0 {
			t.Errorf("%s: expected no events, got %d", tc.name, len(events))
		}
	}
}

func TestParseChunk_DefaultsMissingLogStatus(t *testing.T) {
	events := ParseChunk(`{"type":"log","action":"SCAN","detail":"scanning"}`)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if log := events[0].(LogEvent); log.Status != "info" {
		t.Errorf("expected info default, got %q", log.Status)
	}
}

// No line ever produces more than one event.
func TestParseChunk_AtMostOneEventPerLine(t *testing.T) {
	chunk := strings.Join([]string{
		`{"type":"log","action":"A","detail":"a","status":"info"}`,
		"plain narration that is long enough to keep",
		"",
		`{"broken`,
		`{"type":"result","data":{"score":10,"effective":false,"summary":"s"}}`,
	}, "\n")

	nonEmpty := 0
	for _, line := range strings.Split(chunk, "\n") {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if events := ParseChunk(chunk); len(events) > nonEmpty {
		t.Errorf("%d events from %d non-empty lines", len(events), nonEmpty)
	}
}
