package stream

import (
	"encoding/json"
	"strings"
)

// Line protocol over the agent stream. Each structured line is one
// self-contained JSON object:
//
//	{"type":"log","action":"...","detail":"...","status":"info"}
//	{"type":"result","data":{"score":45,"effective":false,...}}
//
// Anything else is model narration and either dropped or degraded to a
// generic log event.

// Event is one typed event decoded from the stream.
type Event interface{ streamEvent() }

// LogEvent is a progress line from the agent.
type LogEvent struct {
	Action string
	Detail string
	Status string
}

// ResultEvent is the final outcome line of a run.
type ResultEvent struct {
	Score           int
	Effective       bool
	Summary         string
	Gaps            []string
	Recommendations []string
	Scenario        string
}

func (LogEvent) streamEvent()    {}
func (ResultEvent) streamEvent() {}

type wireLine struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Detail string `json:"detail"`
	Status string `json:"status"`
	Data   *struct {
		Score           int      `json:"score"`
		Effective       bool     `json:"effective"`
		Summary         string   `json:"summary"`
		Gaps            []string `json:"gaps"`
		Recommendations []string `json:"recommendations"`
		Scenario        string   `json:"scenario"`
	} `json:"data"`
}

// Free text shorter than this is treated as stream noise.
const minNarrationLen = 5

// ParseChunk converts one text chunk into zero or more events. Parse
// failures are local: a malformed line is dropped, a truncated fragment
// split across chunk boundaries is discarded rather than buffered, and
// non-JSON narration above a small length threshold degrades to a
// generic log event. Never returns an error; each line yields at most
// one event.
func ParseChunk(chunk string) []Event {
	var events []Event
	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
			if ev, ok := parseLine(trimmed); ok {
				events = append(events, ev)
			}
			continue
		}
		// Unstructured narration still shows up as progress, so a model
		// that ignores the line protocol does not look hung.
		if len(trimmed) > minNarrationLen && !strings.Contains(trimmed, "```") {
			events = append(events, LogEvent{
				Action: "PROCESSING",
				Detail: trimmed,
				Status: "info",
			})
		}
	}
	return events
}

func parseLine(line string) (Event, bool) {
	var wire wireLine
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		return nil, false
	}
	switch wire.Type {
	case "log":
		status := wire.Status
		if status == "" {
			status = "info"
		}
		return LogEvent{Action: wire.Action, Detail: wire.Detail, Status: status}, true
	case "result":
		if wire.Data == nil {
			return nil, false
		}
		return ResultEvent{
			Score:           wire.Data.Score,
			Effective:       wire.Data.Effective,
			Summary:         wire.Data.Summary,
			Gaps:            wire.Data.Gaps,
			Recommendations: wire.Data.Recommendations,
			Scenario:        wire.Data.Scenario,
		}, true
	}
	return nil, false
}
