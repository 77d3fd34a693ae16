// Package stream produces and decodes the text stream of one agent run.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sentinelops/sentinel/internal/risk"
)

// Source yields the text chunks of one agent run. Consumption is
// pull-based and the sequence is finite and non-restartable: Recv
// returns io.EOF once the run's output is exhausted and must not be
// called again after that.
type Source interface {
	Recv(ctx context.Context) (string, error)
}

// RunContext carries the free-form context strings a source needs to
// frame the run.
type RunContext struct {
	RiskTitle       string
	RiskDescription string
	RiskSeverity    string
	ControlName     string
	Capability      risk.Capability
}

// ScriptConfig paces the fallback script.
type ScriptConfig struct {
	// Delay is the base pause before each chunk; Jitter adds a random
	// extra pause in [0, Jitter). Zero values mean no pacing, which the
	// tests rely on.
	Delay  time.Duration
	Jitter time.Duration
}

// ScriptSource replays a fixed ordered script of log chunks ending in
// one result chunk, each emitted after an artificial delay. It stands
// in for the remote model when the API is unreachable, so every run
// still reaches a terminal state offline.
type ScriptSource struct {
	cfg   ScriptConfig
	lines []string
	next  int
}

// NewScriptSource builds the deterministic fallback run for the control.
func NewScriptSource(run RunContext, cfg ScriptConfig) *ScriptSource {
	return &ScriptSource{cfg: cfg, lines: fallbackScript(run)}
}

// Recv returns the next script chunk after the configured pacing delay.
func (s *ScriptSource) Recv(ctx context.Context) (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	if err := s.pace(ctx); err != nil {
		return "", err
	}
	line := s.lines[s.next]
	s.next++
	return line + "\n", nil
}

func (s *ScriptSource) pace(ctx context.Context) error {
	delay := s.cfg.Delay
	if s.cfg.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jsonLine(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

type scriptLog struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Detail string `json:"detail"`
	Status string `json:"status"`
}

type scriptResult struct {
	Type string `json:"type"`
	Data struct {
		Score           int      `json:"score"`
		Effective       bool     `json:"effective"`
		Summary         string   `json:"summary"`
		Gaps            []string `json:"gaps"`
		Recommendations []string `json:"recommendations"`
		Scenario        string   `json:"scenario"`
	} `json:"data"`
}

func fallbackScript(run RunContext) []string {
	target := "Enterprise Data Lake"
	if run.Capability == risk.CIAMAttestation {
		target = "GitHub Enterprise & SonarQube"
	}

	logs := []scriptLog{
		{"log", "INIT_CONNECTION", fmt.Sprintf("Establishing secure mTLS connection to %s...", target), "info"},
		{"log", "CONTEXT_LOAD", "Retrieving architecture maps and security policies from VectorDB...", "info"},
		{"log", "DISCOVERY_SCAN", fmt.Sprintf("Scanning target scope for control: %s. Found 14 active endpoints.", run.ControlName), "success"},
		{"log", "AST_ANALYSIS", "Parsing Abstract Syntax Tree (AST) to identify authentication gates in legacy code modules...", "info"},
		{"log", "MCP_QUERY", "Querying Model Context Protocol (MCP) server for business logic constraints...", "info"},
		{"log", "TRACE_EXECUTION", "Stitched execution path: Mobile_App -> API_Gateway -> Auth_Service -> Core_Banking.", "success"},
		{"log", "VULNERABILITY_CHECK", "Analyzing 'StepUpAuth' logic in TransactionController.java against policy threshold ($10,000).", "warning"},
		{"log", "COMPLIANCE_FAIL", "Detected logic gap: High-value transactions bypass MFA if originating from trusted subnets.", "error"},
		{"log", "REPORT_GEN", "Compiling deficiency report and generating sequence diagram...", "success"},
	}

	lines := make([]string, 0, len(logs)+1)
	for _, l := range logs {
		lines = append(lines, jsonLine(l))
	}

	var result scriptResult
	result.Type = "result"
	result.Data.Score = 45
	result.Data.Effective = false
	result.Data.Summary = "The agent detected a critical logic flaw where step-up authentication is bypassed for internal subnets, violating Zero Trust policies for high-value transfers."
	result.Data.Gaps = []string{"MFA Bypass on Internal Subnets", "Hardcoded Trusted IP List"}
	result.Data.Recommendations = []string{"Remove IP-based trust", "Enforce adaptive MFA globally"}
	result.Data.Scenario = "CIAM_LOGIC_GAP"
	lines = append(lines, jsonLine(result))

	return lines
}
