// Package session tracks agent run sessions and their state machine.
package session

import (
	"time"
)

// Status is the lifecycle state of a session. Transitions only move
// forward: PLANNING -> EXECUTING -> one of the terminal states.
type Status string

const (
	StatusPlanning  Status = "PLANNING"
	StatusExecuting Status = "EXECUTING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status ends the session.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Log entry statuses, matching the upstream line protocol.
const (
	LogInfo    = "info"
	LogSuccess = "success"
	LogWarning = "warning"
	LogError   = "error"
)

// LogEntry is one timestamped progress event within a session.
// Entries are append-only; ordering is stream arrival order.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
	Status    string `json:"status"`
}

// NewLogEntry stamps an entry with the current wall-clock time.
func NewLogEntry(action, detail, status string) LogEntry {
	if status == "" {
		status = LogInfo
	}
	return LogEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Action:    action,
		Detail:    detail,
		Status:    status,
	}
}

// AuditResult is the immutable outcome record of a completed session.
type AuditResult struct {
	Score           int        `json:"score"` // 0-100
	Effective       bool       `json:"effective"`
	Summary         string     `json:"summary"`
	Gaps            []string   `json:"gaps"`
	Recommendations []string   `json:"recommendations"`
	Scenario        string     `json:"scenario,omitempty"`
	DurationMs      int64      `json:"durationMs,omitempty"`
	ExecutionLogs   []LogEntry `json:"executionLogs,omitempty"`
}

// Session is one in-progress or finished agent run against a control.
// At most one non-terminal session exists per control id at a time.
type Session struct {
	RunID     string       `json:"run_id"`
	RiskID    string       `json:"risk_id"`
	ControlID string       `json:"control_id"`
	Status    Status       `json:"status"`
	Logs      []LogEntry   `json:"logs"`
	Result    *AuditResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// clone returns a deep copy safe to hand to observers.
func (s *Session) clone() *Session {
	cp := *s
	cp.Logs = make([]LogEntry, len(s.Logs))
	copy(cp.Logs, s.Logs)
	if s.Result != nil {
		r := *s.Result
		r.Gaps = append([]string(nil), s.Result.Gaps...)
		r.Recommendations = append([]string(nil), s.Result.Recommendations...)
		r.ExecutionLogs = append([]LogEntry(nil), s.Result.ExecutionLogs...)
		cp.Result = &r
	}
	return &cp
}
