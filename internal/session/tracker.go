package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionActive is returned by Start when a non-terminal session
// already exists for the control id.
var ErrSessionActive = errors.New("session already active for control")

// Tracker owns the control-id -> session map. It is an explicit context
// object: callers create one and pass it around, there is no package-level
// store. All mutations go through the operations below; each performs its
// read-modify-write under the tracker lock so events for one control are
// applied atomically and in arrival order.
type Tracker struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	cancelled map[string]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sessions:  make(map[string]*Session),
		cancelled: make(map[string]bool),
	}
}

// Start creates a new PLANNING session for the control. It rejects the
// call if a non-terminal session already exists for the same control id;
// starting over an in-flight run is a caller error, never a silent
// overwrite. A fresh start clears any stale cancel flag from a prior run.
func (t *Tracker) Start(riskID, controlID string) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.sessions[controlID]; ok && !existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, controlID)
	}
	delete(t.cancelled, controlID)

	now := time.Now()
	sess := &Session{
		RunID:     uuid.NewString(),
		RiskID:    riskID,
		ControlID: controlID,
		Status:    StatusPlanning,
		Logs:      []LogEntry{},
		StartedAt: now,
		UpdatedAt: now,
	}
	t.sessions[controlID] = sess
	return sess.clone(), nil
}

// Cancel marks the control id cancelled for the remainder of the current
// run. The flag is sticky: every later mutation for the id is dropped,
// including a result that was already in flight. Idempotent; a run that
// already reached a terminal state is left untouched.
func (t *Tracker) Cancel(controlID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[controlID]
	if !ok || sess.Status.Terminal() {
		return
	}
	t.cancelled[controlID] = true
	sess.Status = StatusCancelled
	sess.UpdatedAt = time.Now()
}

// AppendLog applies one parsed log entry and reports whether it was
// accepted. No-op when the session is absent, cancelled, or terminal.
// The first entry moves the session from PLANNING to EXECUTING.
func (t *Tracker) AppendLog(controlID string, entry LogEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[controlID]
	if !ok || t.cancelled[controlID] || sess.Status.Terminal() {
		return false
	}
	if sess.Status == StatusPlanning {
		sess.Status = StatusExecuting
	}
	sess.Logs = append(sess.Logs, entry)
	sess.UpdatedAt = time.Now()
	return true
}

// Complete finalizes the session with its audit result and reports
// whether it was accepted. The run duration is stamped and the
// accumulated log list is frozen into the result as the audit trail.
// No-op when the session is absent, cancelled, or already terminal.
func (t *Tracker) Complete(controlID string, result AuditResult) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[controlID]
	if !ok || t.cancelled[controlID] || sess.Status.Terminal() {
		return false
	}

	result.DurationMs = time.Since(sess.StartedAt).Milliseconds()
	result.ExecutionLogs = append([]LogEntry(nil), sess.Logs...)
	sess.Result = &result
	sess.Status = StatusCompleted
	sess.UpdatedAt = time.Now()
	return true
}

// Fail terminates the session with one explanatory error log entry and
// reports whether it was accepted. No-op when the session is absent,
// cancelled, or already terminal.
func (t *Tracker) Fail(controlID, detail string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[controlID]
	if !ok || t.cancelled[controlID] || sess.Status.Terminal() {
		return false
	}
	sess.Logs = append(sess.Logs, NewLogEntry("SYSTEM_ERROR", detail, LogError))
	sess.Status = StatusFailed
	sess.UpdatedAt = time.Now()
	return true
}

// Get returns a snapshot of the session for the control id.
func (t *Tracker) Get(controlID string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[controlID]
	if !ok {
		return nil, false
	}
	return sess.clone(), true
}

// Sessions returns snapshots of all tracked sessions.
func (t *Tracker) Sessions() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Session, 0, len(t.sessions))
	for _, sess := range t.sessions {
		out = append(out, sess.clone())
	}
	return out
}

// Results returns the audit results of all completed sessions, keyed by
// control id.
func (t *Tracker) Results() map[string]AuditResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]AuditResult)
	for id, sess := range t.sessions {
		if sess.Status == StatusCompleted && sess.Result != nil {
			out[id] = *sess.Result
		}
	}
	return out
}

// Reset drops all sessions, results, and cancel flags.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions = make(map[string]*Session)
	t.cancelled = make(map[string]bool)
}
