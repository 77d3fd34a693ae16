package session

import (
	"errors"
	"testing"
)

func TestTracker_StartCreatesPlanningSession(t *testing.T) {
	tr := NewTracker()
	sess, err := tr.Start("r-1", "c-1")
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	if sess.Status != StatusPlanning {
		t.Errorf("expected PLANNING, got %s", sess.Status)
	}
	if sess.RunID == "" {
		t.Error("expected a run id")
	}
	if sess.RiskID != "r-1" || sess.ControlID != "c-1" {
		t.Errorf("wrong ownership: risk=%s control=%s", sess.RiskID, sess.ControlID)
	}
	if len(sess.Logs) != 0 {
		t.Errorf("expected empty log list, got %d entries", len(sess.Logs))
	}
}

func TestTracker_StartRejectsActiveSession(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Start("r-1", "c-1"); err != nil {
		t.Fatalf("first start error: %v", err)
	}
	tr.AppendLog("c-1", NewLogEntry("INIT", "start", LogInfo))

	if _, err := tr.Start("r-1", "c-1"); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	// The first session must be left undisturbed.
	sess, ok := tr.Get("c-1")
	if !ok {
		t.Fatal("session missing")
	}
	if sess.Status != StatusExecuting || len(sess.Logs) != 1 {
		t.Errorf("first session disturbed: status=%s logs=%d", sess.Status, len(sess.Logs))
	}
}

func TestTracker_StartAllowedAfterTerminal(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Start("r-1", "c-1"); err != nil {
		t.Fatalf("start error: %v", err)
	}
	tr.Complete("c-1", AuditResult{Score: 80, Effective: true, Summary: "ok"})

	if _, err := tr.Start("r-1", "c-1"); err != nil {
		t.Errorf("restart after terminal state should succeed, got %v", err)
	}
}

func TestTracker_FirstLogMovesToExecuting(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.AppendLog("c-1", NewLogEntry("INIT_CONNECTION", "connecting", LogInfo))

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusExecuting {
		t.Errorf("expected EXECUTING after first log, got %s", sess.Status)
	}
	if len(sess.Logs) != 1 {
		t.Errorf("expected 1 log, got %d", len(sess.Logs))
	}
}

func TestTracker_CompleteFreezesAuditTrail(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.AppendLog("c-1", NewLogEntry("INIT", "start", LogInfo))
	tr.AppendLog("c-1", NewLogEntry("SCAN", "scanning", LogSuccess))
	tr.Complete("c-1", AuditResult{Score: 80, Effective: true, Summary: "ok", Recommendations: []string{"none"}})

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", sess.Status)
	}
	if sess.Result == nil {
		t.Fatal("expected result")
	}
	if sess.Result.Score != 80 {
		t.Errorf("expected score 80, got %d", sess.Result.Score)
	}
	if len(sess.Result.ExecutionLogs) != 2 {
		t.Errorf("expected 2 trail entries, got %d", len(sess.Result.ExecutionLogs))
	}
	if sess.Result.DurationMs < 0 {
		t.Errorf("negative duration %d", sess.Result.DurationMs)
	}
}

func TestTracker_NoMutationAfterTerminal(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Complete("c-1", AuditResult{Score: 70, Effective: true, Summary: "done"})

	tr.AppendLog("c-1", NewLogEntry("LATE", "too late", LogInfo))
	tr.Complete("c-1", AuditResult{Score: 10, Effective: false, Summary: "second"})
	tr.Fail("c-1", "late failure")

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCompleted {
		t.Errorf("terminal status changed to %s", sess.Status)
	}
	if sess.Result.Score != 70 {
		t.Errorf("result overwritten: score %d", sess.Result.Score)
	}
	if len(sess.Logs) != 0 {
		t.Errorf("log appended after terminal state: %d entries", len(sess.Logs))
	}
}

// Cancelling right after start must leave the log list empty no matter
// how many events arrive afterwards.
func TestTracker_CancelIsSticky(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Cancel("c-1")

	tr.AppendLog("c-1", NewLogEntry("INIT", "start", LogInfo))
	tr.AppendLog("c-1", NewLogEntry("SCAN", "scanning", LogSuccess))
	tr.Complete("c-1", AuditResult{Score: 99, Effective: true, Summary: "should be dropped"})

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", sess.Status)
	}
	if len(sess.Logs) != 0 {
		t.Errorf("expected empty logs after cancel, got %d", len(sess.Logs))
	}
	if sess.Result != nil {
		t.Error("result applied to cancelled session")
	}
}

func TestTracker_CancelIdempotentAndIgnoredWhenTerminal(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Cancel("c-1")
	tr.Cancel("c-1") // second cancel is a no-op

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", sess.Status)
	}

	tr.Start("r-1", "c-2")
	tr.Complete("c-2", AuditResult{Score: 90, Effective: true, Summary: "ok"})
	tr.Cancel("c-2")
	sess, _ = tr.Get("c-2")
	if sess.Status != StatusCompleted {
		t.Errorf("cancel after completion changed status to %s", sess.Status)
	}
}

func TestTracker_CancelClearedOnRestart(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Cancel("c-1")

	if _, err := tr.Start("r-1", "c-1"); err != nil {
		t.Fatalf("restart after cancel error: %v", err)
	}
	tr.AppendLog("c-1", NewLogEntry("INIT", "fresh run", LogInfo))

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusExecuting || len(sess.Logs) != 1 {
		t.Errorf("stale cancel flag leaked into new run: status=%s logs=%d", sess.Status, len(sess.Logs))
	}
}

func TestTracker_OpsOnUnknownControlAreNoOps(t *testing.T) {
	tr := NewTracker()
	tr.AppendLog("ghost", NewLogEntry("X", "y", LogInfo))
	tr.Complete("ghost", AuditResult{Score: 1})
	tr.Fail("ghost", "boom")
	tr.Cancel("ghost")

	if len(tr.Sessions()) != 0 {
		t.Error("phantom session created")
	}
}

func TestTracker_FailAppendsOneErrorLog(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.AppendLog("c-1", NewLogEntry("INIT", "start", LogInfo))
	tr.Fail("c-1", "agent connection terminated unexpectedly")

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", sess.Status)
	}
	last := sess.Logs[len(sess.Logs)-1]
	if last.Status != LogError || last.Action != "SYSTEM_ERROR" {
		t.Errorf("unexpected failure log: %+v", last)
	}
}

func TestTracker_ResultsOnlyForCompleted(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Complete("c-1", AuditResult{Score: 80, Effective: true, Summary: "ok"})
	tr.Start("r-1", "c-2")
	tr.Fail("c-2", "boom")
	tr.Start("r-1", "c-3")
	tr.Cancel("c-3")

	results := tr.Results()
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	if _, ok := results["c-1"]; !ok {
		t.Error("completed session missing from results")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")
	tr.Cancel("c-1")
	tr.Reset()

	if len(tr.Sessions()) != 0 {
		t.Error("sessions survived reset")
	}
	// A reset also clears cancel flags.
	if _, err := tr.Start("r-1", "c-1"); err != nil {
		t.Fatalf("start after reset error: %v", err)
	}
	tr.AppendLog("c-1", NewLogEntry("INIT", "start", LogInfo))
	sess, _ := tr.Get("c-1")
	if len(sess.Logs) != 1 {
		t.Error("cancel flag survived reset")
	}
}

func TestInbox_AppliesInOrder(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")

	in := NewInbox(tr, "c-1", 4)
	in.Post(LogReceived{Entry: NewLogEntry("INIT", "start", LogInfo)})
	in.Post(LogReceived{Entry: NewLogEntry("SCAN", "scanning", LogSuccess)})
	in.Post(ResultReceived{Result: AuditResult{Score: 80, Effective: true, Summary: "ok", Recommendations: []string{"none"}}})
	in.Close()

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", sess.Status)
	}
	if len(sess.Result.ExecutionLogs) != 2 {
		t.Errorf("expected 2 trail entries, got %d", len(sess.Result.ExecutionLogs))
	}
	if sess.Logs[0].Action != "INIT" || sess.Logs[1].Action != "SCAN" {
		t.Errorf("events applied out of order: %+v", sess.Logs)
	}
}

func TestInbox_CancelWinsRaceWithResult(t *testing.T) {
	tr := NewTracker()
	tr.Start("r-1", "c-1")

	in := NewInbox(tr, "c-1", 4)
	// Cancel lands while the result is still queued: the result must be
	// discarded, not applied.
	tr.Cancel("c-1")
	in.Post(ResultReceived{Result: AuditResult{Score: 100, Effective: true, Summary: "late"}})
	in.Close()

	sess, _ := tr.Get("c-1")
	if sess.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", sess.Status)
	}
	if sess.Result != nil {
		t.Error("queued result applied after cancellation")
	}
}
