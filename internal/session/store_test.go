package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	tr := NewTracker()
	sess, _ := tr.Start("r-1", "c-1")

	w, err := store.Create(sess)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := w.AppendLog(NewLogEntry("INIT_CONNECTION", "connecting", LogInfo)); err != nil {
		t.Fatalf("append log error: %v", err)
	}
	if err := w.AppendLog(NewLogEntry("SCAN_ROLES", "scanning", LogSuccess)); err != nil {
		t.Fatalf("append log error: %v", err)
	}
	result := AuditResult{
		Score:           85,
		Effective:       true,
		Summary:         "control holds",
		Gaps:            []string{"one gap"},
		Recommendations: []string{"fix it"},
		DurationMs:      1234,
	}
	if err := w.AppendResult(result); err != nil {
		t.Fatalf("append result error: %v", err)
	}
	if err := w.Close(StatusCompleted); err != nil {
		t.Fatalf("close error: %v", err)
	}

	loaded, err := store.Load(sess.RunID)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.RunID != sess.RunID || loaded.RiskID != "r-1" || loaded.ControlID != "c-1" {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", loaded.Status)
	}
	if len(loaded.Logs) != 2 {
		t.Errorf("expected 2 logs, got %d", len(loaded.Logs))
	}
	if loaded.Result == nil || loaded.Result.Score != 85 {
		t.Errorf("result mismatch: %+v", loaded.Result)
	}
}

func TestStore_LoadWithoutFooterInfersStatus(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	tr := NewTracker()
	sess, _ := tr.Start("r-1", "c-1")

	// Simulate a crash: logs written, no footer.
	w, err := store.Create(sess)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	w.AppendLog(NewLogEntry("INIT", "start", LogInfo))
	w.f.Close()

	loaded, err := store.Load(sess.RunID)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.Status != StatusExecuting {
		t.Errorf("expected inferred EXECUTING, got %s", loaded.Status)
	}
}

func TestStore_LoadHeaderOnlyIsPlanning(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	tr := NewTracker()
	sess, _ := tr.Start("r-1", "c-1")
	w, err := store.Create(sess)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	w.f.Close()

	loaded, err := store.Load(sess.RunID)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.Status != StatusPlanning {
		t.Errorf("expected inferred PLANNING, got %s", loaded.Status)
	}
}

func TestStore_LoadBadRecordFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jsonl")
	if err := os.WriteFile(path, []byte("{not json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error for corrupt record")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	for _, id := range []string{"run-a", "run-b"} {
		w, err := store.Create(&Session{RunID: id, StartedAt: time.Now()})
		if err != nil {
			t.Fatalf("create error: %v", err)
		}
		w.Close(StatusCompleted)
		// Separate mtimes so ordering is deterministic.
		time.Sleep(10 * time.Millisecond)
	}
	// A stray non-session file must be ignored.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	ids, err := store.List()
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 runs, got %v", ids)
	}
	if ids[0] != "run-b" || ids[1] != "run-a" {
		t.Errorf("expected newest first, got %v", ids)
	}
}
