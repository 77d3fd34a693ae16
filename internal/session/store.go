package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// JSONL record types. A session file is one header line, zero or more
// log lines, at most one result line, and a footer. The footer may be
// missing if the process died mid-run; Load tolerates that.
const (
	RecordTypeHeader = "header"
	RecordTypeLog    = "log"
	RecordTypeResult = "result"
	RecordTypeFooter = "footer"
)

// JSONLRecord is the wire wrapper for one session file line.
type JSONLRecord struct {
	RecordType string `json:"_type"`

	// Header fields
	RunID     string    `json:"run_id,omitempty"`
	RiskID    string    `json:"risk_id,omitempty"`
	ControlID string    `json:"control_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`

	// Log fields
	Entry *LogEntry `json:"entry,omitempty"`

	// Result fields
	Result *AuditResult `json:"result,omitempty"`

	// Footer fields
	Status    Status    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Store persists sessions as JSONL files under a directory, one file per
// run. Writes are append-only so a live viewer can follow the file while
// the run is still producing.
type Store struct {
	dir string
}

// NewStore creates the session directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file path for a run id.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.dir, runID+".jsonl")
}

// Writer appends records for one run.
type Writer struct {
	f *os.File
}

// Create opens a new session file and writes the header record.
func (s *Store) Create(sess *Session) (*Writer, error) {
	f, err := os.Create(s.Path(sess.RunID))
	if err != nil {
		return nil, fmt.Errorf("failed to create session file: %w", err)
	}
	w := &Writer{f: f}
	err = w.writeLine(JSONLRecord{
		RecordType: RecordTypeHeader,
		RunID:      sess.RunID,
		RiskID:     sess.RiskID,
		ControlID:  sess.ControlID,
		StartedAt:  sess.StartedAt,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// AppendLog writes one log record.
func (w *Writer) AppendLog(entry LogEntry) error {
	return w.writeLine(JSONLRecord{RecordType: RecordTypeLog, Entry: &entry})
}

// AppendResult writes the result record.
func (w *Writer) AppendResult(result AuditResult) error {
	return w.writeLine(JSONLRecord{RecordType: RecordTypeResult, Result: &result})
}

// Close writes the footer with the final status and closes the file.
func (w *Writer) Close(status Status) error {
	err := w.writeLine(JSONLRecord{
		RecordType: RecordTypeFooter,
		Status:     status,
		UpdatedAt:  time.Now(),
	})
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (w *Writer) writeLine(record JSONLRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := w.f.Write(append(data, '\n')); err != nil {
		return err
	}
	// Flush each line so live followers see it immediately.
	return w.f.Sync()
}

// Load reads a session back from its run id.
func (s *Store) Load(runID string) (*Session, error) {
	return LoadFile(s.Path(runID))
}

// LoadFile reads a session from a JSONL file. A missing footer (crashed
// run) is tolerated: the status is inferred from the records present.
func LoadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	sess := &Session{Logs: []LogEntry{}}
	sawFooter := false

	// bufio.Reader rather than Scanner: no line length limit.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading session file: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var record JSONLRecord
			if uerr := json.Unmarshal(line, &record); uerr != nil {
				return nil, fmt.Errorf("failed to parse session record: %w", uerr)
			}
			applyRecord(sess, record, &sawFooter)
		}
		if err == io.EOF {
			break
		}
	}

	if !sawFooter {
		// Crashed run: infer the furthest state reached.
		switch {
		case sess.Result != nil:
			sess.Status = StatusCompleted
		case len(sess.Logs) > 0:
			sess.Status = StatusExecuting
		default:
			sess.Status = StatusPlanning
		}
	}
	return sess, nil
}

func applyRecord(sess *Session, record JSONLRecord, sawFooter *bool) {
	switch record.RecordType {
	case RecordTypeHeader:
		sess.RunID = record.RunID
		sess.RiskID = record.RiskID
		sess.ControlID = record.ControlID
		sess.StartedAt = record.StartedAt
	case RecordTypeLog:
		if record.Entry != nil {
			sess.Logs = append(sess.Logs, *record.Entry)
		}
	case RecordTypeResult:
		if record.Result != nil {
			r := *record.Result
			sess.Result = &r
		}
	case RecordTypeFooter:
		sess.Status = record.Status
		sess.UpdatedAt = record.UpdatedAt
		*sawFooter = true
	}
}

// List returns the run ids present in the store, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	type item struct {
		id  string
		mod time.Time
	}
	var items []item
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, item{
			id:  e.Name()[:len(e.Name())-len(".jsonl")],
			mod: info.ModTime(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].mod.After(items[j].mod) })
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids, nil
}
