package session

// Run events as discrete values. Each parsed stream event becomes one of
// these and is posted to the session's inbox; a single drain goroutine
// applies them to the tracker in arrival order, which keeps ordering and
// atomicity explicit instead of buried in callback closures.

// RunEvent is one message in a session inbox.
type RunEvent interface{ runEvent() }

// LogReceived carries one parsed log entry.
type LogReceived struct{ Entry LogEntry }

// ResultReceived carries the parsed final result.
type ResultReceived struct{ Result AuditResult }

// RunFailed carries a top-level stream or parser failure.
type RunFailed struct{ Detail string }

func (LogReceived) runEvent()    {}
func (ResultReceived) runEvent() {}
func (RunFailed) runEvent()      {}

// Inbox serializes event application for one run.
type Inbox struct {
	controlID string
	tracker   *Tracker
	ch        chan RunEvent
	done      chan struct{}

	// Observer hook, invoked from the drain goroutine for each event the
	// tracker accepted. Events dropped because the session was cancelled
	// or terminal are never observed. May be nil.
	OnApplied func(RunEvent)
}

// NewInbox creates an inbox for the control id and starts its drain
// goroutine. The caller must Close the inbox when the stream ends.
func NewInbox(tracker *Tracker, controlID string, buffer int) *Inbox {
	if buffer <= 0 {
		buffer = 16
	}
	in := &Inbox{
		controlID: controlID,
		tracker:   tracker,
		ch:        make(chan RunEvent, buffer),
		done:      make(chan struct{}),
	}
	go in.drain()
	return in
}

// Post queues one event. Safe to call until Close.
func (in *Inbox) Post(ev RunEvent) {
	in.ch <- ev
}

// Close signals end of stream and blocks until every queued event has
// been applied.
func (in *Inbox) Close() {
	close(in.ch)
	<-in.done
}

func (in *Inbox) drain() {
	defer close(in.done)
	for ev := range in.ch {
		applied := false
		switch e := ev.(type) {
		case LogReceived:
			applied = in.tracker.AppendLog(in.controlID, e.Entry)
		case ResultReceived:
			applied = in.tracker.Complete(in.controlID, e.Result)
		case RunFailed:
			applied = in.tracker.Fail(in.controlID, e.Detail)
		}
		if applied && in.OnApplied != nil {
			in.OnApplied(ev)
		}
	}
}
