// Package runner drives one agent session end to end: it opens the
// stream source, decodes chunks into events, and feeds them through the
// session inbox until the run reaches a terminal state.
package runner

import (
	"context"
	"io"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sentinelops/sentinel/internal/config"
	"github.com/sentinelops/sentinel/internal/events"
	"github.com/sentinelops/sentinel/internal/risk"
	"github.com/sentinelops/sentinel/internal/session"
	"github.com/sentinelops/sentinel/internal/stream"
)

// Callbacks observe one run. All hooks are optional and are invoked
// from the run's drain goroutine, in event order.
type Callbacks struct {
	OnLog    func(session.LogEntry)
	OnStatus func(session.Status)
	OnResult func(session.AuditResult)
}

// Runner executes agent sessions.
type Runner struct {
	cfg     *config.Config
	tracker *session.Tracker
	store   *session.Store // nil disables persistence
	pub     events.Publisher
	log     *zap.Logger
	client  *genai.Client // nil forces the offline script
}

// New assembles a runner. A nil publisher defaults to the no-op
// publisher and a nil logger to zap.NewNop.
func New(cfg *config.Config, tracker *session.Tracker, store *session.Store, pub events.Publisher, log *zap.Logger, client *genai.Client) *Runner {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		tracker: tracker,
		store:   store,
		pub:     pub,
		log:     log,
		client:  client,
	}
}

// Tracker exposes the session tracker for cancellation and inspection.
func (r *Runner) Tracker() *session.Tracker {
	return r.tracker
}

// Run deploys the agent for one control and blocks until the session is
// terminal. Cancelling ctx requests cooperative cancellation: the
// session ends CANCELLED and in-flight events are discarded. The
// returned session is a snapshot of the final state.
func (r *Runner) Run(ctx context.Context, rk risk.Risk, ctl risk.Control, cb Callbacks) (*session.Session, error) {
	sess, err := r.tracker.Start(rk.ID, ctl.ID)
	if err != nil {
		return nil, err
	}

	ctx, span := startRunSpan(ctx, sess.RunID, ctl)
	defer span.End()

	r.log.Info("session started",
		zap.String("run_id", sess.RunID),
		zap.String("risk_id", rk.ID),
		zap.String("control_id", ctl.ID),
		zap.String("capability", ctl.Capability.String()))

	var writer *session.Writer
	if r.store != nil {
		writer, err = r.store.Create(sess)
		if err != nil {
			// Persistence failure should not kill the run.
			r.log.Warn("session persistence disabled", zap.Error(err))
			writer = nil
		}
	}

	r.notifyStatus(ctl.ID, session.StatusPlanning, cb)

	inbox := session.NewInbox(r.tracker, ctl.ID, 16)
	inbox.OnApplied = func(ev session.RunEvent) {
		r.observe(ctl.ID, ev, writer, cb)
	}

	run := stream.RunContext{
		RiskTitle:       rk.Title,
		RiskDescription: rk.Description,
		RiskSeverity:    string(rk.Severity),
		ControlName:     ctl.Name,
		Capability:      ctl.Capability,
	}
	scriptCfg := stream.ScriptConfig{
		Delay:  r.cfg.FallbackDelay(),
		Jitter: r.cfg.FallbackJitter(),
	}

	fallback := func() stream.Source { return stream.Fallback(run, scriptCfg) }
	r.consume(ctx, stream.Open(r.client, r.cfg.LLM.Model, run, scriptCfg), fallback, inbox, ctl.ID)
	inbox.Close()

	final, _ := r.tracker.Get(ctl.ID)
	if writer != nil {
		if err := writer.Close(final.Status); err != nil {
			r.log.Warn("failed to finalize session file", zap.Error(err))
		}
	}
	r.notifyStatus(ctl.ID, final.Status, cb)
	endRunSpan(span, final.Status)

	r.log.Info("session finished",
		zap.String("run_id", final.RunID),
		zap.String("status", string(final.Status)))
	return final, nil
}

// consume pulls chunks until the stream ends. A live stream that cannot
// be established or dies mid-run is swapped for the deterministic
// fallback script once; if that also fails the run is failed. A stream
// that ends without a result event gets a synthetic one forced so the
// run always terminates.
func (r *Runner) consume(ctx context.Context, src stream.Source, fallback func() stream.Source, inbox *session.Inbox, controlID string) {
	sawResult := false
	fellBack := false
	for {
		chunk, err := src.Recv(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// Cooperative cancellation: stop consuming, drop the rest.
				r.tracker.Cancel(controlID)
				return
			}
			if !fellBack {
				fellBack = true
				r.log.Warn("live stream unavailable, switching to offline script",
					zap.String("control_id", controlID), zap.Error(err))
				src = fallback()
				continue
			}
			inbox.Post(session.RunFailed{Detail: "Agent connection terminated unexpectedly."})
			return
		}
		for _, ev := range stream.ParseChunk(chunk) {
			switch e := ev.(type) {
			case stream.LogEvent:
				inbox.Post(session.LogReceived{
					Entry: session.NewLogEntry(e.Action, e.Detail, e.Status),
				})
			case stream.ResultEvent:
				sawResult = true
				inbox.Post(session.ResultReceived{Result: session.AuditResult{
					Score:           e.Score,
					Effective:       e.Effective,
					Summary:         e.Summary,
					Gaps:            e.Gaps,
					Recommendations: e.Recommendations,
					Scenario:        e.Scenario,
				}})
			}
		}
	}

	if !sawResult {
		// The producer never concluded; force an outcome so no observer
		// waits on a run that will never complete.
		inbox.Post(session.ResultReceived{Result: session.AuditResult{
			Score:     0,
			Effective: false,
			Summary:   "The agent stream ended without a final verdict. Outcome synthesized to close the run; re-run the control for a definitive assessment.",
			Gaps:      []string{"Verification inconclusive: stream ended early"},
			Scenario:  "INCONCLUSIVE_STREAM",
		}})
	}
}

// observe fans one applied event out to persistence, the event bus, and
// the caller's hooks.
func (r *Runner) observe(controlID string, ev session.RunEvent, writer *session.Writer, cb Callbacks) {
	switch e := ev.(type) {
	case session.LogReceived:
		if writer != nil {
			if err := writer.AppendLog(e.Entry); err != nil {
				r.log.Warn("failed to persist log entry", zap.Error(err))
			}
		}
		if err := r.pub.PublishLog(controlID, e.Entry); err != nil {
			r.log.Warn("failed to publish log event", zap.Error(err))
		}
		if cb.OnLog != nil {
			cb.OnLog(e.Entry)
		}
	case session.ResultReceived:
		// Re-read the stored result: the tracker stamped duration and
		// froze the audit trail into it.
		sess, ok := r.tracker.Get(controlID)
		if !ok || sess.Result == nil {
			return
		}
		result := *sess.Result
		if writer != nil {
			if err := writer.AppendResult(result); err != nil {
				r.log.Warn("failed to persist result", zap.Error(err))
			}
		}
		if err := r.pub.PublishResult(controlID, result); err != nil {
			r.log.Warn("failed to publish result event", zap.Error(err))
		}
		if cb.OnResult != nil {
			cb.OnResult(result)
		}
	case session.RunFailed:
		sess, ok := r.tracker.Get(controlID)
		if !ok {
			return
		}
		if writer != nil && len(sess.Logs) > 0 {
			if err := writer.AppendLog(sess.Logs[len(sess.Logs)-1]); err != nil {
				r.log.Warn("failed to persist failure entry", zap.Error(err))
			}
		}
		if cb.OnLog != nil && len(sess.Logs) > 0 {
			cb.OnLog(sess.Logs[len(sess.Logs)-1])
		}
		r.notifyStatus(controlID, session.StatusFailed, cb)
	}
}

func (r *Runner) notifyStatus(controlID string, status session.Status, cb Callbacks) {
	if err := r.pub.PublishStatus(controlID, status); err != nil {
		r.log.Warn("failed to publish status", zap.Error(err))
	}
	if cb.OnStatus != nil {
		cb.OnStatus(status)
	}
}
