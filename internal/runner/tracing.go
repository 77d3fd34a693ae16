// Tracing instrumentation for the runner.
package runner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sentinelops/sentinel/internal/risk"
	"github.com/sentinelops/sentinel/internal/session"
)

// startRunSpan starts a span covering one agent session.
func startRunSpan(ctx context.Context, runID string, ctl risk.Control) (context.Context, trace.Span) {
	tracer := otel.Tracer("sentinel/runner")
	ctx, span := tracer.Start(ctx, "session.run")
	span.SetAttributes(
		attribute.String("session.run_id", runID),
		attribute.String("session.control_id", ctl.ID),
		attribute.String("session.capability", ctl.Capability.String()),
	)
	return ctx, span
}

// endRunSpan records the terminal status on the span.
func endRunSpan(span trace.Span, status session.Status) {
	span.SetAttributes(attribute.String("session.status", string(status)))
}
