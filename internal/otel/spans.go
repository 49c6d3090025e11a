package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Standard attribute keys for missionctl spans.
var (
	AttrEndpoint  = attribute.Key("missionctl.backend.endpoint")
	AttrIntent    = attribute.Key("missionctl.intent.kind")
	AttrToolName  = attribute.Key("missionctl.action.tool")
	AttrActionID  = attribute.Key("missionctl.action.id")
	AttrSessionID = attribute.Key("missionctl.chat.session_id")
	AttrTrigger   = attribute.Key("missionctl.scan.trigger")
)

// StartSpan starts an internal span with common attributes.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartClientSpan starts a span for an outbound backend call.
func StartClientSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}
