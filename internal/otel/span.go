// Package otel provides tracing helpers shared by the fetcher and the sync orchestrator.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync and fetch spans
const (
	AttrRunID       = attribute.Key("sync.run_id")
	AttrSyncMode    = attribute.Key("sync.mode")
	AttrLeague      = attribute.Key("pricing.league")
	AttrCategory    = attribute.Key("pricing.category")
	AttrPage        = attribute.Key("pagination.page")
	AttrResultCount = attribute.Key("result.count")
)

// StartSpan starts a span on tracer, or returns the context's current span when tracer is nil
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. Nil span or nil err is a no-op.
// The status description stays generic; details travel in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
