package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// manualPrefix marks trace ids generated without an active span.
const manualPrefix = "man-"

// GetStartingTraceID returns the trace id of the span in ctx. Without a valid span,
// for example when tracing is disabled, a random id is generated so logs can still
// be correlated.
func GetStartingTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if traceID.IsValid() {
		return traceID.String()
	}
	return manualPrefix + uuid.NewString()
}
