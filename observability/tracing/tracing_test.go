package tracing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rise-and-shine/vidstream/observability/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestGetStartingTraceID(t *testing.T) {
	t.Run("no span", func(t *testing.T) {
		id := tracing.GetStartingTraceID(context.Background())
		assert.True(t, strings.HasPrefix(id, "man-"), id)
		assert.NotEqual(t, id, tracing.GetStartingTraceID(context.Background()))
	})

	t.Run("recording span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		assert.Equal(t, span.SpanContext().TraceID().String(), tracing.GetStartingTraceID(ctx))
	})
}

func TestInitGlobalTracer_Disabled(t *testing.T) {
	shutdown, err := tracing.InitGlobalTracer(context.Background(), tracing.Config{Disable: true})
	require.NoError(t, err)
	require.NoError(t, shutdown())
}
