package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "http-server"

// NewTracingMW starts a server span per request. The span is named after the
// matched route once the handler has run.
func NewTracingMW() server.Middleware {
	return server.Middleware{
		Priority: priorityTracing,
		Handler: func(c *fiber.Ctx) error {
			ctx, span := otel.Tracer(tracerName).Start(
				c.UserContext(),
				c.Method()+" /",
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			c.SetUserContext(ctx)

			err := c.Next()

			route := c.Route().Path
			if route != "" && route != "/" {
				span.SetName(c.Method() + " " + route)
			}
			span.SetAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("http.route", route),
				attribute.String("url.path", c.Path()),
				attribute.Int("http.response.status_code", c.Response().StatusCode()),
			)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		},
	}
}
