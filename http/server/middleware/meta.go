package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/meta"
	"github.com/rise-and-shine/vidstream/observability/tracing"
)

// HeaderTraceID carries the request's trace id back to the client.
const HeaderTraceID = "X-Trace-ID"

// NewMetaInjectMW collects request metadata into the request context and returns
// the trace id to the client.
func NewMetaInjectMW(serviceName, serviceVersion string) server.Middleware {
	return server.Middleware{
		Priority: priorityMetaInject,
		Handler: func(c *fiber.Ctx) error {
			traceID := tracing.GetStartingTraceID(c.UserContext())

			ctx := meta.InjectMetaToContext(c.UserContext(), map[meta.ContextKey]string{
				meta.TraceID:        traceID,
				meta.IPAddress:      c.IP(),
				meta.UserAgent:      c.Get(fiber.HeaderUserAgent),
				meta.RemoteAddr:     c.Context().RemoteAddr().String(),
				meta.Referer:        c.Get(fiber.HeaderReferer),
				meta.ServiceName:    serviceName,
				meta.ServiceVersion: serviceVersion,
			})
			c.SetUserContext(ctx)
			c.Set(HeaderTraceID, traceID)

			return c.Next()
		},
	}
}
