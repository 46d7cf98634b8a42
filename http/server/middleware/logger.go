package middleware

import (
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/observability/logger"
)

// NewLoggerMW logs each request after it was handled: info for 2xx and 3xx, warn
// for 4xx and error for 5xx responses.
func NewLoggerMW(log logger.Logger) server.Middleware {
	log = log.Named("middleware.logger")

	return server.Middleware{
		Priority: priorityLogger,
		Handler: func(c *fiber.Ctx) error {
			start := time.Now()

			err := c.Next()

			status := c.Response().StatusCode()
			entry := log.WithContext(c.UserContext()).With(
				"http_status_code", status,
				"http_method", c.Method(),
				"http_path", c.Path(),
				"http_route", c.Route().Path,
				"duration", time.Since(start),
				"request_size", c.Request().Header.ContentLength(),
			)

			if err != nil {
				e := errx.AsErrorX(err)
				entry = entry.With("error", map[string]any{
					"code":    e.Code(),
					"message": e.Error(),
					"type":    e.Type().String(),
					"trace":   e.Trace(),
					"details": e.Details(),
				})
			}

			switch {
			case status >= fiber.StatusInternalServerError:
				entry.Error("request failed")
			case status >= fiber.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request processed")
			}
			return err
		},
	}
}
