package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
)

// NewErrorHandlerMW converts errors and panics of the handlers below it into JSON
// error responses. Responses a handler already wrote with an error status are kept.
func NewErrorHandlerMW(hideDetails bool) server.Middleware {
	return server.Middleware{
		Priority: priorityErrorHandler,
		Handler: func(c *fiber.Ctx) error {
			err := nextWithRecovery(c)
			if err == nil {
				return nil
			}
			if c.Response().StatusCode() >= fiber.StatusBadRequest {
				return err
			}
			return server.WriteErrorResponse(c, err, hideDetails)
		},
	}
}

func nextWithRecovery(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError("panic recovered at error handler middleware", r)
		}
	}()
	return c.Next()
}
