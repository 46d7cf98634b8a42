package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/vidstream/http/server"
	"github.com/rise-and-shine/vidstream/observability/logger"
)

// NewRecoveryMW recovers from panics anywhere in the middleware chain and turns them
// into errors for the server's error handler.
func NewRecoveryMW(log logger.Logger) server.Middleware {
	return server.Middleware{
		Priority: priorityRecovery,
		Handler: func(c *fiber.Ctx) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicError("panic recovered at recovery middleware", r)
					log.Named("middleware.recovery").WithContext(c.UserContext()).Errorx(err)
				}
			}()
			return c.Next()
		},
	}
}
