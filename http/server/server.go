// Package server provides a configurable HTTP server based on the Fiber framework.
package server

import (
	"context"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

// HTTPServer is a Fiber application with prioritized middleware and JSON error responses.
type HTTPServer struct {
	cfg    Config
	router *fiber.App
}

// NewHTTPServer creates an HTTPServer and applies middlewares in order of
// descending priority.
func NewHTTPServer(cfg Config, middlewares []Middleware) *HTTPServer {
	router := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          customErrorHandler(cfg.HideErrorDetails),
		DisableStartupMessage: true,
		Immutable:             true,
		BodyLimit:             cfg.BodyLimit,
		StreamRequestBody:     true,
	})

	applyMiddlewares(router, middlewares)

	return &HTTPServer{cfg: cfg, router: router}
}

// RegisterRouter registers routes through registerFunc.
func (s *HTTPServer) RegisterRouter(registerFunc func(r fiber.Router)) {
	registerFunc(s.router)
}

// App exposes the underlying Fiber application, e.g. for app.Test in tests.
func (s *HTTPServer) App() *fiber.App {
	return s.router
}

// Start listens on the configured address. It blocks until the server stops.
func (s *HTTPServer) Start() error {
	err := s.router.Listen(s.cfg.Address())
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

// Stop stops accepting connections and waits for in-flight requests until ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	err := s.router.ShutdownWithContext(ctx)
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}
