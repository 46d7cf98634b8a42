// Package middleware provides the Fiber middlewares of the HTTP server.
//
// Each middleware declares a priority that fixes its position in the chain:
//
//   - Recovery (1000): last-resort panic catcher for the whole chain
//   - Tracing (900): starts a server span per request
//   - MetaInject (700): puts request metadata into the request context
//   - Logger (500): logs every request with a status-dependent level
//   - ErrorHandler (400): turns handler errors and panics into JSON responses
//
// Timeout is not part of the chain. It is attached to individual routes because
// upload and stream routes must not be bounded by a handling deadline.
package middleware

import (
	"runtime"

	"github.com/code19m/errx"
)

const (
	priorityRecovery     = 1000
	priorityTracing      = 900
	priorityMetaInject   = 700
	priorityLogger       = 500
	priorityErrorHandler = 400

	stackTraceSize = 4096
)

func panicError(msg string, r any) error {
	stack := make([]byte, stackTraceSize)
	stack = stack[:runtime.Stack(stack, false)]

	return errx.New(msg, errx.WithDetails(errx.D{
		"stack_trace":   string(stack),
		"panic_message": r,
	}))
}
