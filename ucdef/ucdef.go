// Package ucdef defines the shapes of the service's use cases.
package ucdef

import "context"

// Use case types.
const (
	TypeUserAction   = "user_action"
	TypeScheduledJob = "scheduled_job"
)

// UserAction is a synchronous operation triggered by a client request. The caller
// waits for its result and errors are returned to the client as responses.
//
// Examples: UploadVideo, DeleteVideo, CleanupOrphans.
type UserAction[I, O any] interface {
	// OperationID returns a unique identifier for the use case.
	OperationID() string

	// Execute executes the use case.
	Execute(ctx context.Context, in I) (O, error)
}

// ScheduledJob is a time-triggered operation. It takes no input, fetches what it
// needs from its dependencies and must be safe to run repeatedly.
//
// Examples: ReconcileStorage.
type ScheduledJob interface {
	// OperationID returns a unique identifier for the use case.
	OperationID() string

	// Execute executes the scheduled job.
	Execute(ctx context.Context) error
}
