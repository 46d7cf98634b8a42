package reconcile

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/vidstream/ucdef"
)

// JobOperationID identifies the scheduled reconciliation.
const JobOperationID = "reconcile-storage"

var _ ucdef.ScheduledJob = (*Job)(nil)

// Job runs a full reconciliation: orphaned records first, then stray blobs.
type Job struct {
	engine *Engine
	grace  time.Duration
}

// NewJob creates the scheduled reconciliation job. Stray blobs younger than grace
// are kept.
func NewJob(engine *Engine, grace time.Duration) *Job {
	return &Job{engine: engine, grace: grace}
}

func (j *Job) OperationID() string { return JobOperationID }

func (j *Job) Execute(ctx context.Context) error {
	records, err := j.engine.Cleanup(ctx)
	if err != nil {
		return errx.Wrap(err)
	}

	blobs, err := j.engine.SweepStrayBlobs(ctx, j.grace)
	if err != nil {
		return errx.Wrap(err)
	}

	j.engine.log.WithContext(ctx).
		With("records_deleted", records, "blobs_deleted", blobs).
		Info("scheduled reconciliation finished")
	return nil
}
