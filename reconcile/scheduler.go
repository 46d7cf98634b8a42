package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/rise-and-shine/vidstream/meta"
	"github.com/rise-and-shine/vidstream/observability/logger"
	"github.com/rise-and-shine/vidstream/ucdef"
	"github.com/robfig/cron/v3"
)

const (
	defaultTickInterval = time.Second
	stopTimeout         = 10 * time.Second
)

// Scheduler runs scheduled jobs on cron patterns. Standard five-field patterns and
// descriptors such as "@every 15m" or "@hourly" are accepted. A job is never run
// concurrently with itself; a tick that finds it still running is skipped.
type Scheduler struct {
	parser  cron.Parser
	tick    time.Duration
	timeout time.Duration
	log     logger.Logger

	mu   sync.Mutex
	jobs []*scheduledJob

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	wg        sync.WaitGroup
}

type scheduledJob struct {
	job      ucdef.ScheduledJob
	pattern  string
	schedule cron.Schedule
	nextRun  time.Time
	running  atomic.Bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often due jobs are looked for.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithJobTimeout bounds a single job run. Zero means no bound.
func WithJobTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.timeout = d }
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		parser: cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
		tick:      defaultTickInterval,
		log:       logger.Named("reconcile.scheduler"),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers job under the cron pattern.
func (s *Scheduler) Add(pattern string, job ucdef.ScheduledJob) error {
	schedule, err := s.parser.Parse(pattern)
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"cron_pattern": pattern,
			"operation_id": job.OperationID(),
		}))
	}

	sj := &scheduledJob{
		job:      job,
		pattern:  pattern,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, sj)
	s.mu.Unlock()

	s.log.With(
		"operation_id", job.OperationID(),
		"cron_pattern", pattern,
		"next_run", sj.nextRun,
	).Info("job scheduled")
	return nil
}

// Start runs the scheduling loop until ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errx.New("[reconcile.scheduler]: already started")
	}
	s.log.Info("scheduler starting")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer close(s.stoppedCh)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil
		case <-s.stopCh:
			s.wg.Wait()
			return nil
		case now := <-ticker.C:
			s.runDue(ctx, now)
		}
	}
}

// Stop ends the scheduling loop and waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.log.Info("scheduler stopping")
	s.stopOnce.Do(func() { close(s.stopCh) })
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.stoppedCh:
		return nil
	case <-time.After(stopTimeout):
		return errx.New("[reconcile.scheduler]: shutdown timeout exceeded")
	}
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sj := range s.jobs {
		if now.Before(sj.nextRun) {
			continue
		}
		sj.nextRun = sj.schedule.Next(now)

		if !sj.running.CompareAndSwap(false, true) {
			s.log.With("operation_id", sj.job.OperationID()).Warn("previous run still in progress, skipping")
			continue
		}

		s.wg.Add(1)
		go s.run(ctx, sj)
	}
}

func (s *Scheduler) run(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()
	defer sj.running.Store(false)

	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.TraceID: uuid.NewString(),
	})
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.WithContext(ctx).With("operation_id", sj.job.OperationID())
	defer func() {
		if r := recover(); r != nil {
			log.Errorx(errx.New("[reconcile.scheduler]: job panicked", errx.WithDetails(errx.D{"panic": r})))
		}
	}()

	start := time.Now()
	err := sj.job.Execute(ctx)
	if err != nil {
		log.Errorx(err)
		return
	}
	log.With("duration", time.Since(start).Round(time.Millisecond)).Debug("job finished")
}
