package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/metrics"
)

// Job is one unit of scheduled work. Run must be safe to call repeatedly:
// every job is a sweep that re-checks its own preconditions.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// locker is the slice of the redis client the runner needs for mutual
// exclusion across worker replicas.
type locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope string) string
}

// Runner executes registered jobs on a fixed interval, one replica at a time
// per job.
type Runner struct {
	jobs     []Job
	lock     locker
	log      *logger.Logger
	met      *metrics.CronJobMetrics
	interval time.Duration
	lockTTL  time.Duration
}

// NewRunner builds a runner. metrics may be nil.
func NewRunner(
	lock locker,
	log *logger.Logger,
	met *metrics.CronJobMetrics,
	interval, lockTTL time.Duration,
) (*Runner, error) {
	if lock == nil {
		return nil, fmt.Errorf("locker required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if lockTTL <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	return &Runner{
		lock:     lock,
		log:      log,
		met:      met,
		interval: interval,
		lockTTL:  lockTTL,
	}, nil
}

// Register adds a job to the schedule.
func (r *Runner) Register(jobs ...Job) {
	r.jobs = append(r.jobs, jobs...)
}

// Start runs every job once immediately, then on each interval tick, until
// the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info(ctx, "cron runner stopping")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes each registered job behind its distributed lock.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, job := range r.jobs {
		r.runJob(ctx, job)
	}
}

func (r *Runner) runJob(ctx context.Context, job Job) {
	jobCtx := r.log.WithField(ctx, "job", job.Name())

	key := r.lock.LockKey(job.Name())
	acquired, err := r.lock.SetNX(jobCtx, key, time.Now().UTC().Format(time.RFC3339), r.lockTTL)
	if err != nil {
		r.log.Error(jobCtx, "acquire job lock", err)
		r.met.IncFailure(job.Name())
		return
	}
	if !acquired {
		r.log.Info(jobCtx, "job lock held elsewhere, skipping")
		return
	}
	defer func() {
		if err := r.lock.Del(jobCtx, key); err != nil {
			r.log.Error(jobCtx, "release job lock", err)
		}
	}()

	started := time.Now()
	err = job.Run(jobCtx)
	r.met.ObserveDuration(job.Name(), time.Since(started))
	if err != nil {
		r.met.IncFailure(job.Name())
		r.log.Error(jobCtx, "job failed", err)
		return
	}
	r.met.IncSuccess(job.Name())
	r.log.Info(jobCtx, "job completed")
}
