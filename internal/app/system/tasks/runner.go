// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a named background task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner executes jobs until its context is cancelled. Each job gets its own
// goroutine and ticker; a failing job logs and waits for the next tick rather
// than stopping.
type Runner struct {
	jobs []Job
	log  *zap.Logger
}

// NewRunner builds a Runner for the given jobs.
func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	return &Runner{jobs: jobs, log: logger}
}

// Start launches all jobs. It returns immediately; cancel ctx to stop them.
func (r *Runner) Start(ctx context.Context) {
	for _, job := range r.jobs {
		go r.loop(ctx, job)
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	r.log.Info("background job started",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("background job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("background job failed",
					zap.String("job", job.Name),
					zap.Error(err))
			}
		}
	}
}
