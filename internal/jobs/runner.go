// Package jobs runs enrichment work in the background. The request
// path only enqueues; every failure is handled at the job boundary so
// nothing escapes as an unhandled panic or a silently dropped error.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes named jobs on a bounded pool of goroutines. Jobs are
// independent: one job's failure never cancels another, it is logged
// and the job's own entity carries the error status.
type Runner struct {
	ctx   context.Context
	group *errgroup.Group
}

// NewRunner creates a Runner. Jobs receive ctx, which outlives the
// request that enqueued them; maxConcurrent <= 0 means unbounded.
func NewRunner(ctx context.Context, maxConcurrent int) *Runner {
	g := new(errgroup.Group)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	return &Runner{ctx: ctx, group: g}
}

// Submit schedules fn and returns immediately. Panics are recovered
// and logged so one bad job cannot take the process down.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.group.Go(func() error {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("job panicked",
					zap.String("job", name),
					zap.Any("panic", rec))
			}
		}()

		if err := fn(r.ctx); err != nil {
			zap.L().Warn("job failed",
				zap.String("job", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return nil
		}
		zap.L().Debug("job finished",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)))
		return nil
	})
}

// Wait blocks until every submitted job has finished. Used on shutdown
// and by tests.
func (r *Runner) Wait() {
	_ = r.group.Wait()
}
