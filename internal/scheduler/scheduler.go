// Package scheduler runs the background sweeps (reconciliation, purge) on
// fixed intervals, decoupled from ingestion.
package scheduler

import (
	"context"
	"time"

	"sigflow/internal/logger"
)

// Loop invokes a task every Interval until the context is cancelled. Tasks
// run sequentially within one loop; a slow pass delays the next tick rather
// than overlapping it.
type Loop struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool
}

// Start blocks until ctx is done. Task panics are not recovered: background
// sweeps must fail loudly, not silently stop.
func (l Loop) Start(ctx context.Context, task func(context.Context)) {
	if task == nil {
		logger.Warnf("scheduler[%s]: task is nil, exit", l.Name)
		return
	}
	if l.Interval <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, exit", l.Name, l.Interval)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Infof("scheduler[%s]: started interval=%s run_immediately=%v", l.Name, l.Interval, l.RunImmediately)
	if l.RunImmediately {
		task(ctx)
	}
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler[%s]: ctx done, exit", l.Name)
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}
