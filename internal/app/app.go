// Package app wires configuration into running services: the HTTP server and
// the background reconciliation/purge loops.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sigflow/internal/config"
	"sigflow/internal/logger"
	"sigflow/internal/scheduler"
	"sigflow/internal/store"
	apihttp "sigflow/internal/transport/http/api"
)

// App owns every long-lived component.
type App struct {
	cfg       *config.Config
	events    store.EventStore
	bars      store.BarStore
	server    *apihttp.Server
	purgeLoop func(context.Context)
	sweepLoop func(context.Context)
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run starts the HTTP server and the background loops, blocking until ctx is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.sweepLoop != nil {
		interval := time.Duration(a.cfg.Reconcile.SweepIntervalSeconds) * time.Second
		group.Go(func() error {
			scheduler.Loop{Name: "reconcile", Interval: interval}.Start(ctx, a.sweepLoop)
			return nil
		})
	}
	if a.purgeLoop != nil {
		interval := time.Duration(a.cfg.Purge.IntervalMinutes) * time.Minute
		group.Go(func() error {
			scheduler.Loop{Name: "purge", Interval: interval, RunImmediately: true}.Start(ctx, a.purgeLoop)
			return nil
		})
	}
	logger.Infof("sigflow started addr=%s env=%s", a.server.Addr(), a.cfg.App.Env)
	return group.Wait()
}

func (a *App) close() {
	if a.events != nil {
		_ = a.events.Close()
	}
	if a.bars != nil {
		_ = a.bars.Close()
	}
}
