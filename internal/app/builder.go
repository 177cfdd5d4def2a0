package app

import (
	"context"
	"time"

	"sigflow/internal/backfill"
	"sigflow/internal/config"
	"sigflow/internal/ingest"
	"sigflow/internal/lifecycle"
	"sigflow/internal/logger"
	"sigflow/internal/pricefeed"
	"sigflow/internal/purge"
	"sigflow/internal/reconcile"
	"sigflow/internal/store/barstore"
	"sigflow/internal/store/gormstore"
	apihttp "sigflow/internal/transport/http/api"
)

func build(cfg *config.Config) (*App, error) {
	events, err := gormstore.NewEventStore(cfg.Storage.EventsPath)
	if err != nil {
		return nil, err
	}
	bars, err := barstore.Open(cfg.Storage.BarsPath)
	if err != nil {
		events.Close()
		return nil, err
	}

	trades := lifecycle.NewService(events,
		time.Duration(cfg.Reconcile.ReplayWindowSeconds)*time.Second,
		time.Duration(cfg.Reconcile.IdleWindowMinutes)*time.Minute)

	prices := pricefeed.NewBinance(pricefeed.Config{
		RESTBaseURL: cfg.PriceFeed.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.PriceFeed.TimeoutSeconds) * time.Second,
	})
	reconciler := reconcile.NewService(events, prices, reconcile.Config{
		Symbol:         cfg.PriceFeed.Symbol,
		IdleWindow:     time.Duration(cfg.Reconcile.IdleWindowMinutes) * time.Minute,
		PriceTimeout:   time.Duration(cfg.Reconcile.PriceTimeoutSeconds) * time.Second,
		StaleThreshold: time.Duration(cfg.Reconcile.StaleExitMinutes) * time.Minute,
	})
	purger := purge.NewRunner(events)
	loader := backfill.NewLoader(bars, cfg.Backfill.PriceFloor, cfg.Backfill.MaxJump)

	router := &apihttp.Router{
		Normalizer: ingest.Normalizer{Strict: cfg.Ingest.Strict},
		Events:     events,
		Trades:     trades,
		Purge:      purger,
		Reconcile:  reconciler,
		Backfill:   loader,
	}
	server, err := apihttp.NewServer(apihttp.ServerConfig{Addr: cfg.App.HTTPAddr, Router: router})
	if err != nil {
		events.Close()
		bars.Close()
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		events: events,
		bars:   bars,
		server: server,
	}
	if cfg.Reconcile.Enabled {
		a.sweepLoop = func(ctx context.Context) {
			report, err := reconciler.Sweep(ctx)
			if err != nil {
				logger.Errorf("reconcile sweep failed: %v", err)
				return
			}
			if report.Candidates > 0 {
				logger.Infof("reconcile sweep candidates=%d updated=%d skipped=%d",
					report.Candidates, report.Updated, report.Skipped)
			}
		}
	}
	if cfg.Purge.Enabled {
		a.purgeLoop = func(ctx context.Context) {
			if _, err := purger.Run(ctx); err != nil {
				logger.Errorf("scheduled purge failed: %v", err)
			}
		}
	}
	return a, nil
}
