package config

import (
	"fmt"
	"strings"

	"sigflow/internal/market"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Reconcile.validate(); err != nil {
		return err
	}
	if err := c.Backfill.validate(); err != nil {
		return err
	}
	return c.PriceFeed.validate()
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level unsupported: %s", a.LogLevel)
	}
	if !strings.Contains(a.HTTPAddr, ":") {
		return fmt.Errorf("app.http_addr must contain a port: %s", a.HTTPAddr)
	}
	return nil
}

func (r *ReconcileConfig) validate() error {
	if r.StaleExitMinutes < r.IdleWindowMinutes {
		return fmt.Errorf("reconcile.stale_exit_minutes (%d) must not be below the idle window (%d)",
			r.StaleExitMinutes, r.IdleWindowMinutes)
	}
	return nil
}

func (b *BackfillConfig) validate() error {
	if b.PriceFloor < 0 {
		return fmt.Errorf("backfill.price_floor must be >= 0")
	}
	if b.MaxJump <= 0 {
		return fmt.Errorf("backfill.max_jump must be > 0")
	}
	return nil
}

func (p *PriceFeedConfig) validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("pricefeed.symbol is required")
	}
	if !market.ValidSymbol(p.Symbol) {
		return fmt.Errorf("pricefeed.symbol is not a recognizable pair: %s", p.Symbol)
	}
	return nil
}
