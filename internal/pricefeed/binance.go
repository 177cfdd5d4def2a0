// Package pricefeed provides the external real-time price collaborator used
// by the orphan reconciliation sweep.
package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"sigflow/internal/market"
)

// Source answers the current market price for a symbol. Implementations must
// respect ctx deadlines: reconciliation never waits past its budget.
type Source interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// Config for the binance-backed source.
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

// Binance implements Source on the go-binance futures SDK.
type Binance struct {
	client *futures.Client
}

var _ Source = (*Binance)(nil)

func NewBinance(cfg Config) *Binance {
	client := futures.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Binance{client: client}
}

func (b *Binance) LastPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = market.ExchangeSymbol(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		val, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("unparsable price %q for %s: %w", p.Price, symbol, err)
		}
		return val, nil
	}
	return 0, fmt.Errorf("no price returned for %s", symbol)
}
