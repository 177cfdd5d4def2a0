package backfill

import (
	"context"
	"fmt"

	"sigflow/internal/logger"
	"sigflow/internal/market"
	"sigflow/internal/store"
)

// Report is the per-run counter surfaced to the operator. Rejections never
// abort a run; they are counted and reported.
type Report struct {
	Symbol        string         `json:"symbol"`
	Accepted      int            `json:"accepted"`
	Rejected      int            `json:"rejected"`
	Reasons       map[Reason]int `json:"reasons,omitempty"`
	PrevGoodClose float64        `json:"prev_good_close,omitempty"`
}

// Loader commits hygiene-accepted bars from one stream into the bar store.
type Loader struct {
	bars       store.BarStore
	priceFloor float64
	maxJump    float64
}

func NewLoader(bars store.BarStore, priceFloor, maxJump float64) *Loader {
	return &Loader{bars: bars, priceFloor: priceFloor, maxJump: maxJump}
}

// Run streams bars (time-ordered, one symbol) through a fresh gate. Strictly
// sequential within the call; callers wanting cross-symbol parallelism run
// one Run per symbol.
func (l *Loader) Run(ctx context.Context, symbol string, bars []market.Bar) (Report, error) {
	report := Report{Symbol: market.ExchangeSymbol(symbol), Reasons: map[Reason]int{}}
	if l == nil || l.bars == nil {
		return report, fmt.Errorf("backfill loader not initialized")
	}
	if report.Symbol == "" {
		return report, fmt.Errorf("unrecognized symbol %q", symbol)
	}
	gate := NewGate(l.priceFloor, l.maxJump)
	for _, bar := range bars {
		reason, ok := gate.Check(bar)
		if !ok {
			report.Rejected++
			report.Reasons[reason]++
			continue
		}
		if err := l.bars.InsertBar(ctx, report.Symbol, bar); err != nil {
			return report, fmt.Errorf("bar insert failed at ts=%s: %w", bar.TS, err)
		}
		report.Accepted++
	}
	if close, ok := gate.PrevGoodClose(); ok {
		report.PrevGoodClose = close
	}
	logger.Infof("backfill: symbol=%s accepted=%d rejected=%d", report.Symbol, report.Accepted, report.Rejected)
	return report, nil
}
