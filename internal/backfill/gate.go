// Package backfill streams historical bars through a data-hygiene gate
// before they reach long-term storage. Independent of the signal pipeline;
// shares its accept/reject-with-carried-state design.
package backfill

import (
	"math"

	"github.com/shopspring/decimal"

	"sigflow/internal/market"
)

// Reason codes a rejected bar.
type Reason string

const (
	// RejectPriceFloor: one of open/high/low/close sits below the
	// instrument's sanity floor, the signature of decimal-shift corruption.
	// Checked first so a shifted bar is reported as corruption rather than
	// as the OHLC inconsistency it usually also causes.
	RejectPriceFloor Reason = "price_floor"
	// RejectIntegrity: high/low do not bound open/close.
	RejectIntegrity Reason = "ohlc_integrity"
	// RejectDiscontinuity: close jumped too far from the last good close.
	RejectDiscontinuity Reason = "discontinuity"
)

// Gate filters one time-ordered bar stream. It carries a single piece of
// state, the last accepted close, which only advances on acceptance. Use one
// Gate per stream; streams may run in parallel, a stream may not.
type Gate struct {
	floor   decimal.Decimal
	maxJump decimal.Decimal

	prevGoodClose decimal.Decimal
	hasPrev       bool
}

func NewGate(priceFloor, maxJump float64) *Gate {
	return &Gate{
		floor:   decimal.NewFromFloat(priceFloor),
		maxJump: decimal.NewFromFloat(maxJump),
	}
}

// Check classifies one bar without touching storage. On acceptance the
// carried close advances; on rejection it does not.
func (g *Gate) Check(bar market.Bar) (Reason, bool) {
	if reason, ok := g.classify(bar); !ok {
		return reason, false
	}
	g.prevGoodClose = decimal.NewFromFloat(bar.Close)
	g.hasPrev = true
	return "", true
}

func (g *Gate) classify(bar market.Bar) (Reason, bool) {
	if !validNumbers(bar) {
		return RejectIntegrity, false
	}
	open := decimal.NewFromFloat(bar.Open)
	high := decimal.NewFromFloat(bar.High)
	low := decimal.NewFromFloat(bar.Low)
	clos := decimal.NewFromFloat(bar.Close)

	for _, p := range []decimal.Decimal{open, high, low, clos} {
		if p.LessThan(g.floor) {
			return RejectPriceFloor, false
		}
	}
	if high.LessThan(decimal.Max(open, clos)) ||
		low.GreaterThan(decimal.Min(open, clos)) ||
		high.LessThan(low) {
		return RejectIntegrity, false
	}
	if g.hasPrev {
		if clos.Sub(g.prevGoodClose).Abs().GreaterThan(g.maxJump) {
			return RejectDiscontinuity, false
		}
	}
	return "", true
}

// PrevGoodClose exposes the carried state for run reports.
func (g *Gate) PrevGoodClose() (float64, bool) {
	if !g.hasPrev {
		return 0, false
	}
	val, _ := g.prevGoodClose.Float64()
	return val, true
}

func validNumbers(bar market.Bar) bool {
	for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
