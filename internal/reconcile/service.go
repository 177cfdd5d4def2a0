// Package reconcile keeps excursion figures meaningful for trades the
// upstream source has stopped reporting on, without ever fabricating exits.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sigflow/internal/lifecycle"
	"sigflow/internal/logger"
	"sigflow/internal/pricefeed"
	"sigflow/internal/signal"
	"sigflow/internal/store"
)

// ErrConfirmationRequired guards the destructive stale cleanup: it is an
// operator action, never an automatic inference.
var ErrConfirmationRequired = errors.New("stale trade cleanup requires explicit confirmation")

// Config carries the sweep tuning.
type Config struct {
	// Symbol is the instrument quoted for synthetic excursions.
	Symbol string
	// IdleWindow is how long a trade may go without updates before the sweep
	// considers it orphaned.
	IdleWindow time.Duration
	// PriceTimeout bounds each price fetch; timeout means skip, never a
	// partial write.
	PriceTimeout time.Duration
	// StaleThreshold is the minimum idle age for the operator-confirmed
	// forced exit.
	StaleThreshold time.Duration
}

// Service runs the periodic orphan sweep and the manual stale cleanup.
type Service struct {
	events store.EventStore
	prices pricefeed.Source
	cfg    Config
	now    func() time.Time
}

func NewService(events store.EventStore, prices pricefeed.Source, cfg Config) *Service {
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = 10 * time.Minute
	}
	if cfg.PriceTimeout <= 0 {
		cfg.PriceTimeout = 5 * time.Second
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 2 * time.Hour
	}
	return &Service{events: events, prices: prices, cfg: cfg, now: time.Now}
}

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Candidates int `json:"candidates"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
}

// Sweep finds orphaned trades and appends a synthetic, reconciled-tagged
// MFE_UPDATE for each. Price failures skip the trade for this cycle; the next
// sweep retries. Exits are never synthesized here.
func (s *Service) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	if s == nil || s.events == nil || s.prices == nil {
		return report, fmt.Errorf("reconcile service not initialized")
	}
	now := s.now()
	activity, err := s.events.ListTradeActivity(ctx, store.TradeFilter{})
	if err != nil {
		return report, err
	}
	for _, act := range activity {
		if !act.HasEntry || act.HasStopOut {
			continue
		}
		if now.Sub(lastHeardFrom(act)) <= s.cfg.IdleWindow {
			continue
		}
		report.Candidates++
		if err := s.reconcileTrade(ctx, act.TradeID, now); err != nil {
			logger.Warnf("reconcile: skipping trade=%s this cycle: %v", act.TradeID, err)
			report.Skipped++
			continue
		}
		report.Updated++
	}
	return report, nil
}

// lastHeardFrom is when the upstream last spoke about a trade. Synthetic
// sweep updates never count, so a reconciled trade stays a candidate and
// keeps aging toward the stale threshold.
func lastHeardFrom(act store.TradeActivity) time.Time {
	if !act.LastSourceEvent.IsZero() {
		return act.LastSourceEvent
	}
	return act.LastEvent
}

func (s *Service) reconcileTrade(ctx context.Context, tradeID string, now time.Time) error {
	events, err := s.events.EventsByTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	trade, err := lifecycle.Derive(events, lifecycle.DeriveOptions{})
	if err != nil {
		return err
	}
	if trade.MissingEntry || trade.RiskDistance <= 0 {
		return fmt.Errorf("entry snapshot unusable (missing_entry=%v risk=%v)", trade.MissingEntry, trade.RiskDistance)
	}

	priceCtx, cancel := context.WithTimeout(ctx, s.cfg.PriceTimeout)
	price, err := s.prices.LastPrice(priceCtx, s.cfg.Symbol)
	cancel()
	if err != nil {
		return fmt.Errorf("price fetch failed: %w", err)
	}

	mfe := syntheticMFE(trade.Direction, price, trade.EntryPrice, trade.RiskDistance)
	ev := signal.Event{
		ID:           uuid.NewString(),
		TradeID:      tradeID,
		Type:         signal.EventMFEUpdate,
		Timestamp:    now,
		Direction:    trade.Direction,
		EntryPrice:   trade.EntryPrice,
		StopLoss:     trade.StopLoss,
		RiskDistance: trade.RiskDistance,
		CurrentPrice: price,
		BEMFE:        mfe,
		NoBEMFE:      mfe,
		MAER:         trade.MAER,
		Session:      trade.Session,
		Source:       signal.SourceReconciled,
	}
	// A breakeven exit retires only the BE sub-strategy; its last real figure
	// stays frozen while No-BE keeps moving.
	if trade.FinalEvent == signal.EventExitBE {
		ev.BEMFE = trade.BEMFE
	}
	return s.events.AppendEvent(ctx, ev)
}

// syntheticMFE computes max(0, sign(direction) * (price - entry) / risk) with
// decimal arithmetic so near-zero excursions don't flap on float noise.
func syntheticMFE(dir signal.Direction, price, entry, risk float64) float64 {
	if risk <= 0 {
		return 0
	}
	move := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(entry))
	if dir.Sign() < 0 {
		move = move.Neg()
	}
	mfe := move.Div(decimal.NewFromFloat(risk))
	if mfe.IsNegative() {
		return 0
	}
	out, _ := mfe.Round(4).Float64()
	return out
}
