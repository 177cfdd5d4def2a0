package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sigflow/internal/store"
)

// Service is the query layer dashboards consume. It owns the derive options
// so callers can never reimplement (and get wrong) the completion semantics.
type Service struct {
	events       store.EventStore
	replayWindow time.Duration
	idleWindow   time.Duration
}

func NewService(events store.EventStore, replayWindow, idleWindow time.Duration) *Service {
	return &Service{events: events, replayWindow: replayWindow, idleWindow: idleWindow}
}

// DeriveTrade folds the stored event sequence for one identity.
func (s *Service) DeriveTrade(ctx context.Context, tradeID string) (Trade, error) {
	if s == nil || s.events == nil {
		return Trade{}, fmt.Errorf("lifecycle service not initialized")
	}
	events, err := s.events.EventsByTrade(ctx, tradeID)
	if err != nil {
		return Trade{}, err
	}
	return Derive(events, s.deriveOptions())
}

// ListRequest filters the trade listing. Status narrows by derived status;
// From/To bound the first-event date.
type ListRequest struct {
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
}

// ListTrades derives every trade in range and filters by status afterwards,
// so the asymmetric completion rule is applied in exactly one place.
func (s *Service) ListTrades(ctx context.Context, req ListRequest) ([]Trade, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("lifecycle service not initialized")
	}
	if req.Status != "" && req.Status != StatusActive && req.Status != StatusCompleted {
		return nil, fmt.Errorf("unknown status filter %q", req.Status)
	}
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	activity, err := s.events.ListTradeActivity(ctx, store.TradeFilter{From: req.From, To: req.To})
	if err != nil {
		return nil, err
	}
	out := make([]Trade, 0, len(activity))
	for _, act := range activity {
		if strings.TrimSpace(act.TradeID) == "" {
			continue
		}
		events, err := s.events.EventsByTrade(ctx, act.TradeID)
		if err != nil {
			return nil, err
		}
		trade, err := Derive(events, s.deriveOptions())
		if err != nil {
			continue
		}
		if req.Status != "" && trade.Status != req.Status {
			continue
		}
		out = append(out, trade)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Service) deriveOptions() DeriveOptions {
	return DeriveOptions{ReplayWindow: s.replayWindow, IdleWindow: s.idleWindow}
}
