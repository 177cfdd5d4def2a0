package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sigflow/internal/logger"
	"sigflow/internal/signal"
	"sigflow/internal/store"
)

// ForceExitRequest is the operator-confirmed stale cleanup. OlderThan below
// the configured stale threshold is clamped up, never down.
type ForceExitRequest struct {
	Confirm   bool
	OlderThan time.Duration
}

// ForceExitReport lists what the cleanup actually did.
type ForceExitReport struct {
	Threshold time.Duration `json:"threshold"`
	Forced    []string      `json:"forced"`
}

// ForceExitStale appends an EXIT_SL with zero MFE for every trade idle past
// the threshold. This is the only path that writes exits the source never
// sent, and it refuses to run without explicit confirmation.
func (s *Service) ForceExitStale(ctx context.Context, req ForceExitRequest) (ForceExitReport, error) {
	report := ForceExitReport{}
	if s == nil || s.events == nil {
		return report, fmt.Errorf("reconcile service not initialized")
	}
	if !req.Confirm {
		return report, ErrConfirmationRequired
	}
	threshold := req.OlderThan
	if threshold < s.cfg.StaleThreshold {
		threshold = s.cfg.StaleThreshold
	}
	report.Threshold = threshold

	now := s.now()
	activity, err := s.events.ListTradeActivity(ctx, store.TradeFilter{})
	if err != nil {
		return report, err
	}
	for _, act := range activity {
		if !act.HasEntry || act.HasStopOut {
			continue
		}
		idle := now.Sub(lastHeardFrom(act))
		if idle <= threshold {
			continue
		}
		audit, _ := json.Marshal(map[string]any{
			"action":       "stale_trade_cleanup",
			"idle_minutes": int(idle.Minutes()),
			"forced_at":    now.UTC().Format(time.RFC3339),
		})
		ev := signal.Event{
			ID:         uuid.NewString(),
			TradeID:    act.TradeID,
			Type:       signal.EventExitSL,
			Timestamp:  now,
			BEMFE:      0,
			NoBEMFE:    0,
			Source:     signal.SourceOperator,
			RawPayload: audit,
		}
		if err := s.events.AppendEvent(ctx, ev); err != nil {
			logger.Warnf("reconcile: forced exit failed trade=%s err=%v", act.TradeID, err)
			continue
		}
		logger.Infof("reconcile: forced EXIT_SL trade=%s idle=%s", act.TradeID, idle.Truncate(time.Second))
		report.Forced = append(report.Forced, act.TradeID)
	}
	return report, nil
}
