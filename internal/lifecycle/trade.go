// Package lifecycle folds a trade's event sequence into its authoritative
// derived state. Nothing here is persisted: status is recomputed on every
// read from the append-only log.
package lifecycle

import (
	"time"

	"sigflow/internal/signal"
)

// Status is the derived life-cycle state of a trade.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Trade is the read model folded from all events sharing a trade_id.
type Trade struct {
	TradeID string `json:"trade_id"`
	Status  Status `json:"status"`

	// Entry snapshot, from the latest ENTRY event.
	Direction    signal.Direction `json:"direction,omitempty"`
	EntryPrice   float64          `json:"entry_price,omitempty"`
	StopLoss     float64          `json:"stop_loss,omitempty"`
	RiskDistance float64          `json:"risk_distance,omitempty"`
	Session      string           `json:"session,omitempty"`
	EnteredAt    time.Time        `json:"entered_at,omitempty"`

	// Excursion snapshot, from the most recent MFE_UPDATE; a later terminal
	// event overrides only the fields it actually carries.
	CurrentPrice     float64       `json:"current_price"`
	BEMFE            float64       `json:"be_mfe"`
	NoBEMFE          float64       `json:"no_be_mfe"`
	MAER             float64       `json:"mae_r"`
	LastUpdateAt     time.Time     `json:"last_update_at"`
	LastUpdateSource signal.Source `json:"last_update_source,omitempty"`

	// FinalEvent is the display-ranked terminal event type, if any terminal
	// event exists. Status does not depend on it.
	FinalEvent signal.EventType `json:"final_event,omitempty"`

	// Data-quality flags.
	MissingEntry    bool `json:"missing_entry,omitempty"`
	ReplaySuspected bool `json:"replay_suspected,omitempty"`
	Idle            bool `json:"idle,omitempty"`

	EventCount int `json:"event_count"`
}
