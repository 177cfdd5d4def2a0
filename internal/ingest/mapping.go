package ingest

import (
	"github.com/tidwall/gjson"

	"sigflow/internal/signal"
)

// fieldPaths names, per wire format, the gjson path of every canonical field.
type fieldPaths struct {
	EventKey     string
	TradeID      string
	Timestamp    string
	Direction    string
	EntryPrice   string
	StopLoss     string
	RiskDistance string
	CurrentPrice string
	BEMFE        string
	NoBEMFE      string
	MAER         string
	Session      string
}

// variant describes one supported wire format: the marker that identifies it,
// the event-type name table and the field-name table. A payload must match
// exactly one variant; there is no best-guess default.
type variant struct {
	name   string
	match  func(gjson.Result) bool
	events map[string]signal.EventType
	fields fieldPaths
}

var variants = []variant{
	{
		// TradingView alert script: camelCase fields, lowercase type names.
		name:  "direct",
		match: func(root gjson.Result) bool { return root.Get("type").Type == gjson.String },
		events: map[string]signal.EventType{
			"signal_created":   signal.EventEntry,
			"mfe_update":       signal.EventMFEUpdate,
			"be_triggered":     signal.EventBETriggered,
			"exit_breakeven":   signal.EventExitBE,
			"exit_stoploss":    signal.EventExitSL,
			"signal_cancelled": signal.EventCancelled,
		},
		fields: fieldPaths{
			EventKey:     "type",
			TradeID:      "tradeId",
			Timestamp:    "timestamp",
			Direction:    "direction",
			EntryPrice:   "entryPrice",
			StopLoss:     "stopLoss",
			RiskDistance: "riskDistance",
			CurrentPrice: "currentPrice",
			BEMFE:        "beMfe",
			NoBEMFE:      "noBeMfe",
			MAER:         "mae",
			Session:      "session",
		},
	},
	{
		// Automation relay: snake_case fields, SCREAMING stage names.
		name:  "automation",
		match: func(root gjson.Result) bool { return root.Get("automation_stage").Exists() },
		events: map[string]signal.EventType{
			"ENTRY":           signal.EventEntry,
			"MFE_UPDATE":      signal.EventMFEUpdate,
			"BE_TRIGGERED":    signal.EventBETriggered,
			"EXIT_BREAK_EVEN": signal.EventExitBE,
			"EXIT_STOP_LOSS":  signal.EventExitSL,
			"CANCELLED":       signal.EventCancelled,
		},
		fields: fieldPaths{
			EventKey:     "automation_stage",
			TradeID:      "signal_id",
			Timestamp:    "time",
			Direction:    "direction",
			EntryPrice:   "price",
			StopLoss:     "stop",
			RiskDistance: "risk",
			CurrentPrice: "current_price",
			BEMFE:        "be_mfe",
			NoBEMFE:      "no_be_mfe",
			MAER:         "mae_r",
			Session:      "session",
		},
	},
	{
		// JSON:API style envelope with a nested attributes object.
		name:  "attributes",
		match: func(root gjson.Result) bool { return root.Get("attributes").IsObject() },
		events: map[string]signal.EventType{
			"entry":           signal.EventEntry,
			"mfe":             signal.EventMFEUpdate,
			"be_trigger":      signal.EventBETriggered,
			"exit.break_even": signal.EventExitBE,
			"exit.stop_loss":  signal.EventExitSL,
			"cancel":          signal.EventCancelled,
		},
		fields: fieldPaths{
			EventKey:     "attributes.event",
			TradeID:      "attributes.trade_id",
			Timestamp:    "attributes.occurred_at",
			Direction:    "attributes.direction",
			EntryPrice:   "attributes.entry_price",
			StopLoss:     "attributes.stop_loss",
			RiskDistance: "attributes.risk_distance",
			CurrentPrice: "attributes.current_price",
			BEMFE:        "attributes.be_mfe",
			NoBEMFE:      "attributes.no_be_mfe",
			MAER:         "attributes.mae_r",
			Session:      "attributes.session",
		},
	},
	{
		// Flat canonical pair: event_type + trade_id, names already canonical.
		name: "flat",
		match: func(root gjson.Result) bool {
			return root.Get("event_type").Exists() && root.Get("trade_id").Exists()
		},
		events: map[string]signal.EventType{
			"ENTRY":        signal.EventEntry,
			"MFE_UPDATE":   signal.EventMFEUpdate,
			"BE_TRIGGERED": signal.EventBETriggered,
			"EXIT_BE":      signal.EventExitBE,
			"EXIT_SL":      signal.EventExitSL,
			"CANCELLED":    signal.EventCancelled,
		},
		fields: fieldPaths{
			EventKey:     "event_type",
			TradeID:      "trade_id",
			Timestamp:    "event_timestamp",
			Direction:    "direction",
			EntryPrice:   "entry_price",
			StopLoss:     "stop_loss",
			RiskDistance: "risk_distance",
			CurrentPrice: "current_price",
			BEMFE:        "be_mfe",
			NoBEMFE:      "no_be_mfe",
			MAER:         "mae_r",
			Session:      "session",
		},
	},
}
