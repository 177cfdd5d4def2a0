// Package signal defines the canonical lifecycle event model shared by the
// ingestion, storage and derivation layers.
package signal

import (
	"strings"
	"time"
)

// EventType enumerates the lifecycle stages a signal reports.
type EventType string

const (
	EventEntry       EventType = "ENTRY"
	EventMFEUpdate   EventType = "MFE_UPDATE"
	EventBETriggered EventType = "BE_TRIGGERED"
	EventExitBE      EventType = "EXIT_BE"
	EventExitSL      EventType = "EXIT_SL"
	EventCancelled   EventType = "CANCELLED"
)

// IsTerminal reports whether the event type ends at least one sub-strategy.
// Note EXIT_BE only retires the breakeven sub-strategy; the trade itself stays
// active until an EXIT_SL arrives.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventExitBE, EventExitSL, EventCancelled:
		return true
	}
	return false
}

// Valid reports whether t is one of the known lifecycle stages.
func (t EventType) Valid() bool {
	switch t {
	case EventEntry, EventMFEUpdate, EventBETriggered, EventExitBE, EventExitSL, EventCancelled:
		return true
	}
	return false
}

// Direction is the trade direction encoded in the signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long, -1 for short, 0 for unknown.
func (d Direction) Sign() int {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	}
	return 0
}

// ParseDirection normalizes the direction spellings seen across wire formats.
func ParseDirection(raw string) Direction {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "BULLISH", "BUY", "1":
		return DirectionLong
	case "SHORT", "BEARISH", "SELL", "-1":
		return DirectionShort
	}
	return ""
}

// Source tags where an event came from.
type Source string

const (
	// SourceWebhook marks telemetry delivered by the upstream signal source.
	SourceWebhook Source = "webhook"
	// SourceReconciled marks synthetic MFE updates written by the orphan sweep.
	SourceReconciled Source = "reconciled"
	// SourceOperator marks events forced by an explicit operator action.
	SourceOperator Source = "operator"
)

// Event is one immutable row of the append-only lifecycle log.
type Event struct {
	ID           string
	TradeID      string
	Type         EventType
	Timestamp    time.Time
	Direction    Direction
	EntryPrice   float64
	StopLoss     float64
	RiskDistance float64
	CurrentPrice float64
	BEMFE        float64
	NoBEMFE      float64
	MAER         float64
	Session      string
	Source       Source
	// RawPayload keeps the original webhook body for audit. Empty for
	// synthetic events.
	RawPayload []byte
}

// tradeIDSeparator appearing inside a trade_id indicates an upstream
// serialization failure: the composite identity leaked its own field
// separator into one of its parts.
const tradeIDSeparator = "|"

// ValidTradeID reports whether id is usable as a partition key. Identities
// failing this check are never eligible for derivation and must be purged.
func ValidTradeID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	switch strings.ToLower(id) {
	case "null", "undefined", "none":
		return false
	}
	return !strings.Contains(id, tradeIDSeparator)
}
