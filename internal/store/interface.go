// Package store defines persistence contracts for the append-only signal
// event log and the hygiene-gated bar history.
package store

import (
	"context"
	"time"

	"sigflow/internal/market"
	"sigflow/internal/signal"
)

// MalformedCriteria describes, for operator reports, which rows the purge
// removes.
const MalformedCriteria = "trade_id null, empty, or containing an embedded field separator"

// TradeFilter narrows trade listings by first-event date range.
type TradeFilter struct {
	From time.Time
	To   time.Time
}

// TradeActivity is a per-trade aggregate the store can answer without
// folding full event sequences. Reconciliation and the list endpoint use it
// to find candidates cheaply.
type TradeActivity struct {
	TradeID    string
	FirstEvent time.Time
	LastEvent  time.Time
	// LastSourceEvent is the newest event not written by the reconciliation
	// sweep. Idleness and staleness are measured from it, never from
	// synthetic updates. Zero when every event on record is synthetic.
	LastSourceEvent time.Time
	HasEntry        bool
	HasStopOut      bool
	EventCount      int
}

// EventStore is the append-only lifecycle log. Rows are never updated;
// deletion happens only through DeleteMalformed.
type EventStore interface {
	// AppendEvent writes one immutable event. Returns *StorageError when the
	// trade identity is empty or corrupted. Duplicate logical events are
	// accepted as written; derivation copes with them.
	AppendEvent(ctx context.Context, ev signal.Event) error
	// EventsByTrade returns all events for one identity ordered by event
	// timestamp ascending, not insertion order.
	EventsByTrade(ctx context.Context, tradeID string) ([]signal.Event, error)
	// ListTradeActivity returns per-trade aggregates for every identity whose
	// first event falls inside the filter.
	ListTradeActivity(ctx context.Context, filter TradeFilter) ([]TradeActivity, error)
	// DeleteMalformed removes every row matching MalformedCriteria and
	// reports how many went.
	DeleteMalformed(ctx context.Context) (int64, error)
	Close() error
}

// BarStore receives hygiene-accepted bars only.
type BarStore interface {
	InsertBar(ctx context.Context, symbol string, bar market.Bar) error
	CountBars(ctx context.Context, symbol string) (int64, error)
	Close() error
}
