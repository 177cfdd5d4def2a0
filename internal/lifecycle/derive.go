package lifecycle

import (
	"errors"
	"sort"
	"time"

	"sigflow/internal/signal"
)

// ErrNoEvents means derivation was asked about an identity the log has never
// seen.
var ErrNoEvents = errors.New("no events for trade")

// StatusOf is the dual-strategy completion policy. EXIT_SL is the shared stop
// boundary of both simulated sub-strategies, so only its presence completes a
// trade; EXIT_BE retires the breakeven sub-strategy alone and the trade keeps
// running. Every status computation in the system goes through here.
func StatusOf(events []signal.Event) Status {
	for _, ev := range events {
		if ev.Type == signal.EventExitSL {
			return StatusCompleted
		}
	}
	return StatusActive
}

// terminalRank orders terminal events for display selection only: a stop-out
// outranks a breakeven exit outranks anything else, regardless of arrival
// order.
func terminalRank(t signal.EventType) int {
	switch t {
	case signal.EventExitSL:
		return 3
	case signal.EventExitBE:
		return 2
	case signal.EventCancelled:
		return 1
	}
	return 0
}

// DeriveOptions tune the data-quality flags, not the fold itself.
type DeriveOptions struct {
	// ReplayWindow flags the trade when its whole event history spans less
	// wall-clock time than this (bulk replay suspected).
	ReplayWindow time.Duration
	// IdleWindow marks the trade idle when its last update is older. Zero
	// disables the flag.
	IdleWindow time.Duration
	// Now overrides the clock in tests.
	Now time.Time
}

// Derive folds a trade's events into its read model. Input order does not
// matter: events are re-sorted by their own timestamps, never by arrival.
func Derive(events []signal.Event, opts DeriveOptions) (Trade, error) {
	if len(events) == 0 {
		return Trade{}, ErrNoEvents
	}
	sorted := make([]signal.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	trade := Trade{
		TradeID:    sorted[0].TradeID,
		Status:     StatusOf(sorted),
		EventCount: len(sorted),
	}

	var (
		entry      *signal.Event
		lastUpdate *signal.Event
		final      *signal.Event
	)
	for i := range sorted {
		ev := &sorted[i]
		switch ev.Type {
		case signal.EventEntry:
			// Latest ENTRY wins; duplicates are tolerated, not rejected.
			entry = ev
		case signal.EventMFEUpdate:
			lastUpdate = ev
		}
		if ev.Type.IsTerminal() {
			if final == nil || terminalRank(ev.Type) > terminalRank(final.Type) ||
				(terminalRank(ev.Type) == terminalRank(final.Type) && ev.Timestamp.After(final.Timestamp)) {
				final = ev
			}
		}
	}

	if entry != nil {
		trade.Direction = entry.Direction
		trade.EntryPrice = entry.EntryPrice
		trade.StopLoss = entry.StopLoss
		trade.RiskDistance = entry.RiskDistance
		trade.Session = entry.Session
		trade.EnteredAt = entry.Timestamp
	} else {
		// An update or exit without a preceding ENTRY is a data-quality
		// condition to surface, not to paper over.
		trade.MissingEntry = true
	}

	if lastUpdate != nil {
		trade.CurrentPrice = lastUpdate.CurrentPrice
		trade.BEMFE = lastUpdate.BEMFE
		trade.NoBEMFE = lastUpdate.NoBEMFE
		trade.MAER = lastUpdate.MAER
		trade.LastUpdateAt = lastUpdate.Timestamp
		trade.LastUpdateSource = lastUpdate.Source
	}
	if final != nil && (lastUpdate == nil || !final.Timestamp.Before(lastUpdate.Timestamp)) {
		// Terminal events may arrive bare. A zero excursion field on the
		// terminal keeps the last update's value instead of wiping it.
		if final.CurrentPrice != 0 {
			trade.CurrentPrice = final.CurrentPrice
		}
		if final.BEMFE != 0 {
			trade.BEMFE = final.BEMFE
		}
		if final.NoBEMFE != 0 {
			trade.NoBEMFE = final.NoBEMFE
		}
		if final.MAER != 0 {
			trade.MAER = final.MAER
		}
		trade.LastUpdateAt = final.Timestamp
		trade.LastUpdateSource = final.Source
	}
	if final != nil {
		trade.FinalEvent = final.Type
	}

	span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)
	if opts.ReplayWindow > 0 && len(sorted) > 1 && span < opts.ReplayWindow {
		trade.ReplaySuspected = true
	}
	if opts.IdleWindow > 0 && trade.Status == StatusActive {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		if now.Sub(lastSourceTimestamp(sorted)) > opts.IdleWindow {
			trade.Idle = true
		}
	}
	return trade, nil
}

// lastSourceTimestamp is the timestamp of the newest source-delivered event.
// Synthetic reconciled updates keep excursions fresh but say nothing about the
// upstream, so they never reset idleness.
func lastSourceTimestamp(sorted []signal.Event) time.Time {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Source != signal.SourceReconciled {
			return sorted[i].Timestamp
		}
	}
	return sorted[len(sorted)-1].Timestamp
}
