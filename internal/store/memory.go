package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sigflow/internal/signal"
)

// MemoryEventStore is an in-memory EventStore used by tests and replay
// tooling. Same contract as the sqlite store, including the malformed-identity
// rejection at append time.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []signal.Event

	// AllowMalformed lets tests seed corrupted rows the purge is supposed to
	// remove. Production appends leave it off.
	AllowMalformed bool
}

var _ EventStore = (*MemoryEventStore)(nil)

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) AppendEvent(ctx context.Context, ev signal.Event) error {
	if !s.AllowMalformed && !signal.ValidTradeID(ev.TradeID) {
		return &StorageError{TradeID: ev.TradeID, Reason: "corrupted or empty trade identity"}
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

func (s *MemoryEventStore) EventsByTrade(ctx context.Context, tradeID string) ([]signal.Event, error) {
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return nil, fmt.Errorf("trade_id is required")
	}
	s.mu.RLock()
	var out []signal.Event
	for _, ev := range s.events {
		if ev.TradeID == tradeID {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryEventStore) ListTradeActivity(ctx context.Context, filter TradeFilter) ([]TradeActivity, error) {
	s.mu.RLock()
	byTrade := make(map[string]*TradeActivity)
	for _, ev := range s.events {
		if !signal.ValidTradeID(ev.TradeID) {
			continue
		}
		act, ok := byTrade[ev.TradeID]
		if !ok {
			act = &TradeActivity{TradeID: ev.TradeID, FirstEvent: ev.Timestamp, LastEvent: ev.Timestamp}
			byTrade[ev.TradeID] = act
		}
		if ev.Timestamp.Before(act.FirstEvent) {
			act.FirstEvent = ev.Timestamp
		}
		if ev.Timestamp.After(act.LastEvent) {
			act.LastEvent = ev.Timestamp
		}
		if ev.Source != signal.SourceReconciled && ev.Timestamp.After(act.LastSourceEvent) {
			act.LastSourceEvent = ev.Timestamp
		}
		if ev.Type == signal.EventEntry {
			act.HasEntry = true
		}
		if ev.Type == signal.EventExitSL {
			act.HasStopOut = true
		}
		act.EventCount++
	}
	s.mu.RUnlock()

	out := make([]TradeActivity, 0, len(byTrade))
	for _, act := range byTrade {
		if !filter.From.IsZero() && act.FirstEvent.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && act.FirstEvent.After(filter.To) {
			continue
		}
		out = append(out, *act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstEvent.Before(out[j].FirstEvent) })
	return out, nil
}

func (s *MemoryEventStore) DeleteMalformed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var deleted int64
	for _, ev := range s.events {
		if signal.ValidTradeID(ev.TradeID) {
			kept = append(kept, ev)
		} else {
			deleted++
		}
	}
	s.events = kept
	return deleted, nil
}

func (s *MemoryEventStore) Close() error { return nil }
