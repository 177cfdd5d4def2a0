package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sigflow/internal/market"
)

// MemoryBarStore is an in-memory BarStore for tests and dry-run backfills.
type MemoryBarStore struct {
	mu   sync.RWMutex
	bars map[string][]market.Bar
}

var _ BarStore = (*MemoryBarStore)(nil)

func NewMemoryBarStore() *MemoryBarStore {
	return &MemoryBarStore{bars: make(map[string][]market.Bar)}
}

func (s *MemoryBarStore) InsertBar(ctx context.Context, symbol string, bar market.Bar) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	s.mu.Lock()
	s.bars[symbol] = append(s.bars[symbol], bar)
	s.mu.Unlock()
	return nil
}

func (s *MemoryBarStore) CountBars(ctx context.Context, symbol string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.bars[strings.ToUpper(strings.TrimSpace(symbol))])), nil
}

// Bars returns a copy of the accepted bars for one symbol.
func (s *MemoryBarStore) Bars(symbol string) []market.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bars[strings.ToUpper(strings.TrimSpace(symbol))]
	out := make([]market.Bar, len(src))
	copy(out, src)
	return out
}

func (s *MemoryBarStore) Close() error { return nil }
