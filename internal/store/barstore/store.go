// Package barstore persists hygiene-accepted historical bars on sqlite via
// database/sql.
package barstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"sigflow/internal/market"
	"sigflow/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS bar_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol    TEXT NOT NULL,
    ts        INTEGER NOT NULL,
    open      REAL NOT NULL,
    high      REAL NOT NULL,
    low       REAL NOT NULL,
    close     REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bar_symbol_ts ON bar_history(symbol, ts);
`

// Store holds the long-term bar table. Only the hygiene gate writes here.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ store.BarStore = (*Store)(nil)

// Open creates or opens the bar database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("bar store: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) InsertBar(ctx context.Context, symbol string, bar market.Bar) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("bar store not initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bar_history (symbol, ts, open, high, low, close) VALUES (?, ?, ?, ?, ?, ?)`,
		symbol, bar.TS.UnixMilli(), bar.Open, bar.High, bar.Low, bar.Close)
	return err
}

func (s *Store) CountBars(ctx context.Context, symbol string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("bar store not initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bar_history WHERE symbol = ?`, symbol).Scan(&total)
	return total, err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
