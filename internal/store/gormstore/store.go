// Package gormstore implements the append-only event log on Gorm + SQLite.
package gormstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sigflow/internal/signal"
	"sigflow/internal/store"
)

// EventStore persists signal lifecycle events. Rows are insert-only; the only
// delete path is DeleteMalformed.
type EventStore struct {
	db *gorm.DB
}

var _ store.EventStore = (*EventStore)(nil)

// NewEventStore opens (or creates) the sqlite event log at path.
func NewEventStore(path string) (*EventStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("event store: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&signalEventModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: concurrent webhook handlers read-modify nothing, so a
	// small pool keeps lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &EventStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *EventStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *EventStore) AppendEvent(ctx context.Context, ev signal.Event) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("event store not initialized")
	}
	if !signal.ValidTradeID(ev.TradeID) {
		return &store.StorageError{TradeID: ev.TradeID, Reason: "corrupted or empty trade identity"}
	}
	model := newSignalEventModel(ev)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *EventStore) EventsByTrade(ctx context.Context, tradeID string) ([]signal.Event, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("event store not initialized")
	}
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return nil, fmt.Errorf("trade_id is required")
	}
	var models []signalEventModel
	if err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("event_timestamp ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]signal.Event, 0, len(models))
	for _, m := range models {
		out = append(out, signalEventModelToEvent(m))
	}
	return out, nil
}

type tradeActivityRow struct {
	TradeID      string `gorm:"column:trade_id"`
	FirstMs      int64  `gorm:"column:first_ms"`
	LastMs       int64  `gorm:"column:last_ms"`
	LastSourceMs int64  `gorm:"column:last_source_ms"`
	HasEntry     int    `gorm:"column:has_entry"`
	HasStopOut   int    `gorm:"column:has_stop_out"`
	Events       int    `gorm:"column:events"`
}

func (s *EventStore) ListTradeActivity(ctx context.Context, filter store.TradeFilter) ([]store.TradeActivity, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("event store not initialized")
	}
	query := `
SELECT trade_id,
       MIN(event_timestamp) AS first_ms,
       MAX(event_timestamp) AS last_ms,
       MAX(CASE WHEN source <> ? THEN event_timestamp ELSE 0 END) AS last_source_ms,
       MAX(CASE WHEN event_type = ? THEN 1 ELSE 0 END) AS has_entry,
       MAX(CASE WHEN event_type = ? THEN 1 ELSE 0 END) AS has_stop_out,
       COUNT(*) AS events
FROM signal_events
GROUP BY trade_id`
	args := []any{string(signal.SourceReconciled), string(signal.EventEntry), string(signal.EventExitSL)}
	having := make([]string, 0, 2)
	if !filter.From.IsZero() {
		having = append(having, "MIN(event_timestamp) >= ?")
		args = append(args, filter.From.UnixMilli())
	}
	if !filter.To.IsZero() {
		having = append(having, "MIN(event_timestamp) <= ?")
		args = append(args, filter.To.UnixMilli())
	}
	if len(having) > 0 {
		query += "\nHAVING " + strings.Join(having, " AND ")
	}
	query += "\nORDER BY first_ms ASC"

	var rows []tradeActivityRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.TradeActivity, 0, len(rows))
	for _, r := range rows {
		act := store.TradeActivity{
			TradeID:    r.TradeID,
			FirstEvent: time.UnixMilli(r.FirstMs).UTC(),
			LastEvent:  time.UnixMilli(r.LastMs).UTC(),
			HasEntry:   r.HasEntry == 1,
			HasStopOut: r.HasStopOut == 1,
			EventCount: r.Events,
		}
		if r.LastSourceMs > 0 {
			act.LastSourceEvent = time.UnixMilli(r.LastSourceMs).UTC()
		}
		out = append(out, act)
	}
	return out, nil
}

func (s *EventStore) DeleteMalformed(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("event store not initialized")
	}
	res := s.db.WithContext(ctx).Exec(`
DELETE FROM signal_events
WHERE trade_id IS NULL
   OR TRIM(trade_id) = ''
   OR trade_id LIKE '%|%'
   OR LOWER(TRIM(trade_id)) IN ('null', 'undefined', 'none')`)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// --------------------------- Model ------------------------------------

type signalEventModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	EventID      string         `gorm:"column:event_uuid;index"`
	TradeID      string         `gorm:"column:trade_id;index:idx_trade_ts"`
	EventType    string         `gorm:"column:event_type;index"`
	TimestampMs  int64          `gorm:"column:event_timestamp;index:idx_trade_ts"`
	Direction    string         `gorm:"column:direction"`
	EntryPrice   float64        `gorm:"column:entry_price"`
	StopLoss     float64        `gorm:"column:stop_loss"`
	RiskDistance float64        `gorm:"column:risk_distance"`
	CurrentPrice float64        `gorm:"column:current_price"`
	BEMFE        float64        `gorm:"column:be_mfe"`
	NoBEMFE      float64        `gorm:"column:no_be_mfe"`
	MAER         float64        `gorm:"column:mae_r"`
	Session      string         `gorm:"column:session"`
	Source       string         `gorm:"column:source"`
	RawPayload   datatypes.JSON `gorm:"column:raw_payload"`
	CreatedAtMs  int64          `gorm:"column:created_at"`
}

func (signalEventModel) TableName() string { return "signal_events" }

func newSignalEventModel(ev signal.Event) signalEventModel {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	raw := ev.RawPayload
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return signalEventModel{
		EventID:      ev.ID,
		TradeID:      strings.TrimSpace(ev.TradeID),
		EventType:    string(ev.Type),
		TimestampMs:  ts.UnixMilli(),
		Direction:    string(ev.Direction),
		EntryPrice:   ev.EntryPrice,
		StopLoss:     ev.StopLoss,
		RiskDistance: ev.RiskDistance,
		CurrentPrice: ev.CurrentPrice,
		BEMFE:        ev.BEMFE,
		NoBEMFE:      ev.NoBEMFE,
		MAER:         ev.MAER,
		Session:      strings.TrimSpace(ev.Session),
		Source:       string(ev.Source),
		RawPayload:   datatypes.JSON(raw),
		CreatedAtMs:  time.Now().UnixMilli(),
	}
}

func signalEventModelToEvent(m signalEventModel) signal.Event {
	return signal.Event{
		ID:           m.EventID,
		TradeID:      m.TradeID,
		Type:         signal.EventType(m.EventType),
		Timestamp:    time.UnixMilli(m.TimestampMs).UTC(),
		Direction:    signal.Direction(m.Direction),
		EntryPrice:   m.EntryPrice,
		StopLoss:     m.StopLoss,
		RiskDistance: m.RiskDistance,
		CurrentPrice: m.CurrentPrice,
		BEMFE:        m.BEMFE,
		NoBEMFE:      m.NoBEMFE,
		MAER:         m.MAER,
		Session:      m.Session,
		Source:       signal.Source(m.Source),
		RawPayload:   []byte(m.RawPayload),
	}
}
