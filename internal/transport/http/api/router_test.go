package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigflow/internal/backfill"
	"sigflow/internal/ingest"
	"sigflow/internal/lifecycle"
	"sigflow/internal/purge"
	"sigflow/internal/signal"
	"sigflow/internal/store"
)

type apiFixture struct {
	events *store.MemoryEventStore
	bars   *store.MemoryBarStore
	srv    *Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	events := store.NewMemoryEventStore()
	bars := store.NewMemoryBarStore()
	srv, err := NewServer(ServerConfig{
		Addr: ":0",
		Router: &Router{
			Normalizer: ingest.Normalizer{},
			Events:     events,
			Trades:     lifecycle.NewService(events, 2*time.Second, 10*time.Minute),
			Purge:      purge.NewRunner(events),
			Backfill:   backfill.NewLoader(bars, 50, 500),
		},
	})
	require.NoError(t, err)
	return &apiFixture{events: events, bars: bars, srv: srv}
}

func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAcceptsEntry(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/api/signals/webhook",
		`{"event_type":"ENTRY","trade_id":"T1","direction":"LONG","entry_price":100,"stop_loss":95,"event_timestamp":1724924000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "T1", resp["trade_id"])
	assert.Equal(t, "ENTRY", resp["event_type"])
}

func TestWebhookRejectsUnknownFormat(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/api/signals/webhook", `{"hello":"world"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no known wire format")
}

func TestWebhookRejectsCorruptedIdentity(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/api/signals/webhook",
		`{"event_type":"MFE_UPDATE","trade_id":"BTC|15m|LONG","be_mfe":1.2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTradeByID(t *testing.T) {
	f := newAPIFixture(t)
	entry := `{"event_type":"ENTRY","trade_id":"T1","direction":"LONG","entry_price":100,"stop_loss":95,"event_timestamp":1724924000}`
	exit := `{"event_type":"EXIT_SL","trade_id":"T1","event_timestamp":1724930000}`
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/signals/webhook", entry).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/signals/webhook", exit).Code)

	rec := f.do(t, http.MethodGet, "/api/trades/T1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var trade lifecycle.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, lifecycle.StatusCompleted, trade.Status)
	assert.Equal(t, signal.EventExitSL, trade.FinalEvent)
	assert.Equal(t, 100.0, trade.EntryPrice)
}

func TestTradeByIDNotFound(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/api/trades/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTradesStatusFilter(t *testing.T) {
	f := newAPIFixture(t)
	payloads := []string{
		`{"event_type":"ENTRY","trade_id":"T-open","direction":"LONG","entry_price":100,"stop_loss":95,"event_timestamp":1724924000}`,
		`{"event_type":"ENTRY","trade_id":"T-done","direction":"LONG","entry_price":100,"stop_loss":95,"event_timestamp":1724924100}`,
		`{"event_type":"EXIT_SL","trade_id":"T-done","event_timestamp":1724930000}`,
	}
	for _, p := range payloads {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/signals/webhook", p).Code)
	}

	rec := f.do(t, http.MethodGet, "/api/trades?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []lifecycle.Trade `json:"trades"`
		Count  int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "T-done", resp.Trades[0].TradeID)

	rec = f.do(t, http.MethodGet, "/api/trades?status=nonsense", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTradesBadDate(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/api/trades?from=29-08-2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
}

func TestPurgeConfirmGate(t *testing.T) {
	f := newAPIFixture(t)
	f.events.AllowMalformed = true
	require.NoError(t, f.events.AppendEvent(context.Background(), signal.Event{
		TradeID: "null", Type: signal.EventMFEUpdate, Timestamp: time.Now(),
	}))

	rec := f.do(t, http.MethodPost, "/api/admin/purge", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing confirm must refuse")

	rec = f.do(t, http.MethodPost, "/api/admin/purge?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report purge.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, int64(1), report.DeletedCount)
}

func TestBackfillEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/api/admin/backfill", `{
		"symbol": "btcusdt",
		"bars": [
			{"open":100,"high":105,"low":99,"close":104,"ts":1724924000000},
			{"open":104,"high":106,"low":102,"close":3,"ts":1724924060000}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report backfill.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "BTCUSDT", report.Symbol)
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 104.0, report.PrevGoodClose)
	assert.Len(t, f.bars.Bars("BTCUSDT"), 1)
}
