package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigflow/internal/signal"
)

func TestNormalizeEquivalentEntryShapes(t *testing.T) {
	n := Normalizer{}
	payloads := map[string]string{
		"direct":     `{"type":"signal_created","tradeId":"2025-08-29_0930_LONG","timestamp":1724924000000,"direction":"Bullish","entryPrice":100,"stopLoss":95}`,
		"automation": `{"automation_stage":"ENTRY","signal_id":"2025-08-29_0930_LONG","time":1724924000000,"direction":"LONG","price":100,"stop":95}`,
		"flat":       `{"event_type":"ENTRY","trade_id":"2025-08-29_0930_LONG","event_timestamp":1724924000000,"direction":"LONG","entry_price":100,"stop_loss":95}`,
	}
	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			ev, err := n.Normalize([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, "2025-08-29_0930_LONG", ev.TradeID)
			assert.Equal(t, signal.EventEntry, ev.Type)
			assert.Equal(t, signal.DirectionLong, ev.Direction)
			assert.Equal(t, 100.0, ev.EntryPrice)
			assert.Equal(t, 95.0, ev.StopLoss)
			assert.Equal(t, 5.0, ev.RiskDistance)
			assert.Equal(t, int64(1724924000000), ev.Timestamp.UnixMilli())
		})
	}
}

func TestNormalizeAttributesEnvelope(t *testing.T) {
	n := Normalizer{}
	raw := `{"attributes":{"event":"exit.stop_loss","trade_id":"T1","occurred_at":"2025-08-29T15:00:00Z","current_price":92.5,"be_mfe":0,"no_be_mfe":-1,"mae_r":1.2}}`
	ev, err := n.Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, signal.EventExitSL, ev.Type)
	assert.Equal(t, "T1", ev.TradeID)
	assert.Equal(t, 92.5, ev.CurrentPrice)
	assert.Equal(t, 1.2, ev.MAER)
}

func TestNormalizeExitNameTables(t *testing.T) {
	n := Normalizer{}
	cases := []struct {
		name string
		raw  string
		want signal.EventType
	}{
		{"direct stoploss", `{"type":"exit_stoploss","tradeId":"T1"}`, signal.EventExitSL},
		{"direct breakeven", `{"type":"exit_breakeven","tradeId":"T1"}`, signal.EventExitBE},
		{"automation stoploss", `{"automation_stage":"EXIT_STOP_LOSS","signal_id":"T1"}`, signal.EventExitSL},
		{"automation breakeven", `{"automation_stage":"EXIT_BREAK_EVEN","signal_id":"T1"}`, signal.EventExitBE},
		{"flat cancelled", `{"event_type":"CANCELLED","trade_id":"T1"}`, signal.EventCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := n.Normalize([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ev.Type)
		})
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := Normalizer{}
	cases := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"not json", `to the moon`, "not valid JSON"},
		{"not object", `[1,2,3]`, "JSON object"},
		{"no marker", `{"hello":"world"}`, "no known wire format"},
		{"ambiguous markers", `{"type":"signal_created","event_type":"ENTRY","trade_id":"T1","tradeId":"T1"}`, "ambiguous"},
		{"unknown event name", `{"type":"entry_created","tradeId":"T1"}`, "unknown direct event name"},
		{"missing trade id", `{"type":"mfe_update"}`, "trade identity is required"},
		{"entry without stop", `{"type":"signal_created","tradeId":"T1","direction":"Bullish","entryPrice":100}`, "positive stop loss"},
		{"entry without direction", `{"automation_stage":"ENTRY","signal_id":"T1","price":100,"stop":95}`, "requires a direction"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize([]byte(tc.raw))
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tc.wantMsg)
		})
	}
}

func TestNormalizeNeverGuessesADefault(t *testing.T) {
	n := Normalizer{}
	// A payload that looks almost like the flat shape but lacks trade_id
	// must fail outright instead of falling back to another mapping.
	_, err := n.Normalize([]byte(`{"event_type":"ENTRY","entry_price":100}`))
	require.Error(t, err)
}

func TestNormalizeStrictSchema(t *testing.T) {
	strict := Normalizer{Strict: true}

	t.Run("valid flat payload passes", func(t *testing.T) {
		_, err := strict.Normalize([]byte(`{"event_type":"MFE_UPDATE","trade_id":"T1","be_mfe":1.5,"no_be_mfe":1.5}`))
		require.NoError(t, err)
	})
	t.Run("unknown enum rejected by schema", func(t *testing.T) {
		_, err := strict.Normalize([]byte(`{"event_type":"LIQUIDATED","trade_id":"T1"}`))
		require.Error(t, err)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "schema check failed")
	})
	t.Run("schema not applied to other shapes", func(t *testing.T) {
		_, err := strict.Normalize([]byte(`{"type":"mfe_update","tradeId":"T1"}`))
		require.NoError(t, err)
	})
}

func TestNormalizeKeepsRawPayload(t *testing.T) {
	raw := `{"event_type":"BE_TRIGGERED","trade_id":"T9"}`
	ev, err := Normalizer{}.Normalize([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(ev.RawPayload))
	assert.Equal(t, signal.SourceWebhook, ev.Source)
}
