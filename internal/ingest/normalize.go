// Package ingest turns a raw webhook body in any supported wire format into
// one canonical signal.Event, or rejects it with a ValidationError.
package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sigflow/internal/signal"
)

// Normalizer is a pure payload translator. It performs no I/O; callers own
// logging and metrics on rejection.
type Normalizer struct {
	// Strict additionally checks flat-format payloads against the canonical
	// event schema.
	Strict bool
}

// Normalize detects the wire format of body, applies that format's field and
// event-name tables and returns the canonical event. Zero or more than one
// matching format is a ValidationError, never a guessed default.
func (n Normalizer) Normalize(body []byte) (signal.Event, error) {
	if !gjson.ValidBytes(body) {
		return signal.Event{}, errUnrecognized("body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return signal.Event{}, errUnrecognized("body must be a JSON object")
	}

	var matched []variant
	for _, v := range variants {
		if v.match(root) {
			matched = append(matched, v)
		}
	}
	switch len(matched) {
	case 1:
	case 0:
		return signal.Event{}, errUnrecognized("no known wire format matched (expected type, automation_stage, attributes or event_type+trade_id markers)")
	default:
		names := make([]string, len(matched))
		for i, v := range matched {
			names[i] = v.name
		}
		return signal.Event{}, errUnrecognized(fmt.Sprintf("ambiguous payload, markers for %s all present", strings.Join(names, " and ")))
	}
	v := matched[0]

	if n.Strict && v.name == "flat" {
		if err := validateFlatSchema(body); err != nil {
			return signal.Event{}, err
		}
	}

	rawType := strings.TrimSpace(root.Get(v.fields.EventKey).String())
	evType, ok := v.events[rawType]
	if !ok {
		return signal.Event{}, errField(v.fields.EventKey, fmt.Sprintf("unknown %s event name %q", v.name, rawType))
	}

	tradeID := strings.TrimSpace(root.Get(v.fields.TradeID).String())
	if tradeID == "" {
		return signal.Event{}, errField(v.fields.TradeID, "trade identity is required")
	}

	ev := signal.Event{
		TradeID:      tradeID,
		Type:         evType,
		Timestamp:    parseTimestamp(root.Get(v.fields.Timestamp)),
		Direction:    signal.ParseDirection(root.Get(v.fields.Direction).String()),
		EntryPrice:   root.Get(v.fields.EntryPrice).Float(),
		StopLoss:     root.Get(v.fields.StopLoss).Float(),
		RiskDistance: root.Get(v.fields.RiskDistance).Float(),
		CurrentPrice: root.Get(v.fields.CurrentPrice).Float(),
		BEMFE:        root.Get(v.fields.BEMFE).Float(),
		NoBEMFE:      root.Get(v.fields.NoBEMFE).Float(),
		MAER:         root.Get(v.fields.MAER).Float(),
		Session:      strings.TrimSpace(root.Get(v.fields.Session).String()),
		Source:       signal.SourceWebhook,
		RawPayload:   append([]byte(nil), body...),
	}
	if ev.RiskDistance == 0 && ev.EntryPrice > 0 && ev.StopLoss > 0 {
		ev.RiskDistance = math.Abs(ev.EntryPrice - ev.StopLoss)
	}

	if err := checkRequired(v, ev); err != nil {
		return signal.Event{}, err
	}
	return ev, nil
}

func checkRequired(v variant, ev signal.Event) error {
	if ev.Type == signal.EventEntry {
		if ev.EntryPrice <= 0 {
			return errField(v.fields.EntryPrice, "entry event requires a positive entry price")
		}
		if ev.StopLoss <= 0 {
			return errField(v.fields.StopLoss, "entry event requires a positive stop loss")
		}
		if ev.Direction == "" {
			return errField(v.fields.Direction, "entry event requires a direction")
		}
	}
	return nil
}

// parseTimestamp accepts unix seconds, unix milliseconds or an RFC3339 string.
// A missing timestamp falls back to receipt time: ordering at read time copes
// with it either way.
func parseTimestamp(res gjson.Result) time.Time {
	switch res.Type {
	case gjson.Number:
		n := res.Int()
		if n <= 0 {
			return time.Now().UTC()
		}
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	case gjson.String:
		raw := strings.TrimSpace(res.String())
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Now().UTC()
}
