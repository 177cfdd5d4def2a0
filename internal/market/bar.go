// Package market holds price-bar primitives shared by the backfill pipeline
// and the bar store.
package market

import "time"

// Bar is one historical OHLC bar, evaluated by the hygiene gate before it is
// committed to long-term storage.
type Bar struct {
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	TS    time.Time `json:"ts"`
}
