package apihttp

type staleExitRequest struct {
	Confirm          bool `json:"confirm"`
	OlderThanMinutes int  `json:"older_than_minutes"`
}

type barPayload struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	// TS is the bar timestamp in unix milliseconds.
	TS int64 `json:"ts"`
}

type backfillRequest struct {
	Symbol string       `json:"symbol"`
	Bars   []barPayload `json:"bars"`
}
