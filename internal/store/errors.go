package store

import "fmt"

// StorageError rejects an append at the store boundary: the event carried an
// identity that must never reach the log. Distinguishable from ingest-time
// validation failures so the HTTP layer can answer differently.
type StorageError struct {
	TradeID string
	Reason  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("event rejected by store: %s (trade_id=%q)", e.Reason, e.TradeID)
}
