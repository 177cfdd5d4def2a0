// Package purge removes event rows whose trade identity is corrupted beyond
// use. Destructive; the interactive entry point is confirmation-gated at the
// HTTP layer.
package purge

import (
	"context"
	"fmt"

	"sigflow/internal/logger"
	"sigflow/internal/store"
)

// Report tells the operator what a purge run removed and on what grounds.
type Report struct {
	DeletedCount int64  `json:"deleted_count"`
	Criteria     string `json:"criteria"`
}

// Runner executes the malformed-record purge on demand or on a schedule.
type Runner struct {
	events store.EventStore
}

func NewRunner(events store.EventStore) *Runner {
	return &Runner{events: events}
}

// Run deletes every malformed row and reports the count. After it returns,
// derivation never needs special-case handling for corrupted identities.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if r == nil || r.events == nil {
		return Report{}, fmt.Errorf("purge runner not initialized")
	}
	deleted, err := r.events.DeleteMalformed(ctx)
	if err != nil {
		return Report{}, err
	}
	if deleted > 0 {
		logger.Infof("purge: removed %d malformed event(s)", deleted)
	}
	return Report{DeletedCount: deleted, Criteria: store.MalformedCriteria}, nil
}
