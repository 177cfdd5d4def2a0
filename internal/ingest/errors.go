package ingest

import "fmt"

// ValidationError rejects a webhook payload before it touches the store:
// either the wire format could not be recognized or a required field is
// missing/invalid. It is never retried by this system.
type ValidationError struct {
	Reason string
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("payload validation failed: %s (field %s)", e.Reason, e.Field)
	}
	return fmt.Sprintf("payload validation failed: %s", e.Reason)
}

func errUnrecognized(reason string) error {
	return &ValidationError{Reason: reason}
}

func errField(field, reason string) error {
	return &ValidationError{Reason: reason, Field: field}
}
