package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsorted is returned when an event batch is not ordered by timestamp.
	ErrUnsorted = errors.New("events are not sorted by timestamp")

	// ErrNegativeDuration is returned when an event reports a negative duration.
	ErrNegativeDuration = errors.New("event has negative duration")

	// ErrMissingTimestamp is returned when an event has a zero timestamp.
	ErrMissingTimestamp = errors.New("event has no timestamp")
)

// Validate checks the batch-level invariants the aggregator relies on.
// The returned error wraps one of the sentinel errors and names the
// offending index.
func Validate(events []Event) error {
	for i, e := range events {
		if e.Timestamp.IsZero() {
			return fmt.Errorf("event %d: %w", i, ErrMissingTimestamp)
		}
		if e.Duration < 0 {
			return fmt.Errorf("event %d: %w", i, ErrNegativeDuration)
		}
		if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
			return fmt.Errorf("event %d at %s precedes %s: %w",
				i, e.Timestamp.Format("15:04:05"), events[i-1].Timestamp.Format("15:04:05"), ErrUnsorted)
		}
	}
	return nil
}
