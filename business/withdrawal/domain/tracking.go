package domain

import (
	"fmt"
	"time"
)

// Tracking is the append-only audit trail of a withdrawal. Keys are
// timestamped event names, values are human-readable details. Writers only
// ever merge new keys in; existing keys are never overwritten or dropped,
// so the full protocol history survives for support and dispute handling.
type Tracking map[string]string

// Record adds an audit entry stamped with the current time. A nanosecond
// suffix keeps repeated events (retries) from colliding on the same key.
func (t Tracking) Record(event, detail string) {
	key := fmt.Sprintf("%s@%s", event, time.Now().UTC().Format(time.RFC3339Nano))
	t[key] = detail
}

// Recordf is Record with formatting.
func (t Tracking) Recordf(event, format string, args ...any) {
	t.Record(event, fmt.Sprintf(format, args...))
}

// Merge returns a copy of t with entries from other added. Keys already
// present in t win: audit history is immutable.
func (t Tracking) Merge(other Tracking) Tracking {
	merged := make(Tracking, len(t)+len(other))
	for k, v := range other {
		merged[k] = v
	}
	for k, v := range t {
		merged[k] = v
	}
	return merged
}
