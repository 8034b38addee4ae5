// Package history persists applied brightness values.
//
// Every successful set operation is recorded so the daemon can answer
// "what was this monitor at yesterday evening" without any external
// time-series infrastructure. Entries are keyed by the monitor serial,
// which is stable across reboots, unlike channel indexes.
package history

import (
	"context"
	"time"
)

// Entry represents one applied brightness value.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// Serial is the Windows-assigned serial of the monitor.
	Serial string `json:"serial"`

	// Name is the display name at the time of the write.
	Name string `json:"name"`

	// Channel is the control channel that carried the write.
	Channel string `json:"channel"`

	// Value is the applied brightness percentage.
	Value int `json:"value"`

	// RecordedAt is the timestamp of the write (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository stores and retrieves brightness history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists one applied brightness value.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entry: Value to persist; ID and RecordedAt are assigned by the store
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, entry Entry) error

	// Recent returns the latest entries for a monitor, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - serial: Monitor serial to look up
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Entry: Entries ordered by recorded_at DESC
	//   - error: nil on success, otherwise the underlying query error
	Recent(ctx context.Context, serial string, limit int) ([]Entry, error)

	// Prune deletes entries older than the given duration.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - olderThan: Retention window; older entries are deleted
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying database error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
