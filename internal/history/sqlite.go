package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite brightness history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new brightness history entry.
func (r *SQLiteRepository) Record(ctx context.Context, entry Entry) error {
	if entry.Serial == "" {
		return fmt.Errorf("monitor serial is required")
	}
	if entry.Value < 0 || entry.Value > 100 {
		return fmt.Errorf("brightness %d outside 0-100", entry.Value)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO brightness_history (serial, name, channel, value) VALUES (?, ?, ?, ?)",
		entry.Serial,
		entry.Name,
		entry.Channel,
		entry.Value,
	)
	if err != nil {
		return fmt.Errorf("inserting brightness history: %w", err)
	}

	return nil
}

// Recent returns the latest entries for a monitor, newest first.
// The limit defaults to 50 and is clamped to 200.
func (r *SQLiteRepository) Recent(ctx context.Context, serial string, limit int) ([]Entry, error) {
	if serial == "" {
		return nil, fmt.Errorf("monitor serial is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, serial, name, channel, value, recorded_at
		 FROM brightness_history
		 WHERE serial = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		serial,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying brightness history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.Serial, &entry.Name, &entry.Channel, &entry.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning brightness history: %w", err)
		}

		timestamp, err := parseTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating brightness history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM brightness_history WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting brightness history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
}
