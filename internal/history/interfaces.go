// Package history records every exchange with the model in an append-only log.
package history

import "context"

// Store defines the interface for the exchange log.
// Entries are never rewritten once appended.
type Store interface {
	// Append records one exchange
	Append(ctx context.Context, e *Exchange) error

	// Recent returns up to n exchanges, newest first
	Recent(ctx context.Context, n int) ([]Exchange, error)

	// Close releases the underlying file or database
	Close() error
}

// Ensure concrete types implement the interface
var _ Store = (*JSONStore)(nil)
var _ Store = (*SQLiteStore)(nil)
