package docwatch

import "context"

// WatchlistRepository defines data access operations for watchlist membership
type WatchlistRepository interface {
	// Add inserts the entry; an existing entry is left untouched
	Add(ctx context.Context, owner, docID string) error

	// Remove deletes the entry if present
	Remove(ctx context.Context, owner, docID string) error

	// Exists reports membership
	Exists(ctx context.Context, owner, docID string) (bool, error)

	// ListByOwner returns the owner's watched doc ids in ascending order
	ListByOwner(ctx context.Context, owner string) ([]string, error)
}
