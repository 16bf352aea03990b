package docwatch

import "context"

// WatchlistService tracks which documents each owner watches
type WatchlistService interface {
	Add(ctx context.Context, owner, docID string) error
	Remove(ctx context.Context, owner, docID string) error
	IsWatching(ctx context.Context, owner, docID string) (bool, error)
	ListWatched(ctx context.Context, owner string) ([]string, error)
}
