package memory

import (
	"context"
	"slices"

	"github.com/nglaszik/docwatch/internal/domain"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

// WatchlistRepository implements docwatch.WatchlistRepository on a Store.
type WatchlistRepository struct {
	store *Store
}

// NewWatchlistRepository creates a watchlist repository backed by store.
func NewWatchlistRepository(store *Store) docwatchRepo.WatchlistRepository {
	return &WatchlistRepository{store: store}
}

func (r *WatchlistRepository) Add(ctx context.Context, owner, docID string) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[docID]; !ok {
		return domain.NewNotFound("document", docID)
	}
	set, ok := r.store.watchlist[owner]
	if !ok {
		set = map[string]struct{}{}
		r.store.watchlist[owner] = set
	}
	set[docID] = struct{}{}
	return nil
}

func (r *WatchlistRepository) Remove(ctx context.Context, owner, docID string) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.watchlist[owner], docID)
	return nil
}

func (r *WatchlistRepository) Exists(ctx context.Context, owner, docID string) (bool, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.watchlist[owner][docID]
	return ok, nil
}

func (r *WatchlistRepository) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	docIDs := make([]string, 0, len(r.store.watchlist[owner]))
	for docID := range r.store.watchlist[owner] {
		docIDs = append(docIDs, docID)
	}
	slices.Sort(docIDs)
	return docIDs, nil
}
