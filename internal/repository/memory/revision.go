package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

// RevisionRepository implements docwatch.RevisionRepository on a Store.
type RevisionRepository struct {
	store *Store
}

// NewRevisionRepository creates a revision repository backed by store.
func NewRevisionRepository(store *Store) docwatchRepo.RevisionRepository {
	return &RevisionRepository{store: store}
}

func (r *RevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[rev.DocID]; !ok {
		return domain.NewNotFound("document", rev.DocID)
	}

	revs := r.store.revisions[rev.DocID]
	i, found := slices.BinarySearchFunc(revs, rev.RevisionTime, func(existing models.Revision, t time.Time) int {
		return existing.RevisionTime.Compare(t)
	})
	if found {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("revision of %s at %s already exists", rev.DocID, rev.RevisionTime.Format(time.RFC3339Nano)),
			ResourceType: "revision",
			ResourceID:   rev.DocID,
		}
	}

	r.store.revisions[rev.DocID] = slices.Insert(revs, i, *rev)
	return nil
}

func (r *RevisionRepository) Get(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	revs := r.store.revisions[docID]
	i, found := slices.BinarySearchFunc(revs, revisionTime, func(existing models.Revision, t time.Time) int {
		return existing.RevisionTime.Compare(t)
	})
	if !found {
		return nil, &domain.NotFoundError{
			Resource: "revision",
			ID:       docID,
			Message:  fmt.Sprintf("revision of %s at %s not found", docID, revisionTime.Format(time.RFC3339Nano)),
		}
	}
	rev := revs[i]
	return &rev, nil
}

func (r *RevisionRepository) GetPrevious(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	revs := r.store.revisions[docID]
	i, _ := slices.BinarySearchFunc(revs, revisionTime, func(existing models.Revision, t time.Time) int {
		return existing.RevisionTime.Compare(t)
	})
	if i == 0 {
		return nil, nil
	}
	rev := revs[i-1]
	return &rev, nil
}

func (r *RevisionRepository) ListSummaries(ctx context.Context, docID string) ([]models.RevisionSummary, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	revs := r.store.revisions[docID]
	summaries := make([]models.RevisionSummary, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		summaries = append(summaries, revs[i].Summary())
	}
	return summaries, nil
}
