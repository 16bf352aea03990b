package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

// DocumentRepository implements docwatch.DocumentRepository on a Store.
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates a document repository backed by store.
func NewDocumentRepository(store *Store) docwatchRepo.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.documents[doc.DocID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document '%s' already exists", doc.DocID),
			ResourceType: "document",
			ResourceID:   doc.DocID,
		}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	r.store.documents[doc.DocID] = *doc
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, docID string) (*models.Document, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	doc, ok := r.store.documents[docID]
	if !ok {
		return nil, domain.NewNotFound("document", docID)
	}
	return &doc, nil
}

// GetForUpdate is GetByID: Store transactions are already exclusive.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, docID string) (*models.Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *DocumentRepository) UpdateName(ctx context.Context, docID, name string) error {
	defer r.store.guard(ctx, true)()
	return r.update(docID, func(doc *models.Document) { doc.Name = name })
}

func (r *DocumentRepository) UpdateLatest(ctx context.Context, docID string, lastUpdated time.Time, content string) error {
	defer r.store.guard(ctx, true)()
	return r.update(docID, func(doc *models.Document) {
		doc.LastUpdated = &lastUpdated
		doc.LatestContent = content
	})
}

func (r *DocumentRepository) update(docID string, fn func(*models.Document)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, ok := r.store.documents[docID]
	if !ok {
		return domain.NewNotFound("document", docID)
	}
	fn(&doc)
	r.store.documents[docID] = doc
	return nil
}

func (r *DocumentRepository) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	q := strings.ToLower(query)
	docs := []models.Document{}
	for _, doc := range r.store.documents {
		if q == "" ||
			strings.Contains(strings.ToLower(doc.DocID), q) ||
			strings.Contains(strings.ToLower(doc.Name), q) ||
			strings.Contains(strings.ToLower(doc.Owner), q) {
			doc.LatestContent = ""
			docs = append(docs, doc)
		}
	}

	slices.SortFunc(docs, func(a, b models.Document) int {
		switch {
		case a.LastUpdated == nil && b.LastUpdated != nil:
			return 1
		case a.LastUpdated != nil && b.LastUpdated == nil:
			return -1
		case a.LastUpdated != nil && !a.LastUpdated.Equal(*b.LastUpdated):
			return b.LastUpdated.Compare(*a.LastUpdated)
		}
		return strings.Compare(a.DocID, b.DocID)
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}
