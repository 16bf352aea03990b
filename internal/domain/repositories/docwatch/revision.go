package docwatch

import (
	"context"
	"time"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// RevisionRepository defines data access operations for the append-only revision log
type RevisionRepository interface {
	// Create appends a revision; a duplicate (doc_id, revision_time) is a conflict
	Create(ctx context.Context, rev *models.Revision) error

	// Get retrieves the revision at exactly revisionTime
	Get(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error)

	// GetPrevious returns the newest revision strictly before revisionTime, or nil if none
	GetPrevious(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error)

	// ListSummaries lists a document's revisions newest-first
	ListSummaries(ctx context.Context, docID string) ([]models.RevisionSummary, error)
}
