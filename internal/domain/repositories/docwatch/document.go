package docwatch

import (
	"context"
	"time"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// DocumentRepository defines data access operations for tracked documents
type DocumentRepository interface {
	// Create registers a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by its external id
	GetByID(ctx context.Context, docID string) (*models.Document, error)

	// GetForUpdate retrieves a document and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, docID string) (*models.Document, error)

	// UpdateName renames a document
	UpdateName(ctx context.Context, docID, name string) error

	// UpdateLatest records the newest revision time and content snapshot
	UpdateLatest(ctx context.Context, docID string, lastUpdated time.Time, content string) error

	// Search matches query against doc id, name and owner, most recently updated first
	Search(ctx context.Context, query string, limit int) ([]models.Document, error)
}
