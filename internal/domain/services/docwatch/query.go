package docwatch

import (
	"context"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// QueryService answers read-only lookups that span the hierarchy and catalog
type QueryService interface {
	// Search matches query against node and document names across the hierarchy
	Search(ctx context.Context, query string, scope *models.SearchScope) (*models.SearchResults, error)

	// SearchDocuments looks documents up in the catalog
	SearchDocuments(ctx context.Context, query string, limit int) ([]models.Document, error)
}

// DocumentCatalog registers tracked documents on behalf of the content producer
type DocumentCatalog interface {
	// Register creates the document or renames it; idempotent
	Register(ctx context.Context, req *RegisterDocumentRequest) (*models.Document, error)

	// Get retrieves a document
	Get(ctx context.Context, docID string) (*models.Document, error)

	// Search matches doc id, name and owner
	Search(ctx context.Context, query string, limit int) ([]models.Document, error)
}

// RegisterDocumentRequest represents a document registration
type RegisterDocumentRequest struct {
	DocID string `json:"doc_id"`
	Owner string `json:"owner_username"`
	Name  string `json:"name"`
}
