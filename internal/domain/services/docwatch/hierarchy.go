package docwatch

import (
	"context"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// HierarchyService manages an owner's tree of folders and document placements
type HierarchyService interface {
	// ListChildren lists direct children of parentID (nil = root) and its breadcrumb path
	ListChildren(ctx context.Context, owner string, parentID *string) (*models.Listing, error)

	// CreateFolder creates a folder
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// PlaceDocument places a tracked document in the hierarchy
	PlaceDocument(ctx context.Context, req *PlaceDocumentRequest) (*models.Placement, error)

	// Move reparents a node (nil = root); rejects cycles
	Move(ctx context.Context, owner, nodeID string, newParentID *string) (models.Node, error)

	// Rename changes a node's display name
	Rename(ctx context.Context, owner, nodeID, name string) (models.Node, error)

	// Delete removes a node and, for folders, every descendant
	Delete(ctx context.Context, owner, nodeID string) (int, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Owner    string  `json:"-"`
	Name     *string `json:"name,omitempty"`      // nil = default name
	ParentID *string `json:"parent_id,omitempty"` // null for root
}

// PlaceDocumentRequest represents a document placement request
type PlaceDocumentRequest struct {
	Owner    string  `json:"-"`
	DocID    string  `json:"doc_id"`
	ParentID *string `json:"parent_id,omitempty"`
	Name     *string `json:"name,omitempty"` // nil = the document's name
}
