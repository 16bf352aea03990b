package docwatch

import (
	"context"
	"time"

	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// NodeRepository defines data access operations for hierarchy nodes.
// Every method is scoped to a single owner's hierarchy.
type NodeRepository interface {
	// Create inserts a folder or placement node
	Create(ctx context.Context, node models.Node) error

	// GetByID retrieves a node, enriched with document data for placements
	GetByID(ctx context.Context, owner, id string) (models.Node, error)

	// UpdateParent reparents a node (nil = root)
	UpdateParent(ctx context.Context, owner, id string, parentID *string, updatedAt time.Time) error

	// UpdateName changes a node's display name
	UpdateName(ctx context.Context, owner, id, name string, updatedAt time.Time) error

	// ListChildren lists direct children of parentID (nil = root level),
	// folders first, then case-folded name, then id
	ListChildren(ctx context.Context, owner string, parentID *string) ([]models.Node, error)

	// ListAncestors returns the chain from id up to its root, id first.
	// maxDepth bounds the walk; a longer chain is reported as an invariant violation.
	ListAncestors(ctx context.Context, owner, id string, maxDepth int) ([]models.Node, error)

	// SubtreeHeight returns the number of levels in the subtree rooted at id (1 for a
	// leaf). Counting stops at maxDepth+1.
	SubtreeHeight(ctx context.Context, owner, id string, maxDepth int) (int, error)

	// DeleteSubtree removes id and all of its descendants, returning how many nodes were removed
	DeleteSubtree(ctx context.Context, owner, id string) (int, error)

	// FindPlacement returns the owner's placement of docID, or nil if there is none
	FindPlacement(ctx context.Context, owner, docID string) (*models.Placement, error)

	// Search matches query case-insensitively against node names and, for placements,
	// the document's name. Returns one page plus the total match count.
	Search(ctx context.Context, query string, scope *models.SearchScope) ([]models.Node, int, error)

	// LockOwner serializes hierarchy mutations for owner until the surrounding transaction ends
	LockOwner(ctx context.Context, owner string) error
}
