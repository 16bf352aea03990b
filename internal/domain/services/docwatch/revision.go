package docwatch

import (
	"context"
	"time"

	"github.com/nglaszik/docwatch/internal/diff"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
)

// RevisionService owns the append-only revision log
type RevisionService interface {
	// Append records a new content snapshot for a document
	Append(ctx context.Context, req *AppendRequest) (*models.Revision, error)

	// List returns the document's revision summaries, newest first
	List(ctx context.Context, docID string) ([]models.RevisionSummary, error)

	// DiffBetween returns the blocks between the named revision and its predecessor
	DiffBetween(ctx context.Context, docID string, revisionTime time.Time) (diff.Blocks, error)
}

// AppendRequest is a content producer delivery
type AppendRequest struct {
	DocID     string    `json:"doc_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
