package docwatch

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/nglaszik/docwatch/internal/diff"
)

// Revision is an immutable point-in-time record of a document's content delta.
type Revision struct {
	DocID        string      `json:"doc_id" db:"doc_id"`
	RevisionTime time.Time   `json:"revision_time" db:"revision_time"`
	AddedCount   int         `json:"added_count" db:"added_count"`
	DeletedCount int         `json:"deleted_count" db:"deleted_count"`
	Unit         diff.Unit   `json:"unit" db:"unit"`
	ContentHash  string      `json:"content_hash" db:"content_hash"`
	Content      string      `json:"-" db:"content"`
	Blocks       diff.Blocks `json:"-" db:"blocks"` // Stored diff payload; nil when it must be recomputed
	Approximate  bool        `json:"approximate,omitempty" db:"approximate"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Summary projects the revision onto its list shape.
func (r *Revision) Summary() RevisionSummary {
	return RevisionSummary{
		RevisionTime: r.RevisionTime,
		AddedCount:   r.AddedCount,
		DeletedCount: r.DeletedCount,
	}
}

// RevisionSummary is the shape returned when listing a document's history.
type RevisionSummary struct {
	RevisionTime time.Time `json:"revision_time"`
	AddedCount   int       `json:"added_count"`
	DeletedCount int       `json:"deleted_count"`
}

// HashContent returns the hex SHA-256 of a content snapshot.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NormalizeRevisionTime drops the precision the database cannot keep so that stored
// and delivered timestamps compare equal.
func NormalizeRevisionTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
