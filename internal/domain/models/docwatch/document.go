package docwatch

import (
	"time"
)

// Document is an externally tracked content source.
type Document struct {
	DocID         string     `json:"doc_id" db:"doc_id"` // External id assigned by the content producer
	Owner         string     `json:"owner_username" db:"owner"`
	Name          string     `json:"name" db:"name"`
	LastUpdated   *time.Time `json:"last_updated" db:"last_updated"` // Time of the latest revision, NULL before the first
	LatestContent string     `json:"-" db:"latest_content"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// DefaultCatalogLimit is the page size of a catalog search.
const DefaultCatalogLimit = 20
