package docwatch

import (
	"fmt"
	"strings"
)

// Default search configuration values
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// SearchScope restricts a hierarchy search.
type SearchScope struct {
	// Owner whose hierarchy is searched (required)
	Owner string

	// FolderID limits results to descendants of this folder; nil searches the whole hierarchy
	FolderID *string

	// Pagination
	Limit  int
	Offset int
}

// ApplyDefaults fills in default values for unset fields
func (s *SearchScope) ApplyDefaults() {
	if s.Limit <= 0 {
		s.Limit = DefaultSearchLimit
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
}

// Validate checks that required fields are set and values are reasonable
func (s *SearchScope) Validate() error {
	if strings.TrimSpace(s.Owner) == "" {
		return fmt.Errorf("owner is required")
	}
	if s.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, s.Limit)
	}
	return nil
}

// SearchResults contains matching nodes in deterministic order (case-folded name, then id).
type SearchResults struct {
	Nodes      []Node `json:"results"`
	TotalCount int    `json:"total_count"`
	HasMore    bool   `json:"has_more"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

// NewSearchResults creates a SearchResults with calculated HasMore flag
func NewSearchResults(nodes []Node, totalCount int, scope *SearchScope) *SearchResults {
	if nodes == nil {
		nodes = []Node{}
	}
	return &SearchResults{
		Nodes:      nodes,
		TotalCount: totalCount,
		HasMore:    scope.Offset+len(nodes) < totalCount,
		Offset:     scope.Offset,
		Limit:      scope.Limit,
	}
}
