package docwatch

import "github.com/nglaszik/docwatch/internal/domain/repositories"

// Repositories groups one storage backend's implementations.
type Repositories struct {
	Nodes     NodeRepository
	Documents DocumentRepository
	Revisions RevisionRepository
	Watchlist WatchlistRepository
	Tx        repositories.TransactionManager
}
