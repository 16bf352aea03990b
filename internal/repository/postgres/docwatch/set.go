package docwatch

import (
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// NewRepositories wires every repository to one pool.
func NewRepositories(config *postgres.RepositoryConfig) docwatchRepo.Repositories {
	return docwatchRepo.Repositories{
		Nodes:     NewNodeRepository(config),
		Documents: NewDocumentRepository(config),
		Revisions: NewRevisionRepository(config),
		Watchlist: NewWatchlistRepository(config),
		Tx:        postgres.NewTransactionManager(config.Pool, config.Logger),
	}
}
