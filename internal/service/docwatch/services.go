package docwatch

import (
	"log/slog"

	"github.com/nglaszik/docwatch/internal/diff"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

// Services is the assembled docwatch core.
type Services struct {
	Hierarchy docwatchSvc.HierarchyService
	Revisions docwatchSvc.RevisionService
	Watchlist docwatchSvc.WatchlistService
	Query     docwatchSvc.QueryService
	Catalog   docwatchSvc.DocumentCatalog
}

// New wires all services onto one set of repositories.
func New(repos docwatchRepo.Repositories, engine *diff.Engine, retry RetryPolicy, logger *slog.Logger) *Services {
	catalog := NewDocumentCatalog(repos.Documents, repos.Tx, retry, logger)
	return &Services{
		Hierarchy: NewHierarchyService(repos.Nodes, repos.Documents, repos.Tx, retry, logger),
		Revisions: NewRevisionService(repos.Documents, repos.Revisions, repos.Tx, engine, retry, logger),
		Watchlist: NewWatchlistService(repos.Watchlist, repos.Documents, retry, logger),
		Query:     NewQueryService(repos.Nodes, catalog, retry, logger),
		Catalog:   catalog,
	}
}
