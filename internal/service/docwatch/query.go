package docwatch

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nglaszik/docwatch/internal/config"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

type queryService struct {
	nodeRepo docwatchRepo.NodeRepository
	catalog  docwatchSvc.DocumentCatalog
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	nodeRepo docwatchRepo.NodeRepository,
	catalog docwatchSvc.DocumentCatalog,
	retry RetryPolicy,
	logger *slog.Logger,
) docwatchSvc.QueryService {
	return &queryService{
		nodeRepo: nodeRepo,
		catalog:  catalog,
		retry:    retry,
		logger:   logger,
	}
}

// Search matches query case-insensitively against node and document names at any
// depth. Results are ordered by case-folded name, then id, so pages are stable.
func (s *queryService) Search(ctx context.Context, query string, scope *models.SearchScope) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	scope.FolderID = rootIfEmpty(scope.FolderID)
	scope.ApplyDefaults()

	if err := scope.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if err := asValidation(validation.Errors{
		"query": validation.Validate(query, validation.Length(0, config.MaxSearchQueryLength)),
	}.Filter()); err != nil {
		return nil, err
	}

	var nodes []models.Node
	var total int
	err := withRetry(ctx, s.retry, s.logger, "search nodes", func() error {
		if scope.FolderID != nil {
			folder, err := s.nodeRepo.GetByID(ctx, scope.Owner, *scope.FolderID)
			if err != nil {
				return err
			}
			if !folder.IsFolder() {
				return notAFolder(folder)
			}
		}

		var err error
		nodes, total, err = s.nodeRepo.Search(ctx, query, scope)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search completed",
		"owner", scope.Owner,
		"query", query,
		"results", len(nodes),
		"total", total,
	)

	return models.NewSearchResults(nodes, total, scope), nil
}

// SearchDocuments delegates to the document catalog
func (s *queryService) SearchDocuments(ctx context.Context, query string, limit int) ([]models.Document, error) {
	return s.catalog.Search(ctx, query, limit)
}
