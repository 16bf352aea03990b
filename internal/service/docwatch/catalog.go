package docwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	"github.com/nglaszik/docwatch/internal/domain/repositories"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

type documentCatalog struct {
	docRepo   docwatchRepo.DocumentRepository
	txManager repositories.TransactionManager
	locks     *keyedMutex
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewDocumentCatalog creates a new document catalog
func NewDocumentCatalog(
	docRepo docwatchRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	retry RetryPolicy,
	logger *slog.Logger,
) docwatchSvc.DocumentCatalog {
	return &documentCatalog{
		docRepo:   docRepo,
		txManager: txManager,
		locks:     newKeyedMutex(),
		retry:     retry,
		logger:    logger,
	}
}

// Register creates the document, or renames it when it already exists for the
// same owner. A document registered by another owner is a conflict.
func (c *documentCatalog) Register(ctx context.Context, req *docwatchSvc.RegisterDocumentRequest) (*models.Document, error) {
	req.DocID = normalizeDocID(req.DocID)
	req.Owner = strings.TrimSpace(req.Owner)
	req.Name = strings.TrimSpace(req.Name)
	if err := asValidation(validation.ValidateStruct(req,
		validation.Field(&req.DocID, docIDRules...),
		validation.Field(&req.Owner, ownerRules...),
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxDocumentNameLength)),
	)); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(req.DocID)
	defer unlock()

	var doc *models.Document
	var created, renamed bool
	err := withRetry(ctx, c.retry, c.logger, "register document", func() error {
		created, renamed = false, false
		return c.txManager.ExecTx(ctx, func(ctx context.Context) error {
			existing, err := c.docRepo.GetByID(ctx, req.DocID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				doc = &models.Document{
					DocID:     req.DocID,
					Owner:     req.Owner,
					Name:      req.Name,
					CreatedAt: now(),
				}
				created = true
				return c.docRepo.Create(ctx, doc)
			case err != nil:
				return err
			}

			if existing.Owner != req.Owner {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("document %s is registered to another owner", req.DocID),
					ResourceType: "document",
					ResourceID:   req.DocID,
				}
			}
			if existing.Name != req.Name {
				if err := c.docRepo.UpdateName(ctx, req.DocID, req.Name); err != nil {
					return err
				}
				existing.Name = req.Name
				renamed = true
			}
			doc = existing
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	switch {
	case created:
		c.logger.Info("document registered", "doc_id", doc.DocID, "owner", doc.Owner, "name", doc.Name)
	case renamed:
		c.logger.Info("document renamed", "doc_id", doc.DocID, "name", doc.Name)
	}

	return doc, nil
}

// Get retrieves a document
func (c *documentCatalog) Get(ctx context.Context, docID string) (*models.Document, error) {
	docID = normalizeDocID(docID)
	var doc *models.Document
	err := withRetry(ctx, c.retry, c.logger, "get document", func() error {
		var err error
		doc, err = c.docRepo.GetByID(ctx, docID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Search matches doc id, name and owner; the most recently updated come first
func (c *documentCatalog) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = models.DefaultCatalogLimit
	}
	if err := asValidation(validation.Errors{
		"query": validation.Validate(query, validation.Length(0, config.MaxSearchQueryLength)),
		"limit": validation.Validate(limit, validation.Max(config.MaxCatalogLimit)),
	}.Filter()); err != nil {
		return nil, err
	}

	var docs []models.Document
	err := withRetry(ctx, c.retry, c.logger, "search documents", func() error {
		var err error
		docs, err = c.docRepo.Search(ctx, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
