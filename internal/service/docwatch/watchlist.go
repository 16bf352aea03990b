package docwatch

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

type watchlistService struct {
	watchRepo docwatchRepo.WatchlistRepository
	docRepo   docwatchRepo.DocumentRepository
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewWatchlistService creates a new watchlist service
func NewWatchlistService(
	watchRepo docwatchRepo.WatchlistRepository,
	docRepo docwatchRepo.DocumentRepository,
	retry RetryPolicy,
	logger *slog.Logger,
) docwatchSvc.WatchlistService {
	return &watchlistService{
		watchRepo: watchRepo,
		docRepo:   docRepo,
		retry:     retry,
		logger:    logger,
	}
}

// Add watches docID; adding an entry twice is a no-op
func (s *watchlistService) Add(ctx context.Context, owner, docID string) error {
	docID = normalizeDocID(docID)
	if err := validateEntry(owner, docID); err != nil {
		return err
	}

	err := withRetry(ctx, s.retry, s.logger, "watch document", func() error {
		if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
			return err
		}
		return s.watchRepo.Add(ctx, owner, docID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("document watched", "owner", owner, "doc_id", docID)
	return nil
}

// Remove stops watching docID; removing an absent entry is a no-op
func (s *watchlistService) Remove(ctx context.Context, owner, docID string) error {
	docID = normalizeDocID(docID)
	if err := validateEntry(owner, docID); err != nil {
		return err
	}

	err := withRetry(ctx, s.retry, s.logger, "unwatch document", func() error {
		return s.watchRepo.Remove(ctx, owner, docID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("document unwatched", "owner", owner, "doc_id", docID)
	return nil
}

func (s *watchlistService) IsWatching(ctx context.Context, owner, docID string) (bool, error) {
	docID = normalizeDocID(docID)
	if err := validateEntry(owner, docID); err != nil {
		return false, err
	}

	var watching bool
	err := withRetry(ctx, s.retry, s.logger, "check watchlist", func() error {
		var err error
		watching, err = s.watchRepo.Exists(ctx, owner, docID)
		return err
	})
	return watching, err
}

// ListWatched returns the owner's watched doc ids in ascending order
func (s *watchlistService) ListWatched(ctx context.Context, owner string) ([]string, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	var docIDs []string
	err := withRetry(ctx, s.retry, s.logger, "list watchlist", func() error {
		var err error
		docIDs, err = s.watchRepo.ListByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docIDs, nil
}

func validateEntry(owner, docID string) error {
	return asValidation(validation.Errors{
		"owner":  validation.Validate(owner, ownerRules...),
		"doc_id": validation.Validate(docID, docIDRules...),
	}.Filter())
}
