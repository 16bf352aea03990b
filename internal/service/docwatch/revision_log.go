package docwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/diff"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	"github.com/nglaszik/docwatch/internal/domain/repositories"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

type revisionService struct {
	docRepo   docwatchRepo.DocumentRepository
	revRepo   docwatchRepo.RevisionRepository
	txManager repositories.TransactionManager
	engine    *diff.Engine
	locks     *keyedMutex
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewRevisionService creates a new revision log service
func NewRevisionService(
	docRepo docwatchRepo.DocumentRepository,
	revRepo docwatchRepo.RevisionRepository,
	txManager repositories.TransactionManager,
	engine *diff.Engine,
	retry RetryPolicy,
	logger *slog.Logger,
) docwatchSvc.RevisionService {
	return &revisionService{
		docRepo:   docRepo,
		revRepo:   revRepo,
		txManager: txManager,
		engine:    engine,
		locks:     newKeyedMutex(),
		retry:     retry,
		logger:    logger,
	}
}

// Append diffs the delivered content against the document's latest snapshot and
// stores the result. Appends for one document run one at a time: in-process via
// the keyed mutex and across processes via the document row lock.
//
// Re-delivering a revision already stored at the same timestamp with the same
// content returns the stored revision. Any other timestamp at or before the
// document's last_updated is rejected.
func (s *revisionService) Append(ctx context.Context, req *docwatchSvc.AppendRequest) (*models.Revision, error) {
	req.DocID = normalizeDocID(req.DocID)
	if err := s.validateAppendRequest(req); err != nil {
		return nil, err
	}

	revisionTime := models.NormalizeRevisionTime(req.Timestamp)
	hash := models.HashContent(req.Content)

	unlock := s.locks.Lock(req.DocID)
	defer unlock()

	var result *models.Revision
	var duplicate bool
	err := withRetry(ctx, s.retry, s.logger, "append revision", func() error {
		duplicate = false
		return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			doc, err := s.docRepo.GetForUpdate(ctx, req.DocID)
			if err != nil {
				return err
			}

			existing, err := s.revRepo.Get(ctx, req.DocID, revisionTime)
			switch {
			case err == nil && existing.ContentHash == hash:
				result, duplicate = existing, true
				return nil
			case err == nil:
				return &domain.ConflictError{
					Message:      fmt.Sprintf("a different revision of %s is already recorded at %s", req.DocID, revisionTime.Format(time.RFC3339Nano)),
					ResourceType: "revision",
					ResourceID:   req.DocID,
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}

			if doc.LastUpdated != nil && !revisionTime.After(*doc.LastUpdated) {
				return &domain.ConflictError{
					Message: fmt.Sprintf("revision time %s is not after the latest revision of %s (%s)",
						revisionTime.Format(time.RFC3339Nano), req.DocID, doc.LastUpdated.Format(time.RFC3339Nano)),
					ResourceType: "revision",
					ResourceID:   req.DocID,
				}
			}

			res, err := s.compute(doc.LatestContent, req.Content)
			if err != nil {
				return err
			}

			rev := &models.Revision{
				DocID:        req.DocID,
				RevisionTime: revisionTime,
				AddedCount:   res.Added,
				DeletedCount: res.Deleted,
				Unit:         s.engine.Options().Unit,
				ContentHash:  hash,
				Content:      req.Content,
				Blocks:       res.Blocks,
				Approximate:  res.Approximate,
				CreatedAt:    now(),
			}
			if err := s.revRepo.Create(ctx, rev); err != nil {
				return err
			}
			if err := s.docRepo.UpdateLatest(ctx, req.DocID, revisionTime, req.Content); err != nil {
				return err
			}

			result = rev
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		s.logger.Debug("duplicate revision delivery ignored",
			"doc_id", req.DocID,
			"revision_time", revisionTime,
		)
		return result, nil
	}

	s.logger.Info("revision appended",
		"doc_id", result.DocID,
		"revision_time", result.RevisionTime,
		"added", result.AddedCount,
		"deleted", result.DeletedCount,
		"approximate", result.Approximate,
	)

	return result, nil
}

// List returns revision summaries newest-first
func (s *revisionService) List(ctx context.Context, docID string) ([]models.RevisionSummary, error) {
	docID = normalizeDocID(docID)
	var summaries []models.RevisionSummary
	err := withRetry(ctx, s.retry, s.logger, "list revisions", func() error {
		if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
			return err
		}
		var err error
		summaries, err = s.revRepo.ListSummaries(ctx, docID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// DiffBetween returns the stored blocks of a revision, recomputing them from the
// content snapshots when no payload was stored.
func (s *revisionService) DiffBetween(ctx context.Context, docID string, revisionTime time.Time) (diff.Blocks, error) {
	docID = normalizeDocID(docID)
	revisionTime = models.NormalizeRevisionTime(revisionTime)

	var rev, prev *models.Revision
	err := withRetry(ctx, s.retry, s.logger, "diff between", func() error {
		var err error
		if rev, err = s.revRepo.Get(ctx, docID, revisionTime); err != nil {
			return err
		}
		if rev.Blocks != nil {
			return nil
		}
		prev, err = s.revRepo.GetPrevious(ctx, docID, revisionTime)
		return err
	})
	if err != nil {
		return nil, err
	}

	if rev.Blocks != nil {
		return rev.Blocks, nil
	}

	old := ""
	if prev != nil {
		old = prev.Content
	}
	res, err := s.compute(old, rev.Content)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("diff recomputed from snapshots", "doc_id", docID, "revision_time", revisionTime)
	return res.Blocks, nil
}

func (s *revisionService) compute(old, new string) (*diff.Result, error) {
	res, err := s.engine.Compute(old, new)
	if err != nil {
		var limitErr *diff.LimitError
		if errors.As(err, &limitErr) {
			return nil, &domain.ResourceLimitError{
				Message: fmt.Sprintf("diff input has %d tokens, more than the limit of %d", limitErr.Tokens, limitErr.Limit),
				Limit:   limitErr.Limit,
				Actual:  limitErr.Tokens,
			}
		}
		return nil, fmt.Errorf("compute diff: %w", err)
	}
	return res, nil
}

func (s *revisionService) validateAppendRequest(req *docwatchSvc.AppendRequest) error {
	if len(req.Content) > config.MaxContentBytes {
		return &domain.ResourceLimitError{
			Message: fmt.Sprintf("content is %d bytes, more than the limit of %d", len(req.Content), config.MaxContentBytes),
			Limit:   config.MaxContentBytes,
			Actual:  len(req.Content),
		}
	}
	if !utf8.ValidString(req.Content) {
		return domain.NewValidation("content must be valid UTF-8")
	}
	// Postgres text columns cannot hold NUL.
	if strings.IndexByte(req.Content, 0) >= 0 {
		return domain.NewValidation("content must not contain NUL bytes")
	}
	return asValidation(validation.ValidateStruct(req,
		validation.Field(&req.DocID, docIDRules...),
		validation.Field(&req.Timestamp, validation.Required),
	))
}
