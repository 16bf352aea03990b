package docwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nglaszik/docwatch/internal/diff"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// PostgresRevisionRepository implements the RevisionRepository interface
type PostgresRevisionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(config *postgres.RepositoryConfig) docwatchRepo.RevisionRepository {
	return &PostgresRevisionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const revisionColumns = `doc_id, revision_time, added_count, deleted_count, unit, content_hash, content, blocks, approximate, created_at`

// Create appends a revision
func (r *PostgresRevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	var blocks []byte
	if rev.Blocks != nil {
		var err error
		if blocks, err = json.Marshal(rev.Blocks); err != nil {
			return fmt.Errorf("marshal diff blocks: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Revisions, revisionColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		rev.DocID,
		rev.RevisionTime,
		rev.AddedCount,
		rev.DeletedCount,
		string(rev.Unit),
		rev.ContentHash,
		rev.Content,
		blocks,
		rev.Approximate,
		rev.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("revision of %s at %s already exists", rev.DocID, rev.RevisionTime.Format(time.RFC3339Nano)),
				ResourceType: "revision",
				ResourceID:   rev.DocID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("document", rev.DocID)
		}
		return postgres.Wrap("create revision", err)
	}

	return nil
}

// Get retrieves the revision at exactly revisionTime
func (r *PostgresRevisionRepository) Get(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE doc_id = $1 AND revision_time = $2
	`, revisionColumns, r.tables.Revisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rev, err := scanRevision(executor.QueryRow(ctx, query, docID, revisionTime))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{
				Resource: "revision",
				ID:       docID,
				Message:  fmt.Sprintf("revision of %s at %s not found", docID, revisionTime.Format(time.RFC3339Nano)),
			}
		}
		return nil, postgres.Wrap("get revision", err)
	}
	return rev, nil
}

// GetPrevious returns the newest revision strictly before revisionTime, or nil
func (r *PostgresRevisionRepository) GetPrevious(ctx context.Context, docID string, revisionTime time.Time) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE doc_id = $1 AND revision_time < $2
		ORDER BY revision_time DESC
		LIMIT 1
	`, revisionColumns, r.tables.Revisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rev, err := scanRevision(executor.QueryRow(ctx, query, docID, revisionTime))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, postgres.Wrap("get previous revision", err)
	}
	return rev, nil
}

// ListSummaries lists a document's revisions newest-first
func (r *PostgresRevisionRepository) ListSummaries(ctx context.Context, docID string) ([]models.RevisionSummary, error) {
	query := fmt.Sprintf(`
		SELECT revision_time, added_count, deleted_count
		FROM %s
		WHERE doc_id = $1
		ORDER BY revision_time DESC
	`, r.tables.Revisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, docID)
	if err != nil {
		return nil, postgres.Wrap("list revisions", err)
	}
	defer rows.Close()

	summaries := []models.RevisionSummary{}
	for rows.Next() {
		var s models.RevisionSummary
		if err := rows.Scan(&s.RevisionTime, &s.AddedCount, &s.DeletedCount); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		s.RevisionTime = s.RevisionTime.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("iterate revisions", err)
	}

	return summaries, nil
}

func scanRevision(row pgx.Row) (*models.Revision, error) {
	var rev models.Revision
	var unit string
	var blocks []byte

	err := row.Scan(
		&rev.DocID,
		&rev.RevisionTime,
		&rev.AddedCount,
		&rev.DeletedCount,
		&unit,
		&rev.ContentHash,
		&rev.Content,
		&blocks,
		&rev.Approximate,
		&rev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rev.Unit = diff.Unit(unit)
	rev.RevisionTime = rev.RevisionTime.UTC()
	rev.CreatedAt = rev.CreatedAt.UTC()
	if len(blocks) > 0 {
		if err := json.Unmarshal(blocks, &rev.Blocks); err != nil {
			return nil, &domain.InvariantViolationError{
				Message: "stored diff payload of " + rev.DocID + " is not valid JSON",
				Detail:  map[string]any{"doc_id": rev.DocID, "revision_time": rev.RevisionTime, "error": err.Error()},
			}
		}
	}
	return &rev, nil
}
