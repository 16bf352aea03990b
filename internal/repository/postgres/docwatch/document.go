package docwatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docwatchRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const documentColumns = `doc_id, owner, name, last_updated, latest_content, created_at`

// Create registers a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (doc_id, owner, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, doc.DocID, doc.Owner, doc.Name, doc.CreatedAt).Scan(&doc.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document '%s' already exists", doc.DocID),
				ResourceType: "document",
				ResourceID:   doc.DocID,
			}
		}
		return postgres.Wrap("create document", err)
	}
	doc.CreatedAt = doc.CreatedAt.UTC()

	return nil
}

// GetByID retrieves a document by its external id
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, docID string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE doc_id = $1`, documentColumns, r.tables.Documents)
	return r.get(ctx, query, docID)
}

// GetForUpdate retrieves a document holding its row lock
func (r *PostgresDocumentRepository) GetForUpdate(ctx context.Context, docID string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE doc_id = $1 FOR UPDATE`, documentColumns, r.tables.Documents)
	return r.get(ctx, query, docID)
}

func (r *PostgresDocumentRepository) get(ctx context.Context, query, docID string) (*models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, docID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("document", docID)
		}
		return nil, postgres.Wrap("get document", err)
	}
	return doc, nil
}

// UpdateName renames a document
func (r *PostgresDocumentRepository) UpdateName(ctx context.Context, docID, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE doc_id = $2`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, name, docID)
	if err != nil {
		return postgres.Wrap("rename document", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", docID)
	}
	return nil
}

// UpdateLatest records the newest revision time and its content snapshot
func (r *PostgresDocumentRepository) UpdateLatest(ctx context.Context, docID string, lastUpdated time.Time, content string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_updated = $1, latest_content = $2
		WHERE doc_id = $3
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, lastUpdated, content, docID)
	if err != nil {
		return postgres.Wrap("update document latest", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("document", docID)
	}
	return nil
}

// Search matches doc id, name and owner; unrevised documents sort last
func (r *PostgresDocumentRepository) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE $1 = ''
		   OR strpos(lower(doc_id), lower($1)) > 0
		   OR strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(owner), lower($1)) > 0
		ORDER BY last_updated DESC NULLS LAST, doc_id COLLATE "C"
		LIMIT $2
	`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, postgres.Wrap("search documents", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.LatestContent = ""
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("iterate documents", err)
	}

	return docs, nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.DocID,
		&doc.Owner,
		&doc.Name,
		&doc.LastUpdated,
		&doc.LatestContent,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.CreatedAt = doc.CreatedAt.UTC()
	if doc.LastUpdated != nil {
		t := doc.LastUpdated.UTC()
		doc.LastUpdated = &t
	}
	return &doc, nil
}
