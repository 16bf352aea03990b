package docwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nglaszik/docwatch/internal/domain"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// PostgresWatchlistRepository implements the WatchlistRepository interface
type PostgresWatchlistRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(config *postgres.RepositoryConfig) docwatchRepo.WatchlistRepository {
	return &PostgresWatchlistRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Add inserts the entry unless it is already present
func (r *PostgresWatchlistRepository) Add(ctx context.Context, owner, docID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner, doc_id)
		VALUES ($1, $2)
		ON CONFLICT (owner, doc_id) DO NOTHING
	`, r.tables.Watchlist)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, owner, docID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("document", docID)
		}
		return postgres.Wrap("add watchlist entry", err)
	}
	return nil
}

// Remove deletes the entry if present
func (r *PostgresWatchlistRepository) Remove(ctx context.Context, owner, docID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner = $1 AND doc_id = $2`, r.tables.Watchlist)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, owner, docID); err != nil {
		return postgres.Wrap("remove watchlist entry", err)
	}
	return nil
}

// Exists reports membership
func (r *PostgresWatchlistRepository) Exists(ctx context.Context, owner, docID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE owner = $1 AND doc_id = $2)`, r.tables.Watchlist)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, owner, docID).Scan(&exists); err != nil {
		return false, postgres.Wrap("check watchlist entry", err)
	}
	return exists, nil
}

// ListByOwner returns watched doc ids in ascending order
func (r *PostgresWatchlistRepository) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT doc_id FROM %s
		WHERE owner = $1
		ORDER BY doc_id COLLATE "C"
	`, r.tables.Watchlist)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, owner)
	if err != nil {
		return nil, postgres.Wrap("list watchlist", err)
	}
	defer rows.Close()

	docIDs := []string{}
	for rows.Next() {
		var docID string
		if err := rows.Scan(&docID); err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		docIDs = append(docIDs, docID)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("iterate watchlist", err)
	}

	return docIDs, nil
}
