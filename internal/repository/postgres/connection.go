package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nglaszik/docwatch/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents string
	Nodes     string
	Revisions string
	Watchlist string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: fmt.Sprintf("%sdocuments", prefix),
		Nodes:     fmt.Sprintf("%snodes", prefix),
		Revisions: fmt.Sprintf("%srevisions", prefix),
		Watchlist: fmt.Sprintf("%swatchlist", prefix),
	}
}

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a ping.
//
// Prepared statements are the default. Behind a transaction-mode PgBouncer (port 6543)
// they fail with "prepared statement already exists", so for that port the pool
// switches to QueryExecModeCacheDescribe, which keeps the extended protocol (needed for
// JSONB parameters) without server-side statements. An explicit
// default_query_exec_mode in the connection string always wins.
//
// Prefixed table names are interpolated before the SQL reaches the server, so each
// prefix gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
// Repositories call it on every query so they join a surrounding ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
