// Package app assembles docwatch from configuration. Both binaries go through
// Open so the server and the CLI see the same store, tables and limits.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/diff"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/memory"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
	postgresDocwatch "github.com/nglaszik/docwatch/internal/repository/postgres/docwatch"
	service "github.com/nglaszik/docwatch/internal/service/docwatch"
)

// App is a running docwatch core.
type App struct {
	Services *service.Services
	Repos    docwatchRepo.Repositories
	Engine   *diff.Engine

	// Pool and Tables are nil on the in-memory store.
	Pool   *pgxpool.Pool
	Tables *postgres.TableNames

	logger *slog.Logger
}

// Options tweaks Open.
type Options struct {
	// EnsureSchema creates missing tables before serving.
	EnsureSchema bool
}

// Open connects the configured store and wires the services. An empty
// DatabaseURL selects the in-memory store.
func Open(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	a := &App{
		Engine: diff.New(cfg.DiffOptions()),
		logger: logger,
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using the in-memory store (data is lost on exit)")
		a.Repos = memory.NewRepositories()
	} else {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: min(cfg.DBMaxConns, 2),
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.Pool = pool
		a.Tables = postgres.NewTableNames(cfg.TablePrefix)

		logger.Info("database connected",
			"max_conns", cfg.DBMaxConns,
			"table_prefix", cfg.TablePrefix,
		)

		if opts.EnsureSchema {
			if err := postgres.EnsureSchema(ctx, pool, a.Tables); err != nil {
				pool.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
			logger.Info("schema ready", "table_prefix", cfg.TablePrefix)
		}

		a.Repos = postgresDocwatch.NewRepositories(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: a.Tables,
			Logger: logger,
		})
	}

	a.Services = service.New(a.Repos, a.Engine, service.RetryPolicyFromConfig(cfg.Retry), logger)

	logger.Info("services initialized",
		"diff_unit", a.Engine.Options().Unit,
		"diff_max_tokens", a.Engine.Options().MaxTokens,
		"retry_max_attempts", cfg.Retry.MaxAttempts,
	)

	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
