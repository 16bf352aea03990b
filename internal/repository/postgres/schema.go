package postgres

import (
	"context"
	"fmt"

	"github.com/nglaszik/docwatch/internal/domain/repositories"
)

// EnsureSchema creates the docwatch tables and indexes if they don't exist.
func EnsureSchema(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			doc_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			last_updated TIMESTAMPTZ,
			latest_content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			parent_id TEXT REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			is_folder BOOLEAN NOT NULL,
			doc_id TEXT REFERENCES ` + tables.Documents + `(doc_id),
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK ((is_folder AND doc_id IS NULL) OR (NOT is_folder AND doc_id IS NOT NULL)),
			CHECK (parent_id IS NULL OR parent_id <> id)
		)`,

		// Revisions are clustered and ordered by (doc_id, revision_time).
		`CREATE TABLE IF NOT EXISTS ` + tables.Revisions + ` (
			doc_id TEXT NOT NULL REFERENCES ` + tables.Documents + `(doc_id),
			revision_time TIMESTAMPTZ NOT NULL,
			added_count INTEGER NOT NULL,
			deleted_count INTEGER NOT NULL,
			unit TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			content TEXT NOT NULL,
			blocks JSONB,
			approximate BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (doc_id, revision_time)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Watchlist + ` (
			owner TEXT NOT NULL,
			doc_id TEXT NOT NULL REFERENCES ` + tables.Documents + `(doc_id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (owner, doc_id)
		)`,

		`CREATE INDEX IF NOT EXISTS ` + tables.Nodes + `_owner_parent_idx ON ` + tables.Nodes + `(owner, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.Nodes + `_owner_doc_idx ON ` + tables.Nodes + `(owner, doc_id) WHERE doc_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Documents + `_last_updated_idx ON ` + tables.Documents + `(last_updated DESC NULLS LAST)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return Wrap("ensure schema", err)
		}
	}
	return nil
}

// DropSchema drops all docwatch tables in reverse dependency order.
func DropSchema(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	for _, table := range []string{tables.Watchlist, tables.Revisions, tables.Nodes, tables.Documents} {
		if _, err := db.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
