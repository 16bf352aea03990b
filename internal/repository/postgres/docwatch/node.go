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
	"github.com/nglaszik/docwatch/internal/domain/repositories"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	"github.com/nglaszik/docwatch/internal/repository/postgres"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) docwatchRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Placements are joined with their document so listings carry last_updated and owner.
const nodeColumns = `n.id, n.owner, n.parent_id, n.is_folder, n.doc_id, n.name, n.created_at, n.updated_at, d.last_updated, d.owner`

// Byte-order collation keeps ordering identical to Go string comparison.
const nodeOrder = `lower(n.name) COLLATE "C", n.id COLLATE "C"`

func (r *PostgresNodeRepository) from() string {
	return fmt.Sprintf(`%s n LEFT JOIN %s d ON d.doc_id = n.doc_id`, r.tables.Nodes, r.tables.Documents)
}

// Create inserts a folder or placement node
func (r *PostgresNodeRepository) Create(ctx context.Context, node models.Node) error {
	rec := models.RecordFromNode(node)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner, parent_id, is_folder, doc_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		rec.ID,
		rec.Owner,
		rec.ParentID,
		rec.IsFolder,
		rec.DocID,
		rec.Name,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node '%s' already exists", rec.Name),
				ResourceType: "node",
				ResourceID:   rec.ID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("node %s references a missing parent or document: %w", rec.ID, domain.ErrNotFound)
		}
		return postgres.Wrap("create node", err)
	}

	return nil
}

// GetByID retrieves a node
func (r *PostgresNodeRepository) GetByID(ctx context.Context, owner, id string) (models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE n.id = $1 AND n.owner = $2
	`, nodeColumns, r.from())

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, id, owner))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("node", id)
		}
		return nil, postgres.Wrap("get node", err)
	}

	return node, nil
}

// UpdateParent reparents a node
func (r *PostgresNodeRepository) UpdateParent(ctx context.Context, owner, id string, parentID *string, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, updated_at = $2
		WHERE id = $3 AND owner = $4
	`, r.tables.Nodes)

	return r.exec(ctx, "move node", id, query, parentID, updatedAt, id, owner)
}

// UpdateName changes a node's display name
func (r *PostgresNodeRepository) UpdateName(ctx context.Context, owner, id, name string, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, updated_at = $2
		WHERE id = $3 AND owner = $4
	`, r.tables.Nodes)

	return r.exec(ctx, "rename node", id, query, name, updatedAt, id, owner)
}

func (r *PostgresNodeRepository) exec(ctx context.Context, op, id, query string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%s %s: parent %w", op, id, domain.ErrNotFound)
		}
		return postgres.Wrap(op, err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("node", id)
	}
	return nil
}

// ListChildren lists direct children, folders first
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, owner string, parentID *string) ([]models.Node, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE n.owner = $1 AND n.parent_id IS NULL
			ORDER BY n.is_folder DESC, %s
		`, nodeColumns, r.from(), nodeOrder)
		args = append(args, owner)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE n.owner = $1 AND n.parent_id = $2
			ORDER BY n.is_folder DESC, %s
		`, nodeColumns, r.from(), nodeOrder)
		args = append(args, owner, *parentID)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.Wrap("list children", err)
	}
	return collectNodes(rows)
}

// ListAncestors walks parent links from id to the root with a recursive CTE.
// The depth column bounds the walk so corrupt cyclic data cannot loop forever.
func (r *PostgresNodeRepository) ListAncestors(ctx context.Context, owner, id string, maxDepth int) ([]models.Node, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 1 AS depth
			FROM %[1]s
			WHERE id = $1 AND owner = $2
			UNION ALL
			SELECT p.id, p.parent_id, c.depth + 1
			FROM %[1]s p
			JOIN chain c ON p.id = c.parent_id
			WHERE p.owner = $2 AND c.depth <= $3
		)
		SELECT %[2]s
		FROM chain c
		JOIN %[1]s n ON n.id = c.id
		LEFT JOIN %[3]s d ON d.doc_id = n.doc_id
		ORDER BY c.depth
	`, r.tables.Nodes, nodeColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, owner, maxDepth)
	if err != nil {
		return nil, postgres.Wrap("list ancestors", err)
	}
	chain, err := collectNodes(rows)
	if err != nil {
		return nil, err
	}

	if len(chain) == 0 {
		return nil, domain.NewNotFound("node", id)
	}
	if len(chain) > maxDepth {
		return nil, &domain.InvariantViolationError{
			Message: "ancestor chain of node " + id + " exceeds the maximum depth",
			Detail:  map[string]any{"node_id": id, "owner": owner, "max_depth": maxDepth},
		}
	}
	if top := chain[len(chain)-1].Base(); top.ParentID != nil {
		return nil, &domain.InvariantViolationError{
			Message: "node " + top.ID + " references a parent outside the hierarchy",
			Detail:  map[string]any{"node_id": top.ID, "parent_id": *top.ParentID, "owner": owner},
		}
	}

	return chain, nil
}

// SubtreeHeight counts the levels below and including id. The depth bound also
// stops the walk on cyclic data.
func (r *PostgresNodeRepository) SubtreeHeight(ctx context.Context, owner, id string, maxDepth int) (int, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id, 1 AS depth
			FROM %[1]s
			WHERE id = $1 AND owner = $2
			UNION ALL
			SELECT n.id, s.depth + 1
			FROM %[1]s n
			JOIN subtree s ON n.parent_id = s.id
			WHERE n.owner = $2 AND s.depth <= $3
		)
		SELECT COALESCE(MAX(depth), 0) FROM subtree
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	var height int
	if err := executor.QueryRow(ctx, query, id, owner, maxDepth).Scan(&height); err != nil {
		return 0, postgres.Wrap("subtree height", err)
	}
	if height == 0 {
		return 0, domain.NewNotFound("node", id)
	}
	return height, nil
}

// DeleteSubtree removes a node and its descendants
func (r *PostgresNodeRepository) DeleteSubtree(ctx context.Context, owner, id string) (int, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM %[1]s WHERE id = $1 AND owner = $2
			UNION
			SELECT n.id FROM %[1]s n JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM %[1]s WHERE id IN (SELECT id FROM subtree)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, owner)
	if err != nil {
		return 0, postgres.Wrap("delete subtree", err)
	}
	if result.RowsAffected() == 0 {
		return 0, domain.NewNotFound("node", id)
	}

	return int(result.RowsAffected()), nil
}

// FindPlacement returns the owner's placement of docID, or nil
func (r *PostgresNodeRepository) FindPlacement(ctx context.Context, owner, docID string) (*models.Placement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE n.owner = $1 AND n.doc_id = $2 AND NOT n.is_folder
	`, nodeColumns, r.from())

	executor := postgres.GetExecutor(ctx, r.pool)
	node, err := scanNode(executor.QueryRow(ctx, query, owner, docID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, postgres.Wrap("find placement", err)
	}

	placement, ok := node.(*models.Placement)
	if !ok {
		return nil, &domain.InvariantViolationError{
			Message: "placement query returned a folder",
			Detail:  map[string]any{"node_id": node.Base().ID},
		}
	}
	return placement, nil
}

// Search finds nodes whose name, or whose document's name, contains query.
// strpos avoids LIKE wildcard escaping.
func (r *PostgresNodeRepository) Search(ctx context.Context, query string, scope *models.SearchScope) ([]models.Node, int, error) {
	scopeCTE, where, args := r.searchFilter(query, scope)

	countQuery := fmt.Sprintf(`%s SELECT COUNT(*) FROM %s WHERE %s`, scopeCTE, r.from(), where)

	executor := postgres.GetExecutor(ctx, r.pool)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, postgres.Wrap("count search matches", err)
	}

	n := len(args)
	pageQuery := fmt.Sprintf(`
		%s
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, scopeCTE, nodeColumns, r.from(), where, nodeOrder, n+1, n+2)

	rows, err := executor.Query(ctx, pageQuery, append(args, scope.Limit, scope.Offset)...)
	if err != nil {
		return nil, 0, postgres.Wrap("search nodes", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, 0, err
	}

	return nodes, total, nil
}

func (r *PostgresNodeRepository) searchFilter(query string, scope *models.SearchScope) (cte, where string, args []any) {
	args = []any{scope.Owner, query}
	where = `n.owner = $1 AND (strpos(lower(n.name), lower($2)) > 0 OR strpos(lower(coalesce(d.name, '')), lower($2)) > 0)`

	if scope.FolderID == nil {
		return "", where, args
	}

	args = append(args, *scope.FolderID)
	cte = fmt.Sprintf(`
		WITH RECURSIVE scope AS (
			SELECT id FROM %[1]s WHERE owner = $1 AND parent_id = $3
			UNION
			SELECT c.id FROM %[1]s c JOIN scope s ON c.parent_id = s.id
		)`, r.tables.Nodes)
	where += ` AND n.id IN (SELECT id FROM scope)`
	return cte, where, args
}

// LockOwner takes a transaction-scoped advisory lock keyed by owner
func (r *PostgresNodeRepository) LockOwner(ctx context.Context, owner string) error {
	tx := repositories.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("lock owner %s: no transaction in context", owner)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "docwatch:hierarchy:"+owner); err != nil {
		return postgres.Wrap("lock owner", err)
	}
	return nil
}

func scanNode(row pgx.Row) (models.Node, error) {
	var rec models.NodeRecord
	var lastUpdated *time.Time
	var docOwner *string

	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.ParentID,
		&rec.IsFolder,
		&rec.DocID,
		&rec.Name,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&lastUpdated,
		&docOwner,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	node, err := models.NodeFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if p, ok := node.(*models.Placement); ok {
		if lastUpdated != nil {
			t := lastUpdated.UTC()
			p.LastUpdated = &t
		}
		if docOwner != nil {
			p.DocumentOwner = *docOwner
		}
	}
	return node, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("iterate nodes", err)
	}
	return nodes, nil
}
