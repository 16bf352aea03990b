package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
)

// NodeRepository implements docwatch.NodeRepository on a Store.
type NodeRepository struct {
	store *Store
}

// NewNodeRepository creates a node repository backed by store.
func NewNodeRepository(store *Store) docwatchRepo.NodeRepository {
	return &NodeRepository{store: store}
}

func (r *NodeRepository) Create(ctx context.Context, node models.Node) error {
	defer r.store.guard(ctx, true)()
	rec := models.RecordFromNode(node)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.nodes[rec.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("node '%s' already exists", rec.Name),
			ResourceType: "node",
			ResourceID:   rec.ID,
		}
	}
	if err := r.checkParent(rec.Owner, rec.ID, rec.ParentID); err != nil {
		return err
	}
	if rec.DocID != nil {
		if _, ok := r.store.documents[*rec.DocID]; !ok {
			return fmt.Errorf("node %s references a missing parent or document: %w", rec.ID, domain.ErrNotFound)
		}
		for _, other := range r.store.nodes {
			if other.Owner == rec.Owner && other.DocID != nil && *other.DocID == *rec.DocID {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("node '%s' already exists", rec.Name),
					ResourceType: "node",
					ResourceID:   rec.ID,
				}
			}
		}
	}

	r.store.nodes[rec.ID] = rec
	return nil
}

// checkParent mirrors the foreign key on parent_id. Caller holds mu.
func (r *NodeRepository) checkParent(owner, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if parent, ok := r.store.nodes[*parentID]; !ok || parent.Owner != owner {
		return fmt.Errorf("node %s references a missing parent or document: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, owner, id string) (models.Node, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.nodes[id]
	if !ok || rec.Owner != owner {
		return nil, domain.NewNotFound("node", id)
	}
	return r.toNode(rec)
}

func (r *NodeRepository) UpdateParent(ctx context.Context, owner, id string, parentID *string, updatedAt time.Time) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.nodes[id]
	if !ok || rec.Owner != owner {
		return domain.NewNotFound("node", id)
	}
	if err := r.checkParent(owner, id, parentID); err != nil {
		return err
	}

	rec.ParentID = parentID
	rec.UpdatedAt = updatedAt
	r.store.nodes[id] = rec
	return nil
}

func (r *NodeRepository) UpdateName(ctx context.Context, owner, id, name string, updatedAt time.Time) error {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.nodes[id]
	if !ok || rec.Owner != owner {
		return domain.NewNotFound("node", id)
	}

	rec.Name = name
	rec.UpdatedAt = updatedAt
	r.store.nodes[id] = rec
	return nil
}

func (r *NodeRepository) ListChildren(ctx context.Context, owner string, parentID *string) ([]models.Node, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var recs []models.NodeRecord
	for _, rec := range r.store.nodes {
		if rec.Owner == owner && sameParent(rec.ParentID, parentID) {
			recs = append(recs, rec)
		}
	}
	slices.SortFunc(recs, func(a, b models.NodeRecord) int {
		if a.IsFolder != b.IsFolder {
			if a.IsFolder {
				return -1
			}
			return 1
		}
		return compareByName(a, b)
	})

	return r.toNodes(recs)
}

func (r *NodeRepository) ListAncestors(ctx context.Context, owner, id string, maxDepth int) ([]models.Node, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.nodes[id]
	if !ok || rec.Owner != owner {
		return nil, domain.NewNotFound("node", id)
	}

	chain := []models.NodeRecord{rec}
	for rec.ParentID != nil {
		if len(chain) >= maxDepth {
			return nil, &domain.InvariantViolationError{
				Message: "ancestor chain of node " + id + " exceeds the maximum depth",
				Detail:  map[string]any{"node_id": id, "owner": owner, "max_depth": maxDepth},
			}
		}
		parent, ok := r.store.nodes[*rec.ParentID]
		if !ok || parent.Owner != owner {
			return nil, &domain.InvariantViolationError{
				Message: "node " + rec.ID + " references a parent outside the hierarchy",
				Detail:  map[string]any{"node_id": rec.ID, "parent_id": *rec.ParentID, "owner": owner},
			}
		}
		chain = append(chain, parent)
		rec = parent
	}

	return r.toNodes(chain)
}

func (r *NodeRepository) SubtreeHeight(ctx context.Context, owner, id string, maxDepth int) (int, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if rec, ok := r.store.nodes[id]; !ok || rec.Owner != owner {
		return 0, domain.NewNotFound("node", id)
	}

	children := map[string][]string{}
	for _, rec := range r.store.nodes {
		if rec.Owner == owner && rec.ParentID != nil {
			children[*rec.ParentID] = append(children[*rec.ParentID], rec.ID)
		}
	}

	height := 0
	level := []string{id}
	for len(level) > 0 && height <= maxDepth {
		height++
		var next []string
		for _, nodeID := range level {
			next = append(next, children[nodeID]...)
		}
		level = next
	}
	return height, nil
}

func (r *NodeRepository) DeleteSubtree(ctx context.Context, owner, id string) (int, error) {
	defer r.store.guard(ctx, true)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if rec, ok := r.store.nodes[id]; !ok || rec.Owner != owner {
		return 0, domain.NewNotFound("node", id)
	}

	children := map[string][]string{}
	for _, rec := range r.store.nodes {
		if rec.ParentID != nil {
			children[*rec.ParentID] = append(children[*rec.ParentID], rec.ID)
		}
	}

	removed := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if removed[cur] {
			continue
		}
		removed[cur] = true
		queue = append(queue, children[cur]...)
	}

	for nodeID := range removed {
		delete(r.store.nodes, nodeID)
	}
	return len(removed), nil
}

func (r *NodeRepository) FindPlacement(ctx context.Context, owner, docID string) (*models.Placement, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, rec := range r.store.nodes {
		if rec.Owner == owner && !rec.IsFolder && rec.DocID != nil && *rec.DocID == docID {
			node, err := r.toNode(rec)
			if err != nil {
				return nil, err
			}
			return node.(*models.Placement), nil
		}
	}
	return nil, nil
}

func (r *NodeRepository) Search(ctx context.Context, query string, scope *models.SearchScope) ([]models.Node, int, error) {
	defer r.store.guard(ctx, false)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var inScope map[string]bool
	if scope.FolderID != nil {
		inScope = r.descendants(scope.Owner, *scope.FolderID)
	}

	q := strings.ToLower(query)
	var matches []models.NodeRecord
	for _, rec := range r.store.nodes {
		if rec.Owner != scope.Owner {
			continue
		}
		if inScope != nil && !inScope[rec.ID] {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Name), q) || strings.Contains(strings.ToLower(r.documentName(rec)), q) {
			matches = append(matches, rec)
		}
	}
	slices.SortFunc(matches, compareByName)

	total := len(matches)
	start := min(scope.Offset, total)
	end := min(start+scope.Limit, total)

	nodes, err := r.toNodes(matches[start:end])
	if err != nil {
		return nil, 0, err
	}
	return nodes, total, nil
}

// LockOwner is a no-op: Store transactions already run one at a time.
func (r *NodeRepository) LockOwner(context.Context, string) error {
	return nil
}

// descendants returns every node strictly below folderID. Caller holds mu.
func (r *NodeRepository) descendants(owner, folderID string) map[string]bool {
	children := map[string][]string{}
	for _, rec := range r.store.nodes {
		if rec.Owner == owner && rec.ParentID != nil {
			children[*rec.ParentID] = append(children[*rec.ParentID], rec.ID)
		}
	}

	out := map[string]bool{}
	queue := slices.Clone(children[folderID])
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if out[cur] {
			continue
		}
		out[cur] = true
		queue = append(queue, children[cur]...)
	}
	return out
}

func (r *NodeRepository) documentName(rec models.NodeRecord) string {
	if rec.DocID == nil {
		return ""
	}
	return r.store.documents[*rec.DocID].Name
}

// toNode converts and enriches a record. Caller holds mu.
func (r *NodeRepository) toNode(rec models.NodeRecord) (models.Node, error) {
	node, err := models.NodeFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if p, ok := node.(*models.Placement); ok {
		if doc, ok := r.store.documents[p.DocID]; ok {
			p.DocumentOwner = doc.Owner
			if doc.LastUpdated != nil {
				t := *doc.LastUpdated
				p.LastUpdated = &t
			}
		}
	}
	return node, nil
}

func (r *NodeRepository) toNodes(recs []models.NodeRecord) ([]models.Node, error) {
	nodes := make([]models.Node, 0, len(recs))
	for _, rec := range recs {
		node, err := r.toNode(rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func compareByName(a, b models.NodeRecord) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		strings.Compare(a.ID, b.ID),
	)
}
