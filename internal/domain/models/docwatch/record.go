package docwatch

import (
	"time"

	"github.com/nglaszik/docwatch/internal/domain"
)

// NodeRecord is the flat storage shape of a hierarchy node.
type NodeRecord struct {
	ID        string    `db:"id"`
	Owner     string    `db:"owner"`
	ParentID  *string   `db:"parent_id"`
	IsFolder  bool      `db:"is_folder"`
	DocID     *string   `db:"doc_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NodeFromRecord converts a stored record into its variant. A folder that carries a
// doc_id, or a placement without one, is corrupt data.
func NodeFromRecord(rec NodeRecord) (Node, error) {
	base := NodeBase{
		ID:        rec.ID,
		Owner:     rec.Owner,
		ParentID:  rec.ParentID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	switch {
	case rec.IsFolder && rec.DocID == nil:
		return &Folder{NodeBase: base}, nil
	case !rec.IsFolder && rec.DocID != nil && *rec.DocID != "":
		return &Placement{NodeBase: base, DocID: *rec.DocID}, nil
	}

	detail := map[string]any{"node_id": rec.ID, "owner": rec.Owner, "is_folder": rec.IsFolder}
	if rec.DocID != nil {
		detail["doc_id"] = *rec.DocID
	}
	return nil, &domain.InvariantViolationError{
		Message: "node " + rec.ID + " has an inconsistent folder/document shape",
		Detail:  detail,
	}
}

// RecordFromNode flattens a node for storage.
func RecordFromNode(n Node) NodeRecord {
	b := n.Base()
	rec := NodeRecord{
		ID:        b.ID,
		Owner:     b.Owner,
		ParentID:  b.ParentID,
		IsFolder:  n.IsFolder(),
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if p, ok := n.(*Placement); ok {
		docID := p.DocID
		rec.DocID = &docID
	}
	return rec
}
