package docwatch

import (
	"encoding/json"
	"time"
)

// Node is an entry in an owner's folder hierarchy: either a *Folder or a *Placement.
type Node interface {
	Base() *NodeBase
	IsFolder() bool
}

// NodeBase holds the fields shared by both node variants.
type NodeBase struct {
	ID        string    `json:"user_doc_id"`
	Owner     string    `json:"owner"`
	ParentID  *string   `json:"parent_id"` // NULL = root level
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *NodeBase) Base() *NodeBase { return b }

// Folder is a container node. It never references a document.
type Folder struct {
	NodeBase
}

func (f *Folder) IsFolder() bool { return true }

func (f *Folder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NodeBase
		IsFolder bool    `json:"is_folder"`
		DocID    *string `json:"doc_id"`
	}{NodeBase: f.NodeBase, IsFolder: true})
}

// Placement places a tracked document inside an owner's hierarchy.
type Placement struct {
	NodeBase
	DocID string `json:"doc_id"`

	// Read-side enrichment from the document record; not stored on the node.
	DocumentOwner string     `json:"owner_username,omitempty"`
	LastUpdated   *time.Time `json:"last_updated"`
}

func (p *Placement) IsFolder() bool { return false }

func (p *Placement) MarshalJSON() ([]byte, error) {
	type plain Placement
	return json.Marshal(struct {
		*plain
		IsFolder bool `json:"is_folder"`
	}{plain: (*plain)(p), IsFolder: false})
}

// Breadcrumb is one step of the derived ancestor path of a node.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Listing is the result of listing a folder: its breadcrumb path from the root
// (the listed folder last) and its direct children.
type Listing struct {
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	Nodes       []Node       `json:"docs"`
}

// DefaultFolderName is used when a folder is created without a name.
const DefaultFolderName = "Untitled Folder"
