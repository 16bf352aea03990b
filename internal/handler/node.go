package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
	"github.com/nglaszik/docwatch/internal/httputil"
)

// NodeHandler handles hierarchy HTTP requests
type NodeHandler struct {
	hierarchy docwatchSvc.HierarchyService
	query     docwatchSvc.QueryService
	logger    *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(hierarchy docwatchSvc.HierarchyService, query docwatchSvc.QueryService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		hierarchy: hierarchy,
		query:     query,
		logger:    logger,
	}
}

// ListChildren lists a folder's children with breadcrumbs
// GET /api/nodes?parent_id= (empty or "home" for the root)
func (h *NodeHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	listing, err := h.hierarchy.ListChildren(r.Context(), owner, httputil.ParentRef(r.URL.Query().Get("parent_id")))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// CreateFolder creates a folder
// POST /api/folders
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req docwatchSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	req.Owner = owner
	if req.ParentID != nil {
		req.ParentID = httputil.ParentRef(*req.ParentID)
	}

	folder, err := h.hierarchy.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// PlaceDocument places a tracked document in the hierarchy
// POST /api/placements
// A duplicate placement is a 409 whose resource_id names the existing node
func (h *NodeHandler) PlaceDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req docwatchSvc.PlaceDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	req.Owner = owner
	if req.ParentID != nil {
		req.ParentID = httputil.ParentRef(*req.ParentID)
	}

	placement, err := h.hierarchy.PlaceDocument(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, placement)
}

// UpdateNodeRequest is a PATCH body. parent_id is tri-state: absent leaves the
// node where it is, null or "home" moves it to the root.
type UpdateNodeRequest struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// UpdateNode renames and/or moves a node
// PATCH /api/nodes/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	id := r.PathValue("id")

	var req UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if req.Name == nil && !req.ParentID.Present {
		handleError(w, r, h.logger, domain.NewValidation("nothing to update: set name or parent_id"))
		return
	}

	var node models.Node
	if req.ParentID.Present {
		if node, err = h.hierarchy.Move(r.Context(), owner, id, req.ParentID.NodeRef()); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}
	if req.Name != nil {
		if node, err = h.hierarchy.Rename(r.Context(), owner, id, *req.Name); err != nil {
			handleError(w, r, h.logger, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode removes a node and everything below it
// DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	removed, err := h.hierarchy.Delete(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// Search finds nodes by name at any depth
// GET /api/search?q=&folder_id=&limit=&offset=
func (h *NodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	limit, err := httputil.QueryInt(r, "limit", models.DefaultSearchLimit)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	scope := &models.SearchScope{
		Owner:    owner,
		FolderID: httputil.ParentRef(r.URL.Query().Get("folder_id")),
		Limit:    limit,
		Offset:   offset,
	}
	results, err := h.query.Search(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), scope)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
